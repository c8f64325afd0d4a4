package businesses

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/localspot/localspot-backend/pkg/db/models"
	pkgerrors "github.com/localspot/localspot-backend/pkg/errors"
)

type stubBusinessRepo struct {
	rows       []models.Business
	lastLimit  int
	lastRadius float64
	slugResult *models.Business
}

func (s *stubBusinessRepo) Search(_ context.Context, _, _ string, limit int) ([]models.Business, error) {
	s.lastLimit = limit
	return s.rows, nil
}

func (s *stubBusinessRepo) Nearby(_ context.Context, _, _, radiusKm float64, limit int) ([]models.Business, error) {
	s.lastLimit = limit
	s.lastRadius = radiusKm
	return s.rows, nil
}

func (s *stubBusinessRepo) FindByOwner(_ context.Context, _ string) ([]models.Business, error) {
	return s.rows, nil
}

func (s *stubBusinessRepo) FindBySlug(_ context.Context, _ string) (*models.Business, error) {
	if s.slugResult == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.slugResult, nil
}

type stubCategoryRepo struct {
	rows []models.Category
}

func (s *stubCategoryRepo) ListActive(_ context.Context) ([]models.Category, error)   { return s.rows, nil }
func (s *stubCategoryRepo) ListFeatured(_ context.Context) ([]models.Category, error) { return s.rows, nil }
func (s *stubCategoryRepo) SearchByKeyword(_ context.Context, _ string) ([]models.Category, error) {
	return s.rows, nil
}

func newBrowseService(t *testing.T, repo *stubBusinessRepo) *Service {
	t.Helper()
	service, err := NewService(ServiceParams{Repo: repo, Categories: &stubCategoryRepo{}})
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}
	return service
}

func TestSearch_ClampsLimit(t *testing.T) {
	repo := &stubBusinessRepo{}
	service := newBrowseService(t, repo)

	if _, err := service.Search(context.Background(), "chai", "", 0); err != nil {
		t.Fatalf("search: %v", err)
	}
	if repo.lastLimit != defaultSearchLimit {
		t.Fatalf("expected default limit, got %d", repo.lastLimit)
	}

	if _, err := service.Search(context.Background(), "chai", "", 5000); err != nil {
		t.Fatalf("search: %v", err)
	}
	if repo.lastLimit != maxSearchLimit {
		t.Fatalf("expected capped limit, got %d", repo.lastLimit)
	}
}

func TestNearby_ValidatesCoordinatesAndClampsRadius(t *testing.T) {
	repo := &stubBusinessRepo{}
	service := newBrowseService(t, repo)

	_, err := service.Nearby(context.Background(), 91, 72.8, 5, 10)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	if _, err := service.Nearby(context.Background(), 19.05, 72.84, 0, 10); err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if repo.lastRadius != defaultRadiusKm {
		t.Fatalf("expected default radius, got %v", repo.lastRadius)
	}

	if _, err := service.Nearby(context.Background(), 19.05, 72.84, 900, 10); err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if repo.lastRadius != maxRadiusKm {
		t.Fatalf("expected capped radius, got %v", repo.lastRadius)
	}
}

func TestGetBySlug_NotFound(t *testing.T) {
	service := newBrowseService(t, &stubBusinessRepo{})

	_, err := service.GetBySlug(context.Background(), "missing")
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestOwnerDashboard_SumsReviews(t *testing.T) {
	repo := &stubBusinessRepo{rows: []models.Business{
		{Name: "A", ReviewCount: 12},
		{Name: "B", ReviewCount: 30},
	}}
	service := newBrowseService(t, repo)

	dashboard, err := service.OwnerDashboard(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if dashboard.TotalReviews != 42 {
		t.Fatalf("expected 42 reviews, got %d", dashboard.TotalReviews)
	}
	if len(dashboard.Businesses) != 2 {
		t.Fatalf("expected 2 listings")
	}
}
