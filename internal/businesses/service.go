package businesses

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/localspot/localspot-backend/pkg/db/models"
	pkgerrors "github.com/localspot/localspot-backend/pkg/errors"
	"github.com/localspot/localspot-backend/pkg/logger"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
	defaultRadiusKm    = 5.0
	maxRadiusKm        = 50.0
)

type businessRepository interface {
	Search(ctx context.Context, query, city string, limit int) ([]models.Business, error)
	Nearby(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]models.Business, error)
	FindByOwner(ctx context.Context, ownerID string) ([]models.Business, error)
	FindBySlug(ctx context.Context, slug string) (*models.Business, error)
}

type categoryRepository interface {
	ListActive(ctx context.Context) ([]models.Category, error)
	ListFeatured(ctx context.Context) ([]models.Category, error)
	SearchByKeyword(ctx context.Context, term string) ([]models.Category, error)
}

// Service backs the public browse endpoints and the owner dashboard.
type Service struct {
	repo       businessRepository
	categories categoryRepository
	logg       *logger.Logger
}

// ServiceParams bundles the dependencies required to build a businesses service.
type ServiceParams struct {
	Repo       businessRepository
	Categories categoryRepository
	Logger     *logger.Logger
}

// NewService constructs the browse service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "business repo required")
	}
	if params.Categories == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "category repo required")
	}
	return &Service{
		repo:       params.Repo,
		categories: params.Categories,
		logg:       params.Logger,
	}, nil
}

// Search runs the public full-text listing search.
func (s *Service) Search(ctx context.Context, query, city string, limit int) ([]BusinessDTO, error) {
	rows, err := s.repo.Search(ctx, query, city, clampLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search businesses")
	}
	return businessesFromModels(rows), nil
}

// Nearby returns listings around a point.
func (s *Service) Nearby(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]BusinessDTO, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coordinates out of range")
	}
	if radiusKm <= 0 {
		radiusKm = defaultRadiusKm
	}
	if radiusKm > maxRadiusKm {
		radiusKm = maxRadiusKm
	}

	rows, err := s.repo.Nearby(ctx, lat, lng, radiusKm, clampLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find nearby businesses")
	}
	return businessesFromModels(rows), nil
}

// GetBySlug returns a single public listing.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*BusinessDTO, error) {
	row, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "business not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load business")
	}
	dto := businessFromModel(row)
	return &dto, nil
}

// Categories lists the browseable tree, optionally matching a search term.
func (s *Service) Categories(ctx context.Context, term string) ([]CategoryDTO, error) {
	rows, err := s.categories.SearchByKeyword(ctx, term)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return categoriesFromModels(rows), nil
}

// FeaturedCategories lists the landing-page categories.
func (s *Service) FeaturedCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.categories.ListFeatured(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list featured categories")
	}
	return categoriesFromModels(rows), nil
}

// OwnerDashboard summarizes the caller's listings.
func (s *Service) OwnerDashboard(ctx context.Context, ownerID string) (*DashboardDTO, error) {
	rows, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load owned businesses")
	}

	dashboard := DashboardDTO{Businesses: businessesFromModels(rows)}
	for _, row := range rows {
		dashboard.TotalReviews += row.ReviewCount
	}
	return &dashboard, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultSearchLimit
	}
	if limit > maxSearchLimit {
		return maxSearchLimit
	}
	return limit
}
