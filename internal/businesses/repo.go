package businesses

import (
	"context"
	"math"
	"strings"

	"gorm.io/gorm"

	"github.com/localspot/localspot-backend/pkg/db/models"
)

const kmPerLatDegree = 111.0

// Repository reads business listings. All queries see live, active rows only.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) live(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Business{}).
		Where("deleted_at IS NULL AND is_active = ?", true)
}

// Search matches listings by name or description, optionally narrowed to a
// city. Matching is case-insensitive substring.
func (r *Repository) Search(ctx context.Context, query, city string, limit int) ([]models.Business, error) {
	q := r.live(ctx)
	if trimmed := strings.TrimSpace(query); trimmed != "" {
		pattern := "%" + strings.ToLower(trimmed) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?", pattern, pattern)
	}
	if trimmed := strings.TrimSpace(city); trimmed != "" {
		q = q.Where("LOWER(COALESCE(city, '')) = ?", strings.ToLower(trimmed))
	}

	var rows []models.Business
	err := q.Order("rating DESC").
		Order("review_count DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// Nearby returns listings inside a bounding box around the point. The box is
// an approximation good enough for city-scale radii.
func (r *Repository) Nearby(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]models.Business, error) {
	latDelta := radiusKm / kmPerLatDegree
	lngScale := math.Cos(lat * math.Pi / 180)
	if lngScale < 0.01 {
		lngScale = 0.01
	}
	lngDelta := radiusKm / (kmPerLatDegree * lngScale)

	var rows []models.Business
	err := r.live(ctx).
		Where("lat BETWEEN ? AND ?", lat-latDelta, lat+latDelta).
		Where("lng BETWEEN ? AND ?", lng-lngDelta, lng+lngDelta).
		Order("rating DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// FindByOwner returns the owner's live listings, including inactive ones so
// the dashboard can show paused businesses.
func (r *Repository) FindByOwner(ctx context.Context, ownerID string) ([]models.Business, error) {
	var rows []models.Business
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND deleted_at IS NULL", ownerID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// FindBySlug returns a single live listing.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Business, error) {
	var row models.Business
	err := r.db.WithContext(ctx).
		Where("slug = ? AND deleted_at IS NULL AND is_active = ?", slug, true).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}
