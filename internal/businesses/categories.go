package businesses

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/localspot/localspot-backend/pkg/db/models"
)

// CategoryRepository reads the category tree.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// ListActive returns active categories ordered for display.
func (r *CategoryRepository) ListActive(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("display_order ASC").
		Order("name ASC").
		Find(&rows).Error
	return rows, err
}

// ListFeatured returns the active categories flagged for the landing page.
func (r *CategoryRepository) ListFeatured(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND is_featured = ?", true, true).
		Order("display_order ASC").
		Find(&rows).Error
	return rows, err
}

// SearchByKeyword matches active categories whose name, slug, or keyword
// list contains the term. Keyword matching happens in memory because the
// keywords column is a text array.
func (r *CategoryRepository) SearchByKeyword(ctx context.Context, term string) ([]models.Category, error) {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return r.ListActive(ctx)
	}

	rows, err := r.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]models.Category, 0, len(rows))
	for _, row := range rows {
		if categoryMatches(&row, needle) {
			matched = append(matched, row)
		}
	}
	return matched, nil
}

func categoryMatches(c *models.Category, needle string) bool {
	if strings.Contains(strings.ToLower(c.Name), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(c.Slug), needle) {
		return true
	}
	for _, keyword := range c.SearchKeywords {
		if strings.Contains(strings.ToLower(keyword), needle) {
			return true
		}
	}
	return false
}
