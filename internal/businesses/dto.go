package businesses

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/localspot/localspot-backend/pkg/db/models"
)

// BusinessDTO is the transport shape for a listing.
type BusinessDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description *string         `json:"description,omitempty"`
	CategoryID  *uuid.UUID      `json:"category_id,omitempty"`
	Phone       *string         `json:"phone,omitempty"`
	Address     *string         `json:"address,omitempty"`
	City        *string         `json:"city,omitempty"`
	Lat         float64         `json:"lat"`
	Lng         float64         `json:"lng"`
	Rating      decimal.Decimal `json:"rating"`
	ReviewCount int             `json:"review_count"`
}

// CategoryDTO is the transport shape for a category node.
type CategoryDTO struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Slug         string     `json:"slug"`
	Description  *string    `json:"description,omitempty"`
	Icon         *string    `json:"icon,omitempty"`
	ParentID     *uuid.UUID `json:"parent_id,omitempty"`
	DisplayOrder int        `json:"display_order"`
	IsFeatured   bool       `json:"is_featured"`
}

// DashboardDTO summarizes an owner's listings for the business dashboard.
type DashboardDTO struct {
	Businesses   []BusinessDTO `json:"businesses"`
	TotalReviews int           `json:"total_reviews"`
}

func businessFromModel(b *models.Business) BusinessDTO {
	return BusinessDTO{
		ID:          b.ID,
		Name:        b.Name,
		Slug:        b.Slug,
		Description: b.Description,
		CategoryID:  b.CategoryID,
		Phone:       b.Phone,
		Address:     b.Address,
		City:        b.City,
		Lat:         b.Lat,
		Lng:         b.Lng,
		Rating:      b.Rating,
		ReviewCount: b.ReviewCount,
	}
}

func categoryFromModel(c *models.Category) CategoryDTO {
	return CategoryDTO{
		ID:           c.ID,
		Name:         c.Name,
		Slug:         c.Slug,
		Description:  c.Description,
		Icon:         c.Icon,
		ParentID:     c.ParentID,
		DisplayOrder: c.DisplayOrder,
		IsFeatured:   c.IsFeatured,
	}
}

func businessesFromModels(rows []models.Business) []BusinessDTO {
	out := make([]BusinessDTO, 0, len(rows))
	for i := range rows {
		out = append(out, businessFromModel(&rows[i]))
	}
	return out
}

func categoriesFromModels(rows []models.Category) []CategoryDTO {
	out := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, categoryFromModel(&rows[i]))
	}
	return out
}
