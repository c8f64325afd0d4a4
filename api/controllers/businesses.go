package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/localspot/localspot-backend/api/middleware"
	"github.com/localspot/localspot-backend/api/responses"
	"github.com/localspot/localspot-backend/api/validators"
	"github.com/localspot/localspot-backend/internal/businesses"
	pkgerrors "github.com/localspot/localspot-backend/pkg/errors"
	"github.com/localspot/localspot-backend/pkg/logger"
)

type BrowseService interface {
	Search(ctx context.Context, query, city string, limit int) ([]businesses.BusinessDTO, error)
	Nearby(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]businesses.BusinessDTO, error)
	GetBySlug(ctx context.Context, slug string) (*businesses.BusinessDTO, error)
	Categories(ctx context.Context, term string) ([]businesses.CategoryDTO, error)
	FeaturedCategories(ctx context.Context) ([]businesses.CategoryDTO, error)
	OwnerDashboard(ctx context.Context, ownerID string) (*businesses.DashboardDTO, error)
}

// SearchBusinesses handles the public listing search.
func SearchBusinesses(svc BrowseService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "browse service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := validators.SanitizeString(r.URL.Query().Get("q"), 200)
		city := validators.SanitizeString(r.URL.Query().Get("city"), 100)
		results, err := svc.Search(r.Context(), query, city, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, results)
	}
}

// NearbyBusinesses handles the public nearby lookup.
func NearbyBusinesses(svc BrowseService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "browse service unavailable"))
			return
		}

		lat, err := validators.ParseQueryFloat(r, "lat", -90, 90)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lng, err := validators.ParseQueryFloat(r, "lng", -180, 180)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		radius, err := validators.ParseQueryInt(r, "radius_km", 0, 0, 50)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		results, err := svc.Nearby(r.Context(), lat, lng, float64(radius), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, results)
	}
}

// BusinessBySlug returns a single public listing.
func BusinessBySlug(svc BrowseService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "browse service unavailable"))
			return
		}

		slug := chi.URLParam(r, "slug")
		if slug == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "slug is required"))
			return
		}

		business, err := svc.GetBySlug(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, business)
	}
}

// ListCategories returns the browseable category tree. The q parameter
// narrows by name, slug, or keyword; featured=true returns the landing set.
func ListCategories(svc BrowseService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "browse service unavailable"))
			return
		}

		if r.URL.Query().Get("featured") == "true" {
			categories, err := svc.FeaturedCategories(r.Context())
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, categories)
			return
		}

		categories, err := svc.Categories(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

// BusinessDashboard returns the caller's listings summary. The gate already
// required an owner or admin role to reach this route.
func BusinessDashboard(svc BrowseService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "browse service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		dashboard, err := svc.OwnerDashboard(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dashboard)
	}
}
