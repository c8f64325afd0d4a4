package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/localspot/localspot-backend/api/middleware"
	"github.com/localspot/localspot-backend/api/responses"
	"github.com/localspot/localspot-backend/api/validators"
	"github.com/localspot/localspot-backend/internal/users"
	"github.com/localspot/localspot-backend/pkg/enums"
	pkgerrors "github.com/localspot/localspot-backend/pkg/errors"
	"github.com/localspot/localspot-backend/pkg/logger"
)

type UserReadService interface {
	GetByID(ctx context.Context, id string) (*users.UserDTO, error)
}

type RoleService interface {
	SetRole(ctx context.Context, userID string, role enums.UserRole) error
	UpgradeToBusinessOwner(ctx context.Context, userID string) error
	Ban(ctx context.Context, userID, reason string) error
}

// Me returns the authenticated caller's user record.
func Me(svc UserReadService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		user, err := svc.GetByID(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

// UpgradeToBusinessOwner promotes the caller so they can list businesses.
func UpgradeToBusinessOwner(svc RoleService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "role service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		if err := svc.UpgradeToBusinessOwner(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"role": string(enums.UserRoleBusinessOwner)})
	}
}

type setRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// AdminSetRole sets another user's role. The router mounts this behind the
// admin gate.
func AdminSetRole(svc RoleService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "role service unavailable"))
			return
		}

		targetID := chi.URLParam(r, "userID")
		if targetID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "user id is required"))
			return
		}

		var req setRoleRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role, err := enums.ParseUserRole(req.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown role"))
			return
		}

		if err := svc.SetRole(r.Context(), targetID, role); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"role": string(role)})
	}
}

type banRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

// AdminBanUser bans a user and revokes their provider sessions.
func AdminBanUser(svc RoleService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "role service unavailable"))
			return
		}

		targetID := chi.URLParam(r, "userID")
		if targetID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "user id is required"))
			return
		}

		var req banRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Ban(r.Context(), targetID, req.Reason); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"banned": true})
	}
}
