package roles

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"

	"github.com/localspot/localspot-backend/pkg/clerk"
	"github.com/localspot/localspot-backend/pkg/db/models"
	"github.com/localspot/localspot-backend/pkg/enums"
	pkgerrors "github.com/localspot/localspot-backend/pkg/errors"
	"github.com/localspot/localspot-backend/pkg/logger"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateRole(ctx context.Context, id string, role enums.UserRole) error
	SetBanned(ctx context.Context, id string, reason string) error
}

type providerClient interface {
	GetUser(ctx context.Context, userID string) (*clerk.User, error)
	UpdateUserMetadata(ctx context.Context, userID string, metadata clerk.PublicMetadata) error
	BanUser(ctx context.Context, userID string) error
}

type cacheInvalidator interface {
	InvalidateUser(ctx context.Context, userID string) error
}

type claimsOutbox interface {
	Enqueue(ctx context.Context, userID string, metadata clerk.PublicMetadata) error
}

// Service mutates user roles and ban state. Every mutation writes the local
// store first, then pushes the change to the identity provider so future
// session tokens carry the new claims. A failed push is queued for retry
// rather than rolling back the local write.
type Service struct {
	userRepo userRepository
	provider providerClient
	cache    cacheInvalidator
	outbox   claimsOutbox
	logg     *logger.Logger
}

// ServiceParams bundles the dependencies required to build a roles service.
type ServiceParams struct {
	UserRepo userRepository
	Provider providerClient
	Cache    cacheInvalidator
	Outbox   claimsOutbox
	Logger   *logger.Logger
}

// NewService constructs the role manager.
func NewService(params ServiceParams) (*Service, error) {
	if params.UserRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user repo required")
	}
	if params.Provider == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "provider client required")
	}
	return &Service{
		userRepo: params.UserRepo,
		provider: params.Provider,
		cache:    params.Cache,
		outbox:   params.Outbox,
		logg:     params.Logger,
	}, nil
}

// SetRole updates the user's authoritative role locally, then pushes the
// claim metadata to the provider. The pushed roles list is additive: it is
// the union of everything the provider already lists and the new role.
func (s *Service) SetRole(ctx context.Context, userID string, role enums.UserRole) error {
	if !role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}

	if err := s.userRepo.UpdateRole(ctx, userID, role); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update role")
	}

	metadata := clerk.PublicMetadata{Role: role}
	if existing, err := s.provider.GetUser(ctx, userID); err == nil {
		metadata.Roles = unionRoles(existing.PublicMetadata.Roles, role)
	} else {
		metadata.Roles = unionRoles(nil, role)
		if s.logg != nil {
			s.logg.Warn(ctx, "could not load provider roles before push")
		}
	}

	s.invalidate(ctx, userID)

	if err := s.provider.UpdateUserMetadata(ctx, userID, metadata); err != nil {
		return s.deferClaimsPush(ctx, userID, metadata, err)
	}
	return nil
}

// UpgradeToBusinessOwner promotes the user so they can manage listings.
// Upgrading an owner again is a no-op push of the same claims.
func (s *Service) UpgradeToBusinessOwner(ctx context.Context, userID string) error {
	return s.SetRole(ctx, userID, enums.UserRoleBusinessOwner)
}

// Ban deactivates the user locally and then bans them at the provider, which
// also revokes their active sessions there.
func (s *Service) Ban(ctx context.Context, userID, reason string) error {
	if err := s.userRepo.SetBanned(ctx, userID, reason); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set banned")
	}

	s.invalidate(ctx, userID)

	if err := s.provider.BanUser(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ban user at provider")
	}
	return nil
}

// deferClaimsPush queues the failed metadata push for the retry worker. The
// local role write already committed, so the caller still gets an error that
// says the provider is behind.
func (s *Service) deferClaimsPush(ctx context.Context, userID string, metadata clerk.PublicMetadata, cause error) error {
	if s.outbox != nil {
		if enqueueErr := s.outbox.Enqueue(ctx, userID, metadata); enqueueErr != nil {
			if s.logg != nil {
				s.logg.Error(ctx, "failed to queue claims push retry", enqueueErr)
			}
		} else if s.logg != nil {
			s.logg.Warn(ctx, "claims push deferred to retry worker")
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, "push role claims")
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateUser(ctx, userID); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "failed to invalidate user cache")
	}
}

// HasRole reports whether the user holds the role. Every live user holds
// CUSTOMER implicitly.
func HasRole(user *models.User, role enums.UserRole) bool {
	if user == nil {
		return false
	}
	if role == enums.UserRoleCustomer {
		return true
	}
	return user.Role == role
}

// HasAnyRole reports whether the user holds at least one of the roles.
func HasAnyRole(user *models.User, roles ...enums.UserRole) bool {
	for _, role := range roles {
		if HasRole(user, role) {
			return true
		}
	}
	return false
}

// unionRoles merges the provider's existing roles list with the new role and
// the implicit CUSTOMER grant, in canonical order. Roles are only ever added.
func unionRoles(existing []string, role enums.UserRole) []string {
	present := map[string]bool{
		enums.UserRoleCustomer.String(): true,
		role.String():                   true,
	}
	for _, r := range existing {
		present[r] = true
	}

	ordered := []enums.UserRole{
		enums.UserRoleCustomer,
		enums.UserRoleBusinessOwner,
		enums.UserRoleAdmin,
		enums.UserRoleModerator,
	}
	out := make([]string, 0, len(present))
	for _, r := range ordered {
		if present[r.String()] {
			out = append(out, r.String())
			delete(present, r.String())
		}
	}
	// Unknown provider-side entries are preserved, never dropped. Sorted so
	// repeated pushes of the same state produce identical lists.
	leftovers := make([]string, 0, len(present))
	for r := range present {
		leftovers = append(leftovers, r)
	}
	sort.Strings(leftovers)
	return append(out, leftovers...)
}
