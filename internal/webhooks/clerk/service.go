package clerkwebhook

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/localspot/localspot-backend/internal/users"
	"github.com/localspot/localspot-backend/pkg/db/models"
	pkgerrors "github.com/localspot/localspot-backend/pkg/errors"
	"github.com/localspot/localspot-backend/pkg/logger"
)

const verifiedStatus = "verified"

type userRepository interface {
	Upsert(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, dto users.UpdateProfileDTO) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
}

type cacheInvalidator interface {
	InvalidateUser(ctx context.Context, userID string) error
}

// Service applies provider lifecycle events to the local user store. Every
// handler is idempotent so redeliveries converge on the same row.
type Service struct {
	userRepo userRepository
	cache    cacheInvalidator
	logg     *logger.Logger
}

// ServiceParams bundles the dependencies required to build a webhook service.
type ServiceParams struct {
	UserRepo userRepository
	Cache    cacheInvalidator
	Logger   *logger.Logger
}

// NewService constructs the lifecycle sync service.
func NewService(params ServiceParams) (*Service, error) {
	if params.UserRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user repo required")
	}
	return &Service{
		userRepo: params.UserRepo,
		cache:    params.Cache,
		logg:     params.Logger,
	}, nil
}

// HandleEvent dispatches a verified event to its handler. Unknown event
// types are logged and acknowledged so the provider stops retrying them.
func (s *Service) HandleEvent(ctx context.Context, event *Event) error {
	if event == nil || event.Type == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "event type required")
	}
	if s.logg != nil {
		ctx = s.logg.WithEventType(ctx, event.Type)
	}

	switch event.Type {
	case EventUserCreated:
		return s.handleCreated(ctx, event.Data)
	case EventUserUpdated:
		return s.handleUpdated(ctx, event.Data)
	case EventUserDeleted:
		return s.handleDeleted(ctx, event.Data)
	default:
		if s.logg != nil {
			s.logg.Info(ctx, "ignoring unhandled webhook event type")
		}
		return nil
	}
}

func (s *Service) handleCreated(ctx context.Context, raw json.RawMessage) error {
	data, err := decodeUserData(raw)
	if err != nil {
		return err
	}

	dto := users.CreateUserDTO{
		ID:        data.ID,
		FirstName: data.FirstName,
		LastName:  data.LastName,
		CreatedAt: data.createdTime(),
	}
	if data.ImageURL != "" {
		avatar := data.ImageURL
		dto.Avatar = &avatar
	}
	if email := data.primaryEmail(); email != nil {
		dto.Email = email.EmailAddress
		if email.Verification.Status == verifiedStatus {
			verifiedAt := time.Now().UTC()
			dto.EmailVerified = &verifiedAt
		}
	}
	if phone := data.primaryPhone(); phone != nil {
		number := phone.PhoneNumber
		dto.Phone = &number
		dto.PhoneVerified = phone.Verification.Status == verifiedStatus
	}

	if _, err := s.userRepo.Upsert(ctx, dto); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert user")
	}
	s.invalidate(ctx, data.ID)
	return nil
}

func (s *Service) handleUpdated(ctx context.Context, raw json.RawMessage) error {
	data, err := decodeUserData(raw)
	if err != nil {
		return err
	}

	dto := users.UpdateProfileDTO{
		FirstName: data.FirstName,
		LastName:  data.LastName,
	}
	if data.ImageURL != "" {
		avatar := data.ImageURL
		dto.Avatar = &avatar
	}
	if email := data.primaryEmail(); email != nil {
		dto.Email = email.EmailAddress
	}
	if phone := data.primaryPhone(); phone != nil {
		number := phone.PhoneNumber
		dto.Phone = &number
		dto.PhoneVerified = phone.Verification.Status == verifiedStatus
	}

	if err := s.userRepo.UpdateProfile(ctx, data.ID, dto); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found for update")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user profile")
	}
	s.invalidate(ctx, data.ID)
	return nil
}

func (s *Service) handleDeleted(ctx context.Context, raw json.RawMessage) error {
	data, err := decodeUserData(raw)
	if err != nil {
		return err
	}

	if err := s.userRepo.SoftDelete(ctx, data.ID, time.Now().UTC()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Deleting a user we never stored is a no-op, not a failure.
			if s.logg != nil {
				s.logg.Warn(ctx, "delete event for unknown user")
			}
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "soft delete user")
	}
	s.invalidate(ctx, data.ID)
	return nil
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateUser(ctx, userID); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "failed to invalidate user cache")
	}
}

func decodeUserData(raw json.RawMessage) (*UserData, error) {
	var data UserData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode event data")
	}
	if data.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event user id required")
	}
	return &data, nil
}
