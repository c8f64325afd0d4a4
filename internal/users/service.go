package users

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/localspot/localspot-backend/pkg/config"
	"github.com/localspot/localspot-backend/pkg/db/models"
	"github.com/localspot/localspot-backend/pkg/logger"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	CountOwnedBusinesses(ctx context.Context, ownerID string) (int64, error)
}

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	UserCacheKey(userID string) string
}

// Service serves full user reads, caching them per user id. The cache entry is
// what the role manager invalidates after a mutation.
type Service struct {
	repo  userRepository
	cache cacheStore
	ttl   time.Duration
	logg  *logger.Logger
}

// ServiceParams bundles the dependencies required to build a users service.
type ServiceParams struct {
	Repo   userRepository
	Cache  cacheStore
	Config config.CacheConfig
	Logger *logger.Logger
}

// NewService constructs the users read service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	ttl := params.Config.UserTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{
		repo:  params.Repo,
		cache: params.Cache,
		ttl:   ttl,
		logg:  params.Logger,
	}, nil
}

// GetByID returns the live user, from cache when possible. Cache failures are
// logged and degrade to a direct read.
func (s *Service) GetByID(ctx context.Context, id string) (*UserDTO, error) {
	if s.cache != nil {
		key := s.cache.UserCacheKey(id)
		if raw, err := s.cache.Get(ctx, key); err == nil && raw != "" {
			var dto UserDTO
			if err := json.Unmarshal([]byte(raw), &dto); err == nil {
				return &dto, nil
			}
			if s.logg != nil {
				s.logg.Warn(ctx, "discarding malformed cached user entry")
			}
		}
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(user)

	if s.cache != nil {
		if encoded, err := json.Marshal(dto); err == nil {
			if err := s.cache.Set(ctx, s.cache.UserCacheKey(id), string(encoded), s.ttl); err != nil && s.logg != nil {
				s.logg.Warn(ctx, "failed to cache user read")
			}
		}
	}
	return dto, nil
}

// OwnsBusinesses reports whether the user owns at least one live business.
func (s *Service) OwnsBusinesses(ctx context.Context, userID string) (bool, error) {
	count, err := s.repo.CountOwnedBusinesses(ctx, userID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
