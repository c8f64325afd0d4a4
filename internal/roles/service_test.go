package roles

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"gorm.io/gorm"

	"github.com/localspot/localspot-backend/pkg/clerk"
	"github.com/localspot/localspot-backend/pkg/db/models"
	"github.com/localspot/localspot-backend/pkg/enums"
	pkgerrors "github.com/localspot/localspot-backend/pkg/errors"
)

type stubRoleRepo struct {
	roles     map[string]enums.UserRole
	banned    map[string]string
	updateErr error
	banErr    error
}

func newStubRoleRepo() *stubRoleRepo {
	return &stubRoleRepo{roles: map[string]enums.UserRole{}, banned: map[string]string{}}
}

func (s *stubRoleRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	role, ok := s.roles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.User{ID: id, Role: role}, nil
}

func (s *stubRoleRepo) UpdateRole(_ context.Context, id string, role enums.UserRole) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.roles[id] = role
	return nil
}

func (s *stubRoleRepo) SetBanned(_ context.Context, id string, reason string) error {
	if s.banErr != nil {
		return s.banErr
	}
	s.banned[id] = reason
	return nil
}

type stubProvider struct {
	user    *clerk.User
	getErr  error
	pushed  []clerk.PublicMetadata
	pushErr error
	banned  []string
	banErr  error
}

func (s *stubProvider) GetUser(_ context.Context, _ string) (*clerk.User, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.user, nil
}

func (s *stubProvider) UpdateUserMetadata(_ context.Context, _ string, metadata clerk.PublicMetadata) error {
	if s.pushErr != nil {
		return s.pushErr
	}
	s.pushed = append(s.pushed, metadata)
	return nil
}

func (s *stubProvider) BanUser(_ context.Context, userID string) error {
	if s.banErr != nil {
		return s.banErr
	}
	s.banned = append(s.banned, userID)
	return nil
}

type stubRoleCache struct {
	invalidated []string
}

func (s *stubRoleCache) InvalidateUser(_ context.Context, userID string) error {
	s.invalidated = append(s.invalidated, userID)
	return nil
}

type stubOutbox struct {
	queued []clerk.PublicMetadata
	err    error
}

func (s *stubOutbox) Enqueue(_ context.Context, _ string, metadata clerk.PublicMetadata) error {
	if s.err != nil {
		return s.err
	}
	s.queued = append(s.queued, metadata)
	return nil
}

func newRoleService(t *testing.T, repo *stubRoleRepo, provider *stubProvider, cache *stubRoleCache, outbox *stubOutbox) *Service {
	t.Helper()
	params := ServiceParams{UserRepo: repo, Provider: provider}
	if cache != nil {
		params.Cache = cache
	}
	if outbox != nil {
		params.Outbox = outbox
	}
	service, err := NewService(params)
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}
	return service
}

func TestSetRole_WritesStoreThenPushesClaims(t *testing.T) {
	repo := newStubRoleRepo()
	repo.roles["user_1"] = enums.UserRoleCustomer
	provider := &stubProvider{user: &clerk.User{ID: "user_1"}}
	cache := &stubRoleCache{}
	service := newRoleService(t, repo, provider, cache, nil)

	if err := service.SetRole(context.Background(), "user_1", enums.UserRoleBusinessOwner); err != nil {
		t.Fatalf("set role: %v", err)
	}
	if repo.roles["user_1"] != enums.UserRoleBusinessOwner {
		t.Fatalf("expected local role updated, got %q", repo.roles["user_1"])
	}
	if len(provider.pushed) != 1 {
		t.Fatalf("expected one metadata push")
	}

	pushed := provider.pushed[0]
	if pushed.Role != enums.UserRoleBusinessOwner {
		t.Fatalf("expected primary role pushed, got %q", pushed.Role)
	}
	want := []string{"CUSTOMER", "BUSINESS_OWNER"}
	if !reflect.DeepEqual(pushed.Roles, want) {
		t.Fatalf("expected roles %v, got %v", want, pushed.Roles)
	}
	if len(cache.invalidated) != 1 || cache.invalidated[0] != "user_1" {
		t.Fatalf("expected cache invalidation, got %v", cache.invalidated)
	}
}

func TestSetRole_RolesListIsAdditive(t *testing.T) {
	repo := newStubRoleRepo()
	repo.roles["user_1"] = enums.UserRoleBusinessOwner
	provider := &stubProvider{user: &clerk.User{
		ID: "user_1",
		PublicMetadata: clerk.PublicMetadata{
			Role:  enums.UserRoleBusinessOwner,
			Roles: []string{"CUSTOMER", "BUSINESS_OWNER"},
		},
	}}
	service := newRoleService(t, repo, provider, nil, nil)

	if err := service.SetRole(context.Background(), "user_1", enums.UserRoleAdmin); err != nil {
		t.Fatalf("set role: %v", err)
	}

	want := []string{"CUSTOMER", "BUSINESS_OWNER", "ADMIN"}
	if !reflect.DeepEqual(provider.pushed[0].Roles, want) {
		t.Fatalf("expected additive roles %v, got %v", want, provider.pushed[0].Roles)
	}
}

func TestSetRole_UnknownProviderEntriesKeepStableOrder(t *testing.T) {
	repo := newStubRoleRepo()
	repo.roles["user_1"] = enums.UserRoleCustomer
	provider := &stubProvider{user: &clerk.User{
		ID: "user_1",
		PublicMetadata: clerk.PublicMetadata{
			Role:  enums.UserRoleCustomer,
			Roles: []string{"SUPPORT_AGENT", "CUSTOMER", "BETA_TESTER"},
		},
	}}
	service := newRoleService(t, repo, provider, nil, nil)

	want := []string{"CUSTOMER", "BUSINESS_OWNER", "BETA_TESTER", "SUPPORT_AGENT"}
	for i := 0; i < 2; i++ {
		if err := service.SetRole(context.Background(), "user_1", enums.UserRoleBusinessOwner); err != nil {
			t.Fatalf("set role %d: %v", i, err)
		}
		provider.user.PublicMetadata = provider.pushed[len(provider.pushed)-1]
		if !reflect.DeepEqual(provider.pushed[i].Roles, want) {
			t.Fatalf("push %d: expected %v, got %v", i, want, provider.pushed[i].Roles)
		}
	}
}

func TestUpgradeToBusinessOwner_IsIdempotent(t *testing.T) {
	repo := newStubRoleRepo()
	repo.roles["user_1"] = enums.UserRoleCustomer
	provider := &stubProvider{user: &clerk.User{ID: "user_1"}}
	service := newRoleService(t, repo, provider, nil, nil)

	for i := 0; i < 2; i++ {
		if err := service.UpgradeToBusinessOwner(context.Background(), "user_1"); err != nil {
			t.Fatalf("upgrade %d: %v", i, err)
		}
		provider.user.PublicMetadata = provider.pushed[len(provider.pushed)-1]
	}

	if repo.roles["user_1"] != enums.UserRoleBusinessOwner {
		t.Fatalf("expected business owner, got %q", repo.roles["user_1"])
	}
	want := []string{"CUSTOMER", "BUSINESS_OWNER"}
	for i, pushed := range provider.pushed {
		if !reflect.DeepEqual(pushed.Roles, want) {
			t.Fatalf("push %d: expected %v, got %v", i, want, pushed.Roles)
		}
	}
}

func TestSetRole_UnknownUser(t *testing.T) {
	repo := newStubRoleRepo()
	repo.updateErr = gorm.ErrRecordNotFound
	service := newRoleService(t, repo, &stubProvider{}, nil, nil)

	err := service.SetRole(context.Background(), "user_ghost", enums.UserRoleAdmin)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSetRole_InvalidRoleNeverTouchesStore(t *testing.T) {
	repo := newStubRoleRepo()
	service := newRoleService(t, repo, &stubProvider{}, nil, nil)

	err := service.SetRole(context.Background(), "user_1", enums.UserRole("ROOT"))
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.roles) != 0 {
		t.Fatalf("expected no store write")
	}
}

func TestSetRole_PushFailureQueuesRetry(t *testing.T) {
	repo := newStubRoleRepo()
	repo.roles["user_1"] = enums.UserRoleCustomer
	provider := &stubProvider{user: &clerk.User{ID: "user_1"}, pushErr: errors.New("503")}
	outbox := &stubOutbox{}
	service := newRoleService(t, repo, provider, nil, outbox)

	err := service.SetRole(context.Background(), "user_1", enums.UserRoleBusinessOwner)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}

	// Local state advanced even though the provider push failed.
	if repo.roles["user_1"] != enums.UserRoleBusinessOwner {
		t.Fatalf("expected local role committed")
	}
	if len(outbox.queued) != 1 {
		t.Fatalf("expected queued retry, got %d", len(outbox.queued))
	}
	if outbox.queued[0].Role != enums.UserRoleBusinessOwner {
		t.Fatalf("expected queued metadata to carry new role")
	}
}

func TestSetRole_ProviderReadFailureStillPushes(t *testing.T) {
	repo := newStubRoleRepo()
	repo.roles["user_1"] = enums.UserRoleCustomer
	provider := &stubProvider{getErr: errors.New("timeout")}
	service := newRoleService(t, repo, provider, nil, nil)

	if err := service.SetRole(context.Background(), "user_1", enums.UserRoleBusinessOwner); err != nil {
		t.Fatalf("set role: %v", err)
	}
	want := []string{"CUSTOMER", "BUSINESS_OWNER"}
	if !reflect.DeepEqual(provider.pushed[0].Roles, want) {
		t.Fatalf("expected fallback roles %v, got %v", want, provider.pushed[0].Roles)
	}
}

func TestBan_CouplesLocalAndProviderState(t *testing.T) {
	repo := newStubRoleRepo()
	provider := &stubProvider{}
	cache := &stubRoleCache{}
	service := newRoleService(t, repo, provider, cache, nil)

	if err := service.Ban(context.Background(), "user_1", "spam listings"); err != nil {
		t.Fatalf("ban: %v", err)
	}
	if repo.banned["user_1"] != "spam listings" {
		t.Fatalf("expected local ban with reason")
	}
	if len(provider.banned) != 1 || provider.banned[0] != "user_1" {
		t.Fatalf("expected provider ban, got %v", provider.banned)
	}
	if len(cache.invalidated) != 1 {
		t.Fatalf("expected cache invalidation")
	}
}

func TestBan_ProviderFailureSurfacesAfterLocalWrite(t *testing.T) {
	repo := newStubRoleRepo()
	provider := &stubProvider{banErr: errors.New("503")}
	service := newRoleService(t, repo, provider, nil, nil)

	err := service.Ban(context.Background(), "user_1", "fraud")
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if _, ok := repo.banned["user_1"]; !ok {
		t.Fatalf("expected local ban committed before provider call")
	}
}

func TestHasRole(t *testing.T) {
	owner := &models.User{Role: enums.UserRoleBusinessOwner}

	if !HasRole(owner, enums.UserRoleCustomer) {
		t.Fatalf("expected implicit customer role")
	}
	if !HasRole(owner, enums.UserRoleBusinessOwner) {
		t.Fatalf("expected business owner role")
	}
	if HasRole(owner, enums.UserRoleAdmin) {
		t.Fatalf("did not expect admin role")
	}
	if HasRole(nil, enums.UserRoleCustomer) {
		t.Fatalf("nil user holds no roles")
	}
	if !HasAnyRole(owner, enums.UserRoleAdmin, enums.UserRoleBusinessOwner) {
		t.Fatalf("expected any-of match")
	}
	if HasAnyRole(owner, enums.UserRoleAdmin, enums.UserRoleModerator) {
		t.Fatalf("did not expect any-of match")
	}
}
