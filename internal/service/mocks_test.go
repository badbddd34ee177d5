package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"usersvc/internal/auth"
	"usersvc/internal/cache"
	"usersvc/internal/model"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateMarketingConsent(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	args := m.Called(ctx, id, hash)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// countingHasher counts Hash calls on top of a real bcrypt hasher.
type countingHasher struct {
	*auth.PasswordHasher
	hashCalls atomic.Int32
}

func newCountingHasher() *countingHasher {
	return &countingHasher{PasswordHasher: auth.NewPasswordHasher(bcrypt.MinCost, 0)}
}

func (h *countingHasher) Hash(ctx context.Context, secret string) (string, error) {
	h.hashCalls.Add(1)
	return h.PasswordHasher.Hash(ctx, secret)
}

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestService(t *testing.T, repo *MockUserRepository, hasher PasswordHasher) (UserService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := cache.New(mr.Addr(), "", 0, nil)
	t.Cleanup(func() { _ = c.Close() })
	svc := NewUserService(repo, hasher, c, Options{
		CacheTTL: time.Minute,
		Now:      func() time.Time { return fixedNow },
	})
	return svc, mr
}

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }
