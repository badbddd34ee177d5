package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"usersvc/internal/cache"
	apperrors "usersvc/internal/errors"
	"usersvc/internal/model"
	"usersvc/internal/repository"
	"usersvc/internal/validation"
)

const defaultUserCacheTTL = 5 * time.Minute

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(ctx context.Context, secret string) (string, error)
	Verify(ctx context.Context, secret, hash string) (bool, error)
}

// ProfileInput carries optional contact details.
type ProfileInput struct {
	Phone       *string    `json:"phone" validate:"omitnil,max=20"`
	Address     *string    `json:"address" validate:"omitnil,max=500"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
}

// CreateUserInput is the administrative creation payload.
type CreateUserInput struct {
	Email            string        `json:"email" validate:"required,max=255,address"`
	Password         string        `json:"password" validate:"required,min=6,bcryptlen"`
	FirstName        string        `json:"firstName" validate:"required,max=100"`
	LastName         string        `json:"lastName" validate:"required,max=100"`
	Role             model.Role    `json:"role" validate:"omitempty,oneof=ORGANIZER ADMIN CLIENT"`
	IsActive         *bool         `json:"isActive"`
	TermsAccepted    bool          `json:"termsAccepted"`
	MarketingConsent *bool         `json:"marketingConsent"`
	Profile          *ProfileInput `json:"profile" validate:"omitnil"`
}

// UpdateProfileInput lists the fields a user may change on their own record.
// Password, role and activation are deliberately absent.
type UpdateProfileInput struct {
	Email            *string       `json:"email" validate:"omitnil,max=255,address"`
	FirstName        *string       `json:"firstName" validate:"omitnil,min=1,max=100"`
	LastName         *string       `json:"lastName" validate:"omitnil,min=1,max=100"`
	TermsAccepted    *bool         `json:"termsAccepted"`
	MarketingConsent *bool         `json:"marketingConsent"`
	Profile          *ProfileInput `json:"profile" validate:"omitnil"`
}

// ChangePasswordInput is the only payload that sets a new password on an existing record.
type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,bcryptlen"`
}

// VerifyCredentialsInput is used by the Auth service to check a login.
type VerifyCredentialsInput struct {
	Email    string `json:"email" validate:"required,max=255,address"`
	Password string `json:"password" validate:"required"`
}

// UserService exposes domain operations.
type UserService interface {
	CreateUser(ctx context.Context, in CreateUserInput) (*model.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, in UpdateProfileInput) (*model.User, error)
	UpdateMarketingConsent(ctx context.Context, id uuid.UUID, consent *bool) (*model.User, error)
	ChangePassword(ctx context.Context, id uuid.UUID, in ChangePasswordInput) error
	VerifyCredentials(ctx context.Context, in VerifyCredentialsInput) (*model.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// Options tunes a UserService.
type Options struct {
	CacheTTL time.Duration
	Logger   *zap.Logger
	Now      func() time.Time
}

type userService struct {
	repo     repository.UserRepository
	hasher   PasswordHasher
	cache    *cache.Client
	validate *validator.Validate
	cacheTTL time.Duration
	log      *zap.Logger
	now      func() time.Time
}

// NewUserService builds a UserService with repository, hasher and cache.
func NewUserService(repo repository.UserRepository, hasher PasswordHasher, cache *cache.Client, opts Options) UserService {
	s := &userService{
		repo:     repo,
		hasher:   hasher,
		cache:    cache,
		validate: validation.New(),
		cacheTTL: opts.CacheTTL,
		log:      opts.Logger,
		now:      opts.Now,
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = defaultUserCacheTTL
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *userService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id)
}

// CreateUser validates the payload, hashes the password once and stores the record.
func (s *userService) CreateUser(ctx context.Context, in CreateUserInput) (*model.User, error) {
	in.Email = model.NormalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	trimProfile(in.Profile)
	if err := validation.Struct(s.validate, &in); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &model.User{
		ID:              uuid.New(),
		Email:           in.Email,
		PasswordHash:    hash,
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		Role:            in.Role,
		IsActive:        true,
		TermsAccepted:   in.TermsAccepted,
		TermsAcceptedAt: &now,
	}
	if user.Role == "" {
		user.Role = model.RoleClient
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	model.ApplyMarketingConsent(user, in.MarketingConsent, now)
	applyProfile(&user.Profile, in.Profile)

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrEmailExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user created", zap.String("user_id", user.ID.String()), zap.String("role", string(user.Role)))
	return user, nil
}

// GetUser reads through the cache. Cached records never contain the password hash.
func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	key := s.cacheKey(id)
	var cached model.User
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.SetJSON(ctx, key, user, s.cacheTTL)
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.List(ctx)
}

// UpdateProfile applies the supplied fields. The password hash is untouched.
func (s *userService) UpdateProfile(ctx context.Context, id uuid.UUID, in UpdateProfileInput) (*model.User, error) {
	if in.Email != nil {
		email := model.NormalizeEmail(*in.Email)
		in.Email = &email
	}
	in.FirstName = trimPtr(in.FirstName)
	in.LastName = trimPtr(in.LastName)
	trimProfile(in.Profile)
	if err := validation.Struct(s.validate, &in); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if in.Email != nil {
		user.Email = *in.Email
	}
	if in.FirstName != nil {
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		user.LastName = *in.LastName
	}
	model.ApplyTermsAcceptance(user, in.TermsAccepted, now)
	model.ApplyMarketingConsent(user, in.MarketingConsent, now)
	applyProfile(&user.Profile, in.Profile)

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return user, nil
}

// UpdateMarketingConsent records the supplied preference. The value is required.
func (s *userService) UpdateMarketingConsent(ctx context.Context, id uuid.UUID, consent *bool) (*model.User, error) {
	if consent == nil {
		return nil, apperrors.ErrConsentRequired
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	model.ApplyMarketingConsent(user, consent, s.now())
	if err := s.repo.UpdateMarketingConsent(ctx, user); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return user, nil
}

// ChangePassword is the only path that re-hashes an existing record's password.
func (s *userService) ChangePassword(ctx context.Context, id uuid.UUID, in ChangePasswordInput) error {
	if err := validation.Struct(s.validate, &in); err != nil {
		return err
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	matched, err := s.hasher.Verify(ctx, in.CurrentPassword, user.PasswordHash)
	if err != nil {
		return err
	}
	if !matched {
		return apperrors.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(ctx, in.NewPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePasswordHash(ctx, id, hash); err != nil {
		return err
	}

	s.invalidate(ctx, id)
	s.log.Info("password changed", zap.String("user_id", id.String()))
	return nil
}

// VerifyCredentials checks an email and password. On success the last login
// time is stamped; on failure nothing is written.
func (s *userService) VerifyCredentials(ctx context.Context, in VerifyCredentialsInput) (*model.User, error) {
	in.Email = model.NormalizeEmail(in.Email)
	if err := validation.Struct(s.validate, &in); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.ErrInvalidCredentials
	}
	matched, err := s.hasher.Verify(ctx, in.Password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, apperrors.ErrInvalidCredentials
	}

	now := s.now()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	user.LastLogin = &now
	s.invalidate(ctx, user.ID)
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.log.Info("user deleted", zap.String("user_id", id.String()))
	return nil
}

func (s *userService) invalidate(ctx context.Context, id uuid.UUID) {
	s.cache.Delete(ctx, s.cacheKey(id))
}

func applyProfile(dst *model.Profile, in *ProfileInput) {
	if in == nil {
		return
	}
	if in.Phone != nil {
		dst.Phone = *in.Phone
	}
	if in.Address != nil {
		dst.Address = *in.Address
	}
	if in.DateOfBirth != nil {
		dst.DateOfBirth = in.DateOfBirth
	}
}

func trimProfile(in *ProfileInput) {
	if in == nil {
		return
	}
	in.Phone = trimPtr(in.Phone)
	in.Address = trimPtr(in.Address)
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	return &trimmed
}
