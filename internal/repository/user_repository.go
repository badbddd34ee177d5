package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "usersvc/internal/errors"
	"usersvc/internal/model"
)

// Columns written by profile updates. password_hash is never among them so a
// profile write cannot clobber a concurrent password change.
var profileColumns = []string{
	"email",
	"first_name",
	"last_name",
	"terms_accepted",
	"terms_accepted_at",
	"marketing_consent",
	"marketing_consent_updated_at",
	"profile_phone",
	"profile_address",
	"profile_date_of_birth",
}

var consentColumns = []string{
	"marketing_consent",
	"marketing_consent_updated_at",
}

// UserRepository defines persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	UpdateProfile(ctx context.Context, user *model.User) error
	UpdateMarketingConsent(ctx context.Context, user *model.User) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return translateError(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// List returns every user, newest first.
func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&users).Error; err != nil {
		return nil, translateError(err)
	}
	return users, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	return r.updateColumns(ctx, user, profileColumns)
}

func (r *userRepository) UpdateMarketingConsent(ctx context.Context, user *model.User) error {
	return r.updateColumns(ctx, user, consentColumns)
}

// UpdatePasswordHash writes the single password_hash column.
func (r *userRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("password_hash", hash)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return translateError(r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("last_login", at).Error)
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.User{})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) updateColumns(ctx context.Context, user *model.User, columns []string) error {
	return translateError(r.db.WithContext(ctx).Model(user).Select(columns).Updates(user).Error)
}

// translateError maps gorm errors to domain errors.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.ErrUserNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.ErrEmailExists
	default:
		return err
	}
}
