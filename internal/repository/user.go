// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"blogapp/internal/cache"
	"blogapp/internal/models"
	"blogapp/internal/observability"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// GetByID returns the user or (nil, nil). Results may come from the cache,
	// which never holds the password hash.
	GetByID(ctx context.Context, id uint) (*models.User, error)
	// GetByEmail returns the user with its password hash or (nil, nil).
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Create inserts user; a taken email is reported as a duplicate_email validation error.
	Create(ctx context.Context, user *models.User) error
}

type userRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewUserRepository returns a new UserRepository implementation. c may be nil.
func NewUserRepository(db *gorm.DB, c *cache.Cache) UserRepository {
	return &userRepository{db: db, cache: c}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	ctx, span := observability.StartRepository(ctx, "GetByID", "users")
	var user models.User

	found, err := r.cache.Aside(ctx, "user", cache.UserKey(id), &user, cache.UserTTL, func() (bool, error) {
		defer observability.TrackQuery("select", "users")()
		if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil
			}
			return false, err
		}
		return true, nil
	})
	observability.EndSpan(span, err)

	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !found {
		return nil, nil
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, span := observability.StartRepository(ctx, "GetByEmail", "users")
	defer observability.TrackQuery("select", "users")()

	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		observability.EndSpan(span, nil)
		return nil, nil
	}
	observability.EndSpan(span, err)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	ctx, span := observability.StartRepository(ctx, "Create", "users")
	defer observability.TrackQuery("insert", "users")()

	err := r.db.WithContext(ctx).Create(user).Error
	observability.EndSpan(span, err)
	if err != nil {
		if isUniqueConstraintError(err) {
			return DuplicateEmailError()
		}
		return models.NewInternalError(err)
	}
	return nil
}

// DuplicateEmailError is the validation error reported for a taken email.
func DuplicateEmailError() *models.ValidationErrors {
	errs := &models.ValidationErrors{}
	errs.Add("email", models.CodeDuplicateEmail, "has already been taken")
	return errs
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}
