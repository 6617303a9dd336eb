// Package service holds the business rules between handlers and repositories.
package service

import (
	"context"
	"errors"
	"strings"

	"blogapp/internal/models"
	"blogapp/internal/observability"
	"blogapp/internal/repository"
	"blogapp/internal/validation"
)

// AuthService registers users, checks credentials and resolves token subjects.
type AuthService struct {
	users  repository.UserRepository
	hasher *PasswordHasher
}

// RegisterInput is a sign-up request.
type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

// NewAuthService creates an AuthService.
func NewAuthService(users repository.UserRepository, hasher *PasswordHasher) *AuthService {
	return &AuthService{users: users, hasher: hasher}
}

// Register validates the request, hashes the password and stores the user.
// Every violated rule is returned together; a taken email is one of them.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (user *models.User, err error) {
	ctx, span := observability.StartService(ctx, "AuthService", "Register")
	defer func() {
		observability.AuthAttempts.WithLabelValues("register", registerOutcome(err)).Inc()
		observability.EndSpan(span, err)
	}()

	email := validation.NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)

	errs := validation.Registration(email, name, in.Password)
	if !errs.Has("email", models.CodeMissingField) && !errs.Has("email", models.CodeInvalid) {
		existing, err := s.users.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			errs.Add("email", models.CodeDuplicateEmail, "has already been taken")
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user = &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: digest,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate returns the user whose credentials match, or
// models.ErrInvalidCredentials for an unknown email and a wrong password alike.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (user *models.User, err error) {
	ctx, span := observability.StartService(ctx, "AuthService", "Authenticate")
	defer func() {
		observability.AuthAttempts.WithLabelValues("login", loginOutcome(err)).Inc()
		observability.EndSpan(span, err)
	}()

	found, err := s.users.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}

	digest := ""
	if found != nil {
		digest = found.PasswordHash
	}
	ok, err := s.hasher.Compare(ctx, digest, password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !ok || found == nil {
		return nil, models.ErrInvalidCredentials
	}
	return found, nil
}

// ResolveUser returns the user with id, or (nil, nil) if there is none.
func (s *AuthService) ResolveUser(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

func registerOutcome(err error) string {
	var verr *models.ValidationErrors
	if errors.As(err, &verr) {
		return "invalid"
	}
	return observability.Outcome(err)
}

func loginOutcome(err error) string {
	if errors.Is(err, models.ErrUnauthorized) {
		return "rejected"
	}
	return observability.Outcome(err)
}
