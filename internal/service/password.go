package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"blogapp/internal/observability"
	"blogapp/internal/validation"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// PasswordHasher wraps bcrypt. Concurrent hashing is capped at GOMAXPROCS so
// bursts of logins cannot monopolize every CPU.
type PasswordHasher struct {
	cost  int
	sem   *semaphore.Weighted
	dummy []byte
}

// NewPasswordHasher builds a hasher for cost, including the dummy digest
// compared against when an email is unknown.
func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range", cost)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("blogapp-dummy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("generate dummy hash: %w", err)
	}
	return &PasswordHasher{
		cost:  cost,
		sem:   semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0))),
		dummy: dummy,
	}, nil
}

// Hash returns the bcrypt digest of password.
func (h *PasswordHasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)
	defer observeHash("hash", time.Now())

	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Compare reports whether password matches digest. An empty digest is
// compared against the dummy so the call costs the same either way.
// bcrypt ignores everything past 72 bytes, so a longer password never
// matches; it is still compared against the dummy to keep the timing.
func (h *PasswordHasher) Compare(ctx context.Context, digest, password string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)
	defer observeHash("compare", time.Now())

	tooLong := len(password) > validation.MaxPasswordBytes
	target := []byte(digest)
	candidate := []byte(password)
	if digest == "" || tooLong {
		target = h.dummy
	}
	if tooLong {
		candidate = candidate[:validation.MaxPasswordBytes]
	}

	err := bcrypt.CompareHashAndPassword(target, candidate)
	switch {
	case err == nil:
		return digest != "" && !tooLong, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
		return false, nil
	default:
		return false, fmt.Errorf("compare password: %w", err)
	}
}

func observeHash(op string, start time.Time) {
	observability.PasswordHashDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
