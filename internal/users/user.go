// Package users keeps the User record up to date across sign-in/sign-out,
// per spec §4.3 (component table) and §3 (User entity).
package users

import (
	"context"
	"time"

	"github.com/rafaelGuerreiro/ikaria/internal/validate"
)

// User is identified by a 32-byte opaque Identity.
type User struct {
	Identity     validate.Identity
	CreatedAt    time.Time
	LastActiveAt time.Time
}

// Repository persists Users, keyed by Identity.
type Repository interface {
	// Upsert inserts a new User with CreatedAt=now or, if one already
	// exists for identity, updates its LastActiveAt to now.
	Upsert(ctx context.Context, identity validate.Identity, now time.Time) error
	// Touch updates LastActiveAt for an existing User.
	Touch(ctx context.Context, identity validate.Identity, now time.Time) error
}

// Service implements the user-record upkeep described in spec §4.3.
type Service struct {
	repo Repository
}

// New builds a Service backed by repo.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// SignedIn upserts the User record for identity, called from the
// UserSignedIn event handler.
func (s *Service) SignedIn(ctx context.Context, identity validate.Identity, now time.Time) error {
	return s.repo.Upsert(ctx, identity, now)
}

// SignedOut records last-activity on sign-out.
func (s *Service) SignedOut(ctx context.Context, identity validate.Identity, now time.Time) error {
	return s.repo.Touch(ctx, identity, now)
}
