// Package repository persists items and user profiles.
//
// Every store returns errors from internal/errors: ErrItemNotFound and
// ErrUserNotFound for missing records, ErrInvalidTransition when a conditional
// lifecycle write finds the item in another status, and ErrStoreUnavailable
// wrapping any driver failure.
package repository

import (
	"context"

	"campusafe/internal/model"
)

// ItemRepository defines item persistence operations.
type ItemRepository interface {
	Create(ctx context.Context, item *model.Item) error
	FindByID(ctx context.Context, id string) (*model.Item, error)
	// FindAll returns matching items, newest first.
	FindAll(ctx context.Context, filter model.ItemFilter) ([]model.Item, error)
	// UpdateLifecycle writes the status, claim and pickup fields of item, but only
	// if the stored status still equals expected.
	UpdateLifecycle(ctx context.Context, item *model.Item, expected model.ItemStatus) error
	DeleteAll(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

// Counter names an advisory per-user counter.
type Counter int

const (
	PostsCounter Counter = iota
	ClaimsCounter
)

// UserRepository defines profile persistence operations.
type UserRepository interface {
	// GetOrCreate returns the profile for email, inserting an incomplete one if absent.
	GetOrCreate(ctx context.Context, email string) (*model.User, error)
	// UpdateProfile merges update into the profile (creating it if absent) and marks it complete.
	UpdateProfile(ctx context.Context, email string, update model.ProfileUpdate) (*model.User, error)
	// Increment adds delta to a counter of an existing profile.
	Increment(ctx context.Context, email string, counter Counter, delta int) error
}
