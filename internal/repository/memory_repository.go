package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "campusafe/internal/errors"
	"campusafe/internal/model"
)

// memoryItemRepository keeps items for the lifetime of the process.
type memoryItemRepository struct {
	mu    sync.RWMutex
	items map[string]model.Item
}

// NewMemoryItemRepository builds an in-process item repository.
func NewMemoryItemRepository() ItemRepository {
	return &memoryItemRepository{items: map[string]model.Item{}}
}

func (r *memoryItemRepository) Create(_ context.Context, item *model.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.ID]; ok {
		return apperrors.Store("create item", fmt.Errorf("duplicate id %s", item.ID))
	}
	now := time.Now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = now
	}
	r.items[item.ID] = *item
	return nil
}

func (r *memoryItemRepository) FindByID(_ context.Context, id string) (*model.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, apperrors.ErrItemNotFound
	}
	return &item, nil
}

func (r *memoryItemRepository) FindAll(_ context.Context, filter model.ItemFilter) ([]model.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(filter.Query)
	out := []model.Item{}
	for _, item := range r.items {
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		if filter.PostedBy != "" && item.PostedBy != filter.PostedBy {
			continue
		}
		if filter.Category != "" && item.Category != filter.Category {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(item.Name), q) &&
			!strings.Contains(strings.ToLower(item.Description), q) &&
			!strings.Contains(strings.ToLower(item.Location), q) {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memoryItemRepository) UpdateLifecycle(_ context.Context, item *model.Item, expected model.ItemStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.items[item.ID]
	if !ok {
		return apperrors.ErrItemNotFound
	}
	if stored.Status != expected {
		return fmt.Errorf("%w: item is no longer %q", apperrors.ErrInvalidTransition, expected)
	}

	item.UpdatedAt = time.Now()
	stored.Status = item.Status
	stored.ClaimantName = item.ClaimantName
	stored.ClaimantEmail = item.ClaimantEmail
	stored.ClaimantPhone = item.ClaimantPhone
	stored.ClaimAnswer1 = item.ClaimAnswer1
	stored.ClaimAnswer2 = item.ClaimAnswer2
	stored.ClaimAnswer3 = item.ClaimAnswer3
	stored.ClaimImage = item.ClaimImage
	stored.PickupCode = item.PickupCode
	stored.PickupLocation = item.PickupLocation
	stored.UpdatedAt = item.UpdatedAt
	r.items[item.ID] = stored
	return nil
}

func (r *memoryItemRepository) DeleteAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := int64(len(r.items))
	r.items = map[string]model.Item{}
	return n, nil
}

func (r *memoryItemRepository) Ping(context.Context) error { return nil }

type memoryUserRepository struct {
	mu    sync.Mutex
	users map[string]model.User
}

// NewMemoryUserRepository builds an in-process user repository.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{users: map[string]model.User{}}
}

func (r *memoryUserRepository) GetOrCreate(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user := r.getOrCreateLocked(email)
	return &user, nil
}

func (r *memoryUserRepository) UpdateProfile(_ context.Context, email string, update model.ProfileUpdate) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user := r.getOrCreateLocked(email)
	update.Apply(&user)
	user.IsProfileComplete = true
	user.UpdatedAt = time.Now()
	r.users[email] = user
	return &user, nil
}

func (r *memoryUserRepository) Increment(_ context.Context, email string, counter Counter, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[email]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	if counter == ClaimsCounter {
		user.ClaimsCount += delta
	} else {
		user.PostsCount += delta
	}
	r.users[email] = user
	return nil
}

func (r *memoryUserRepository) getOrCreateLocked(email string) model.User {
	if user, ok := r.users[email]; ok {
		return user
	}
	now := time.Now()
	user := model.User{Email: email, CreatedAt: now, UpdatedAt: now}
	r.users[email] = user
	return user
}
