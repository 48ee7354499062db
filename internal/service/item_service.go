package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"campusafe/internal/cache"
	apperrors "campusafe/internal/errors"
	"campusafe/internal/events"
	"campusafe/internal/lifecycle"
	"campusafe/internal/model"
	"campusafe/internal/repository"
)

const (
	itemCacheTTL    = 5 * time.Minute
	itemCachePrefix = "item:"
)

// ItemCache is the read-through cache in front of the item store.
type ItemCache interface {
	GetVersioned(ctx context.Context, key string) ([]byte, error)
	SetVersioned(ctx context.Context, key string, value []byte, version int64, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

var _ ItemCache = (*cache.Client)(nil)

// CreateItemInput is what a finder reports.
type CreateItemInput struct {
	Name            string `json:"name"`
	Location        string `json:"location"`
	Date            string `json:"date"`
	Category        string `json:"category"`
	Description     string `json:"description"`
	Image           string `json:"image"`
	SecretQuestion1 string `json:"secretQuestion1"`
	SecretAnswer1   string `json:"secretAnswer1"`
	SecretQuestion2 string `json:"secretQuestion2"`
	SecretAnswer2   string `json:"secretAnswer2"`
	SecretQuestion3 string `json:"secretQuestion3"`
	SecretAnswer3   string `json:"secretAnswer3"`
	PostedBy        string `json:"postedBy"`
}

// ItemService handles the found-item lifecycle.
type ItemService interface {
	CreateItem(ctx context.Context, in CreateItemInput) (*model.Item, error)
	GetItem(ctx context.Context, id string) (*model.Item, error)
	// ListItems returns matching items newest first, without secret or claim answers.
	ListItems(ctx context.Context, filter model.ItemFilter) ([]model.Item, error)
	ReviewItem(ctx context.Context, id string) (*model.ItemReview, error)
	SubmitClaim(ctx context.Context, id string, claim lifecycle.Claim) (*model.Item, error)
	ApproveClaim(ctx context.Context, id, pickupLocation string) (*model.Item, error)
	RejectClaim(ctx context.Context, id string) (*model.Item, error)
	CompletePickup(ctx context.Context, id string) (*model.Item, error)
	// SetStatus maps a requested target status onto the matching transition.
	SetStatus(ctx context.Context, id string, target model.ItemStatus, pickupLocation string) (*model.Item, error)
	ResetItems(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

type itemService struct {
	repo      repository.ItemRepository
	users     repository.UserRepository
	images    ImageService
	publisher events.Publisher
	cache     ItemCache
}

// NewItemService creates a new item service.
func NewItemService(repo repository.ItemRepository, users repository.UserRepository, images ImageService, publisher events.Publisher, itemCache ItemCache) ItemService {
	if itemCache == nil {
		itemCache = (*cache.Client)(nil)
	}
	return &itemService{
		repo:      repo,
		users:     users,
		images:    images,
		publisher: publisher,
		cache:     itemCache,
	}
}

func (s *itemService) cacheKey(id string) string {
	return itemCachePrefix + id
}

// CreateItem validates and stores a new item in Posted.
func (s *itemService) CreateItem(ctx context.Context, in CreateItemInput) (*model.Item, error) {
	required := []struct{ field, value string }{
		{"name", in.Name},
		{"location", in.Location},
		{"date", in.Date},
		{"category", in.Category},
		{"description", in.Description},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, apperrors.Validationf("%s is required", r.field)
		}
	}

	image, err := s.images.Prepare(ctx, itemImageFolder, in.Image)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	item := &model.Item{
		ID:              uuid.New().String(),
		Name:            strings.TrimSpace(in.Name),
		Location:        strings.TrimSpace(in.Location),
		Date:            strings.TrimSpace(in.Date),
		Category:        strings.TrimSpace(in.Category),
		Description:     strings.TrimSpace(in.Description),
		Image:           image,
		SecretQuestion1: in.SecretQuestion1,
		SecretAnswer1:   in.SecretAnswer1,
		SecretQuestion2: in.SecretQuestion2,
		SecretAnswer2:   in.SecretAnswer2,
		SecretQuestion3: in.SecretQuestion3,
		SecretAnswer3:   in.SecretAnswer3,
		Status:          model.StatusPosted,
		PostedBy:        strings.ToLower(strings.TrimSpace(in.PostedBy)),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}

	log.Info().Str("item_id", item.ID).Str("posted_by", item.PostedBy).Msg("item posted")
	s.bumpCounter(ctx, item.PostedBy, repository.PostsCounter)
	publish(ctx, s.publisher, events.ItemEvent(events.ItemPosted, item))
	return item, nil
}

// GetItem retrieves an item by ID with caching.
func (s *itemService) GetItem(ctx context.Context, id string) (*model.Item, error) {
	if data, _ := s.cache.GetVersioned(ctx, s.cacheKey(id)); data != nil {
		var cached model.Item
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheItem(ctx, item)
	return item, nil
}

// cacheItem stores item versioned by UpdatedAt, so a read that raced a transition
// cannot replace the newer copy the transition cached.
func (s *itemService) cacheItem(ctx context.Context, item *model.Item) {
	payload, err := json.Marshal(item)
	if err != nil {
		return
	}
	_ = s.cache.SetVersioned(ctx, s.cacheKey(item.ID), payload, item.UpdatedAt.UnixNano(), itemCacheTTL)
}

func (s *itemService) ListItems(ctx context.Context, filter model.ItemFilter) ([]model.Item, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.Validationf("unknown status %q", filter.Status)
	}
	filter.PostedBy = strings.ToLower(strings.TrimSpace(filter.PostedBy))
	filter.Query = strings.TrimSpace(filter.Query)

	items, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i] = items[i].Redacted()
	}
	return items, nil
}

func (s *itemService) ReviewItem(ctx context.Context, id string) (*model.ItemReview, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	review := item.Review()
	return &review, nil
}

func (s *itemService) SubmitClaim(ctx context.Context, id string, claim lifecycle.Claim) (*model.Item, error) {
	claim.Email = strings.ToLower(strings.TrimSpace(claim.Email))
	return s.transition(ctx, id, lifecycle.Submit(claim))
}

func (s *itemService) ApproveClaim(ctx context.Context, id, pickupLocation string) (*model.Item, error) {
	return s.transition(ctx, id, lifecycle.Approve(pickupLocation))
}

func (s *itemService) RejectClaim(ctx context.Context, id string) (*model.Item, error) {
	return s.transition(ctx, id, lifecycle.Reject())
}

func (s *itemService) CompletePickup(ctx context.Context, id string) (*model.Item, error) {
	return s.transition(ctx, id, lifecycle.Complete())
}

func (s *itemService) SetStatus(ctx context.Context, id string, target model.ItemStatus, pickupLocation string) (*model.Item, error) {
	switch target {
	case model.StatusReadyForPickup:
		return s.ApproveClaim(ctx, id, pickupLocation)
	case model.StatusPosted:
		return s.RejectClaim(ctx, id)
	case model.StatusCompleted:
		return s.CompletePickup(ctx, id)
	case "":
		return nil, apperrors.Validationf("status is required")
	}
	return nil, apperrors.Validationf("status %q cannot be set directly", target)
}

// transition loads the item, applies t and writes it back only if nobody changed the status in between.
func (s *itemService) transition(ctx context.Context, id string, t lifecycle.Transition) (*model.Item, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	expected := item.Status
	if !t.Kind.Allows(expected) {
		return nil, fmt.Errorf("%w: cannot %s from %q", apperrors.ErrInvalidTransition, t.Kind, expected)
	}

	// stored is set when Prepare produced a new image that must not outlive a failed write
	var stored string
	if t.Kind == lifecycle.SubmitClaim && t.Claim.Image != "" {
		raw := t.Claim.Image
		t.Claim.Image, err = s.images.Prepare(ctx, claimImageFolder, raw)
		if err != nil {
			return nil, err
		}
		if t.Claim.Image != raw {
			stored = t.Claim.Image
		}
	}

	if err := lifecycle.Apply(item, t); err != nil {
		s.images.Discard(ctx, stored)
		return nil, err
	}
	if err := s.repo.UpdateLifecycle(ctx, item, expected); err != nil {
		if errors.Is(err, apperrors.ErrInvalidTransition) {
			log.Info().Str("item_id", id).Str("transition", t.Kind.String()).Msg("lost transition race")
		}
		s.images.Discard(ctx, stored)
		return nil, err
	}
	s.cacheItem(ctx, item)

	log.Info().
		Str("item_id", id).
		Str("transition", t.Kind.String()).
		Str("from", string(expected)).
		Str("to", string(item.Status)).
		Msg("item status changed")

	if t.Kind == lifecycle.SubmitClaim {
		s.bumpCounter(ctx, item.ClaimantEmail, repository.ClaimsCounter)
	}
	publish(ctx, s.publisher, events.ItemEvent(events.KeyFor(t.Kind), item))
	return item, nil
}

// bumpCounter increments an advisory counter on an existing profile and only logs failures.
func (s *itemService) bumpCounter(ctx context.Context, email string, counter repository.Counter) {
	if email == "" || s.users == nil {
		return
	}
	err := s.users.Increment(ctx, email, counter, 1)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrUserNotFound):
		log.Debug().Str("email", email).Msg("no profile to count against")
	default:
		log.Warn().Err(err).Str("email", email).Msg("user counter update failed")
	}
}

func (s *itemService) ResetItems(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	_ = s.cache.DeletePrefix(ctx, itemCachePrefix)
	log.Warn().Int64("deleted", n).Msg("all items deleted")
	return n, nil
}

func (s *itemService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
