package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	apperrors "campusafe/internal/errors"
	"campusafe/internal/events"
	"campusafe/internal/model"
	"campusafe/internal/repository"
)

// EmailPolicy decides which emails may own a profile.
type EmailPolicy struct {
	domain   string
	validate *validator.Validate
}

// NewEmailPolicy accepts any syntactically valid email, restricted to domain when it is not empty.
func NewEmailPolicy(domain string) *EmailPolicy {
	return &EmailPolicy{
		domain:   strings.ToLower(strings.TrimPrefix(domain, "@")),
		validate: validator.New(),
	}
}

// Normalize trims and lowercases email and checks it against the policy.
func (p *EmailPolicy) Normalize(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperrors.Validationf("email is required")
	}
	if err := p.validate.Var(email, "email"); err != nil {
		return "", apperrors.Validationf("%q is not a valid email", email)
	}
	if p.domain != "" && !strings.HasSuffix(email, "@"+p.domain) {
		return "", apperrors.Validationf("email must be a @%s address", p.domain)
	}
	return email, nil
}

// UserService exposes profile operations.
type UserService interface {
	// GetProfile returns the profile for email, creating an incomplete one on first lookup.
	GetProfile(ctx context.Context, email string) (*model.User, error)
	// UpdateProfile merges update into the profile and marks it complete.
	UpdateProfile(ctx context.Context, email string, update model.ProfileUpdate) (*model.User, error)
}

type userService struct {
	repo      repository.UserRepository
	emails    *EmailPolicy
	images    ImageService
	publisher events.Publisher
}

// NewUserService builds a UserService.
func NewUserService(repo repository.UserRepository, emails *EmailPolicy, images ImageService, publisher events.Publisher) UserService {
	return &userService{repo: repo, emails: emails, images: images, publisher: publisher}
}

func (s *userService) GetProfile(ctx context.Context, email string) (*model.User, error) {
	email, err := s.emails.Normalize(email)
	if err != nil {
		return nil, err
	}
	return s.repo.GetOrCreate(ctx, email)
}

func (s *userService) UpdateProfile(ctx context.Context, email string, update model.ProfileUpdate) (*model.User, error) {
	email, err := s.emails.Normalize(email)
	if err != nil {
		return nil, err
	}
	if update.ProfilePhoto != nil {
		photo, err := s.images.Prepare(ctx, profileImageFolder, *update.ProfilePhoto)
		if err != nil {
			return nil, err
		}
		update.ProfilePhoto = &photo
	}

	user, err := s.repo.UpdateProfile(ctx, email, update)
	if err != nil {
		return nil, err
	}

	log.Info().Str("email", email).Msg("profile updated")
	publish(ctx, s.publisher, events.Event{
		Type:       events.UserProfileUpdated,
		Email:      email,
		OccurredAt: user.UpdatedAt.UTC(),
	})
	return user, nil
}

// publish logs and drops publisher errors.
func publish(ctx context.Context, publisher events.Publisher, event events.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		log.Warn().Err(err).Str("event", event.Type).Msg("event publish failed")
	}
}
