package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"campusafe/internal/auth"
	apperrors "campusafe/internal/errors"
	"campusafe/internal/model"
)

// AuthService handles campus email sessions.
type AuthService interface {
	// Login provisions the profile for email and issues a session token.
	Login(ctx context.Context, email string) (token string, claims *auth.Claims, user *model.User, err error)
	// Logout revokes the session described by claims.
	Logout(ctx context.Context, claims *auth.Claims) error
	// Authenticate validates a bearer token and checks it has not been revoked.
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

type authService struct {
	users      UserService
	jwtService *auth.JWTService
	tokenStore auth.RevocationStore
}

// NewAuthService creates a new authentication service.
func NewAuthService(users UserService, jwtService *auth.JWTService, tokenStore auth.RevocationStore) AuthService {
	return &authService{
		users:      users,
		jwtService: jwtService,
		tokenStore: tokenStore,
	}
}

func (s *authService) Login(ctx context.Context, email string) (string, *auth.Claims, *model.User, error) {
	user, err := s.users.GetProfile(ctx, email)
	if err != nil {
		return "", nil, nil, err
	}

	token, claims, err := s.jwtService.GenerateSessionToken(user.Email)
	if err != nil {
		return "", nil, nil, fmt.Errorf("generate session token: %w", err)
	}

	log.Info().Str("email", user.Email).Msg("session started")
	return token, claims, user, nil
}

func (s *authService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil {
		return apperrors.ErrUnauthorized
	}
	if err := s.tokenStore.Revoke(ctx, claims.ID, claims.Remaining(time.Now())); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	log.Info().Str("email", claims.Email).Msg("session revoked")
	return nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnauthorized, err)
	}
	revoked, err := s.tokenStore.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", apperrors.ErrUnauthorized)
	}
	return claims, nil
}
