package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("secret")

	token, claims, err := svc.GenerateSessionToken("asha@sjec.ac.in")
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)

	got, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "asha@sjec.ac.in", got.Email)
	assert.Equal(t, claims.ID, got.ID)
	assert.InDelta(t, SessionExpiry.Seconds(), got.Remaining(time.Now()).Seconds(), 5)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService("secret")
	other := NewJWTService("other-secret")
	token, _, err := other.GenerateSessionToken("asha@sjec.ac.in")
	require.NoError(t, err)

	expired := NewJWTService("secret")
	expired.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	old, _, err := expired.GenerateSessionToken("asha@sjec.ac.in")
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Email: "x@sjec.ac.in"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", token},
		{"expired", old},
		{"unsigned", none},
		{"garbage", "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateToken(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestTokenStore_WithoutRedis(t *testing.T) {
	store := NewTokenStore(nil)
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "id", time.Hour))
	revoked, err := store.IsRevoked(ctx, "id")
	require.NoError(t, err)
	assert.False(t, revoked)
}
