package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPublicBase(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		public   string
		useSSL   bool
		expected string
	}{
		{"falls back to endpoint", "minio:9000", "", false, "http://minio:9000"},
		{"public host with ssl", "minio:9000", "img.campus.edu/", true, "https://img.campus.edu"},
		{"public url kept", "minio:9000", "\"https://cdn.campus.edu\"", false, "https://cdn.campus.edu"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PublicBase(tt.endpoint, tt.public, tt.useSSL))
		})
	}
}

func TestObjectKey(t *testing.T) {
	at := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "items/2024-03-01/abc.jpg", ObjectKey("items", at, "abc", "image/jpeg"))
	assert.Equal(t, "claims/2024-03-01/abc.bin", ObjectKey("claims", at, "abc", "application/octet-stream"))
}

func TestKeyFromURL(t *testing.T) {
	base := "http://minio:9000"
	key, ok := KeyFromURL(base, "campusafe-images", "http://minio:9000/campusafe-images/claims/2024-03-01/abc.jpg")
	assert.True(t, ok)
	assert.Equal(t, "claims/2024-03-01/abc.jpg", key)

	for _, url := range []string{
		"https://elsewhere.com/campusafe-images/claims/abc.jpg",
		"http://minio:9000/other-bucket/claims/abc.jpg",
		"http://minio:9000/campusafe-images/",
	} {
		_, ok := KeyFromURL(base, "campusafe-images", url)
		assert.False(t, ok, url)
	}
}
