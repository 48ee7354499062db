package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"campusafe/internal/events"
	"campusafe/internal/imaging"
	"campusafe/internal/model"
	"campusafe/internal/repository"
)

// MockPublisher is a mock implementation of events.Publisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event events.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockImageStore is a mock implementation of ImageStore.
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Upload(ctx context.Context, folder string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, folder, data, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockImageStore) Delete(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

// MockRevocationStore is a mock implementation of auth.RevocationStore.
type MockRevocationStore struct {
	mock.Mock
}

func (m *MockRevocationStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *MockRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

// failingItemRepository reports every read and write as a store outage.
type failingItemRepository struct {
	repository.ItemRepository
	err error
}

func (r failingItemRepository) Create(context.Context, *model.Item) error { return r.err }

func (r failingItemRepository) FindByID(context.Context, string) (*model.Item, error) {
	return nil, r.err
}

func (r failingItemRepository) FindAll(context.Context, model.ItemFilter) ([]model.Item, error) {
	return nil, r.err
}

// interleavingRepository runs afterFind once, right after the next FindByID has read
// its snapshot, to stage a concurrent write.
type interleavingRepository struct {
	repository.ItemRepository
	afterFind func()
}

func (r *interleavingRepository) FindByID(ctx context.Context, id string) (*model.Item, error) {
	item, err := r.ItemRepository.FindByID(ctx, id)
	if hook := r.afterFind; hook != nil {
		r.afterFind = nil
		hook()
	}
	return item, err
}

type cachedEntry struct {
	version int64
	data    []byte
}

// memoryItemCache keeps the versioning rules of the redis cache in a map.
type memoryItemCache struct {
	mu      sync.Mutex
	entries map[string]cachedEntry
}

func newMemoryItemCache() *memoryItemCache {
	return &memoryItemCache{entries: map[string]cachedEntry{}}
}

func (c *memoryItemCache) GetVersioned(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[key].data, nil
}

func (c *memoryItemCache) SetVersioned(_ context.Context, key string, value []byte, version int64, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.entries[key]; ok && cur.version >= version {
		return nil
	}
	c.entries[key] = cachedEntry{version: version, data: value}
	return nil
}

func (c *memoryItemCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

func (c *memoryItemCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func eventOfType(eventType string) interface{} {
	return mock.MatchedBy(func(e events.Event) bool { return e.Type == eventType })
}

func pngDataURI(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{10, 120, 200, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return imaging.EncodeDataURI("image/png", buf.Bytes())
}
