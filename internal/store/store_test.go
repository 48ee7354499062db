package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusafe/internal/config"
	"campusafe/internal/model"
)

func TestOpen_Memory(t *testing.T) {
	stores, err := Open(context.Background(), &config.Config{StoreDriver: config.DriverMemory})
	require.NoError(t, err)
	assert.NoError(t, stores.Items.Ping(context.Background()))
	assert.NoError(t, stores.Close(context.Background()))
}

func TestOpen_SQLiteMigrates(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		StoreDriver: config.DriverSQLite,
		SQLitePath:  filepath.Join(t.TempDir(), "campusafe.db"),
	}

	stores, err := Open(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = stores.Close(ctx) })

	require.NoError(t, stores.Items.Create(ctx, &model.Item{
		ID:     "item-1",
		Name:   "Umbrella",
		Status: model.StatusPosted,
	}))
	got, err := stores.Items.FindByID(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, "Umbrella", got.Name)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{StoreDriver: "cassandra"})
	assert.Error(t, err)
}
