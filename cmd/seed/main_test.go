package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusafe/internal/events"
	"campusafe/internal/model"
	"campusafe/internal/repository"
	"campusafe/internal/service"
)

func newItemService() service.ItemService {
	return service.NewItemService(
		repository.NewMemoryItemRepository(),
		repository.NewMemoryUserRepository(),
		service.NewImageService(nil),
		events.Noop{},
		nil,
	)
}

func TestSeedItems_DemoSet(t *testing.T) {
	ctx := context.Background()
	items := newItemService()

	created, skipped, err := seedItems(ctx, items, demoItems())
	require.NoError(t, err)
	assert.Equal(t, len(demoItems()), created)
	assert.Zero(t, skipped)

	listed, err := items.ListItems(ctx, model.ItemFilter{})
	require.NoError(t, err)
	assert.Len(t, listed, created)
	for _, item := range listed {
		assert.Equal(t, model.StatusPosted, item.Status)
	}
}

func TestSeedItems_SkipsInvalid(t *testing.T) {
	inputs := []service.CreateItemInput{
		{Name: "Keys", Location: "Gate", Date: "2024-03-01", Category: "Keys", Description: "Bunch of three keys"},
		{Name: "No location", Date: "2024-03-01", Category: "Other", Description: "missing location"},
	}

	created, skipped, err := seedItems(context.Background(), newItemService(), inputs)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, skipped)
}

func TestLoadItems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"name": "Wallet", "location": "Parking", "date": "2024-03-02", "category": "Accessories",
		 "description": "Brown leather", "secretQuestion1": "Colour of the card inside?", "secretAnswer1": "green"}
	]`), 0o600))

	inputs, err := loadItems(path)
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Equal(t, "Wallet", inputs[0].Name)
	assert.Equal(t, "green", inputs[0].SecretAnswer1)
}

func TestLoadItems_Errors(t *testing.T) {
	_, err := loadItems(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name": "not an array"}`), 0o600))
	_, err = loadItems(path)
	assert.Error(t, err)
}
