package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStore() *MemoryStore {
	return NewMemoryStore(
		Item{ID: "itm-1", SKU: "WW-100", Name: "Adult Wet Wipes", Quantity: 20, StorageLocation: "Shelf A"},
		Item{ID: "itm-2", SKU: "CK-200", Name: "Catheter Kits", Quantity: 3, StorageLocation: "Shelf B"},
		Item{ID: "itm-3", SKU: "SB-300", Name: "Saline Bags", Quantity: 8, StorageLocation: "Shelf C"},
	)
}

func TestMemoryStore_GetItem(t *testing.T) {
	store := seedStore()

	got, err := store.GetItem(context.Background(), "itm-2")
	require.NoError(t, err)
	assert.Equal(t, "Catheter Kits", got.Name)

	_, err = store.GetItem(context.Background(), "itm-gone")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestMemoryStore_GetItemBySKU(t *testing.T) {
	store := seedStore()

	got, err := store.GetItemBySKU(context.Background(), "SB-300")
	require.NoError(t, err)
	assert.Equal(t, "itm-3", got.ID)

	_, err = store.GetItemBySKU(context.Background(), "XX-999")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestMemoryStore_ListItems(t *testing.T) {
	store := seedStore()

	items, err := store.ListItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "itm-1", items[0].ID)
	assert.Equal(t, "itm-2", items[1].ID)
	assert.Equal(t, "itm-3", items[2].ID)
}

func TestMemoryStore_ListLowStock(t *testing.T) {
	store := seedStore()

	// Threshold is exclusive and results come back lowest first.
	items, err := store.ListLowStock(context.Background(), 15)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "itm-2", items[0].ID)
	assert.Equal(t, "itm-3", items[1].ID)

	items, err = store.ListLowStock(context.Background(), 3)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMemoryStore_CreateItem(t *testing.T) {
	store := seedStore()

	created, err := store.CreateItem(context.Background(), Item{
		ID: "itm-4", SKU: "GP-400", Name: "Gauze Pads", Quantity: 50, StorageLocation: "Shelf D",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.CreatedAt)

	got, err := store.GetItem(context.Background(), "itm-4")
	require.NoError(t, err)
	assert.Equal(t, 50, got.Quantity)
}

func TestMemoryStore_CreateItem_RestocksExistingSKU(t *testing.T) {
	store := seedStore()

	restocked, err := store.CreateItem(context.Background(), Item{
		ID: "itm-new", SKU: "CK-200", Name: "Catheter Kits", Quantity: 10,
		StorageLocation: "Shelf E", ExpirationDate: "2027-01-31",
	})
	require.NoError(t, err)

	// The existing record is topped up, not replaced.
	assert.Equal(t, "itm-2", restocked.ID)
	assert.Equal(t, 13, restocked.Quantity)
	assert.Equal(t, "Shelf E", restocked.StorageLocation)
	assert.Equal(t, "2027-01-31", restocked.ExpirationDate)

	_, err = store.GetItem(context.Background(), "itm-new")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestMemoryStore_CreateItem_Invalid(t *testing.T) {
	store := seedStore()
	_, err := store.CreateItem(context.Background(), Item{ID: "itm-5", SKU: "", Name: "X", Quantity: 1, StorageLocation: "A"})
	assert.Error(t, err)
}

func TestMemoryStore_UpdateQuantity(t *testing.T) {
	store := seedStore()

	updated, err := store.UpdateQuantity(context.Background(), "itm-1", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Quantity)
	assert.NotEmpty(t, updated.UpdatedAt)

	_, err = store.UpdateQuantity(context.Background(), "itm-gone", 7)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestMemoryStore_UpdateItem(t *testing.T) {
	store := seedStore()

	name := "Pediatric Catheter Kits"
	qty := 30
	updated, err := store.UpdateItem(context.Background(), "itm-2", ItemUpdate{Name: &name, Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, "Pediatric Catheter Kits", updated.Name)
	assert.Equal(t, 30, updated.Quantity)
	assert.Equal(t, "Shelf B", updated.StorageLocation, "unset fields stay untouched")

	_, err = store.UpdateItem(context.Background(), "itm-gone", ItemUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestMemoryStore_DeleteItem(t *testing.T) {
	store := seedStore()

	require.NoError(t, store.DeleteItem(context.Background(), "itm-3"))
	_, err := store.GetItem(context.Background(), "itm-3")
	assert.ErrorIs(t, err, ErrItemNotFound)

	assert.ErrorIs(t, store.DeleteItem(context.Background(), "itm-3"), ErrItemNotFound)
}
