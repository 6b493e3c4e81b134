package inventory

import (
	"context"
	"errors"
)

// ErrItemNotFound is returned by reads and conditional writes when the id (or
// SKU) does not exist in the store.
var ErrItemNotFound = errors.New("item not found")

// Store is the persistence boundary for inventory items. The store provides
// per-item atomic quantity replacement (last-write-wins); callers impose no
// additional locking.
type Store interface {
	// GetItem returns the current record for an id, or ErrItemNotFound.
	GetItem(ctx context.Context, id string) (Item, error)

	// GetItemBySKU returns the record whose SKU matches, or ErrItemNotFound.
	GetItemBySKU(ctx context.Context, sku string) (Item, error)

	// ListItems returns all records.
	ListItems(ctx context.Context) ([]Item, error)

	// ListLowStock returns records with quantity strictly below threshold,
	// sorted by quantity ascending.
	ListLowStock(ctx context.Context, threshold int) ([]Item, error)

	// CreateItem persists a new record. If an item with the same SKU already
	// exists, quantities are added and provided optional fields refreshed; the
	// stored record is returned either way.
	CreateItem(ctx context.Context, item Item) (Item, error)

	// UpdateQuantity replaces the stored quantity for an id and returns the
	// updated record. Fails with ErrItemNotFound when the id does not exist.
	UpdateQuantity(ctx context.Context, id string, quantity int) (Item, error)

	// UpdateItem applies a partial field update and returns the updated record.
	UpdateItem(ctx context.Context, id string, update ItemUpdate) (Item, error)

	// DeleteItem removes the record for an id.
	DeleteItem(ctx context.Context, id string) error
}

// ItemUpdate carries optional field changes for UpdateItem. Nil fields are
// left untouched.
type ItemUpdate struct {
	Quantity        *int    `json:"quantity,omitempty"`
	Name            *string `json:"item_name,omitempty"`
	StorageLocation *string `json:"storage_location,omitempty"`
	ExpirationDate  *string `json:"expiration_date,omitempty"`
	Category        *string `json:"category,omitempty"`
}
