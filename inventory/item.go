package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Item is one tracked medication or supply record. The store is the sole owner
// of persisted item state; callers treat returned snapshots as values.
type Item struct {
	ID              string `json:"id" dynamodbav:"id"`
	SKU             string `json:"sku" dynamodbav:"sku"`
	Name            string `json:"item_name" dynamodbav:"item_name"`
	Quantity        int    `json:"quantity" dynamodbav:"quantity"`
	ExpirationDate  string `json:"expiration_date,omitempty" dynamodbav:"expiration_date,omitempty"` // ISO 8601 date
	StorageLocation string `json:"storage_location" dynamodbav:"storage_location"`
	Category        string `json:"category,omitempty" dynamodbav:"category,omitempty"`
	SupplierName    string `json:"supplier_name,omitempty" dynamodbav:"supplier_name,omitempty"`
	SupplierPhone   string `json:"supplier_phone,omitempty" dynamodbav:"supplier_phone,omitempty"`
	CreatedAt       string `json:"created_at,omitempty" dynamodbav:"created_at,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty" dynamodbav:"updated_at,omitempty"`
}

// NewItem builds an item with a fresh id and trimmed fields. Validate before
// persisting.
func NewItem(sku, name string, quantity int, expirationDate, storageLocation string) Item {
	return Item{
		ID:              uuid.NewString(),
		SKU:             strings.TrimSpace(sku),
		Name:            strings.TrimSpace(name),
		Quantity:        quantity,
		ExpirationDate:  expirationDate,
		StorageLocation: strings.TrimSpace(storageLocation),
	}
}

// Validate checks the item meets the persistence requirements.
func (i Item) Validate() error {
	if strings.TrimSpace(i.SKU) == "" {
		return fmt.Errorf("sku cannot be empty")
	}
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("item_name cannot be empty or whitespace")
	}
	if i.Quantity < 0 {
		return fmt.Errorf("quantity cannot be negative")
	}
	if strings.TrimSpace(i.StorageLocation) == "" {
		return fmt.Errorf("storage_location cannot be empty or whitespace")
	}
	if i.ExpirationDate != "" {
		if _, err := time.Parse("2006-01-02", i.ExpirationDate); err != nil {
			return fmt.Errorf("expiration_date must be an ISO date: %w", err)
		}
	}
	return nil
}
