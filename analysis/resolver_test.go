package analysis

import (
	"context"
	"errors"
	"testing"

	"medtracker/inventory"

	"github.com/stretchr/testify/assert"
)

type failingLister struct{}

func (failingLister) ListItems(ctx context.Context) ([]inventory.Item, error) {
	return nil, errors.New("store unreachable")
}

func TestResolver_ResolveName(t *testing.T) {
	store := inventory.NewMemoryStore(
		inventory.Item{ID: "itm-1", SKU: "WW-100", Name: "Adult Wet Wipes", Quantity: 20},
		inventory.Item{ID: "itm-2", SKU: "CK-200", Name: "Catheter Kits", Quantity: 5},
	)
	r := NewResolver(store)

	tests := []struct {
		name   string
		search string
		want   string
	}{
		{name: "exact name", search: "Adult Wet Wipes", want: "itm-1"},
		{name: "case insensitive", search: "catheter kits", want: "itm-2"},
		{name: "partial name", search: "wet wipes", want: "itm-1"},
		{name: "surrounding whitespace", search: "  catheter kits  ", want: "itm-2"},
		{name: "no match", search: "gauze pads", want: ""},
		{name: "empty search", search: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.ResolveName(context.Background(), tt.search))
		})
	}
}

func TestResolver_ResolveName_ListFailure(t *testing.T) {
	r := NewResolver(failingLister{})
	assert.Equal(t, "", r.ResolveName(context.Background(), "catheter kits"))
}
