package analysis

import (
	"context"
	"log/slog"
	"strings"

	"medtracker/inventory"
)

type itemLister interface {
	ListItems(ctx context.Context) ([]inventory.Item, error)
}

// Resolver matches extracted product names against stored item names with a
// case-insensitive substring search.
type Resolver struct {
	store itemLister
}

// NewResolver creates a resolver over the inventory store.
func NewResolver(store itemLister) *Resolver {
	return &Resolver{store: store}
}

// ResolveName returns the id of the first item whose name contains the
// extracted name, or "" when nothing matches or the lookup fails. A failed
// lookup degrades to an unmatched candidate rather than aborting extraction.
func (r *Resolver) ResolveName(ctx context.Context, name string) string {
	items, err := r.store.ListItems(ctx)
	if err != nil {
		slog.Error("EXTRACTOR: Failed to list inventory for name resolution", "error", err, "name", name)
		return ""
	}

	search := strings.ToLower(strings.TrimSpace(name))
	if search == "" {
		return ""
	}
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Name), search) {
			return item.ID
		}
	}
	return ""
}
