package inventory

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a simple in-memory Store for tests and local runs.
type MemoryStore struct {
	mu         sync.RWMutex
	items      map[string]Item
	getErrs    map[string]error
	updateErrs map[string]error
}

// NewMemoryStore creates a memory store seeded with the given items.
func NewMemoryStore(items ...Item) *MemoryStore {
	m := &MemoryStore{
		items:      make(map[string]Item, len(items)),
		getErrs:    make(map[string]error),
		updateErrs: make(map[string]error),
	}
	for _, it := range items {
		m.items[it.ID] = it
	}
	return m
}

// FailGet makes subsequent GetItem calls for id return err.
func (m *MemoryStore) FailGet(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getErrs[id] = err
}

// FailUpdate makes subsequent UpdateQuantity calls for id return err.
func (m *MemoryStore) FailUpdate(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateErrs[id] = err
}

func (m *MemoryStore) GetItem(ctx context.Context, id string) (Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err, ok := m.getErrs[id]; ok {
		return Item{}, err
	}
	it, ok := m.items[id]
	if !ok {
		return Item{}, ErrItemNotFound
	}
	return it, nil
}

func (m *MemoryStore) GetItemBySKU(ctx context.Context, sku string) (Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, it := range m.items {
		if it.SKU == sku {
			return it, nil
		}
	}
	return Item{}, ErrItemNotFound
}

func (m *MemoryStore) ListItems(ctx context.Context) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Item, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) ListLowStock(ctx context.Context, threshold int) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Item
	for _, it := range m.items {
		if it.Quantity < threshold {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Quantity < out[j].Quantity })
	return out, nil
}

func (m *MemoryStore) CreateItem(ctx context.Context, item Item) (Item, error) {
	if err := item.Validate(); err != nil {
		return Item{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC().Format(time.RFC3339)

	for id, existing := range m.items {
		if existing.SKU == item.SKU {
			existing.Quantity += item.Quantity
			if item.StorageLocation != "" {
				existing.StorageLocation = item.StorageLocation
			}
			if item.ExpirationDate != "" {
				existing.ExpirationDate = item.ExpirationDate
			}
			if item.Category != "" {
				existing.Category = item.Category
			}
			existing.UpdatedAt = now
			m.items[id] = existing
			return existing, nil
		}
	}

	item.CreatedAt = now
	item.UpdatedAt = now
	m.items[item.ID] = item
	return item, nil
}

func (m *MemoryStore) UpdateQuantity(ctx context.Context, id string, quantity int) (Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.updateErrs[id]; ok {
		return Item{}, err
	}
	it, ok := m.items[id]
	if !ok {
		return Item{}, ErrItemNotFound
	}
	it.Quantity = quantity
	it.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	m.items[id] = it
	return it, nil
}

func (m *MemoryStore) UpdateItem(ctx context.Context, id string, update ItemUpdate) (Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return Item{}, ErrItemNotFound
	}
	if update.Quantity != nil {
		it.Quantity = *update.Quantity
	}
	if update.Name != nil {
		it.Name = *update.Name
	}
	if update.StorageLocation != nil {
		it.StorageLocation = *update.StorageLocation
	}
	if update.ExpirationDate != nil {
		it.ExpirationDate = *update.ExpirationDate
	}
	if update.Category != nil {
		it.Category = *update.Category
	}
	it.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	m.items[id] = it
	return it, nil
}

func (m *MemoryStore) DeleteItem(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return ErrItemNotFound
	}
	delete(m.items, id)
	return nil
}
