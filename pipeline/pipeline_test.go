package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"medtracker"
	"medtracker/analysis"
	"medtracker/inventory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockExtractor struct {
	candidates []medtracker.CandidateOperation
	err        error
}

func (m *mockExtractor) Extract(ctx context.Context, text string) ([]medtracker.CandidateOperation, error) {
	return m.candidates, m.err
}

// countingStore wraps the in-memory store so tests can assert which store
// surfaces the pipeline touched.
type countingStore struct {
	*inventory.MemoryStore
	mu      sync.Mutex
	gets    int
	updates int
}

func (c *countingStore) GetItem(ctx context.Context, id string) (inventory.Item, error) {
	c.mu.Lock()
	c.gets++
	c.mu.Unlock()
	return c.MemoryStore.GetItem(ctx, id)
}

func (c *countingStore) UpdateQuantity(ctx context.Context, id string, quantity int) (inventory.Item, error) {
	c.mu.Lock()
	c.updates++
	c.mu.Unlock()
	return c.MemoryStore.UpdateQuantity(ctx, id, quantity)
}

func TestPipeline_Process(t *testing.T) {
	extractor := &mockExtractor{candidates: []medtracker.CandidateOperation{
		{Kind: medtracker.OpUse, ItemID: "itm-1", ItemLabel: "Adult Wet Wipes", RawQuantity: "5"},
		{Kind: medtracker.OpAdd, ItemID: "itm-2", ItemLabel: "Catheter Kits", RawQuantity: "10"},
	}}
	store := inventory.NewMemoryStore(
		inventory.Item{ID: "itm-1", SKU: "WW-100", Name: "Adult Wet Wipes", Quantity: 20},
		inventory.Item{ID: "itm-2", SKU: "CK-200", Name: "Catheter Kits", Quantity: 0},
	)

	p := NewPipeline(extractor, store, medtracker.NewNoOpRunLogger())
	result, err := p.Process(context.Background(), "I used 5 adult wet wipes and added 10 catheter kits")
	require.NoError(t, err)

	require.Len(t, result.Success, 2)
	assert.Equal(t, "itm-1", result.Success[0].ID)
	assert.Equal(t, 15, result.Success[0].Quantity)
	assert.Equal(t, "itm-2", result.Success[1].ID)
	assert.Equal(t, 10, result.Success[1].Quantity)
	assert.Empty(t, result.Errors)

	got, err := store.GetItem(context.Background(), "itm-1")
	require.NoError(t, err)
	assert.Equal(t, 15, got.Quantity)
}

func TestPipeline_Process_UnrecognizedProduct(t *testing.T) {
	extractor := &mockExtractor{candidates: []medtracker.CandidateOperation{
		{Kind: medtracker.OpUse, ItemLabel: "adult diapers", RawQuantity: "3"},
	}}
	store := &countingStore{MemoryStore: inventory.NewMemoryStore(
		inventory.Item{ID: "itm-1", SKU: "WW-100", Name: "Adult Wet Wipes", Quantity: 20},
	)}

	p := NewPipeline(extractor, store, medtracker.NewNoOpRunLogger())
	result, err := p.Process(context.Background(), "I used 3 adult diapers")
	require.NoError(t, err)

	assert.Empty(t, result.Success)
	assert.Equal(t, []string{"adult diapers not recognized in inventory"}, result.Errors)
	assert.Equal(t, 0, store.updates, "rejected candidates must not reach the store")
}

func TestPipeline_Process_NoCandidates(t *testing.T) {
	store := &countingStore{MemoryStore: inventory.NewMemoryStore()}
	p := NewPipeline(&mockExtractor{}, store, medtracker.NewNoOpRunLogger())

	result, err := p.Process(context.Background(), "how is the weather today")
	require.NoError(t, err)

	assert.NotNil(t, result.Success)
	assert.NotNil(t, result.Errors)
	assert.Empty(t, result.Success)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 0, store.gets)
	assert.Equal(t, 0, store.updates)
}

func TestPipeline_Process_ExtractionUnavailable(t *testing.T) {
	extractor := &mockExtractor{err: fmt.Errorf("%w: model timed out", analysis.ErrExtractionUnavailable)}
	p := NewPipeline(extractor, inventory.NewMemoryStore(), medtracker.NewNoOpRunLogger())

	_, err := p.Process(context.Background(), "I used 5 adult wet wipes")
	require.Error(t, err)
	assert.ErrorIs(t, err, analysis.ErrExtractionUnavailable)
}

func TestPipeline_Process_PartialDispatchFailure(t *testing.T) {
	extractor := &mockExtractor{candidates: []medtracker.CandidateOperation{
		{Kind: medtracker.OpUse, ItemID: "itm-1", ItemLabel: "Adult Wet Wipes", RawQuantity: "5"},
		{Kind: medtracker.OpAdd, ItemID: "itm-2", ItemLabel: "Catheter Kits", RawQuantity: "10"},
	}}
	store := inventory.NewMemoryStore(
		inventory.Item{ID: "itm-1", SKU: "WW-100", Name: "Adult Wet Wipes", Quantity: 20},
		inventory.Item{ID: "itm-2", SKU: "CK-200", Name: "Catheter Kits", Quantity: 0},
	)
	store.FailUpdate("itm-2", errors.New("throughput exceeded"))

	p := NewPipeline(extractor, store, medtracker.NewNoOpRunLogger())
	result, err := p.Process(context.Background(), "I used 5 adult wet wipes and added 10 catheter kits")
	require.NoError(t, err)

	require.Len(t, result.Success, 1)
	assert.Equal(t, "itm-1", result.Success[0].ID)
	assert.Equal(t, []string{"failed to update item itm-2: throughput exceeded"}, result.Errors)
}

func TestPipeline_Process_LogsRuns(t *testing.T) {
	extractor := &mockExtractor{candidates: []medtracker.CandidateOperation{
		{Kind: medtracker.OpUse, ItemID: "itm-1", ItemLabel: "Adult Wet Wipes", RawQuantity: "2"},
	}}
	store := inventory.NewMemoryStore(
		inventory.Item{ID: "itm-1", SKU: "WW-100", Name: "Adult Wet Wipes", Quantity: 20},
	)

	var buf bytes.Buffer
	logger := medtracker.NewFileRunLogger(&buf)

	p := NewPipeline(extractor, store, logger)
	_, err := p.Process(context.Background(), "I used 2 adult wet wipes")
	require.NoError(t, err)
	require.NoError(t, logger.Flush())

	assert.Contains(t, buf.String(), "I used 2 adult wet wipes")
	assert.Contains(t, buf.String(), "itm-1")
}
