package pipeline

import (
	"context"
	"errors"
	"testing"

	"medtracker"
	"medtracker/inventory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore() *inventory.MemoryStore {
	return inventory.NewMemoryStore(
		inventory.Item{ID: "itm-1", SKU: "WW-100", Name: "Adult Wet Wipes", Quantity: 10, StorageLocation: "Shelf A"},
		inventory.Item{ID: "itm-2", SKU: "CK-200", Name: "Catheter Kits", Quantity: 3, StorageLocation: "Shelf B"},
	)
}

func TestReconciler_Reconcile(t *testing.T) {
	tests := []struct {
		name           string
		candidates     []medtracker.CandidateOperation
		wantMutations  []medtracker.ResolvedMutation
		wantRejections []string
	}{
		{
			name: "unmatched item rejected with label",
			candidates: []medtracker.CandidateOperation{
				{Kind: medtracker.OpUse, ItemLabel: "gauze pads", RawQuantity: "2"},
			},
			wantRejections: []string{"gauze pads not recognized in inventory"},
		},
		{
			name: "unmatched item prefers extractor note",
			candidates: []medtracker.CandidateOperation{
				{Kind: medtracker.OpUse, ItemLabel: "gauze pads", RawQuantity: "2", Note: "Could not match 'gauze pads' to a known product"},
			},
			wantRejections: []string{"Could not match 'gauze pads' to a known product"},
		},
		{
			name: "word quantity rejected",
			candidates: []medtracker.CandidateOperation{
				{Kind: medtracker.OpUse, ItemID: "itm-1", ItemLabel: "Adult Wet Wipes", RawQuantity: "two"},
			},
			wantRejections: []string{"invalid quantity 'two' for 'Adult Wet Wipes'"},
		},
		{
			name: "empty quantity rejected",
			candidates: []medtracker.CandidateOperation{
				{Kind: medtracker.OpUse, ItemID: "itm-1", ItemLabel: "Adult Wet Wipes", RawQuantity: ""},
			},
			wantRejections: []string{"invalid quantity '' for 'Adult Wet Wipes'"},
		},
		{
			name: "dash quantity rejected",
			candidates: []medtracker.CandidateOperation{
				{Kind: medtracker.OpUse, ItemID: "itm-1", ItemLabel: "Adult Wet Wipes", RawQuantity: "-"},
			},
			wantRejections: []string{"invalid quantity '-' for 'Adult Wet Wipes'"},
		},
		{
			name: "negative quantity rejected",
			candidates: []medtracker.CandidateOperation{
				{Kind: medtracker.OpAdd, ItemID: "itm-1", ItemLabel: "Adult Wet Wipes", RawQuantity: "-3"},
			},
			wantRejections: []string{"invalid quantity '-3' for 'Adult Wet Wipes'"},
		},
		{
			name: "add computes sum against current stock",
			candidates: []medtracker.CandidateOperation{
				{Kind: medtracker.OpAdd, ItemID: "itm-1", ItemLabel: "Adult Wet Wipes", RawQuantity: "5"},
			},
			wantMutations: []medtracker.ResolvedMutation{{ItemID: "itm-1", TargetQuantity: 15}},
		},
		{
			name: "use saturates at zero",
			candidates: []medtracker.CandidateOperation{
				{Kind: medtracker.OpUse, ItemID: "itm-2", ItemLabel: "Catheter Kits", RawQuantity: "10"},
			},
			wantMutations: []medtracker.ResolvedMutation{{ItemID: "itm-2", TargetQuantity: 0}},
		},
		{
			name: "id not in store rejected",
			candidates: []medtracker.CandidateOperation{
				{Kind: medtracker.OpUse, ItemID: "itm-gone", ItemLabel: "Saline Bags", RawQuantity: "1"},
			},
			wantRejections: []string{"'Saline Bags' not found in inventory"},
		},
		{
			name: "unrecognized operation rejected after lookup",
			candidates: []medtracker.CandidateOperation{
				{Kind: medtracker.OpUnrecognized, ItemID: "itm-1", ItemLabel: "Adult Wet Wipes", RawQuantity: "5"},
			},
			wantRejections: []string{"could not determine operation; please try again"},
		},
		{
			name: "unrecognized operation prefers extractor note",
			candidates: []medtracker.CandidateOperation{
				{Kind: medtracker.OpUnrecognized, ItemID: "itm-1", ItemLabel: "Adult Wet Wipes", RawQuantity: "5", Note: "Unclear whether wipes were used or restocked"},
			},
			wantRejections: []string{"Unclear whether wipes were used or restocked"},
		},
		{
			name: "duplicate item ids are not deduplicated",
			candidates: []medtracker.CandidateOperation{
				{Kind: medtracker.OpUse, ItemID: "itm-1", ItemLabel: "Adult Wet Wipes", RawQuantity: "2"},
				{Kind: medtracker.OpUse, ItemID: "itm-1", ItemLabel: "Adult Wet Wipes", RawQuantity: "4"},
			},
			wantMutations: []medtracker.ResolvedMutation{
				{ItemID: "itm-1", TargetQuantity: 8},
				{ItemID: "itm-1", TargetQuantity: 6},
			},
		},
		{
			name: "mixed outcomes preserve candidate order",
			candidates: []medtracker.CandidateOperation{
				{Kind: medtracker.OpUse, ItemLabel: "gauze pads", RawQuantity: "1"},
				{Kind: medtracker.OpAdd, ItemID: "itm-2", ItemLabel: "Catheter Kits", RawQuantity: "7"},
				{Kind: medtracker.OpUse, ItemID: "itm-1", ItemLabel: "Adult Wet Wipes", RawQuantity: "oops"},
				{Kind: medtracker.OpUse, ItemID: "itm-1", ItemLabel: "Adult Wet Wipes", RawQuantity: "3"},
			},
			wantMutations: []medtracker.ResolvedMutation{
				{ItemID: "itm-2", TargetQuantity: 10},
				{ItemID: "itm-1", TargetQuantity: 7},
			},
			wantRejections: []string{
				"gauze pads not recognized in inventory",
				"invalid quantity 'oops' for 'Adult Wet Wipes'",
			},
		},
		{
			name:       "no candidates yields no outcomes",
			candidates: []medtracker.CandidateOperation{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReconciler(testStore())
			mutations, rejections := r.Reconcile(context.Background(), tt.candidates)

			if len(tt.wantMutations) == 0 {
				assert.Empty(t, mutations)
			} else {
				assert.Equal(t, tt.wantMutations, mutations)
			}
			if len(tt.wantRejections) == 0 {
				assert.Empty(t, rejections)
			} else {
				assert.Equal(t, tt.wantRejections, rejections)
			}
		})
	}
}

func TestReconciler_LookupFailureIsIsolated(t *testing.T) {
	store := testStore()
	store.FailGet("itm-1", errors.New("store unreachable"))

	r := NewReconciler(store)
	mutations, rejections := r.Reconcile(context.Background(), []medtracker.CandidateOperation{
		{Kind: medtracker.OpUse, ItemID: "itm-1", ItemLabel: "Adult Wet Wipes", RawQuantity: "2"},
		{Kind: medtracker.OpAdd, ItemID: "itm-2", ItemLabel: "Catheter Kits", RawQuantity: "5"},
	})

	// The failed lookup rejects its own candidate only; the sibling still resolves.
	require.Len(t, rejections, 1)
	assert.Equal(t, "failed to fetch item: Adult Wet Wipes", rejections[0])
	assert.Equal(t, []medtracker.ResolvedMutation{{ItemID: "itm-2", TargetQuantity: 8}}, mutations)
}
