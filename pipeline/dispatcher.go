package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"medtracker"
	"medtracker/inventory"
)

type quantityWriter interface {
	UpdateQuantity(ctx context.Context, id string, quantity int) (inventory.Item, error)
}

// Dispatcher applies resolved mutations to the store independently: one
// update call per mutation, issued concurrently, all settling before the
// result is returned. One failure never blocks, cancels, or rolls back a
// sibling.
type Dispatcher struct {
	store quantityWriter
}

func NewDispatcher(store quantityWriter) *Dispatcher {
	return &Dispatcher{store: store}
}

// DispatchFailure records one store write that did not persist.
type DispatchFailure struct {
	ItemID string
	Reason string
}

// DispatchResult aggregates per-item outcomes of one dispatch batch.
type DispatchResult struct {
	Succeeded []inventory.Item
	Failed    []DispatchFailure
}

// Dispatch fans out every mutation and collects each outcome. An empty
// mutation set returns immediately without any store calls. Completion order
// between mutations is unspecified; the returned slices follow input order.
func (d *Dispatcher) Dispatch(ctx context.Context, mutations []medtracker.ResolvedMutation) DispatchResult {
	result := DispatchResult{
		Succeeded: []inventory.Item{},
		Failed:    []DispatchFailure{},
	}
	if len(mutations) == 0 {
		return result
	}

	type settled struct {
		item inventory.Item
		err  error
	}
	outcomes := make([]settled, len(mutations))

	var wg sync.WaitGroup
	for i, m := range mutations {
		wg.Add(1)
		go func(i int, m medtracker.ResolvedMutation) {
			defer wg.Done()
			item, err := d.store.UpdateQuantity(ctx, m.ItemID, m.TargetQuantity)
			outcomes[i] = settled{item: item, err: err}
		}(i, m)
	}
	wg.Wait()

	for i, o := range outcomes {
		if o.err != nil {
			result.Failed = append(result.Failed, DispatchFailure{
				ItemID: mutations[i].ItemID,
				Reason: o.err.Error(),
			})
			continue
		}
		result.Succeeded = append(result.Succeeded, o.item)
	}

	slog.Info("DISPATCHER: Batch settled",
		"mutations", len(mutations),
		"succeeded", len(result.Succeeded),
		"failed", len(result.Failed),
	)
	return result
}
