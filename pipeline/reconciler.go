package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"medtracker"
	"medtracker/inventory"
)

type itemReader interface {
	GetItem(ctx context.Context, id string) (inventory.Item, error)
}

// Reconciler transforms each candidate operation into exactly one of a
// resolved mutation or a rejection reason. Duplicate item ids across
// candidates are not deduplicated; later dispatches for the same item
// overwrite earlier ones at the store (last-write-wins).
type Reconciler struct {
	store itemReader
}

func NewReconciler(store itemReader) *Reconciler {
	return &Reconciler{store: store}
}

// outcome holds exactly one of mutation or rejection for a candidate.
type outcome struct {
	mutation  *medtracker.ResolvedMutation
	rejection string
}

// Reconcile classifies every candidate. Store lookups for independent
// candidates fan out concurrently and all settle before results are
// assembled; a failed lookup rejects its own candidate only. Both returned
// slices preserve candidate order.
func (r *Reconciler) Reconcile(ctx context.Context, candidates []medtracker.CandidateOperation) ([]medtracker.ResolvedMutation, []string) {
	outcomes := make([]outcome, len(candidates))
	var wg sync.WaitGroup

	for i, c := range candidates {
		if c.ItemID == "" {
			outcomes[i] = reject(c.Note, fmt.Sprintf("%s not recognized in inventory", c.ItemLabel))
			continue
		}

		qty, err := strconv.Atoi(strings.TrimSpace(c.RawQuantity))
		if err != nil || qty < 0 {
			outcomes[i] = reject(c.Note, fmt.Sprintf("invalid quantity '%s' for '%s'", c.RawQuantity, c.ItemLabel))
			continue
		}

		wg.Add(1)
		go func(i int, c medtracker.CandidateOperation, qty int) {
			defer wg.Done()
			outcomes[i] = r.resolve(ctx, c, qty)
		}(i, c, qty)
	}

	wg.Wait()

	var mutations []medtracker.ResolvedMutation
	var rejections []string
	for _, o := range outcomes {
		if o.mutation != nil {
			mutations = append(mutations, *o.mutation)
		} else {
			rejections = append(rejections, o.rejection)
		}
	}

	slog.Info("RECONCILER: Classified candidates",
		"candidates", len(candidates),
		"resolved", len(mutations),
		"rejected", len(rejections),
	)
	return mutations, rejections
}

// resolve looks up current stock and applies the operation. Target quantity
// never goes below zero; using more than on hand saturates at zero rather
// than erroring.
func (r *Reconciler) resolve(ctx context.Context, c medtracker.CandidateOperation, qty int) outcome {
	item, err := r.store.GetItem(ctx, c.ItemID)
	switch {
	case errors.Is(err, inventory.ErrItemNotFound):
		return outcome{rejection: fmt.Sprintf("'%s' not found in inventory", c.ItemLabel)}
	case err != nil:
		slog.Error("RECONCILER: Lookup failed", "item_id", c.ItemID, "error", err)
		return outcome{rejection: fmt.Sprintf("failed to fetch item: %s", c.ItemLabel)}
	}

	var target int
	switch c.Kind {
	case medtracker.OpAdd:
		target = item.Quantity + qty
	case medtracker.OpUse:
		target = max(0, item.Quantity-qty)
	default:
		return reject(c.Note, "could not determine operation; please try again")
	}

	return outcome{mutation: &medtracker.ResolvedMutation{ItemID: c.ItemID, TargetQuantity: target}}
}

// reject prefers the extractor's note when it supplied one.
func reject(note, fallback string) outcome {
	if note != "" {
		return outcome{rejection: note}
	}
	return outcome{rejection: fallback}
}
