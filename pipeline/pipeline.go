// Package pipeline runs one text command end to end: extraction, per-candidate
// reconciliation against live stock, batched dispatch with independent
// failure, and aggregation into a single report.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"medtracker"
	"medtracker/inventory"
)

// commandStore is the slice of inventory.Store the pipeline needs.
type commandStore interface {
	itemReader
	quantityWriter
}

// Pipeline wires the extractor, reconciler, and dispatcher behind a single
// Process call. Each invocation is a self-contained unit of work; no state
// carries over between commands.
type Pipeline struct {
	extractor  medtracker.Extractor
	reconciler *Reconciler
	dispatcher *Dispatcher
	logger     medtracker.RunLogger
}

// NewPipeline initializes a pipeline over the given extractor and store.
func NewPipeline(extractor medtracker.Extractor, store commandStore, logger medtracker.RunLogger) *Pipeline {
	return &Pipeline{
		extractor:  extractor,
		reconciler: NewReconciler(store),
		dispatcher: NewDispatcher(store),
		logger:     logger,
	}
}

// Process implements medtracker.CommandProcessor. Only an extraction failure
// is returned as an error; every other failure mode is captured as data in
// the result so the caller can render partial success.
func (p *Pipeline) Process(ctx context.Context, text string) (medtracker.CommandResult, error) {
	slog.Info("PIPELINE: Starting run", "text_len", len(text))
	run := medtracker.RunLog{Timestamp: time.Now(), Input: text}

	candidates, err := p.extractor.Extract(ctx, text)
	if err != nil {
		run.Error = err.Error()
		p.logRun(run)
		return medtracker.CommandResult{}, fmt.Errorf("extraction failed: %w", err)
	}
	run.Candidates = candidates

	result := medtracker.CommandResult{
		Success: []inventory.Item{},
		Errors:  []string{},
	}

	if len(candidates) == 0 {
		slog.Info("PIPELINE: No candidates extracted; nothing to do")
		p.logRun(run)
		return result, nil
	}

	mutations, rejections := p.reconciler.Reconcile(ctx, candidates)
	run.Mutations = mutations
	result.Errors = append(result.Errors, rejections...)

	// Every candidate rejected: the dispatch step is skipped entirely.
	dispatched := p.dispatcher.Dispatch(ctx, mutations)
	result.Success = dispatched.Succeeded
	for _, f := range dispatched.Failed {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to update item %s: %s", f.ItemID, f.Reason))
	}

	for _, item := range result.Success {
		run.Updated = append(run.Updated, item.ID)
	}
	run.Errors = result.Errors
	p.logRun(run)

	slog.Info("PIPELINE: Run complete",
		"candidates", len(candidates),
		"updated", len(result.Success),
		"errors", len(result.Errors),
	)
	return result, nil
}

func (p *Pipeline) logRun(run medtracker.RunLog) {
	if p.logger != nil {
		if err := p.logger.LogRun(run); err != nil {
			slog.Error("Failed to log pipeline run", "error", err)
		}
	}
}
