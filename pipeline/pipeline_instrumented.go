package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"medtracker"
	"medtracker/inventory"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedPipeline is an instrumented version of Pipeline with
// observability metrics for every stage.
type InstrumentedPipeline struct {
	extractor  medtracker.Extractor
	reconciler *Reconciler
	dispatcher *Dispatcher
	logger     medtracker.RunLogger
	tracer     trace.Tracer
	meter      metric.Meter
}

// NewInstrumentedPipeline initializes a new instrumented pipeline.
func NewInstrumentedPipeline(extractor medtracker.Extractor, store commandStore, logger medtracker.RunLogger, tracer trace.Tracer, meter metric.Meter) *InstrumentedPipeline {
	return &InstrumentedPipeline{
		extractor:  extractor,
		reconciler: NewReconciler(store),
		dispatcher: NewDispatcher(store),
		logger:     logger,
		tracer:     tracer,
		meter:      meter,
	}
}

// Process runs one text command with full instrumentation.
func (p *InstrumentedPipeline) Process(ctx context.Context, text string) (medtracker.CommandResult, error) {
	ctx, span := p.tracer.Start(ctx, "InstrumentedPipeline.Process")
	defer span.End()

	commandsCounter, _ := p.meter.Int64Counter("commands_total",
		metric.WithDescription("Total number of text commands processed"))
	commandsFailedCounter, _ := p.meter.Int64Counter("commands_failed_total",
		metric.WithDescription("Total number of commands aborted by extraction failure"))
	candidatesCounter, _ := p.meter.Int64Counter("candidates_total",
		metric.WithDescription("Total number of candidate operations extracted"))
	rejectionsCounter, _ := p.meter.Int64Counter("rejections_total",
		metric.WithDescription("Total number of candidates rejected during reconciliation"))
	dispatchFailuresCounter, _ := p.meter.Int64Counter("dispatch_failures_total",
		metric.WithDescription("Total number of store writes that failed"))
	itemsUpdatedCounter, _ := p.meter.Int64Counter("items_updated_total",
		metric.WithDescription("Total number of item snapshots updated successfully"))

	commandDurationHist, _ := p.meter.Float64Histogram("command_duration_seconds",
		metric.WithDescription("Total duration of command processing in seconds"))
	extractionTimeHist, _ := p.meter.Float64Histogram("extraction_time_seconds",
		metric.WithDescription("Time taken by the language-model extraction call in seconds"))
	reconcileTimeHist, _ := p.meter.Float64Histogram("reconcile_time_seconds",
		metric.WithDescription("Time taken to reconcile candidates against the store in seconds"))
	dispatchTimeHist, _ := p.meter.Float64Histogram("dispatch_time_seconds",
		metric.WithDescription("Time taken to dispatch the mutation batch in seconds"))

	commandsCounter.Add(ctx, 1)
	startTime := time.Now()

	slog.Info("PIPELINE: Starting instrumented run", "text_len", len(text))
	run := medtracker.RunLog{Timestamp: time.Now(), Input: text}

	extractStart := time.Now()
	candidates, err := p.extractor.Extract(ctx, text)
	extractionTimeHist.Record(ctx, time.Since(extractStart).Seconds())
	if err != nil {
		commandsFailedCounter.Add(ctx, 1)
		span.SetStatus(codes.Error, "Extraction failed")
		span.RecordError(err)
		run.Error = err.Error()
		p.logRun(run)
		return medtracker.CommandResult{}, fmt.Errorf("extraction failed: %w", err)
	}
	run.Candidates = candidates
	candidatesCounter.Add(ctx, int64(len(candidates)))

	span.AddEvent("Candidates extracted", trace.WithAttributes(
		attribute.Int("candidate_count", len(candidates)),
	))

	result := medtracker.CommandResult{
		Success: []inventory.Item{},
		Errors:  []string{},
	}

	if len(candidates) == 0 {
		commandDurationHist.Record(ctx, time.Since(startTime).Seconds())
		p.logRun(run)
		return result, nil
	}

	reconcileStart := time.Now()
	mutations, rejections := p.reconciler.Reconcile(ctx, candidates)
	reconcileTimeHist.Record(ctx, time.Since(reconcileStart).Seconds())
	run.Mutations = mutations
	rejectionsCounter.Add(ctx, int64(len(rejections)))
	result.Errors = append(result.Errors, rejections...)

	span.AddEvent("Candidates reconciled", trace.WithAttributes(
		attribute.Int("resolved_count", len(mutations)),
		attribute.Int("rejected_count", len(rejections)),
	))

	dispatchStart := time.Now()
	dispatched := p.dispatcher.Dispatch(ctx, mutations)
	dispatchTimeHist.Record(ctx, time.Since(dispatchStart).Seconds())

	itemsUpdatedCounter.Add(ctx, int64(len(dispatched.Succeeded)))
	dispatchFailuresCounter.Add(ctx, int64(len(dispatched.Failed)))

	result.Success = dispatched.Succeeded
	for _, f := range dispatched.Failed {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to update item %s: %s", f.ItemID, f.Reason))
	}

	span.AddEvent("Batch dispatched", trace.WithAttributes(
		attribute.Int("updated_count", len(dispatched.Succeeded)),
		attribute.Int("failed_count", len(dispatched.Failed)),
	))

	for _, item := range result.Success {
		run.Updated = append(run.Updated, item.ID)
	}
	run.Errors = result.Errors
	p.logRun(run)

	commandDurationHist.Record(ctx, time.Since(startTime).Seconds())
	return result, nil
}

func (p *InstrumentedPipeline) logRun(run medtracker.RunLog) {
	if p.logger != nil {
		if err := p.logger.LogRun(run); err != nil {
			slog.Error("Failed to log pipeline run", "error", err)
		}
	}
}
