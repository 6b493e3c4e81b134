package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/joeshaw/envdecode"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"medtracker"
	"medtracker/analysis"
	"medtracker/inventory"
	"medtracker/pipeline"
)

func main() {
	ctx := context.Background()

	var modelConfig medtracker.ModelConfig
	if err := envdecode.Decode(&modelConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var localConfig medtracker.LocalConfig
	if err := envdecode.Decode(&localConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	store, err := loadInventory(localConfig.ArtifactsInventoryPath)
	if err != nil {
		slog.Error("SETUP: Failed to load inventory artifact", "error", err)
		return
	}

	command := argOr(1, "I used 5 adult wet wipes and added 10 catheter kits")

	logger, cleanup, err := newRunLogger(modelConfig.ModelID)
	if err != nil {
		slog.Error("Failed to create run logger", "error", err)
		return
	}
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("Failed to flush run log", "error", err)
		}
	}()

	brc, err := newBedrockRuntimeClient(ctx)
	if err != nil {
		slog.Error("SETUP: Failed to create Bedrock client", "error", err)
		return
	}

	extractor := analysis.NewExtractor(brc, analysis.NewResolver(store), analysis.Options{
		ModelID:     modelConfig.ModelID,
		MaxTokens:   modelConfig.MaxTokens,
		Temperature: modelConfig.Temperature,
		TopP:        modelConfig.TopP,
	})

	tracerProvider, meterProvider, otelShutdown, err := medtracker.InitOtel(ctx)
	if err != nil {
		slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
		return
	}
	defer func() {
		if err := otelShutdown(ctx); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	tracer := tracerProvider.Tracer(medtracker.TracerNamePipeline)
	meter := meterProvider.Meter(medtracker.TracerNamePipeline)

	ctx, span := tracer.Start(ctx, medtracker.TracerNamePipeline, trace.WithAttributes(
		attribute.String("model.id", modelConfig.ModelID),
		attribute.Int("model.max_tokens", int(modelConfig.MaxTokens)),
		attribute.Float64("model.temperature", float64(modelConfig.Temperature)),
		attribute.Float64("model.top_p", float64(modelConfig.TopP)),
	))
	defer span.End()

	p := pipeline.NewInstrumentedPipeline(extractor, store, logger, tracer, meter)

	result, err := p.Process(ctx, command)
	if err != nil {
		slog.Error("RESULT: Error processing command", "error", err)
		return
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))

	low, err := store.ListLowStock(ctx, localConfig.LowStockThreshold)
	if err != nil {
		slog.Error("RESULT: Low stock check failed", "error", err)
		return
	}
	for _, item := range low {
		slog.Warn("RESULT: Item below restock threshold",
			"name", item.Name,
			"quantity", item.Quantity,
			"threshold", localConfig.LowStockThreshold,
		)
	}
}

func newBedrockRuntimeClient(ctx context.Context) (*bedrockruntime.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
	if err != nil {
		return nil, err
	}
	return bedrockruntime.NewFromConfig(awsCfg), nil
}

func argOr(i int, def string) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return def
}

func loadInventory(path string) (*inventory.MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory artifact: %w", err)
	}
	var items []inventory.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse inventory artifact: %w", err)
	}
	slog.Info("SETUP: Inventory artifact loaded", "items", len(items))
	return inventory.NewMemoryStore(items...), nil
}

func newRunLogger(modelID string) (medtracker.RunLogger, func() error, error) {
	logFilePath := medtracker.NewRunLogFilePath(modelID)
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := medtracker.NewFileRunLogger(logFile)
	cleanup := func() error {
		return errors.Join(logger.Flush(), logFile.Close())
	}
	return logger, cleanup, nil
}
