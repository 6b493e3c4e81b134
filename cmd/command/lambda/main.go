package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"net/http"

	"medtracker"
	"medtracker/analysis"
	"medtracker/audit"
	"medtracker/inventory"
	"medtracker/pipeline"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joeshaw/envdecode"
)

type commandRequest struct {
	Text string `json:"text"`
}

func main() {
	ctx := context.Background()

	var modelConfig medtracker.ModelConfig
	if err := envdecode.Decode(&modelConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var svcConfig medtracker.ServiceConfig
	if err := envdecode.Decode(&svcConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
	if err != nil {
		log.Fatalf("Failed to load AWS config: %s", err)
	}

	ddb := dynamodb.NewFromConfig(awsCfg)
	var auditor audit.Recorder = audit.NewNoopRecorder()
	if svcConfig.AuditTable != "" {
		auditor = audit.NewDynamoRecorder(ddb, svcConfig.AuditTable)
	}
	store := inventory.NewDynamoStore(ddb, svcConfig.InventoryTable, auditor)

	extractor := analysis.NewExtractor(
		bedrockruntime.NewFromConfig(awsCfg),
		analysis.NewResolver(store),
		analysis.Options{
			ModelID:     modelConfig.ModelID,
			MaxTokens:   modelConfig.MaxTokens,
			Temperature: modelConfig.Temperature,
			TopP:        modelConfig.TopP,
		},
	)

	var runLogger medtracker.RunLogger = medtracker.NewStdoutRunLogger()
	if svcConfig.RunLogBucket != "" {
		runLogger = medtracker.NewS3RunLogger(s3.NewFromConfig(awsCfg), svcConfig.RunLogBucket, svcConfig.RunLogPrefix)
		slog.Info("SETUP: Run logs going to S3", "bucket", svcConfig.RunLogBucket, "prefix", svcConfig.RunLogPrefix)
	}

	p := pipeline.NewPipeline(extractor, store, runLogger)
	slog.Info("SETUP: Command pipeline initialized", "table", svcConfig.InventoryTable)

	fn := func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		var body commandRequest
		if err := json.Unmarshal([]byte(req.Body), &body); err != nil || body.Text == "" {
			return respond(http.StatusBadRequest, map[string]string{"error": "Missing text attribute in request body"})
		}

		result, err := p.Process(ctx, body.Text)
		if err != nil {
			slog.Error("RESULT: Command processing failed", "error", err)
			status := http.StatusInternalServerError
			if errors.Is(err, analysis.ErrExtractionUnavailable) {
				status = http.StatusBadGateway
			}
			return respond(status, map[string]string{"error": err.Error()})
		}

		return respond(http.StatusOK, result)
	}

	lambda.Start(fn)
}

func respond(status int, body any) (events.APIGatewayProxyResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError}, nil
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":                "application/json",
			"Access-Control-Allow-Origin": "*",
		},
		Body: string(data),
	}, nil
}
