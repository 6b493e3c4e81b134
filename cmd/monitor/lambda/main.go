package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"

	"medtracker"
	"medtracker/inventory"
	"medtracker/monitor"
	"medtracker/notify"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/joeshaw/envdecode"
)

type results struct {
	Message string `json:"message"`
}

func main() {
	ctx := context.Background()

	var svcConfig medtracker.ServiceConfig
	if err := envdecode.Decode(&svcConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
	if err != nil {
		log.Fatalf("Failed to load AWS config: %s", err)
	}

	store := inventory.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), svcConfig.InventoryTable, nil)

	var notifiers []notify.Notifier
	if svcConfig.SNSTopicARN != "" {
		notifiers = append(notifiers, notify.NewSNS(sns.NewFromConfig(awsCfg), svcConfig.SNSTopicARN))
	}
	if svcConfig.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhook(svcConfig.WebhookURL, http.DefaultClient))
	}
	if len(notifiers) == 0 {
		log.Fatal("No notification channels configured: set SNS_TOPIC_ARN or NOTIFY_WEBHOOK_URL")
	}

	m := monitor.NewLowStockMonitor(store, svcConfig.LowStockThreshold, notifiers...)
	slog.Info("SETUP: Low stock monitor initialized", "threshold", svcConfig.LowStockThreshold)

	fn := func(ctx context.Context) (results, error) {
		items, err := m.Check(ctx)
		if err != nil {
			slog.Error("RESULT: Low stock check failed", "error", err)
			return results{}, err
		}
		return results{
			Message: fmt.Sprintf("Checked inventory. Found %d low stock items.", len(items)),
		}, nil
	}

	lambda.Start(fn)
}
