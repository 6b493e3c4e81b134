// Package audit writes a best-effort trail of inventory changes to a
// dedicated table. Recording never fails the operation being audited.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

const (
	ActionCreate  = "CREATE"
	ActionUpdate  = "UPDATE"
	ActionRestock = "RESTOCK"
	ActionDelete  = "DELETE"
)

// Entry is one audit record.
type Entry struct {
	AuditDate       string `dynamodbav:"audit_date" json:"audit_date"` // YYYY-MM-DD partition key
	Timestamp       string `dynamodbav:"timestamp" json:"timestamp"`
	InventoryItemID string `dynamodbav:"inventory_item_id" json:"inventory_item_id"`
	Action          string `dynamodbav:"action" json:"action"`
	SKU             string `dynamodbav:"sku" json:"sku"`
	ItemName        string `dynamodbav:"item_name" json:"item_name"`
	Category        string `dynamodbav:"category,omitempty" json:"category,omitempty"`
	QuantityBefore  int    `dynamodbav:"quantity_before" json:"quantity_before"`
	QuantityAfter   int    `dynamodbav:"quantity_after" json:"quantity_after"`
	QuantityDelta   int    `dynamodbav:"quantity_delta" json:"quantity_delta"`
	StorageLocation string `dynamodbav:"storage_location,omitempty" json:"storage_location,omitempty"`
	ExpirationDate  string `dynamodbav:"expiration_date,omitempty" json:"expiration_date,omitempty"`
}

// Recorder persists audit entries.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}

type putItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoRecorder writes entries to a DynamoDB audit table.
type DynamoRecorder struct {
	client putItemAPI
	table  string
}

// NewDynamoRecorder creates a recorder for the given audit table.
func NewDynamoRecorder(client putItemAPI, table string) *DynamoRecorder {
	return &DynamoRecorder{client: client, table: table}
}

// Record stamps and persists the entry. Failures are logged, not returned;
// auditing must not break the operation it describes.
func (r *DynamoRecorder) Record(ctx context.Context, e Entry) {
	now := time.Now().UTC()
	e.AuditDate = now.Format("2006-01-02")
	e.Timestamp = now.Format(time.RFC3339Nano)
	e.QuantityDelta = e.QuantityAfter - e.QuantityBefore

	av, err := attributevalue.MarshalMap(e)
	if err != nil {
		slog.Error("AUDIT: Failed to marshal entry", "error", err, "item_id", e.InventoryItemID)
		return
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      av,
	})
	if err != nil {
		slog.Error("AUDIT: Failed to write entry", "error", err, "item_id", e.InventoryItemID, "action", e.Action)
	}
}

// NoopRecorder discards entries.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (NoopRecorder) Record(ctx context.Context, e Entry) {}
