package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"net/http"

	"medtracker"
	"medtracker/audit"
	"medtracker/inventory"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joeshaw/envdecode"
)

// handler routes API Gateway proxy events to the inventory store.
type handler struct {
	store     inventory.Store
	threshold int
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

	ddb := dynamodb.NewFromConfig(awsCfg)
	var auditor audit.Recorder = audit.NewNoopRecorder()
	if svcConfig.AuditTable != "" {
		auditor = audit.NewDynamoRecorder(ddb, svcConfig.AuditTable)
	}

	h := &handler{
		store:     inventory.NewDynamoStore(ddb, svcConfig.InventoryTable, auditor),
		threshold: svcConfig.LowStockThreshold,
	}
	slog.Info("SETUP: Inventory API initialized", "table", svcConfig.InventoryTable)

	lambda.Start(h.route)
}

func (h *handler) route(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	switch {
	case req.HTTPMethod == http.MethodGet && req.Path == "/inventory/low":
		return h.listLow(ctx)
	case req.HTTPMethod == http.MethodGet:
		return h.list(ctx, req)
	case req.HTTPMethod == http.MethodPost:
		return h.create(ctx, req)
	case req.HTTPMethod == http.MethodPut:
		return h.update(ctx, req)
	case req.HTTPMethod == http.MethodDelete:
		return h.delete(ctx, req)
	default:
		return respond(http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (h *handler) list(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if id := req.QueryStringParameters["id"]; id != "" {
		item, err := h.store.GetItem(ctx, id)
		if err != nil {
			return storeError(err)
		}
		return respond(http.StatusOK, map[string]any{"inventory": []inventory.Item{item}})
	}
	if sku := req.QueryStringParameters["sku"]; sku != "" {
		item, err := h.store.GetItemBySKU(ctx, sku)
		if err != nil {
			return storeError(err)
		}
		return respond(http.StatusOK, map[string]any{"inventory": []inventory.Item{item}})
	}

	items, err := h.store.ListItems(ctx)
	if err != nil {
		return storeError(err)
	}
	return respond(http.StatusOK, map[string]any{"inventory": items})
}

func (h *handler) listLow(ctx context.Context) (events.APIGatewayProxyResponse, error) {
	items, err := h.store.ListLowStock(ctx, h.threshold)
	if err != nil {
		return storeError(err)
	}
	return respond(http.StatusOK, items)
}

func (h *handler) create(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var in inventory.Item
	if err := json.Unmarshal([]byte(req.Body), &in); err != nil {
		return respond(http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
	}
	if in.ID == "" {
		in = inventory.NewItem(in.SKU, in.Name, in.Quantity, in.ExpirationDate, in.StorageLocation)
	}

	item, err := h.store.CreateItem(ctx, in)
	if err != nil {
		return respond(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return respond(http.StatusOK, map[string]any{
		"message": "Inventory item created successfully",
		"item":    item,
	})
}

func (h *handler) update(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	id := req.PathParameters["id"]
	if id == "" {
		return respond(http.StatusBadRequest, map[string]string{"error": "Missing item ID"})
	}

	var update inventory.ItemUpdate
	if err := json.Unmarshal([]byte(req.Body), &update); err != nil {
		return respond(http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
	}

	item, err := h.store.UpdateItem(ctx, id, update)
	if err != nil {
		return storeError(err)
	}
	return respond(http.StatusOK, map[string]any{
		"message": "Item updated successfully",
		"item":    item,
	})
}

func (h *handler) delete(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	id := req.PathParameters["id"]
	if id == "" {
		return respond(http.StatusBadRequest, map[string]string{"error": "Missing item ID"})
	}

	if err := h.store.DeleteItem(ctx, id); err != nil {
		return storeError(err)
	}
	return respond(http.StatusOK, map[string]string{"message": "Item deleted successfully"})
}

func storeError(err error) (events.APIGatewayProxyResponse, error) {
	if errors.Is(err, inventory.ErrItemNotFound) {
		return respond(http.StatusNotFound, map[string]string{"error": "Item not found"})
	}
	return respond(http.StatusInternalServerError, map[string]string{"error": err.Error()})
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
