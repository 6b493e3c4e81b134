package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"medtracker/audit"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// skuIndexName is the GSI used to resolve items by SKU.
const skuIndexName = "sku-index"

type dynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoStore implements Store on a DynamoDB table keyed by id, with a
// sku-index GSI. Quantity replacement is per-item atomic (last-write-wins).
type DynamoStore struct {
	client  dynamoAPI
	table   string
	auditor audit.Recorder
}

// NewDynamoStore creates a store for the given table. The auditor may be nil.
func NewDynamoStore(client dynamoAPI, table string, auditor audit.Recorder) *DynamoStore {
	if auditor == nil {
		auditor = audit.NewNoopRecorder()
	}
	return &DynamoStore{client: client, table: table, auditor: auditor}
}

func (s *DynamoStore) GetItem(ctx context.Context, id string) (Item, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       idKey(id),
	})
	if err != nil {
		return Item{}, fmt.Errorf("failed to get item %s: %w", id, err)
	}
	if out.Item == nil {
		return Item{}, ErrItemNotFound
	}

	var item Item
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return Item{}, fmt.Errorf("failed to unmarshal item %s: %w", id, err)
	}
	return item, nil
}

func (s *DynamoStore) GetItemBySKU(ctx context.Context, sku string) (Item, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		IndexName:              aws.String(skuIndexName),
		KeyConditionExpression: aws.String("sku = :sku"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sku": &types.AttributeValueMemberS{Value: sku},
		},
	})
	if err != nil {
		return Item{}, fmt.Errorf("failed to query sku %s: %w", sku, err)
	}
	if len(out.Items) == 0 {
		return Item{}, ErrItemNotFound
	}

	var item Item
	if err := attributevalue.UnmarshalMap(out.Items[0], &item); err != nil {
		return Item{}, fmt.Errorf("failed to unmarshal item for sku %s: %w", sku, err)
	}
	return item, nil
}

func (s *DynamoStore) ListItems(ctx context.Context) ([]Item, error) {
	out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.table),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan inventory: %w", err)
	}

	items := make([]Item, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal inventory: %w", err)
	}
	return items, nil
}

func (s *DynamoStore) ListLowStock(ctx context.Context, threshold int) ([]Item, error) {
	out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(s.table),
		FilterExpression: aws.String("quantity < :threshold"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":threshold": &types.AttributeValueMemberN{Value: strconv.Itoa(threshold)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan for low stock: %w", err)
	}

	items := make([]Item, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal low stock items: %w", err)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Quantity < items[j].Quantity })
	return items, nil
}

func (s *DynamoStore) CreateItem(ctx context.Context, item Item) (Item, error) {
	if err := item.Validate(); err != nil {
		return Item{}, fmt.Errorf("invalid item: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)

	// Same SKU means restock, not duplicate record.
	existing, err := s.GetItemBySKU(ctx, item.SKU)
	switch {
	case err == nil:
		updated, uerr := s.UpdateItem(ctx, existing.ID, restockUpdate(existing, item))
		if uerr != nil {
			return Item{}, uerr
		}
		s.auditor.Record(ctx, audit.Entry{
			Action:          audit.ActionRestock,
			InventoryItemID: updated.ID,
			SKU:             updated.SKU,
			ItemName:        updated.Name,
			Category:        updated.Category,
			QuantityBefore:  existing.Quantity,
			QuantityAfter:   updated.Quantity,
			StorageLocation: updated.StorageLocation,
			ExpirationDate:  updated.ExpirationDate,
		})
		return updated, nil

	case errors.Is(err, ErrItemNotFound):
		item.CreatedAt = now
		item.UpdatedAt = now
		av, merr := attributevalue.MarshalMap(item)
		if merr != nil {
			return Item{}, fmt.Errorf("failed to marshal item: %w", merr)
		}
		if _, perr := s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(s.table),
			Item:      av,
		}); perr != nil {
			return Item{}, fmt.Errorf("failed to put item: %w", perr)
		}
		slog.Info("STORE: Created inventory item", "id", item.ID, "sku", item.SKU)
		s.auditor.Record(ctx, audit.Entry{
			Action:          audit.ActionCreate,
			InventoryItemID: item.ID,
			SKU:             item.SKU,
			ItemName:        item.Name,
			Category:        item.Category,
			QuantityBefore:  0,
			QuantityAfter:   item.Quantity,
			StorageLocation: item.StorageLocation,
			ExpirationDate:  item.ExpirationDate,
		})
		return item, nil

	default:
		return Item{}, err
	}
}

func (s *DynamoStore) UpdateQuantity(ctx context.Context, id string, quantity int) (Item, error) {
	before, err := s.GetItem(ctx, id)
	if err != nil {
		return Item{}, err
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.table),
		Key:              idKey(id),
		UpdateExpression: aws.String("SET #q = :quantity, updated_at = :updated_at"),
		ExpressionAttributeNames: map[string]string{
			"#q": "quantity",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":quantity":   &types.AttributeValueMemberN{Value: strconv.Itoa(quantity)},
			":updated_at": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
		ConditionExpression: aws.String("attribute_exists(id)"),
		ReturnValues:        types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return Item{}, ErrItemNotFound
		}
		return Item{}, fmt.Errorf("failed to update quantity for %s: %w", id, err)
	}

	var item Item
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return Item{}, fmt.Errorf("failed to unmarshal updated item %s: %w", id, err)
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:          audit.ActionUpdate,
		InventoryItemID: item.ID,
		SKU:             item.SKU,
		ItemName:        item.Name,
		Category:        item.Category,
		QuantityBefore:  before.Quantity,
		QuantityAfter:   item.Quantity,
		StorageLocation: item.StorageLocation,
		ExpirationDate:  item.ExpirationDate,
	})
	return item, nil
}

func (s *DynamoStore) UpdateItem(ctx context.Context, id string, update ItemUpdate) (Item, error) {
	exprs := []string{"updated_at = :updated_at"}
	values := map[string]types.AttributeValue{
		":updated_at": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
	}
	names := map[string]string{}

	if update.Quantity != nil {
		exprs = append(exprs, "#q = :quantity")
		names["#q"] = "quantity"
		values[":quantity"] = &types.AttributeValueMemberN{Value: strconv.Itoa(*update.Quantity)}
	}
	if update.Name != nil {
		exprs = append(exprs, "item_name = :item_name")
		values[":item_name"] = &types.AttributeValueMemberS{Value: strings.TrimSpace(*update.Name)}
	}
	if update.StorageLocation != nil {
		exprs = append(exprs, "storage_location = :storage_location")
		values[":storage_location"] = &types.AttributeValueMemberS{Value: strings.TrimSpace(*update.StorageLocation)}
	}
	if update.ExpirationDate != nil {
		exprs = append(exprs, "expiration_date = :expiration_date")
		values[":expiration_date"] = &types.AttributeValueMemberS{Value: *update.ExpirationDate}
	}
	if update.Category != nil {
		exprs = append(exprs, "category = :category")
		values[":category"] = &types.AttributeValueMemberS{Value: strings.TrimSpace(*update.Category)}
	}

	in := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       idKey(id),
		UpdateExpression:          aws.String("SET " + strings.Join(exprs, ", ")),
		ExpressionAttributeValues: values,
		ConditionExpression:       aws.String("attribute_exists(id)"),
		ReturnValues:              types.ReturnValueAllNew,
	}
	if len(names) > 0 {
		in.ExpressionAttributeNames = names
	}

	out, err := s.client.UpdateItem(ctx, in)
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return Item{}, ErrItemNotFound
		}
		return Item{}, fmt.Errorf("failed to update item %s: %w", id, err)
	}

	var item Item
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return Item{}, fmt.Errorf("failed to unmarshal updated item %s: %w", id, err)
	}
	return item, nil
}

func (s *DynamoStore) DeleteItem(ctx context.Context, id string) error {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return err
	}

	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       idKey(id),
	}); err != nil {
		return fmt.Errorf("failed to delete item %s: %w", id, err)
	}

	slog.Info("STORE: Deleted inventory item", "id", id, "sku", item.SKU)
	s.auditor.Record(ctx, audit.Entry{
		Action:          audit.ActionDelete,
		InventoryItemID: item.ID,
		SKU:             item.SKU,
		ItemName:        item.Name,
		Category:        item.Category,
		QuantityBefore:  item.Quantity,
		QuantityAfter:   0,
		StorageLocation: item.StorageLocation,
		ExpirationDate:  item.ExpirationDate,
	})
	return nil
}

func idKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

// restockUpdate merges an incoming create for an existing SKU: quantities add,
// optional fields refresh only when provided.
func restockUpdate(existing, incoming Item) ItemUpdate {
	qty := existing.Quantity + incoming.Quantity
	u := ItemUpdate{Quantity: &qty}
	if incoming.StorageLocation != "" {
		u.StorageLocation = &incoming.StorageLocation
	}
	if incoming.ExpirationDate != "" {
		u.ExpirationDate = &incoming.ExpirationDate
	}
	if incoming.Category != "" {
		u.Category = &incoming.Category
	}
	return u
}
