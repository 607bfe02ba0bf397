package repository

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pkg/errors"

	"github.com/deppfellow/product-inventory/internal/model"
)

// DynamoAPI is the subset of the DynamoDB client the store calls.
// *dynamodb.Client satisfies it.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoStore keeps items in a DynamoDB table whose partition key is the
// string attribute productId.
type DynamoStore struct {
	client    DynamoAPI
	tableName string
	pageSize  int
}

// NewDynamoStore creates a store over an existing table.
func NewDynamoStore(client DynamoAPI, tableName string, pageSize int) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		pageSize:  pageSize,
	}
}

func (s *DynamoStore) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		model.IDField: &types.AttributeValueMemberS{Value: id},
	}
}

func (s *DynamoStore) Get(ctx context.Context, id string) (model.Item, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.key(id),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get product")
	}

	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}

	return unmarshalDynamoItem(out.Item)
}

func (s *DynamoStore) Put(ctx context.Context, item model.Item) error {
	av, err := attributevalue.MarshalMap(toDynamoValue(map[string]any(item)))
	if err != nil {
		return errors.Wrap(err, "failed to marshal product")
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return errors.Wrap(err, "failed to store product")
	}

	return nil
}

// Update sets one attribute. The attribute name is passed through an
// expression name placeholder so caller input never becomes expression
// syntax, and dots in the name are not treated as a document path.
func (s *DynamoStore) Update(ctx context.Context, id, key string, value any) (model.Item, error) {
	update := expression.Set(expression.NameNoDotSplit(key), expression.Value(toDynamoValue(value)))
	cond := expression.AttributeExists(expression.Name(model.IDField))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build update expression")
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       s.key(id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to update product")
	}

	return unmarshalDynamoItem(out.Attributes)
}

func (s *DynamoStore) Delete(ctx context.Context, id string) (model.Item, error) {
	out, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(s.tableName),
		Key:          s.key(id),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to delete product")
	}

	if len(out.Attributes) == 0 {
		return nil, nil
	}

	return unmarshalDynamoItem(out.Attributes)
}

// Scan reads one page of the table. The token is the encoded
// LastEvaluatedKey of the previous page.
func (s *DynamoStore) Scan(ctx context.Context, token string) (Page, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(s.tableName),
	}
	if s.pageSize > 0 {
		input.Limit = aws.Int32(int32(s.pageSize))
	}

	startKey, err := decodeDynamoKey(token)
	if err != nil {
		return Page{}, err
	}
	input.ExclusiveStartKey = startKey

	out, err := s.client.Scan(ctx, input)
	if err != nil {
		return Page{}, errors.Wrap(err, "failed to scan products")
	}

	page := Page{Items: make([]model.Item, 0, len(out.Items))}
	for _, raw := range out.Items {
		item, err := unmarshalDynamoItem(raw)
		if err != nil {
			return Page{}, err
		}
		page.Items = append(page.Items, item)
	}

	page.Next, err = encodeDynamoKey(out.LastEvaluatedKey)
	if err != nil {
		return Page{}, err
	}

	return page, nil
}

func encodeDynamoKey(key map[string]types.AttributeValue) (string, error) {
	if len(key) == 0 {
		return "", nil
	}

	var plain map[string]string
	if err := attributevalue.UnmarshalMap(key, &plain); err != nil {
		return "", errors.Wrap(err, "failed to unmarshal last evaluated key")
	}

	raw, err := json.Marshal(plain)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode last evaluated key")
	}

	return encodeToken(string(raw)), nil
}

func decodeDynamoKey(token string) (map[string]types.AttributeValue, error) {
	raw, err := decodeToken(token)
	if err != nil || raw == "" {
		return nil, err
	}

	var plain map[string]string
	if err := json.Unmarshal([]byte(raw), &plain); err != nil {
		return nil, errors.Wrap(err, "invalid continuation token")
	}

	key, err := attributevalue.MarshalMap(plain)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal exclusive start key")
	}
	return key, nil
}

func unmarshalDynamoItem(av map[string]types.AttributeValue) (model.Item, error) {
	var raw map[string]any
	err := attributevalue.UnmarshalMapWithOptions(av, &raw, func(o *attributevalue.DecoderOptions) {
		o.UseNumber = true
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal product")
	}

	item := make(model.Item, len(raw))
	for k, v := range raw {
		item[k] = fromDynamoValue(v)
	}
	return item, nil
}

// toDynamoValue swaps json.Number for attributevalue.Number so numbers are
// stored as N instead of S.
func toDynamoValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		return attributevalue.Number(t.String())
	case model.Item:
		return toDynamoValue(map[string]any(t))
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, inner := range t {
			m[k] = toDynamoValue(inner)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, inner := range t {
			s[i] = toDynamoValue(inner)
		}
		return s
	default:
		return v
	}
}

func fromDynamoValue(v any) any {
	switch t := v.(type) {
	case attributevalue.Number:
		return json.Number(t)
	case []attributevalue.Number:
		s := make([]any, len(t))
		for i, n := range t {
			s[i] = json.Number(n)
		}
		return s
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, inner := range t {
			m[k] = fromDynamoValue(inner)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, inner := range t {
			s[i] = fromDynamoValue(inner)
		}
		return s
	default:
		return v
	}
}
