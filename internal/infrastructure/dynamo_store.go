package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketingops/internal/domain"
	"marketingops/pkg/logger"
	"marketingops/pkg/metrics"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the part of *dynamodb.Client the store uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// dynamoItem is one document in the single table: PK is the collection,
// SK the document id and Data the JSON body.
type dynamoItem struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	Data      string `dynamodbav:"Data"`
	Timestamp string `dynamodbav:"Timestamp"`
}

// NewDynamoClient loads the default AWS chain for region, optionally pinned
// to a shared config profile.
func NewDynamoClient(ctx context.Context, region, profile string) (*dynamodb.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg), nil
}

type dynamoBackend struct {
	client    DynamoAPI
	tableName string
	logger    *logger.Logger
}

func NewDynamoStore(client DynamoAPI, tableName string, logger *logger.Logger, m *metrics.Metrics) *DocumentStore {
	return newDocumentStore(&dynamoBackend{client: client, tableName: tableName, logger: logger}, m)
}

func (b *dynamoBackend) name() string { return "dynamodb" }

func (b *dynamoBackend) key(collection, id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: collection},
		"SK": &types.AttributeValueMemberS{Value: id},
	}
}

func (b *dynamoBackend) list(ctx context.Context, collection string) ([][]byte, error) {
	paginator := dynamodb.NewQueryPaginator(b.client, &dynamodb.QueryInput{
		TableName:              aws.String(b.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: collection},
		},
		ConsistentRead: aws.Bool(true),
	})

	var out [][]byte
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("querying DynamoDB: %w", err)
		}
		for _, raw := range page.Items {
			var item dynamoItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("unmarshaling item: %w", err)
			}
			out = append(out, []byte(item.Data))
		}
	}
	return out, nil
}

func (b *dynamoBackend) get(ctx context.Context, collection, id string) ([]byte, error) {
	result, err := b.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(b.tableName),
		Key:            b.key(collection, id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("getting item from DynamoDB: %w", err)
	}
	if len(result.Item) == 0 {
		return nil, domain.ErrNotFound
	}

	var item dynamoItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshaling item: %w", err)
	}
	return []byte(item.Data), nil
}

func (b *dynamoBackend) put(ctx context.Context, collection, id string, data []byte, mode putMode) error {
	av, err := attributevalue.MarshalMap(dynamoItem{
		PK:        collection,
		SK:        id,
		Data:      string(data),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshaling item: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(b.tableName),
		Item:      av,
	}
	switch mode {
	case putCreate:
		input.ConditionExpression = aws.String("attribute_not_exists(PK)")
	case putUpdate:
		input.ConditionExpression = aws.String("attribute_exists(PK)")
	}

	if _, err := b.client.PutItem(ctx, input); err != nil {
		if isConditionFailed(err) {
			if mode == putCreate {
				return domain.ErrAlreadyExists
			}
			return domain.ErrNotFound
		}
		return fmt.Errorf("putting item to DynamoDB: %w", err)
	}

	b.logger.WithContext(ctx).WithFields(map[string]any{
		"collection": collection,
		"id":         id,
		"table":      b.tableName,
	}).Debug("Stored document in DynamoDB")
	return nil
}

func (b *dynamoBackend) delete(ctx context.Context, collection, id string) error {
	_, err := b.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(b.tableName),
		Key:                 b.key(collection, id),
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if isConditionFailed(err) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting item from DynamoDB: %w", err)
	}
	return nil
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
