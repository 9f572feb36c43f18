package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/kohonen/store"
)

// Client is the subset of the DynamoDB API used by ConfigRepository.
// *dynamodb.Client implements it.
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

var _ Client = (*dynamodb.Client)(nil)

const (
	configPrefix = "config#"
	counterKey   = "counter#configs"
)

// ConfigRepository implements store.ConfigRepository on DynamoDB.
type ConfigRepository struct {
	client Client
	table  string
	now    func() time.Time
}

var _ store.ConfigRepository = (*ConfigRepository)(nil)

// NewConfigRepository creates a repository over table.
func NewConfigRepository(client Client, table string) *ConfigRepository {
	return &ConfigRepository{
		client: client,
		table:  table,
		now:    time.Now,
	}
}

func configKey(id uint32) string {
	return configPrefix + strconv.FormatUint(uint64(id), 10)
}

func pk(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: key},
	}
}

// nextID atomically increments the counter item and returns the new value.
func (r *ConfigRepository) nextID(ctx context.Context) (uint32, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.table),
		Key:              pk(counterKey),
		UpdateExpression: aws.String("ADD next_id :one"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("allocate config id: %w", err)
	}

	n, ok := out.Attributes["next_id"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("%w: counter item without next_id", store.ErrCorrupt)
	}
	id, err := strconv.ParseUint(n.Value, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: counter %q: %w", store.ErrCorrupt, n.Value, err)
	}
	return uint32(id), nil
}

// CreateConfig implements store.ConfigRepository.
func (r *ConfigRepository) CreateConfig(ctx context.Context, cfg store.Config) (store.Config, error) {
	id, err := r.nextID(ctx)
	if err != nil {
		return store.Config{}, err
	}
	cfg.ID = id
	cfg.CreatedAt = r.now().UTC()

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                marshalConfig(cfg),
		ConditionExpression: aws.String("attribute_not_exists(pk)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return store.Config{}, fmt.Errorf("%w: config %d exists", store.ErrConflict, id)
		}
		return store.Config{}, err
	}
	return cfg, nil
}

// GetConfig implements store.ConfigRepository.
func (r *ConfigRepository) GetConfig(ctx context.Context, id uint32) (store.Config, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            pk(configKey(id)),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return store.Config{}, err
	}
	if len(out.Item) == 0 {
		return store.Config{}, store.ErrNotFound
	}
	return unmarshalConfig(out.Item)
}

// UpdateConfig implements store.ConfigRepository.
func (r *ConfigRepository) UpdateConfig(ctx context.Context, cfg store.Config) (store.Config, error) {
	cur, err := r.GetConfig(ctx, cfg.ID)
	if err != nil {
		return store.Config{}, err
	}
	cfg.CreatedAt = cur.CreatedAt

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                marshalConfig(cfg),
		ConditionExpression: aws.String("attribute_exists(pk)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return store.Config{}, store.ErrNotFound
		}
		return store.Config{}, err
	}
	return cfg, nil
}

// ListConfigs implements store.ConfigRepository.
func (r *ConfigRepository) ListConfigs(ctx context.Context) ([]store.Config, error) {
	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:        aws.String(r.table),
		FilterExpression: aws.String("begins_with(pk, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":prefix": &types.AttributeValueMemberS{Value: configPrefix},
		},
		ConsistentRead: aws.Bool(true),
	})

	var cfgs []store.Config
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			cfg, err := unmarshalConfig(item)
			if err != nil {
				return nil, err
			}
			cfgs = append(cfgs, cfg)
		}
	}

	sort.Slice(cfgs, func(i, j int) bool { return cfgs[i].ID < cfgs[j].ID })
	return cfgs, nil
}

// DeleteConfig implements store.ConfigRepository.
func (r *ConfigRepository) DeleteConfig(ctx context.Context, id uint32) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.table),
		Key:                 pk(configKey(id)),
		ConditionExpression: aws.String("attribute_exists(pk)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return store.ErrNotFound
		}
		return err
	}
	return nil
}

func marshalConfig(cfg store.Config) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk":               &types.AttributeValueMemberS{Value: configKey(cfg.ID)},
		"id":               &types.AttributeValueMemberN{Value: strconv.FormatUint(uint64(cfg.ID), 10)},
		"neurons":          &types.AttributeValueMemberN{Value: strconv.Itoa(cfg.Neurons)},
		"competition_type": &types.AttributeValueMemberS{Value: cfg.CompetitionType},
		"iterations":       &types.AttributeValueMemberN{Value: strconv.Itoa(cfg.Iterations)},
		"created_at":       &types.AttributeValueMemberS{Value: cfg.CreatedAt.Format(time.RFC3339Nano)},
	}
}

func unmarshalConfig(item map[string]types.AttributeValue) (store.Config, error) {
	var (
		cfg  store.Config
		errs []string
	)

	number := func(name string) int64 {
		v, ok := item[name].(*types.AttributeValueMemberN)
		if !ok {
			errs = append(errs, name+": missing")
			return 0
		}
		n, err := strconv.ParseInt(v.Value, 10, 64)
		if err != nil {
			errs = append(errs, name+": "+err.Error())
		}
		return n
	}

	cfg.ID = uint32(number("id"))
	cfg.Neurons = int(number("neurons"))
	cfg.Iterations = int(number("iterations"))

	if v, ok := item["competition_type"].(*types.AttributeValueMemberS); ok {
		cfg.CompetitionType = v.Value
	}
	if v, ok := item["created_at"].(*types.AttributeValueMemberS); ok {
		ts, err := time.Parse(time.RFC3339Nano, v.Value)
		if err != nil {
			errs = append(errs, "created_at: "+err.Error())
		}
		cfg.CreatedAt = ts
	}

	if len(errs) > 0 {
		return store.Config{}, fmt.Errorf("%w: config item: %s", store.ErrCorrupt, strings.Join(errs, ", "))
	}
	return cfg, nil
}
