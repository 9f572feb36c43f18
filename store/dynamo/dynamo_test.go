package dynamo

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/kohonen/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDDBClient is an in-memory DynamoDB keyed by pk.
type mockDDBClient struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
}

func newMockDDBClient() *mockDDBClient {
	return &mockDDBClient{items: make(map[string]map[string]types.AttributeValue)}
}

func keyOf(m map[string]types.AttributeValue) string {
	return m["pk"].(*types.AttributeValueMemberS).Value
}

func conditionFailed() error {
	return &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
}

func (m *mockDDBClient) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := keyOf(params.Item)
	_, exists := m.items[key]
	switch aws.ToString(params.ConditionExpression) {
	case "attribute_not_exists(pk)":
		if exists {
			return nil, conditionFailed()
		}
	case "attribute_exists(pk)":
		if !exists {
			return nil, conditionFailed()
		}
	}
	m.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDDBClient) GetItem(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: m.items[keyOf(params.Key)]}, nil
}

func (m *mockDDBClient) DeleteItem(_ context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := keyOf(params.Key)
	if aws.ToString(params.ConditionExpression) == "attribute_exists(pk)" {
		if _, ok := m.items[key]; !ok {
			return nil, conditionFailed()
		}
	}
	delete(m.items, key)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (m *mockDDBClient) UpdateItem(_ context.Context, params *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := keyOf(params.Key)
	item, ok := m.items[key]
	if !ok {
		item = map[string]types.AttributeValue{"pk": &types.AttributeValueMemberS{Value: key}}
	}

	var n int64
	if v, ok := item["next_id"].(*types.AttributeValueMemberN); ok {
		n, _ = strconv.ParseInt(v.Value, 10, 64)
	}
	n++
	next := &types.AttributeValueMemberN{Value: strconv.FormatInt(n, 10)}
	item["next_id"] = next
	m.items[key] = item

	return &dynamodb.UpdateItemOutput{
		Attributes: map[string]types.AttributeValue{"next_id": next},
	}, nil
}

func (m *mockDDBClient) Scan(_ context.Context, params *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := params.ExpressionAttributeValues[":prefix"].(*types.AttributeValueMemberS).Value

	var items []map[string]types.AttributeValue
	for key, item := range m.items {
		if strings.HasPrefix(key, prefix) {
			items = append(items, item)
		}
	}
	return &dynamodb.ScanOutput{Items: items}, nil
}

func newTestRepository() (*ConfigRepository, *mockDDBClient) {
	client := newMockDDBClient()
	repo := NewConfigRepository(client, "kohonen-configs")
	repo.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return repo, client
}

func TestConfigRepository(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository()

	a, err := repo.CreateConfig(ctx, store.Config{Neurons: 100, CompetitionType: "soft", Iterations: 10})
	require.NoError(t, err)
	b, err := repo.CreateConfig(ctx, store.Config{Neurons: 64, CompetitionType: "bubble", Iterations: 3})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), a.ID)
	assert.Equal(t, uint32(2), b.ID)

	got, err := repo.GetConfig(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	list, err := repo.ListConfigs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []store.Config{a, b}, list)

	b.CompetitionType = "hard"
	updated, err := repo.UpdateConfig(ctx, store.Config{ID: b.ID, Neurons: 64, CompetitionType: "hard", Iterations: 3})
	require.NoError(t, err)
	assert.Equal(t, b, updated)

	_, err = repo.UpdateConfig(ctx, store.Config{ID: 42})
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, repo.DeleteConfig(ctx, a.ID))
	_, err = repo.GetConfig(ctx, a.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteConfig(ctx, a.ID), store.ErrNotFound)

	c, err := repo.CreateConfig(ctx, store.Config{Neurons: 4, Iterations: 1})
	require.NoError(t, err)
	assert.Equal(t, uint32(3), c.ID)
}

func TestConfigRepository_Conflict(t *testing.T) {
	ctx := context.Background()
	repo, client := newTestRepository()

	// An item written outside the counter collides with the next id.
	client.items[configKey(1)] = marshalConfig(store.Config{ID: 1})

	_, err := repo.CreateConfig(ctx, store.Config{Neurons: 4, Iterations: 1})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestConfigRepository_CorruptItem(t *testing.T) {
	ctx := context.Background()
	repo, client := newTestRepository()

	client.items[configKey(7)] = map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: configKey(7)},
		"id": &types.AttributeValueMemberN{Value: "x"},
	}

	_, err := repo.GetConfig(ctx, 7)
	assert.ErrorIs(t, err, store.ErrCorrupt)
}

func TestConfigRepository_WithStore(t *testing.T) {
	repo, _ := newTestRepository()
	s := store.New(nil, store.WithConfigRepository(repo))
	assert.Same(t, repo, s.Configs())
}
