package infrastructure

import (
	"context"
	"sort"
	"sync"
	"testing"

	"marketingops/internal/domain"
	"marketingops/pkg/logger"
	"marketingops/pkg/metrics"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamo is an in-process table honoring the two condition expressions
// the store sends.
type fakeDynamo struct {
	mu    sync.Mutex
	items map[string]map[string]map[string]types.AttributeValue
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]map[string]types.AttributeValue)}
}

func attrS(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func (f *fakeDynamo) exists(pk, sk string) bool {
	_, ok := f.items[pk][sk]
	return ok
}

func checkCondition(expr *string, exists bool) error {
	if expr == nil {
		return nil
	}
	switch *expr {
	case "attribute_not_exists(PK)":
		if exists {
			return &types.ConditionalCheckFailedException{Message: aws.String("item exists")}
		}
	case "attribute_exists(PK)":
		if !exists {
			return &types.ConditionalCheckFailedException{Message: aws.String("item missing")}
		}
	}
	return nil
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.items[attrS(in.Key, "PK")][attrS(in.Key, "SK")]}, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pk, sk := attrS(in.Item, "PK"), attrS(in.Item, "SK")
	if err := checkCondition(in.ConditionExpression, f.exists(pk, sk)); err != nil {
		return nil, err
	}
	if f.items[pk] == nil {
		f.items[pk] = make(map[string]map[string]types.AttributeValue)
	}
	f.items[pk][sk] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pk, sk := attrS(in.Key, "PK"), attrS(in.Key, "SK")
	if err := checkCondition(in.ConditionExpression, f.exists(pk, sk)); err != nil {
		return nil, err
	}
	delete(f.items[pk], sk)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pk := attrS(in.ExpressionAttributeValues, ":pk")
	keys := make([]string, 0, len(f.items[pk]))
	for sk := range f.items[pk] {
		keys = append(keys, sk)
	}
	sort.Strings(keys)

	out := &dynamodb.QueryOutput{}
	for _, sk := range keys {
		out.Items = append(out.Items, f.items[pk][sk])
	}
	return out, nil
}

type storeFactory struct {
	name string
	open func(t *testing.T, m *metrics.Metrics) *DocumentStore
}

func storeFactories() []storeFactory {
	return []storeFactory{
		{"memory", func(t *testing.T, m *metrics.Metrics) *DocumentStore {
			return NewMemoryStore(logger.Discard(), m)
		}},
		{"sqlite", func(t *testing.T, m *metrics.Metrics) *DocumentStore {
			db, err := OpenSQLite(":memory:")
			require.NoError(t, err)
			t.Cleanup(func() { db.Close() })
			return NewSQLiteStore(db, logger.Discard(), m)
		}},
		{"dynamodb", func(t *testing.T, m *metrics.Metrics) *DocumentStore {
			return NewDynamoStore(newFakeDynamo(), "marketingops-test", logger.Discard(), m)
		}},
	}
}

func TestDocumentStore_CollectionLifecycle(t *testing.T) {
	for _, f := range storeFactories() {
		t.Run(f.name, func(t *testing.T) {
			ctx := context.Background()
			store := f.open(t, metrics.NewIsolated())
			assert.Equal(t, f.name, store.Backend())

			groups := store.CampaignGroups()
			require.NoError(t, groups.Create(ctx, domain.CampaignGroup{ID: "b", Name: "Brand", Channel: domain.ChannelGoogleAds}))
			require.NoError(t, groups.Create(ctx, domain.CampaignGroup{ID: "a", Name: "Always on", Channel: domain.ChannelMetaAds}))

			err := groups.Create(ctx, domain.CampaignGroup{ID: "a", Name: "dup", Channel: domain.ChannelMetaAds})
			assert.ErrorIs(t, err, domain.ErrAlreadyExists)

			list, err := groups.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "a", list[0].ID)
			assert.Equal(t, "b", list[1].ID)

			got, err := groups.Get(ctx, "b")
			require.NoError(t, err)
			assert.Equal(t, "Brand", got.Name)

			got.Name = "Brand search"
			got.Order = 3
			require.NoError(t, groups.Update(ctx, got))
			got, err = groups.Get(ctx, "b")
			require.NoError(t, err)
			assert.Equal(t, "Brand search", got.Name)
			assert.Equal(t, 3, got.Order)

			err = groups.Update(ctx, domain.CampaignGroup{ID: "zzz", Name: "ghost"})
			assert.ErrorIs(t, err, domain.ErrNotFound)

			require.NoError(t, groups.Delete(ctx, "a"))
			assert.ErrorIs(t, groups.Delete(ctx, "a"), domain.ErrNotFound)

			_, err = groups.Get(ctx, "a")
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestDocumentStore_UpdateDropsOmittedFields(t *testing.T) {
	for _, f := range storeFactories() {
		t.Run(f.name, func(t *testing.T) {
			ctx := context.Background()
			leads := f.open(t, metrics.NewIsolated()).Leads()

			value := 9000.0
			require.NoError(t, leads.Create(ctx, domain.Lead{
				ID: "l1", Name: "Ana", Company: "Acme", Stage: domain.StageOpportunity,
				DealValue: &value, DateAdded: domain.NewDate(2024, 5, 1),
			}))
			require.NoError(t, leads.Update(ctx, domain.Lead{
				ID: "l1", Name: "Ana", Stage: domain.StageLead, DateAdded: domain.NewDate(2024, 5, 1),
			}))

			got, err := leads.Get(ctx, "l1")
			require.NoError(t, err)
			assert.Empty(t, got.Company)
			assert.Nil(t, got.DealValue)
			assert.Equal(t, domain.NewDate(2024, 5, 1), got.DateAdded)
		})
	}
}

func TestDocumentStore_Singletons(t *testing.T) {
	for _, f := range storeFactories() {
		t.Run(f.name, func(t *testing.T) {
			ctx := context.Background()
			store := f.open(t, metrics.NewIsolated())

			_, err := store.LoadGoals(ctx)
			assert.ErrorIs(t, err, domain.ErrNotFound)

			goals := domain.DefaultGoalSettings()
			goals.Funnel[domain.StageLead] = 120
			goals.Calculator.TargetRevenue = 50000
			require.NoError(t, store.SaveGoals(ctx, goals))

			loaded, err := store.LoadGoals(ctx)
			require.NoError(t, err)
			assert.Equal(t, 120.0, loaded.Funnel[domain.StageLead])
			assert.Equal(t, 50000.0, loaded.Calculator.TargetRevenue)

			platforms, err := store.LoadPlatformMetrics(ctx)
			require.NoError(t, err)
			assert.Empty(t, platforms)

			require.NoError(t, store.SavePlatformMetrics(ctx, []domain.PlatformMetrics{{
				Platform: "LinkedIn",
				Series:   []domain.MetricSeries{{Name: "Followers", Source: domain.SourceManual, Points: []domain.SeriesPoint{{Month: "Jan", Value: "1,200"}}}},
			}}))
			platforms, err = store.LoadPlatformMetrics(ctx)
			require.NoError(t, err)
			require.Len(t, platforms, 1)
			assert.Equal(t, "1,200", platforms[0].Series[0].Points[0].Value)
		})
	}
}

func TestDocumentCollection_RejectsMissingID(t *testing.T) {
	store := NewMemoryStore(logger.Discard(), metrics.NewIsolated())
	err := store.Campaigns().Create(context.Background(), domain.Campaign{Name: "no id"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDocumentCollection_RecordsOperations(t *testing.T) {
	m := metrics.NewIsolated()
	store := NewMemoryStore(logger.Discard(), m)
	ctx := context.Background()

	require.NoError(t, store.CampaignGroups().Create(ctx, domain.CampaignGroup{ID: "g", Name: "G", Channel: domain.ChannelWebsite}))
	_, err := store.CampaignGroups().Get(ctx, "missing")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues("memory", collectionGroups, "create", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues("memory", collectionGroups, "get", "success")))
}
