package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"marketingops/internal/domain"
	"marketingops/pkg/metrics"
)

const (
	collectionLeads     = "leads"
	collectionCampaigns = "campaigns"
	collectionGroups    = "campaignGroups"
	collectionSettings  = "settings"

	settingsGoals           = "goals"
	settingsPlatformMetrics = "platformMetrics"
)

type putMode int

const (
	putUpsert putMode = iota
	putCreate
	putUpdate
)

// documentBackend stores opaque JSON documents keyed by collection and id.
// get, update and delete return domain.ErrNotFound for a missing id, create
// returns domain.ErrAlreadyExists for a taken one. list is ordered by id.
type documentBackend interface {
	name() string
	list(ctx context.Context, collection string) ([][]byte, error)
	get(ctx context.Context, collection, id string) ([]byte, error)
	put(ctx context.Context, collection, id string, data []byte, mode putMode) error
	delete(ctx context.Context, collection, id string) error
}

// DocumentCollection implements domain.Collection over any backend, encoding
// documents as JSON.
type DocumentCollection[T domain.Document] struct {
	collection string
	backend    documentBackend
	metrics    *metrics.Metrics
}

func newDocumentCollection[T domain.Document](collection string, backend documentBackend, m *metrics.Metrics) *DocumentCollection[T] {
	return &DocumentCollection[T]{collection: collection, backend: backend, metrics: m}
}

func (c *DocumentCollection[T]) List(ctx context.Context) ([]T, error) {
	start := time.Now()
	raw, err := c.backend.list(ctx, c.collection)
	c.record("list", err, start)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", c.collection, err)
	}

	out := make([]T, 0, len(raw))
	for _, data := range raw {
		var doc T
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decoding %s document: %w", c.collection, err)
		}
		out = append(out, doc)
	}
	return out, nil
}

func (c *DocumentCollection[T]) Get(ctx context.Context, id string) (T, error) {
	var doc T
	start := time.Now()
	data, err := c.backend.get(ctx, c.collection, id)
	c.record("get", err, start)
	if err != nil {
		return doc, fmt.Errorf("getting %s %q: %w", c.collection, id, err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("decoding %s %q: %w", c.collection, id, err)
	}
	return doc, nil
}

func (c *DocumentCollection[T]) Create(ctx context.Context, doc T) error {
	return c.put(ctx, doc, putCreate, "create")
}

// Update replaces the whole document; fields left out of doc are dropped.
func (c *DocumentCollection[T]) Update(ctx context.Context, doc T) error {
	return c.put(ctx, doc, putUpdate, "update")
}

func (c *DocumentCollection[T]) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := c.backend.delete(ctx, c.collection, id)
	c.record("delete", err, start)
	if err != nil {
		return fmt.Errorf("deleting %s %q: %w", c.collection, id, err)
	}
	return nil
}

func (c *DocumentCollection[T]) put(ctx context.Context, doc T, mode putMode, operation string) error {
	id := doc.DocumentID()
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: %s document has no id", domain.ErrValidation, c.collection)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding %s %q: %w", c.collection, id, err)
	}

	start := time.Now()
	err = c.backend.put(ctx, c.collection, id, data, mode)
	c.record(operation, err, start)
	if err != nil {
		return fmt.Errorf("%s %s %q: %w", operation, c.collection, id, err)
	}
	return nil
}

// record counts expected outcomes such as not found as successful operations.
func (c *DocumentCollection[T]) record(operation string, err error, start time.Time) {
	if c.metrics == nil {
		return
	}
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrAlreadyExists) {
		err = nil
	}
	c.metrics.RecordStoreOperation(c.backend.name(), c.collection, operation, err, time.Since(start))
}

// DocumentStore implements domain.Store. Goals and platform metrics are
// singleton documents in the settings collection.
type DocumentStore struct {
	backend   documentBackend
	metrics   *metrics.Metrics
	leads     *DocumentCollection[domain.Lead]
	campaigns *DocumentCollection[domain.Campaign]
	groups    *DocumentCollection[domain.CampaignGroup]
}

func newDocumentStore(backend documentBackend, m *metrics.Metrics) *DocumentStore {
	return &DocumentStore{
		backend:   backend,
		metrics:   m,
		leads:     newDocumentCollection[domain.Lead](collectionLeads, backend, m),
		campaigns: newDocumentCollection[domain.Campaign](collectionCampaigns, backend, m),
		groups:    newDocumentCollection[domain.CampaignGroup](collectionGroups, backend, m),
	}
}

func (s *DocumentStore) Leads() domain.Collection[domain.Lead] { return s.leads }

func (s *DocumentStore) Campaigns() domain.Collection[domain.Campaign] { return s.campaigns }

func (s *DocumentStore) CampaignGroups() domain.Collection[domain.CampaignGroup] { return s.groups }

func (s *DocumentStore) Backend() string { return s.backend.name() }

func (s *DocumentStore) LoadGoals(ctx context.Context) (*domain.GoalSettings, error) {
	var goals domain.GoalSettings
	if err := s.loadSetting(ctx, settingsGoals, &goals); err != nil {
		return nil, err
	}
	goals.Normalize()
	return &goals, nil
}

func (s *DocumentStore) SaveGoals(ctx context.Context, goals *domain.GoalSettings) error {
	return s.saveSetting(ctx, settingsGoals, goals)
}

// LoadPlatformMetrics returns an empty list when nothing was saved yet.
func (s *DocumentStore) LoadPlatformMetrics(ctx context.Context) ([]domain.PlatformMetrics, error) {
	var out []domain.PlatformMetrics
	err := s.loadSetting(ctx, settingsPlatformMetrics, &out)
	if errors.Is(err, domain.ErrNotFound) {
		return []domain.PlatformMetrics{}, nil
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *DocumentStore) SavePlatformMetrics(ctx context.Context, platforms []domain.PlatformMetrics) error {
	if platforms == nil {
		platforms = []domain.PlatformMetrics{}
	}
	return s.saveSetting(ctx, settingsPlatformMetrics, platforms)
}

func (s *DocumentStore) loadSetting(ctx context.Context, id string, into any) error {
	start := time.Now()
	data, err := s.backend.get(ctx, collectionSettings, id)
	s.record("get", err, start)
	if err != nil {
		return fmt.Errorf("loading %s: %w", id, err)
	}
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("decoding %s: %w", id, err)
	}
	return nil
}

func (s *DocumentStore) saveSetting(ctx context.Context, id string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", id, err)
	}
	start := time.Now()
	err = s.backend.put(ctx, collectionSettings, id, data, putUpsert)
	s.record("upsert", err, start)
	if err != nil {
		return fmt.Errorf("saving %s: %w", id, err)
	}
	return nil
}

func (s *DocumentStore) record(operation string, err error, start time.Time) {
	if s.metrics == nil {
		return
	}
	if errors.Is(err, domain.ErrNotFound) {
		err = nil
	}
	s.metrics.RecordStoreOperation(s.backend.name(), collectionSettings, operation, err, time.Since(start))
}
