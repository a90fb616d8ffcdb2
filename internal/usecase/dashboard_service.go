package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"marketingops/internal/aggregation"
	"marketingops/internal/domain"
	"marketingops/pkg/logger"
	"marketingops/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

// DashboardService computes rollups from a store snapshot, caching the result
// per window until the next write.
type DashboardService struct {
	store        domain.Store
	cache        domain.RollupCache
	exportClient domain.ExportClient
	logger       *logger.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewDashboardService(
	store domain.Store,
	cache domain.RollupCache,
	exportClient domain.ExportClient,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *DashboardService {
	return &DashboardService{
		store:        store,
		cache:        cache,
		exportClient: exportClient,
		logger:       logger,
		metrics:      metrics,
		now:          time.Now,
	}
}

// Snapshot reads every collection concurrently. Goals are nil until saved.
func (s *DashboardService) Snapshot(ctx context.Context) (aggregation.Snapshot, error) {
	var snap aggregation.Snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		leads, err := s.store.Leads().List(gctx)
		if err != nil {
			return fmt.Errorf("loading leads: %w", err)
		}
		snap.Leads = leads
		return nil
	})
	g.Go(func() error {
		campaigns, err := s.store.Campaigns().List(gctx)
		if err != nil {
			return fmt.Errorf("loading campaigns: %w", err)
		}
		snap.Campaigns = campaigns
		return nil
	})
	g.Go(func() error {
		groups, err := s.store.CampaignGroups().List(gctx)
		if err != nil {
			return fmt.Errorf("loading campaign groups: %w", err)
		}
		sortGroups(groups)
		snap.Groups = groups
		return nil
	})
	g.Go(func() error {
		goals, err := s.store.LoadGoals(gctx)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("loading goals: %w", err)
		}
		snap.Goals = goals
		return nil
	})

	if err := g.Wait(); err != nil {
		return aggregation.Snapshot{}, err
	}
	return snap, nil
}

// Dashboard returns every rollup for w, from the cache when possible.
func (s *DashboardService) Dashboard(ctx context.Context, w domain.Window) (*aggregation.Dashboard, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	log := s.logger.WithContext(ctx).WithField("window", w.Key())
	key := "dashboard:" + w.Key()

	// generation is the cache generation seen before the snapshot read;
	// -1 skips the write when it is unknown.
	generation := int64(-1)
	if s.cache != nil {
		data, gen, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.metrics.RecordCacheLookup("error")
			log.WithError(err).Warn("Rollup cache read failed")
		case ok:
			var cached aggregation.Dashboard
			if err := json.Unmarshal(data, &cached); err == nil {
				s.metrics.RecordCacheLookup("hit")
				return &cached, nil
			}
			s.metrics.RecordCacheLookup("error")
			generation = gen
		default:
			s.metrics.RecordCacheLookup("miss")
			generation = gen
		}
	}

	start := time.Now()
	snap, err := s.Snapshot(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to load snapshot")
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	dashboard := aggregation.BuildDashboard(snap, w)
	s.recordRollups(&dashboard)
	s.metrics.ObserveRollupDuration("dashboard", time.Since(start))

	if s.cache != nil && generation >= 0 {
		if data, err := json.Marshal(dashboard); err == nil {
			if err := s.cache.Set(ctx, key, generation, data); err != nil {
				log.WithError(err).Warn("Rollup cache write failed")
			}
		}
	}

	log.WithFields(map[string]any{
		"leads":    len(snap.Leads),
		"groups":   len(snap.Groups),
		"duration": time.Since(start),
	}).Debug("Computed dashboard")
	return &dashboard, nil
}

func (s *DashboardService) recordRollups(d *aggregation.Dashboard) {
	for _, rollup := range []string{"summary", "funnel", "channels", "groups"} {
		s.metrics.RecordRollup(rollup)
	}
	if d.Plan != nil {
		s.metrics.RecordRollup("goals")
		s.metrics.RecordRollup("plan")
	}
	if d.Expenses != nil {
		s.metrics.RecordRollup("expenses")
	}
}

// Groups returns the campaign-group table sorted by key and direction.
func (s *DashboardService) Groups(ctx context.Context, w domain.Window, key aggregation.GroupSortKey, dir aggregation.SortDirection) ([]aggregation.GroupRow, error) {
	d, err := s.Dashboard(ctx, w)
	if err != nil {
		return nil, err
	}
	return aggregation.SortGroupRows(d.Groups, key, dir), nil
}

// Expenses needs a bounded window; goals default when never saved.
func (s *DashboardService) Expenses(ctx context.Context, w domain.Window) (*aggregation.ExpensePeriod, error) {
	if !w.Bounded() {
		return nil, fmt.Errorf("%w: expenses need both from and to", domain.ErrValidation)
	}
	d, err := s.Dashboard(ctx, w)
	if err != nil {
		return nil, err
	}
	if d.Expenses != nil {
		return d.Expenses, nil
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	goals := domain.DefaultGoalSettings()
	period := aggregation.ExpenseBreakdown(aggregation.ExpenseInput{
		Salaries:     goals.Expenses.Salaries,
		Tools:        goals.Expenses.Tools,
		Variable:     goals.Expenses.Variable,
		Campaigns:    snap.Campaigns,
		PaidGroupIDs: aggregation.PaidGroupIDs(snap.Groups),
		Window:       w,
	})
	return &period, nil
}

// ExportResult describes a completed export.
type ExportResult struct {
	Window      domain.Window `json:"window"`
	Bytes       int           `json:"bytes"`
	GeneratedAt time.Time     `json:"generatedAt"`
}

// Export pushes the dashboard for w to the configured sink.
func (s *DashboardService) Export(ctx context.Context, w domain.Window) (*ExportResult, error) {
	log := s.logger.WithContext(ctx)
	if s.exportClient == nil {
		return nil, fmt.Errorf("export client not configured")
	}

	d, err := s.Dashboard(ctx, w)
	if err != nil {
		return nil, err
	}
	generatedAt := s.now().UTC()
	payload, err := json.Marshal(struct {
		GeneratedAt time.Time              `json:"generatedAt"`
		Dashboard   *aggregation.Dashboard `json:"dashboard"`
	}{generatedAt, d})
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}

	if err := s.exportClient.Export(ctx, payload, generatedAt); err != nil {
		log.WithError(err).Error("Failed to export dashboard")
		return nil, fmt.Errorf("failed to export dashboard: %w", err)
	}

	log.WithFields(map[string]any{
		"window": w.Key(),
		"bytes":  len(payload),
	}).Info("Dashboard exported")
	return &ExportResult{Window: w, Bytes: len(payload), GeneratedAt: generatedAt}, nil
}
