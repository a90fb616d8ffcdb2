package usecase

import (
	"context"
	"fmt"
	"strings"

	"marketingops/internal/aggregation"
	"marketingops/internal/domain"
	"marketingops/pkg/logger"
	"marketingops/pkg/metrics"
)

// PlatformService manages per-platform monthly metric series.
type PlatformService struct {
	store   domain.Store
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewPlatformService(store domain.Store, logger *logger.Logger, metrics *metrics.Metrics) *PlatformService {
	return &PlatformService{store: store, logger: logger, metrics: metrics}
}

// List returns every platform with its values parsed. Unreadable values
// show up as defaulted zeros and are counted in metrics.
func (s *PlatformService) List(ctx context.Context) ([]aggregation.ParsedPlatform, error) {
	platforms, err := s.store.LoadPlatformMetrics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load platform metrics: %w", err)
	}

	out := make([]aggregation.ParsedPlatform, 0, len(platforms))
	for _, p := range platforms {
		parsed := aggregation.ParsePlatform(p)
		for _, series := range parsed.Series {
			s.metrics.RecordDefaultedValues("platform_metrics", series.Defaulted)
		}
		out = append(out, parsed)
	}
	return out, nil
}

// AddSeries registers a series on a platform, creating the platform when new.
func (s *PlatformService) AddSeries(ctx context.Context, platform, name string, source domain.SourceType) (*aggregation.ParsedPlatform, error) {
	platform, name = strings.TrimSpace(platform), strings.TrimSpace(name)
	if platform == "" || name == "" {
		return nil, fmt.Errorf("%w: platform and series name are required", domain.ErrValidation)
	}
	if source == "" {
		source = domain.SourceManual
	}
	if source != domain.SourceManual && source != domain.SourceAPI {
		return nil, fmt.Errorf("%w: unknown source %q", domain.ErrValidation, source)
	}

	platforms, err := s.store.LoadPlatformMetrics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load platform metrics: %w", err)
	}

	idx := -1
	for i := range platforms {
		if platforms[i].Platform == platform {
			idx = i
			break
		}
	}
	if idx < 0 {
		platforms = append(platforms, domain.PlatformMetrics{Platform: platform})
		idx = len(platforms) - 1
	}
	if _, exists := platforms[idx].FindSeries(name); exists {
		return nil, fmt.Errorf("series %q on %s: %w", name, platform, domain.ErrAlreadyExists)
	}
	platforms[idx].Series = append(platforms[idx].Series, domain.MetricSeries{
		Name:   name,
		Source: source,
		Points: []domain.SeriesPoint{},
	})

	if err := s.store.SavePlatformMetrics(ctx, platforms); err != nil {
		return nil, fmt.Errorf("failed to save platform metrics: %w", err)
	}
	s.metrics.RecordMutation("platform_series", "create")

	parsed := aggregation.ParsePlatform(platforms[idx])
	return &parsed, nil
}

// SetValue records the raw text for one month of a manual series.
func (s *PlatformService) SetValue(ctx context.Context, platform, series, month, raw string) (*aggregation.ParsedPlatform, error) {
	platforms, err := s.store.LoadPlatformMetrics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load platform metrics: %w", err)
	}

	var target *domain.PlatformMetrics
	for i := range platforms {
		if platforms[i].Platform == platform {
			target = &platforms[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("platform %q: %w", platform, domain.ErrNotFound)
	}
	ms, ok := target.FindSeries(series)
	if !ok {
		return nil, fmt.Errorf("series %q on %s: %w", series, platform, domain.ErrNotFound)
	}
	if err := ms.SetValue(month, raw); err != nil {
		return nil, err
	}

	if err := s.store.SavePlatformMetrics(ctx, platforms); err != nil {
		return nil, fmt.Errorf("failed to save platform metrics: %w", err)
	}
	s.metrics.RecordMutation("platform_series", "set_value")

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"platform": platform,
		"series":   series,
		"month":    month,
	}).Info("Updated platform metric value")

	parsed := aggregation.ParsePlatform(*target)
	return &parsed, nil
}
