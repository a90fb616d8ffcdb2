package usecase

import (
	"context"
	"time"

	"marketingops/internal/domain"
	"marketingops/pkg/logger"
)

// invalidateRollups drops cached dashboards after a write. A cache failure is
// logged and never fails the write itself.
func invalidateRollups(ctx context.Context, cache domain.RollupCache, log *logger.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx); err != nil {
		log.WithContext(ctx).WithError(err).Warn("Failed to invalidate rollup cache")
	}
}

func today(now func() time.Time) domain.Date {
	return domain.DateOf(now())
}
