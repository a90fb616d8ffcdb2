package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"marketingops/internal/domain"
	"marketingops/pkg/logger"
	"marketingops/pkg/metrics"
)

const autoExpensePrefix = "auto-"

// GoalService owns the goals singleton: funnel and channel targets, the
// planner inputs and the expense lists.
type GoalService struct {
	store   domain.Store
	cache   domain.RollupCache
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewGoalService(store domain.Store, cache domain.RollupCache, logger *logger.Logger, metrics *metrics.Metrics) *GoalService {
	return &GoalService{
		store:   store,
		cache:   cache,
		logger:  logger,
		metrics: metrics,
	}
}

// Load returns the saved goals, or the defaults before anything was saved.
func (s *GoalService) Load(ctx context.Context) (*domain.GoalSettings, error) {
	goals, err := s.store.LoadGoals(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.DefaultGoalSettings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load goals: %w", err)
	}
	return goals, nil
}

// Save replaces the goals document wholesale.
func (s *GoalService) Save(ctx context.Context, goals *domain.GoalSettings) (*domain.GoalSettings, error) {
	if goals == nil {
		return nil, fmt.Errorf("%w: goals document is required", domain.ErrValidation)
	}
	goals.Normalize()
	if err := goals.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.SaveGoals(ctx, goals); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to save goals")
		return nil, fmt.Errorf("failed to save goals: %w", err)
	}

	s.metrics.RecordMutation("goals", "save")
	invalidateRollups(ctx, s.cache, s.logger)
	return goals, nil
}

// SyncAdSpend regenerates the auto-generated variable expenses: one per
// paid-channel campaign with a cost, dated at its start. Manual expenses
// are left untouched.
func (s *GoalService) SyncAdSpend(ctx context.Context) (*domain.GoalSettings, error) {
	goals, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := s.store.CampaignGroups().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaign groups: %w", err)
	}
	campaigns, err := s.store.Campaigns().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}

	paid := make(map[string]bool)
	for _, g := range groups {
		if g.Channel.IsPaid() {
			paid[g.ID] = true
		}
	}

	variable := make([]domain.VariableExpense, 0, len(goals.Expenses.Variable))
	for _, e := range goals.Expenses.Variable {
		if !e.AutoGenerated {
			variable = append(variable, e)
		}
	}
	generated := 0
	for _, c := range campaigns {
		if !paid[c.GroupID] || c.Cost <= 0 {
			continue
		}
		variable = append(variable, domain.VariableExpense{
			ID:            autoExpensePrefix + c.ID,
			Name:          "Ad spend: " + c.Name,
			Amount:        c.Cost,
			Date:          c.StartDate,
			AutoGenerated: true,
		})
		generated++
	}
	sort.SliceStable(variable, func(i, j int) bool {
		return variable[i].Date.Before(variable[j].Date.Time)
	})
	goals.Expenses.Variable = variable

	saved, err := s.Save(ctx, goals)
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithField("generated", generated).Info("Synced ad spend expenses")
	return saved, nil
}
