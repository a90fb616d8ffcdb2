package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"marketingops/internal/domain"
	"marketingops/pkg/logger"
	"marketingops/pkg/metrics"

	"github.com/google/uuid"
)

// CampaignService manages campaign groups and the campaigns inside them.
type CampaignService struct {
	store   domain.Store
	cache   domain.RollupCache
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewCampaignService(store domain.Store, cache domain.RollupCache, logger *logger.Logger, metrics *metrics.Metrics) *CampaignService {
	return &CampaignService{
		store:   store,
		cache:   cache,
		logger:  logger,
		metrics: metrics,
	}
}

type GroupInput struct {
	Name    string         `json:"name"`
	Channel domain.Channel `json:"channel"`
	Order   *int           `json:"order"`
}

type CampaignInput struct {
	Name      string                `json:"name"`
	GroupID   string                `json:"groupId"`
	Status    domain.CampaignStatus `json:"status"`
	StartDate domain.Date           `json:"startDate"`
	EndDate   *domain.Date          `json:"endDate"`
	Cost      float64               `json:"cost"`
	Metrics   map[string]float64    `json:"metrics"`
}

// ListGroups returns groups in display order.
func (s *CampaignService) ListGroups(ctx context.Context) ([]domain.CampaignGroup, error) {
	groups, err := s.store.CampaignGroups().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaign groups: %w", err)
	}
	sortGroups(groups)
	return groups, nil
}

func sortGroups(groups []domain.CampaignGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Order != groups[j].Order {
			return groups[i].Order < groups[j].Order
		}
		return groups[i].Name < groups[j].Name
	})
}

func (s *CampaignService) GetGroup(ctx context.Context, id string) (*domain.CampaignGroup, error) {
	group, err := s.store.CampaignGroups().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// CreateGroup appends the group after the existing ones unless an order is given.
func (s *CampaignService) CreateGroup(ctx context.Context, in GroupInput) (*domain.CampaignGroup, error) {
	group := domain.CampaignGroup{
		ID:      uuid.NewString(),
		Name:    strings.TrimSpace(in.Name),
		Channel: in.Channel,
	}
	if err := group.Validate(); err != nil {
		return nil, err
	}

	if in.Order != nil {
		group.Order = *in.Order
	} else {
		existing, err := s.store.CampaignGroups().List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list campaign groups: %w", err)
		}
		for _, g := range existing {
			if g.Order >= group.Order {
				group.Order = g.Order + 1
			}
		}
	}

	if err := s.store.CampaignGroups().Create(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to create campaign group: %w", err)
	}

	s.metrics.RecordMutation("campaign_group", "create")
	invalidateRollups(ctx, s.cache, s.logger)

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"group_id": group.ID,
		"channel":  group.Channel,
	}).Info("Created campaign group")
	return &group, nil
}

// UpdateGroup renames or reorders a group. Leads keep the group name they
// were recorded with; rollups join on the id.
func (s *CampaignService) UpdateGroup(ctx context.Context, id string, in GroupInput) (*domain.CampaignGroup, error) {
	group, err := s.store.CampaignGroups().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Channel != "" && in.Channel != group.Channel {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrImmutableChannel, group.Channel, in.Channel)
	}

	group.Name = strings.TrimSpace(in.Name)
	if in.Order != nil {
		group.Order = *in.Order
	}
	if err := group.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.CampaignGroups().Update(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to update campaign group: %w", err)
	}

	s.metrics.RecordMutation("campaign_group", "update")
	invalidateRollups(ctx, s.cache, s.logger)
	return &group, nil
}

// ReorderGroups assigns display order by position in ids. Groups left out
// keep their relative order after the listed ones.
func (s *CampaignService) ReorderGroups(ctx context.Context, ids []string) ([]domain.CampaignGroup, error) {
	groups, err := s.ListGroups(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]int, len(groups))
	for i, g := range groups {
		byID[g.ID] = i
	}

	position := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("campaign group %q: %w", id, domain.ErrNotFound)
		}
		if _, dup := position[id]; dup {
			return nil, fmt.Errorf("%w: group %q listed twice", domain.ErrValidation, id)
		}
		position[id] = i
	}

	next := len(ids)
	for i := range groups {
		order, listed := position[groups[i].ID]
		if !listed {
			order = next
			next++
		}
		if groups[i].Order == order {
			continue
		}
		groups[i].Order = order
		if err := s.store.CampaignGroups().Update(ctx, groups[i]); err != nil {
			return nil, fmt.Errorf("failed to reorder campaign groups: %w", err)
		}
	}
	sortGroups(groups)

	s.metrics.RecordMutation("campaign_group", "reorder")
	invalidateRollups(ctx, s.cache, s.logger)
	return groups, nil
}

// DeleteGroup refuses to remove a group that still has campaigns.
func (s *CampaignService) DeleteGroup(ctx context.Context, id string) error {
	if _, err := s.store.CampaignGroups().Get(ctx, id); err != nil {
		return err
	}

	campaigns, err := s.store.Campaigns().List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list campaigns: %w", err)
	}
	inUse := 0
	for _, c := range campaigns {
		if c.GroupID == id {
			inUse++
		}
	}
	if inUse > 0 {
		return fmt.Errorf("%w: %d campaign(s)", domain.ErrGroupInUse, inUse)
	}

	if err := s.store.CampaignGroups().Delete(ctx, id); err != nil {
		return err
	}

	s.metrics.RecordMutation("campaign_group", "delete")
	invalidateRollups(ctx, s.cache, s.logger)
	return nil
}

// ListCampaigns returns campaigns, optionally of one group, by start date.
func (s *CampaignService) ListCampaigns(ctx context.Context, groupID string) ([]domain.Campaign, error) {
	campaigns, err := s.store.Campaigns().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}

	out := make([]domain.Campaign, 0, len(campaigns))
	for _, c := range campaigns {
		if groupID == "" || c.GroupID == groupID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate.Time) {
			return out[i].StartDate.Before(out[j].StartDate.Time)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *CampaignService) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	campaign, err := s.store.Campaigns().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (s *CampaignService) CreateCampaign(ctx context.Context, in CampaignInput) (*domain.Campaign, error) {
	campaign := campaignFromInput(uuid.NewString(), in)
	if campaign.Status == "" {
		campaign.Status = domain.StatusActive
	}
	if err := s.validateCampaign(ctx, campaign); err != nil {
		return nil, err
	}

	if err := s.store.Campaigns().Create(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	s.metrics.RecordMutation("campaign", "create")
	invalidateRollups(ctx, s.cache, s.logger)

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"campaign_id": campaign.ID,
		"group_id":    campaign.GroupID,
		"cost":        campaign.Cost,
	}).Info("Created campaign")
	return &campaign, nil
}

// UpdateCampaign replaces the campaign. Status moves use the transition table.
func (s *CampaignService) UpdateCampaign(ctx context.Context, id string, in CampaignInput) (*domain.Campaign, error) {
	existing, err := s.store.Campaigns().Get(ctx, id)
	if err != nil {
		return nil, err
	}

	campaign := campaignFromInput(id, in)
	if campaign.Status == "" {
		campaign.Status = existing.Status
	}
	if campaign.Status != existing.Status && !domain.CanTransitionStatus(existing.Status, campaign.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, existing.Status, campaign.Status)
	}
	if err := s.validateCampaign(ctx, campaign); err != nil {
		return nil, err
	}

	if err := s.store.Campaigns().Update(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}

	s.metrics.RecordMutation("campaign", "update")
	invalidateRollups(ctx, s.cache, s.logger)
	return &campaign, nil
}

// ChangeStatus moves a campaign to status. Completing needs an end date,
// either already set or given here.
func (s *CampaignService) ChangeStatus(ctx context.Context, id string, status domain.CampaignStatus, endDate *domain.Date) (*domain.Campaign, error) {
	campaign, err := s.store.Campaigns().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}
	if status != campaign.Status && !domain.CanTransitionStatus(campaign.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, campaign.Status, status)
	}

	campaign.Status = status
	if endDate != nil {
		campaign.EndDate = endDate
	}
	if err := campaign.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.Campaigns().Update(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to update campaign status: %w", err)
	}

	s.metrics.RecordMutation("campaign", "status_change")
	invalidateRollups(ctx, s.cache, s.logger)
	return &campaign, nil
}

func (s *CampaignService) DeleteCampaign(ctx context.Context, id string) error {
	if err := s.store.Campaigns().Delete(ctx, id); err != nil {
		return err
	}
	s.metrics.RecordMutation("campaign", "delete")
	invalidateRollups(ctx, s.cache, s.logger)
	return nil
}

func campaignFromInput(id string, in CampaignInput) domain.Campaign {
	return domain.Campaign{
		ID:        id,
		Name:      strings.TrimSpace(in.Name),
		GroupID:   in.GroupID,
		Status:    in.Status,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Cost:      in.Cost,
		Metrics:   in.Metrics,
	}
}

// validateCampaign checks the campaign itself, that its group exists and
// that every metric is one the group's channel records.
func (s *CampaignService) validateCampaign(ctx context.Context, c domain.Campaign) error {
	if err := c.Validate(); err != nil {
		return err
	}
	group, err := s.store.CampaignGroups().Get(ctx, c.GroupID)
	if err != nil {
		return fmt.Errorf("resolving campaign group: %w", err)
	}

	allowed := make(map[string]bool)
	for _, name := range domain.ChannelMetrics[group.Channel] {
		allowed[name] = true
	}
	for name, v := range c.Metrics {
		if !allowed[name] {
			return fmt.Errorf("%w: metric %q is not tracked for %s", domain.ErrValidation, name, group.Channel)
		}
		if v < 0 {
			return fmt.Errorf("%w: metric %q cannot be negative", domain.ErrValidation, name)
		}
	}
	return nil
}
