package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"marketingops/internal/domain"
	"marketingops/pkg/logger"
	"marketingops/pkg/metrics"

	"github.com/google/uuid"
)

// CRMService manages leads.
type CRMService struct {
	store   domain.Store
	cache   domain.RollupCache
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewCRMService(store domain.Store, cache domain.RollupCache, logger *logger.Logger, metrics *metrics.Metrics) *CRMService {
	return &CRMService{
		store:   store,
		cache:   cache,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// LeadInput is the writable part of a lead. Attribution is given by id; the
// names and the channel of a group are copied onto the lead.
type LeadInput struct {
	Name            string         `json:"name"`
	Email           string         `json:"email"`
	Company         string         `json:"company"`
	JobTitle        string         `json:"jobTitle"`
	Channel         domain.Channel `json:"channel"`
	CampaignGroupID string         `json:"campaignGroupId"`
	CampaignID      string         `json:"campaignId"`
	Stage           domain.Stage   `json:"stage"`
	DealValue       *float64       `json:"dealValue"`
	DateAdded       domain.Date    `json:"dateAdded"`
}

type LeadFilter struct {
	Channel domain.Channel
	Stage   domain.Stage
	GroupID string
	Window  domain.Window
}

func (f LeadFilter) matches(l domain.Lead) bool {
	if f.Channel != "" && l.Channel != f.Channel {
		return false
	}
	if f.Stage != "" && l.Stage != f.Stage {
		return false
	}
	if f.GroupID != "" && l.CampaignGroupID != f.GroupID {
		return false
	}
	if (!f.Window.From.IsZero() || !f.Window.To.IsZero()) && !f.Window.Contains(l.DateAdded) {
		return false
	}
	return true
}

// ListLeads returns matching leads, newest first.
func (s *CRMService) ListLeads(ctx context.Context, filter LeadFilter) ([]domain.Lead, error) {
	if err := filter.Window.Validate(); err != nil {
		return nil, err
	}
	leads, err := s.store.Leads().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}

	out := make([]domain.Lead, 0, len(leads))
	for _, l := range leads {
		if filter.matches(l) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].DateAdded.Equal(out[j].DateAdded.Time) {
			return out[i].DateAdded.After(out[j].DateAdded.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *CRMService) GetLead(ctx context.Context, id string) (*domain.Lead, error) {
	lead, err := s.store.Leads().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (s *CRMService) CreateLead(ctx context.Context, in LeadInput) (*domain.Lead, error) {
	log := s.logger.WithContext(ctx)

	lead := domain.Lead{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		Company:   in.Company,
		JobTitle:  in.JobTitle,
		Channel:   in.Channel,
		Stage:     in.Stage,
		DealValue: in.DealValue,
		DateAdded: in.DateAdded,
	}
	if lead.Stage == "" {
		lead.Stage = domain.StageLead
	}
	if lead.DateAdded.IsZero() {
		lead.DateAdded = today(s.now)
	}
	if !lead.Stage.CarriesDealValue() {
		lead.DealValue = nil
	}
	lead.StageDates = map[domain.Stage]domain.Date{lead.Stage: lead.DateAdded}

	if err := s.attribute(ctx, &lead, in.CampaignGroupID, in.CampaignID); err != nil {
		return nil, err
	}
	if err := lead.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.Leads().Create(ctx, lead); err != nil {
		log.WithError(err).Error("Failed to create lead")
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	s.metrics.RecordMutation("lead", "create")
	invalidateRollups(ctx, s.cache, s.logger)

	log.WithFields(map[string]any{
		"lead_id": lead.ID,
		"stage":   lead.Stage,
		"channel": lead.Channel,
	}).Info("Created lead")
	return &lead, nil
}

// UpdateLead replaces the lead with in. A stage change goes through the
// transition table and keeps earlier stage dates.
func (s *CRMService) UpdateLead(ctx context.Context, id string, in LeadInput) (*domain.Lead, error) {
	existing, err := s.store.Leads().Get(ctx, id)
	if err != nil {
		return nil, err
	}

	lead := existing
	lead.Name = in.Name
	lead.Email = in.Email
	lead.Company = in.Company
	lead.JobTitle = in.JobTitle
	lead.Channel = in.Channel
	lead.CampaignGroup, lead.Campaign = "", ""
	lead.CampaignGroupID, lead.CampaignID = "", ""
	if !in.DateAdded.IsZero() {
		lead.DateAdded = in.DateAdded
	}

	if in.Stage != "" && in.Stage != existing.Stage {
		if err := lead.MoveTo(in.Stage, today(s.now)); err != nil {
			return nil, err
		}
	}
	lead.DealValue = in.DealValue
	if !lead.Stage.CarriesDealValue() {
		lead.DealValue = nil
	}

	if err := s.attribute(ctx, &lead, in.CampaignGroupID, in.CampaignID); err != nil {
		return nil, err
	}
	if err := lead.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.Leads().Update(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}

	s.metrics.RecordMutation("lead", "update")
	invalidateRollups(ctx, s.cache, s.logger)
	return &lead, nil
}

// ChangeStage moves a lead and optionally records a deal value for stages
// that carry one.
func (s *CRMService) ChangeStage(ctx context.Context, id string, stage domain.Stage, dealValue *float64) (*domain.Lead, error) {
	lead, err := s.store.Leads().Get(ctx, id)
	if err != nil {
		return nil, err
	}

	from := lead.Stage
	if err := lead.MoveTo(stage, today(s.now)); err != nil {
		return nil, err
	}
	if dealValue != nil && stage.CarriesDealValue() {
		if *dealValue < 0 {
			return nil, fmt.Errorf("%w: deal value cannot be negative", domain.ErrValidation)
		}
		lead.DealValue = dealValue
	}

	if err := s.store.Leads().Update(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to update lead stage: %w", err)
	}

	s.metrics.RecordMutation("lead", "stage_change")
	invalidateRollups(ctx, s.cache, s.logger)

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"lead_id": id,
		"from":    from,
		"to":      stage,
	}).Info("Lead stage changed")
	return &lead, nil
}

func (s *CRMService) DeleteLead(ctx context.Context, id string) error {
	if err := s.store.Leads().Delete(ctx, id); err != nil {
		return err
	}
	s.metrics.RecordMutation("lead", "delete")
	invalidateRollups(ctx, s.cache, s.logger)
	return nil
}

// attribute resolves the group and campaign ids and copies their names onto
// the lead. The campaign decides the group when both are given.
func (s *CRMService) attribute(ctx context.Context, lead *domain.Lead, groupID, campaignID string) error {
	if campaignID != "" {
		campaign, err := s.store.Campaigns().Get(ctx, campaignID)
		if err != nil {
			return fmt.Errorf("resolving campaign: %w", err)
		}
		if groupID != "" && groupID != campaign.GroupID {
			return fmt.Errorf("%w: campaign %q does not belong to group %q", domain.ErrValidation, campaignID, groupID)
		}
		groupID = campaign.GroupID
		lead.CampaignID = campaign.ID
		lead.Campaign = campaign.Name
	}

	if groupID != "" {
		group, err := s.store.CampaignGroups().Get(ctx, groupID)
		if err != nil {
			return fmt.Errorf("resolving campaign group: %w", err)
		}
		lead.CampaignGroupID = group.ID
		lead.CampaignGroup = group.Name
		lead.Channel = group.Channel
	}

	if lead.Channel != "" && !lead.Channel.Valid() {
		return fmt.Errorf("%w: unknown channel %q", domain.ErrValidation, lead.Channel)
	}
	return nil
}
