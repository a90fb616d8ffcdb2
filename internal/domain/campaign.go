package domain

import (
	"fmt"
	"strings"
)

type Channel string

const (
	ChannelMetaAds       Channel = "Meta Ads"
	ChannelGoogleAds     Channel = "Google Ads"
	ChannelLinkedInAds   Channel = "LinkedIn Ads"
	ChannelEmail         Channel = "Email Marketing"
	ChannelWebsite       Channel = "Website"
	ChannelOrganicSocial Channel = "Organic Social"
	ChannelEvents        Channel = "Eventos"
)

var Channels = []Channel{
	ChannelMetaAds,
	ChannelGoogleAds,
	ChannelLinkedInAds,
	ChannelEmail,
	ChannelWebsite,
	ChannelOrganicSocial,
	ChannelEvents,
}

func (c Channel) Valid() bool {
	for _, known := range Channels {
		if c == known {
			return true
		}
	}
	return false
}

// IsPaid reports whether campaigns on the channel carry direct ad spend.
func (c Channel) IsPaid() bool {
	switch c {
	case ChannelMetaAds, ChannelGoogleAds, ChannelLinkedInAds:
		return true
	}
	return false
}

// Metric names a campaign may record, by channel.
var ChannelMetrics = map[Channel][]string{
	ChannelMetaAds:       {"impressions", "clicks", "conversions", "revenue"},
	ChannelGoogleAds:     {"impressions", "clicks", "conversions", "revenue"},
	ChannelLinkedInAds:   {"impressions", "clicks", "conversions", "revenue"},
	ChannelEmail:         {"sent", "opens", "clicks", "conversions"},
	ChannelWebsite:       {"sessions", "conversions"},
	ChannelOrganicSocial: {"reach", "engagement", "followers"},
	ChannelEvents:        {"registered", "attendees"},
}

type CampaignStatus string

const (
	StatusActive    CampaignStatus = "Active"
	StatusPaused    CampaignStatus = "Paused"
	StatusCompleted CampaignStatus = "Completed"
)

var Statuses = []CampaignStatus{StatusActive, StatusPaused, StatusCompleted}

func (s CampaignStatus) Valid() bool {
	return s == StatusActive || s == StatusPaused || s == StatusCompleted
}

// StatusTransitions lists the allowed campaign status moves; all are open today.
var StatusTransitions = map[CampaignStatus]map[CampaignStatus]bool{
	StatusActive:    {StatusActive: true, StatusPaused: true, StatusCompleted: true},
	StatusPaused:    {StatusActive: true, StatusPaused: true, StatusCompleted: true},
	StatusCompleted: {StatusActive: true, StatusPaused: true, StatusCompleted: true},
}

func CanTransitionStatus(from, to CampaignStatus) bool {
	if from == "" {
		return to.Valid()
	}
	return StatusTransitions[from][to]
}

type CampaignGroup struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Channel Channel `json:"channel"`
	Order   int     `json:"order"`
}

func (g CampaignGroup) DocumentID() string { return g.ID }

func (g CampaignGroup) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return fmt.Errorf("%w: group name is required", ErrValidation)
	}
	if !g.Channel.Valid() {
		return fmt.Errorf("%w: unknown channel %q", ErrValidation, g.Channel)
	}
	return nil
}

type Campaign struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	GroupID   string             `json:"groupId"`
	Status    CampaignStatus     `json:"status"`
	StartDate Date               `json:"startDate"`
	EndDate   *Date              `json:"endDate,omitempty"`
	Cost      float64            `json:"cost"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

func (c Campaign) DocumentID() string { return c.ID }

func (c Campaign) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: campaign name is required", ErrValidation)
	}
	if c.GroupID == "" {
		return fmt.Errorf("%w: campaign group is required", ErrValidation)
	}
	if !c.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, c.Status)
	}
	if c.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrValidation)
	}
	if c.Status == StatusCompleted && (c.EndDate == nil || c.EndDate.IsZero()) {
		return fmt.Errorf("%w: a completed campaign needs an end date", ErrValidation)
	}
	if c.EndDate != nil && !c.EndDate.IsZero() && c.EndDate.Before(c.StartDate.Time) {
		return fmt.Errorf("%w: end date is before start date", ErrValidation)
	}
	if c.Cost < 0 {
		return fmt.Errorf("%w: cost cannot be negative", ErrValidation)
	}
	return nil
}

// Metric returns a named value from the metrics bag, 0 when absent.
func (c Campaign) Metric(name string) float64 {
	return c.Metrics[name]
}
