package domain

import (
	"fmt"
	"strings"
)

// Stage is a lead's funnel lifecycle bucket.
type Stage string

const (
	StageLead        Stage = "Lead"
	StageQualified   Stage = "Qualified"
	StageOpportunity Stage = "Opportunity"
	StageConversion  Stage = "Conversion"
	StageDiscarded   Stage = "Discarded"
)

var Stages = []Stage{StageLead, StageQualified, StageOpportunity, StageConversion, StageDiscarded}

func (s Stage) Valid() bool {
	for _, known := range Stages {
		if s == known {
			return true
		}
	}
	return false
}

// CarriesDealValue is true for the stages where a deal value means something.
func (s Stage) CarriesDealValue() bool {
	return s == StageOpportunity || s == StageConversion
}

// StageTransitions lists the allowed moves between stages. Every move is
// permitted today; narrowing the CRM flow only requires editing this table.
var StageTransitions = map[Stage]map[Stage]bool{
	StageLead:        allStages(),
	StageQualified:   allStages(),
	StageOpportunity: allStages(),
	StageConversion:  allStages(),
	StageDiscarded:   allStages(),
}

func allStages() map[Stage]bool {
	out := make(map[Stage]bool, len(Stages))
	for _, s := range Stages {
		out[s] = true
	}
	return out
}

func CanTransitionStage(from, to Stage) bool {
	if from == "" {
		return to.Valid()
	}
	return StageTransitions[from][to]
}

type Lead struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Company  string `json:"company,omitempty"`
	JobTitle string `json:"jobTitle,omitempty"`

	// Attribution. The name fields are copies taken when the lead was
	// attributed and do not follow later renames of the group or campaign.
	Channel         Channel `json:"channel"`
	CampaignGroup   string  `json:"campaignGroup,omitempty"`
	Campaign        string  `json:"campaign,omitempty"`
	CampaignGroupID string  `json:"campaignGroupId,omitempty"`
	CampaignID      string  `json:"campaignId,omitempty"`

	Stage      Stage          `json:"stage"`
	DealValue  *float64       `json:"dealValue,omitempty"`
	DateAdded  Date           `json:"dateAdded"`
	StageDates map[Stage]Date `json:"stageDates,omitempty"`
}

func (l Lead) DocumentID() string { return l.ID }

// Value is the deal value, or 0 when none is recorded.
func (l Lead) Value() float64 {
	if l.DealValue == nil {
		return 0
	}
	return *l.DealValue
}

// Validate checks the fields a stored lead must carry.
func (l Lead) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("%w: lead name is required", ErrValidation)
	}
	if !l.Stage.Valid() {
		return fmt.Errorf("%w: unknown stage %q", ErrValidation, l.Stage)
	}
	if l.DealValue != nil && *l.DealValue < 0 {
		return fmt.Errorf("%w: deal value cannot be negative", ErrValidation)
	}
	if l.DateAdded.IsZero() {
		return fmt.Errorf("%w: lead date added is required", ErrValidation)
	}
	return nil
}

// MoveTo sets the stage, stamps the first entry date for it and drops the deal
// value when the new stage cannot carry one.
func (l *Lead) MoveTo(to Stage, on Date) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown stage %q", ErrValidation, to)
	}
	if l.Stage != to && !CanTransitionStage(l.Stage, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, l.Stage, to)
	}
	l.Stage = to
	if l.StageDates == nil {
		l.StageDates = make(map[Stage]Date)
	}
	if _, seen := l.StageDates[to]; !seen {
		l.StageDates[to] = on
	}
	if !to.CarriesDealValue() {
		l.DealValue = nil
	}
	return nil
}

// returns true if the lead reached the opportunity stage or beyond
func (l Lead) IsOpportunityOrLater() bool {
	return l.Stage == StageOpportunity || l.Stage == StageConversion
}

func (l Lead) IsConversion() bool {
	return l.Stage == StageConversion
}

func (l Lead) IsDiscarded() bool {
	return l.Stage == StageDiscarded
}
