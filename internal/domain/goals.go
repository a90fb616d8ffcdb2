package domain

import (
	"fmt"
	"strings"
)

// GoalSettings is the singleton planning document. It is replaced wholesale on save.
type GoalSettings struct {
	Funnel     map[Stage]float64              `json:"funnel"`
	Channels   map[Channel]map[string]float64 `json:"channels"`
	Efforts    map[Channel]map[string]float64 `json:"efforts"`
	Calculator CalculatorInputs               `json:"calculator"`
	Expenses   Expenses                       `json:"expenses"`
}

// CalculatorInputs feed the funnel planner. Rates are percentages.
type CalculatorInputs struct {
	TargetRevenue               float64 `json:"targetRevenue"`
	AverageDealValue            float64 `json:"averageDealValue"`
	LeadToOpportunityRate       float64 `json:"leadToOpportunityRate"`
	OpportunityToConversionRate float64 `json:"opportunityToConversionRate"`
	CostPerLead                 float64 `json:"costPerLead"`
}

type Expenses struct {
	Salaries []RecurringExpense `json:"salaries"`
	Tools    []RecurringExpense `json:"tools"`
	Variable []VariableExpense  `json:"variable"`
}

// RecurringExpense is a monthly amount.
type RecurringExpense struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// VariableExpense is a one-off amount. AutoGenerated entries are derived from
// paid campaign spend and are regenerated, never edited by hand.
type VariableExpense struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Amount        float64 `json:"amount"`
	Date          Date    `json:"date"`
	AutoGenerated bool    `json:"autoGenerated"`
}

// DefaultGoalSettings is what a fresh workspace starts with.
func DefaultGoalSettings() *GoalSettings {
	return &GoalSettings{
		Funnel:   map[Stage]float64{},
		Channels: map[Channel]map[string]float64{},
		Efforts:  map[Channel]map[string]float64{},
		Expenses: Expenses{
			Salaries: []RecurringExpense{},
			Tools:    []RecurringExpense{},
			Variable: []VariableExpense{},
		},
	}
}

func (g *GoalSettings) Validate() error {
	for stage, target := range g.Funnel {
		if !stage.Valid() {
			return fmt.Errorf("%w: unknown funnel stage %q", ErrValidation, stage)
		}
		if target < 0 {
			return fmt.Errorf("%w: funnel goal for %s is negative", ErrValidation, stage)
		}
	}
	for _, byChannel := range []map[Channel]map[string]float64{g.Channels, g.Efforts} {
		for channel := range byChannel {
			if !channel.Valid() {
				return fmt.Errorf("%w: unknown channel %q", ErrValidation, channel)
			}
		}
	}
	for _, e := range append(append([]RecurringExpense{}, g.Expenses.Salaries...), g.Expenses.Tools...) {
		if strings.TrimSpace(e.Name) == "" {
			return fmt.Errorf("%w: expense name is required", ErrValidation)
		}
	}
	for _, e := range g.Expenses.Variable {
		if strings.TrimSpace(e.Name) == "" {
			return fmt.Errorf("%w: expense name is required", ErrValidation)
		}
		if e.Date.IsZero() {
			return fmt.Errorf("%w: variable expense %q needs a date", ErrValidation, e.Name)
		}
	}
	return nil
}

// Normalize replaces nil maps and slices so callers can write into them.
func (g *GoalSettings) Normalize() {
	if g.Funnel == nil {
		g.Funnel = map[Stage]float64{}
	}
	if g.Channels == nil {
		g.Channels = map[Channel]map[string]float64{}
	}
	if g.Efforts == nil {
		g.Efforts = map[Channel]map[string]float64{}
	}
	if g.Expenses.Salaries == nil {
		g.Expenses.Salaries = []RecurringExpense{}
	}
	if g.Expenses.Tools == nil {
		g.Expenses.Tools = []RecurringExpense{}
	}
	if g.Expenses.Variable == nil {
		g.Expenses.Variable = []VariableExpense{}
	}
}
