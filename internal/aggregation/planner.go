package aggregation

import (
	"math"

	"marketingops/internal/domain"
)

// FunnelPlan is the reverse funnel needed to hit a revenue target.
type FunnelPlan struct {
	Conversions   int     `json:"conversions"`
	Opportunities int     `json:"opportunities"`
	Leads         int     `json:"leads"`
	Budget        float64 `json:"budget"`
}

// PlanFunnel works back from target revenue through the stage rates. Counts
// round up; any missing input leaves the dependent counts at zero.
func PlanFunnel(in domain.CalculatorInputs) FunnelPlan {
	var plan FunnelPlan
	if in.TargetRevenue <= 0 || in.AverageDealValue <= 0 {
		return plan
	}
	plan.Conversions = ceilCount(in.TargetRevenue / in.AverageDealValue)

	if in.OpportunityToConversionRate <= 0 {
		return plan
	}
	plan.Opportunities = ceilCount(float64(plan.Conversions) / (in.OpportunityToConversionRate / 100))

	if in.LeadToOpportunityRate <= 0 {
		return plan
	}
	plan.Leads = ceilCount(float64(plan.Opportunities) / (in.LeadToOpportunityRate / 100))
	plan.Budget = float64(plan.Leads) * in.CostPerLead
	return plan
}

// ceilCount rounds up, ignoring float noise such as 10.000000000000002.
func ceilCount(v float64) int {
	return int(math.Ceil(v - 1e-9))
}
