package aggregation

import "marketingops/internal/domain"

// DaysPerMonth is the average Gregorian month length.
const DaysPerMonth = 30.4375

// ExpenseInput is everything the period breakdown reads.
type ExpenseInput struct {
	Salaries     []domain.RecurringExpense
	Tools        []domain.RecurringExpense
	Variable     []domain.VariableExpense
	Campaigns    []domain.Campaign
	PaidGroupIDs map[string]bool
	Window       domain.Window
}

// ExpensePeriod is the cost of running marketing over a window.
type ExpensePeriod struct {
	Window   domain.Window `json:"window"`
	Days     float64       `json:"days"`
	// Months is rounded for display; proration uses the unrounded value.
	Months   float64       `json:"months"`
	Salaries float64       `json:"salaries"`
	Tools    float64       `json:"tools"`
	AdSpend  float64       `json:"adSpend"`
	Variable float64       `json:"variable"`
	Total    float64       `json:"total"`
}

// ExpenseBreakdown prorates monthly salaries and tools over the window, adds
// paid-channel spend of campaigns starting in it and the manual one-off
// expenses dated in it. Auto-generated variable expenses mirror campaign
// spend and are skipped so spend is not counted twice.
func ExpenseBreakdown(in ExpenseInput) ExpensePeriod {
	days := 0.0
	if in.Window.Bounded() {
		days = in.Window.From.DaysUntil(in.Window.To)
	}
	if days < 0 {
		days = 0
	}
	months := days / DaysPerMonth

	period := ExpensePeriod{
		Window: in.Window,
		Days:   days,
		Months: round2(months),
	}

	period.Salaries = sumRecurring(in.Salaries) * months
	period.Tools = sumRecurring(in.Tools) * months

	for _, c := range in.Campaigns {
		if in.PaidGroupIDs[c.GroupID] && in.Window.Contains(c.StartDate) {
			period.AdSpend += c.Cost
		}
	}

	for _, e := range in.Variable {
		if !e.AutoGenerated && in.Window.Contains(e.Date) {
			period.Variable += e.Amount
		}
	}

	period.Total = period.Salaries + period.Tools + period.AdSpend + period.Variable
	return period
}

func sumRecurring(items []domain.RecurringExpense) float64 {
	total := 0.0
	for _, e := range items {
		total += e.Amount
	}
	return total
}
