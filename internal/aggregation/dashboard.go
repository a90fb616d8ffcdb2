package aggregation

import "marketingops/internal/domain"

// Snapshot is an immutable read of the entity store.
type Snapshot struct {
	Leads     []domain.Lead          `json:"leads"`
	Campaigns []domain.Campaign      `json:"campaigns"`
	Groups    []domain.CampaignGroup `json:"campaignGroups"`
	Goals     *domain.GoalSettings   `json:"goals,omitempty"`
}

// Dashboard bundles every rollup for one window.
type Dashboard struct {
	Window       domain.Window    `json:"window"`
	Summary      Summary          `json:"summary"`
	Funnel       []FunnelStep     `json:"funnel"`
	Channels     []ChannelRow     `json:"channels"`
	Groups       []GroupRow       `json:"groups"`
	FunnelGoals  []StageProgress  `json:"funnelGoals,omitempty"`
	ChannelGoals []MetricProgress `json:"channelGoals,omitempty"`
	Plan         *FunnelPlan      `json:"plan,omitempty"`
	Expenses     *ExpensePeriod   `json:"expenses,omitempty"`
}

// BuildDashboard filters the snapshot to w and runs every rollup. Expenses
// are only computed for a bounded window.
func BuildDashboard(s Snapshot, w domain.Window) Dashboard {
	leads := LeadsInWindow(s.Leads, w)
	campaigns := CampaignsInWindow(s.Campaigns, w)

	d := Dashboard{
		Window:   w,
		Summary:  Summarize(leads, campaigns, s.Groups),
		Funnel:   FunnelRollup(leads),
		Channels: ChannelRollup(leads),
		Groups:   GroupRollup(leads, campaigns, s.Groups),
	}

	if s.Goals != nil {
		d.FunnelGoals = FunnelGoalProgress(leads, s.Goals.Funnel)
		d.ChannelGoals = ChannelGoalProgress(campaigns, s.Groups, s.Goals.Channels)
		plan := PlanFunnel(s.Goals.Calculator)
		d.Plan = &plan

		if w.Bounded() {
			period := ExpenseBreakdown(ExpenseInput{
				Salaries:     s.Goals.Expenses.Salaries,
				Tools:        s.Goals.Expenses.Tools,
				Variable:     s.Goals.Expenses.Variable,
				Campaigns:    s.Campaigns,
				PaidGroupIDs: PaidGroupIDs(s.Groups),
				Window:       w,
			})
			d.Expenses = &period
		}
	}

	return d
}
