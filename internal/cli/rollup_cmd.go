package cli

import (
	"fmt"
	"strings"

	"marketingops/internal/aggregation"
	"marketingops/internal/domain"

	"github.com/spf13/cobra"
)

func newFunnelCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "funnel",
		Short: "Lead counts, value and conversion rate per funnel bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := opts.load()
			if err != nil {
				return err
			}
			return opts.emit(cmd.OutOrStdout(), d.Funnel, func() string {
				rows := make([][]string, 0, len(d.Funnel))
				for _, step := range d.Funnel {
					rows = append(rows, []string{string(step.Bucket), formatInt(step.Count), formatMoney(step.Value), formatPercent(step.Rate)})
				}
				return RenderTable([]string{"STAGE", "LEADS", "VALUE", "RATE"}, rows)
			})
		},
	}
}

func newChannelsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "channels",
		Short: "Lead performance per channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := opts.load()
			if err != nil {
				return err
			}
			return opts.emit(cmd.OutOrStdout(), d.Channels, func() string {
				rows := make([][]string, 0, len(d.Channels))
				for _, c := range d.Channels {
					name := string(c.Channel)
					if name == "" {
						name = styleDim.Render("(none)")
					}
					rows = append(rows, []string{
						name,
						formatInt(c.Leads),
						formatInt(c.Opportunities),
						formatInt(c.Conversions),
						formatPercent(c.LeadToOpportunityRate),
						formatPercent(c.OpportunityToConversionRate),
					})
				}
				return RenderTable([]string{"CHANNEL", "LEADS", "OPPS", "CONV", "L→O", "O→C"}, rows)
			})
		},
	}
}

func newGroupsCmd(opts *options) *cobra.Command {
	var sortKey, dir string

	cmd := &cobra.Command{
		Use:   "groups",
		Short: "Campaign-group performance with paid-channel ratios",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := aggregation.ParseGroupSortKey(sortKey)
			if err != nil {
				return err
			}
			direction, err := aggregation.ParseSortDirection(dir)
			if err != nil {
				return err
			}
			_, d, err := opts.load()
			if err != nil {
				return err
			}

			groups := aggregation.SortGroupRows(d.Groups, key, direction)
			return opts.emit(cmd.OutOrStdout(), groups, func() string {
				rows := make([][]string, 0, len(groups))
				for _, g := range groups {
					rows = append(rows, []string{
						g.Group,
						string(g.Channel),
						formatInt(g.Leads),
						formatInt(g.Conversions),
						formatMoney(g.Revenue),
						formatMoney(g.Cost),
						formatRatio(g.ROAS),
						formatRatio(g.CPL),
						formatRatio(g.CPA),
					})
				}
				return RenderTable([]string{"GROUP", "CHANNEL", "LEADS", "CONV", "REVENUE", "COST", "ROAS", "CPL", "CPA"}, rows)
			})
		},
	}

	cmd.Flags().StringVar(&sortKey, "sort", string(aggregation.SortByOrder), "sort column: order, leads, opportunities, conversions, revenue, cost, budget, roas, cpl, cpa")
	cmd.Flags().StringVar(&dir, "dir", string(aggregation.Ascending), "sort direction: asc or desc")
	return cmd
}

func newExpensesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "expenses",
		Short: "Prorated marketing cost for a bounded window",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, d, err := opts.load()
			if err != nil {
				return err
			}
			if !d.Window.Bounded() {
				return fmt.Errorf("expenses need both --from and --to")
			}

			period := d.Expenses
			if period == nil {
				p := aggregation.ExpenseBreakdown(aggregation.ExpenseInput{
					Campaigns:    snap.Campaigns,
					PaidGroupIDs: aggregation.PaidGroupIDs(snap.Groups),
					Window:       d.Window,
				})
				period = &p
			}

			return opts.emit(cmd.OutOrStdout(), period, func() string {
				var b strings.Builder
				fmt.Fprintf(&b, "%s %s  %s days, %s months\n\n",
					styleTitle.Render("Expenses"), d.Window.Key(),
					formatMoney(period.Days), formatMoney(period.Months))
				b.WriteString(RenderTable([]string{"ITEM", "AMOUNT"}, [][]string{
					{"Salaries", formatMoney(period.Salaries)},
					{"Tools", formatMoney(period.Tools)},
					{"Ad spend", formatMoney(period.AdSpend)},
					{"Variable", formatMoney(period.Variable)},
					{styleTitle.Render("Total"), styleTitle.Render(formatMoney(period.Total))},
				}))
				return b.String()
			})
		},
	}
}

func newSummaryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Headline KPIs",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := opts.load()
			if err != nil {
				return err
			}
			s := d.Summary
			return opts.emit(cmd.OutOrStdout(), s, func() string {
				return RenderTable([]string{"KPI", "VALUE"}, [][]string{
					{"Leads", formatInt(s.Leads)},
					{"Opportunities", formatInt(s.Opportunities)},
					{"Conversions", formatInt(s.Conversions)},
					{"Discarded", formatInt(s.Discarded)},
					{"Revenue", formatMoney(s.Revenue)},
					{"Pipeline", formatMoney(s.Pipeline)},
					{"Ad spend", formatMoney(s.AdSpend)},
					{"ROAS", formatRatio(s.ROAS)},
					{"CPL", formatRatio(s.CPL)},
					{"CPA", formatRatio(s.CPA)},
					{"Lead → conversion", formatPercent(s.LeadToConversionRate)},
					{"Active campaigns", formatInt(s.ActiveCampaigns)},
					{"Channels", formatInt(s.UniqueChannels)},
				})
			})
		},
	}
}

func newPlanCmd(opts *options) *cobra.Command {
	var inputs domain.CalculatorInputs

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Reverse funnel needed to reach a revenue target",
		Long:  "Uses the calculator inputs from the snapshot goals; any flag given overrides the stored value.",
		RunE: func(cmd *cobra.Command, args []string) error {
			calc := domain.CalculatorInputs{}
			if opts.snapshot != "" {
				snap, _, err := opts.load()
				if err != nil {
					return err
				}
				if snap.Goals != nil {
					calc = snap.Goals.Calculator
				}
			}
			flags := cmd.Flags()
			if flags.Changed("revenue") {
				calc.TargetRevenue = inputs.TargetRevenue
			}
			if flags.Changed("deal") {
				calc.AverageDealValue = inputs.AverageDealValue
			}
			if flags.Changed("lead-rate") {
				calc.LeadToOpportunityRate = inputs.LeadToOpportunityRate
			}
			if flags.Changed("opp-rate") {
				calc.OpportunityToConversionRate = inputs.OpportunityToConversionRate
			}
			if flags.Changed("cpl") {
				calc.CostPerLead = inputs.CostPerLead
			}

			plan := aggregation.PlanFunnel(calc)
			return opts.emit(cmd.OutOrStdout(), plan, func() string {
				return RenderTable([]string{"NEED", "VALUE"}, [][]string{
					{"Conversions", formatInt(plan.Conversions)},
					{"Opportunities", formatInt(plan.Opportunities)},
					{"Leads", formatInt(plan.Leads)},
					{"Budget", formatMoney(plan.Budget)},
				})
			})
		},
	}

	cmd.Flags().Float64Var(&inputs.TargetRevenue, "revenue", 0, "target revenue")
	cmd.Flags().Float64Var(&inputs.AverageDealValue, "deal", 0, "average deal value")
	cmd.Flags().Float64Var(&inputs.LeadToOpportunityRate, "lead-rate", 0, "lead to opportunity rate, percent")
	cmd.Flags().Float64Var(&inputs.OpportunityToConversionRate, "opp-rate", 0, "opportunity to conversion rate, percent")
	cmd.Flags().Float64Var(&inputs.CostPerLead, "cpl", 0, "cost per lead")
	return cmd
}

func newGoalsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "goals",
		Short: "Progress against funnel and channel goals",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := opts.load()
			if err != nil {
				return err
			}
			payload := struct {
				Funnel   []aggregation.StageProgress  `json:"funnel"`
				Channels []aggregation.MetricProgress `json:"channels"`
			}{d.FunnelGoals, d.ChannelGoals}

			return opts.emit(cmd.OutOrStdout(), payload, func() string {
				rows := make([][]string, 0, len(d.FunnelGoals)+len(d.ChannelGoals))
				for _, p := range d.FunnelGoals {
					rows = append(rows, []string{"funnel", string(p.Stage), formatMoney(p.Actual), formatMoney(p.Goal), formatProgress(p.Percent)})
				}
				for _, p := range d.ChannelGoals {
					rows = append(rows, []string{string(p.Channel), p.Metric, formatMoney(p.Actual), formatMoney(p.Goal), formatProgress(p.Percent)})
				}
				if len(rows) == 0 {
					return styleDim.Render("No goals set") + "\n"
				}
				return RenderTable([]string{"SCOPE", "TARGET", "ACTUAL", "GOAL", "PROGRESS"}, rows)
			})
		},
	}
}
