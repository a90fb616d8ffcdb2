package aggregation

import (
	"math"
	"sort"

	"marketingops/internal/domain"
)

// Progress is actual against goal. Percent is unclamped for display;
// BarWidth is capped at 100 for progress bars.
type Progress struct {
	Actual   float64 `json:"actual"`
	Goal     float64 `json:"goal"`
	Percent  float64 `json:"percent"`
	BarWidth float64 `json:"barWidth"`
}

// ProgressPercent is actual/goal*100, or 0 when no positive goal is set.
func ProgressPercent(actual, goal float64) float64 {
	if goal > 0 {
		return actual / goal * 100
	}
	return 0
}

func GoalProgress(actual, goal float64) Progress {
	pct := ProgressPercent(actual, goal)
	return Progress{
		Actual:   actual,
		Goal:     goal,
		Percent:  pct,
		BarWidth: math.Min(pct, 100),
	}
}

// StageProgress is funnel progress for one stage target.
type StageProgress struct {
	Stage domain.Stage `json:"stage"`
	Progress
}

// FunnelGoalProgress compares leads per stage with the funnel targets. A lead
// counts toward every stage it has passed, as in the funnel rollup.
func FunnelGoalProgress(leads []domain.Lead, targets map[domain.Stage]float64) []StageProgress {
	reached := make(map[domain.Stage]float64, len(domain.Stages))
	for _, lead := range leads {
		reached[domain.StageLead]++
		switch lead.Stage {
		case domain.StageQualified:
			reached[domain.StageQualified]++
		case domain.StageOpportunity:
			reached[domain.StageQualified]++
			reached[domain.StageOpportunity]++
		case domain.StageConversion:
			reached[domain.StageQualified]++
			reached[domain.StageOpportunity]++
			reached[domain.StageConversion]++
		case domain.StageDiscarded:
			reached[domain.StageDiscarded]++
		}
	}

	out := make([]StageProgress, 0, len(targets))
	for _, stage := range domain.Stages {
		goal, ok := targets[stage]
		if !ok {
			continue
		}
		out = append(out, StageProgress{Stage: stage, Progress: GoalProgress(reached[stage], goal)})
	}
	return out
}

// MetricProgress is channel metric progress.
type MetricProgress struct {
	Channel domain.Channel `json:"channel"`
	Metric  string         `json:"metric"`
	Progress
}

// ChannelGoalProgress sums campaign metric bags per channel and compares them
// with the channel targets. Cost is available as the "cost" metric.
func ChannelGoalProgress(campaigns []domain.Campaign, groups []domain.CampaignGroup, targets map[domain.Channel]map[string]float64) []MetricProgress {
	channelOf := make(map[string]domain.Channel, len(groups))
	for _, g := range groups {
		channelOf[g.ID] = g.Channel
	}

	actual := make(map[domain.Channel]map[string]float64)
	for _, c := range campaigns {
		channel, ok := channelOf[c.GroupID]
		if !ok {
			continue
		}
		if actual[channel] == nil {
			actual[channel] = make(map[string]float64)
		}
		for name, v := range c.Metrics {
			actual[channel][name] += v
		}
		actual[channel]["cost"] += c.Cost
	}

	var out []MetricProgress
	for _, channel := range domain.Channels {
		metrics, ok := targets[channel]
		if !ok {
			continue
		}
		names := make([]string, 0, len(metrics))
		for name := range metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out = append(out, MetricProgress{
				Channel:  channel,
				Metric:   name,
				Progress: GoalProgress(actual[channel][name], metrics[name]),
			})
		}
	}
	return out
}
