package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_JSONRoundTrip(t *testing.T) {
	type doc struct {
		Added Date  `json:"added"`
		End   *Date `json:"end,omitempty"`
	}

	var d doc
	require.NoError(t, json.Unmarshal([]byte(`{"added":"2024-03-15"}`), &d))
	assert.Equal(t, NewDate(2024, time.March, 15), d.Added)
	assert.Nil(t, d.End)

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"added":"2024-03-15"}`, string(out))
}

func TestDate_RejectsBadFormat(t *testing.T) {
	var d Date
	err := json.Unmarshal([]byte(`"15/03/2024"`), &d)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestWindow_Contains(t *testing.T) {
	w := Window{From: NewDate(2024, 1, 1), To: NewDate(2024, 1, 31)}

	assert.True(t, w.Contains(NewDate(2024, 1, 1)))
	assert.True(t, w.Contains(NewDate(2024, 1, 31)))
	assert.False(t, w.Contains(NewDate(2024, 2, 1)))
	assert.False(t, w.Contains(Date{}))

	open := Window{From: NewDate(2024, 1, 1)}
	assert.True(t, open.Contains(NewDate(2030, 1, 1)))
	assert.Equal(t, "2024-01-01..open", open.Key())
}

func TestWindow_ValidateRejectsInverted(t *testing.T) {
	w := Window{From: NewDate(2024, 2, 1), To: NewDate(2024, 1, 1)}
	assert.ErrorIs(t, w.Validate(), ErrValidation)
}

func TestLead_MoveToClearsDealValue(t *testing.T) {
	value := 5000.0
	lead := Lead{Name: "Ana", Stage: StageOpportunity, DealValue: &value, DateAdded: NewDate(2024, 1, 1)}

	require.NoError(t, lead.MoveTo(StageQualified, NewDate(2024, 1, 5)))

	assert.Equal(t, StageQualified, lead.Stage)
	assert.Nil(t, lead.DealValue)
	assert.Equal(t, NewDate(2024, 1, 5), lead.StageDates[StageQualified])
}

func TestLead_MoveToKeepsFirstStageDate(t *testing.T) {
	lead := Lead{Stage: StageLead}
	require.NoError(t, lead.MoveTo(StageOpportunity, NewDate(2024, 1, 2)))
	require.NoError(t, lead.MoveTo(StageQualified, NewDate(2024, 1, 3)))
	require.NoError(t, lead.MoveTo(StageOpportunity, NewDate(2024, 1, 9)))

	assert.Equal(t, NewDate(2024, 1, 2), lead.StageDates[StageOpportunity])
}

func TestLead_MoveToRespectsTransitionTable(t *testing.T) {
	saved := StageTransitions[StageDiscarded]
	StageTransitions[StageDiscarded] = map[Stage]bool{StageLead: true}
	t.Cleanup(func() { StageTransitions[StageDiscarded] = saved })

	lead := Lead{Stage: StageDiscarded}
	err := lead.MoveTo(StageConversion, NewDate(2024, 1, 1))
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.NoError(t, lead.MoveTo(StageLead, NewDate(2024, 1, 1)))
}

func TestStageTransitions_AllowEveryMove(t *testing.T) {
	for _, from := range Stages {
		for _, to := range Stages {
			assert.True(t, CanTransitionStage(from, to), "%s -> %s", from, to)
		}
	}
}

func TestChannel_IsPaid(t *testing.T) {
	paid := map[Channel]bool{ChannelMetaAds: true, ChannelGoogleAds: true, ChannelLinkedInAds: true}
	for _, c := range Channels {
		assert.Equal(t, paid[c], c.IsPaid(), string(c))
	}
	assert.False(t, Channel("TikTok Ads").IsPaid())
}

func TestCampaign_CompletedNeedsEndDate(t *testing.T) {
	c := Campaign{Name: "Spring", GroupID: "g1", Status: StatusCompleted, StartDate: NewDate(2024, 3, 1)}
	assert.ErrorIs(t, c.Validate(), ErrValidation)

	end := NewDate(2024, 3, 31)
	c.EndDate = &end
	assert.NoError(t, c.Validate())

	before := NewDate(2024, 2, 1)
	c.EndDate = &before
	assert.ErrorIs(t, c.Validate(), ErrValidation)
}

func TestMetricSeries_SetValue(t *testing.T) {
	s := MetricSeries{Name: "Followers", Source: SourceManual}
	require.NoError(t, s.SetValue("2024-01", "1,200"))
	require.NoError(t, s.SetValue("2024-02", "1,350"))
	require.NoError(t, s.SetValue("2024-01", "1,250"))

	assert.Equal(t, []SeriesPoint{{Month: "2024-01", Value: "1,250"}, {Month: "2024-02", Value: "1,350"}}, s.Points)

	api := MetricSeries{Name: "Spend", Source: SourceAPI}
	assert.ErrorIs(t, api.SetValue("2024-01", "10"), ErrReadOnlySeries)
}

func TestGoalSettings_Validate(t *testing.T) {
	g := DefaultGoalSettings()
	g.Funnel[StageConversion] = 10
	g.Expenses.Variable = append(g.Expenses.Variable, VariableExpense{ID: "v1", Name: "Booth", Amount: 900})
	assert.ErrorIs(t, g.Validate(), ErrValidation)

	g.Expenses.Variable[0].Date = NewDate(2024, 4, 1)
	assert.NoError(t, g.Validate())

	g.Channels[Channel("Fax")] = map[string]float64{"clicks": 1}
	assert.ErrorIs(t, g.Validate(), ErrValidation)
}
