package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"marketingops/internal/aggregation"
	"marketingops/internal/domain"
	"marketingops/internal/infrastructure"
	"marketingops/pkg/logger"
	"marketingops/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCache struct {
	mu          sync.Mutex
	entries     map[string][]byte
	generation  int64
	invalidated int
}

func newCountingCache() *countingCache {
	return &countingCache{entries: make(map[string][]byte)}
}

func (c *countingCache) Get(ctx context.Context, key string) ([]byte, int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	return data, c.generation, ok, nil
}

func (c *countingCache) Set(ctx context.Context, key string, generation int64, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation == c.generation {
		c.entries[key] = value
	}
	return nil
}

func (c *countingCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]byte)
	c.generation++
	c.invalidated++
	return nil
}

type fixture struct {
	store     *infrastructure.DocumentStore
	cache     *countingCache
	metrics   *metrics.Metrics
	crm       *CRMService
	campaigns *CampaignService
	goals     *GoalService
	platforms *PlatformService
	dashboard *DashboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.Discard()
	m := metrics.NewIsolated()
	store := infrastructure.NewMemoryStore(log, m)
	cache := newCountingCache()

	f := &fixture{
		store:     store,
		cache:     cache,
		metrics:   m,
		crm:       NewCRMService(store, cache, log, m),
		campaigns: NewCampaignService(store, cache, log, m),
		goals:     NewGoalService(store, cache, log, m),
		platforms: NewPlatformService(store, log, m),
		dashboard: NewDashboardService(store, cache, nil, log, m),
	}
	fixed := func() time.Time { return time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC) }
	f.crm.now = fixed
	f.dashboard.now = fixed
	return f
}

func (f *fixture) group(t *testing.T, name string, channel domain.Channel) *domain.CampaignGroup {
	t.Helper()
	g, err := f.campaigns.CreateGroup(context.Background(), GroupInput{Name: name, Channel: channel})
	require.NoError(t, err)
	return g
}

func (f *fixture) campaign(t *testing.T, groupID, name string, cost float64, start domain.Date) *domain.Campaign {
	t.Helper()
	c, err := f.campaigns.CreateCampaign(context.Background(), CampaignInput{
		Name: name, GroupID: groupID, StartDate: start, Cost: cost,
	})
	require.NoError(t, err)
	return c
}

func TestCRMService_CreateLeadCopiesAttribution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.group(t, "Search", domain.ChannelGoogleAds)
	c := f.campaign(t, g.ID, "Spring", 1000, domain.NewDate(2024, 3, 1))

	lead, err := f.crm.CreateLead(ctx, LeadInput{Name: "Ana", CampaignID: c.ID})
	require.NoError(t, err)

	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, domain.StageLead, lead.Stage)
	assert.Equal(t, domain.NewDate(2024, 6, 15), lead.DateAdded)
	assert.Equal(t, g.ID, lead.CampaignGroupID)
	assert.Equal(t, "Search", lead.CampaignGroup)
	assert.Equal(t, "Spring", lead.Campaign)
	assert.Equal(t, domain.ChannelGoogleAds, lead.Channel)
	assert.Equal(t, 3, f.cache.invalidated)
}

func TestCRMService_CreateLeadUnknownReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.crm.CreateLead(ctx, LeadInput{Name: "Ana", CampaignGroupID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.crm.CreateLead(ctx, LeadInput{Name: "Ana", CampaignID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.crm.CreateLead(ctx, LeadInput{Name: "Ana", Channel: "Fax"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	leads, err := f.crm.ListLeads(ctx, LeadFilter{})
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestCRMService_ChangeStage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lead, err := f.crm.CreateLead(ctx, LeadInput{Name: "Ana", DateAdded: domain.NewDate(2024, 6, 1)})
	require.NoError(t, err)

	value := 7000.0
	lead, err = f.crm.ChangeStage(ctx, lead.ID, domain.StageOpportunity, &value)
	require.NoError(t, err)
	require.NotNil(t, lead.DealValue)
	assert.Equal(t, 7000.0, *lead.DealValue)
	assert.Equal(t, domain.NewDate(2024, 6, 15), lead.StageDates[domain.StageOpportunity])
	assert.Equal(t, domain.NewDate(2024, 6, 1), lead.StageDates[domain.StageLead])

	lead, err = f.crm.ChangeStage(ctx, lead.ID, domain.StageDiscarded, nil)
	require.NoError(t, err)
	assert.Nil(t, lead.DealValue)

	stored, err := f.crm.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageDiscarded, stored.Stage)

	_, err = f.crm.ChangeStage(ctx, lead.ID, "Won", nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.crm.ChangeStage(ctx, "nope", domain.StageLead, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCRMService_UpdateLeadReplacesDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	value := 100.0
	lead, err := f.crm.CreateLead(ctx, LeadInput{Name: "Ana", Company: "Acme", Stage: domain.StageOpportunity, DealValue: &value})
	require.NoError(t, err)

	updated, err := f.crm.UpdateLead(ctx, lead.ID, LeadInput{Name: "Ana B", Stage: domain.StageQualified})
	require.NoError(t, err)
	assert.Empty(t, updated.Company)
	assert.Nil(t, updated.DealValue)
	assert.Equal(t, lead.DateAdded, updated.DateAdded)
	assert.Contains(t, updated.StageDates, domain.StageOpportunity)
	assert.Contains(t, updated.StageDates, domain.StageQualified)
}

func TestCRMService_ListLeadsFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.group(t, "Newsletter", domain.ChannelEmail)

	_, err := f.crm.CreateLead(ctx, LeadInput{Name: "A", CampaignGroupID: g.ID, DateAdded: domain.NewDate(2024, 5, 2)})
	require.NoError(t, err)
	_, err = f.crm.CreateLead(ctx, LeadInput{Name: "B", Channel: domain.ChannelWebsite, DateAdded: domain.NewDate(2024, 5, 20)})
	require.NoError(t, err)
	_, err = f.crm.CreateLead(ctx, LeadInput{Name: "C", Channel: domain.ChannelWebsite, DateAdded: domain.NewDate(2024, 4, 1)})
	require.NoError(t, err)

	all, err := f.crm.ListLeads(ctx, LeadFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "B", all[0].Name)

	web, err := f.crm.ListLeads(ctx, LeadFilter{Channel: domain.ChannelWebsite, Window: domain.Window{From: domain.NewDate(2024, 5, 1)}})
	require.NoError(t, err)
	require.Len(t, web, 1)
	assert.Equal(t, "B", web[0].Name)

	byGroup, err := f.crm.ListLeads(ctx, LeadFilter{GroupID: g.ID})
	require.NoError(t, err)
	require.Len(t, byGroup, 1)
	assert.Equal(t, domain.ChannelEmail, byGroup[0].Channel)
}

func TestCampaignService_GroupRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.group(t, "Brand", domain.ChannelGoogleAds)
	b := f.group(t, "Prospecting", domain.ChannelMetaAds)
	assert.Equal(t, 0, a.Order)
	assert.Equal(t, 1, b.Order)

	_, err := f.campaigns.UpdateGroup(ctx, a.ID, GroupInput{Name: "Brand", Channel: domain.ChannelMetaAds})
	assert.ErrorIs(t, err, domain.ErrImmutableChannel)

	renamed, err := f.campaigns.UpdateGroup(ctx, a.ID, GroupInput{Name: "Brand 2024"})
	require.NoError(t, err)
	assert.Equal(t, domain.ChannelGoogleAds, renamed.Channel)

	groups, err := f.campaigns.ReorderGroups(ctx, []string{b.ID, a.ID})
	require.NoError(t, err)
	assert.Equal(t, b.ID, groups[0].ID)
	assert.Equal(t, 1, groups[1].Order)

	_, err = f.campaigns.ReorderGroups(ctx, []string{"ghost"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	f.campaign(t, a.ID, "Always on", 10, domain.NewDate(2024, 1, 1))
	assert.ErrorIs(t, f.campaigns.DeleteGroup(ctx, a.ID), domain.ErrGroupInUse)
	assert.NoError(t, f.campaigns.DeleteGroup(ctx, b.ID))
	assert.ErrorIs(t, f.campaigns.DeleteGroup(ctx, b.ID), domain.ErrNotFound)
}

func TestCampaignService_CampaignRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.group(t, "Newsletter", domain.ChannelEmail)

	_, err := f.campaigns.CreateCampaign(ctx, CampaignInput{Name: "X", GroupID: "missing", StartDate: domain.NewDate(2024, 1, 1)})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.campaigns.CreateCampaign(ctx, CampaignInput{
		Name: "X", GroupID: g.ID, StartDate: domain.NewDate(2024, 1, 1), Metrics: map[string]float64{"impressions": 10},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	c, err := f.campaigns.CreateCampaign(ctx, CampaignInput{
		Name: "June send", GroupID: g.ID, StartDate: domain.NewDate(2024, 6, 1), Metrics: map[string]float64{"sent": 5000},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, c.Status)

	_, err = f.campaigns.ChangeStatus(ctx, c.ID, domain.StatusCompleted, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	end := domain.NewDate(2024, 6, 30)
	c, err = f.campaigns.ChangeStatus(ctx, c.ID, domain.StatusCompleted, &end)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, c.Status)

	list, err := f.campaigns.ListCampaigns(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, end, *list[0].EndDate)

	require.NoError(t, f.campaigns.DeleteCampaign(ctx, c.ID))
	assert.ErrorIs(t, f.campaigns.DeleteCampaign(ctx, c.ID), domain.ErrNotFound)
}

func TestCampaignService_StatusTransitionTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.group(t, "Search", domain.ChannelGoogleAds)
	c := f.campaign(t, g.ID, "Q1", 100, domain.NewDate(2024, 1, 1))

	saved := domain.StatusTransitions[domain.StatusActive]
	domain.StatusTransitions[domain.StatusActive] = map[domain.CampaignStatus]bool{domain.StatusPaused: true}
	t.Cleanup(func() { domain.StatusTransitions[domain.StatusActive] = saved })

	end := domain.NewDate(2024, 2, 1)
	_, err := f.campaigns.ChangeStatus(ctx, c.ID, domain.StatusCompleted, &end)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestGoalService_LoadDefaultsAndSave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	goals, err := f.goals.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, goals.Funnel)

	goals.Funnel[domain.StageConversion] = 12
	goals.Expenses.Salaries = append(goals.Expenses.Salaries, domain.RecurringExpense{ID: "s1", Name: "Manager", Amount: 5000})
	_, err = f.goals.Save(ctx, goals)
	require.NoError(t, err)

	loaded, err := f.goals.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12.0, loaded.Funnel[domain.StageConversion])
	assert.Len(t, loaded.Expenses.Salaries, 1)

	loaded.Funnel["Won"] = 1
	_, err = f.goals.Save(ctx, loaded)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGoalService_SyncAdSpend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	paid := f.group(t, "Search", domain.ChannelGoogleAds)
	organic := f.group(t, "Blog", domain.ChannelWebsite)
	spring := f.campaign(t, paid.ID, "Spring", 1200, domain.NewDate(2024, 3, 1))
	f.campaign(t, paid.ID, "Free trial", 0, domain.NewDate(2024, 3, 2))
	f.campaign(t, organic.ID, "SEO", 300, domain.NewDate(2024, 3, 3))

	goals := domain.DefaultGoalSettings()
	goals.Expenses.Variable = []domain.VariableExpense{
		{ID: "m1", Name: "Booth", Amount: 900, Date: domain.NewDate(2024, 4, 1)},
		{ID: "auto-stale", Name: "Ad spend: old", Amount: 50, Date: domain.NewDate(2024, 1, 1), AutoGenerated: true},
	}
	_, err := f.goals.Save(ctx, goals)
	require.NoError(t, err)

	synced, err := f.goals.SyncAdSpend(ctx)
	require.NoError(t, err)

	require.Len(t, synced.Expenses.Variable, 2)
	auto := synced.Expenses.Variable[0]
	assert.Equal(t, "auto-"+spring.ID, auto.ID)
	assert.Equal(t, 1200.0, auto.Amount)
	assert.Equal(t, domain.NewDate(2024, 3, 1), auto.Date)
	assert.True(t, auto.AutoGenerated)
	assert.Equal(t, "m1", synced.Expenses.Variable[1].ID)

	again, err := f.goals.SyncAdSpend(ctx)
	require.NoError(t, err)
	assert.Len(t, again.Expenses.Variable, 2)
}

func TestPlatformService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.platforms.AddSeries(ctx, "LinkedIn", "Followers", domain.SourceManual)
	require.NoError(t, err)
	_, err = f.platforms.AddSeries(ctx, "LinkedIn", "Spend", domain.SourceAPI)
	require.NoError(t, err)
	_, err = f.platforms.AddSeries(ctx, "LinkedIn", "Followers", domain.SourceManual)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	parsed, err := f.platforms.SetValue(ctx, "LinkedIn", "Followers", "Jan", "1,200")
	require.NoError(t, err)
	_, err = f.platforms.SetValue(ctx, "LinkedIn", "Followers", "Feb", "lots")
	require.NoError(t, err)
	assert.Equal(t, 1200.0, parsed.Series[0].Total)

	_, err = f.platforms.SetValue(ctx, "LinkedIn", "Spend", "Jan", "10")
	assert.ErrorIs(t, err, domain.ErrReadOnlySeries)
	_, err = f.platforms.SetValue(ctx, "TikTok", "Views", "Jan", "10")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := f.platforms.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].Series[0].Defaulted)
	assert.False(t, list[0].Series[1].Editable)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ValuesDefaulted.WithLabelValues("platform_metrics")))
}

func TestDashboardService_ComputesAndCaches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.group(t, "Search", domain.ChannelGoogleAds)
	f.campaign(t, g.ID, "June", 5000, domain.NewDate(2024, 6, 1))

	for i := 0; i < 10; i++ {
		in := LeadInput{Name: "lead", CampaignGroupID: g.ID, DateAdded: domain.NewDate(2024, 6, 2)}
		if i < 2 {
			value := 4000.0
			in.Stage, in.DealValue = domain.StageConversion, &value
		}
		_, err := f.crm.CreateLead(ctx, in)
		require.NoError(t, err)
	}

	w := domain.Window{From: domain.NewDate(2024, 6, 1), To: domain.NewDate(2024, 6, 30)}
	d, err := f.dashboard.Dashboard(ctx, w)
	require.NoError(t, err)
	require.Len(t, d.Groups, 1)
	assert.InDelta(t, 1.6, *d.Groups[0].ROAS, 1e-9)
	assert.Equal(t, 500.0, *d.Groups[0].CPL)
	assert.Equal(t, 2500.0, *d.Groups[0].CPA)
	assert.Nil(t, d.Expenses)

	_, err = f.dashboard.Dashboard(ctx, w)
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RollupCache.WithLabelValues("hit")))

	_, err = f.crm.CreateLead(ctx, LeadInput{Name: "late", CampaignGroupID: g.ID, DateAdded: domain.NewDate(2024, 6, 3)})
	require.NoError(t, err)
	d, err = f.dashboard.Dashboard(ctx, w)
	require.NoError(t, err)
	assert.Equal(t, 11, d.Summary.Leads)

	_, err = f.dashboard.Dashboard(ctx, domain.Window{From: domain.NewDate(2024, 7, 1), To: domain.NewDate(2024, 6, 1)})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// writeAfterListStore runs afterList once, right after the first lead list
// of a snapshot has been read.
type writeAfterListStore struct {
	domain.Store
	leads *writeAfterListLeads
}

func (s *writeAfterListStore) Leads() domain.Collection[domain.Lead] { return s.leads }

type writeAfterListLeads struct {
	domain.Collection[domain.Lead]
	once      sync.Once
	afterList func()
}

func (l *writeAfterListLeads) List(ctx context.Context) ([]domain.Lead, error) {
	leads, err := l.Collection.List(ctx)
	l.once.Do(l.afterList)
	return leads, err
}

func TestDashboardService_WriteDuringSnapshotIsNotCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.group(t, "Search", domain.ChannelGoogleAds)
	_, err := f.crm.CreateLead(ctx, LeadInput{Name: "first", CampaignGroupID: g.ID, DateAdded: domain.NewDate(2024, 6, 2)})
	require.NoError(t, err)

	store := &writeAfterListStore{
		Store: f.store,
		leads: &writeAfterListLeads{
			Collection: f.store.Leads(),
			afterList: func() {
				_, err := f.crm.CreateLead(ctx, LeadInput{Name: "mid-read", CampaignGroupID: g.ID, DateAdded: domain.NewDate(2024, 6, 3)})
				assert.NoError(t, err)
			},
		},
	}
	dashboards := NewDashboardService(store, f.cache, nil, logger.Discard(), f.metrics)
	w := domain.Window{From: domain.NewDate(2024, 6, 1), To: domain.NewDate(2024, 6, 30)}

	d, err := dashboards.Dashboard(ctx, w)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Summary.Leads)

	d, err = dashboards.Dashboard(ctx, w)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Summary.Leads)
	assert.Zero(t, testutil.ToFloat64(f.metrics.RollupCache.WithLabelValues("hit")))

	d, err = dashboards.Dashboard(ctx, w)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Summary.Leads)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RollupCache.WithLabelValues("hit")))
}

func TestDashboardService_Expenses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	goals := domain.DefaultGoalSettings()
	goals.Expenses.Salaries = []domain.RecurringExpense{{ID: "s", Name: "Team", Amount: 5000}}
	_, err := f.goals.Save(ctx, goals)
	require.NoError(t, err)

	period, err := f.dashboard.Expenses(ctx, domain.Window{From: domain.NewDate(2024, 6, 1), To: domain.NewDate(2024, 7, 1)})
	require.NoError(t, err)
	assert.Equal(t, 0.99, period.Months)
	assert.InDelta(t, 4928.13, period.Salaries, 0.01)

	_, err = f.dashboard.Expenses(ctx, domain.Window{From: domain.NewDate(2024, 6, 1)})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDashboardService_GroupsSorted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	search := f.group(t, "Search", domain.ChannelGoogleAds)
	f.group(t, "Blog", domain.ChannelWebsite)
	social := f.group(t, "Social", domain.ChannelMetaAds)
	f.campaign(t, search.ID, "A", 100, domain.NewDate(2024, 1, 1))
	f.campaign(t, social.ID, "B", 100, domain.NewDate(2024, 1, 1))

	value := 400.0
	_, err := f.crm.CreateLead(ctx, LeadInput{Name: "x", CampaignGroupID: social.ID, Stage: domain.StageConversion, DealValue: &value})
	require.NoError(t, err)

	rows, err := f.dashboard.Groups(ctx, domain.Window{}, aggregation.SortByROAS, aggregation.Descending)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Social", rows[0].Group)
	assert.Equal(t, "Search", rows[1].Group)
	assert.Equal(t, "Blog", rows[2].Group)
	assert.Nil(t, rows[2].ROAS)
}

type recordingExporter struct {
	payload []byte
	at      time.Time
	err     error
}

func (r *recordingExporter) Export(ctx context.Context, payload []byte, generatedAt time.Time) error {
	r.payload, r.at = payload, generatedAt
	return r.err
}

func TestDashboardService_Export(t *testing.T) {
	f := newFixture(t)
	exporter := &recordingExporter{}
	f.dashboard.exportClient = exporter

	res, err := f.dashboard.Export(context.Background(), domain.Window{})
	require.NoError(t, err)
	assert.Equal(t, len(exporter.payload), res.Bytes)
	assert.Contains(t, string(exporter.payload), `"funnel"`)
	assert.Equal(t, time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC), exporter.at)

	exporter.err = errors.New("sink down")
	_, err = f.dashboard.Export(context.Background(), domain.Window{})
	assert.ErrorContains(t, err, "sink down")
}

type stubGenerator struct {
	prompt domain.ReportPrompt
	out    string
	err    error
}

func (s *stubGenerator) Generate(ctx context.Context, prompt domain.ReportPrompt) (string, error) {
	s.prompt = prompt
	return s.out, s.err
}

func (s *stubGenerator) Model() string { return "stub-model" }

func TestReportService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	disabled := NewReportService(f.dashboard, f.platforms, nil, logger.Discard(), f.metrics)
	_, err := disabled.Generate(ctx, ReportRequest{Instruction: "x"})
	assert.ErrorIs(t, err, domain.ErrReportsDisabled)

	gen := &stubGenerator{out: "# Report"}
	svc := NewReportService(f.dashboard, f.platforms, gen, logger.Discard(), f.metrics)

	_, err = svc.Generate(ctx, ReportRequest{Instruction: "  "})
	assert.ErrorIs(t, err, domain.ErrValidation)

	report, err := svc.Generate(ctx, ReportRequest{Instruction: "How is the funnel?"})
	require.NoError(t, err)
	assert.Equal(t, "# Report", report.Markdown)
	assert.Equal(t, "stub-model", report.Model)
	assert.Equal(t, "How is the funnel?", gen.prompt.Instruction)
	assert.Contains(t, string(gen.prompt.Context), `"dashboard"`)
	assert.NotEmpty(t, gen.prompt.System)

	gen.err = errors.New("quota")
	_, err = svc.Generate(ctx, ReportRequest{Instruction: "again"})
	assert.ErrorContains(t, err, "quota")
}
