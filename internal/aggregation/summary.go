package aggregation

import "marketingops/internal/domain"

// Summary is the KPI header of the dashboard.
type Summary struct {
	Leads                int      `json:"leads"`
	Opportunities        int      `json:"opportunities"`
	Conversions          int      `json:"conversions"`
	Discarded            int      `json:"discarded"`
	Revenue              float64  `json:"revenue"`
	Pipeline             float64  `json:"pipeline"`
	AdSpend              float64  `json:"adSpend"`
	ROAS                 *float64 `json:"roas"`
	CPL                  *float64 `json:"cpl"`
	CPA                  *float64 `json:"cpa"`
	LeadToConversionRate float64  `json:"leadToConversionRate"`
	ActiveCampaigns      int      `json:"activeCampaigns"`
	UniqueChannels       int      `json:"uniqueChannels"`
}

// Summarize totals the snapshot. Ad spend counts paid-channel campaigns only,
// and the ratios use it against all leads and conversions.
func Summarize(leads []domain.Lead, campaigns []domain.Campaign, groups []domain.CampaignGroup) Summary {
	var counts stageCounts
	channels := make(map[domain.Channel]bool)
	pipeline := 0.0
	for _, lead := range leads {
		counts.add(lead)
		channels[lead.Channel] = true
		if lead.Stage == domain.StageOpportunity {
			pipeline += lead.Value()
		}
	}

	paid := PaidGroupIDs(groups)
	spend := 0.0
	active := 0
	for _, c := range campaigns {
		if paid[c.GroupID] {
			spend += c.Cost
		}
		if c.Status == domain.StatusActive {
			active++
		}
	}

	return Summary{
		Leads:                counts.Leads,
		Opportunities:        counts.Opportunities,
		Conversions:          counts.Conversions,
		Discarded:            counts.Discarded,
		Revenue:              counts.Revenue,
		Pipeline:             pipeline,
		AdSpend:              spend,
		ROAS:                 ratio(counts.Revenue, spend),
		CPL:                  ratio(spend, float64(counts.Leads)),
		CPA:                  ratio(spend, float64(counts.Conversions)),
		LeadToConversionRate: percentOf(float64(counts.Conversions), float64(counts.Leads)),
		ActiveCampaigns:      active,
		UniqueChannels:       len(channels),
	}
}
