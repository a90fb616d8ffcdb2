package aggregation

import (
	"sort"

	"marketingops/internal/domain"
)

// ChannelRow is the per-channel lead performance line.
type ChannelRow struct {
	Channel                     domain.Channel `json:"channel"`
	Leads                       int            `json:"leads"`
	Opportunities               int            `json:"opportunities"`
	Conversions                 int            `json:"conversions"`
	LeadToOpportunityRate       float64        `json:"leadToOpportunityRate"`
	OpportunityToConversionRate float64        `json:"opportunityToConversionRate"`
}

// ChannelRollup tallies leads per distinct channel value, most leads first.
func ChannelRollup(leads []domain.Lead) []ChannelRow {
	counts := make(map[domain.Channel]*stageCounts)
	for _, lead := range leads {
		c, ok := counts[lead.Channel]
		if !ok {
			c = &stageCounts{}
			counts[lead.Channel] = c
		}
		c.add(lead)
	}

	rows := make([]ChannelRow, 0, len(counts))
	for channel, c := range counts {
		rows = append(rows, ChannelRow{
			Channel:                     channel,
			Leads:                       c.Leads,
			Opportunities:               c.Opportunities,
			Conversions:                 c.Conversions,
			LeadToOpportunityRate:       percentOf(float64(c.Opportunities), float64(c.Leads)),
			OpportunityToConversionRate: percentOf(float64(c.Conversions), float64(c.Opportunities)),
		})
	}

	// deterministic order for equal counts
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Leads != rows[j].Leads {
			return rows[i].Leads > rows[j].Leads
		}
		return rows[i].Channel < rows[j].Channel
	})

	return rows
}
