package aggregation

import (
	"fmt"
	"sort"
	"strings"

	"marketingops/internal/domain"
)

// GroupRow is the campaign-group performance line. Budget, ROAS, CPL and CPA
// are nil for non-paid channels and whenever their denominator is zero.
type GroupRow struct {
	GroupID       string         `json:"groupId"`
	Group         string         `json:"group"`
	Channel       domain.Channel `json:"channel"`
	Order         int            `json:"order"`
	Leads         int            `json:"leads"`
	Opportunities int            `json:"opportunities"`
	Conversions   int            `json:"conversions"`
	Revenue       float64        `json:"revenue"`
	Cost          float64        `json:"cost"`
	Budget        *float64       `json:"budget"`
	ROAS          *float64       `json:"roas"`
	CPL           *float64       `json:"cpl"`
	CPA           *float64       `json:"cpa"`
}

// belongsTo joins on the group id when the lead has one and falls back to the
// copied group name for leads recorded before ids were kept.
func belongsTo(lead domain.Lead, group domain.CampaignGroup) bool {
	if lead.CampaignGroupID != "" {
		return lead.CampaignGroupID == group.ID
	}
	return lead.CampaignGroup != "" && lead.CampaignGroup == group.Name
}

// GroupRollup computes one row per group, in display order.
func GroupRollup(leads []domain.Lead, campaigns []domain.Campaign, groups []domain.CampaignGroup) []GroupRow {
	costByGroup := make(map[string]float64)
	for _, c := range campaigns {
		costByGroup[c.GroupID] += c.Cost
	}

	rows := make([]GroupRow, 0, len(groups))
	for _, g := range groups {
		var counts stageCounts
		for _, lead := range leads {
			if belongsTo(lead, g) {
				counts.add(lead)
			}
		}

		row := GroupRow{
			GroupID:       g.ID,
			Group:         g.Name,
			Channel:       g.Channel,
			Order:         g.Order,
			Leads:         counts.Leads,
			Opportunities: counts.Opportunities,
			Conversions:   counts.Conversions,
			Revenue:       counts.Revenue,
			Cost:          costByGroup[g.ID],
		}

		if g.Channel.IsPaid() {
			budget := row.Cost
			row.Budget = &budget
			row.ROAS = ratio(row.Revenue, row.Cost)
			row.CPL = ratio(row.Cost, float64(row.Leads))
			row.CPA = ratio(row.Cost, float64(row.Conversions))
		}

		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Order < rows[j].Order })
	return rows
}

// GroupSortKey names a sortable group column.
type GroupSortKey string

const (
	SortByOrder         GroupSortKey = "order"
	SortByLeads         GroupSortKey = "leads"
	SortByOpportunities GroupSortKey = "opportunities"
	SortByConversions   GroupSortKey = "conversions"
	SortByRevenue       GroupSortKey = "revenue"
	SortByCost          GroupSortKey = "cost"
	SortByBudget        GroupSortKey = "budget"
	SortByROAS          GroupSortKey = "roas"
	SortByCPL           GroupSortKey = "cpl"
	SortByCPA           GroupSortKey = "cpa"
)

type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

func ParseGroupSortKey(s string) (GroupSortKey, error) {
	key := GroupSortKey(strings.ToLower(strings.TrimSpace(s)))
	if key == "" {
		return SortByOrder, nil
	}
	if _, ok := (GroupRow{}).column(key); !ok && !nullableColumn(key) {
		return "", fmt.Errorf("%w: unknown sort column %q", domain.ErrValidation, s)
	}
	return key, nil
}

func ParseSortDirection(s string) (SortDirection, error) {
	switch SortDirection(strings.ToLower(strings.TrimSpace(s))) {
	case "", Ascending:
		return Ascending, nil
	case Descending:
		return Descending, nil
	}
	return "", fmt.Errorf("%w: sort direction must be asc or desc, got %q", domain.ErrValidation, s)
}

func nullableColumn(key GroupSortKey) bool {
	switch key {
	case SortByBudget, SortByROAS, SortByCPL, SortByCPA:
		return true
	}
	return false
}

// column returns the numeric value for key and whether it is present.
func (r GroupRow) column(key GroupSortKey) (float64, bool) {
	deref := func(p *float64) (float64, bool) {
		if p == nil {
			return 0, false
		}
		return *p, true
	}
	switch key {
	case SortByOrder:
		return float64(r.Order), true
	case SortByLeads:
		return float64(r.Leads), true
	case SortByOpportunities:
		return float64(r.Opportunities), true
	case SortByConversions:
		return float64(r.Conversions), true
	case SortByRevenue:
		return r.Revenue, true
	case SortByCost:
		return r.Cost, true
	case SortByBudget:
		return deref(r.Budget)
	case SortByROAS:
		return deref(r.ROAS)
	case SortByCPL:
		return deref(r.CPL)
	case SortByCPA:
		return deref(r.CPA)
	}
	return 0, false
}

// SortGroupRows returns a sorted copy. Rows without a value for the column go
// last in either direction; ties keep their incoming order.
func SortGroupRows(rows []GroupRow, key GroupSortKey, dir SortDirection) []GroupRow {
	out := append([]GroupRow(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		a, aok := out[i].column(key)
		b, bok := out[j].column(key)
		switch {
		case !aok && !bok:
			return false
		case !aok:
			return false
		case !bok:
			return true
		}
		if dir == Descending {
			return a > b
		}
		return a < b
	})
	return out
}
