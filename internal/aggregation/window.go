package aggregation

import "marketingops/internal/domain"

// LeadsInWindow keeps leads added inside w. A zero window keeps everything.
func LeadsInWindow(leads []domain.Lead, w domain.Window) []domain.Lead {
	if w.From.IsZero() && w.To.IsZero() {
		return leads
	}
	out := make([]domain.Lead, 0, len(leads))
	for _, l := range leads {
		if w.Contains(l.DateAdded) {
			out = append(out, l)
		}
	}
	return out
}

// CampaignsInWindow keeps campaigns whose start date falls inside w.
func CampaignsInWindow(campaigns []domain.Campaign, w domain.Window) []domain.Campaign {
	if w.From.IsZero() && w.To.IsZero() {
		return campaigns
	}
	out := make([]domain.Campaign, 0, len(campaigns))
	for _, c := range campaigns {
		if w.Contains(c.StartDate) {
			out = append(out, c)
		}
	}
	return out
}

// PaidGroupIDs returns the ids of groups on paid channels.
func PaidGroupIDs(groups []domain.CampaignGroup) map[string]bool {
	out := make(map[string]bool)
	for _, g := range groups {
		if g.Channel.IsPaid() {
			out[g.ID] = true
		}
	}
	return out
}
