package aggregation

import "marketingops/internal/domain"

// FunnelStep is one funnel bucket. Rate is progression from the previous
// relevant bucket, except Discarded where it is the share of leads lost.
type FunnelStep struct {
	Bucket Bucket  `json:"bucket"`
	Count  int     `json:"count"`
	Value  float64 `json:"value"`
	Rate   float64 `json:"rate"`
}

// FunnelRollup returns the Lead, Opportunity, Conversion and Discarded buckets in that order.
func FunnelRollup(leads []domain.Lead) []FunnelStep {
	steps := make(map[Bucket]*FunnelStep, len(FunnelOrder))
	for _, b := range FunnelOrder {
		steps[b] = &FunnelStep{Bucket: b}
	}

	for _, lead := range leads {
		for _, b := range Buckets(lead.Stage) {
			steps[b].Count++
			steps[b].Value += lead.Value()
		}
	}

	leadCount := float64(steps[BucketLead].Count)
	oppCount := float64(steps[BucketOpportunity].Count)

	steps[BucketLead].Rate = 100
	steps[BucketOpportunity].Rate = percentOf(oppCount, leadCount)
	steps[BucketConversion].Rate = percentOf(float64(steps[BucketConversion].Count), oppCount)
	steps[BucketDiscarded].Rate = percentOf(float64(steps[BucketDiscarded].Count), leadCount)

	out := make([]FunnelStep, 0, len(FunnelOrder))
	for _, b := range FunnelOrder {
		out = append(out, *steps[b])
	}
	return out
}
