package aggregation

import "marketingops/internal/domain"

// Bucket is a funnel row. Qualified leads only count toward the Lead bucket.
type Bucket string

const (
	BucketLead        Bucket = "Lead"
	BucketOpportunity Bucket = "Opportunity"
	BucketConversion  Bucket = "Conversion"
	BucketDiscarded   Bucket = "Discarded"
)

// FunnelOrder is the fixed display order of funnel buckets.
var FunnelOrder = []Bucket{BucketLead, BucketOpportunity, BucketConversion, BucketDiscarded}

// Buckets lists every funnel bucket a stage counts toward.
func Buckets(stage domain.Stage) []Bucket {
	switch stage {
	case domain.StageOpportunity:
		return []Bucket{BucketLead, BucketOpportunity}
	case domain.StageConversion:
		return []Bucket{BucketLead, BucketOpportunity, BucketConversion}
	case domain.StageDiscarded:
		return []Bucket{BucketLead, BucketDiscarded}
	default:
		return []Bucket{BucketLead}
	}
}

// stageCounts is the shared tally used by the channel, group and funnel rollups.
type stageCounts struct {
	Leads         int
	Opportunities int
	Conversions   int
	Discarded     int
	Revenue       float64
}

func (c *stageCounts) add(lead domain.Lead) {
	c.Leads++
	if lead.IsOpportunityOrLater() {
		c.Opportunities++
	}
	if lead.IsConversion() {
		c.Conversions++
		c.Revenue += lead.Value()
	}
	if lead.IsDiscarded() {
		c.Discarded++
	}
}
