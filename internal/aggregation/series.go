package aggregation

import "marketingops/internal/domain"

type ParsedPoint struct {
	Month string `json:"month"`
	Amount
}

type ParsedSeries struct {
	Name      string            `json:"name"`
	Source    domain.SourceType `json:"source"`
	Editable  bool              `json:"editable"`
	Points    []ParsedPoint     `json:"points"`
	Total     float64           `json:"total"`
	Defaulted int               `json:"defaulted"`
}

type ParsedPlatform struct {
	Platform string         `json:"platform"`
	Series   []ParsedSeries `json:"series"`
}

// ParseSeries reads every raw monthly value permissively and totals them.
func ParseSeries(s domain.MetricSeries) ParsedSeries {
	out := ParsedSeries{
		Name:     s.Name,
		Source:   s.Source,
		Editable: s.Editable(),
		Points:   make([]ParsedPoint, 0, len(s.Points)),
	}
	for _, p := range s.Points {
		amount := ParseAmount(p.Value)
		if amount.Defaulted {
			out.Defaulted++
		}
		out.Total += amount.Value
		out.Points = append(out.Points, ParsedPoint{Month: p.Month, Amount: amount})
	}
	return out
}

func ParsePlatform(p domain.PlatformMetrics) ParsedPlatform {
	out := ParsedPlatform{Platform: p.Platform, Series: make([]ParsedSeries, 0, len(p.Series))}
	for _, s := range p.Series {
		out.Series = append(out.Series, ParseSeries(s))
	}
	return out
}
