package domain

import (
	"fmt"
	"strings"
)

type SourceType string

const (
	SourceManual SourceType = "Manual"
	SourceAPI    SourceType = "API"
)

// PlatformMetrics holds the monthly series tracked for one platform.
type PlatformMetrics struct {
	Platform string         `json:"platform"`
	Series   []MetricSeries `json:"series"`
}

func (p PlatformMetrics) DocumentID() string { return p.Platform }

type MetricSeries struct {
	Name   string        `json:"name"`
	Source SourceType    `json:"source"`
	Points []SeriesPoint `json:"points"`
}

// Editable is false for series an integration keeps up to date.
func (s MetricSeries) Editable() bool {
	return s.Source != SourceAPI
}

// SeriesPoint keeps the value exactly as entered; parsing happens on read.
type SeriesPoint struct {
	Month string `json:"month"`
	Value string `json:"value"`
}

// SetValue stores raw under month, appending the month when it is new.
func (s *MetricSeries) SetValue(month, raw string) error {
	if !s.Editable() {
		return fmt.Errorf("%w: %s", ErrReadOnlySeries, s.Name)
	}
	month = strings.TrimSpace(month)
	if month == "" {
		return fmt.Errorf("%w: month label is required", ErrValidation)
	}
	for i := range s.Points {
		if s.Points[i].Month == month {
			s.Points[i].Value = raw
			return nil
		}
	}
	s.Points = append(s.Points, SeriesPoint{Month: month, Value: raw})
	return nil
}

func (p *PlatformMetrics) FindSeries(name string) (*MetricSeries, bool) {
	for i := range p.Series {
		if p.Series[i].Name == name {
			return &p.Series[i], true
		}
	}
	return nil, false
}
