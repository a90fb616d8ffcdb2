package aggregation

import (
	"math"
	"strconv"
	"strings"
)

// Amount is a parsed numeric input. Defaulted marks values that could not be
// read and were replaced by zero, so a real zero stays distinguishable.
type Amount struct {
	Value     float64 `json:"value"`
	Defaulted bool    `json:"defaulted,omitempty"`
}

var numberNoise = strings.NewReplacer(
	",", "",
	"$", "",
	"€", "",
	"£", "",
	"R$", "",
	"%", "",
	" ", "",
	"\u00a0", "",
)

// ParseAmount reads manually entered numbers such as "$1,250.50" or "12 %".
// Anything unreadable, including an empty string, becomes a defaulted zero.
func ParseAmount(raw string) Amount {
	cleaned := numberNoise.Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return Amount{Defaulted: true}
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Amount{Defaulted: true}
	}
	return Amount{Value: v}
}

// OrDefault returns the parsed value, or fallback when parsing failed.
func (a Amount) OrDefault(fallback float64) float64 {
	if a.Defaulted {
		return fallback
	}
	return a.Value
}

func percentOf(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

// ratio returns nil when the denominator is zero.
func ratio(num, den float64) *float64 {
	if den == 0 {
		return nil
	}
	v := num / den
	return &v
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }
