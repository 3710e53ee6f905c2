package services

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMetricFallbackFactor(t *testing.T) {
	cases := []struct {
		from, to string
		factor   string
	}{
		{"kg", "g", "1000"},
		{"g", "kg", "0.001"},
		{"l", "ml", "1000"},
		{"ml", "l", "0.001"},
		{"cl", "ml", "10"},
		{"unit", "pc", "1"},
	}

	for _, tc := range cases {
		factor, ok := MetricFallbackFactor(tc.from, tc.to)
		if !ok {
			t.Errorf("%s->%s: expected a fallback factor", tc.from, tc.to)
			continue
		}
		if !factor.Equal(decimal.RequireFromString(tc.factor)) {
			t.Errorf("%s->%s: expected %s, got %s", tc.from, tc.to, tc.factor, factor)
		}
	}
}

func TestMetricFallbackFactorCaseInsensitive(t *testing.T) {
	factor, ok := MetricFallbackFactor("KG", "G")
	if !ok || !factor.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected case-insensitive kg->g = 1000, got %s (ok=%v)", factor, ok)
	}
}

func TestMetricFallbackFactorUnknownPair(t *testing.T) {
	if _, ok := MetricFallbackFactor("kg", "l"); ok {
		t.Error("expected no fallback between mass and volume units")
	}
}
