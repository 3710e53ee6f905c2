package services

import (
	"testing"
	"time"

	"bistrotrack/server/internal/models"
)

func TestBuildConsolidationIndex(t *testing.T) {
	rules := []models.ProductConsolidation{
		{
			PrimaryProductID:     "primary-1",
			ConsolidatedProducts: `["dup-a","dup-b"]`,
		},
		{
			PrimaryProductID:     "primary-2",
			ConsolidatedProducts: `["dup-c","primary-2",""]`,
		},
		{
			PrimaryProductID:     "primary-3",
			ConsolidatedProducts: `not json`,
		},
	}

	index := BuildConsolidationIndex(rules)

	expected := map[string]string{
		"dup-a": "primary-1",
		"dup-b": "primary-1",
		"dup-c": "primary-2",
	}
	if len(index) != len(expected) {
		t.Fatalf("expected %d entries, got %d: %v", len(expected), len(index), index)
	}
	for source, primary := range expected {
		if index[source] != primary {
			t.Errorf("source %s: expected primary %s, got %s", source, primary, index[source])
		}
	}
	if _, ok := index["primary-2"]; ok {
		t.Error("a primary product must not map onto itself")
	}
	if _, ok := index[""]; ok {
		t.Error("empty source IDs must be skipped")
	}
}

func TestSourceNamesJSON(t *testing.T) {
	if got := sourceNamesJSON(nil); got != "[]" {
		t.Errorf("nil names: expected [], got %s", got)
	}
	if got := sourceNamesJSON([]string{"Coca Cola 33cl"}); got != `["Coca Cola 33cl"]` {
		t.Errorf("one name: got %s", got)
	}
}

func TestSortedDates(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, 6, d, 0, 0, 0, 0, time.UTC)
	}
	set := map[time.Time]struct{}{
		day(15): {},
		day(3):  {},
		day(9):  {},
	}

	dates := sortedDates(set)

	if len(dates) != 3 {
		t.Fatalf("expected 3 dates, got %d", len(dates))
	}
	for i, expected := range []time.Time{day(3), day(9), day(15)} {
		if !dates[i].Equal(expected) {
			t.Errorf("position %d: expected %v, got %v", i, expected, dates[i])
		}
	}
}
