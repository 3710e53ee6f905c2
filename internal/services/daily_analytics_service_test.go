package services

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bistrotrack/server/internal/models"
)

func TestTruncateToDay(t *testing.T) {
	loc := time.FixedZone("WAT", 3600)
	input := time.Date(2025, 6, 15, 23, 45, 12, 0, loc)
	got := truncateToDay(input)

	if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 {
		t.Errorf("expected midnight, got %s", got)
	}
	if got.Location() != time.UTC {
		t.Errorf("expected UTC, got %s", got.Location())
	}
	// 23:45 WAT is 22:45 UTC, still June 15
	if got.Day() != 15 {
		t.Errorf("expected day 15, got %d", got.Day())
	}
}

func TestBenchmarkComparisonFoodCost(t *testing.T) {
	cases := []struct {
		pct      int64
		expected string
	}{
		{22, "excellent"},
		{28, "good"},
		{33, "acceptable"},
		{40, "needs_attention"},
	}

	for _, tc := range cases {
		summary := models.DailySummary{FoodCostPercentage: decimal.NewFromInt(tc.pct)}
		got := BenchmarkComparison(&summary)
		if got["food_cost"] != tc.expected {
			t.Errorf("food cost %d%%: expected %s, got %s", tc.pct, tc.expected, got["food_cost"])
		}
	}
}

func TestBenchmarkComparisonOrderValueAndVolume(t *testing.T) {
	summary := models.DailySummary{
		AverageOrderValue: decimal.NewFromInt(5000),
		TotalCustomers:    200,
	}
	got := BenchmarkComparison(&summary)

	if got["average_order_value"] != "cameroon_casual" {
		t.Errorf("expected cameroon_casual, got %s", got["average_order_value"])
	}
	if got["customer_volume"] != "medium_restaurant" {
		t.Errorf("expected medium_restaurant, got %s", got["customer_volume"])
	}

	summary.AverageOrderValue = decimal.NewFromInt(12000)
	summary.TotalCustomers = 20
	got = BenchmarkComparison(&summary)
	if got["average_order_value"] != "cameroon_upscale" {
		t.Errorf("expected cameroon_upscale, got %s", got["average_order_value"])
	}
	if got["customer_volume"] != "very_small" {
		t.Errorf("expected very_small, got %s", got["customer_volume"])
	}
}

func TestGenerateInsights(t *testing.T) {
	summary := models.DailySummary{
		TotalSales:         decimal.NewFromInt(100000),
		CashSales:          decimal.NewFromInt(90000), // 90% cash
		FoodCostPercentage: decimal.NewFromInt(42),
		TotalCustomers:     50,
		AverageTicketSize:  decimal.NewFromInt(1500),
	}

	insights := GenerateInsights(&summary)

	assertContains := func(fragment string) {
		t.Helper()
		for _, insight := range insights {
			if strings.Contains(insight, fragment) {
				return
			}
		}
		t.Errorf("expected an insight mentioning %q, got %v", fragment, insights)
	}

	assertContains("above industry standard")
	assertContains("High cash percentage")
	assertContains("Low average check")
}

func TestGenerateInsightsNoSales(t *testing.T) {
	summary := models.DailySummary{}
	insights := GenerateInsights(&summary)

	found := false
	for _, insight := range insights {
		if strings.Contains(insight, "No sales recorded") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a no-sales insight, got %v", insights)
	}
}

func TestGenerateInsightsHealthyDay(t *testing.T) {
	summary := models.DailySummary{
		TotalSales:         decimal.NewFromInt(250000),
		CashSales:          decimal.NewFromInt(150000),
		FoodCostPercentage: decimal.NewFromInt(30),
		TotalCustomers:     80,
		AverageTicketSize:  decimal.NewFromInt(3125),
	}
	if insights := GenerateInsights(&summary); len(insights) != 0 {
		t.Errorf("expected no insights for a healthy day, got %v", insights)
	}
}
