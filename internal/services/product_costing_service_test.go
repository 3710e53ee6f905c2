package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bistrotrack/server/internal/models"
)

func historyRow(date string, cost string, qty string) models.ProductCostHistory {
	return models.ProductCostHistory{
		PurchaseDate:          day(date),
		UnitCostInRecipeUnits: decimal.RequireFromString(cost),
		RecipeQuantity:        decimal.RequireFromString(qty),
	}
}

func TestWeightedAverageCostEmpty(t *testing.T) {
	if got := WeightedAverageCost(nil, time.Now()); !got.IsZero() {
		t.Errorf("expected zero for empty history, got %s", got)
	}
}

func TestWeightedAverageCostSinglePurchase(t *testing.T) {
	history := []models.ProductCostHistory{historyRow("2025-06-01", "1500", "10")}
	got := WeightedAverageCost(history, day("2025-06-10"))
	if !got.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("expected 1500, got %s", got)
	}
}

func TestWeightedAverageCostFavorsRecent(t *testing.T) {
	// Newest first: recent purchase at 2000, older at 1000. The weighted
	// average must sit between them and above the plain midpoint.
	asOf := day("2025-06-30")
	history := []models.ProductCostHistory{
		historyRow("2025-06-28", "2000", "10"),
		historyRow("2025-06-01", "1000", "10"),
	}

	got := WeightedAverageCost(history, asOf)
	if !got.GreaterThan(decimal.NewFromInt(1500)) {
		t.Errorf("expected result above the midpoint 1500, got %s", got)
	}
	if !got.LessThanOrEqual(decimal.NewFromInt(2000)) {
		t.Errorf("expected result at or below the newest cost, got %s", got)
	}
}

func TestWeightedAverageCostStablePrices(t *testing.T) {
	// Identical prices must survive every weighting scheme unchanged
	asOf := day("2025-06-30")
	dates := []string{
		"2025-06-28", "2025-06-25", "2025-06-20", "2025-06-15",
		"2025-06-10", "2025-06-05", "2025-06-01", "2025-05-28",
		"2025-05-20", "2025-05-10",
	}
	var history []models.ProductCostHistory
	for _, d := range dates {
		history = append(history, historyRow(d, "750", "5"))
	}

	got := WeightedAverageCost(history, asOf)
	diff := got.Sub(decimal.NewFromInt(750)).Abs()
	if diff.GreaterThan(decimal.RequireFromString("0.01")) {
		t.Errorf("expected ~750 for stable prices, got %s", got)
	}
}

func TestAnalyzeCostTrendEmpty(t *testing.T) {
	trend := AnalyzeCostTrend(nil)
	if trend.Trend != "stable" {
		t.Errorf("expected stable for empty history, got %s", trend.Trend)
	}
}

func TestAnalyzeCostTrendIncreasing(t *testing.T) {
	// Oldest first: 1000 -> 1300 is +30%
	records := []models.ProductCostHistory{
		historyRow("2025-06-01", "1000", "10"),
		historyRow("2025-06-10", "1150", "10"),
		historyRow("2025-06-20", "1300", "10"),
	}

	trend := AnalyzeCostTrend(records)
	if trend.Trend != "increasing" {
		t.Errorf("expected increasing, got %s", trend.Trend)
	}
	if !trend.ChangePercentage.Equal(decimal.NewFromInt(30)) {
		t.Errorf("expected 30%% change, got %s", trend.ChangePercentage)
	}
	if !trend.MinCost.Equal(decimal.NewFromInt(1000)) || !trend.MaxCost.Equal(decimal.NewFromInt(1300)) {
		t.Errorf("expected min 1000 / max 1300, got %s / %s", trend.MinCost, trend.MaxCost)
	}
	if trend.PurchaseCount != 3 {
		t.Errorf("expected 3 purchases, got %d", trend.PurchaseCount)
	}
	if !trend.TotalQuantity.Equal(decimal.NewFromInt(30)) {
		t.Errorf("expected total quantity 30, got %s", trend.TotalQuantity)
	}
}

func TestAnalyzeCostTrendStable(t *testing.T) {
	records := []models.ProductCostHistory{
		historyRow("2025-06-01", "1000", "10"),
		historyRow("2025-06-10", "1020", "10"),
	}
	trend := AnalyzeCostTrend(records)
	if trend.Trend != "stable" {
		t.Errorf("expected stable for 2%% drift, got %s", trend.Trend)
	}
}

func TestRecommendCostMethod(t *testing.T) {
	volatile := CostTrendAnalysis{Volatility: decimal.NewFromInt(15)}
	if got := RecommendCostMethod(volatile); got != "current_weighted" {
		t.Errorf("volatile prices: expected current_weighted, got %s", got)
	}

	drifting := CostTrendAnalysis{
		Volatility:       decimal.NewFromInt(5),
		ChangePercentage: decimal.NewFromInt(-25),
	}
	if got := RecommendCostMethod(drifting); got != "moving_average_6" {
		t.Errorf("drifting prices: expected moving_average_6, got %s", got)
	}

	calm := CostTrendAnalysis{
		Volatility:       decimal.NewFromInt(2),
		ChangePercentage: decimal.NewFromInt(3),
	}
	if got := RecommendCostMethod(calm); got != "current_weighted" {
		t.Errorf("calm prices: expected current_weighted, got %s", got)
	}
}
