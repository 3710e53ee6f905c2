package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"bistrotrack/server/internal/models"
)

func summariesWithSales(amounts ...int64) []models.DailySummary {
	summaries := make([]models.DailySummary, len(amounts))
	for i, a := range amounts {
		summaries[i] = models.DailySummary{TotalSales: decimal.NewFromInt(a)}
	}
	return summaries
}

func TestRevenueGrowthShortPeriod(t *testing.T) {
	if got := RevenueGrowth(summariesWithSales(100000)); len(got) != 0 {
		t.Errorf("expected empty result for a single day, got %v", got)
	}

	// 4 days: window = 2, first 2 days vs last 2 days
	got := RevenueGrowth(summariesWithSales(100000, 100000, 150000, 150000))
	growth := got["period_over_period_growth"].(decimal.Decimal)
	if !growth.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected 50%% growth, got %s", growth)
	}
	if got["growth_trend"] != "increasing" {
		t.Errorf("expected increasing, got %v", got["growth_trend"])
	}
}

func TestRevenueGrowthDecreasing(t *testing.T) {
	got := RevenueGrowth(summariesWithSales(200000, 200000, 100000, 100000))
	if got["growth_trend"] != "decreasing" {
		t.Errorf("expected decreasing, got %v", got["growth_trend"])
	}
}

func TestGrowthRates(t *testing.T) {
	current := PeriodMetrics{
		TotalRevenue:    decimal.NewFromInt(300000),
		TotalOrders:     150,
		TotalCustomers:  150,
		AvgDailyRevenue: decimal.NewFromInt(10000),
	}
	previous := PeriodMetrics{
		TotalRevenue:    decimal.NewFromInt(200000),
		TotalOrders:     100,
		TotalCustomers:  100,
		AvgDailyRevenue: decimal.NewFromInt(8000),
	}

	rates := GrowthRates(current, previous)

	if !rates["total_revenue_growth"].Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected 50%% revenue growth, got %s", rates["total_revenue_growth"])
	}
	if !rates["total_orders_growth"].Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected 50%% orders growth, got %s", rates["total_orders_growth"])
	}
	if !rates["avg_daily_revenue_growth"].Equal(decimal.NewFromInt(25)) {
		t.Errorf("expected 25%% daily revenue growth, got %s", rates["avg_daily_revenue_growth"])
	}
}

func TestGrowthRatesZeroPrevious(t *testing.T) {
	rates := GrowthRates(PeriodMetrics{TotalRevenue: decimal.NewFromInt(100)}, PeriodMetrics{})
	if !rates["total_revenue_growth"].IsZero() {
		t.Errorf("expected zero growth against an empty previous period, got %s", rates["total_revenue_growth"])
	}
}

func TestAnalyzeRevenuePerformanceSizeClasses(t *testing.T) {
	cases := []struct {
		revenue int64
		size    string
	}{
		{80000, "small_restaurant"},
		{200000, "medium_restaurant"},
		{400000, "large_restaurant"},
	}

	for _, tc := range cases {
		got := AnalyzeRevenuePerformance(decimal.NewFromInt(tc.revenue))
		if got["size_category"] != tc.size {
			t.Errorf("revenue %d: expected %s, got %v", tc.revenue, tc.size, got["size_category"])
		}
	}
}

func TestAnalyzeRevenuePerformanceScore(t *testing.T) {
	// Within the small-restaurant band (50k-150k): full score
	got := AnalyzeRevenuePerformance(decimal.NewFromInt(100000))
	score := got["performance_score"].(decimal.Decimal)
	if !score.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected score 100, got %s", score)
	}
	if got["performance_grade"] != "A" {
		t.Errorf("expected grade A, got %v", got["performance_grade"])
	}

	// Below the band: proportional score
	got = AnalyzeRevenuePerformance(decimal.NewFromInt(25000))
	score = got["performance_score"].(decimal.Decimal)
	if !score.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected score 50, got %s", score)
	}
	if got["performance_grade"] != "D" {
		t.Errorf("expected grade D, got %v", got["performance_grade"])
	}
}

func TestCompareToRevenueBenchmarks(t *testing.T) {
	got := CompareToRevenueBenchmarks(decimal.NewFromInt(200000))

	if got["small_restaurant"] != "above_range" {
		t.Errorf("expected above_range for small, got %s", got["small_restaurant"])
	}
	if got["medium_restaurant"] != "within_range" {
		t.Errorf("expected within_range for medium, got %s", got["medium_restaurant"])
	}
	if got["large_restaurant"] != "below_range" {
		t.Errorf("expected below_range for large, got %s", got["large_restaurant"])
	}
}

func TestGradeCategoryRevenueShare(t *testing.T) {
	cases := map[int64]string{25: "A", 17: "B", 12: "C", 7: "D", 3: "F"}
	for pct, expected := range cases {
		if got := GradeCategoryRevenueShare(decimal.NewFromInt(pct)); got != expected {
			t.Errorf("share %d%%: expected %s, got %s", pct, expected, got)
		}
	}
}

func TestGradeProductRevenue(t *testing.T) {
	cases := map[int64]string{150000: "A", 60000: "B", 30000: "C", 15000: "D", 5000: "F"}
	for revenue, expected := range cases {
		if got := GradeProductRevenue(decimal.NewFromInt(revenue)); got != expected {
			t.Errorf("revenue %d: expected %s, got %s", revenue, expected, got)
		}
	}
}
