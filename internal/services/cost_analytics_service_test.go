package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bistrotrack/server/internal/models"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestBuildCostAlerts(t *testing.T) {
	summaries := []models.DailySummary{
		{
			Date:               day("2025-06-01"),
			TotalSales:         decimal.NewFromInt(100000),
			FoodCostPercentage: decimal.NewFromInt(45),
			WasteCost:          decimal.NewFromInt(1000), // 1%
		},
		{
			Date:               day("2025-06-02"),
			TotalSales:         decimal.NewFromInt(100000),
			FoodCostPercentage: decimal.NewFromInt(37),
			WasteCost:          decimal.NewFromInt(4000), // 4%
		},
		{
			Date:               day("2025-06-03"),
			TotalSales:         decimal.NewFromInt(100000),
			FoodCostPercentage: decimal.NewFromInt(28),
			WasteCost:          decimal.NewFromInt(7000), // 7%
		},
	}

	alerts := BuildCostAlerts(summaries)

	types := make(map[string]int)
	for _, a := range alerts {
		types[a.Type]++
	}

	if types["high_food_cost"] != 1 {
		t.Errorf("expected 1 high_food_cost alert, got %d", types["high_food_cost"])
	}
	if types["elevated_food_cost"] != 1 {
		t.Errorf("expected 1 elevated_food_cost alert, got %d", types["elevated_food_cost"])
	}
	if types["elevated_waste_cost"] != 1 {
		t.Errorf("expected 1 elevated_waste_cost alert, got %d", types["elevated_waste_cost"])
	}
	if types["high_waste_cost"] != 1 {
		t.Errorf("expected 1 high_waste_cost alert, got %d", types["high_waste_cost"])
	}
}

func TestBuildCostAlertsCleanDays(t *testing.T) {
	summaries := []models.DailySummary{
		{
			Date:               day("2025-06-01"),
			TotalSales:         decimal.NewFromInt(100000),
			FoodCostPercentage: decimal.NewFromInt(30),
			WasteCost:          decimal.NewFromInt(1500),
		},
	}
	if alerts := BuildCostAlerts(summaries); len(alerts) != 0 {
		t.Errorf("expected no alerts, got %d", len(alerts))
	}
}

func TestAnalyzeCostPerformanceGrades(t *testing.T) {
	cases := []struct {
		foodPct    int64
		wastePct   int64
		foodGrade  string
		wasteGrade string
	}{
		{25, 1, "A", "A"},
		{33, 3, "B", "B"},
		{38, 4, "C", "C"},
		{45, 8, "D", "D"},
		{60, 15, "F", "F"},
	}

	for _, tc := range cases {
		result := AnalyzeCostPerformance(decimal.NewFromInt(tc.foodPct), decimal.NewFromInt(tc.wastePct))

		food := result["food_cost_performance"].(map[string]interface{})
		if food["grade"] != tc.foodGrade {
			t.Errorf("food cost %d%%: expected grade %s, got %v", tc.foodPct, tc.foodGrade, food["grade"])
		}
		waste := result["waste_performance"].(map[string]interface{})
		if waste["grade"] != tc.wasteGrade {
			t.Errorf("waste %d%%: expected grade %s, got %v", tc.wastePct, tc.wasteGrade, waste["grade"])
		}
	}
}

func TestAnalyzeCostPerformanceOverallWeighting(t *testing.T) {
	// Food A (100) and waste F (20): 100*0.7 + 20*0.3 = 76
	result := AnalyzeCostPerformance(decimal.NewFromInt(25), decimal.NewFromInt(15))
	overall := result["overall_performance"].(map[string]interface{})
	score := overall["score"].(decimal.Decimal)
	if !score.Equal(decimal.NewFromInt(76)) {
		t.Errorf("expected overall score 76, got %s", score)
	}
	if overall["grade"] != "C" {
		t.Errorf("expected overall grade C, got %v", overall["grade"])
	}
}

func TestCostTrendDirection(t *testing.T) {
	mk := func(pcts ...int64) []models.DailySummary {
		summaries := make([]models.DailySummary, len(pcts))
		for i, p := range pcts {
			summaries[i] = models.DailySummary{FoodCostPercentage: decimal.NewFromInt(p)}
		}
		return summaries
	}

	if got := CostTrendDirection(mk(30)); got != "insufficient_data" {
		t.Errorf("single day: expected insufficient_data, got %s", got)
	}
	if got := CostTrendDirection(mk(30, 30, 40, 40)); got != "increasing" {
		t.Errorf("expected increasing, got %s", got)
	}
	if got := CostTrendDirection(mk(40, 40, 30, 30)); got != "decreasing" {
		t.Errorf("expected decreasing, got %s", got)
	}
	if got := CostTrendDirection(mk(30, 30, 31, 30)); got != "stable" {
		t.Errorf("expected stable, got %s", got)
	}
}

func TestGradePerformanceScore(t *testing.T) {
	cases := map[int64]string{95: "A", 85: "B", 75: "C", 65: "D", 50: "F"}
	for score, expected := range cases {
		if got := GradePerformanceScore(decimal.NewFromInt(score)); got != expected {
			t.Errorf("score %d: expected %s, got %s", score, expected, got)
		}
	}
}

func TestWasteStatus(t *testing.T) {
	cases := map[string]string{
		"1.5": "excellent",
		"2.5": "good",
		"4":   "acceptable",
		"8":   "high",
	}
	for pct, expected := range cases {
		if got := WasteStatus(decimal.RequireFromString(pct)); got != expected {
			t.Errorf("waste %s%%: expected %s, got %s", pct, expected, got)
		}
	}
}

func TestGradeWasteEfficiency(t *testing.T) {
	if got := GradeWasteEfficiency(decimal.NewFromInt(2)); got != "A" {
		t.Errorf("expected A at 2%%, got %s", got)
	}
	if got := GradeWasteEfficiency(decimal.NewFromInt(12)); got != "F" {
		t.Errorf("expected F at 12%%, got %s", got)
	}
}
