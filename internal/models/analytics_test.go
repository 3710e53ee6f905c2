package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCalculateDerivedMetrics(t *testing.T) {
	summary := DailySummary{
		TotalSales:     decimal.NewFromInt(100000),
		TotalFoodCost:  decimal.NewFromInt(30000),
		ResaleCost:     decimal.NewFromInt(5000),
		TotalOrders:    50,
		TotalCustomers: 50,
		TotalItemsSold: 125,
	}
	summary.CalculateDerivedMetrics()

	if !summary.AverageOrderValue.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("expected AOV 2000, got %s", summary.AverageOrderValue)
	}
	if !summary.FoodCostPercentage.Equal(decimal.NewFromInt(30)) {
		t.Errorf("expected food cost 30%%, got %s", summary.FoodCostPercentage)
	}
	if !summary.GrossProfit.Equal(decimal.NewFromInt(65000)) {
		t.Errorf("expected gross profit 65000, got %s", summary.GrossProfit)
	}
	if !summary.GrossProfitMargin.Equal(decimal.NewFromInt(65)) {
		t.Errorf("expected margin 65%%, got %s", summary.GrossProfitMargin)
	}
	if !summary.AverageItemsPerOrder.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("expected 2.5 items per order, got %s", summary.AverageItemsPerOrder)
	}
}

func TestClampMoney(t *testing.T) {
	if got := clampMoney(decimal.RequireFromString("12.349")); !got.Equal(decimal.RequireFromString("12.35")) {
		t.Errorf("expected 12.35, got %s", got)
	}

	huge := decimal.RequireFromString("99999999999999999")
	if got := clampMoney(huge); !got.Equal(maxDecimalValue) {
		t.Errorf("expected clamp to column max, got %s", got)
	}
	if got := clampMoney(huge.Neg()); !got.Equal(maxDecimalValue.Neg()) {
		t.Errorf("expected clamp to negative column max, got %s", got)
	}
}

func TestFoodCostStatus(t *testing.T) {
	cases := []struct {
		pct      string
		expected string
	}{
		{"0", "unknown"},
		{"22", "excellent"},
		{"28", "good"},
		{"33", "acceptable"},
		{"40", "high"},
	}
	for _, tc := range cases {
		summary := DailySummary{FoodCostPercentage: decimal.RequireFromString(tc.pct)}
		if got := summary.FoodCostStatus(); got != tc.expected {
			t.Errorf("food cost %s%%: expected %s, got %s", tc.pct, tc.expected, got)
		}
	}
}

func TestPerformanceGrade(t *testing.T) {
	// Full marks: food cost <=30 (40) + sales (30) + AOV and customers (30)
	good := DailySummary{
		TotalSales:         decimal.NewFromInt(100000),
		FoodCostPercentage: decimal.NewFromInt(28),
		AverageOrderValue:  decimal.NewFromInt(2000),
		TotalCustomers:     50,
	}
	if got := good.PerformanceGrade(); got != "A" {
		t.Errorf("expected A, got %s", got)
	}

	// High food cost drags the grade down: 10 + 30 + 30 = 70
	costly := DailySummary{
		TotalSales:         decimal.NewFromInt(100000),
		FoodCostPercentage: decimal.NewFromInt(45),
		AverageOrderValue:  decimal.NewFromInt(2000),
		TotalCustomers:     50,
	}
	if got := costly.PerformanceGrade(); got != "C" {
		t.Errorf("expected C, got %s", got)
	}

	empty := DailySummary{}
	if got := empty.PerformanceGrade(); got != "F" {
		t.Errorf("expected F for an empty day, got %s", got)
	}
}

func TestPaymentPercentages(t *testing.T) {
	summary := DailySummary{
		TotalSales:       decimal.NewFromInt(100000),
		CashSales:        decimal.NewFromInt(70000),
		MobileMoneySales: decimal.NewFromInt(20000),
		CreditCardSales:  decimal.NewFromInt(8000),
	}

	if !summary.CashPercentage().Equal(decimal.NewFromInt(70)) {
		t.Errorf("expected 70%% cash, got %s", summary.CashPercentage())
	}
	if !summary.DigitalPaymentPercentage().Equal(decimal.NewFromInt(28)) {
		t.Errorf("expected 28%% digital, got %s", summary.DigitalPaymentPercentage())
	}

	var zero DailySummary
	if !zero.CashPercentage().IsZero() {
		t.Error("expected zero cash percentage for an empty day")
	}
}
