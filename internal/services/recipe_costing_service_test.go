package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bistrotrack/server/internal/models"
)

func TestConfidenceLevelFor(t *testing.T) {
	cases := []struct {
		completeness string
		expected     string
	}{
		{"100", models.ConfidenceHigh},
		{"90", models.ConfidenceHigh},
		{"89.9", models.ConfidenceMedium},
		{"70", models.ConfidenceMedium},
		{"69", models.ConfidenceLow},
		{"50", models.ConfidenceLow},
		{"49.9", models.ConfidenceVeryLow},
		{"0", models.ConfidenceVeryLow},
	}

	for _, tc := range cases {
		got := ConfidenceLevelFor(decimal.RequireFromString(tc.completeness))
		if got != tc.expected {
			t.Errorf("completeness %s%%: expected %s, got %s", tc.completeness, tc.expected, got)
		}
	}
}

func TestBuildRecipeBreakdown(t *testing.T) {
	cases := []struct {
		name                    string
		baseCost                string
		servingSize             string
		wastePercentage         string
		labourPercentage        string
		targetFoodCost          string
		expectedWasteCost       string
		expectedLaborCost       string
		expectedTotalRecipeCost string
		expectedBasePerPortion  string
		expectedTotalPerPortion string
		expectedSuggestedPrice  string
	}{
		{
			name:                    "waste and labour applied",
			baseCost:                "1000",
			servingSize:             "4",
			wastePercentage:         "10",
			labourPercentage:        "5",
			targetFoodCost:          "30",
			expectedWasteCost:       "100",
			expectedLaborCost:       "50",
			expectedTotalRecipeCost: "1150",
			expectedBasePerPortion:  "250",
			expectedTotalPerPortion: "287.5",
			expectedSuggestedPrice:  "958.33",
		},
		{
			name:                    "serving size zero yields zero per-portion figures",
			baseCost:                "500",
			servingSize:             "0",
			wastePercentage:         "10",
			labourPercentage:        "0",
			targetFoodCost:          "30",
			expectedWasteCost:       "50",
			expectedLaborCost:       "0",
			expectedTotalRecipeCost: "550",
			expectedBasePerPortion:  "0",
			expectedTotalPerPortion: "0",
			expectedSuggestedPrice:  "0",
		},
		{
			name:                    "no target food cost falls back to the 30 percent norm",
			baseCost:                "300",
			servingSize:             "3",
			wastePercentage:         "0",
			labourPercentage:        "0",
			targetFoodCost:          "0",
			expectedWasteCost:       "0",
			expectedLaborCost:       "0",
			expectedTotalRecipeCost: "300",
			expectedBasePerPortion:  "100",
			expectedTotalPerPortion: "100",
			expectedSuggestedPrice:  "333",
		},
	}

	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recipe := &models.Recipe{
				ServingSize:              decimal.RequireFromString(tc.servingSize),
				WasteFactorPercentage:    decimal.RequireFromString(tc.wastePercentage),
				LabourCostPercentage:     decimal.RequireFromString(tc.labourPercentage),
				TargetFoodCostPercentage: decimal.RequireFromString(tc.targetFoodCost),
			}

			got := buildRecipeBreakdown(recipe, nil, decimal.RequireFromString(tc.baseCost), nil, nil, asOf)

			checks := []struct {
				field    string
				got      decimal.Decimal
				expected string
			}{
				{"WasteCost", got.WasteCost, tc.expectedWasteCost},
				{"LaborCost", got.LaborCost, tc.expectedLaborCost},
				{"TotalRecipeCost", got.TotalRecipeCost, tc.expectedTotalRecipeCost},
				{"BaseCostPerPortion", got.BaseCostPerPortion, tc.expectedBasePerPortion},
				{"TotalCostPerPortion", got.TotalCostPerPortion, tc.expectedTotalPerPortion},
				{"SuggestedSellingPrice", got.SuggestedSellingPrice, tc.expectedSuggestedPrice},
			}
			for _, check := range checks {
				if !check.got.Round(2).Equal(decimal.RequireFromString(check.expected)) {
					t.Errorf("%s: expected %s, got %s", check.field, check.expected, check.got.Round(2))
				}
			}

			if !got.CalculationDate.Equal(asOf) {
				t.Errorf("CalculationDate: expected %v, got %v", asOf, got.CalculationDate)
			}
		})
	}
}
