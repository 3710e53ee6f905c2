package services

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bistrotrack/server/internal/models"
)

// Missing-ingredient fallback strategies
const (
	FallbackCurrentCost = "current_cost" // use the most recent known cost
	FallbackSkip        = "skip"         // exclude the ingredient from the roll-up
	FallbackZero        = "zero"         // cost the ingredient at zero
)

// RecipeCostingService rolls ingredient costs up into recipe costs, applies
// waste and labour allocations, and tracks how much of the result rests on
// actual purchase data.
type RecipeCostingService struct {
	db      *gorm.DB
	costing *ProductCostingService
}

// NewRecipeCostingService creates the recipe costing service
func NewRecipeCostingService(db *gorm.DB, costing *ProductCostingService) *RecipeCostingService {
	return &RecipeCostingService{db: db, costing: costing}
}

// IngredientCost is one costed BOM line
type IngredientCost struct {
	IngredientID     string          `json:"ingredient_id"`
	IngredientName   string          `json:"ingredient_name"`
	Quantity         decimal.Decimal `json:"quantity"`
	Unit             string          `json:"unit"`
	CostPerUnit      decimal.Decimal `json:"cost_per_unit"`
	TotalCost        decimal.Decimal `json:"total_cost"`
	CostPerPortion   decimal.Decimal `json:"cost_per_portion"`
	PreparationNotes string          `json:"preparation_notes,omitempty"`
	FallbackUsed     bool            `json:"fallback_used"`
}

// RecipeCostBreakdown is the full cost roll-up of one recipe
type RecipeCostBreakdown struct {
	Ingredients           []IngredientCost `json:"ingredients"`
	TotalIngredientCost   decimal.Decimal  `json:"total_ingredient_cost"`
	WasteCost             decimal.Decimal  `json:"waste_cost"`
	LaborCost             decimal.Decimal  `json:"labor_cost"`
	TotalRecipeCost       decimal.Decimal  `json:"total_recipe_cost"`
	BaseCostPerPortion    decimal.Decimal  `json:"base_cost_per_portion"`
	TotalCostPerPortion   decimal.Decimal  `json:"total_cost_per_portion"`
	SuggestedSellingPrice decimal.Decimal  `json:"suggested_selling_price"`
	MissingIngredients    []string         `json:"missing_ingredients,omitempty"`
	Warnings              []string         `json:"warnings,omitempty"`
	CalculationDate       time.Time        `json:"calculation_date"`
}

// ConfidenceData describes how much of a costing rests on actual purchases
type ConfidenceData struct {
	ConfidenceLevel            string          `json:"confidence_level"`
	DataCompletenessPercentage decimal.Decimal `json:"data_completeness_percentage"`
	MissingIngredientsCount    int             `json:"missing_ingredients_count"`
	EstimatedIngredientsCount  int             `json:"estimated_ingredients_count"`
	Warnings                   []string        `json:"warnings,omitempty"`
}

// DualRecipeCost pairs a conservative roll-up (actual data only) with an
// estimated one (fallbacks allowed).
type DualRecipeCost struct {
	Conservative RecipeCostBreakdown `json:"conservative"`
	Estimated    RecipeCostBreakdown `json:"estimated"`
	Confidence   ConfidenceData      `json:"confidence_data"`
}

// CalculateRecipeCost rolls up the recipe using the current-cost fallback
func (s *RecipeCostingService) CalculateRecipeCost(recipe *models.Recipe, asOf time.Time) RecipeCostBreakdown {
	return s.CalculateWithMissingIngredients(recipe, asOf, FallbackCurrentCost)
}

// CalculateWithMissingIngredients rolls up the recipe applying the given
// strategy to ingredients that have no cost data.
func (s *RecipeCostingService) CalculateWithMissingIngredients(recipe *models.Recipe, asOf time.Time, strategy string) RecipeCostBreakdown {
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	ingredients := recipe.Ingredients
	if len(ingredients) == 0 {
		s.db.Preload("Ingredient").Preload("UnitOfRecipe").
			Where("recipe_id = ?", recipe.ID).
			Find(&ingredients)
	}

	var (
		costed             []IngredientCost
		totalCost          = decimal.Zero
		missingIngredients []string
		warnings           []string
	)

	for i := range ingredients {
		line := &ingredients[i]
		if line.Ingredient == nil {
			continue
		}

		fallbackUsed := false
		currentCost := s.costing.CurrentCost(line.Ingredient, asOf)

		if currentCost.IsZero() {
			switch strategy {
			case FallbackSkip:
				missingIngredients = append(missingIngredients, line.Ingredient.Name)
				continue
			case FallbackZero:
				warnings = append(warnings, fmt.Sprintf("No cost data for %s, using zero", line.Ingredient.Name))
				fallbackUsed = true
			default: // current_cost: retry as of now
				currentCost = s.costing.CurrentCost(line.Ingredient, time.Now().UTC())
				if currentCost.IsZero() {
					warnings = append(warnings, fmt.Sprintf("No cost data for %s, using zero", line.Ingredient.Name))
				} else {
					warnings = append(warnings, fmt.Sprintf("Using current cost for %s (no historical data)", line.Ingredient.Name))
				}
				fallbackUsed = true
			}
		}

		lineTotal := currentCost.Mul(line.Quantity)
		perPortion := decimal.Zero
		if recipe.ServingSize.IsPositive() {
			perPortion = lineTotal.Div(recipe.ServingSize)
		}

		unitName := ""
		if line.UnitOfRecipe != nil {
			unitName = line.UnitOfRecipe.Name
		}

		costed = append(costed, IngredientCost{
			IngredientID:     line.IngredientID,
			IngredientName:   line.Ingredient.Name,
			Quantity:         line.Quantity,
			Unit:             unitName,
			CostPerUnit:      currentCost,
			TotalCost:        lineTotal,
			CostPerPortion:   perPortion,
			PreparationNotes: line.PreparationNotes,
			FallbackUsed:     fallbackUsed,
		})
		totalCost = totalCost.Add(lineTotal)
	}

	return buildRecipeBreakdown(recipe, costed, totalCost, missingIngredients, warnings, asOf)
}

// buildRecipeBreakdown applies waste/labour factors and derives per-portion
// figures and the suggested price from an ingredient roll-up.
func buildRecipeBreakdown(recipe *models.Recipe, ingredients []IngredientCost, baseCost decimal.Decimal,
	missing, warnings []string, asOf time.Time) RecipeCostBreakdown {

	hundred := decimal.NewFromInt(100)
	wasteCost := baseCost.Mul(recipe.WasteFactorPercentage).Div(hundred)
	laborCost := baseCost.Mul(recipe.LabourCostPercentage).Div(hundred)
	totalRecipeCost := baseCost.Add(wasteCost).Add(laborCost)

	baseCostPerPortion := decimal.Zero
	costPerPortion := decimal.Zero
	if recipe.ServingSize.IsPositive() {
		baseCostPerPortion = baseCost.Div(recipe.ServingSize)
		costPerPortion = totalRecipeCost.Div(recipe.ServingSize)
	}

	var suggestedPrice decimal.Decimal
	if recipe.TargetFoodCostPercentage.IsPositive() {
		suggestedPrice = costPerPortion.Div(recipe.TargetFoodCostPercentage.Div(hundred))
	} else {
		// No target set: assume the 30% industry norm
		suggestedPrice = costPerPortion.Mul(decimal.RequireFromString("3.33"))
	}

	return RecipeCostBreakdown{
		Ingredients:           ingredients,
		TotalIngredientCost:   baseCost,
		WasteCost:             wasteCost,
		LaborCost:             laborCost,
		TotalRecipeCost:       totalRecipeCost,
		BaseCostPerPortion:    baseCostPerPortion,
		TotalCostPerPortion:   costPerPortion,
		SuggestedSellingPrice: suggestedPrice,
		MissingIngredients:    missing,
		Warnings:              warnings,
		CalculationDate:       asOf,
	}
}

// CalculateDualRecipeCost computes conservative and estimated roll-ups plus
// confidence metrics derived from how many ingredients have actual data.
func (s *RecipeCostingService) CalculateDualRecipeCost(recipe *models.Recipe, asOf time.Time) DualRecipeCost {
	estimated := s.CalculateWithMissingIngredients(recipe, asOf, FallbackCurrentCost)
	conservative := s.CalculateWithMissingIngredients(recipe, asOf, FallbackSkip)

	totalIngredients := len(recipe.Ingredients)
	if totalIngredients == 0 {
		var count int64
		s.db.Model(&models.RecipeIngredient{}).Where("recipe_id = ?", recipe.ID).Count(&count)
		totalIngredients = int(count)
	}

	missingCount := len(estimated.MissingIngredients)
	estimatedCount := 0
	for _, ing := range estimated.Ingredients {
		if ing.FallbackUsed {
			estimatedCount++
		}
	}
	actualCount := totalIngredients - missingCount

	confidence := ConfidenceData{
		MissingIngredientsCount:   missingCount,
		EstimatedIngredientsCount: estimatedCount,
		Warnings:                  estimated.Warnings,
	}
	if totalIngredients > 0 {
		completeness := decimal.NewFromInt(int64(actualCount)).
			Div(decimal.NewFromInt(int64(totalIngredients))).
			Mul(decimal.NewFromInt(100))
		confidence.DataCompletenessPercentage = completeness
		confidence.ConfidenceLevel = ConfidenceLevelFor(completeness)
	} else {
		confidence.DataCompletenessPercentage = decimal.Zero
		confidence.ConfidenceLevel = models.ConfidenceVeryLow
	}

	return DualRecipeCost{
		Conservative: conservative,
		Estimated:    estimated,
		Confidence:   confidence,
	}
}

// ConfidenceLevelFor maps a data completeness percentage to a band
func ConfidenceLevelFor(completenessPct decimal.Decimal) string {
	switch {
	case completenessPct.GreaterThanOrEqual(decimal.NewFromInt(90)):
		return models.ConfidenceHigh
	case completenessPct.GreaterThanOrEqual(decimal.NewFromInt(70)):
		return models.ConfidenceMedium
	case completenessPct.GreaterThanOrEqual(decimal.NewFromInt(50)):
		return models.ConfidenceLow
	default:
		return models.ConfidenceVeryLow
	}
}

// UpdateRecipeCosts recalculates a recipe, persists the cost fields and the
// per-line ingredient costs, and optionally records a snapshot.
func (s *RecipeCostingService) UpdateRecipeCosts(recipe *models.Recipe, saveSnapshot bool) error {
	now := time.Now().UTC()
	breakdown := s.CalculateRecipeCost(recipe, now)

	recipe.BaseFoodCostPerPortion = breakdown.BaseCostPerPortion
	recipe.SuggestedSellingPricePerPortion = breakdown.SuggestedSellingPrice
	recipe.LastCostedDate = &now

	for _, ing := range breakdown.Ingredients {
		err := s.db.Model(&models.RecipeIngredient{}).
			Where("recipe_id = ? AND ingredient_id = ?", recipe.ID, ing.IngredientID).
			Updates(map[string]interface{}{
				"cost_per_unit":    ing.CostPerUnit,
				"total_cost":       ing.TotalCost,
				"cost_per_portion": ing.CostPerPortion,
			}).Error
		if err != nil {
			log.Printf("⚠️ Failed to update ingredient costs for %s in %s: %v", ing.IngredientName, recipe.DishName, err)
		}
	}

	if err := s.db.Save(recipe).Error; err != nil {
		return err
	}

	if saveSnapshot {
		return s.saveSnapshot(recipe, breakdown)
	}
	return nil
}

func (s *RecipeCostingService) saveSnapshot(recipe *models.Recipe, breakdown RecipeCostBreakdown) error {
	var foodCostPct *decimal.Decimal
	if recipe.ActualSellingPricePerPortion != nil && recipe.ActualSellingPricePerPortion.IsPositive() {
		pct := breakdown.TotalCostPerPortion.Div(*recipe.ActualSellingPricePerPortion).Mul(decimal.NewFromInt(100))
		foodCostPct = &pct
	}

	wastePerPortion := decimal.Zero
	laborPerPortion := decimal.Zero
	if recipe.ServingSize.IsPositive() {
		wastePerPortion = breakdown.WasteCost.Div(recipe.ServingSize)
		laborPerPortion = breakdown.LaborCost.Div(recipe.ServingSize)
	}

	snapshot := models.RecipeCostSnapshot{
		RecipeID:               recipe.ID,
		SnapshotDate:           time.Now().UTC(),
		BaseFoodCostPerPortion: breakdown.BaseCostPerPortion,
		WasteCostPerPortion:    wastePerPortion,
		LaborCostPerPortion:    laborPerPortion,
		TotalCostPerPortion:    breakdown.TotalCostPerPortion,
		SellingPrice:           &breakdown.SuggestedSellingPrice,
		FoodCostPercentage:     foodCostPct,
		CalculationMethod:      "weighted_average",
	}
	return s.db.Create(&snapshot).Error
}

// BulkUpdateResult reports the outcome of a recost-all run
type BulkUpdateResult struct {
	Updated int `json:"updated"`
	Errors  int `json:"errors"`
}

// BulkUpdateRecipeCosts recosts every active recipe
func (s *RecipeCostingService) BulkUpdateRecipeCosts(saveSnapshot bool) BulkUpdateResult {
	var recipes []models.Recipe
	s.db.Preload("Ingredients").Preload("Ingredients.Ingredient").Preload("Ingredients.UnitOfRecipe").
		Where("is_active = ?", true).
		Find(&recipes)

	result := BulkUpdateResult{}
	for i := range recipes {
		if err := s.UpdateRecipeCosts(&recipes[i], saveSnapshot); err != nil {
			log.Printf("❌ Error updating recipe costs for %s: %v", recipes[i].DishName, err)
			result.Errors++
			continue
		}
		result.Updated++
	}

	log.Printf("✅ Bulk recipe recost complete: %d updated, %d errors", result.Updated, result.Errors)
	return result
}

// RecipeEfficiency is one row of the profitability ranking
type RecipeEfficiency struct {
	Recipe           *models.Recipe  `json:"recipe"`
	ProfitMargin     decimal.Decimal `json:"profit_margin"`
	ProfitPerPortion decimal.Decimal `json:"profit_per_portion"`
}

// RecipesByCostEfficiency ranks active priced recipes by profit margin
func (s *RecipeCostingService) RecipesByCostEfficiency(limit int) []RecipeEfficiency {
	var recipes []models.Recipe
	s.db.Where("is_active = ? AND actual_selling_price_per_portion > 0", true).Find(&recipes)

	var ranked []RecipeEfficiency
	for i := range recipes {
		r := &recipes[i]
		totalCost := r.TotalCostPerPortion()
		if !totalCost.IsPositive() || r.ActualSellingPricePerPortion == nil {
			continue
		}
		price := *r.ActualSellingPricePerPortion
		profit := price.Sub(totalCost)
		margin := profit.Div(price).Mul(decimal.NewFromInt(100))
		ranked = append(ranked, RecipeEfficiency{
			Recipe:           r,
			ProfitMargin:     margin,
			ProfitPerPortion: profit,
		})
	}

	// Highest margin first
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].ProfitMargin.GreaterThan(ranked[j].ProfitMargin)
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
