package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Recipe is the costed technical card of a dish
type Recipe struct {
	ID          string `json:"id" gorm:"type:uuid;primaryKey"`
	DishName    string `json:"dish_name" gorm:"type:varchar(255);not null;index"`
	DishNameFr  string `json:"dish_name_fr" gorm:"type:varchar(255)"`
	DishNameEn  string `json:"dish_name_en" gorm:"type:varchar(255)"`
	Description string `json:"description" gorm:"type:text"`
	Category    string `json:"category" gorm:"type:varchar(255)"` // starter, main, dessert, drink, ...

	// Portions
	ServingSize   decimal.Decimal  `json:"serving_size" gorm:"type:decimal(15,3);default:1"` // portions the recipe yields
	PortionWeight *decimal.Decimal `json:"portion_weight" gorm:"type:decimal(15,3)"`         // grams

	PrepTimeMinutes int `json:"prep_time_minutes" gorm:"default:0"`
	CookTimeMinutes int `json:"cook_time_minutes" gorm:"default:0"`

	// Costing
	BaseFoodCostPerPortion          decimal.Decimal  `json:"base_food_cost_per_portion" gorm:"type:decimal(15,2);default:0"`
	WasteFactorPercentage           decimal.Decimal  `json:"waste_factor_percentage" gorm:"type:decimal(5,2);default:0"`  // cooking loss, prep waste, spillage
	LabourCostPercentage            decimal.Decimal  `json:"labour_cost_percentage" gorm:"type:decimal(15,2);default:0"`  // optional labour allocation
	TargetFoodCostPercentage        decimal.Decimal  `json:"target_food_cost_percentage" gorm:"type:decimal(5,2);default:30"`
	SuggestedSellingPricePerPortion decimal.Decimal  `json:"suggested_selling_price_per_portion" gorm:"type:decimal(15,2);default:0"`
	ActualSellingPricePerPortion    *decimal.Decimal `json:"actual_selling_price_per_portion" gorm:"type:decimal(15,2)"`

	IsActive   bool `json:"is_active" gorm:"default:true;index"`
	IsSeasonal bool `json:"is_seasonal" gorm:"default:false"`

	LastCostedDate       *time.Time `json:"last_costed_date" gorm:"type:date"`
	CostCalculationNotes string     `json:"cost_calculation_notes" gorm:"type:text"`

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	Ingredients []RecipeIngredient `json:"ingredients" gorm:"foreignKey:RecipeID"`
}

func (Recipe) TableName() string {
	return "recipes"
}

func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TotalCostPerPortion is base cost plus waste and labour allocations
func (r *Recipe) TotalCostPerPortion() decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	wasteCost := r.BaseFoodCostPerPortion.Mul(r.WasteFactorPercentage).Div(hundred)
	labourCost := r.BaseFoodCostPerPortion.Mul(r.LabourCostPercentage).Div(hundred)
	return r.BaseFoodCostPerPortion.Add(wasteCost).Add(labourCost)
}

// ActualFoodCostPercentage is total cost over the actual selling price,
// nil when no actual price is set.
func (r *Recipe) ActualFoodCostPercentage() *decimal.Decimal {
	if r.ActualSellingPricePerPortion == nil || !r.ActualSellingPricePerPortion.IsPositive() {
		return nil
	}
	pct := r.TotalCostPerPortion().Div(*r.ActualSellingPricePerPortion).Mul(decimal.NewFromInt(100))
	return &pct
}

// TotalPrepTime returns prep plus cook time in minutes
func (r *Recipe) TotalPrepTime() int {
	return r.PrepTimeMinutes + r.CookTimeMinutes
}

// RecipeIngredient is one BOM line of a recipe
type RecipeIngredient struct {
	ID             string          `json:"id" gorm:"type:uuid;primaryKey"`
	RecipeID       string          `json:"recipe_id" gorm:"type:uuid;not null;index"`
	IngredientID   string          `json:"ingredient_id" gorm:"type:uuid;not null;index"`
	Ingredient     *Product        `json:"ingredient,omitempty" gorm:"foreignKey:IngredientID"`
	Quantity       decimal.Decimal `json:"quantity" gorm:"type:decimal(15,4);not null"` // for the whole recipe, in recipe units
	MainIngredient bool            `json:"main_ingredient" gorm:"default:false"`
	UnitOfRecipeID *string         `json:"unit_of_recipe_id" gorm:"type:uuid"`
	UnitOfRecipe   *UnitOfMeasure  `json:"unit_of_recipe,omitempty" gorm:"foreignKey:UnitOfRecipeID"`

	// Persisted costing results
	CostPerUnit    decimal.Decimal `json:"cost_per_unit" gorm:"type:decimal(15,4);default:0"`
	TotalCost      decimal.Decimal `json:"total_cost" gorm:"type:decimal(15,4);default:0"`
	CostPerPortion decimal.Decimal `json:"cost_per_portion" gorm:"type:decimal(15,4);default:0"`

	PreparationNotes string `json:"preparation_notes" gorm:"type:text"` // diced, sliced, chopped, ...
	IsOptional       bool   `json:"is_optional" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (RecipeIngredient) TableName() string {
	return "recipe_ingredients"
}

func (i *RecipeIngredient) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}

// RecipeCostSnapshot is a historical cost point for trend analysis
type RecipeCostSnapshot struct {
	ID       string    `json:"id" gorm:"type:uuid;primaryKey"`
	RecipeID string    `json:"recipe_id" gorm:"type:uuid;not null;index"`
	Recipe   *Recipe   `json:"recipe,omitempty" gorm:"foreignKey:RecipeID"`

	SnapshotDate time.Time `json:"snapshot_date" gorm:"not null;index"`

	BaseFoodCostPerPortion decimal.Decimal  `json:"base_food_cost_per_portion" gorm:"type:decimal(15,4);not null"`
	WasteCostPerPortion    decimal.Decimal  `json:"waste_cost_per_portion" gorm:"type:decimal(15,4);not null"`
	LaborCostPerPortion    decimal.Decimal  `json:"labor_cost_per_portion" gorm:"type:decimal(15,2);not null"`
	TotalCostPerPortion    decimal.Decimal  `json:"total_cost_per_portion" gorm:"type:decimal(15,4);not null"`
	SellingPrice           *decimal.Decimal `json:"selling_price" gorm:"type:decimal(15,2)"`
	FoodCostPercentage     *decimal.Decimal `json:"food_cost_percentage" gorm:"type:decimal(5,2)"`

	CalculationMethod string `json:"calculation_method" gorm:"type:varchar(50);default:'weighted_average'"`
	Notes             string `json:"notes" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (RecipeCostSnapshot) TableName() string {
	return "recipe_cost_snapshots"
}

func (s *RecipeCostSnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// RecipeVersion tracks recipe revisions so historical COGS stays correct
type RecipeVersion struct {
	ID            string     `json:"id" gorm:"type:uuid;primaryKey"`
	RecipeID      string     `json:"recipe_id" gorm:"type:uuid;not null;index:idx_recipe_version,unique"`
	Recipe        *Recipe    `json:"recipe,omitempty" gorm:"foreignKey:RecipeID"`
	VersionNumber string     `json:"version_number" gorm:"type:varchar(10);not null"`
	EffectiveDate time.Time  `json:"effective_date" gorm:"type:date;not null;index:idx_recipe_version,unique"`
	EndDate       *time.Time `json:"end_date" gorm:"type:date"`
	ChangeNotes   string     `json:"change_notes" gorm:"type:text"`
	IsActive      bool       `json:"is_active" gorm:"default:true"`
	CreatedAt     time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (RecipeVersion) TableName() string {
	return "recipe_versions"
}

func (v *RecipeVersion) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return nil
}

// IsCurrentVersion reports whether the version is still open-ended
func (v *RecipeVersion) IsCurrentVersion() bool {
	return v.EndDate == nil && v.IsActive
}
