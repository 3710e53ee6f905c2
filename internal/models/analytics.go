package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// COGS confidence bands
const (
	ConfidenceHigh    = "HIGH"     // 90%+ actual data
	ConfidenceMedium  = "MEDIUM"   // 70-89%
	ConfidenceLow     = "LOW"      // 50-69%
	ConfidenceVeryLow = "VERY_LOW" // <50%
)

// decimal columns are capped to max_digits=15
var maxDecimalValue = decimal.RequireFromString("999999999999999.00")

// ProductCostHistory is one costed purchase of an ingredient with the
// purchase quantity converted into the unit recipes use. All valuation
// methods read these rows.
type ProductCostHistory struct {
	ID           string    `json:"id" gorm:"type:uuid;primaryKey"`
	ProductID    string    `json:"product_id" gorm:"type:uuid;not null;index:idx_cost_history_product_date"`
	Product      *Product  `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	PurchaseDate time.Time `json:"purchase_date" gorm:"not null;index:idx_cost_history_product_date"`

	// Original purchase data
	QuantityOrdered  decimal.Decimal `json:"quantity_ordered" gorm:"type:decimal(15,2);not null"`
	UnitOfPurchaseID string          `json:"unit_of_purchase_id" gorm:"type:uuid;not null"`
	UnitOfPurchase   *UnitOfMeasure  `json:"unit_of_purchase,omitempty" gorm:"foreignKey:UnitOfPurchaseID"`
	TotalAmount      decimal.Decimal `json:"total_amount" gorm:"type:decimal(15,2);not null"`

	// Conversion into recipe units
	UnitOfRecipeID         string          `json:"unit_of_recipe_id" gorm:"type:uuid;not null"`
	UnitOfRecipe           *UnitOfMeasure  `json:"unit_of_recipe,omitempty" gorm:"foreignKey:UnitOfRecipeID"`
	RecipeConversionFactor decimal.Decimal `json:"recipe_conversion_factor" gorm:"type:decimal(15,6);not null"`
	RecipeQuantity         decimal.Decimal `json:"recipe_quantity" gorm:"type:decimal(15,2);not null"`

	// Derived
	UnitCostInRecipeUnits decimal.Decimal `json:"unit_cost_in_recipe_units" gorm:"type:decimal(15,4);default:0"`

	ProductCategoryID string       `json:"product_category_id" gorm:"type:uuid;not null;index"`
	ProductCategory   *ProductType `json:"product_category,omitempty" gorm:"foreignKey:ProductCategoryID"`

	WeightFactor decimal.Decimal `json:"weight_factor" gorm:"type:decimal(5,4);default:1"`
	IsActive     bool            `json:"is_active" gorm:"default:true;index"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (ProductCostHistory) TableName() string {
	return "product_cost_history"
}

func (h *ProductCostHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	return nil
}

// BeforeSave recomputes the derived recipe quantity and unit cost
func (h *ProductCostHistory) BeforeSave(tx *gorm.DB) error {
	h.CalculateDerivedMetrics()
	return nil
}

// CalculateDerivedMetrics fills RecipeQuantity and UnitCostInRecipeUnits
// from the raw purchase data.
func (h *ProductCostHistory) CalculateDerivedMetrics() {
	if h.RecipeConversionFactor.IsPositive() {
		h.RecipeQuantity = h.QuantityOrdered.Mul(h.RecipeConversionFactor).Round(2)
	}
	if h.RecipeQuantity.IsPositive() {
		h.UnitCostInRecipeUnits = h.TotalAmount.Div(h.RecipeQuantity).Round(4)
	}
}

// DailySummary is one day of restaurant performance, recalculated from the
// day's sale lines.
type DailySummary struct {
	ID   string    `json:"id" gorm:"type:uuid;primaryKey"`
	Date time.Time `json:"date" gorm:"type:date;uniqueIndex;not null"`

	// Revenue
	TotalSales        decimal.Decimal `json:"total_sales" gorm:"type:decimal(15,2);default:0"`
	TotalOrders       int             `json:"total_orders" gorm:"default:0"`
	TotalCustomers    int             `json:"total_customers" gorm:"default:0"` // covers
	AverageOrderValue decimal.Decimal `json:"average_order_value" gorm:"type:decimal(15,2);default:0"`
	AverageTicketSize decimal.Decimal `json:"average_ticket_size" gorm:"type:decimal(15,2);default:0"`

	// Payment methods (estimated from market shares, the POS feed carries
	// no payment column)
	CashSales                decimal.Decimal `json:"cash_sales" gorm:"type:decimal(15,2);default:0"`
	MobileMoneySales         decimal.Decimal `json:"mobile_money_sales" gorm:"type:decimal(15,2);default:0"`
	CreditCardSales          decimal.Decimal `json:"credit_card_sales" gorm:"type:decimal(15,2);default:0"`
	OtherPaymentMethodsSales decimal.Decimal `json:"other_payment_methods_sales" gorm:"type:decimal(15,2);default:0"`

	// COGS
	TotalFoodCost             decimal.Decimal `json:"total_food_cost" gorm:"type:decimal(15,2);default:0"`
	TotalFoodCostConservative decimal.Decimal `json:"total_food_cost_conservative" gorm:"type:decimal(15,2);default:0"` // only actual purchase data
	ResaleCost                decimal.Decimal `json:"resale_cost" gorm:"type:decimal(15,2);default:0"`
	FoodCostPercentage        decimal.Decimal `json:"food_cost_percentage" gorm:"type:decimal(5,2);default:0"`

	// COGS confidence
	CogsConfidenceLevel        string          `json:"cogs_confidence_level" gorm:"type:varchar(10);default:'HIGH'"`
	DataCompletenessPercentage decimal.Decimal `json:"data_completeness_percentage" gorm:"type:decimal(5,2);default:100"`
	MissingIngredientsCount    int             `json:"missing_ingredients_count" gorm:"default:0"`
	EstimatedIngredientsCount  int             `json:"estimated_ingredients_count" gorm:"default:0"`
	CogsCalculationNotes       string          `json:"cogs_calculation_notes" gorm:"type:text"`

	// Profitability
	GrossProfit       decimal.Decimal `json:"gross_profit" gorm:"type:decimal(15,2);default:0"`
	GrossProfitMargin decimal.Decimal `json:"gross_profit_margin" gorm:"type:decimal(5,2);default:0"`

	// Operations
	TotalItemsSold       int             `json:"total_items_sold" gorm:"default:0"`
	AverageItemsPerOrder decimal.Decimal `json:"average_items_per_order" gorm:"type:decimal(15,2);default:0"`
	DineInOrders         int             `json:"dine_in_orders" gorm:"default:0"`
	TakeOutOrders        int             `json:"take_out_orders" gorm:"default:0"`
	DeliveryOrders       int             `json:"delivery_orders" gorm:"default:0"`

	// Time-of-day breakdown (estimated)
	LunchSales    decimal.Decimal `json:"lunch_sales" gorm:"type:decimal(15,2);default:0"`
	DinnerSales   decimal.Decimal `json:"dinner_sales" gorm:"type:decimal(15,2);default:0"`
	PeakHourSales decimal.Decimal `json:"peak_hour_sales" gorm:"type:decimal(15,2);default:0"`
	PeakHourTime  *time.Time      `json:"peak_hour_time"`

	// Quality / waste
	WasteCost         decimal.Decimal `json:"waste_cost" gorm:"type:decimal(15,2);default:0"`
	CompsAndDiscounts decimal.Decimal `json:"comps_and_discounts" gorm:"type:decimal(15,2);default:0"`

	// Staff
	StaffCount    int             `json:"staff_count" gorm:"default:0"`
	SalesPerStaff decimal.Decimal `json:"sales_per_staff" gorm:"type:decimal(15,2);default:0"`

	// External factors
	WeatherConditions string `json:"weather_conditions" gorm:"type:varchar(255);default:'sunny'"`
	IsHoliday         bool   `json:"is_holiday" gorm:"default:false"`
	SpecialEvents     string `json:"special_events" gorm:"type:varchar(255)"`
	ManagerNotes      string `json:"manager_notes" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (DailySummary) TableName() string {
	return "daily_summaries"
}

func (s *DailySummary) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// BeforeSave sanitizes the money columns and recomputes derived metrics
func (s *DailySummary) BeforeSave(tx *gorm.DB) error {
	s.SanitizeDecimals()
	s.CalculateDerivedMetrics()
	return nil
}

// SanitizeDecimals rounds every money column to 0.01 and caps values that
// would overflow the column width.
func (s *DailySummary) SanitizeDecimals() {
	fields := []*decimal.Decimal{
		&s.TotalSales, &s.TotalFoodCost, &s.TotalFoodCostConservative,
		&s.GrossProfit, &s.GrossProfitMargin, &s.AverageOrderValue,
		&s.AverageTicketSize, &s.FoodCostPercentage, &s.CashSales,
		&s.MobileMoneySales, &s.CreditCardSales, &s.OtherPaymentMethodsSales,
		&s.LunchSales, &s.DinnerSales, &s.PeakHourSales, &s.ResaleCost,
		&s.WasteCost, &s.CompsAndDiscounts, &s.AverageItemsPerOrder,
		&s.SalesPerStaff,
	}
	for _, f := range fields {
		*f = clampMoney(*f)
	}
}

// clampMoney rounds to 2 decimal places and caps at the column maximum
func clampMoney(v decimal.Decimal) decimal.Decimal {
	rounded := v.Round(2)
	if rounded.Abs().GreaterThan(maxDecimalValue) {
		if rounded.IsNegative() {
			return maxDecimalValue.Neg()
		}
		return maxDecimalValue
	}
	return rounded
}

// CalculateDerivedMetrics recomputes the ratio columns from the base totals
func (s *DailySummary) CalculateDerivedMetrics() {
	hundred := decimal.NewFromInt(100)

	if s.TotalOrders > 0 {
		s.AverageOrderValue = s.TotalSales.Div(decimal.NewFromInt(int64(s.TotalOrders))).Round(2)
	}
	if s.TotalCustomers > 0 {
		s.AverageTicketSize = s.TotalSales.Div(decimal.NewFromInt(int64(s.TotalCustomers))).Round(2)
	}
	if s.TotalSales.IsPositive() {
		s.FoodCostPercentage = s.TotalFoodCost.Div(s.TotalSales).Mul(hundred).Round(2)
	}

	s.GrossProfit = s.TotalSales.Sub(s.TotalFoodCost).Sub(s.ResaleCost).Round(2)

	if s.TotalSales.IsPositive() {
		s.GrossProfitMargin = s.GrossProfit.Div(s.TotalSales).Mul(hundred).Round(2)
	}
	if s.TotalOrders > 0 {
		s.AverageItemsPerOrder = decimal.NewFromInt(int64(s.TotalItemsSold)).
			Div(decimal.NewFromInt(int64(s.TotalOrders))).Round(2)
	}
	if s.StaffCount > 0 {
		s.SalesPerStaff = s.TotalSales.Div(decimal.NewFromInt(int64(s.StaffCount))).Round(2)
	}
}

// IsFoodCostHealthy reports whether food cost sits in the 25-35% band
func (s *DailySummary) IsFoodCostHealthy() bool {
	return s.FoodCostPercentage.GreaterThanOrEqual(decimal.NewFromInt(25)) &&
		s.FoodCostPercentage.LessThanOrEqual(decimal.NewFromInt(35))
}

// FoodCostStatus classifies the day's food cost percentage
func (s *DailySummary) FoodCostStatus() string {
	pct := s.FoodCostPercentage
	switch {
	case pct.IsZero():
		return "unknown"
	case pct.LessThan(decimal.NewFromInt(25)):
		return "excellent"
	case pct.LessThanOrEqual(decimal.NewFromInt(30)):
		return "good"
	case pct.LessThanOrEqual(decimal.NewFromInt(35)):
		return "acceptable"
	default:
		return "high"
	}
}

// CashPercentage is the share of sales paid in cash
func (s *DailySummary) CashPercentage() decimal.Decimal {
	if s.TotalSales.IsPositive() {
		return s.CashSales.Div(s.TotalSales).Mul(decimal.NewFromInt(100))
	}
	return decimal.Zero
}

// DigitalPaymentPercentage is the share paid by card or mobile money
func (s *DailySummary) DigitalPaymentPercentage() decimal.Decimal {
	if s.TotalSales.IsPositive() {
		digital := s.CreditCardSales.Add(s.MobileMoneySales)
		return digital.Div(s.TotalSales).Mul(decimal.NewFromInt(100))
	}
	return decimal.Zero
}

// PerformanceGrade scores the day A-F: food cost 40%, revenue 30%,
// efficiency 30%.
func (s *DailySummary) PerformanceGrade() string {
	foodScore := 0
	switch {
	case s.FoodCostPercentage.IsZero():
		foodScore = 0
	case s.FoodCostPercentage.LessThanOrEqual(decimal.NewFromInt(30)):
		foodScore = 40
	case s.FoodCostPercentage.LessThanOrEqual(decimal.NewFromInt(35)):
		foodScore = 30
	default:
		foodScore = 10
	}

	revenueScore := 0
	if s.TotalSales.IsPositive() {
		revenueScore = 30
	}

	efficiencyScore := 0
	if s.AverageOrderValue.IsPositive() {
		efficiencyScore += 15
	}
	if s.TotalCustomers > 0 {
		efficiencyScore += 15
	}

	total := foodScore + revenueScore + efficiencyScore
	switch {
	case total >= 90:
		return "A"
	case total >= 80:
		return "B"
	case total >= 70:
		return "C"
	case total >= 60:
		return "D"
	default:
		return "F"
	}
}
