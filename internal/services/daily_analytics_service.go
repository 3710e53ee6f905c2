package services

import (
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bistrotrack/server/internal/models"
)

// Payment-method market shares. The POS export carries no payment column,
// so the daily breakdown is estimated from Cameroon market averages.
var (
	cashSharePct        = decimal.NewFromInt(70)
	mobileMoneySharePct = decimal.NewFromInt(20)
	cardSharePct        = decimal.NewFromInt(8)
	otherSharePct       = decimal.NewFromInt(2)

	lunchSharePct    = decimal.NewFromInt(40)
	dinnerSharePct   = decimal.NewFromInt(60)
	peakHourSharePct = decimal.NewFromInt(25)
)

// Cameroon payment-method benchmarks (min/max percentage of sales)
var cameroonPaymentBenchmarks = struct {
	CashMin, CashMax     int
	MobileMin, MobileMax int
	CardMin, CardMax     int
}{60, 80, 15, 30, 5, 15}

// DailyAnalyticsService builds the daily P&L summary from sales, pricing
// COGS through the recipe and product costing services, and produces the
// trend, benchmark and payment reports on top of the stored summaries.
type DailyAnalyticsService struct {
	db             *gorm.DB
	recipeCosting  *RecipeCostingService
	productCosting *ProductCostingService
}

// NewDailyAnalyticsService creates the analytics service
func NewDailyAnalyticsService(db *gorm.DB, recipeCosting *RecipeCostingService, productCosting *ProductCostingService) *DailyAnalyticsService {
	return &DailyAnalyticsService{
		db:             db,
		recipeCosting:  recipeCosting,
		productCosting: productCosting,
	}
}

// CalculateDailySummary recalculates (and persists) the summary for a date.
// A zero date means yesterday.
func (s *DailyAnalyticsService) CalculateDailySummary(targetDate time.Time) (*models.DailySummary, error) {
	if targetDate.IsZero() {
		targetDate = time.Now().UTC().AddDate(0, 0, -1)
	}
	targetDate = truncateToDay(targetDate)

	log.Printf("📊 Calculating daily summary for %s", targetDate.Format("2006-01-02"))

	summary, err := s.getOrCreateSummary(targetDate)
	if err != nil {
		return nil, err
	}

	var sales []models.Sale
	if err := s.db.Preload("Product").Where("sale_date = ?", targetDate).Find(&sales).Error; err != nil {
		return nil, err
	}

	applySalesMetrics(summary, sales)
	if err := s.applyCostMetrics(summary, sales, targetDate); err != nil {
		return nil, err
	}
	applyPaymentEstimates(summary)
	applyTimeEstimates(summary)

	// BeforeSave recomputes the derived columns and clamps the decimals
	if err := s.db.Save(summary).Error; err != nil {
		return nil, err
	}

	log.Printf("✅ Daily summary saved for %s: sales=%s orders=%d food_cost=%s",
		targetDate.Format("2006-01-02"), summary.TotalSales, summary.TotalOrders, summary.TotalFoodCost)

	return summary, nil
}

// SummaryFor returns the stored summary for a date without recalculating.
// A zero date means yesterday.
func (s *DailyAnalyticsService) SummaryFor(targetDate time.Time) (*models.DailySummary, error) {
	if targetDate.IsZero() {
		targetDate = time.Now().UTC().AddDate(0, 0, -1)
	}
	targetDate = truncateToDay(targetDate)

	var summary models.DailySummary
	if err := s.db.Where("date = ?", targetDate).First(&summary).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *DailyAnalyticsService) getOrCreateSummary(targetDate time.Time) (*models.DailySummary, error) {
	var summary models.DailySummary
	err := s.db.Where("date = ?", targetDate).First(&summary).Error
	if err == nil {
		return &summary, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	summary = models.DailySummary{Date: targetDate}
	if err := s.db.Create(&summary).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}

// applySalesMetrics fills the revenue block: total sales, distinct orders
// (the POS feed has no customer column, so orders double as covers), items
// sold and AOV.
func applySalesMetrics(summary *models.DailySummary, sales []models.Sale) {
	totalSales := decimal.Zero
	itemsSold := decimal.Zero
	orders := make(map[string]struct{})

	for i := range sales {
		totalSales = totalSales.Add(sales[i].TotalSalePrice)
		itemsSold = itemsSold.Add(sales[i].QuantitySold)
		orders[sales[i].OrderNumber] = struct{}{}
	}

	summary.TotalSales = totalSales.Round(2)
	summary.TotalOrders = len(orders)
	summary.TotalCustomers = len(orders)
	summary.TotalItemsSold = int(itemsSold.IntPart())

	if summary.TotalOrders > 0 {
		summary.AverageOrderValue = totalSales.Div(decimal.NewFromInt(int64(summary.TotalOrders))).Round(2)
	} else {
		summary.AverageOrderValue = decimal.Zero
	}
}

// applyCostMetrics prices every sold line: resale products through product
// costing (confidence 100), dishes through dual recipe costing, and products
// with no recipe through product costing at confidence 50.
func (s *DailyAnalyticsService) applyCostMetrics(summary *models.DailySummary, sales []models.Sale, targetDate time.Time) error {
	conservativeFoodCost := decimal.Zero
	estimatedFoodCost := decimal.Zero
	resaleCost := decimal.Zero

	totalMissing := 0
	totalEstimated := 0
	var confidenceScores []decimal.Decimal

	for i := range sales {
		sale := &sales[i]
		if sale.Product == nil {
			continue
		}

		if s.isResaleProduct(sale.Product) {
			cost := s.productCosting.CurrentCost(sale.Product, targetDate).
				Mul(sale.QuantitySold).Round(2)
			resaleCost = resaleCost.Add(cost)
			confidenceScores = append(confidenceScores, decimal.NewFromInt(100))
			continue
		}

		recipe := s.findRecipeForProduct(sale.Product)
		if recipe != nil {
			dual := s.recipeCosting.CalculateDualRecipeCost(recipe, targetDate)

			conservativeFoodCost = conservativeFoodCost.Add(
				dual.Conservative.TotalCostPerPortion.Mul(sale.QuantitySold))
			estimatedFoodCost = estimatedFoodCost.Add(
				dual.Estimated.TotalCostPerPortion.Mul(sale.QuantitySold))

			totalMissing += dual.Confidence.MissingIngredientsCount
			totalEstimated += dual.Confidence.EstimatedIngredientsCount
			confidenceScores = append(confidenceScores, dual.Confidence.DataCompletenessPercentage)
			continue
		}

		// No recipe found: price by product cost, medium confidence
		cost := s.productCosting.CurrentCost(sale.Product, targetDate).
			Mul(sale.QuantitySold).Round(2)
		conservativeFoodCost = conservativeFoodCost.Add(cost)
		estimatedFoodCost = estimatedFoodCost.Add(cost)
		confidenceScores = append(confidenceScores, decimal.NewFromInt(50))
	}

	completeness := decimal.Zero
	if len(confidenceScores) > 0 {
		total := decimal.Zero
		for _, c := range confidenceScores {
			total = total.Add(c)
		}
		completeness = total.Div(decimal.NewFromInt(int64(len(confidenceScores))))
	}

	summary.TotalFoodCost = estimatedFoodCost.Round(2)
	summary.TotalFoodCostConservative = conservativeFoodCost.Round(2)
	summary.ResaleCost = resaleCost.Round(2)
	summary.CogsConfidenceLevel = ConfidenceLevelFor(completeness)
	summary.DataCompletenessPercentage = completeness.Round(2)
	summary.MissingIngredientsCount = totalMissing
	summary.EstimatedIngredientsCount = totalEstimated

	return nil
}

// applyPaymentEstimates splits the day's sales by payment-method market share
func applyPaymentEstimates(summary *models.DailySummary) {
	hundred := decimal.NewFromInt(100)
	total := summary.TotalSales
	summary.CashSales = total.Mul(cashSharePct).Div(hundred).Round(2)
	summary.MobileMoneySales = total.Mul(mobileMoneySharePct).Div(hundred).Round(2)
	summary.CreditCardSales = total.Mul(cardSharePct).Div(hundred).Round(2)
	summary.OtherPaymentMethodsSales = total.Mul(otherSharePct).Div(hundred).Round(2)
}

// applyTimeEstimates splits the day's sales by typical service patterns
func applyTimeEstimates(summary *models.DailySummary) {
	hundred := decimal.NewFromInt(100)
	total := summary.TotalSales
	summary.LunchSales = total.Mul(lunchSharePct).Div(hundred).Round(2)
	summary.DinnerSales = total.Mul(dinnerSharePct).Div(hundred).Round(2)
	summary.PeakHourSales = total.Mul(peakHourSharePct).Div(hundred).Round(2)
}

// isResaleProduct checks the ProductType classification; without one, a
// product with no matching recipe counts as resale.
func (s *DailyAnalyticsService) isResaleProduct(product *models.Product) bool {
	var productType models.ProductType
	err := s.db.Where("product_id = ?", product.ID).First(&productType).Error
	if err == nil {
		return productType.ProductType == models.ProductTypeResale
	}

	var count int64
	s.db.Model(&models.Recipe{}).
		Where("dish_name ILIKE ? AND is_active = ?", "%"+product.Name+"%", true).
		Count(&count)
	return count == 0
}

// findRecipeForProduct matches a sold product to its recipe: exact name,
// then case-insensitive, then substring as a last resort.
func (s *DailyAnalyticsService) findRecipeForProduct(product *models.Product) *models.Recipe {
	var recipe models.Recipe

	err := s.db.Preload("Ingredients").Preload("Ingredients.Ingredient").Preload("Ingredients.UnitOfRecipe").
		Where("dish_name = ? AND is_active = ?", product.Name, true).
		First(&recipe).Error
	if err == nil {
		return &recipe
	}

	err = s.db.Preload("Ingredients").Preload("Ingredients.Ingredient").Preload("Ingredients.UnitOfRecipe").
		Where("LOWER(dish_name) = LOWER(?) AND is_active = ?", product.Name, true).
		First(&recipe).Error
	if err == nil {
		return &recipe
	}

	err = s.db.Preload("Ingredients").Preload("Ingredients.Ingredient").Preload("Ingredients.UnitOfRecipe").
		Where("dish_name ILIKE ? AND is_active = ?", "%"+product.Name+"%", true).
		First(&recipe).Error
	if err == nil {
		log.Printf("⚠️ Using partial recipe match for %s: %s", product.Name, recipe.DishName)
		return &recipe
	}

	return nil
}

// CalculateDateRangeSummaries recalculates every day in [start, end]
func (s *DailyAnalyticsService) CalculateDateRangeSummaries(start, end time.Time) ([]models.DailySummary, []string) {
	var summaries []models.DailySummary
	var errors []string

	for d := truncateToDay(start); !d.After(truncateToDay(end)); d = d.AddDate(0, 0, 1) {
		summary, err := s.CalculateDailySummary(d)
		if err != nil {
			msg := fmt.Sprintf("error calculating summary for %s: %v", d.Format("2006-01-02"), err)
			errors = append(errors, msg)
			log.Printf("❌ %s", msg)
			continue
		}
		summaries = append(summaries, *summary)
	}

	return summaries, errors
}

// ProductSales is one row of the per-product breakdown
type ProductSales struct {
	ProductName   string          `json:"product_name"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	AveragePrice  decimal.Decimal `json:"average_price"`
}

// SalesByProduct breaks a day's sales down by product, best sellers first
func (s *DailyAnalyticsService) SalesByProduct(targetDate time.Time) ([]ProductSales, error) {
	var rows []ProductSales
	err := s.db.Model(&models.Sale{}).
		Select("products.name AS product_name, SUM(sales.quantity_sold) AS total_quantity, "+
			"SUM(sales.total_sale_price) AS total_revenue, AVG(sales.unit_sale_price) AS average_price").
		Joins("JOIN products ON products.id = sales.product_id").
		Where("sales.sale_date = ?", truncateToDay(targetDate)).
		Group("products.name").
		Order("total_revenue DESC").
		Scan(&rows).Error
	return rows, err
}

// DailyTrendPoint is one day of the weekly trend
type DailyTrendPoint struct {
	Date               time.Time       `json:"date"`
	TotalSales         decimal.Decimal `json:"total_sales"`
	TotalOrders        int             `json:"total_orders"`
	FoodCostPercentage decimal.Decimal `json:"food_cost_percentage"`
}

// WeeklyTrends returns the 7 days ending at endDate (default yesterday)
func (s *DailyAnalyticsService) WeeklyTrends(endDate time.Time) (map[string]interface{}, error) {
	if endDate.IsZero() {
		endDate = time.Now().UTC().AddDate(0, 0, -1)
	}
	endDate = truncateToDay(endDate)
	startDate := endDate.AddDate(0, 0, -6)

	var points []DailyTrendPoint
	err := s.db.Model(&models.DailySummary{}).
		Select("date, total_sales, total_orders, food_cost_percentage").
		Where("date BETWEEN ? AND ?", startDate, endDate).
		Order("date ASC").
		Scan(&points).Error
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"period":     fmt.Sprintf("%s to %s", startDate.Format("2006-01-02"), endDate.Format("2006-01-02")),
		"daily_data": points,
	}, nil
}

// PerformanceAnalysis grades a day against industry and local benchmarks
func (s *DailyAnalyticsService) PerformanceAnalysis(targetDate time.Time) (map[string]interface{}, error) {
	var summary models.DailySummary
	err := s.db.Where("date = ?", truncateToDay(targetDate)).First(&summary).Error
	if err != nil {
		return nil, fmt.Errorf("no summary found for %s", targetDate.Format("2006-01-02"))
	}

	return map[string]interface{}{
		"date":                       summary.Date,
		"performance_grade":          summary.PerformanceGrade(),
		"food_cost_status":           summary.FoodCostStatus(),
		"is_food_cost_healthy":       summary.IsFoodCostHealthy(),
		"cash_percentage":            summary.CashPercentage(),
		"digital_payment_percentage": summary.DigitalPaymentPercentage(),
		"benchmarks":                 BenchmarkComparison(&summary),
		"insights":                   GenerateInsights(&summary),
	}, nil
}

// BenchmarkComparison classifies a day against food-cost, order-value and
// customer-volume benchmarks for the local market.
func BenchmarkComparison(summary *models.DailySummary) map[string]string {
	benchmarks := make(map[string]string)

	foodCost := summary.FoodCostPercentage
	switch {
	case foodCost.LessThanOrEqual(decimal.NewFromInt(25)):
		benchmarks["food_cost"] = "excellent"
	case foodCost.LessThanOrEqual(decimal.NewFromInt(30)):
		benchmarks["food_cost"] = "good"
	case foodCost.LessThanOrEqual(decimal.NewFromInt(35)):
		benchmarks["food_cost"] = "acceptable"
	default:
		benchmarks["food_cost"] = "needs_attention"
	}

	aov := summary.AverageOrderValue
	switch {
	case aov.GreaterThanOrEqual(decimal.NewFromInt(2000)) && aov.LessThanOrEqual(decimal.NewFromInt(8000)):
		benchmarks["average_order_value"] = "cameroon_casual"
	case aov.GreaterThan(decimal.NewFromInt(8000)) && aov.LessThanOrEqual(decimal.NewFromInt(25000)):
		benchmarks["average_order_value"] = "cameroon_upscale"
	default:
		benchmarks["average_order_value"] = "outside_range"
	}

	switch customers := summary.TotalCustomers; {
	case customers >= 50 && customers <= 150:
		benchmarks["customer_volume"] = "small_restaurant"
	case customers > 150 && customers <= 300:
		benchmarks["customer_volume"] = "medium_restaurant"
	case customers > 300:
		benchmarks["customer_volume"] = "large_restaurant"
	default:
		benchmarks["customer_volume"] = "very_small"
	}

	return benchmarks
}

// GenerateInsights produces manager-facing observations about a day
func GenerateInsights(summary *models.DailySummary) []string {
	var insights []string

	if summary.FoodCostPercentage.GreaterThan(decimal.NewFromInt(35)) {
		insights = append(insights, "Food cost is above industry standard (35%). Consider reviewing supplier prices or menu pricing.")
	} else if summary.FoodCostPercentage.IsPositive() && summary.FoodCostPercentage.LessThan(decimal.NewFromInt(20)) {
		insights = append(insights, "Food cost is very low. This could indicate underpricing or quality issues.")
	}

	if summary.CashPercentage().GreaterThan(decimal.NewFromInt(80)) {
		insights = append(insights, "High cash percentage. Consider promoting digital payment methods for better tracking.")
	}

	if summary.TotalSales.IsZero() {
		insights = append(insights, "No sales recorded for this day. Verify data entry.")
	}

	if summary.TotalCustomers > 0 && summary.AverageTicketSize.LessThan(decimal.NewFromInt(2000)) {
		insights = append(insights, "Low average check per person. Consider upselling strategies.")
	}

	return insights
}

// MonthlyPerformanceReport aggregates a calendar month of summaries
func (s *DailyAnalyticsService) MonthlyPerformanceReport(year, month int) (map[string]interface{}, error) {
	startDate := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	endDate := startDate.AddDate(0, 1, -1)

	var summaries []models.DailySummary
	if err := s.db.Where("date BETWEEN ? AND ?", startDate, endDate).
		Order("date ASC").
		Find(&summaries).Error; err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, fmt.Errorf("no data found for %d-%02d", year, month)
	}

	totalSales := decimal.Zero
	totalOrders := 0
	totalCustomers := 0
	totalFoodCost := decimal.Zero
	sumFoodCostPct := decimal.Zero
	sumAOV := decimal.Zero

	gradeCounts := make(map[string]int)
	best := &summaries[0]
	worst := &summaries[0]

	for i := range summaries {
		d := &summaries[i]
		totalSales = totalSales.Add(d.TotalSales)
		totalOrders += d.TotalOrders
		totalCustomers += d.TotalCustomers
		totalFoodCost = totalFoodCost.Add(d.TotalFoodCost)
		sumFoodCostPct = sumFoodCostPct.Add(d.FoodCostPercentage)
		sumAOV = sumAOV.Add(d.AverageOrderValue)
		gradeCounts[d.PerformanceGrade()]++

		if d.TotalSales.GreaterThan(best.TotalSales) {
			best = d
		}
		if d.TotalSales.LessThan(worst.TotalSales) {
			worst = d
		}
	}

	days := decimal.NewFromInt(int64(len(summaries)))

	return map[string]interface{}{
		"period":     fmt.Sprintf("%d-%02d", year, month),
		"total_days": len(summaries),
		"monthly_totals": map[string]interface{}{
			"total_sales":       totalSales,
			"total_orders":      totalOrders,
			"total_customers":   totalCustomers,
			"total_food_cost":   totalFoodCost,
			"avg_food_cost_pct": sumFoodCostPct.Div(days).Round(2),
			"avg_order_value":   sumAOV.Div(days).Round(2),
		},
		"daily_averages": map[string]interface{}{
			"avg_daily_sales":  totalSales.Div(days).Round(2),
			"avg_daily_orders": decimal.NewFromInt(int64(totalOrders)).Div(days).Round(2),
		},
		"performance_summary": map[string]interface{}{
			"grade_distribution": gradeCounts,
			"best_day": map[string]interface{}{
				"date":   best.Date,
				"sales":  best.TotalSales,
				"orders": best.TotalOrders,
			},
			"worst_day": map[string]interface{}{
				"date":   worst.Date,
				"sales":  worst.TotalSales,
				"orders": worst.TotalOrders,
			},
		},
	}, nil
}

// PaymentMethodAnalysis totals payment methods over a range and compares
// the mix to Cameroon benchmarks.
func (s *DailyAnalyticsService) PaymentMethodAnalysis(start, end time.Time) (map[string]interface{}, error) {
	var summaries []models.DailySummary
	if err := s.db.Where("date BETWEEN ? AND ?", truncateToDay(start), truncateToDay(end)).
		Find(&summaries).Error; err != nil {
		return nil, err
	}

	totalCash := decimal.Zero
	totalCard := decimal.Zero
	totalMobile := decimal.Zero
	totalOther := decimal.Zero
	totalSales := decimal.Zero

	for i := range summaries {
		totalCash = totalCash.Add(summaries[i].CashSales)
		totalCard = totalCard.Add(summaries[i].CreditCardSales)
		totalMobile = totalMobile.Add(summaries[i].MobileMoneySales)
		totalOther = totalOther.Add(summaries[i].OtherPaymentMethodsSales)
		totalSales = totalSales.Add(summaries[i].TotalSales)
	}

	percentages := map[string]decimal.Decimal{
		"cash":         decimal.Zero,
		"card":         decimal.Zero,
		"mobile_money": decimal.Zero,
		"other":        decimal.Zero,
	}
	if totalSales.IsPositive() {
		hundred := decimal.NewFromInt(100)
		percentages["cash"] = totalCash.Div(totalSales).Mul(hundred)
		percentages["card"] = totalCard.Div(totalSales).Mul(hundred)
		percentages["mobile_money"] = totalMobile.Div(totalSales).Mul(hundred)
		percentages["other"] = totalOther.Div(totalSales).Mul(hundred)
	}

	return map[string]interface{}{
		"period": fmt.Sprintf("%s to %s", start.Format("2006-01-02"), end.Format("2006-01-02")),
		"totals": map[string]decimal.Decimal{
			"total_cash":         totalCash,
			"total_card":         totalCard,
			"total_mobile_money": totalMobile,
			"total_other":        totalOther,
			"total_sales":        totalSales,
		},
		"percentages":          percentages,
		"benchmark_comparison": comparePaymentMix(percentages),
	}, nil
}

func comparePaymentMix(percentages map[string]decimal.Decimal) map[string]string {
	comparison := make(map[string]string)

	cash := percentages["cash"]
	switch {
	case cash.GreaterThanOrEqual(decimal.NewFromInt(int64(cameroonPaymentBenchmarks.CashMin))) &&
		cash.LessThanOrEqual(decimal.NewFromInt(int64(cameroonPaymentBenchmarks.CashMax))):
		comparison["cash"] = "within_benchmark"
	case cash.GreaterThan(decimal.NewFromInt(int64(cameroonPaymentBenchmarks.CashMax))):
		comparison["cash"] = "above_benchmark"
	default:
		comparison["cash"] = "below_benchmark"
	}

	mobile := percentages["mobile_money"]
	switch {
	case mobile.GreaterThanOrEqual(decimal.NewFromInt(int64(cameroonPaymentBenchmarks.MobileMin))) &&
		mobile.LessThanOrEqual(decimal.NewFromInt(int64(cameroonPaymentBenchmarks.MobileMax))):
		comparison["mobile_money"] = "within_benchmark"
	case mobile.GreaterThan(decimal.NewFromInt(int64(cameroonPaymentBenchmarks.MobileMax))):
		comparison["mobile_money"] = "above_benchmark"
	default:
		comparison["mobile_money"] = "below_benchmark"
	}

	return comparison
}

// truncateToDay drops the time component, keeping UTC day granularity
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
