package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bistrotrack/server/internal/models"
)

// Daily revenue targets for the Cameroon market (FCFA)
var dailyRevenueTargets = map[string][2]int64{
	"small_restaurant":  {50000, 150000},
	"medium_restaurant": {150000, 300000},
	"large_restaurant":  {300000, 500000},
}

// RevenueAnalyticsService answers the revenue questions on top of the
// stored daily summaries and raw sales: how much is coming in, what drives
// it, and whether it is growing.
type RevenueAnalyticsService struct {
	db *gorm.DB
}

// NewRevenueAnalyticsService creates the revenue analytics service
func NewRevenueAnalyticsService(db *gorm.DB) *RevenueAnalyticsService {
	return &RevenueAnalyticsService{db: db}
}

// CategoryRevenue is the revenue roll-up for one sales category
type CategoryRevenue struct {
	CategoryName      string          `json:"category_name"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalQuantity     decimal.Decimal `json:"total_quantity"`
	OrderCount        int             `json:"order_count"`
	AvgUnitPrice      decimal.Decimal `json:"avg_unit_price"`
	RevenuePercentage decimal.Decimal `json:"revenue_percentage"`
	PerformanceGrade  string          `json:"performance_grade"`
}

// ProductRevenue is the revenue roll-up for one product
type ProductRevenue struct {
	ProductID             string          `json:"product_id"`
	ProductName           string          `json:"product_name"`
	Category              string          `json:"category"`
	TotalRevenue          decimal.Decimal `json:"total_revenue"`
	TotalQuantity         decimal.Decimal `json:"total_quantity"`
	OrderCount            int             `json:"order_count"`
	AvgUnitPrice          decimal.Decimal `json:"avg_unit_price"`
	CurrentPrice          decimal.Decimal `json:"current_price"`
	EstimatedCost         decimal.Decimal `json:"estimated_cost"`
	EstimatedProfitMargin decimal.Decimal `json:"estimated_profit_margin"`
	CostDataSource        string          `json:"cost_data_source"`
	PerformanceGrade      string          `json:"performance_grade"`
}

// PeriodMetrics are the revenue totals for one comparison period
type PeriodMetrics struct {
	PeriodName      string          `json:"period_name"`
	StartDate       time.Time       `json:"start_date"`
	EndDate         time.Time       `json:"end_date"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	TotalOrders     int             `json:"total_orders"`
	TotalCustomers  int             `json:"total_customers"`
	AvgDailyRevenue decimal.Decimal `json:"avg_daily_revenue"`
	AvgOrderValue   decimal.Decimal `json:"avg_order_value"`
	AvgTicketSize   decimal.Decimal `json:"avg_ticket_size"`
}

// RevenueOverview summarizes revenue for a date range
func (s *RevenueAnalyticsService) RevenueOverview(start, end time.Time) (map[string]interface{}, error) {
	var summaries []models.DailySummary
	err := s.db.Where("date BETWEEN ? AND ?", truncateToDay(start), truncateToDay(end)).
		Order("date ASC").
		Find(&summaries).Error
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, fmt.Errorf("no data found for the specified period")
	}

	totalRevenue := decimal.Zero
	totalOrders := 0
	totalCustomers := 0
	for i := range summaries {
		totalRevenue = totalRevenue.Add(summaries[i].TotalSales)
		totalOrders += summaries[i].TotalOrders
		totalCustomers += summaries[i].TotalCustomers
	}

	days := decimal.NewFromInt(int64(len(summaries)))
	avgDailyRevenue := totalRevenue.Div(days)

	avgOrderValue := decimal.Zero
	if totalOrders > 0 {
		avgOrderValue = totalRevenue.Div(decimal.NewFromInt(int64(totalOrders)))
	}
	avgTicketSize := decimal.Zero
	if totalCustomers > 0 {
		avgTicketSize = totalRevenue.Div(decimal.NewFromInt(int64(totalCustomers)))
	}

	return map[string]interface{}{
		"period": map[string]interface{}{
			"start_date": start.Format("2006-01-02"),
			"end_date":   end.Format("2006-01-02"),
			"days_count": len(summaries),
		},
		"total_metrics": map[string]interface{}{
			"total_revenue":   totalRevenue,
			"total_orders":    totalOrders,
			"total_customers": totalCustomers,
		},
		"average_metrics": map[string]interface{}{
			"avg_daily_revenue": avgDailyRevenue.Round(2),
			"avg_order_value":   avgOrderValue.Round(2),
			"avg_ticket_size":   avgTicketSize.Round(2),
		},
		"growth_metrics":       RevenueGrowth(summaries),
		"performance_analysis": AnalyzeRevenuePerformance(avgDailyRevenue),
		"benchmark_comparison": CompareToRevenueBenchmarks(avgDailyRevenue),
	}, nil
}

// TopPerformingCategories ranks sales categories by revenue
func (s *RevenueAnalyticsService) TopPerformingCategories(start, end time.Time, limit int) (map[string]interface{}, error) {
	if limit <= 0 {
		limit = 10
	}

	var rows []CategoryRevenue
	err := s.db.Model(&models.Sale{}).
		Select("COALESCE(sales_categories.name, 'Uncategorized') AS category_name, "+
			"SUM(sales.total_sale_price) AS total_revenue, "+
			"SUM(sales.quantity_sold) AS total_quantity, "+
			"COUNT(DISTINCT sales.order_number) AS order_count, "+
			"AVG(sales.unit_sale_price) AS avg_unit_price").
		Joins("JOIN products ON products.id = sales.product_id").
		Joins("LEFT JOIN sales_categories ON sales_categories.id = products.sales_category_id").
		Where("sales.sale_date BETWEEN ? AND ?", truncateToDay(start), truncateToDay(end)).
		Group("sales_categories.name").
		Order("total_revenue DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totalRevenue := decimal.Zero
	for i := range rows {
		totalRevenue = totalRevenue.Add(rows[i].TotalRevenue)
	}

	if len(rows) > limit {
		rows = rows[:limit]
	}
	for i := range rows {
		if totalRevenue.IsPositive() {
			rows[i].RevenuePercentage = rows[i].TotalRevenue.Div(totalRevenue).
				Mul(decimal.NewFromInt(100)).Round(2)
		}
		rows[i].PerformanceGrade = GradeCategoryRevenueShare(rows[i].RevenuePercentage)
	}

	return map[string]interface{}{
		"period":        fmt.Sprintf("%s to %s", start.Format("2006-01-02"), end.Format("2006-01-02")),
		"total_revenue": totalRevenue,
		"categories":    rows,
	}, nil
}

// TopPerformingProducts ranks products by revenue with an estimated margin.
// The margin uses the latest purchase cost when available and falls back to
// the 35% industry estimate otherwise.
func (s *RevenueAnalyticsService) TopPerformingProducts(start, end time.Time, limit int) (map[string]interface{}, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows []ProductRevenue
	err := s.db.Model(&models.Sale{}).
		Select("products.id AS product_id, products.name AS product_name, "+
			"COALESCE(sales_categories.name, 'Uncategorized') AS category, "+
			"SUM(sales.total_sale_price) AS total_revenue, "+
			"SUM(sales.quantity_sold) AS total_quantity, "+
			"COUNT(DISTINCT sales.order_number) AS order_count, "+
			"AVG(sales.unit_sale_price) AS avg_unit_price, "+
			"products.current_selling_price AS current_price").
		Joins("JOIN products ON products.id = sales.product_id").
		Joins("LEFT JOIN sales_categories ON sales_categories.id = products.sales_category_id").
		Where("sales.sale_date BETWEEN ? AND ?", truncateToDay(start), truncateToDay(end)).
		Group("products.id, products.name, sales_categories.name, products.current_selling_price").
		Order("total_revenue DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	hundred := decimal.NewFromInt(100)
	for i := range rows {
		row := &rows[i]
		if row.CurrentPrice.IsZero() {
			row.CurrentPrice = row.AvgUnitPrice
		}

		cost, actual := s.latestProductCost(row.ProductID, start)
		if !actual {
			// Industry estimate for the Cameroon market
			cost = row.CurrentPrice.Mul(decimal.RequireFromString("0.35"))
		}
		row.EstimatedCost = cost.Round(2)
		if actual {
			row.CostDataSource = "actual"
		} else {
			row.CostDataSource = "estimated"
		}

		if row.CurrentPrice.IsPositive() {
			row.EstimatedProfitMargin = row.CurrentPrice.Sub(cost).
				Div(row.CurrentPrice).Mul(hundred).Round(2)
		}
		row.PerformanceGrade = GradeProductRevenue(row.TotalRevenue)
	}

	return map[string]interface{}{
		"period":   fmt.Sprintf("%s to %s", start.Format("2006-01-02"), end.Format("2006-01-02")),
		"products": rows,
	}, nil
}

// latestProductCost reads the most recent active cost history row at or
// before asOf, then falls back to the all-time average.
func (s *RevenueAnalyticsService) latestProductCost(productID string, asOf time.Time) (decimal.Decimal, bool) {
	var history models.ProductCostHistory
	err := s.db.Where("product_id = ? AND purchase_date <= ? AND is_active = ?", productID, asOf, true).
		Order("purchase_date DESC").
		First(&history).Error
	if err == nil {
		return history.UnitCostInRecipeUnits, true
	}

	var avg struct{ AvgCost decimal.Decimal }
	err = s.db.Model(&models.ProductCostHistory{}).
		Select("AVG(unit_cost_in_recipe_units) AS avg_cost").
		Where("product_id = ? AND is_active = ?", productID, true).
		Scan(&avg).Error
	if err == nil && avg.AvgCost.IsPositive() {
		return avg.AvgCost, true
	}

	return decimal.Zero, false
}

// GrowthAnalysis compares the current period with the preceding one of equal
// length. Zero dates default to the last 90 days vs the 90 before them.
func (s *RevenueAnalyticsService) GrowthAnalysis(currentStart, currentEnd time.Time) (map[string]interface{}, error) {
	if currentEnd.IsZero() {
		currentEnd = time.Now().UTC().AddDate(0, 0, -1)
	}
	if currentStart.IsZero() {
		currentStart = currentEnd.AddDate(0, 0, -90)
	}
	currentStart = truncateToDay(currentStart)
	currentEnd = truncateToDay(currentEnd)

	periodDays := int(currentEnd.Sub(currentStart).Hours()/24) + 1
	previousEnd := currentStart.AddDate(0, 0, -1)
	previousStart := previousEnd.AddDate(0, 0, -(periodDays - 1))

	current, err := s.periodMetrics("current", currentStart, currentEnd)
	if err != nil {
		return nil, err
	}
	previous, err := s.periodMetrics("previous", previousStart, previousEnd)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"comparison_periods": []PeriodMetrics{current, previous},
		"growth_rates":       GrowthRates(current, previous),
	}, nil
}

func (s *RevenueAnalyticsService) periodMetrics(name string, start, end time.Time) (PeriodMetrics, error) {
	var summaries []models.DailySummary
	err := s.db.Where("date BETWEEN ? AND ?", start, end).Find(&summaries).Error
	if err != nil {
		return PeriodMetrics{}, err
	}

	metrics := PeriodMetrics{PeriodName: name, StartDate: start, EndDate: end}
	for i := range summaries {
		metrics.TotalRevenue = metrics.TotalRevenue.Add(summaries[i].TotalSales)
		metrics.TotalOrders += summaries[i].TotalOrders
		metrics.TotalCustomers += summaries[i].TotalCustomers
	}

	if len(summaries) > 0 {
		metrics.AvgDailyRevenue = metrics.TotalRevenue.
			Div(decimal.NewFromInt(int64(len(summaries)))).Round(2)
	}
	if metrics.TotalOrders > 0 {
		metrics.AvgOrderValue = metrics.TotalRevenue.
			Div(decimal.NewFromInt(int64(metrics.TotalOrders))).Round(2)
	}
	if metrics.TotalCustomers > 0 {
		metrics.AvgTicketSize = metrics.TotalRevenue.
			Div(decimal.NewFromInt(int64(metrics.TotalCustomers))).Round(2)
	}

	return metrics, nil
}

// DayOfWeekRevenue averages revenue per weekday in chart-ready order
func (s *RevenueAnalyticsService) DayOfWeekRevenue(start, end time.Time) (map[string]interface{}, error) {
	var summaries []models.DailySummary
	err := s.db.Where("date BETWEEN ? AND ?", truncateToDay(start), truncateToDay(end)).
		Find(&summaries).Error
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, fmt.Errorf("no data found for the specified period")
	}

	labels := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	totals := make(map[string]decimal.Decimal, len(labels))
	counts := make(map[string]int, len(labels))

	for i := range summaries {
		day := summaries[i].Date.Weekday().String()
		totals[day] = totals[day].Add(summaries[i].TotalSales)
		counts[day]++
	}

	revenue := make([]decimal.Decimal, 0, len(labels))
	for _, day := range labels {
		if counts[day] > 0 {
			revenue = append(revenue, totals[day].Div(decimal.NewFromInt(int64(counts[day]))).Round(2))
		} else {
			revenue = append(revenue, decimal.Zero)
		}
	}

	return map[string]interface{}{
		"labels":  labels,
		"revenue": revenue,
		"period":  fmt.Sprintf("%s to %s", start.Format("2006-01-02"), end.Format("2006-01-02")),
	}, nil
}

// UnderperformingAreas lists categories under 5% of revenue and products
// under 10k FCFA for the range.
func (s *RevenueAnalyticsService) UnderperformingAreas(start, end time.Time) (map[string]interface{}, error) {
	categoryReport, err := s.TopPerformingCategories(start, end, 1000)
	if err != nil {
		return nil, err
	}

	var weakCategories []CategoryRevenue
	if categories, ok := categoryReport["categories"].([]CategoryRevenue); ok {
		for _, c := range categories {
			if c.RevenuePercentage.LessThan(decimal.NewFromInt(5)) {
				weakCategories = append(weakCategories, c)
			}
		}
	}

	var weakProducts []ProductRevenue
	err = s.db.Model(&models.Sale{}).
		Select("products.id AS product_id, products.name AS product_name, "+
			"COALESCE(sales_categories.name, 'Uncategorized') AS category, "+
			"SUM(sales.total_sale_price) AS total_revenue, "+
			"SUM(sales.quantity_sold) AS total_quantity").
		Joins("JOIN products ON products.id = sales.product_id").
		Joins("LEFT JOIN sales_categories ON sales_categories.id = products.sales_category_id").
		Where("sales.sale_date BETWEEN ? AND ?", truncateToDay(start), truncateToDay(end)).
		Group("products.id, products.name, sales_categories.name").
		Having("SUM(sales.total_sale_price) < ?", 10000).
		Order("total_revenue ASC").
		Scan(&weakProducts).Error
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"period":                      fmt.Sprintf("%s to %s", start.Format("2006-01-02"), end.Format("2006-01-02")),
		"underperforming_categories":  weakCategories,
		"underperforming_products":    weakProducts,
		"category_revenue_threshold":  "5%",
		"product_revenue_threshold":   "10000 FCFA",
	}, nil
}

// RevenueGrowth compares the first and last week (or half) of the period
func RevenueGrowth(summaries []models.DailySummary) map[string]interface{} {
	if len(summaries) < 2 {
		return map[string]interface{}{}
	}

	window := 7
	if len(summaries) < 14 {
		window = len(summaries) / 2
	}
	if window < 1 {
		return map[string]interface{}{}
	}

	firstRevenue := decimal.Zero
	for i := 0; i < window; i++ {
		firstRevenue = firstRevenue.Add(summaries[i].TotalSales)
	}
	lastRevenue := decimal.Zero
	for i := len(summaries) - window; i < len(summaries); i++ {
		lastRevenue = lastRevenue.Add(summaries[i].TotalSales)
	}

	growthRate := decimal.Zero
	if firstRevenue.IsPositive() {
		growthRate = lastRevenue.Sub(firstRevenue).Div(firstRevenue).Mul(decimal.NewFromInt(100))
	}

	trend := "stable"
	if growthRate.IsPositive() {
		trend = "increasing"
	} else if growthRate.IsNegative() {
		trend = "decreasing"
	}

	return map[string]interface{}{
		"period_over_period_growth": growthRate.Round(2),
		"growth_trend":              trend,
	}
}

// GrowthRates compares two periods metric by metric
func GrowthRates(current, previous PeriodMetrics) map[string]decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	rate := func(cur, prev decimal.Decimal) decimal.Decimal {
		if !prev.IsPositive() {
			return decimal.Zero
		}
		return cur.Sub(prev).Div(prev).Mul(hundred).Round(2)
	}

	return map[string]decimal.Decimal{
		"total_revenue_growth": rate(current.TotalRevenue, previous.TotalRevenue),
		"total_orders_growth": rate(
			decimal.NewFromInt(int64(current.TotalOrders)),
			decimal.NewFromInt(int64(previous.TotalOrders))),
		"total_customers_growth": rate(
			decimal.NewFromInt(int64(current.TotalCustomers)),
			decimal.NewFromInt(int64(previous.TotalCustomers))),
		"avg_daily_revenue_growth": rate(current.AvgDailyRevenue, previous.AvgDailyRevenue),
	}
}

// AnalyzeRevenuePerformance scores average daily revenue against the target
// band for the restaurant's size class.
func AnalyzeRevenuePerformance(avgDailyRevenue decimal.Decimal) map[string]interface{} {
	sizeCategory := "large_restaurant"
	if avgDailyRevenue.LessThan(decimal.NewFromInt(150000)) {
		sizeCategory = "small_restaurant"
	} else if avgDailyRevenue.LessThan(decimal.NewFromInt(300000)) {
		sizeCategory = "medium_restaurant"
	}

	targets := dailyRevenueTargets[sizeCategory]
	benchmarkMin := decimal.NewFromInt(targets[0])
	benchmarkMax := decimal.NewFromInt(targets[1])

	var score decimal.Decimal
	switch {
	case avgDailyRevenue.GreaterThanOrEqual(benchmarkMin) && avgDailyRevenue.LessThanOrEqual(benchmarkMax):
		score = decimal.NewFromInt(100)
	case avgDailyRevenue.GreaterThan(benchmarkMax):
		score = decimal.NewFromInt(120)
	default:
		score = avgDailyRevenue.Div(benchmarkMin).Mul(decimal.NewFromInt(100))
	}

	var grade string
	switch {
	case score.GreaterThanOrEqual(decimal.NewFromInt(100)):
		grade = "A"
	case score.GreaterThanOrEqual(decimal.NewFromInt(80)):
		grade = "B"
	case score.GreaterThanOrEqual(decimal.NewFromInt(60)):
		grade = "C"
	case score.GreaterThanOrEqual(decimal.NewFromInt(40)):
		grade = "D"
	default:
		grade = "F"
	}

	return map[string]interface{}{
		"size_category":     sizeCategory,
		"target_range":      [2]decimal.Decimal{benchmarkMin, benchmarkMax},
		"performance_score": score.Round(2),
		"performance_grade": grade,
	}
}

// CompareToRevenueBenchmarks classifies average daily revenue against every
// size band.
func CompareToRevenueBenchmarks(avgDailyRevenue decimal.Decimal) map[string]string {
	comparisons := make(map[string]string, len(dailyRevenueTargets))
	for size, targets := range dailyRevenueTargets {
		min := decimal.NewFromInt(targets[0])
		max := decimal.NewFromInt(targets[1])
		switch {
		case avgDailyRevenue.GreaterThanOrEqual(min) && avgDailyRevenue.LessThanOrEqual(max):
			comparisons[size] = "within_range"
		case avgDailyRevenue.GreaterThan(max):
			comparisons[size] = "above_range"
		default:
			comparisons[size] = "below_range"
		}
	}
	return comparisons
}

// GradeCategoryRevenueShare grades a category by its share of revenue
func GradeCategoryRevenueShare(revenuePercentage decimal.Decimal) string {
	switch {
	case revenuePercentage.GreaterThanOrEqual(decimal.NewFromInt(20)):
		return "A"
	case revenuePercentage.GreaterThanOrEqual(decimal.NewFromInt(15)):
		return "B"
	case revenuePercentage.GreaterThanOrEqual(decimal.NewFromInt(10)):
		return "C"
	case revenuePercentage.GreaterThanOrEqual(decimal.NewFromInt(5)):
		return "D"
	default:
		return "F"
	}
}

// GradeProductRevenue grades a product by its total revenue in FCFA
func GradeProductRevenue(totalRevenue decimal.Decimal) string {
	switch {
	case totalRevenue.GreaterThanOrEqual(decimal.NewFromInt(100000)):
		return "A"
	case totalRevenue.GreaterThanOrEqual(decimal.NewFromInt(50000)):
		return "B"
	case totalRevenue.GreaterThanOrEqual(decimal.NewFromInt(25000)):
		return "C"
	case totalRevenue.GreaterThanOrEqual(decimal.NewFromInt(10000)):
		return "D"
	default:
		return "F"
	}
}
