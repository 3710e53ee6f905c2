package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bistrotrack/server/internal/models"
)

// CostAnalyticsService answers the cost-control questions on top of the
// stored daily summaries and the purchase cost history: how much is spent on
// ingredients, whether costs are under control, and where to reduce them.
type CostAnalyticsService struct {
	db *gorm.DB
}

// NewCostAnalyticsService creates the cost analytics service
func NewCostAnalyticsService(db *gorm.DB) *CostAnalyticsService {
	return &CostAnalyticsService{db: db}
}

// CostAlert flags a day that breached a cost threshold
type CostAlert struct {
	Date      time.Time       `json:"date"`
	Type      string          `json:"type"`
	Message   string          `json:"message"`
	Value     decimal.Decimal `json:"value"`
	Threshold int             `json:"threshold"`
}

// CategoryCost is the cost roll-up for one ingredient category
type CategoryCost struct {
	CategoryName     string          `json:"category_name"`
	TotalCost        decimal.Decimal `json:"total_cost"`
	TotalQuantity    decimal.Decimal `json:"total_quantity"`
	AvgUnitCost      decimal.Decimal `json:"avg_unit_cost"`
	PurchaseCount    int             `json:"purchase_count"`
	CostPercentage   decimal.Decimal `json:"cost_percentage"`
	PerformanceGrade string          `json:"performance_grade"`
}

// CostOverview summarizes spending for a date range
func (s *CostAnalyticsService) CostOverview(start, end time.Time) (map[string]interface{}, error) {
	summaries, err := s.summariesInRange(start, end)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, fmt.Errorf("no data found for the specified period")
	}

	totalFoodCost := decimal.Zero
	totalRevenue := decimal.Zero
	totalWasteCost := decimal.Zero
	totalResaleCost := decimal.Zero
	for i := range summaries {
		totalFoodCost = totalFoodCost.Add(summaries[i].TotalFoodCost)
		totalRevenue = totalRevenue.Add(summaries[i].TotalSales)
		totalWasteCost = totalWasteCost.Add(summaries[i].WasteCost)
		totalResaleCost = totalResaleCost.Add(summaries[i].ResaleCost)
	}

	days := decimal.NewFromInt(int64(len(summaries)))
	hundred := decimal.NewFromInt(100)

	foodCostPct := decimal.Zero
	wasteCostPct := decimal.Zero
	resaleCostPct := decimal.Zero
	if totalRevenue.IsPositive() {
		foodCostPct = totalFoodCost.Div(totalRevenue).Mul(hundred)
		wasteCostPct = totalWasteCost.Div(totalRevenue).Mul(hundred)
		resaleCostPct = totalResaleCost.Div(totalRevenue).Mul(hundred)
	}

	return map[string]interface{}{
		"period": map[string]interface{}{
			"start_date": start.Format("2006-01-02"),
			"end_date":   end.Format("2006-01-02"),
			"days_count": len(summaries),
		},
		"total_metrics": map[string]interface{}{
			"total_food_cost":   totalFoodCost,
			"total_revenue":     totalRevenue,
			"total_waste_cost":  totalWasteCost,
			"total_resale_cost": totalResaleCost,
			"gross_profit":      totalRevenue.Sub(totalFoodCost).Sub(totalResaleCost),
		},
		"percentage_metrics": map[string]interface{}{
			"food_cost_percentage":   foodCostPct.Round(2),
			"waste_cost_percentage":  wasteCostPct.Round(2),
			"resale_cost_percentage": resaleCostPct.Round(2),
		},
		"average_metrics": map[string]interface{}{
			"avg_daily_food_cost":  totalFoodCost.Div(days).Round(2),
			"avg_daily_revenue":    totalRevenue.Div(days).Round(2),
			"avg_daily_waste_cost": totalWasteCost.Div(days).Round(2),
		},
		"cost_trend_direction": CostTrendDirection(summaries),
		"performance_analysis": AnalyzeCostPerformance(foodCostPct, wasteCostPct),
		"cost_alerts":          BuildCostAlerts(summaries),
	}, nil
}

// FoodCostAnalysis breaks down daily food cost with variance and control
// indicators for the range.
func (s *CostAnalyticsService) FoodCostAnalysis(start, end time.Time) (map[string]interface{}, error) {
	summaries, err := s.summariesInRange(start, end)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, fmt.Errorf("no data found for the specified period")
	}

	type dailyFoodCost struct {
		Date               time.Time       `json:"date"`
		FoodCost           decimal.Decimal `json:"food_cost"`
		FoodCostPercentage decimal.Decimal `json:"food_cost_percentage"`
		Revenue            decimal.Decimal `json:"revenue"`
		Status             string          `json:"status"`
	}

	daily := make([]dailyFoodCost, 0, len(summaries))
	sumPct := decimal.Zero
	for i := range summaries {
		d := &summaries[i]
		daily = append(daily, dailyFoodCost{
			Date:               d.Date,
			FoodCost:           d.TotalFoodCost,
			FoodCostPercentage: d.FoodCostPercentage,
			Revenue:            d.TotalSales,
			Status:             d.FoodCostStatus(),
		})
		sumPct = sumPct.Add(d.FoodCostPercentage)
	}
	avgPct := sumPct.Div(decimal.NewFromInt(int64(len(summaries))))

	// Days more than 5 points off the period average
	type varianceDay struct {
		Date               time.Time       `json:"date"`
		FoodCostPercentage decimal.Decimal `json:"food_cost_percentage"`
		Variance           decimal.Decimal `json:"variance"`
	}
	var highVarianceDays []varianceDay
	minVariance := decimal.Zero
	maxVariance := decimal.Zero
	for i := range summaries {
		variance := summaries[i].FoodCostPercentage.Sub(avgPct)
		if i == 0 || variance.LessThan(minVariance) {
			minVariance = variance
		}
		if i == 0 || variance.GreaterThan(maxVariance) {
			maxVariance = variance
		}
		if variance.Abs().GreaterThan(decimal.NewFromInt(5)) {
			highVarianceDays = append(highVarianceDays, varianceDay{
				Date:               summaries[i].Date,
				FoodCostPercentage: summaries[i].FoodCostPercentage,
				Variance:           variance.Round(2),
			})
		}
	}

	// Share of days where food cost was excellent or good
	statusCounts := make(map[string]int)
	for i := range summaries {
		statusCounts[summaries[i].FoodCostStatus()]++
	}
	controlledDays := statusCounts["excellent"] + statusCounts["good"]
	controlPct := decimal.NewFromInt(int64(controlledDays)).
		Div(decimal.NewFromInt(int64(len(summaries)))).
		Mul(decimal.NewFromInt(100))

	return map[string]interface{}{
		"period":           fmt.Sprintf("%s to %s", start.Format("2006-01-02"), end.Format("2006-01-02")),
		"daily_food_costs": daily,
		"variance_analysis": map[string]interface{}{
			"average_food_cost_percentage": avgPct.Round(2),
			"variance_range": map[string]decimal.Decimal{
				"min": minVariance.Round(2),
				"max": maxVariance.Round(2),
			},
			"high_variance_days": highVarianceDays,
		},
		"control_indicators": map[string]interface{}{
			"status_breakdown":   statusCounts,
			"control_percentage": controlPct.Round(2),
			"control_grade":      GradePerformanceScore(controlPct),
		},
	}, nil
}

// CostByCategory groups purchase cost history by ingredient category
func (s *CostAnalyticsService) CostByCategory(start, end time.Time) (map[string]interface{}, error) {
	var rows []CategoryCost
	err := s.db.Model(&models.ProductCostHistory{}).
		Select("product_types.cost_type AS category_name, "+
			"SUM(product_cost_history.total_amount) AS total_cost, "+
			"SUM(product_cost_history.recipe_quantity) AS total_quantity, "+
			"AVG(product_cost_history.unit_cost_in_recipe_units) AS avg_unit_cost, "+
			"COUNT(product_cost_history.id) AS purchase_count").
		Joins("JOIN product_types ON product_types.id = product_cost_history.product_category_id").
		Where("product_cost_history.purchase_date BETWEEN ? AND ?", start, end).
		Group("product_types.cost_type").
		Order("total_cost DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totalCost := decimal.Zero
	for i := range rows {
		totalCost = totalCost.Add(rows[i].TotalCost)
	}
	for i := range rows {
		if rows[i].CategoryName == "" {
			rows[i].CategoryName = "Uncategorized"
		}
		if totalCost.IsPositive() {
			rows[i].CostPercentage = rows[i].TotalCost.Div(totalCost).Mul(decimal.NewFromInt(100)).Round(2)
		}
		rows[i].PerformanceGrade = GradeCategoryCostShare(rows[i].CostPercentage)
	}

	return map[string]interface{}{
		"period":     fmt.Sprintf("%s to %s", start.Format("2006-01-02"), end.Format("2006-01-02")),
		"total_cost": totalCost,
		"categories": rows,
	}, nil
}

// WasteAnalysis reports waste cost against revenue for the range
func (s *CostAnalyticsService) WasteAnalysis(start, end time.Time) (map[string]interface{}, error) {
	summaries, err := s.summariesInRange(start, end)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, fmt.Errorf("no data found for the specified period")
	}

	hundred := decimal.NewFromInt(100)
	totalWasteCost := decimal.Zero
	totalRevenue := decimal.Zero
	totalFoodCost := decimal.Zero

	type dailyWaste struct {
		Date            time.Time       `json:"date"`
		WasteCost       decimal.Decimal `json:"waste_cost"`
		WastePercentage decimal.Decimal `json:"waste_percentage"`
		Revenue         decimal.Decimal `json:"revenue"`
		Status          string          `json:"status"`
	}
	daily := make([]dailyWaste, 0, len(summaries))

	for i := range summaries {
		d := &summaries[i]
		totalWasteCost = totalWasteCost.Add(d.WasteCost)
		totalRevenue = totalRevenue.Add(d.TotalSales)
		totalFoodCost = totalFoodCost.Add(d.TotalFoodCost)

		pct := decimal.Zero
		if d.TotalSales.IsPositive() {
			pct = d.WasteCost.Div(d.TotalSales).Mul(hundred)
		}
		daily = append(daily, dailyWaste{
			Date:            d.Date,
			WasteCost:       d.WasteCost,
			WastePercentage: pct.Round(2),
			Revenue:         d.TotalSales,
			Status:          WasteStatus(pct),
		})
	}

	wastePct := decimal.Zero
	if totalRevenue.IsPositive() {
		wastePct = totalWasteCost.Div(totalRevenue).Mul(hundred)
	}
	wasteToFoodCost := decimal.Zero
	if totalFoodCost.IsPositive() {
		wasteToFoodCost = totalWasteCost.Div(totalFoodCost).Mul(hundred)
	}

	return map[string]interface{}{
		"period":           fmt.Sprintf("%s to %s", start.Format("2006-01-02"), end.Format("2006-01-02")),
		"total_waste_cost": totalWasteCost,
		"waste_percentage": wastePct.Round(2),
		"daily_waste":      daily,
		"waste_efficiency": map[string]interface{}{
			"waste_to_food_cost_ratio": wasteToFoodCost.Round(2),
			"efficiency_grade":         GradeWasteEfficiency(wastePct),
		},
	}, nil
}

// CostAlerts lists the days that breached cost thresholds in the range
func (s *CostAnalyticsService) CostAlerts(start, end time.Time) (map[string]interface{}, error) {
	summaries, err := s.summariesInRange(start, end)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, fmt.Errorf("no data found for the specified period")
	}

	critical, warning := splitCostAlerts(BuildCostAlerts(summaries))

	return map[string]interface{}{
		"period": fmt.Sprintf("%s to %s", start.Format("2006-01-02"), end.Format("2006-01-02")),
		"alerts": map[string][]CostAlert{
			"critical": critical,
			"warning":  warning,
		},
		"summary": map[string]int{
			"critical_count": len(critical),
			"warning_count":  len(warning),
		},
	}, nil
}

func (s *CostAnalyticsService) summariesInRange(start, end time.Time) ([]models.DailySummary, error) {
	var summaries []models.DailySummary
	err := s.db.Where("date BETWEEN ? AND ?", truncateToDay(start), truncateToDay(end)).
		Order("date ASC").
		Find(&summaries).Error
	return summaries, err
}

// BuildCostAlerts flags days with food cost above 35/40% or waste above 3/5%
func BuildCostAlerts(summaries []models.DailySummary) []CostAlert {
	var alerts []CostAlert
	hundred := decimal.NewFromInt(100)

	for i := range summaries {
		d := &summaries[i]

		foodCostPct := d.FoodCostPercentage
		if foodCostPct.GreaterThan(decimal.NewFromInt(40)) {
			alerts = append(alerts, CostAlert{
				Date:      d.Date,
				Type:      "high_food_cost",
				Message:   fmt.Sprintf("Food cost %s%% exceeds 40%% threshold", foodCostPct.Round(1)),
				Value:     foodCostPct,
				Threshold: 40,
			})
		} else if foodCostPct.GreaterThan(decimal.NewFromInt(35)) {
			alerts = append(alerts, CostAlert{
				Date:      d.Date,
				Type:      "elevated_food_cost",
				Message:   fmt.Sprintf("Food cost %s%% is elevated", foodCostPct.Round(1)),
				Value:     foodCostPct,
				Threshold: 35,
			})
		}

		wastePct := decimal.Zero
		if d.TotalSales.IsPositive() {
			wastePct = d.WasteCost.Div(d.TotalSales).Mul(hundred)
		}
		if wastePct.GreaterThan(decimal.NewFromInt(5)) {
			alerts = append(alerts, CostAlert{
				Date:      d.Date,
				Type:      "high_waste_cost",
				Message:   fmt.Sprintf("Waste cost %s%% exceeds 5%% threshold", wastePct.Round(1)),
				Value:     wastePct,
				Threshold: 5,
			})
		} else if wastePct.GreaterThan(decimal.NewFromInt(3)) {
			alerts = append(alerts, CostAlert{
				Date:      d.Date,
				Type:      "elevated_waste_cost",
				Message:   fmt.Sprintf("Waste cost %s%% is elevated", wastePct.Round(1)),
				Value:     wastePct,
				Threshold: 3,
			})
		}
	}

	return alerts
}

func splitCostAlerts(alerts []CostAlert) (critical, warning []CostAlert) {
	for _, a := range alerts {
		switch a.Type {
		case "high_food_cost", "high_waste_cost":
			critical = append(critical, a)
		default:
			warning = append(warning, a)
		}
	}
	return critical, warning
}

// AnalyzeCostPerformance grades food cost and waste against benchmarks,
// weighted 70/30 into an overall score.
func AnalyzeCostPerformance(foodCostPct, wasteCostPct decimal.Decimal) map[string]interface{} {
	var foodGrade string
	var foodScore decimal.Decimal
	switch {
	case foodCostPct.LessThanOrEqual(decimal.NewFromInt(30)):
		foodGrade, foodScore = "A", decimal.NewFromInt(100)
	case foodCostPct.LessThanOrEqual(decimal.NewFromInt(35)):
		foodGrade, foodScore = "B", decimal.NewFromInt(80)
	case foodCostPct.LessThanOrEqual(decimal.NewFromInt(40)):
		foodGrade, foodScore = "C", decimal.NewFromInt(60)
	case foodCostPct.LessThanOrEqual(decimal.NewFromInt(50)):
		foodGrade, foodScore = "D", decimal.NewFromInt(40)
	default:
		foodGrade, foodScore = "F", decimal.NewFromInt(20)
	}

	var wasteGrade string
	var wasteScore decimal.Decimal
	switch {
	case wasteCostPct.LessThanOrEqual(decimal.NewFromInt(2)):
		wasteGrade, wasteScore = "A", decimal.NewFromInt(100)
	case wasteCostPct.LessThanOrEqual(decimal.NewFromInt(3)):
		wasteGrade, wasteScore = "B", decimal.NewFromInt(80)
	case wasteCostPct.LessThanOrEqual(decimal.NewFromInt(5)):
		wasteGrade, wasteScore = "C", decimal.NewFromInt(60)
	case wasteCostPct.LessThanOrEqual(decimal.NewFromInt(10)):
		wasteGrade, wasteScore = "D", decimal.NewFromInt(40)
	default:
		wasteGrade, wasteScore = "F", decimal.NewFromInt(20)
	}

	overall := foodScore.Mul(decimal.RequireFromString("0.7")).
		Add(wasteScore.Mul(decimal.RequireFromString("0.3")))

	return map[string]interface{}{
		"food_cost_performance": map[string]interface{}{
			"grade":      foodGrade,
			"score":      foodScore,
			"percentage": foodCostPct.Round(2),
		},
		"waste_performance": map[string]interface{}{
			"grade":      wasteGrade,
			"score":      wasteScore,
			"percentage": wasteCostPct.Round(2),
		},
		"overall_performance": map[string]interface{}{
			"score": overall,
			"grade": GradePerformanceScore(overall),
		},
	}
}

// CostTrendDirection compares the first and second half of the period
func CostTrendDirection(summaries []models.DailySummary) string {
	if len(summaries) < 2 {
		return "insufficient_data"
	}

	half := len(summaries) / 2
	firstAvg := avgFoodCostPct(summaries[:half])
	secondAvg := avgFoodCostPct(summaries[half:])

	switch {
	case secondAvg.GreaterThan(firstAvg.Mul(decimal.RequireFromString("1.05"))):
		return "increasing"
	case secondAvg.LessThan(firstAvg.Mul(decimal.RequireFromString("0.95"))):
		return "decreasing"
	default:
		return "stable"
	}
}

func avgFoodCostPct(summaries []models.DailySummary) decimal.Decimal {
	if len(summaries) == 0 {
		return decimal.Zero
	}
	total := decimal.Zero
	for i := range summaries {
		total = total.Add(summaries[i].FoodCostPercentage)
	}
	return total.Div(decimal.NewFromInt(int64(len(summaries))))
}

// GradePerformanceScore maps a 0-100 score to a letter grade
func GradePerformanceScore(score decimal.Decimal) string {
	switch {
	case score.GreaterThanOrEqual(decimal.NewFromInt(90)):
		return "A"
	case score.GreaterThanOrEqual(decimal.NewFromInt(80)):
		return "B"
	case score.GreaterThanOrEqual(decimal.NewFromInt(70)):
		return "C"
	case score.GreaterThanOrEqual(decimal.NewFromInt(60)):
		return "D"
	default:
		return "F"
	}
}

// GradeCategoryCostShare grades a category by its share of total cost
func GradeCategoryCostShare(costPercentage decimal.Decimal) string {
	switch {
	case costPercentage.GreaterThanOrEqual(decimal.NewFromInt(30)):
		return "A"
	case costPercentage.GreaterThanOrEqual(decimal.NewFromInt(20)):
		return "B"
	case costPercentage.GreaterThanOrEqual(decimal.NewFromInt(10)):
		return "C"
	case costPercentage.GreaterThanOrEqual(decimal.NewFromInt(5)):
		return "D"
	default:
		return "F"
	}
}

// GradeWasteEfficiency grades waste as a percentage of revenue
func GradeWasteEfficiency(wastePercentage decimal.Decimal) string {
	switch {
	case wastePercentage.LessThanOrEqual(decimal.NewFromInt(2)):
		return "A"
	case wastePercentage.LessThanOrEqual(decimal.NewFromInt(3)):
		return "B"
	case wastePercentage.LessThanOrEqual(decimal.NewFromInt(5)):
		return "C"
	case wastePercentage.LessThanOrEqual(decimal.NewFromInt(10)):
		return "D"
	default:
		return "F"
	}
}

// WasteStatus classifies a day's waste percentage
func WasteStatus(wastePercentage decimal.Decimal) string {
	switch {
	case wastePercentage.LessThanOrEqual(decimal.NewFromInt(2)):
		return "excellent"
	case wastePercentage.LessThanOrEqual(decimal.NewFromInt(3)):
		return "good"
	case wastePercentage.LessThanOrEqual(decimal.NewFromInt(5)):
		return "acceptable"
	default:
		return "high"
	}
}
