package services

import (
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bistrotrack/server/internal/models"
	"bistrotrack/server/internal/utils"
)

const dashboardCacheTTL = 5 * time.Minute

// DashboardService composes the analytics services into the single payload
// the back-office dashboard renders, cached briefly in Redis.
type DashboardService struct {
	db      *gorm.DB
	redis   *utils.RedisClient
	revenue *RevenueAnalyticsService
	cost    *CostAnalyticsService
}

// NewDashboardService creates the dashboard aggregator
func NewDashboardService(db *gorm.DB, revenue *RevenueAnalyticsService, cost *CostAnalyticsService) *DashboardService {
	return &DashboardService{
		db:      db,
		revenue: revenue,
		cost:    cost,
	}
}

// SetRedisClient enables dashboard payload caching
func (s *DashboardService) SetRedisClient(redis *utils.RedisClient) {
	s.redis = redis
}

// DashboardData builds the dashboard payload for the last selectedDays days
// ending yesterday. Defaults to 7 days.
func (s *DashboardService) DashboardData(selectedDays int) (map[string]interface{}, error) {
	if selectedDays <= 0 {
		selectedDays = 7
	}

	endDate := truncateToDay(time.Now().UTC().AddDate(0, 0, -1))
	startDate := endDate.AddDate(0, 0, -(selectedDays - 1))

	cacheKey := fmt.Sprintf("dashboard:%s:%s", startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	if s.redis != nil {
		var cached map[string]interface{}
		if err := s.redis.GetJSON(cacheKey, &cached); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	var summaries []models.DailySummary
	if err := s.db.Where("date BETWEEN ? AND ?", startDate, endDate).
		Order("date ASC").
		Find(&summaries).Error; err != nil {
		return nil, err
	}

	periodTotals := sumPeriod(summaries)

	previousEnd := startDate.AddDate(0, 0, -1)
	previousStart := previousEnd.AddDate(0, 0, -(selectedDays - 1))
	var previousSummaries []models.DailySummary
	if err := s.db.Where("date BETWEEN ? AND ?", previousStart, previousEnd).
		Find(&previousSummaries).Error; err != nil {
		return nil, err
	}
	previousTotals := sumPeriod(previousSummaries)

	topProducts, err := s.revenue.TopPerformingProducts(startDate, endDate, 5)
	if err != nil {
		log.Printf("⚠️ Dashboard: top products unavailable: %v", err)
		topProducts = map[string]interface{}{}
	}
	topCategories, err := s.revenue.TopPerformingCategories(startDate, endDate, 10)
	if err != nil {
		log.Printf("⚠️ Dashboard: top categories unavailable: %v", err)
		topCategories = map[string]interface{}{}
	}

	data := map[string]interface{}{
		"period": map[string]interface{}{
			"start_date":    startDate.Format("2006-01-02"),
			"end_date":      endDate.Format("2006-01-02"),
			"selected_days": selectedDays,
		},
		"period_totals":  periodTotals,
		"change_metrics": periodChanges(periodTotals, previousTotals),
		"revenue_trends": buildRevenueTrends(summaries),
		"top_products":   topProducts,
		"top_categories": topCategories,
		"recipe_stats":   s.RecipeStats(),
	}

	if s.redis != nil {
		if err := s.redis.Set(cacheKey, data, dashboardCacheTTL); err != nil {
			log.Printf("⚠️ Failed to cache dashboard payload: %v", err)
		}
	}

	return data, nil
}

// InvalidateCache drops every cached dashboard payload, called after a
// summary recalculation changes the underlying data.
func (s *DashboardService) InvalidateCache() {
	if s.redis == nil {
		return
	}
	if err := s.redis.DeleteByPattern("dashboard:*"); err != nil {
		log.Printf("⚠️ Failed to invalidate dashboard cache: %v", err)
	}
}

// RecipeStats summarizes the active recipe book: count, average cost and the
// share of recipes with a margin of 40% or better.
func (s *DashboardService) RecipeStats() map[string]interface{} {
	var recipes []models.Recipe
	if err := s.db.Where("is_active = ?", true).Find(&recipes).Error; err != nil {
		log.Printf("❌ Error loading recipes for stats: %v", err)
		return map[string]interface{}{
			"total_recipes":   0,
			"avg_cost":        decimal.Zero,
			"cost_efficiency": decimal.Zero,
			"top_recipe":      "N/A",
		}
	}

	totalCost := decimal.Zero
	efficientRecipes := 0
	topRecipe := "N/A"
	maxMargin := decimal.Zero
	hundred := decimal.NewFromInt(100)

	for i := range recipes {
		r := &recipes[i]
		cost := r.TotalCostPerPortion()
		totalCost = totalCost.Add(cost)

		if r.ActualSellingPricePerPortion == nil || !r.ActualSellingPricePerPortion.GreaterThan(cost) {
			continue
		}
		margin := r.ActualSellingPricePerPortion.Sub(cost).
			Div(*r.ActualSellingPricePerPortion).Mul(hundred)
		if margin.GreaterThanOrEqual(decimal.NewFromInt(40)) {
			efficientRecipes++
		}
		if margin.GreaterThan(maxMargin) {
			maxMargin = margin
			topRecipe = r.DishName
		}
	}

	avgCost := decimal.Zero
	costEfficiency := decimal.Zero
	if len(recipes) > 0 {
		count := decimal.NewFromInt(int64(len(recipes)))
		avgCost = totalCost.Div(count).Round(2)
		costEfficiency = decimal.NewFromInt(int64(efficientRecipes)).Div(count).Mul(hundred).Round(2)
	}

	return map[string]interface{}{
		"total_recipes":   len(recipes),
		"avg_cost":        avgCost,
		"cost_efficiency": costEfficiency,
		"top_recipe":      topRecipe,
	}
}

type periodTotals struct {
	TotalSales     decimal.Decimal `json:"total_sales"`
	TotalOrders    int             `json:"total_orders"`
	TotalCustomers int             `json:"total_customers"`
	AvgFoodCostPct decimal.Decimal `json:"avg_food_cost_pct"`
	AvgOrderValue  decimal.Decimal `json:"avg_order_value"`
}

func sumPeriod(summaries []models.DailySummary) periodTotals {
	var totals periodTotals
	sumFoodCostPct := decimal.Zero
	sumAOV := decimal.Zero

	for i := range summaries {
		totals.TotalSales = totals.TotalSales.Add(summaries[i].TotalSales)
		totals.TotalOrders += summaries[i].TotalOrders
		totals.TotalCustomers += summaries[i].TotalCustomers
		sumFoodCostPct = sumFoodCostPct.Add(summaries[i].FoodCostPercentage)
		sumAOV = sumAOV.Add(summaries[i].AverageOrderValue)
	}

	if len(summaries) > 0 {
		days := decimal.NewFromInt(int64(len(summaries)))
		totals.AvgFoodCostPct = sumFoodCostPct.Div(days).Round(2)
		totals.AvgOrderValue = sumAOV.Div(days).Round(2)
	}

	return totals
}

func periodChanges(current, previous periodTotals) map[string]decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	change := func(cur, prev decimal.Decimal) decimal.Decimal {
		if !prev.IsPositive() {
			return decimal.Zero
		}
		return cur.Sub(prev).Div(prev).Mul(hundred).Round(2)
	}

	return map[string]decimal.Decimal{
		"sales_change": change(current.TotalSales, previous.TotalSales),
		"orders_change": change(
			decimal.NewFromInt(int64(current.TotalOrders)),
			decimal.NewFromInt(int64(previous.TotalOrders))),
		"customers_change": change(
			decimal.NewFromInt(int64(current.TotalCustomers)),
			decimal.NewFromInt(int64(previous.TotalCustomers))),
	}
}

// buildRevenueTrends scales each day's sales against the period's best day
// so the dashboard can render a bar chart without recomputing.
func buildRevenueTrends(summaries []models.DailySummary) []map[string]interface{} {
	maxSales := decimal.Zero
	for i := range summaries {
		if summaries[i].TotalSales.GreaterThan(maxSales) {
			maxSales = summaries[i].TotalSales
		}
	}

	trends := make([]map[string]interface{}, 0, len(summaries))
	for i := range summaries {
		pct := decimal.Zero
		if maxSales.IsPositive() {
			pct = summaries[i].TotalSales.Div(maxSales).Mul(decimal.NewFromInt(100)).Round(2)
		}
		trends = append(trends, map[string]interface{}{
			"date":       summaries[i].Date.Format("2006-01-02"),
			"sales":      summaries[i].TotalSales,
			"percentage": pct,
			"orders":     summaries[i].TotalOrders,
		})
	}

	return trends
}
