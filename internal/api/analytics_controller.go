package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"bistrotrack/server/internal/services"
)

// AnalyticsController manages API endpoints for daily summaries, cost and
// revenue analytics, and XLSX report exports.
type AnalyticsController struct {
	daily     *services.DailyAnalyticsService
	cost      *services.CostAnalyticsService
	revenue   *services.RevenueAnalyticsService
	export    *services.ReportExportService
	dashboard *services.DashboardService
	publisher *SummaryEventPublisher
}

// NewAnalyticsController creates a new analytics controller
func NewAnalyticsController(daily *services.DailyAnalyticsService, cost *services.CostAnalyticsService, revenue *services.RevenueAnalyticsService, export *services.ReportExportService, dashboard *services.DashboardService, publisher *SummaryEventPublisher) *AnalyticsController {
	return &AnalyticsController{
		daily:     daily,
		cost:      cost,
		revenue:   revenue,
		export:    export,
		dashboard: dashboard,
		publisher: publisher,
	}
}

// rangeQuery reads start_date/end_date, defaulting to the trailing
// defaultDays window ending yesterday.
func rangeQuery(c *gin.Context, defaultDays int) (time.Time, time.Time, error) {
	start, err := parseDateQuery(c.Query("start_date"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDateQuery(c.Query("end_date"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	if end.IsZero() {
		end = time.Now().UTC().AddDate(0, 0, -1)
	}
	if start.IsZero() {
		start = end.AddDate(0, 0, -(defaultDays - 1))
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date must not be after end_date")
	}
	return start, end, nil
}

// GetDailySummary returns the stored summary for a day (default yesterday)
// GET /api/v1/analytics/daily-summary?date=2025-06-01
func (ac *AnalyticsController) GetDailySummary(c *gin.Context) {
	if ac.daily == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Analytics service unavailable",
		})
		return
	}

	date, err := parseDateQuery(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := ac.daily.SummaryFor(date)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "No summary for that date",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// CalculateDailySummary recalculates one day's P&L summary
// POST /api/v1/analytics/daily-summary/calculate?date=2025-06-01
func (ac *AnalyticsController) CalculateDailySummary(c *gin.Context) {
	if ac.daily == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Analytics service unavailable",
		})
		return
	}

	date, err := parseDateQuery(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := ac.daily.CalculateDailySummary(date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to calculate daily summary",
			"details": err.Error(),
		})
		return
	}

	if ac.dashboard != nil {
		ac.dashboard.InvalidateCache()
	}
	if ac.publisher != nil {
		ac.publisher.PublishSummaryUpdated(summary)
	}
	if update, err := json.Marshal(map[string]interface{}{
		"type":    "summary_updated",
		"date":    summary.Date.Format("2006-01-02"),
		"summary": summary,
	}); err == nil {
		DashboardHub.BroadcastMessage(update)
	}

	c.JSON(http.StatusOK, summary)
}

// CalculateRangeSummaries recalculates every day in a range
// POST /api/v1/analytics/daily-summary/calculate-range?start_date=&end_date=
func (ac *AnalyticsController) CalculateRangeSummaries(c *gin.Context) {
	if ac.daily == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Analytics service unavailable",
		})
		return
	}

	start, err := parseDateQuery(c.Query("start_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	end, err := parseDateQuery(c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if start.IsZero() || end.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "start_date and end_date are required",
		})
		return
	}
	if start.After(end) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "start_date must not be after end_date",
		})
		return
	}

	summaries, calcErrors := ac.daily.CalculateDateRangeSummaries(start, end)
	if ac.dashboard != nil {
		ac.dashboard.InvalidateCache()
	}

	c.JSON(http.StatusOK, gin.H{
		"summaries": summaries,
		"count":     len(summaries),
		"errors":    calcErrors,
	})
}

// GetSalesByProduct breaks one day's sales down per product
// GET /api/v1/analytics/sales-by-product?date=2025-06-01
func (ac *AnalyticsController) GetSalesByProduct(c *gin.Context) {
	if ac.daily == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Analytics service unavailable",
		})
		return
	}

	date, err := parseDateQuery(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, err := ac.daily.SalesByProduct(date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load product sales",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": rows,
		"count":    len(rows),
	})
}

// GetWeeklyTrends returns the trailing 7-day trend
// GET /api/v1/analytics/weekly-trends?end_date=2025-06-01
func (ac *AnalyticsController) GetWeeklyTrends(c *gin.Context) {
	if ac.daily == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Analytics service unavailable",
		})
		return
	}

	endDate, err := parseDateQuery(c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	trends, err := ac.daily.WeeklyTrends(endDate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load weekly trends",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, trends)
}

// GetPerformanceAnalysis grades one day against benchmarks
// GET /api/v1/analytics/performance?date=2025-06-01
func (ac *AnalyticsController) GetPerformanceAnalysis(c *gin.Context) {
	if ac.daily == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Analytics service unavailable",
		})
		return
	}

	date, err := parseDateQuery(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	analysis, err := ac.daily.PerformanceAnalysis(date)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Failed to load performance analysis",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// GetMonthlyReport aggregates one calendar month
// GET /api/v1/analytics/monthly-report?year=2025&month=6
func (ac *AnalyticsController) GetMonthlyReport(c *gin.Context) {
	if ac.daily == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Analytics service unavailable",
		})
		return
	}

	now := time.Now().UTC()
	year, _ := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(now.Year())))
	month, _ := strconv.Atoi(c.DefaultQuery("month", strconv.Itoa(int(now.Month()))))
	if month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "month must be between 1 and 12",
		})
		return
	}

	report, err := ac.daily.MonthlyPerformanceReport(year, month)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to build monthly report",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetPaymentMethodAnalysis compares the estimated payment mix to benchmarks
// GET /api/v1/analytics/payment-methods?start_date=&end_date=
func (ac *AnalyticsController) GetPaymentMethodAnalysis(c *gin.Context) {
	if ac.daily == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Analytics service unavailable",
		})
		return
	}

	start, end, err := rangeQuery(c, 30)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	analysis, err := ac.daily.PaymentMethodAnalysis(start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load payment method analysis",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// costReport wraps the shared guard + range parsing for cost endpoints
func (ac *AnalyticsController) costReport(c *gin.Context, report func(start, end time.Time) (map[string]interface{}, error)) {
	if ac.cost == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Analytics service unavailable",
		})
		return
	}

	start, end, err := rangeQuery(c, 30)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := report(start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to build cost report",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCostOverview handles GET /api/v1/analytics/costs/overview
func (ac *AnalyticsController) GetCostOverview(c *gin.Context) {
	ac.costReport(c, func(start, end time.Time) (map[string]interface{}, error) {
		return ac.cost.CostOverview(start, end)
	})
}

// GetFoodCostAnalysis handles GET /api/v1/analytics/costs/food-cost
func (ac *AnalyticsController) GetFoodCostAnalysis(c *gin.Context) {
	ac.costReport(c, func(start, end time.Time) (map[string]interface{}, error) {
		return ac.cost.FoodCostAnalysis(start, end)
	})
}

// GetCostByCategory handles GET /api/v1/analytics/costs/by-category
func (ac *AnalyticsController) GetCostByCategory(c *gin.Context) {
	ac.costReport(c, func(start, end time.Time) (map[string]interface{}, error) {
		return ac.cost.CostByCategory(start, end)
	})
}

// GetWasteAnalysis handles GET /api/v1/analytics/costs/waste
func (ac *AnalyticsController) GetWasteAnalysis(c *gin.Context) {
	ac.costReport(c, func(start, end time.Time) (map[string]interface{}, error) {
		return ac.cost.WasteAnalysis(start, end)
	})
}

// GetCostAlerts handles GET /api/v1/analytics/costs/alerts
func (ac *AnalyticsController) GetCostAlerts(c *gin.Context) {
	ac.costReport(c, func(start, end time.Time) (map[string]interface{}, error) {
		return ac.cost.CostAlerts(start, end)
	})
}

// revenueReport wraps the shared guard + range parsing for revenue endpoints
func (ac *AnalyticsController) revenueReport(c *gin.Context, report func(start, end time.Time) (map[string]interface{}, error)) {
	if ac.revenue == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Analytics service unavailable",
		})
		return
	}

	start, end, err := rangeQuery(c, 30)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := report(start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to build revenue report",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetRevenueOverview handles GET /api/v1/analytics/revenue/overview
func (ac *AnalyticsController) GetRevenueOverview(c *gin.Context) {
	ac.revenueReport(c, func(start, end time.Time) (map[string]interface{}, error) {
		return ac.revenue.RevenueOverview(start, end)
	})
}

// GetTopCategories handles GET /api/v1/analytics/revenue/top-categories?limit=10
func (ac *AnalyticsController) GetTopCategories(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	ac.revenueReport(c, func(start, end time.Time) (map[string]interface{}, error) {
		return ac.revenue.TopPerformingCategories(start, end, limit)
	})
}

// GetTopProducts handles GET /api/v1/analytics/revenue/top-products?limit=10
func (ac *AnalyticsController) GetTopProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	ac.revenueReport(c, func(start, end time.Time) (map[string]interface{}, error) {
		return ac.revenue.TopPerformingProducts(start, end, limit)
	})
}

// GetGrowthAnalysis handles GET /api/v1/analytics/revenue/growth
func (ac *AnalyticsController) GetGrowthAnalysis(c *gin.Context) {
	ac.revenueReport(c, func(start, end time.Time) (map[string]interface{}, error) {
		return ac.revenue.GrowthAnalysis(start, end)
	})
}

// GetDayOfWeekRevenue handles GET /api/v1/analytics/revenue/day-of-week
func (ac *AnalyticsController) GetDayOfWeekRevenue(c *gin.Context) {
	ac.revenueReport(c, func(start, end time.Time) (map[string]interface{}, error) {
		return ac.revenue.DayOfWeekRevenue(start, end)
	})
}

// GetUnderperformingAreas handles GET /api/v1/analytics/revenue/underperforming
func (ac *AnalyticsController) GetUnderperformingAreas(c *gin.Context) {
	ac.revenueReport(c, func(start, end time.Time) (map[string]interface{}, error) {
		return ac.revenue.UnderperformingAreas(start, end)
	})
}

// ExportDailySummaries streams the summaries for a range as XLSX
// GET /api/v1/analytics/export/daily-summaries?start_date=&end_date=
func (ac *AnalyticsController) ExportDailySummaries(c *gin.Context) {
	if ac.export == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Export service unavailable",
		})
		return
	}

	start, end, err := rangeQuery(c, 30)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	buffer, err := ac.export.ExportDailySummaries(start, end)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Failed to export daily summaries",
			"details": err.Error(),
		})
		return
	}

	filename := fmt.Sprintf("daily-summaries-%s-%s.xlsx", start.Format("2006-01-02"), end.Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buffer.Bytes())
}

// ExportRecipeCosts streams the active recipe book with costing as XLSX
// GET /api/v1/analytics/export/recipes
func (ac *AnalyticsController) ExportRecipeCosts(c *gin.Context) {
	if ac.export == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Export service unavailable",
		})
		return
	}

	buffer, err := ac.export.ExportRecipeCosts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to export recipe costs",
			"details": err.Error(),
		})
		return
	}

	filename := fmt.Sprintf("recipe-costs-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buffer.Bytes())
}
