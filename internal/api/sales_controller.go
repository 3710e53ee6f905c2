package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"bistrotrack/server/internal/models"
	"bistrotrack/server/internal/services"
)

// parseDateQuery parses an optional YYYY-MM-DD query value. An empty value
// yields the zero time, which the services treat as "no bound".
func parseDateQuery(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD: %s", value)
	}
	return parsed, nil
}

// SalesController manages API endpoints for sale lines
type SalesController struct {
	service *services.SalesService
}

// NewSalesController creates a new sales controller
func NewSalesController(service *services.SalesService) *SalesController {
	return &SalesController{service: service}
}

// GetSales lists sale lines with filters and pagination
// GET /api/v1/sales?start_date=&end_date=&product_id=&order_number=&limit=100&offset=0
func (sc *SalesController) GetSales(c *gin.Context) {
	if sc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Sales service unavailable",
		})
		return
	}

	startDate, err := parseDateQuery(c.Query("start_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	endDate, err := parseDateQuery(c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	sales, total, err := sc.service.GetSales(services.SalesFilter{
		StartDate:   startDate,
		EndDate:     endDate,
		ProductID:   c.Query("product_id"),
		OrderNumber: c.Query("order_number"),
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load sales",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sales": sales,
		"total": total,
		"count": len(sales),
	})
}

// GetConsolidatedSales lists normalized sale rows for a range
// GET /api/v1/sales/consolidated?start_date=&end_date=
func (sc *SalesController) GetConsolidatedSales(c *gin.Context) {
	if sc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Sales service unavailable",
		})
		return
	}

	startDate, err := parseDateQuery(c.Query("start_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	endDate, err := parseDateQuery(c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sales, err := sc.service.GetConsolidatedSales(startDate, endDate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load consolidated sales",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sales": sales,
		"count": len(sales),
	})
}

// CreateSale records a manually entered sale line
// POST /api/v1/sales
func (sc *SalesController) CreateSale(c *gin.Context) {
	if sc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Sales service unavailable",
		})
		return
	}

	var sale models.Sale
	if err := c.ShouldBindJSON(&sale); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request parameters",
			"details": err.Error(),
		})
		return
	}

	if err := sc.service.CreateSale(&sale); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to create sale",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, sale)
}

// DeleteSale removes one sale line
// DELETE /api/v1/sales/:id
func (sc *SalesController) DeleteSale(c *gin.Context) {
	if sc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Sales service unavailable",
		})
		return
	}

	if err := sc.service.DeleteSale(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Failed to delete sale",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Sale deleted",
	})
}

// GetDailyTotal sums one day's sales straight from the sale lines
// GET /api/v1/sales/daily-total?date=2025-06-01
func (sc *SalesController) GetDailyTotal(c *gin.Context) {
	if sc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Sales service unavailable",
		})
		return
	}

	date, err := parseDateQuery(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}

	total, orders, err := sc.service.DailyTotal(date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to compute daily total",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":        date.Format("2006-01-02"),
		"total_sales": total,
		"orders":      orders,
	})
}
