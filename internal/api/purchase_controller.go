package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bistrotrack/server/internal/models"
	"bistrotrack/server/internal/services"
)

// PurchaseController manages API endpoints for supplier purchases
type PurchaseController struct {
	service *services.PurchaseService
}

// NewPurchaseController creates a new purchase controller
func NewPurchaseController(service *services.PurchaseService) *PurchaseController {
	return &PurchaseController{service: service}
}

// GetPurchases lists purchases with filters and pagination
// GET /api/v1/purchases?start_date=&end_date=&product_id=&limit=100&offset=0
func (pc *PurchaseController) GetPurchases(c *gin.Context) {
	if pc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Purchase service unavailable",
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

	purchases, total, err := pc.service.GetPurchases(services.PurchaseFilter{
		StartDate: startDate,
		EndDate:   endDate,
		ProductID: c.Query("product_id"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load purchases",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"purchases": purchases,
		"total":     total,
		"count":     len(purchases),
	})
}

// CreatePurchase records a purchase and refreshes the product's current cost
// POST /api/v1/purchases
func (pc *PurchaseController) CreatePurchase(c *gin.Context) {
	if pc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Purchase service unavailable",
		})
		return
	}

	var purchase models.Purchase
	if err := c.ShouldBindJSON(&purchase); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request parameters",
			"details": err.Error(),
		})
		return
	}

	if err := pc.service.CreatePurchase(&purchase); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to create purchase",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, purchase)
}

// DeletePurchase removes one purchase row
// DELETE /api/v1/purchases/:id
func (pc *PurchaseController) DeletePurchase(c *gin.Context) {
	if pc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Purchase service unavailable",
		})
		return
	}

	if err := pc.service.DeletePurchase(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Failed to delete purchase",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Purchase deleted",
	})
}

// GetConsolidatedPurchases lists normalized purchase rows for a range
// GET /api/v1/purchases/consolidated?start_date=&end_date=
func (pc *PurchaseController) GetConsolidatedPurchases(c *gin.Context) {
	if pc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Purchase service unavailable",
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

	purchases, err := pc.service.GetConsolidatedPurchases(startDate, endDate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load consolidated purchases",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"purchases": purchases,
		"count":     len(purchases),
	})
}
