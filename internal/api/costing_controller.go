package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"bistrotrack/server/internal/services"
)

// CostingController manages API endpoints for ingredient valuation
type CostingController struct {
	costing       *services.ProductCostingService
	conversions   *services.UnitConversionService
	products      *services.ProductService
	consolidation *services.ConsolidationService
}

// NewCostingController creates a new costing controller
func NewCostingController(costing *services.ProductCostingService, conversions *services.UnitConversionService, products *services.ProductService, consolidation *services.ConsolidationService) *CostingController {
	return &CostingController{
		costing:       costing,
		conversions:   conversions,
		products:      products,
		consolidation: consolidation,
	}
}

func (cc *CostingController) loadProduct(c *gin.Context) (productOK bool) {
	if cc.costing == nil || cc.products == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Costing service unavailable",
		})
		return false
	}
	return true
}

// GetCostComparison returns every valuation method side by side
// GET /api/v1/costing/products/:id/comparison?as_of=2025-06-01
func (cc *CostingController) GetCostComparison(c *gin.Context) {
	if !cc.loadProduct(c) {
		return
	}

	product, err := cc.products.GetProductByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Product not found",
			"details": err.Error(),
		})
		return
	}

	asOf, err := parseDateQuery(c.Query("as_of"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	c.JSON(http.StatusOK, cc.costing.Comparison(product, asOf))
}

// GetCostTrend returns the daily cost curve for a product
// GET /api/v1/costing/products/:id/trend?days=30&detailed=false
func (cc *CostingController) GetCostTrend(c *gin.Context) {
	if !cc.loadProduct(c) {
		return
	}

	product, err := cc.products.GetProductByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Product not found",
			"details": err.Error(),
		})
		return
	}

	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	if days <= 0 || days > 365 {
		days = 30
	}

	if c.DefaultQuery("detailed", "false") == "true" {
		c.JSON(http.StatusOK, cc.costing.DetailedCostTrend(product, days))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product_id": product.ID,
		"days":       days,
		"trend":      cc.costing.CostTrend(product, days),
	})
}

// GetCostAnalysis returns the full valuation report for a product
// GET /api/v1/costing/products/:id/analysis?as_of=2025-06-01
func (cc *CostingController) GetCostAnalysis(c *gin.Context) {
	if !cc.loadProduct(c) {
		return
	}

	product, err := cc.products.GetProductByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Product not found",
			"details": err.Error(),
		})
		return
	}

	asOf, err := parseDateQuery(c.Query("as_of"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	c.JSON(http.StatusOK, cc.costing.AnalysisReport(product, asOf))
}

// GetCostWithMarkup applies a markup percentage to the weighted average cost
// GET /api/v1/costing/products/:id/markup?percentage=30
func (cc *CostingController) GetCostWithMarkup(c *gin.Context) {
	if !cc.loadProduct(c) {
		return
	}

	product, err := cc.products.GetProductByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Product not found",
			"details": err.Error(),
		})
		return
	}

	markup, err := decimal.NewFromString(c.DefaultQuery("percentage", "30"))
	if err != nil || markup.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "percentage must be a non-negative number",
		})
		return
	}

	price := cc.costing.CostWithMarkup(product, markup, time.Now().UTC())
	c.JSON(http.StatusOK, gin.H{
		"product_id":        product.ID,
		"markup_percentage": markup,
		"suggested_price":   price,
	})
}

// GetConversionFactor resolves the factor between two units, honouring
// product- and category-specific rules
// GET /api/v1/products/unit-conversions/factor?from_unit_id=&to_unit_id=&product_id=&category_id=
func (cc *CostingController) GetConversionFactor(c *gin.Context) {
	if cc.conversions == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Unit conversion service unavailable",
		})
		return
	}

	fromUnitID := c.Query("from_unit_id")
	toUnitID := c.Query("to_unit_id")
	if fromUnitID == "" || toUnitID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "from_unit_id and to_unit_id are required",
		})
		return
	}

	var productID, categoryID *string
	if value := c.Query("product_id"); value != "" {
		productID = &value
	}
	if value := c.Query("category_id"); value != "" {
		categoryID = &value
	}

	factor, err := cc.conversions.ConversionFactor(fromUnitID, toUnitID, productID, categoryID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "No conversion rule found",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"from_unit_id": fromUnitID,
		"to_unit_id":   toUnitID,
		"factor":       factor,
	})
}

// GetConsolidationRules lists the product consolidation rules
// GET /api/v1/costing/consolidations
func (cc *CostingController) GetConsolidationRules(c *gin.Context) {
	if cc.consolidation == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Consolidation service unavailable",
		})
		return
	}

	rules, err := cc.consolidation.GetRules()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load consolidation rules",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rules": rules,
		"count": len(rules),
	})
}

// CreateConsolidationRuleRequest is the payload for a new consolidation rule
type CreateConsolidationRuleRequest struct {
	PrimaryProductID     string   `json:"primary_product_id" binding:"required"`
	ConsolidatedProducts []string `json:"consolidated_products" binding:"required"`
	Reason               string   `json:"reason"`
	Notes                string   `json:"notes"`
}

// CreateConsolidationRule records a rule and regenerates the consolidated
// tables and cost history so the rule takes effect immediately
// POST /api/v1/costing/consolidations
func (cc *CostingController) CreateConsolidationRule(c *gin.Context) {
	if cc.consolidation == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Consolidation service unavailable",
		})
		return
	}

	var req CreateConsolidationRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request parameters",
			"details": err.Error(),
		})
		return
	}

	rule, err := cc.consolidation.CreateRule(req.PrimaryProductID, req.ConsolidatedProducts, req.Reason, req.Notes)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to create consolidation rule",
			"details": err.Error(),
		})
		return
	}

	// Full regeneration: existing rows for every date may now map differently
	if _, err := cc.consolidation.ConsolidatePurchases(nil); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Rule created but purchase consolidation failed",
			"details": err.Error(),
		})
		return
	}
	if _, err := cc.consolidation.ConsolidateSales(nil); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Rule created but sale consolidation failed",
			"details": err.Error(),
		})
		return
	}
	if cc.costing != nil {
		if _, err := cc.costing.RebuildCostHistory(time.Time{}, cc.conversions); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Rule created but cost history rebuild failed",
				"details": err.Error(),
			})
			return
		}
		cc.costing.ClearCache()
	}

	c.JSON(http.StatusCreated, rule)
}

// RunConsolidation regenerates the consolidated tables from scratch
// POST /api/v1/costing/consolidations/run
func (cc *CostingController) RunConsolidation(c *gin.Context) {
	if cc.consolidation == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Consolidation service unavailable",
		})
		return
	}

	purchases, err := cc.consolidation.ConsolidatePurchases(nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Purchase consolidation failed",
			"details": err.Error(),
		})
		return
	}
	sales, err := cc.consolidation.ConsolidateSales(nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Sale consolidation failed",
			"details": err.Error(),
		})
		return
	}
	if cc.costing != nil {
		if _, err := cc.costing.RebuildCostHistory(time.Time{}, cc.conversions); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Cost history rebuild failed",
				"details": err.Error(),
			})
			return
		}
		cc.costing.ClearCache()
	}

	c.JSON(http.StatusOK, gin.H{
		"purchases": purchases,
		"sales":     sales,
	})
}

// RebuildCostHistory replays purchases into the cost history table
// POST /api/v1/costing/rebuild?since=2025-01-01
func (cc *CostingController) RebuildCostHistory(c *gin.Context) {
	if cc.costing == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Costing service unavailable",
		})
		return
	}

	since, err := parseDateQuery(c.Query("since"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := cc.costing.RebuildCostHistory(since, cc.conversions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to rebuild cost history",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}
