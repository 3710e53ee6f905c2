package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bistrotrack/server/internal/models"
	"bistrotrack/server/internal/services"
)

// ProductController manages API endpoints for products and their dictionaries
type ProductController struct {
	service *services.ProductService
}

// NewProductController creates a new product controller
func NewProductController(service *services.ProductService) *ProductController {
	return &ProductController{service: service}
}

// GetProducts returns all products with an optional name search
// GET /api/v1/products?search=tomato
func (pc *ProductController) GetProducts(c *gin.Context) {
	if pc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Product service unavailable",
		})
		return
	}

	products, err := pc.service.GetAllProducts(c.Query("search"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load products",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// GetProduct returns one product by ID
// GET /api/v1/products/:id
func (pc *ProductController) GetProduct(c *gin.Context) {
	if pc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Product service unavailable",
		})
		return
	}

	productID := c.Param("id")
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Product ID is required",
		})
		return
	}

	product, err := pc.service.GetProductByID(productID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Product not found",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, product)
}

// CreateProduct creates a new product
// POST /api/v1/products
func (pc *ProductController) CreateProduct(c *gin.Context) {
	if pc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Product service unavailable",
		})
		return
	}

	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request parameters",
			"details": err.Error(),
		})
		return
	}

	if err := pc.service.CreateProduct(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to create product",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, product)
}

// UpdateProduct updates an existing product
// PUT /api/v1/products/:id
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	if pc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Product service unavailable",
		})
		return
	}

	productID := c.Param("id")
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Product ID is required",
		})
		return
	}

	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request parameters",
			"details": err.Error(),
		})
		return
	}

	if err := pc.service.UpdateProduct(productID, &product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to update product",
			"details": err.Error(),
		})
		return
	}

	updated, err := pc.service.GetProductByID(productID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reload product",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteProduct removes a product without sale or purchase references
// DELETE /api/v1/products/:id
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	if pc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Product service unavailable",
		})
		return
	}

	productID := c.Param("id")
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Product ID is required",
		})
		return
	}

	if err := pc.service.DeleteProduct(productID); err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Failed to delete product",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product deleted",
	})
}

// GetDictionaries returns the lookup tables the product forms need
// GET /api/v1/products/dictionaries
func (pc *ProductController) GetDictionaries(c *gin.Context) {
	if pc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Product service unavailable",
		})
		return
	}

	purchaseCategories, err := pc.service.GetPurchaseCategories()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load purchase categories",
			"details": err.Error(),
		})
		return
	}
	salesCategories, err := pc.service.GetSalesCategories()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load sales categories",
			"details": err.Error(),
		})
		return
	}
	units, err := pc.service.GetUnitsOfMeasure()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load units of measure",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"purchase_categories": purchaseCategories,
		"sales_categories":    salesCategories,
		"units_of_measure":    units,
	})
}

// CreateCategory adds a category to the purchase or sales dictionary
// POST /api/v1/products/categories?type=purchase|sales
func (pc *ProductController) CreateCategory(c *gin.Context) {
	if pc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Product service unavailable",
		})
		return
	}

	switch c.Query("type") {
	case "purchase":
		var category models.PurchasesCategory
		if err := c.ShouldBindJSON(&category); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request parameters",
				"details": err.Error(),
			})
			return
		}
		if err := pc.service.CreatePurchaseCategory(&category); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Failed to create category",
				"details": err.Error(),
			})
			return
		}
		c.JSON(http.StatusCreated, category)
	case "sales":
		var category models.SalesCategory
		if err := c.ShouldBindJSON(&category); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request parameters",
				"details": err.Error(),
			})
			return
		}
		if err := pc.service.CreateSalesCategory(&category); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Failed to create category",
				"details": err.Error(),
			})
			return
		}
		c.JSON(http.StatusCreated, category)
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "type must be purchase or sales",
		})
	}
}

// CreateUnitOfMeasure adds a new unit to the dictionary
// POST /api/v1/products/units
func (pc *ProductController) CreateUnitOfMeasure(c *gin.Context) {
	if pc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Product service unavailable",
		})
		return
	}

	var unit models.UnitOfMeasure
	if err := c.ShouldBindJSON(&unit); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request parameters",
			"details": err.Error(),
		})
		return
	}

	if err := pc.service.CreateUnitOfMeasure(&unit); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to create unit",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, unit)
}

// GetUnitConversions lists the conversion rules
// GET /api/v1/products/unit-conversions
func (pc *ProductController) GetUnitConversions(c *gin.Context) {
	if pc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Product service unavailable",
		})
		return
	}

	conversions, err := pc.service.GetUnitConversions()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load unit conversions",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversions": conversions,
		"count":       len(conversions),
	})
}

// CreateUnitConversion adds a conversion rule
// POST /api/v1/products/unit-conversions
func (pc *ProductController) CreateUnitConversion(c *gin.Context) {
	if pc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Product service unavailable",
		})
		return
	}

	var conversion models.UnitConversion
	if err := c.ShouldBindJSON(&conversion); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request parameters",
			"details": err.Error(),
		})
		return
	}

	if err := pc.service.CreateUnitConversion(&conversion); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to create unit conversion",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, conversion)
}

// GetMarketPrices lists market price references for a product
// GET /api/v1/products/:id/market-prices
func (pc *ProductController) GetMarketPrices(c *gin.Context) {
	if pc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Product service unavailable",
		})
		return
	}

	prices, err := pc.service.GetMarketPrices(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load market prices",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"market_prices": prices,
		"count":         len(prices),
	})
}

// CreateMarketPrice records a market price reference for a product
// POST /api/v1/products/:id/market-prices
func (pc *ProductController) CreateMarketPrice(c *gin.Context) {
	if pc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Product service unavailable",
		})
		return
	}

	var price models.MarketPriceReference
	if err := c.ShouldBindJSON(&price); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request parameters",
			"details": err.Error(),
		})
		return
	}
	price.ProductID = c.Param("id")

	if err := pc.service.CreateMarketPrice(&price); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to create market price",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, price)
}

// GetProductType returns the cost classification of a product
// GET /api/v1/products/:id/type
func (pc *ProductController) GetProductType(c *gin.Context) {
	if pc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Product service unavailable",
		})
		return
	}

	productType, err := pc.service.GetProductType(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Product type not found",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, productType)
}

// SetProductTypeRequest is the payload for classifying a product
type SetProductTypeRequest struct {
	CostType string `json:"cost_type" binding:"required"`
	TypeName string `json:"type_name"`
}

// SetProductType classifies a product as resale or transformed
// PUT /api/v1/products/:id/type
func (pc *ProductController) SetProductType(c *gin.Context) {
	if pc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Product service unavailable",
		})
		return
	}

	var req SetProductTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request parameters",
			"details": err.Error(),
		})
		return
	}

	productType, err := pc.service.SetProductType(c.Param("id"), req.CostType, req.TypeName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to set product type",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, productType)
}
