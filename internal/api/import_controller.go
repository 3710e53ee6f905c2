package api

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"bistrotrack/server/internal/services"
)

// ImportController manages API endpoints for spreadsheet imports
type ImportController struct {
	service   *services.ImportService
	dashboard *services.DashboardService
}

// NewImportController creates a new import controller
func NewImportController(service *services.ImportService, dashboard *services.DashboardService) *ImportController {
	return &ImportController{service: service, dashboard: dashboard}
}

// ImportWorkbook ingests an XLSX export with products, purchases and sales
// POST /api/v1/import/workbook (multipart, field "file")
func (ic *ImportController) ImportWorkbook(c *gin.Context) {
	if ic.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Import service unavailable",
		})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "A file upload is required",
			"details": err.Error(),
		})
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != ".xlsx" && ext != ".xlsm" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Only .xlsx workbooks are supported on this endpoint",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to read upload",
			"details": err.Error(),
		})
		return
	}
	defer file.Close()

	result, err := ic.service.ImportWorkbook(file)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "Failed to import workbook",
			"details": err.Error(),
		})
		return
	}

	if ic.dashboard != nil {
		ic.dashboard.InvalidateCache()
	}

	c.JSON(http.StatusOK, result)
}

// ImportCSV ingests a single CSV file for one sheet type
// POST /api/v1/import/csv?type=sales (multipart, field "file")
func (ic *ImportController) ImportCSV(c *gin.Context) {
	if ic.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Import service unavailable",
		})
		return
	}

	sheetType := c.Query("type")
	switch sheetType {
	case "products", "purchases", "sales":
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "type must be one of: products, purchases, sales",
		})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "A file upload is required",
			"details": err.Error(),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to read upload",
			"details": err.Error(),
		})
		return
	}
	defer file.Close()

	result, err := ic.service.ImportCSV(file, sheetType)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "Failed to import CSV",
			"details": err.Error(),
		})
		return
	}

	if ic.dashboard != nil {
		ic.dashboard.InvalidateCache()
	}

	c.JSON(http.StatusOK, result)
}
