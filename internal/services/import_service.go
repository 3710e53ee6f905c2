package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"bistrotrack/server/internal/models"
)

const importBatchSize = 500

// Sheet name aliases in the POS exports (French and English)
var sheetAliases = map[string][]string{
	"products":  {"products", "produits", "produit", "product"},
	"purchases": {"purchases", "achats", "achat", "purchase"},
	"sales":     {"sales", "ventes", "vente", "sale", "commandes_detaillees"},
}

// Column header aliases per sheet type
var columnAliases = map[string]map[string][]string{
	"products": {
		"name":                  {"name", "nom"},
		"purchase_category":     {"purchase_category", "catégorie de produits"},
		"sales_category":        {"sales_category", "catégorie du point de vente"},
		"unit_of_measure":       {"unit_of_measure", "unité", "unit"},
		"current_selling_price": {"current_selling_price", "prix de vente"},
		"current_cost_per_unit": {"current_cost_per_unit", "coût", "cost"},
		"current_stock":         {"current_stock", "quantité en stock"},
	},
	"purchases": {
		"purchase_date":      {"purchase_date", "date"},
		"product":            {"product", "produit"},
		"quantity_purchased": {"quantity_purchased", "quantité_commandée", "quantité commandée"},
		"total_cost":         {"total_cost", "total"},
	},
	"sales": {
		"sale_date":        {"sale_date", "date de la commande"},
		"order_number":     {"order_number", "commander"},
		"product":          {"product", "variante de produit"},
		"quantity_sold":    {"quantity_sold", "qté commandée"},
		"unit_sale_price":  {"unit_sale_price", "prix unitaire"},
		"total_sale_price": {"total_sale_price", "total"},
		"customer":         {"customer", "client"},
		"cashier":          {"cashier", "vendeur"},
	},
}

var importDateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04",
	time.RFC3339,
}

// ImportResult reports what an import run did
type ImportResult struct {
	ProductsCreated  int      `json:"products_created"`
	PurchasesCreated int      `json:"purchases_created"`
	SalesCreated     int      `json:"sales_created"`
	RowsSkipped      int      `json:"rows_skipped"`
	Errors           []string `json:"errors,omitempty"`

	// Dates touched by the run, consolidated and recosted afterwards
	purchaseDates map[time.Time]struct{}
	saleDates     map[time.Time]struct{}
}

func (r *ImportResult) addPurchaseDate(d time.Time) {
	if r.purchaseDates == nil {
		r.purchaseDates = make(map[time.Time]struct{})
	}
	r.purchaseDates[d] = struct{}{}
}

func (r *ImportResult) addSaleDate(d time.Time) {
	if r.saleDates == nil {
		r.saleDates = make(map[time.Time]struct{})
	}
	r.saleDates[d] = struct{}{}
}

// ImportService loads POS exports (XLSX workbooks or single CSV sheets)
// into products, purchases and sales, then regenerates the consolidated
// tables and the cost history for the dates the run touched.
type ImportService struct {
	db            *gorm.DB
	costing       *ProductCostingService
	consolidation *ConsolidationService
	conversions   *UnitConversionService
}

func NewImportService(db *gorm.DB, costing *ProductCostingService, consolidation *ConsolidationService, conversions *UnitConversionService) *ImportService {
	return &ImportService{db: db, costing: costing, consolidation: consolidation, conversions: conversions}
}

// ImportWorkbook reads an XLSX export, detects the product, purchase and
// sales sheets by name and imports them in that order.
func (is *ImportService) ImportWorkbook(r io.Reader) (*ImportResult, error) {
	workbook, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer workbook.Close()

	result := &ImportResult{}
	sheets := matchSheets(workbook.GetSheetList())

	// Products first, transactions reference them by name
	for _, sheetType := range []string{"products", "purchases", "sales"} {
		sheetName, ok := sheets[sheetType]
		if !ok {
			log.Printf("⚠️ Import: no '%s' sheet found, skipping", sheetType)
			continue
		}
		rows, err := workbook.GetRows(sheetName)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("sheet %s: %v", sheetName, err))
			continue
		}
		is.importRows(sheetType, rows, result)
	}

	is.finishImport(result)
	return result, nil
}

// ImportCSV reads one CSV file of the given sheet type
// (products, purchases or sales).
func (is *ImportService) ImportCSV(r io.Reader, sheetType string) (*ImportResult, error) {
	if _, ok := columnAliases[sheetType]; !ok {
		return nil, fmt.Errorf("unknown import type '%s'", sheetType)
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	result := &ImportResult{}
	is.importRows(sheetType, rows, result)
	is.finishImport(result)
	return result, nil
}

func (is *ImportService) finishImport(result *ImportResult) {
	if is.consolidation != nil {
		if len(result.purchaseDates) > 0 {
			if _, err := is.consolidation.ConsolidatePurchases(sortedDates(result.purchaseDates)); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("purchase consolidation: %v", err))
			}
		}
		if len(result.saleDates) > 0 {
			if _, err := is.consolidation.ConsolidateSales(sortedDates(result.saleDates)); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("sale consolidation: %v", err))
			}
		}
	}

	if len(result.purchaseDates) > 0 && is.costing != nil {
		since := sortedDates(result.purchaseDates)[0]
		if _, err := is.costing.RebuildCostHistory(since, is.conversions); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("cost history rebuild: %v", err))
		}
		is.costing.ClearCache()
	}

	log.Printf("✅ Import finished: %d products, %d purchases, %d sales, %d skipped",
		result.ProductsCreated, result.PurchasesCreated, result.SalesCreated, result.RowsSkipped)
}

func (is *ImportService) importRows(sheetType string, rows [][]string, result *ImportResult) {
	if len(rows) < 2 {
		return
	}

	columns := mapColumns(sheetType, rows[0])

	switch sheetType {
	case "products":
		is.importProducts(rows[1:], columns, result)
	case "purchases":
		is.importPurchases(rows[1:], columns, result)
	case "sales":
		is.importSales(rows[1:], columns, result)
	}
}

func (is *ImportService) importProducts(rows [][]string, columns map[string]int, result *ImportResult) {
	for i, row := range rows {
		name := cell(row, columns, "name")
		if name == "" {
			result.RowsSkipped++
			continue
		}

		var existing models.Product
		if err := is.db.Where("LOWER(name) = LOWER(?)", name).First(&existing).Error; err == nil {
			result.RowsSkipped++
			continue
		}

		product := models.Product{Name: name}

		if err := is.fillProductDictionaries(&product,
			cell(row, columns, "purchase_category"),
			cell(row, columns, "sales_category"),
			cell(row, columns, "unit_of_measure")); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("products row %d: %v", i+2, err))
			result.RowsSkipped++
			continue
		}
		product.CurrentSellingPrice = parseDecimalCell(cell(row, columns, "current_selling_price"))
		product.CurrentCostPerUnit = parseDecimalCell(cell(row, columns, "current_cost_per_unit"))
		product.CurrentStock = parseDecimalCell(cell(row, columns, "current_stock"))

		if err := is.db.Create(&product).Error; err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("products row %d: %v", i+2, err))
			result.RowsSkipped++
			continue
		}
		result.ProductsCreated++
	}
}

func (is *ImportService) importPurchases(rows [][]string, columns map[string]int, result *ImportResult) {
	batch := make([]models.Purchase, 0, importBatchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := is.db.CreateInBatches(batch, importBatchSize).Error; err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("purchases batch insert: %v", err))
		} else {
			result.PurchasesCreated += len(batch)
		}
		batch = batch[:0]
	}

	for i, row := range rows {
		productName := cell(row, columns, "product")
		purchaseDate, dateErr := parseImportDate(cell(row, columns, "purchase_date"))
		quantity := parseDecimalCell(cell(row, columns, "quantity_purchased"))
		totalCost := parseDecimalCell(cell(row, columns, "total_cost"))

		if productName == "" || dateErr != nil || !quantity.IsPositive() || !totalCost.IsPositive() {
			result.RowsSkipped++
			continue
		}

		product, err := is.getOrCreateProductByName(productName, result)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("purchases row %d: %v", i+2, err))
			result.RowsSkipped++
			continue
		}

		batch = append(batch, models.Purchase{
			PurchaseDate:      purchaseDate,
			ProductID:         product.ID,
			QuantityPurchased: quantity,
			TotalCost:         totalCost,
		})
		result.addPurchaseDate(purchaseDate)
		if len(batch) >= importBatchSize {
			flush()
		}
	}
	flush()
}

func (is *ImportService) importSales(rows [][]string, columns map[string]int, result *ImportResult) {
	batch := make([]models.Sale, 0, importBatchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := is.db.CreateInBatches(batch, importBatchSize).Error; err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("sales batch insert: %v", err))
		} else {
			result.SalesCreated += len(batch)
		}
		batch = batch[:0]
	}

	for i, row := range rows {
		productName := cell(row, columns, "product")
		saleDate, dateErr := parseImportDate(cell(row, columns, "sale_date"))
		orderNumber := cell(row, columns, "order_number")
		quantity := parseDecimalCell(cell(row, columns, "quantity_sold"))
		unitPrice := parseDecimalCell(cell(row, columns, "unit_sale_price"))
		total := parseDecimalCell(cell(row, columns, "total_sale_price"))

		if productName == "" || dateErr != nil || orderNumber == "" || !quantity.IsPositive() {
			result.RowsSkipped++
			continue
		}
		if total.IsZero() {
			total = unitPrice.Mul(quantity).Round(2)
		}

		product, err := is.getOrCreateProductByName(productName, result)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("sales row %d: %v", i+2, err))
			result.RowsSkipped++
			continue
		}

		batch = append(batch, models.Sale{
			SaleDate:       saleDate,
			OrderNumber:    orderNumber,
			ProductID:      product.ID,
			QuantitySold:   quantity,
			UnitSalePrice:  unitPrice,
			TotalSalePrice: total,
			Customer:       cell(row, columns, "customer"),
			Cashier:        cell(row, columns, "cashier"),
		})
		result.addSaleDate(saleDate)
		if len(batch) >= importBatchSize {
			flush()
		}
	}
	flush()
}

func (is *ImportService) getOrCreateProductByName(name string, result *ImportResult) (*models.Product, error) {
	var product models.Product
	err := is.db.Where("LOWER(name) = LOWER(?)", name).First(&product).Error
	if err == nil {
		return &product, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	product = models.Product{Name: strings.TrimSpace(name)}
	if err := is.fillProductDictionaries(&product, "", "", ""); err != nil {
		return nil, err
	}
	if err := is.db.Create(&product).Error; err != nil {
		return nil, err
	}
	result.ProductsCreated++
	return &product, nil
}

// fillProductDictionaries resolves category and unit names to rows, falling
// back to Uncategorized / unit defaults when the export carries none.
func (is *ImportService) fillProductDictionaries(product *models.Product, purchaseCategory, salesCategory, unitName string) error {
	if purchaseCategory == "" {
		purchaseCategory = "Uncategorized"
	}
	if salesCategory == "" {
		salesCategory = "Uncategorized"
	}
	if unitName == "" {
		unitName = "unit"
	}

	pc, err := is.getOrCreatePurchaseCategory(purchaseCategory)
	if err != nil {
		return err
	}
	sc, err := is.getOrCreateSalesCategory(salesCategory)
	if err != nil {
		return err
	}
	unit, err := is.getOrCreateUnit(unitName)
	if err != nil {
		return err
	}

	product.PurchaseCategoryID = pc.ID
	product.SalesCategoryID = sc.ID
	product.UnitOfMeasureID = unit.ID
	return nil
}

func (is *ImportService) getOrCreatePurchaseCategory(name string) (*models.PurchasesCategory, error) {
	var category models.PurchasesCategory
	err := is.db.Where("LOWER(name) = LOWER(?)", name).First(&category).Error
	if err == gorm.ErrRecordNotFound {
		category = models.PurchasesCategory{Name: strings.TrimSpace(name)}
		err = is.db.Create(&category).Error
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (is *ImportService) getOrCreateSalesCategory(name string) (*models.SalesCategory, error) {
	var category models.SalesCategory
	err := is.db.Where("LOWER(name) = LOWER(?)", name).First(&category).Error
	if err == gorm.ErrRecordNotFound {
		category = models.SalesCategory{Name: strings.TrimSpace(name)}
		err = is.db.Create(&category).Error
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (is *ImportService) getOrCreateUnit(name string) (*models.UnitOfMeasure, error) {
	var unit models.UnitOfMeasure
	err := is.db.Where("LOWER(name) = LOWER(?)", name).First(&unit).Error
	if err == gorm.ErrRecordNotFound {
		unit = models.UnitOfMeasure{Name: strings.TrimSpace(name)}
		err = is.db.Create(&unit).Error
	}
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

// matchSheets maps workbook sheet names to sheet types, exact alias match
// first, substring second.
func matchSheets(sheetNames []string) map[string]string {
	matched := make(map[string]string)

	for sheetType, aliases := range sheetAliases {
		for _, sheetName := range sheetNames {
			normalized := strings.ToLower(strings.TrimSpace(sheetName))
			for _, alias := range aliases {
				if normalized == alias {
					matched[sheetType] = sheetName
				}
			}
		}
		if _, ok := matched[sheetType]; ok {
			continue
		}
		for _, sheetName := range sheetNames {
			normalized := strings.ToLower(strings.TrimSpace(sheetName))
			for _, alias := range aliases {
				if strings.Contains(normalized, alias) {
					matched[sheetType] = sheetName
				}
			}
		}
	}

	return matched
}

// mapColumns resolves header cells to canonical column names
func mapColumns(sheetType string, header []string) map[string]int {
	columns := make(map[string]int)
	for idx, cell := range header {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for canonical, aliases := range columnAliases[sheetType] {
			for _, alias := range aliases {
				if normalized == alias {
					columns[canonical] = idx
				}
			}
		}
	}
	return columns
}

func cell(row []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseDecimalCell(raw string) decimal.Decimal {
	if raw == "" {
		return decimal.Zero
	}
	// French exports use comma decimals and space thousand separators
	raw = strings.ReplaceAll(raw, " ", "")
	raw = strings.ReplaceAll(raw, " ", "")
	raw = strings.ReplaceAll(raw, ",", ".")
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return value
}

func parseImportDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range importDateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return truncateToDay(parsed.UTC()), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date '%s'", raw)
}
