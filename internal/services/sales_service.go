package services

import (
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bistrotrack/server/internal/models"
)

type SalesService struct {
	db            *gorm.DB
	consolidation *ConsolidationService
}

func NewSalesService(db *gorm.DB, consolidation *ConsolidationService) *SalesService {
	return &SalesService{db: db, consolidation: consolidation}
}

// reconsolidate regenerates the consolidated rows after sales change
func (ss *SalesService) reconsolidate(dates []time.Time) {
	if ss.consolidation == nil || len(dates) == 0 {
		return
	}
	if _, err := ss.consolidation.ConsolidateSales(dates); err != nil {
		log.Printf("⚠️ Sale consolidation failed: %v", err)
	}
}

// SalesFilter narrows sale listings
type SalesFilter struct {
	StartDate   time.Time
	EndDate     time.Time
	ProductID   string
	OrderNumber string
	Limit       int
	Offset      int
}

// GetSales lists sales newest first with optional filters
func (ss *SalesService) GetSales(filter SalesFilter) ([]models.Sale, int64, error) {
	query := ss.db.Model(&models.Sale{})

	if !filter.StartDate.IsZero() {
		query = query.Where("sale_date >= ?", truncateToDay(filter.StartDate))
	}
	if !filter.EndDate.IsZero() {
		query = query.Where("sale_date <= ?", truncateToDay(filter.EndDate))
	}
	if filter.ProductID != "" {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if filter.OrderNumber != "" {
		query = query.Where("order_number = ?", filter.OrderNumber)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}

	var sales []models.Sale
	err := query.Preload("Product").
		Order("sale_date DESC, created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&sales).Error
	return sales, total, err
}

// CreateSale records one sale line, deriving the total when absent
func (ss *SalesService) CreateSale(sale *models.Sale) error {
	if sale.ProductID == "" {
		return fmt.Errorf("product_id is required")
	}
	if sale.OrderNumber == "" {
		return fmt.Errorf("order_number is required")
	}
	if !sale.QuantitySold.IsPositive() {
		return fmt.Errorf("quantity_sold must be positive")
	}

	var product models.Product
	if err := ss.db.Where("id = ?", sale.ProductID).First(&product).Error; err != nil {
		return fmt.Errorf("product not found")
	}

	if sale.UnitSalePrice.IsZero() {
		sale.UnitSalePrice = product.CurrentSellingPrice
	}
	if sale.TotalSalePrice.IsZero() {
		sale.TotalSalePrice = sale.UnitSalePrice.Mul(sale.QuantitySold).Round(2)
	}
	if sale.SaleDate.IsZero() {
		sale.SaleDate = truncateToDay(time.Now().UTC())
	} else {
		sale.SaleDate = truncateToDay(sale.SaleDate)
	}

	if err := ss.db.Create(sale).Error; err != nil {
		return err
	}
	ss.reconsolidate([]time.Time{sale.SaleDate})
	return nil
}

// CreateSalesBatch inserts a batch of sale lines in one transaction,
// typically from a POS event.
func (ss *SalesService) CreateSalesBatch(sales []models.Sale) error {
	if len(sales) == 0 {
		return nil
	}
	dates := make(map[time.Time]struct{})
	err := ss.db.Transaction(func(tx *gorm.DB) error {
		for i := range sales {
			if sales[i].SaleDate.IsZero() {
				sales[i].SaleDate = truncateToDay(time.Now().UTC())
			} else {
				sales[i].SaleDate = truncateToDay(sales[i].SaleDate)
			}
			if sales[i].TotalSalePrice.IsZero() {
				sales[i].TotalSalePrice = sales[i].UnitSalePrice.Mul(sales[i].QuantitySold).Round(2)
			}
			if err := tx.Create(&sales[i]).Error; err != nil {
				return err
			}
			dates[sales[i].SaleDate] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return err
	}
	ss.reconsolidate(sortedDates(dates))
	return nil
}

// DeleteSale removes one sale line
func (ss *SalesService) DeleteSale(id string) error {
	var sale models.Sale
	if err := ss.db.Where("id = ?", id).First(&sale).Error; err != nil {
		return fmt.Errorf("sale not found")
	}
	if err := ss.db.Delete(&sale).Error; err != nil {
		return err
	}
	ss.reconsolidate([]time.Time{sale.SaleDate})
	return nil
}

// GetConsolidatedSales lists normalized sale rows for a range
func (ss *SalesService) GetConsolidatedSales(start, end time.Time) ([]models.ConsolidatedSale, error) {
	var sales []models.ConsolidatedSale
	query := ss.db.Preload("Product").Preload("UnitOfSale").Preload("UnitOfRecipe")
	if !start.IsZero() {
		query = query.Where("sale_date >= ?", truncateToDay(start))
	}
	if !end.IsZero() {
		query = query.Where("sale_date <= ?", truncateToDay(end))
	}
	err := query.Order("sale_date DESC").Find(&sales).Error
	return sales, err
}

// DailyTotal sums a day's sales directly from the sale lines
func (ss *SalesService) DailyTotal(date time.Time) (decimal.Decimal, int64, error) {
	date = truncateToDay(date)

	var row struct {
		Total decimal.Decimal
		Count int64
	}
	err := ss.db.Model(&models.Sale{}).
		Select("COALESCE(SUM(total_sale_price), 0) AS total, COUNT(DISTINCT order_number) AS count").
		Where("sale_date = ?", date).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, 0, err
	}
	return row.Total, row.Count, nil
}
