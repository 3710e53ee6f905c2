package services

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"bistrotrack/server/internal/models"
)

type PurchaseService struct {
	db            *gorm.DB
	costing       *ProductCostingService
	consolidation *ConsolidationService
	conversions   *UnitConversionService
}

func NewPurchaseService(db *gorm.DB, costing *ProductCostingService, consolidation *ConsolidationService, conversions *UnitConversionService) *PurchaseService {
	return &PurchaseService{db: db, costing: costing, consolidation: consolidation, conversions: conversions}
}

// reconsolidate regenerates the consolidated rows and the cost history after
// purchases change for a date.
func (ps *PurchaseService) reconsolidate(date time.Time) {
	if ps.consolidation != nil {
		if _, err := ps.consolidation.ConsolidatePurchases([]time.Time{date}); err != nil {
			log.Printf("⚠️ Purchase consolidation failed for %s: %v", date.Format("2006-01-02"), err)
		}
	}
	if ps.costing != nil {
		if _, err := ps.costing.RebuildCostHistory(date, ps.conversions); err != nil {
			log.Printf("⚠️ Cost history rebuild failed: %v", err)
		}
		ps.costing.ClearCache()
	}
}

// PurchaseFilter narrows purchase listings
type PurchaseFilter struct {
	StartDate time.Time
	EndDate   time.Time
	ProductID string
	Limit     int
	Offset    int
}

// GetPurchases lists purchases newest first with optional filters
func (ps *PurchaseService) GetPurchases(filter PurchaseFilter) ([]models.Purchase, int64, error) {
	query := ps.db.Model(&models.Purchase{})

	if !filter.StartDate.IsZero() {
		query = query.Where("purchase_date >= ?", truncateToDay(filter.StartDate))
	}
	if !filter.EndDate.IsZero() {
		query = query.Where("purchase_date <= ?", truncateToDay(filter.EndDate))
	}
	if filter.ProductID != "" {
		query = query.Where("product_id = ?", filter.ProductID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}

	var purchases []models.Purchase
	err := query.Preload("Product").
		Order("purchase_date DESC, created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&purchases).Error
	return purchases, total, err
}

// CreatePurchase records one purchase and refreshes the product's current
// cost so the costing engine sees fresh data immediately.
func (ps *PurchaseService) CreatePurchase(purchase *models.Purchase) error {
	if purchase.ProductID == "" {
		return fmt.Errorf("product_id is required")
	}
	if !purchase.QuantityPurchased.IsPositive() {
		return fmt.Errorf("quantity_purchased must be positive")
	}
	if !purchase.TotalCost.IsPositive() {
		return fmt.Errorf("total_cost must be positive")
	}

	var product models.Product
	if err := ps.db.Where("id = ?", purchase.ProductID).First(&product).Error; err != nil {
		return fmt.Errorf("product not found")
	}

	if purchase.PurchaseDate.IsZero() {
		purchase.PurchaseDate = truncateToDay(time.Now().UTC())
	} else {
		purchase.PurchaseDate = truncateToDay(purchase.PurchaseDate)
	}

	if err := ps.db.Create(purchase).Error; err != nil {
		return err
	}

	unitCost := purchase.TotalCost.Div(purchase.QuantityPurchased).Round(4)
	if err := ps.db.Model(&product).Update("current_cost_per_unit", unitCost).Error; err != nil {
		log.Printf("⚠️ Failed to refresh current cost for %s: %v", product.Name, err)
	}

	ps.reconsolidate(purchase.PurchaseDate)
	return nil
}

// DeletePurchase removes one purchase row
func (ps *PurchaseService) DeletePurchase(id string) error {
	var purchase models.Purchase
	if err := ps.db.Where("id = ?", id).First(&purchase).Error; err != nil {
		return fmt.Errorf("purchase not found")
	}
	if err := ps.db.Delete(&purchase).Error; err != nil {
		return err
	}
	ps.reconsolidate(purchase.PurchaseDate)
	return nil
}

// GetConsolidatedPurchases lists normalized purchase rows for a range
func (ps *PurchaseService) GetConsolidatedPurchases(start, end time.Time) ([]models.ConsolidatedPurchase, error) {
	var purchases []models.ConsolidatedPurchase
	query := ps.db.Preload("Product").Preload("UnitOfPurchase").Preload("UnitOfRecipe")
	if !start.IsZero() {
		query = query.Where("purchase_date >= ?", truncateToDay(start))
	}
	if !end.IsZero() {
		query = query.Where("purchase_date <= ?", truncateToDay(end))
	}
	err := query.Order("purchase_date DESC").Find(&purchases).Error
	return purchases, err
}
