package services

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"gorm.io/gorm"

	"bistrotrack/server/internal/models"
)

// ConsolidationService regenerates the consolidated purchase and sale tables
// from the raw rows, mapping duplicate product names onto their canonical
// product via ProductConsolidation rules. Cost history is rebuilt from the
// consolidated rows, never from raw purchases.
type ConsolidationService struct {
	db *gorm.DB
}

func NewConsolidationService(db *gorm.DB) *ConsolidationService {
	return &ConsolidationService{db: db}
}

// ConsolidationResult reports what a consolidation pass produced
type ConsolidationResult struct {
	Created int `json:"created"`
	Errors  int `json:"errors"`
}

// BuildConsolidationIndex maps each source product ID to the primary product
// ID of its rule. Rules with unparseable product lists are skipped.
func BuildConsolidationIndex(rules []models.ProductConsolidation) map[string]string {
	index := make(map[string]string)
	for i := range rules {
		var sourceIDs []string
		if err := json.Unmarshal([]byte(rules[i].ConsolidatedProducts), &sourceIDs); err != nil {
			continue
		}
		for _, sourceID := range sourceIDs {
			if sourceID != "" && sourceID != rules[i].PrimaryProductID {
				index[sourceID] = rules[i].PrimaryProductID
			}
		}
	}
	return index
}

// sourceNamesJSON encodes the original product names a consolidated row
// absorbed. An empty list marshals to "[]" to match the column default.
func sourceNamesJSON(names []string) string {
	if len(names) == 0 {
		return "[]"
	}
	encoded, err := json.Marshal(names)
	if err != nil {
		return "[]"
	}
	return string(encoded)
}

// sortedDates returns the keys of a date set oldest first
func sortedDates(set map[time.Time]struct{}) []time.Time {
	dates := make([]time.Time, 0, len(set))
	for d := range set {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// ConsolidatePurchases regenerates consolidated purchase rows for the given
// dates, or for every date when none are passed.
func (cs *ConsolidationService) ConsolidatePurchases(dates []time.Time) (ConsolidationResult, error) {
	result := ConsolidationResult{}

	index, primaries, err := cs.loadRules()
	if err != nil {
		return result, err
	}

	// Regenerated wholesale per date, so stale rows never linger
	if len(dates) > 0 {
		if err := cs.db.Unscoped().Where("purchase_date IN ?", dates).
			Delete(&models.ConsolidatedPurchase{}).Error; err != nil {
			return result, err
		}
	} else {
		if err := cs.db.Unscoped().Where("1 = 1").
			Delete(&models.ConsolidatedPurchase{}).Error; err != nil {
			return result, err
		}
	}

	query := cs.db.Preload("Product")
	if len(dates) > 0 {
		query = query.Where("purchase_date IN ?", dates)
	}
	var purchases []models.Purchase
	if err := query.Find(&purchases).Error; err != nil {
		return result, err
	}

	batch := make([]models.ConsolidatedPurchase, 0, len(purchases))
	for i := range purchases {
		purchase := &purchases[i]
		if purchase.Product == nil {
			result.Errors++
			continue
		}

		target, applied, names := cs.resolveTarget(purchase.Product, index, primaries)
		recipeUnitID := cs.recipeUnitFor(target)

		batch = append(batch, models.ConsolidatedPurchase{
			PurchaseDate:             purchase.PurchaseDate,
			ProductID:                target.ID,
			QuantityPurchased:        purchase.QuantityPurchased,
			TotalCost:                purchase.TotalCost,
			UnitOfPurchaseID:         purchase.Product.UnitOfMeasureID,
			UnitOfRecipeID:           recipeUnitID,
			ConsolidationApplied:     applied,
			ConsolidatedProductNames: sourceNamesJSON(names),
		})
	}

	if len(batch) > 0 {
		if err := cs.db.CreateInBatches(batch, importBatchSize).Error; err != nil {
			return result, err
		}
		result.Created = len(batch)
	}

	log.Printf("📊 Consolidated %d purchase rows (%d errors)", result.Created, result.Errors)
	return result, nil
}

// ConsolidateSales regenerates consolidated sale rows for the given dates,
// or for every date when none are passed.
func (cs *ConsolidationService) ConsolidateSales(dates []time.Time) (ConsolidationResult, error) {
	result := ConsolidationResult{}

	index, primaries, err := cs.loadRules()
	if err != nil {
		return result, err
	}

	if len(dates) > 0 {
		if err := cs.db.Unscoped().Where("sale_date IN ?", dates).
			Delete(&models.ConsolidatedSale{}).Error; err != nil {
			return result, err
		}
	} else {
		if err := cs.db.Unscoped().Where("1 = 1").
			Delete(&models.ConsolidatedSale{}).Error; err != nil {
			return result, err
		}
	}

	query := cs.db.Preload("Product")
	if len(dates) > 0 {
		query = query.Where("sale_date IN ?", dates)
	}
	var sales []models.Sale
	if err := query.Find(&sales).Error; err != nil {
		return result, err
	}

	batch := make([]models.ConsolidatedSale, 0, len(sales))
	for i := range sales {
		sale := &sales[i]
		if sale.Product == nil {
			result.Errors++
			continue
		}

		target, applied, names := cs.resolveTarget(sale.Product, index, primaries)

		batch = append(batch, models.ConsolidatedSale{
			SaleDate:                 sale.SaleDate,
			OrderNumber:              sale.OrderNumber,
			ProductID:                target.ID,
			QuantitySold:             sale.QuantitySold,
			UnitSalePrice:            sale.UnitSalePrice,
			TotalSalePrice:           sale.TotalSalePrice,
			Customer:                 sale.Customer,
			Cashier:                  sale.Cashier,
			UnitOfSaleID:             sale.Product.UnitOfMeasureID,
			UnitOfRecipeID:           sale.Product.UnitOfMeasureID,
			ConsolidationApplied:     applied,
			ConsolidatedProductNames: sourceNamesJSON(names),
		})
	}

	if len(batch) > 0 {
		if err := cs.db.CreateInBatches(batch, importBatchSize).Error; err != nil {
			return result, err
		}
		result.Created = len(batch)
	}

	log.Printf("📊 Consolidated %d sale rows (%d errors)", result.Created, result.Errors)
	return result, nil
}

// GetRules lists the consolidation rules with their primary products
func (cs *ConsolidationService) GetRules() ([]models.ProductConsolidation, error) {
	var rules []models.ProductConsolidation
	err := cs.db.Preload("PrimaryProduct").Order("created_at DESC").Find(&rules).Error
	return rules, err
}

// CreateRule records a rule mapping duplicate products onto a primary one.
// Callers re-run the consolidation pass afterwards so the rule takes effect.
func (cs *ConsolidationService) CreateRule(primaryProductID string, consolidatedIDs []string, reason, notes string) (*models.ProductConsolidation, error) {
	if primaryProductID == "" {
		return nil, fmt.Errorf("primary_product_id is required")
	}
	if len(consolidatedIDs) == 0 {
		return nil, fmt.Errorf("consolidated_products must not be empty")
	}

	var primary models.Product
	if err := cs.db.Where("id = ?", primaryProductID).First(&primary).Error; err != nil {
		return nil, fmt.Errorf("primary product not found")
	}
	for _, id := range consolidatedIDs {
		if id == primaryProductID {
			return nil, fmt.Errorf("primary product cannot consolidate into itself")
		}
		var count int64
		cs.db.Model(&models.Product{}).Where("id = ?", id).Count(&count)
		if count == 0 {
			return nil, fmt.Errorf("consolidated product %s not found", id)
		}
	}

	var existing models.ProductConsolidation
	if err := cs.db.Where("primary_product_id = ?", primaryProductID).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("a rule for this primary product already exists")
	}

	encoded, err := json.Marshal(consolidatedIDs)
	if err != nil {
		return nil, err
	}
	if reason == "" {
		reason = "manual"
	}

	rule := models.ProductConsolidation{
		PrimaryProductID:     primaryProductID,
		ConsolidatedProducts: string(encoded),
		ConsolidationReason:  reason,
		IsVerified:           true,
		Notes:                notes,
	}
	if err := cs.db.Create(&rule).Error; err != nil {
		return nil, err
	}

	log.Printf("✅ Consolidation rule created: %s absorbs %d products", primary.Name, len(consolidatedIDs))
	return &rule, nil
}

func (cs *ConsolidationService) loadRules() (map[string]string, map[string]*models.Product, error) {
	var rules []models.ProductConsolidation
	if err := cs.db.Preload("PrimaryProduct").Find(&rules).Error; err != nil {
		return nil, nil, err
	}

	primaries := make(map[string]*models.Product)
	for i := range rules {
		if rules[i].PrimaryProduct != nil {
			primaries[rules[i].PrimaryProductID] = rules[i].PrimaryProduct
		}
	}
	return BuildConsolidationIndex(rules), primaries, nil
}

// resolveTarget returns the product a row should be booked under: the rule's
// primary product when one covers it, the original product otherwise.
func (cs *ConsolidationService) resolveTarget(product *models.Product, index map[string]string, primaries map[string]*models.Product) (*models.Product, bool, []string) {
	primaryID, ok := index[product.ID]
	if !ok {
		return product, false, nil
	}
	primary, ok := primaries[primaryID]
	if !ok {
		return product, false, nil
	}
	return primary, true, []string{product.Name}
}

// recipeUnitFor resolves the unit recipes consume the product in: the unit on
// a recipe line using it, falling back to the product's own unit.
func (cs *ConsolidationService) recipeUnitFor(product *models.Product) string {
	var line models.RecipeIngredient
	err := cs.db.Where("ingredient_id = ?", product.ID).First(&line).Error
	if err == nil && line.UnitOfRecipeID != nil && *line.UnitOfRecipeID != "" {
		return *line.UnitOfRecipeID
	}
	return product.UnitOfMeasureID
}
