package services

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"bistrotrack/server/internal/models"
)

type ProductService struct {
	db *gorm.DB
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

// GetAllProducts returns products, optionally filtered by a name search
func (ps *ProductService) GetAllProducts(search string) ([]models.Product, error) {
	var products []models.Product
	query := ps.db.Preload("PurchaseCategory").Preload("SalesCategory").Preload("UnitOfMeasure")
	if search != "" {
		pattern := "%" + strings.TrimSpace(search) + "%"
		query = query.Where("name ILIKE ? OR name_fr ILIKE ? OR name_en ILIKE ?", pattern, pattern, pattern)
	}
	if err := query.Order("name ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// GetProductByID returns a product with its relations
func (ps *ProductService) GetProductByID(id string) (*models.Product, error) {
	var product models.Product
	err := ps.db.Preload("PurchaseCategory").Preload("SalesCategory").Preload("UnitOfMeasure").
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct creates a product, rejecting duplicate names
func (ps *ProductService) CreateProduct(product *models.Product) error {
	var existing models.Product
	if err := ps.db.Where("LOWER(name) = LOWER(?)", product.Name).First(&existing).Error; err == nil {
		return fmt.Errorf("product '%s' already exists", product.Name)
	}
	return ps.db.Create(product).Error
}

// UpdateProduct updates an existing product
func (ps *ProductService) UpdateProduct(id string, product *models.Product) error {
	var existing models.Product
	if err := ps.db.Where("id = ?", id).First(&existing).Error; err != nil {
		return fmt.Errorf("product not found")
	}

	if product.Name != existing.Name {
		var duplicate models.Product
		if err := ps.db.Where("LOWER(name) = LOWER(?) AND id != ?", product.Name, id).
			First(&duplicate).Error; err == nil {
			return fmt.Errorf("product '%s' already exists", product.Name)
		}
	}

	product.ID = id
	return ps.db.Model(&existing).Updates(product).Error
}

// DeleteProduct removes a product unless transactions reference it
func (ps *ProductService) DeleteProduct(id string) error {
	var salesCount, purchasesCount int64
	ps.db.Model(&models.Sale{}).Where("product_id = ?", id).Count(&salesCount)
	ps.db.Model(&models.Purchase{}).Where("product_id = ?", id).Count(&purchasesCount)
	if salesCount > 0 || purchasesCount > 0 {
		return fmt.Errorf("product has %d sales and %d purchases, cannot delete", salesCount, purchasesCount)
	}
	return ps.db.Delete(&models.Product{}, "id = ?", id).Error
}

// GetPurchaseCategories lists the purchase category dictionary
func (ps *ProductService) GetPurchaseCategories() ([]models.PurchasesCategory, error) {
	var categories []models.PurchasesCategory
	err := ps.db.Order("name ASC").Find(&categories).Error
	return categories, err
}

// GetSalesCategories lists the sales category dictionary
func (ps *ProductService) GetSalesCategories() ([]models.SalesCategory, error) {
	var categories []models.SalesCategory
	err := ps.db.Order("name ASC").Find(&categories).Error
	return categories, err
}

// CreatePurchaseCategory adds a purchase category, rejecting duplicate names
func (ps *ProductService) CreatePurchaseCategory(category *models.PurchasesCategory) error {
	var existing models.PurchasesCategory
	if err := ps.db.Where("LOWER(name) = LOWER(?)", category.Name).First(&existing).Error; err == nil {
		return fmt.Errorf("purchase category '%s' already exists", category.Name)
	}
	return ps.db.Create(category).Error
}

// CreateSalesCategory adds a sales category, rejecting duplicate names
func (ps *ProductService) CreateSalesCategory(category *models.SalesCategory) error {
	var existing models.SalesCategory
	if err := ps.db.Where("LOWER(name) = LOWER(?)", category.Name).First(&existing).Error; err == nil {
		return fmt.Errorf("sales category '%s' already exists", category.Name)
	}
	return ps.db.Create(category).Error
}

// GetUnitsOfMeasure lists units ordered for dropdowns
func (ps *ProductService) GetUnitsOfMeasure() ([]models.UnitOfMeasure, error) {
	var units []models.UnitOfMeasure
	err := ps.db.Order("sort_order ASC, name ASC").Find(&units).Error
	return units, err
}

// CreateUnitOfMeasure adds a unit, rejecting duplicate names
func (ps *ProductService) CreateUnitOfMeasure(unit *models.UnitOfMeasure) error {
	var existing models.UnitOfMeasure
	if err := ps.db.Where("LOWER(name) = LOWER(?)", unit.Name).First(&existing).Error; err == nil {
		return fmt.Errorf("unit '%s' already exists", unit.Name)
	}
	return ps.db.Create(unit).Error
}

// GetUnitConversions lists conversion rules, active first
func (ps *ProductService) GetUnitConversions() ([]models.UnitConversion, error) {
	var conversions []models.UnitConversion
	err := ps.db.Preload("FromUnit").Preload("ToUnit").
		Order("is_active DESC, priority ASC").
		Find(&conversions).Error
	return conversions, err
}

// CreateUnitConversion adds a conversion rule
func (ps *ProductService) CreateUnitConversion(conversion *models.UnitConversion) error {
	if !conversion.ConversionFactor.IsPositive() {
		return fmt.Errorf("conversion factor must be positive")
	}
	return ps.db.Create(conversion).Error
}

// GetMarketPrices lists market price references for a product, newest first
func (ps *ProductService) GetMarketPrices(productID string) ([]models.MarketPriceReference, error) {
	var prices []models.MarketPriceReference
	err := ps.db.Preload("UnitOfMeasure").
		Where("product_id = ?", productID).
		Order("effective_date DESC").
		Find(&prices).Error
	return prices, err
}

// CreateMarketPrice records a market price reference used as a costing
// fallback for products without purchase history
func (ps *ProductService) CreateMarketPrice(price *models.MarketPriceReference) error {
	if price.ProductID == "" {
		return fmt.Errorf("product_id is required")
	}
	if !price.PricePerUnit.IsPositive() {
		return fmt.Errorf("price_per_unit must be positive")
	}

	var product models.Product
	if err := ps.db.Where("id = ?", price.ProductID).First(&product).Error; err != nil {
		return fmt.Errorf("product not found")
	}

	if price.UnitOfMeasureID == "" {
		price.UnitOfMeasureID = product.UnitOfMeasureID
	}
	if price.EffectiveDate.IsZero() {
		price.EffectiveDate = truncateToDay(time.Now().UTC())
	}
	price.IsActive = true
	return ps.db.Create(price).Error
}

// GetProductType returns the dish/resale classification for a product
func (ps *ProductService) GetProductType(productID string) (*models.ProductType, error) {
	var productType models.ProductType
	err := ps.db.Where("product_id = ?", productID).First(&productType).Error
	if err != nil {
		return nil, err
	}
	return &productType, nil
}

// SetProductType creates or updates the classification for a product
func (ps *ProductService) SetProductType(productID, costType, typeName string) (*models.ProductType, error) {
	var productType models.ProductType
	err := ps.db.Where("product_id = ?", productID).First(&productType).Error
	if err == gorm.ErrRecordNotFound {
		productType = models.ProductType{
			ProductID:   productID,
			CostType:    costType,
			ProductType: typeName,
		}
		if err := ps.db.Create(&productType).Error; err != nil {
			return nil, err
		}
		return &productType, nil
	}
	if err != nil {
		return nil, err
	}

	productType.CostType = costType
	productType.ProductType = typeName
	if err := ps.db.Save(&productType).Error; err != nil {
		return nil, err
	}
	return &productType, nil
}
