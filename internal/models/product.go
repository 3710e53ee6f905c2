package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchasesCategory groups products on the procurement side
type PurchasesCategory struct {
	ID          string         `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string         `json:"name" gorm:"type:varchar(255);not null;index"`
	NameFr      string         `json:"name_fr" gorm:"type:varchar(255)"`
	NameEn      string         `json:"name_en" gorm:"type:varchar(255)"`
	Description string         `json:"description" gorm:"type:text"`
	SortOrder   int            `json:"sort_order" gorm:"default:0"`
	CreatedAt   time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

func (PurchasesCategory) TableName() string {
	return "purchases_categories"
}

func (c *PurchasesCategory) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// SalesCategory groups products on the menu/sales side
type SalesCategory struct {
	ID          string         `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string         `json:"name" gorm:"type:varchar(255);not null;index"`
	NameFr      string         `json:"name_fr" gorm:"type:varchar(255)"`
	NameEn      string         `json:"name_en" gorm:"type:varchar(255)"`
	Description string         `json:"description" gorm:"type:text"`
	SortOrder   int            `json:"sort_order" gorm:"default:0"`
	CreatedAt   time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

func (SalesCategory) TableName() string {
	return "sales_categories"
}

func (c *SalesCategory) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// UnitOfMeasure is the unit dictionary (kg, g, l, piece, carton, ...)
type UnitOfMeasure struct {
	ID           string         `json:"id" gorm:"type:uuid;primaryKey"`
	Name         string         `json:"name" gorm:"type:varchar(255);not null;index"`
	Abbreviation string         `json:"abbreviation" gorm:"type:varchar(255)"`
	NameFr       string         `json:"name_fr" gorm:"type:varchar(255)"`
	NameEn       string         `json:"name_en" gorm:"type:varchar(255)"`
	Description  string         `json:"description" gorm:"type:text"`
	SortOrder    int            `json:"sort_order" gorm:"default:0"`
	CreatedAt    time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

func (UnitOfMeasure) TableName() string {
	return "units_of_measure"
}

func (u *UnitOfMeasure) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// Product is an item that is purchased, sold, or used as an ingredient
type Product struct {
	ID                 string          `json:"id" gorm:"type:uuid;primaryKey"`
	Name               string          `json:"name" gorm:"type:varchar(255);not null;index"`
	NameFr             string          `json:"name_fr" gorm:"type:varchar(255)"`
	NameEn             string          `json:"name_en" gorm:"type:varchar(255)"`
	PurchaseCategoryID string          `json:"purchase_category_id" gorm:"type:uuid;not null;index"`
	PurchaseCategory   *PurchasesCategory `json:"purchase_category,omitempty" gorm:"foreignKey:PurchaseCategoryID"`
	SalesCategoryID    string          `json:"sales_category_id" gorm:"type:uuid;not null;index"`
	SalesCategory      *SalesCategory  `json:"sales_category,omitempty" gorm:"foreignKey:SalesCategoryID"`
	UnitOfMeasureID    string          `json:"unit_of_measure_id" gorm:"type:uuid;not null"`
	UnitOfMeasure      *UnitOfMeasure  `json:"unit_of_measure,omitempty" gorm:"foreignKey:UnitOfMeasureID"`
	CurrentSellingPrice decimal.Decimal `json:"current_selling_price" gorm:"type:decimal(15,2);default:0"`
	CurrentCostPerUnit  decimal.Decimal `json:"current_cost_per_unit" gorm:"type:decimal(15,2);default:0"`
	CurrentStock        decimal.Decimal `json:"current_stock" gorm:"type:decimal(15,2);default:0"`
	Description        string          `json:"description" gorm:"type:text"`
	CreatedAt          time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt          time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt          gorm.DeletedAt  `json:"deleted_at,omitempty" gorm:"index"`
}

func (Product) TableName() string {
	return "products"
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// StockValue is current stock priced at current unit cost
func (p *Product) StockValue() decimal.Decimal {
	return p.CurrentStock.Mul(p.CurrentCostPerUnit)
}

// Product type classification used by the daily COGS split
const (
	ProductTypeDish    = "dish"     // prepared from a recipe
	ProductTypeResale  = "resale"   // bought and resold as-is
	ProductTypeNotSold = "not_sold" // overhead, never appears in sales
)

// ProductType assigns a cost type and sales classification to a product
type ProductType struct {
	ID          string         `json:"id" gorm:"type:uuid;primaryKey"`
	ProductID   string         `json:"product_id" gorm:"type:uuid;not null;index"`
	Product     *Product       `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	CostType    string         `json:"cost_type" gorm:"type:varchar(255);default:'raw_material_costs'"` // accounting bucket, e.g. raw_material_costs, fixed_rent
	CostTypeFr  string         `json:"cost_type_fr" gorm:"type:varchar(255)"`
	CostTypeEn  string         `json:"cost_type_en" gorm:"type:varchar(255)"`
	ProductType string         `json:"product_type" gorm:"type:varchar(255);default:'resale';index"` // dish / resale / not_sold
	CreatedAt   time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

func (ProductType) TableName() string {
	return "product_types"
}

func (t *ProductType) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

// MarketPriceReference holds market prices used when an ingredient has no
// purchase history at all.
type MarketPriceReference struct {
	ID              string          `json:"id" gorm:"type:uuid;primaryKey"`
	ProductID       string          `json:"product_id" gorm:"type:uuid;not null;index:idx_market_price_product_date"`
	Product         *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	PricePerUnit    decimal.Decimal `json:"price_per_unit" gorm:"type:decimal(15,2);not null"`
	UnitOfMeasureID string          `json:"unit_of_measure_id" gorm:"type:uuid;not null"`
	UnitOfMeasure   *UnitOfMeasure  `json:"unit_of_measure,omitempty" gorm:"foreignKey:UnitOfMeasureID"`
	EffectiveDate   time.Time       `json:"effective_date" gorm:"type:date;not null;index:idx_market_price_product_date"`
	Source          string          `json:"source" gorm:"type:varchar(200)"` // Supplier, Market, Industry Standard
	IsActive        bool            `json:"is_active" gorm:"default:true;index"`
	CreatedAt       time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt       gorm.DeletedAt  `json:"deleted_at,omitempty" gorm:"index"`
}

func (MarketPriceReference) TableName() string {
	return "market_price_references"
}

func (m *MarketPriceReference) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// ProductConsolidation groups duplicate product names (POS exports spell the
// same item a dozen ways) under one canonical product.
type ProductConsolidation struct {
	ID                   string          `json:"id" gorm:"type:uuid;primaryKey"`
	PrimaryProductID     string          `json:"primary_product_id" gorm:"type:uuid;not null;index"`
	PrimaryProduct       *Product        `json:"primary_product,omitempty" gorm:"foreignKey:PrimaryProductID"`
	ConsolidatedProducts string          `json:"consolidated_products" gorm:"type:jsonb;default:'[]'"` // JSON array of product IDs
	SimilarityScores     string          `json:"similarity_scores" gorm:"type:jsonb;default:'{}'"`     // JSON map product ID -> score
	ConsolidationReason  string          `json:"consolidation_reason" gorm:"type:varchar(100)"`        // fuzzy_name_match, category_similarity
	ConfidenceScore      decimal.Decimal `json:"confidence_score" gorm:"type:decimal(5,3);default:0"`
	IsVerified           bool            `json:"is_verified" gorm:"default:false"`
	Notes                string          `json:"notes" gorm:"type:text"`
	CreatedAt            time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt            time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt            gorm.DeletedAt  `json:"deleted_at,omitempty" gorm:"index"`
}

func (ProductConsolidation) TableName() string {
	return "product_consolidations"
}

func (c *ProductConsolidation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}
