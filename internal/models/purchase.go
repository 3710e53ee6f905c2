package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Purchase is a raw purchase line as imported from supplier invoices
type Purchase struct {
	ID                string          `json:"id" gorm:"type:uuid;primaryKey"`
	PurchaseDate      time.Time       `json:"purchase_date" gorm:"type:date;not null;index"`
	ProductID         string          `json:"product_id" gorm:"type:uuid;not null;index"`
	Product           *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	QuantityPurchased decimal.Decimal `json:"quantity_purchased" gorm:"type:decimal(15,2);not null"`
	TotalCost         decimal.Decimal `json:"total_cost" gorm:"type:decimal(15,2);not null"`
	CreatedAt         time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt         gorm.DeletedAt  `json:"deleted_at,omitempty" gorm:"index"`
}

func (Purchase) TableName() string {
	return "purchases"
}

func (p *Purchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// UnitCost is the effective price per purchased unit
func (p *Purchase) UnitCost() decimal.Decimal {
	if p.QuantityPurchased.IsZero() {
		return decimal.Zero
	}
	return p.TotalCost.Div(p.QuantityPurchased)
}

// ConsolidatedPurchase is a purchase line after name consolidation and unit
// normalization. Cost history is rebuilt from these rows, not from raw
// purchases.
type ConsolidatedPurchase struct {
	ID                       string          `json:"id" gorm:"type:uuid;primaryKey"`
	PurchaseDate             time.Time       `json:"purchase_date" gorm:"type:date;not null;index"`
	ProductID                string          `json:"product_id" gorm:"type:uuid;not null;index"`
	Product                  *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	QuantityPurchased        decimal.Decimal `json:"quantity_purchased" gorm:"type:decimal(15,2);not null"`
	TotalCost                decimal.Decimal `json:"total_cost" gorm:"type:decimal(15,2);not null"`
	UnitOfPurchaseID         string          `json:"unit_of_purchase_id" gorm:"type:uuid;not null"`
	UnitOfPurchase           *UnitOfMeasure  `json:"unit_of_purchase,omitempty" gorm:"foreignKey:UnitOfPurchaseID"`
	UnitOfRecipeID           string          `json:"unit_of_recipe_id" gorm:"type:uuid;not null"`
	UnitOfRecipe             *UnitOfMeasure  `json:"unit_of_recipe,omitempty" gorm:"foreignKey:UnitOfRecipeID"`
	ConsolidationApplied     bool            `json:"consolidation_applied" gorm:"default:false;index"`
	ConsolidatedProductNames string          `json:"consolidated_product_names" gorm:"type:jsonb;default:'[]'"` // JSON array of source names
	CreatedAt                time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt                time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt                gorm.DeletedAt  `json:"deleted_at,omitempty" gorm:"index"`
}

func (ConsolidatedPurchase) TableName() string {
	return "consolidated_purchases"
}

func (p *ConsolidatedPurchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// UnitCost is the effective price per purchased unit
func (p *ConsolidatedPurchase) UnitCost() decimal.Decimal {
	if p.QuantityPurchased.IsZero() {
		return decimal.Zero
	}
	return p.TotalCost.Div(p.QuantityPurchased)
}
