package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sale is a single POS sale line
type Sale struct {
	ID             string          `json:"id" gorm:"type:uuid;primaryKey"`
	SaleDate       time.Time       `json:"sale_date" gorm:"type:date;not null;index"`
	OrderNumber    string          `json:"order_number" gorm:"type:varchar(255);not null;index"`
	ProductID      string          `json:"product_id" gorm:"type:uuid;not null;index"`
	Product        *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	QuantitySold   decimal.Decimal `json:"quantity_sold" gorm:"type:decimal(15,2);not null"`
	UnitSalePrice  decimal.Decimal `json:"unit_sale_price" gorm:"type:decimal(15,2);not null"`
	TotalSalePrice decimal.Decimal `json:"total_sale_price" gorm:"type:decimal(15,2);not null"`
	Customer       string          `json:"customer" gorm:"type:varchar(255)"`
	Cashier        string          `json:"cashier" gorm:"type:varchar(255)"`
	CreatedAt      time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt  `json:"deleted_at,omitempty" gorm:"index"`
}

func (Sale) TableName() string {
	return "sales"
}

func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// ConsolidatedSale is a sale line after product-name consolidation,
// regenerated from the raw sales whenever rows change for a date.
type ConsolidatedSale struct {
	ID                       string          `json:"id" gorm:"type:uuid;primaryKey"`
	SaleDate                 time.Time       `json:"sale_date" gorm:"type:date;not null;index"`
	OrderNumber              string          `json:"order_number" gorm:"type:varchar(255);not null;index"`
	ProductID                string          `json:"product_id" gorm:"type:uuid;not null;index"`
	Product                  *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	QuantitySold             decimal.Decimal `json:"quantity_sold" gorm:"type:decimal(15,2);not null"`
	UnitSalePrice            decimal.Decimal `json:"unit_sale_price" gorm:"type:decimal(15,2);not null"`
	TotalSalePrice           decimal.Decimal `json:"total_sale_price" gorm:"type:decimal(15,2);not null"`
	Customer                 string          `json:"customer" gorm:"type:varchar(255)"`
	Cashier                  string          `json:"cashier" gorm:"type:varchar(255)"`
	UnitOfSaleID             string          `json:"unit_of_sale_id" gorm:"type:uuid;not null"`
	UnitOfSale               *UnitOfMeasure  `json:"unit_of_sale,omitempty" gorm:"foreignKey:UnitOfSaleID"`
	UnitOfRecipeID           string          `json:"unit_of_recipe_id" gorm:"type:uuid;not null"`
	UnitOfRecipe             *UnitOfMeasure  `json:"unit_of_recipe,omitempty" gorm:"foreignKey:UnitOfRecipeID"`
	ConsolidationApplied     bool            `json:"consolidation_applied" gorm:"default:false;index"`
	ConsolidatedProductNames string          `json:"consolidated_product_names" gorm:"type:jsonb;default:'[]'"` // JSON array of source names
	CreatedAt                time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt                time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt                gorm.DeletedAt  `json:"deleted_at,omitempty" gorm:"index"`
}

func (ConsolidatedSale) TableName() string {
	return "consolidated_sales"
}

func (s *ConsolidatedSale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}
