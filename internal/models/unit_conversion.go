package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UnitConversion converts a purchase unit into a recipe unit. A rule can be
// generic, category-scoped or product-scoped; resolution prefers product over
// category over generic, then lower priority number.
type UnitConversion struct {
	ID               string             `json:"id" gorm:"type:uuid;primaryKey"`
	FromUnitID       string             `json:"from_unit_id" gorm:"type:uuid;not null;index:idx_unit_conversion_pair"`
	FromUnit         *UnitOfMeasure     `json:"from_unit,omitempty" gorm:"foreignKey:FromUnitID"`
	ToUnitID         string             `json:"to_unit_id" gorm:"type:uuid;not null;index:idx_unit_conversion_pair"`
	ToUnit           *UnitOfMeasure     `json:"to_unit,omitempty" gorm:"foreignKey:ToUnitID"`
	ConversionFactor decimal.Decimal    `json:"conversion_factor" gorm:"type:decimal(15,6);not null"` // multiply from_unit quantity to get to_unit quantity
	ProductID        *string            `json:"product_id" gorm:"type:uuid;index"`
	Product          *Product           `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	CategoryID       *string            `json:"category_id" gorm:"type:uuid;index"`
	Category         *PurchasesCategory `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	IsActive         bool               `json:"is_active" gorm:"default:true;index"`
	Priority         int                `json:"priority" gorm:"default:100"` // lower wins
	Notes            string             `json:"notes" gorm:"type:text"`
	CreatedAt        time.Time          `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time          `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt        gorm.DeletedAt     `json:"deleted_at,omitempty" gorm:"index"`
}

func (UnitConversion) TableName() string {
	return "unit_conversions"
}

func (c *UnitConversion) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}
