package models

import (
	"log"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates all tables
func AutoMigrate(db *gorm.DB) error {
	log.Println("📦 Running database migrations...")

	err := db.AutoMigrate(
		// Dictionaries first, they are referenced by everything else
		&PurchasesCategory{},
		&SalesCategory{},
		&UnitOfMeasure{},
		&Product{},
		&ProductType{},
		&UnitConversion{},
		&MarketPriceReference{},
		&ProductConsolidation{},

		// Transactional data
		&Purchase{},
		&ConsolidatedPurchase{},
		&Sale{},
		&ConsolidatedSale{},

		// Recipes
		&Recipe{},
		&RecipeIngredient{},
		&RecipeCostSnapshot{},
		&RecipeVersion{},

		// Analytics
		&ProductCostHistory{},
		&DailySummary{},

		// Auth
		&User{},
	)
	if err != nil {
		return err
	}

	log.Println("✅ Database migrations completed")
	return nil
}
