package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"bistrotrack/server/internal/models"
)

type RecipeService struct {
	db      *gorm.DB
	costing *RecipeCostingService
}

func NewRecipeService(db *gorm.DB, costing *RecipeCostingService) *RecipeService {
	return &RecipeService{db: db, costing: costing}
}

// GetAllRecipes returns recipes with their ingredient lines, optionally
// filtered by name or category.
func (rs *RecipeService) GetAllRecipes(search, category string, activeOnly bool) ([]models.Recipe, error) {
	var recipes []models.Recipe
	query := rs.db.Preload("Ingredients").Preload("Ingredients.Ingredient").Preload("Ingredients.UnitOfRecipe")

	if search != "" {
		pattern := "%" + strings.TrimSpace(search) + "%"
		query = query.Where("dish_name ILIKE ? OR dish_name_fr ILIKE ? OR dish_name_en ILIKE ?",
			pattern, pattern, pattern)
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Order("dish_name ASC").Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// GetRecipeByID returns a recipe with its ingredient lines
func (rs *RecipeService) GetRecipeByID(id string) (*models.Recipe, error) {
	var recipe models.Recipe
	err := rs.db.Preload("Ingredients").Preload("Ingredients.Ingredient").Preload("Ingredients.UnitOfRecipe").
		Where("id = ?", id).
		First(&recipe).Error
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// CreateRecipe creates a recipe with its ingredient lines in one transaction
func (rs *RecipeService) CreateRecipe(recipe *models.Recipe) error {
	var existing models.Recipe
	if err := rs.db.Where("LOWER(dish_name) = LOWER(?)", recipe.DishName).First(&existing).Error; err == nil {
		return fmt.Errorf("recipe '%s' already exists", recipe.DishName)
	}

	return rs.db.Transaction(func(tx *gorm.DB) error {
		ingredients := recipe.Ingredients
		recipe.Ingredients = nil
		if err := tx.Create(recipe).Error; err != nil {
			return err
		}
		for i := range ingredients {
			ingredients[i].RecipeID = recipe.ID
			if err := tx.Create(&ingredients[i]).Error; err != nil {
				return err
			}
		}
		recipe.Ingredients = ingredients
		return nil
	})
}

// UpdateRecipe updates recipe fields and replaces its ingredient lines when
// the request carries any.
func (rs *RecipeService) UpdateRecipe(id string, recipe *models.Recipe) error {
	var existing models.Recipe
	if err := rs.db.Where("id = ?", id).First(&existing).Error; err != nil {
		return fmt.Errorf("recipe not found")
	}

	return rs.db.Transaction(func(tx *gorm.DB) error {
		ingredients := recipe.Ingredients
		recipe.Ingredients = nil
		recipe.ID = id
		if err := tx.Model(&existing).Updates(recipe).Error; err != nil {
			return err
		}

		if ingredients != nil {
			if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeIngredient{}).Error; err != nil {
				return err
			}
			for i := range ingredients {
				ingredients[i].ID = ""
				ingredients[i].RecipeID = id
				if err := tx.Create(&ingredients[i]).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// DeleteRecipe deactivates a recipe instead of removing it, keeping the
// costing history intact.
func (rs *RecipeService) DeleteRecipe(id string) error {
	result := rs.db.Model(&models.Recipe{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("recipe not found")
	}
	return nil
}

// RecostRecipe recalculates and persists one recipe's costs
func (rs *RecipeService) RecostRecipe(id string, saveSnapshot bool) (*models.Recipe, error) {
	recipe, err := rs.GetRecipeByID(id)
	if err != nil {
		return nil, err
	}
	if err := rs.costing.UpdateRecipeCosts(recipe, saveSnapshot); err != nil {
		return nil, err
	}
	return rs.GetRecipeByID(id)
}

// GetCostSnapshots returns the cost history of a recipe, newest first
func (rs *RecipeService) GetCostSnapshots(recipeID string, limit int) ([]models.RecipeCostSnapshot, error) {
	if limit <= 0 {
		limit = 30
	}
	var snapshots []models.RecipeCostSnapshot
	err := rs.db.Where("recipe_id = ?", recipeID).
		Order("snapshot_date DESC").
		Limit(limit).
		Find(&snapshots).Error
	return snapshots, err
}

// CreateVersion closes the current recipe version and opens a new one
func (rs *RecipeService) CreateVersion(recipeID string, effectiveDate time.Time, notes string) (*models.RecipeVersion, error) {
	var recipe models.Recipe
	if err := rs.db.Where("id = ?", recipeID).First(&recipe).Error; err != nil {
		return nil, fmt.Errorf("recipe not found")
	}

	effectiveDate = truncateToDay(effectiveDate)
	var version models.RecipeVersion

	err := rs.db.Transaction(func(tx *gorm.DB) error {
		var latest models.RecipeVersion
		nextNumber := 1
		err := tx.Where("recipe_id = ?", recipeID).
			Order("effective_date DESC").
			First(&latest).Error
		if err == nil {
			if n, parseErr := strconv.Atoi(latest.VersionNumber); parseErr == nil {
				nextNumber = n + 1
			}
			if latest.EndDate == nil {
				endDate := effectiveDate.AddDate(0, 0, -1)
				if err := tx.Model(&latest).Update("end_date", endDate).Error; err != nil {
					return err
				}
			}
		} else if err != gorm.ErrRecordNotFound {
			return err
		}

		version = models.RecipeVersion{
			RecipeID:      recipeID,
			VersionNumber: strconv.Itoa(nextNumber),
			EffectiveDate: effectiveDate,
			ChangeNotes:   notes,
		}
		return tx.Create(&version).Error
	})
	if err != nil {
		return nil, err
	}
	return &version, nil
}
