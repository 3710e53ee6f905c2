package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"bistrotrack/server/internal/models"
	"bistrotrack/server/internal/services"
)

// RecipeController manages API endpoints for recipes and their costing
type RecipeController struct {
	service *services.RecipeService
	costing *services.RecipeCostingService
}

// NewRecipeController creates a new recipe controller
func NewRecipeController(service *services.RecipeService, costing *services.RecipeCostingService) *RecipeController {
	return &RecipeController{service: service, costing: costing}
}

// GetRecipes returns the recipe book
// GET /api/v1/recipes?search=&category=&include_inactive=false
func (rc *RecipeController) GetRecipes(c *gin.Context) {
	if rc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Recipe service unavailable",
		})
		return
	}

	includeInactive := c.DefaultQuery("include_inactive", "false") == "true"
	recipes, err := rc.service.GetAllRecipes(c.Query("search"), c.Query("category"), !includeInactive)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load recipes",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recipes": recipes,
		"count":   len(recipes),
	})
}

// GetRecipe returns one recipe by ID
// GET /api/v1/recipes/:id
func (rc *RecipeController) GetRecipe(c *gin.Context) {
	if rc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Recipe service unavailable",
		})
		return
	}

	recipeID := c.Param("id")
	if recipeID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Recipe ID is required",
		})
		return
	}

	recipe, err := rc.service.GetRecipeByID(recipeID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Recipe not found",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, recipe)
}

// CreateRecipe creates a new recipe with its ingredient lines
// POST /api/v1/recipes
func (rc *RecipeController) CreateRecipe(c *gin.Context) {
	if rc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Recipe service unavailable",
		})
		return
	}

	var recipe models.Recipe
	if err := c.ShouldBindJSON(&recipe); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request parameters",
			"details": err.Error(),
		})
		return
	}

	if err := rc.service.CreateRecipe(&recipe); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to create recipe",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, recipe)
}

// UpdateRecipe updates a recipe, replacing its ingredient lines when provided
// PUT /api/v1/recipes/:id
func (rc *RecipeController) UpdateRecipe(c *gin.Context) {
	if rc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Recipe service unavailable",
		})
		return
	}

	recipeID := c.Param("id")
	if recipeID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Recipe ID is required",
		})
		return
	}

	var recipe models.Recipe
	if err := c.ShouldBindJSON(&recipe); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request parameters",
			"details": err.Error(),
		})
		return
	}

	if err := rc.service.UpdateRecipe(recipeID, &recipe); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to update recipe",
			"details": err.Error(),
		})
		return
	}

	updated, err := rc.service.GetRecipeByID(recipeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reload recipe",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteRecipe deactivates a recipe (soft delete)
// DELETE /api/v1/recipes/:id
func (rc *RecipeController) DeleteRecipe(c *gin.Context) {
	if rc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Recipe service unavailable",
		})
		return
	}

	if err := rc.service.DeleteRecipe(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Failed to delete recipe",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Recipe deactivated",
	})
}

// RecostRecipe recalculates a recipe's cost from current ingredient prices
// POST /api/v1/recipes/:id/recost?snapshot=true
func (rc *RecipeController) RecostRecipe(c *gin.Context) {
	if rc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Recipe service unavailable",
		})
		return
	}

	saveSnapshot := c.DefaultQuery("snapshot", "true") == "true"
	recipe, err := rc.service.RecostRecipe(c.Param("id"), saveSnapshot)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to recost recipe",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, recipe)
}

// GetRecipeCost returns the dual (conservative + estimated) cost breakdown
// without persisting anything
// GET /api/v1/recipes/:id/cost?as_of=YYYY-MM-DD&strategy=current_cost
func (rc *RecipeController) GetRecipeCost(c *gin.Context) {
	if rc.service == nil || rc.costing == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Recipe costing service unavailable",
		})
		return
	}

	recipe, err := rc.service.GetRecipeByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Recipe not found",
			"details": err.Error(),
		})
		return
	}

	asOf := time.Now().UTC()
	if raw := c.Query("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "as_of must be YYYY-MM-DD",
			})
			return
		}
		asOf = parsed
	}

	if strategy := c.Query("strategy"); strategy != "" {
		c.JSON(http.StatusOK, gin.H{
			"recipe_id": recipe.ID,
			"strategy":  strategy,
			"cost":      rc.costing.CalculateWithMissingIngredients(recipe, asOf, strategy),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recipe_id": recipe.ID,
		"cost":      rc.costing.CalculateDualRecipeCost(recipe, asOf),
	})
}

// RecostAll recalculates every active recipe
// POST /api/v1/recipes/recost-all?snapshot=true
func (rc *RecipeController) RecostAll(c *gin.Context) {
	if rc.costing == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Recipe costing service unavailable",
		})
		return
	}

	saveSnapshot := c.DefaultQuery("snapshot", "true") == "true"
	result := rc.costing.BulkUpdateRecipeCosts(saveSnapshot)
	c.JSON(http.StatusOK, result)
}

// GetEfficiencyRanking ranks active priced recipes by profit margin
// GET /api/v1/recipes/efficiency?limit=20
func (rc *RecipeController) GetEfficiencyRanking(c *gin.Context) {
	if rc.costing == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Recipe costing service unavailable",
		})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	ranking := rc.costing.RecipesByCostEfficiency(limit)
	c.JSON(http.StatusOK, gin.H{
		"recipes": ranking,
		"count":   len(ranking),
	})
}

// GetCostSnapshots returns the costing history of a recipe
// GET /api/v1/recipes/:id/snapshots?limit=30
func (rc *RecipeController) GetCostSnapshots(c *gin.Context) {
	if rc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Recipe service unavailable",
		})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))
	snapshots, err := rc.service.GetCostSnapshots(c.Param("id"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load cost snapshots",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"snapshots": snapshots,
		"count":     len(snapshots),
	})
}

// CreateVersionRequest is the payload for opening a new recipe version
type CreateVersionRequest struct {
	EffectiveDate string `json:"effective_date"` // YYYY-MM-DD, today when empty
	Notes         string `json:"notes"`
}

// CreateVersion opens a new recipe version and closes the previous one
// POST /api/v1/recipes/:id/versions
func (rc *RecipeController) CreateVersion(c *gin.Context) {
	if rc.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Recipe service unavailable",
		})
		return
	}

	var req CreateVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request parameters",
			"details": err.Error(),
		})
		return
	}

	effectiveDate := time.Now().UTC()
	if req.EffectiveDate != "" {
		parsed, err := time.Parse("2006-01-02", req.EffectiveDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "effective_date must be YYYY-MM-DD",
			})
			return
		}
		effectiveDate = parsed
	}

	version, err := rc.service.CreateVersion(c.Param("id"), effectiveDate, req.Notes)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to create recipe version",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, version)
}
