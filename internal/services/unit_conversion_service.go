package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bistrotrack/server/internal/models"
	"bistrotrack/server/internal/utils"
)

// UnitConversionService resolves conversion factors between purchase and
// recipe units. Rules are looked up product-specific first, then
// category-specific, then generic; a reverse rule is inverted, and a small
// metric table covers the common kitchen pairs when the database has no rule.
type UnitConversionService struct {
	db       *gorm.DB
	redis    *utils.RedisClient
	cacheTTL time.Duration
}

// NewUnitConversionService creates the conversion resolver
func NewUnitConversionService(db *gorm.DB) *UnitConversionService {
	return &UnitConversionService{
		db:       db,
		cacheTTL: 5 * time.Minute,
	}
}

// SetRedisClient enables factor caching
func (s *UnitConversionService) SetRedisClient(redis *utils.RedisClient) {
	s.redis = redis
}

// ConversionFactor returns the factor that converts fromUnitID quantities
// into toUnitID quantities, scoped to a product or category when given.
func (s *UnitConversionService) ConversionFactor(fromUnitID, toUnitID string, productID, categoryID *string) (decimal.Decimal, error) {
	if fromUnitID == toUnitID {
		return decimal.NewFromInt(1), nil
	}

	cacheKey := s.factorCacheKey(fromUnitID, toUnitID, productID, categoryID)
	if s.redis != nil {
		if raw, err := s.redis.Get(cacheKey); err == nil {
			if factor, err := decimal.NewFromString(raw); err == nil {
				return factor, nil
			}
		}
	}

	var conversion models.UnitConversion
	found := false

	// Product-specific rule wins
	if productID != nil {
		err := s.db.Where("from_unit_id = ? AND to_unit_id = ? AND product_id = ? AND is_active = ?",
			fromUnitID, toUnitID, *productID, true).
			Order("priority ASC").
			First(&conversion).Error
		found = err == nil
	}

	// Then category-specific
	if !found && categoryID != nil {
		err := s.db.Where("from_unit_id = ? AND to_unit_id = ? AND category_id = ? AND is_active = ?",
			fromUnitID, toUnitID, *categoryID, true).
			Order("priority ASC").
			First(&conversion).Error
		found = err == nil
	}

	// Then the generic rule
	if !found {
		err := s.db.Where("from_unit_id = ? AND to_unit_id = ? AND product_id IS NULL AND category_id IS NULL AND is_active = ?",
			fromUnitID, toUnitID, true).
			Order("priority ASC").
			First(&conversion).Error
		found = err == nil
	}

	if found {
		s.cacheFactor(cacheKey, conversion.ConversionFactor)
		return conversion.ConversionFactor, nil
	}

	// Try the reverse rule and invert it
	var reverse models.UnitConversion
	err := s.db.Where("from_unit_id = ? AND to_unit_id = ? AND is_active = ?", toUnitID, fromUnitID, true).
		Order("priority ASC").
		First(&reverse).Error
	if err == nil && reverse.ConversionFactor.IsPositive() {
		factor := decimal.NewFromInt(1).Div(reverse.ConversionFactor)
		s.cacheFactor(cacheKey, factor)
		return factor, nil
	}

	// Metric fallbacks by unit name
	if factor, ok := s.metricFallback(fromUnitID, toUnitID); ok {
		log.Printf("📏 Using metric fallback conversion %s -> %s: %s", fromUnitID, toUnitID, factor)
		s.cacheFactor(cacheKey, factor)
		return factor, nil
	}

	return decimal.Zero, fmt.Errorf("no conversion rule from unit %s to unit %s", fromUnitID, toUnitID)
}

// ConvertQuantity converts a quantity between units
func (s *UnitConversionService) ConvertQuantity(quantity decimal.Decimal, fromUnitID, toUnitID string, productID, categoryID *string) (decimal.Decimal, error) {
	factor, err := s.ConversionFactor(fromUnitID, toUnitID, productID, categoryID)
	if err != nil {
		return decimal.Zero, err
	}
	return quantity.Mul(factor), nil
}

// metricFallbacks cover the common kitchen pairs by unit name
var metricFallbacks = map[[2]string]decimal.Decimal{
	{"kg", "g"}:    decimal.NewFromInt(1000),
	{"g", "kg"}:    decimal.RequireFromString("0.001"),
	{"l", "ml"}:    decimal.NewFromInt(1000),
	{"ml", "l"}:    decimal.RequireFromString("0.001"),
	{"cl", "ml"}:   decimal.NewFromInt(10),
	{"ml", "cl"}:   decimal.RequireFromString("0.1"),
	{"unit", "pc"}: decimal.NewFromInt(1),
	{"pc", "unit"}: decimal.NewFromInt(1),
}

func (s *UnitConversionService) metricFallback(fromUnitID, toUnitID string) (decimal.Decimal, bool) {
	var from, to models.UnitOfMeasure
	if err := s.db.First(&from, "id = ?", fromUnitID).Error; err != nil {
		return decimal.Zero, false
	}
	if err := s.db.First(&to, "id = ?", toUnitID).Error; err != nil {
		return decimal.Zero, false
	}
	return MetricFallbackFactor(from.Name, to.Name)
}

// MetricFallbackFactor resolves a conversion by unit names alone
func MetricFallbackFactor(fromName, toName string) (decimal.Decimal, bool) {
	factor, ok := metricFallbacks[[2]string{strings.ToLower(fromName), strings.ToLower(toName)}]
	return factor, ok
}

func (s *UnitConversionService) factorCacheKey(fromUnitID, toUnitID string, productID, categoryID *string) string {
	p, c := "none", "none"
	if productID != nil {
		p = *productID
	}
	if categoryID != nil {
		c = *categoryID
	}
	return fmt.Sprintf("unit_conversion:%s:%s:%s:%s", fromUnitID, toUnitID, p, c)
}

func (s *UnitConversionService) cacheFactor(key string, factor decimal.Decimal) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Set(key, factor.String(), s.cacheTTL); err != nil {
		log.Printf("⚠️ Failed to cache conversion factor: %v", err)
	}
}
