package services

import (
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bistrotrack/server/internal/models"
	"bistrotrack/server/internal/utils"
)

// ProductCostingService values ingredients from their purchase history using
// several methods: recency-weighted average, FIFO, LIFO, moving average and
// standard cost. The weighted average adapts its decay to how often the
// product is bought.
type ProductCostingService struct {
	db    *gorm.DB
	redis *utils.RedisClient

	lookbackDays     int
	standardCostDays int
	cacheTTL         time.Duration

	mu        sync.RWMutex
	costCache map[string]decimal.Decimal
}

// NewProductCostingService creates the costing service with default windows
func NewProductCostingService(db *gorm.DB) *ProductCostingService {
	return &ProductCostingService{
		db:               db,
		lookbackDays:     90,
		standardCostDays: 180,
		cacheTTL:         time.Hour,
		costCache:        make(map[string]decimal.Decimal),
	}
}

// SetRedisClient enables the shared cost cache
func (s *ProductCostingService) SetRedisClient(redis *utils.RedisClient) {
	s.redis = redis
}

// SetLookbackDays overrides the weighted-average purchase window
func (s *ProductCostingService) SetLookbackDays(days int) {
	if days > 0 {
		s.lookbackDays = days
	}
}

// SetStandardCostDays overrides the standard-cost window
func (s *ProductCostingService) SetStandardCostDays(days int) {
	if days > 0 {
		s.standardCostDays = days
	}
}

// SetCacheTTL overrides the Redis TTL for cost lookups
func (s *ProductCostingService) SetCacheTTL(ttl time.Duration) {
	if ttl > 0 {
		s.cacheTTL = ttl
	}
}

// CostComparison holds the same product valued by every method
type CostComparison struct {
	CurrentWeighted decimal.Decimal `json:"current_weighted"`
	FIFO            decimal.Decimal `json:"fifo"`
	LIFO            decimal.Decimal `json:"lifo"`
	MovingAverage3  decimal.Decimal `json:"moving_average_3"`
	MovingAverage6  decimal.Decimal `json:"moving_average_6"`
	Standard        decimal.Decimal `json:"standard"`
	With30pMarkup   decimal.Decimal `json:"with_30p_markup"`
}

// CostTrendPoint is one purchase on the cost timeline
type CostTrendPoint struct {
	Date     time.Time       `json:"date"`
	Cost     decimal.Decimal `json:"cost"`
	Quantity decimal.Decimal `json:"quantity"`
}

// CostTrendAnalysis summarizes how a product's cost moved over a window
type CostTrendAnalysis struct {
	Trend            string          `json:"trend"` // increasing / decreasing / stable
	ChangePercentage decimal.Decimal `json:"change_percentage"`
	MinCost          decimal.Decimal `json:"min_cost"`
	MaxCost          decimal.Decimal `json:"max_cost"`
	AvgCost          decimal.Decimal `json:"avg_cost"`
	Volatility       decimal.Decimal `json:"volatility"` // population std dev
	PurchaseCount    int             `json:"purchase_count"`
	TotalQuantity    decimal.Decimal `json:"total_quantity"`
}

// RecentPurchase is one line of the cost analysis report
type RecentPurchase struct {
	Date          time.Time       `json:"date"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	UnitOfMeasure string          `json:"unit_of_measure"`
}

// CostAnalysisReport combines every costing view of a product
type CostAnalysisReport struct {
	ProductName           string            `json:"product_name"`
	AnalysisDate          time.Time         `json:"analysis_date"`
	CostComparison        CostComparison    `json:"cost_comparison"`
	TrendAnalysis         CostTrendAnalysis `json:"trend_analysis"`
	RecentPurchases       []RecentPurchase  `json:"recent_purchases"`
	RecommendedCostMethod string            `json:"recommended_cost_method"`
}

// CurrentCost returns the recency-weighted average cost of a product in
// recipe units as of the given instant.
func (s *ProductCostingService) CurrentCost(product *models.Product, asOf time.Time) decimal.Decimal {
	cacheKey := s.cacheKey(product.ID, asOf, "current")
	if cost, ok := s.cachedCost(cacheKey); ok {
		return cost
	}

	lookbackDate := asOf.AddDate(0, 0, -s.lookbackDays)

	var history []models.ProductCostHistory
	s.db.Where("product_id = ? AND purchase_date >= ? AND purchase_date <= ? AND is_active = ?",
		product.ID, lookbackDate, asOf, true).
		Order("purchase_date DESC").
		Find(&history)

	var cost decimal.Decimal
	switch len(history) {
	case 0:
		cost = s.fallbackCost(product)
	case 1:
		cost = history[0].UnitCostInRecipeUnits
	default:
		cost = WeightedAverageCost(history, asOf)
	}

	s.storeCost(cacheKey, cost)
	return cost
}

// FIFOCost values the product at its oldest active purchase on or before asOf
func (s *ProductCostingService) FIFOCost(product *models.Product, asOf time.Time) decimal.Decimal {
	cacheKey := s.cacheKey(product.ID, asOf, "fifo")
	if cost, ok := s.cachedCost(cacheKey); ok {
		return cost
	}

	var record models.ProductCostHistory
	err := s.db.Where("product_id = ? AND purchase_date <= ? AND is_active = ?", product.ID, asOf, true).
		Order("purchase_date ASC").
		First(&record).Error

	var cost decimal.Decimal
	if err == nil {
		cost = record.UnitCostInRecipeUnits
	} else {
		cost = s.fallbackCost(product)
	}

	s.storeCost(cacheKey, cost)
	return cost
}

// LIFOCost values the product at its newest active purchase on or before asOf
func (s *ProductCostingService) LIFOCost(product *models.Product, asOf time.Time) decimal.Decimal {
	cacheKey := s.cacheKey(product.ID, asOf, "lifo")
	if cost, ok := s.cachedCost(cacheKey); ok {
		return cost
	}

	var record models.ProductCostHistory
	err := s.db.Where("product_id = ? AND purchase_date <= ? AND is_active = ?", product.ID, asOf, true).
		Order("purchase_date DESC").
		First(&record).Error

	var cost decimal.Decimal
	if err == nil {
		cost = record.UnitCostInRecipeUnits
	} else {
		cost = s.fallbackCost(product)
	}

	s.storeCost(cacheKey, cost)
	return cost
}

// MovingAverageCost is the simple mean of the last N purchases
func (s *ProductCostingService) MovingAverageCost(product *models.Product, asOf time.Time, periods int) decimal.Decimal {
	cacheKey := s.cacheKey(product.ID, asOf, fmt.Sprintf("ma_%d", periods))
	if cost, ok := s.cachedCost(cacheKey); ok {
		return cost
	}

	var records []models.ProductCostHistory
	s.db.Where("product_id = ? AND purchase_date <= ? AND is_active = ?", product.ID, asOf, true).
		Order("purchase_date DESC").
		Limit(periods).
		Find(&records)

	if len(records) == 0 {
		return s.CurrentCost(product, asOf)
	}

	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.UnitCostInRecipeUnits)
	}
	cost := total.Div(decimal.NewFromInt(int64(len(records))))

	s.storeCost(cacheKey, cost)
	return cost
}

// StandardCost is the mean cost over the standard window (180 days)
func (s *ProductCostingService) StandardCost(product *models.Product, asOf time.Time) decimal.Decimal {
	cacheKey := s.cacheKey(product.ID, asOf, "standard")
	if cost, ok := s.cachedCost(cacheKey); ok {
		return cost
	}

	startDate := asOf.AddDate(0, 0, -s.standardCostDays)

	var records []models.ProductCostHistory
	s.db.Where("product_id = ? AND purchase_date >= ? AND purchase_date <= ? AND is_active = ?",
		product.ID, startDate, asOf, true).
		Find(&records)

	var cost decimal.Decimal
	if len(records) > 0 {
		total := decimal.Zero
		for _, r := range records {
			total = total.Add(r.UnitCostInRecipeUnits)
		}
		cost = total.Div(decimal.NewFromInt(int64(len(records))))
	} else {
		cost = s.fallbackCost(product)
	}

	s.storeCost(cacheKey, cost)
	return cost
}

// CostWithMarkup adds a percentage markup to the weighted average cost
func (s *ProductCostingService) CostWithMarkup(product *models.Product, markupPercentage decimal.Decimal, asOf time.Time) decimal.Decimal {
	baseCost := s.CurrentCost(product, asOf)
	markup := baseCost.Mul(markupPercentage).Div(decimal.NewFromInt(100))
	return baseCost.Add(markup)
}

// Comparison values the product with every method side by side
func (s *ProductCostingService) Comparison(product *models.Product, asOf time.Time) CostComparison {
	return CostComparison{
		CurrentWeighted: s.CurrentCost(product, asOf),
		FIFO:            s.FIFOCost(product, asOf),
		LIFO:            s.LIFOCost(product, asOf),
		MovingAverage3:  s.MovingAverageCost(product, asOf, 3),
		MovingAverage6:  s.MovingAverageCost(product, asOf, 6),
		Standard:        s.StandardCost(product, asOf),
		With30pMarkup:   s.CostWithMarkup(product, decimal.NewFromInt(30), asOf),
	}
}

// CostTrend lists every purchase of a product over the last N days
func (s *ProductCostingService) CostTrend(product *models.Product, days int) []CostTrendPoint {
	endDate := time.Now().UTC()
	startDate := endDate.AddDate(0, 0, -days)

	var records []models.ProductCostHistory
	s.db.Where("product_id = ? AND purchase_date >= ? AND purchase_date <= ? AND is_active = ?",
		product.ID, startDate, endDate, true).
		Order("purchase_date ASC").
		Find(&records)

	points := make([]CostTrendPoint, 0, len(records))
	for _, r := range records {
		points = append(points, CostTrendPoint{
			Date:     r.PurchaseDate,
			Cost:     r.UnitCostInRecipeUnits,
			Quantity: r.RecipeQuantity,
		})
	}
	return points
}

// DetailedCostTrend computes min/max/avg, volatility and a trend
// classification over the window.
func (s *ProductCostingService) DetailedCostTrend(product *models.Product, daysBack int) CostTrendAnalysis {
	endDate := time.Now().UTC()
	startDate := endDate.AddDate(0, 0, -daysBack)

	var records []models.ProductCostHistory
	s.db.Where("product_id = ? AND purchase_date >= ? AND purchase_date <= ? AND is_active = ?",
		product.ID, startDate, endDate, true).
		Order("purchase_date ASC").
		Find(&records)

	return AnalyzeCostTrend(records)
}

// AnalysisReport builds the full costing report for a product
func (s *ProductCostingService) AnalysisReport(product *models.Product, asOf time.Time) CostAnalysisReport {
	comparison := s.Comparison(product, asOf)
	trend := s.DetailedCostTrend(product, 90)

	var recent []models.ProductCostHistory
	s.db.Preload("UnitOfRecipe").
		Where("product_id = ? AND purchase_date <= ? AND is_active = ?", product.ID, asOf, true).
		Order("purchase_date DESC").
		Limit(10).
		Find(&recent)

	purchases := make([]RecentPurchase, 0, len(recent))
	for _, p := range recent {
		unitName := ""
		if p.UnitOfRecipe != nil {
			unitName = p.UnitOfRecipe.Name
		}
		purchases = append(purchases, RecentPurchase{
			Date:          p.PurchaseDate,
			Quantity:      p.RecipeQuantity,
			UnitCost:      p.UnitCostInRecipeUnits,
			TotalCost:     p.TotalAmount,
			UnitOfMeasure: unitName,
		})
	}

	return CostAnalysisReport{
		ProductName:           product.Name,
		AnalysisDate:          asOf,
		CostComparison:        comparison,
		TrendAnalysis:         trend,
		RecentPurchases:       purchases,
		RecommendedCostMethod: RecommendCostMethod(trend),
	}
}

// RebuildResult reports how many history rows a rebuild touched
type RebuildResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// RebuildCostHistory recreates ProductCostHistory rows from consolidated
// purchases starting at the given date, converting purchase quantities into
// the unit each product's recipes use.
func (s *ProductCostingService) RebuildCostHistory(since time.Time, conversions *UnitConversionService) (RebuildResult, error) {
	if since.IsZero() {
		since = time.Now().UTC().AddDate(0, 0, -s.lookbackDays)
	}

	var purchases []models.ConsolidatedPurchase
	if err := s.db.Preload("Product").Preload("Product.SalesCategory").Preload("UnitOfPurchase").
		Where("purchase_date >= ?", since).
		Find(&purchases).Error; err != nil {
		return RebuildResult{}, err
	}

	result := RebuildResult{}

	for i := range purchases {
		item := &purchases[i]
		if item.Product == nil {
			continue
		}

		productType, err := s.getOrCreateProductType(item.Product)
		if err != nil {
			return result, err
		}

		// Recipes consume the product in its own unit of measure
		recipeUnitID := item.Product.UnitOfMeasureID

		conversionFactor := decimal.NewFromInt(1)
		if item.UnitOfPurchaseID != recipeUnitID && conversions != nil {
			factor, err := conversions.ConversionFactor(item.UnitOfPurchaseID, recipeUnitID, &item.ProductID, nil)
			if err != nil {
				log.Printf("⚠️ No conversion factor for %s: %v", item.Product.Name, err)
			} else {
				conversionFactor = factor
			}
		}

		recipeQuantity := item.QuantityPurchased.Mul(conversionFactor)
		unitCost := decimal.Zero
		if recipeQuantity.IsPositive() {
			unitCost = item.TotalCost.Div(recipeQuantity)
		}

		var history models.ProductCostHistory
		err = s.db.Where("product_id = ? AND purchase_date = ?", item.ProductID, item.PurchaseDate).
			First(&history).Error

		if err == gorm.ErrRecordNotFound {
			history = models.ProductCostHistory{
				ProductID:              item.ProductID,
				PurchaseDate:           item.PurchaseDate,
				QuantityOrdered:        item.QuantityPurchased,
				UnitOfPurchaseID:       item.UnitOfPurchaseID,
				TotalAmount:            item.TotalCost,
				UnitOfRecipeID:         recipeUnitID,
				RecipeConversionFactor: conversionFactor,
				RecipeQuantity:         recipeQuantity,
				UnitCostInRecipeUnits:  unitCost,
				ProductCategoryID:      productType.ID,
				WeightFactor:           decimal.NewFromInt(1),
				IsActive:               true,
			}
			if err := s.db.Create(&history).Error; err != nil {
				return result, err
			}
			result.Created++
		} else if err == nil {
			history.QuantityOrdered = item.QuantityPurchased
			history.UnitOfPurchaseID = item.UnitOfPurchaseID
			history.TotalAmount = item.TotalCost
			history.UnitOfRecipeID = recipeUnitID
			history.RecipeConversionFactor = conversionFactor
			history.RecipeQuantity = recipeQuantity
			history.UnitCostInRecipeUnits = unitCost
			history.ProductCategoryID = productType.ID
			if err := s.db.Save(&history).Error; err != nil {
				return result, err
			}
			result.Updated++
		} else {
			return result, err
		}
	}

	s.ClearCache()

	log.Printf("📊 Cost history rebuild completed: %d created, %d updated", result.Created, result.Updated)
	return result, nil
}

// ClearCache drops every cached cost, in-process and in Redis
func (s *ProductCostingService) ClearCache() {
	s.mu.Lock()
	s.costCache = make(map[string]decimal.Decimal)
	s.mu.Unlock()

	if s.redis != nil {
		if err := s.redis.DeleteByPattern("product_cost:*"); err != nil {
			log.Printf("⚠️ Failed to clear cost cache in Redis: %v", err)
		}
	}
}

func (s *ProductCostingService) getOrCreateProductType(product *models.Product) (*models.ProductType, error) {
	var productType models.ProductType
	err := s.db.Where("product_id = ?", product.ID).First(&productType).Error
	if err == nil {
		return &productType, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	// Beverages are resold as-is, everything else defaults to a dish
	// ingredient
	typ := models.ProductTypeDish
	if product.SalesCategory != nil {
		switch product.SalesCategory.Name {
		case "Beverages", "beverages", "Drinks", "drinks":
			typ = models.ProductTypeResale
		}
	}

	productType = models.ProductType{
		ProductID:   product.ID,
		CostType:    "raw_material_costs",
		ProductType: typ,
	}
	if err := s.db.Create(&productType).Error; err != nil {
		return nil, err
	}
	return &productType, nil
}

func (s *ProductCostingService) cacheKey(productID string, asOf time.Time, method string) string {
	return fmt.Sprintf("product_cost:%s:%s:%s", productID, asOf.Format("2006-01-02"), method)
}

func (s *ProductCostingService) cachedCost(key string) (decimal.Decimal, bool) {
	s.mu.RLock()
	cost, ok := s.costCache[key]
	s.mu.RUnlock()
	if ok {
		return cost, true
	}

	if s.redis != nil {
		raw, err := s.redis.Get(key)
		if err == nil {
			if cost, err := decimal.NewFromString(raw); err == nil {
				s.mu.Lock()
				s.costCache[key] = cost
				s.mu.Unlock()
				return cost, true
			}
		}
	}

	return decimal.Zero, false
}

func (s *ProductCostingService) storeCost(key string, cost decimal.Decimal) {
	s.mu.Lock()
	s.costCache[key] = cost
	s.mu.Unlock()

	if s.redis != nil {
		if err := s.redis.Set(key, cost.String(), s.cacheTTL); err != nil {
			log.Printf("⚠️ Failed to cache cost in Redis: %v", err)
		}
	}
}

// fallbackCost is used when the lookback window holds no purchases:
// last known history row, then an active market price reference, then
// the product's current cost, then zero.
func (s *ProductCostingService) fallbackCost(product *models.Product) decimal.Decimal {
	var last models.ProductCostHistory
	err := s.db.Where("product_id = ? AND is_active = ?", product.ID, true).
		Order("purchase_date DESC").
		First(&last).Error
	if err == nil {
		return last.UnitCostInRecipeUnits
	}

	var market models.MarketPriceReference
	err = s.db.Where("product_id = ? AND is_active = ?", product.ID, true).
		Order("effective_date DESC").
		First(&market).Error
	if err == nil && market.PricePerUnit.IsPositive() {
		log.Printf("⚠️ Using market price reference for %s (no cost history available)", product.Name)
		return market.PricePerUnit
	}

	if product.CurrentCostPerUnit.IsPositive() {
		log.Printf("⚠️ Using current_cost_per_unit for %s (no cost history available)", product.Name)
		return product.CurrentCostPerUnit
	}

	log.Printf("⚠️ No cost information available for product %s", product.Name)
	return decimal.Zero
}

// --- Pure calculation layer -------------------------------------------------

// WeightedAverageCost computes the recency-weighted average over history
// rows sorted newest first. The weighting scheme depends on how many
// purchases the window holds: few purchases decay linearly, a moderate
// number decays exponentially with a half-life matched to the purchase
// cadence, and a long history adds a recency bonus and volume factor.
func WeightedAverageCost(history []models.ProductCostHistory, asOf time.Time) decimal.Decimal {
	switch n := len(history); {
	case n == 0:
		return decimal.Zero
	case n == 1:
		return history[0].UnitCostInRecipeUnits
	case n <= 3:
		return linearWeightedCost(history, asOf)
	case n <= 8:
		return adaptiveExponentialCost(history, asOf)
	default:
		return volumeAwareExponentialCost(history, asOf)
	}
}

// linearWeightedCost weights each purchase by (maxDays-daysAgo+1)/(maxDays+1)
func linearWeightedCost(history []models.ProductCostHistory, asOf time.Time) decimal.Decimal {
	maxDays := 0
	for _, r := range history {
		if d := daysBetween(r.PurchaseDate, asOf); d > maxDays {
			maxDays = d
		}
	}

	totalWeighted := decimal.Zero
	totalWeight := decimal.Zero
	for _, r := range history {
		daysAgo := daysBetween(r.PurchaseDate, asOf)
		weight := decimal.NewFromInt(int64(maxDays - daysAgo + 1)).
			Div(decimal.NewFromInt(int64(maxDays + 1)))
		totalWeighted = totalWeighted.Add(r.UnitCostInRecipeUnits.Mul(weight))
		totalWeight = totalWeight.Add(weight)
	}

	if totalWeight.IsPositive() {
		return totalWeighted.Div(totalWeight)
	}
	return simpleAverageCost(history)
}

// adaptiveExponentialCost decays purchases by 2^(-daysAgo/halfLife) where the
// half-life follows the purchase cadence: weekly buyers get 7 days, monthly
// buyers 25, rare buyers 35.
func adaptiveExponentialCost(history []models.ProductCostHistory, asOf time.Time) decimal.Decimal {
	oldest := history[len(history)-1]
	dateRange := daysBetween(oldest.PurchaseDate, asOf)
	avgDaysBetween := float64(dateRange) / float64(len(history)-1)

	var halfLife float64
	switch {
	case avgDaysBetween <= 7:
		halfLife = 7
	case avgDaysBetween <= 15:
		halfLife = 15
	case avgDaysBetween <= 30:
		halfLife = 25
	default:
		halfLife = 35
	}

	limit := len(history)
	if limit > 10 {
		limit = 10
	}

	totalWeighted := decimal.Zero
	totalWeight := decimal.Zero
	for _, r := range history[:limit] {
		daysAgo := daysBetween(r.PurchaseDate, asOf)
		weight := decimal.NewFromFloat(math.Exp2(-float64(daysAgo) / halfLife))
		totalWeighted = totalWeighted.Add(r.UnitCostInRecipeUnits.Mul(weight))
		totalWeight = totalWeight.Add(weight)
	}

	if totalWeight.IsPositive() {
		return totalWeighted.Div(totalWeight)
	}
	return simpleAverageCost(history)
}

// volumeAwareExponentialCost handles long histories: exponential decay with
// a fixed 20-day half-life, a 1.5^-i bonus for the most recent rows, and a
// small boost for high-volume purchases (capped at 1.2).
func volumeAwareExponentialCost(history []models.ProductCostHistory, asOf time.Time) decimal.Decimal {
	limit := len(history)
	if limit > 15 {
		limit = 15
	}

	totalWeighted := decimal.Zero
	totalWeight := decimal.Zero
	for i, r := range history[:limit] {
		daysAgo := daysBetween(r.PurchaseDate, asOf)

		baseWeight := math.Exp2(-float64(daysAgo) / 20)
		recencyBonus := math.Pow(1.5, -float64(i)) // i=0 is the newest row

		volumeFactor := 1.0
		if r.RecipeQuantity.IsPositive() {
			qty, _ := r.RecipeQuantity.Float64()
			volumeFactor = math.Min(1.2, 1.0+qty/100)
		}

		weight := decimal.NewFromFloat(baseWeight * recencyBonus * volumeFactor)
		totalWeighted = totalWeighted.Add(r.UnitCostInRecipeUnits.Mul(weight))
		totalWeight = totalWeight.Add(weight)
	}

	if totalWeight.IsPositive() {
		return totalWeighted.Div(totalWeight)
	}
	return simpleAverageCost(history)
}

func simpleAverageCost(history []models.ProductCostHistory) decimal.Decimal {
	if len(history) == 0 {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, r := range history {
		total = total.Add(r.UnitCostInRecipeUnits)
	}
	return total.Div(decimal.NewFromInt(int64(len(history))))
}

// AnalyzeCostTrend computes statistics over history rows sorted oldest first
func AnalyzeCostTrend(records []models.ProductCostHistory) CostTrendAnalysis {
	if len(records) == 0 {
		return CostTrendAnalysis{Trend: "stable"}
	}

	minCost := records[0].UnitCostInRecipeUnits
	maxCost := records[0].UnitCostInRecipeUnits
	total := decimal.Zero
	totalQuantity := decimal.Zero

	for _, r := range records {
		cost := r.UnitCostInRecipeUnits
		if cost.LessThan(minCost) {
			minCost = cost
		}
		if cost.GreaterThan(maxCost) {
			maxCost = cost
		}
		total = total.Add(cost)
		totalQuantity = totalQuantity.Add(r.RecipeQuantity)
	}

	count := decimal.NewFromInt(int64(len(records)))
	avgCost := total.Div(count)

	// Population standard deviation
	variance := decimal.Zero
	for _, r := range records {
		diff := r.UnitCostInRecipeUnits.Sub(avgCost)
		variance = variance.Add(diff.Mul(diff))
	}
	variance = variance.Div(count)
	varianceF, _ := variance.Float64()
	volatility := decimal.NewFromFloat(math.Sqrt(varianceF))

	trend := "stable"
	changePct := decimal.Zero
	if len(records) >= 2 {
		first := records[0].UnitCostInRecipeUnits
		last := records[len(records)-1].UnitCostInRecipeUnits
		if first.IsPositive() {
			changePct = last.Sub(first).Div(first).Mul(decimal.NewFromInt(100))
		}
		if changePct.GreaterThan(decimal.NewFromInt(5)) {
			trend = "increasing"
		} else if changePct.LessThan(decimal.NewFromInt(-5)) {
			trend = "decreasing"
		}
	}

	return CostTrendAnalysis{
		Trend:            trend,
		ChangePercentage: changePct,
		MinCost:          minCost,
		MaxCost:          maxCost,
		AvgCost:          avgCost,
		Volatility:       volatility,
		PurchaseCount:    len(records),
		TotalQuantity:    totalQuantity,
	}
}

// RecommendCostMethod picks the valuation method that best fits the
// observed volatility and cost drift.
func RecommendCostMethod(trend CostTrendAnalysis) string {
	if trend.Volatility.GreaterThan(decimal.NewFromInt(10)) {
		return "current_weighted" // the adaptive weighting absorbs volatility
	}
	if trend.ChangePercentage.Abs().GreaterThan(decimal.NewFromInt(20)) {
		return "moving_average_6"
	}
	return "current_weighted"
}

// daysBetween counts whole days from a to b
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
