package main

import (
	"encoding/json"
	"log"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"bistrotrack/server/internal/api"
	"bistrotrack/server/internal/config"
	"bistrotrack/server/internal/database"
	"bistrotrack/server/internal/models"
	"bistrotrack/server/internal/services"
	"bistrotrack/server/internal/utils"
)

func main() {
	// Load environment variables from .env when present. Production
	// deployments set them directly, so a missing file is fine.
	if err := godotenv.Load(); err != nil {
		log.Printf("ℹ️ No .env file found, using system environment variables")
	} else {
		log.Printf("✅ Environment variables loaded from .env file")
	}

	cfg := config.Load()

	// Log DATABASE_URL presence without the password
	if cfg.DatabaseURL != "" {
		safeURL := cfg.DatabaseURL
		if idx := strings.Index(safeURL, "@"); idx > 0 {
			if schemeIdx := strings.Index(safeURL, "://"); schemeIdx > 0 {
				safeURL = safeURL[:schemeIdx+3] + "***@" + safeURL[idx+1:]
			}
		}
		log.Printf("📋 DATABASE_URL set: %s", safeURL)
	} else {
		log.Printf("⚠️ DATABASE_URL not set, using default")
	}

	if cfg.KafkaBrokers != "" {
		log.Printf("📡 KAFKA_BROKERS set: %s", cfg.KafkaBrokers)
	} else {
		log.Printf("⚠️ KAFKA_BROKERS not set, POS event ingestion disabled")
	}

	// PostgreSQL
	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Printf("❌ PostgreSQL connection failed: %v", err)
		log.Printf("⚠️ Continuing without database (limited functionality)")
		db = nil
	} else {
		defer database.ClosePostgres(db)

		if err := models.AutoMigrate(db); err != nil {
			log.Printf("❌ Migration failed: %v", err)
			log.Printf("⚠️ Continuing with limited functionality")
		} else {
			log.Println("✅ Database migrations completed")
		}
	}

	// Redis (optional, with Sentinel support)
	redisClient, err := database.ConnectRedis(
		cfg.RedisURL,
		cfg.RedisSentinelAddrs,
		cfg.RedisMasterName,
	)
	var redisUtil *utils.RedisClient
	if err != nil {
		log.Printf("⚠️ Redis connection failed: %v (continuing without Redis)", err)
		redisClient = nil
		redisUtil = nil
	} else {
		redisUtil = utils.NewRedisClient(redisClient)
	}
	defer database.CloseRedis(redisClient)

	// Ingredient valuation engine
	var productCosting *services.ProductCostingService
	if db != nil {
		productCosting = services.NewProductCostingService(db)
		productCosting.SetLookbackDays(cfg.CostLookbackDays)
		productCosting.SetStandardCostDays(cfg.StandardCostDays)
		productCosting.SetCacheTTL(time.Duration(cfg.CostCacheTTLSecs) * time.Second)
		if redisUtil != nil {
			productCosting.SetRedisClient(redisUtil)
		}
		log.Println("✅ Product costing service initialized")
	} else {
		log.Println("⚠️ Product costing service not started: PostgreSQL not available")
	}

	// Unit conversions
	var unitConversions *services.UnitConversionService
	if db != nil {
		unitConversions = services.NewUnitConversionService(db)
		if redisUtil != nil {
			unitConversions.SetRedisClient(redisUtil)
		}
		log.Println("✅ Unit conversion service initialized")
	} else {
		log.Println("⚠️ Unit conversion service not started: PostgreSQL not available")
	}

	// Recipe costing
	var recipeCosting *services.RecipeCostingService
	if db != nil && productCosting != nil {
		recipeCosting = services.NewRecipeCostingService(db, productCosting)
		log.Println("✅ Recipe costing service initialized")
	} else {
		log.Println("⚠️ Recipe costing service not started: required services not available")
	}

	// Daily P&L analytics
	var dailyAnalytics *services.DailyAnalyticsService
	if db != nil && recipeCosting != nil {
		dailyAnalytics = services.NewDailyAnalyticsService(db, recipeCosting, productCosting)
		log.Println("✅ Daily analytics service initialized")
	} else {
		log.Println("⚠️ Daily analytics service not started: required services not available")
	}

	// Cost and revenue analytics
	var costAnalytics *services.CostAnalyticsService
	var revenueAnalytics *services.RevenueAnalyticsService
	if db != nil {
		costAnalytics = services.NewCostAnalyticsService(db)
		revenueAnalytics = services.NewRevenueAnalyticsService(db)
		log.Println("✅ Cost and revenue analytics services initialized")
	} else {
		log.Println("⚠️ Analytics services not started: PostgreSQL not available")
	}

	// Dashboard aggregation with Redis caching
	var dashboardService *services.DashboardService
	if db != nil && revenueAnalytics != nil && costAnalytics != nil {
		dashboardService = services.NewDashboardService(db, revenueAnalytics, costAnalytics)
		if redisUtil != nil {
			dashboardService.SetRedisClient(redisUtil)
		}
		log.Println("✅ Dashboard service initialized")
	} else {
		log.Println("⚠️ Dashboard service not started: required services not available")
	}

	// Entity services
	var productService *services.ProductService
	var recipeService *services.RecipeService
	var salesService *services.SalesService
	var purchaseService *services.PurchaseService
	var consolidationService *services.ConsolidationService
	var importService *services.ImportService
	var exportService *services.ReportExportService
	if db != nil {
		productService = services.NewProductService(db)
		recipeService = services.NewRecipeService(db, recipeCosting)
		consolidationService = services.NewConsolidationService(db)
		salesService = services.NewSalesService(db, consolidationService)
		purchaseService = services.NewPurchaseService(db, productCosting, consolidationService, unitConversions)
		importService = services.NewImportService(db, productCosting, consolidationService, unitConversions)
		exportService = services.NewReportExportService(db)
		log.Println("✅ Entity services initialized")
	} else {
		log.Println("⚠️ Entity services not started: PostgreSQL not available")
	}

	// Kafka publisher for summary-updated events (nil when not configured)
	summaryPublisher := api.NewSummaryEventPublisher(
		cfg.KafkaBrokers, cfg.SummaryEventsTopic,
		cfg.KafkaUsername, cfg.KafkaPassword, cfg.KafkaCACert,
	)
	if summaryPublisher != nil {
		defer summaryPublisher.Close()
		log.Printf("📡 Summary event publisher initialized: topic=%s", cfg.SummaryEventsTopic)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Health check endpoint (before CORS for the platform health probe)
	r.GET("/api/v1/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "BistroTrack Server",
			"version": "1.0.0",
		})
	})

	// Request logging
	r.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		log.Printf("🌐 %s %s - Status: %d - Latency: %v", method, path, status, latency)
	})

	// CORS for the front-office SPA
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	apiGroup := r.Group("/api/v1")

	// Authentication
	var authController *api.AuthController
	if db != nil {
		if err := api.EnsureInitialAdmin(db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			log.Printf("⚠️ Initial admin bootstrap failed: %v", err)
		}
		authController = api.NewAuthController(db, cfg.JWTSecret)
		authGroup := apiGroup.Group("/auth")
		{
			authGroup.POST("/login", authController.Login)
			authGroup.GET("/me", authController.RequireAuth(), authController.Me)
			authGroup.POST("/change-password", authController.RequireAuth(), authController.ChangePassword)
			authGroup.GET("/users", authController.RequireAuth(), authController.ListUsers)
			authGroup.POST("/users", authController.RequireAuth(), authController.CreateUser)
		}
		log.Println("🔐 Auth endpoints enabled: /api/v1/auth/login")
	} else {
		log.Println("⚠️ Auth endpoints not enabled: PostgreSQL not available")
	}

	// Everything below requires a valid token when auth is available
	protected := apiGroup.Group("")
	if authController != nil {
		protected.Use(authController.RequireAuth())
	}

	// Products and dictionaries
	productController := api.NewProductController(productService)
	costingController := api.NewCostingController(productCosting, unitConversions, productService, consolidationService)
	productGroup := protected.Group("/products")
	{
		productGroup.GET("", productController.GetProducts)
		productGroup.GET("/dictionaries", productController.GetDictionaries)
		productGroup.GET("/unit-conversions", productController.GetUnitConversions)
		productGroup.GET("/unit-conversions/factor", costingController.GetConversionFactor)
		productGroup.POST("/unit-conversions", api.RequireWrite(), productController.CreateUnitConversion)
		productGroup.POST("/units", api.RequireWrite(), productController.CreateUnitOfMeasure)
		productGroup.POST("/categories", api.RequireWrite(), productController.CreateCategory)
		productGroup.GET("/:id", productController.GetProduct)
		productGroup.POST("", api.RequireWrite(), productController.CreateProduct)
		productGroup.PUT("/:id", api.RequireWrite(), productController.UpdateProduct)
		productGroup.DELETE("/:id", api.RequireWrite(), productController.DeleteProduct)
		productGroup.GET("/:id/type", productController.GetProductType)
		productGroup.PUT("/:id/type", api.RequireWrite(), productController.SetProductType)
		productGroup.GET("/:id/market-prices", productController.GetMarketPrices)
		productGroup.POST("/:id/market-prices", api.RequireWrite(), productController.CreateMarketPrice)
	}

	// Recipes
	recipeController := api.NewRecipeController(recipeService, recipeCosting)
	recipeGroup := protected.Group("/recipes")
	{
		recipeGroup.GET("", recipeController.GetRecipes)
		recipeGroup.GET("/efficiency", recipeController.GetEfficiencyRanking)
		recipeGroup.POST("/recost-all", api.RequireWrite(), recipeController.RecostAll)
		recipeGroup.GET("/:id", recipeController.GetRecipe)
		recipeGroup.POST("", api.RequireWrite(), recipeController.CreateRecipe)
		recipeGroup.PUT("/:id", api.RequireWrite(), recipeController.UpdateRecipe)
		recipeGroup.DELETE("/:id", api.RequireWrite(), recipeController.DeleteRecipe)
		recipeGroup.POST("/:id/recost", api.RequireWrite(), recipeController.RecostRecipe)
		recipeGroup.GET("/:id/cost", recipeController.GetRecipeCost)
		recipeGroup.GET("/:id/snapshots", recipeController.GetCostSnapshots)
		recipeGroup.POST("/:id/versions", api.RequireWrite(), recipeController.CreateVersion)
	}

	// Sales
	salesController := api.NewSalesController(salesService)
	salesGroup := protected.Group("/sales")
	{
		salesGroup.GET("", salesController.GetSales)
		salesGroup.GET("/consolidated", salesController.GetConsolidatedSales)
		salesGroup.GET("/daily-total", salesController.GetDailyTotal)
		salesGroup.POST("", api.RequireWrite(), salesController.CreateSale)
		salesGroup.DELETE("/:id", api.RequireWrite(), salesController.DeleteSale)
	}

	// Purchases
	purchaseController := api.NewPurchaseController(purchaseService)
	purchaseGroup := protected.Group("/purchases")
	{
		purchaseGroup.GET("", purchaseController.GetPurchases)
		purchaseGroup.GET("/consolidated", purchaseController.GetConsolidatedPurchases)
		purchaseGroup.POST("", api.RequireWrite(), purchaseController.CreatePurchase)
		purchaseGroup.DELETE("/:id", api.RequireWrite(), purchaseController.DeletePurchase)
	}

	// Ingredient valuation
	costingGroup := protected.Group("/costing")
	{
		costingGroup.GET("/products/:id/comparison", costingController.GetCostComparison)
		costingGroup.GET("/products/:id/trend", costingController.GetCostTrend)
		costingGroup.GET("/products/:id/analysis", costingController.GetCostAnalysis)
		costingGroup.GET("/products/:id/markup", costingController.GetCostWithMarkup)
		costingGroup.GET("/consolidations", costingController.GetConsolidationRules)
		costingGroup.POST("/consolidations", api.RequireWrite(), costingController.CreateConsolidationRule)
		costingGroup.POST("/consolidations/run", api.RequireWrite(), costingController.RunConsolidation)
		costingGroup.POST("/rebuild", api.RequireWrite(), costingController.RebuildCostHistory)
	}

	// Analytics and exports
	analyticsController := api.NewAnalyticsController(
		dailyAnalytics, costAnalytics, revenueAnalytics,
		exportService, dashboardService, summaryPublisher,
	)
	analyticsGroup := protected.Group("/analytics")
	{
		analyticsGroup.GET("/daily-summary", analyticsController.GetDailySummary)
		analyticsGroup.POST("/daily-summary/calculate", api.RequireWrite(), analyticsController.CalculateDailySummary)
		analyticsGroup.POST("/daily-summary/calculate-range", api.RequireWrite(), analyticsController.CalculateRangeSummaries)
		analyticsGroup.GET("/sales-by-product", analyticsController.GetSalesByProduct)
		analyticsGroup.GET("/weekly-trends", analyticsController.GetWeeklyTrends)
		analyticsGroup.GET("/performance", analyticsController.GetPerformanceAnalysis)
		analyticsGroup.GET("/monthly-report", analyticsController.GetMonthlyReport)
		analyticsGroup.GET("/payment-methods", analyticsController.GetPaymentMethodAnalysis)

		analyticsGroup.GET("/costs/overview", analyticsController.GetCostOverview)
		analyticsGroup.GET("/costs/food-cost", analyticsController.GetFoodCostAnalysis)
		analyticsGroup.GET("/costs/by-category", analyticsController.GetCostByCategory)
		analyticsGroup.GET("/costs/waste", analyticsController.GetWasteAnalysis)
		analyticsGroup.GET("/costs/alerts", analyticsController.GetCostAlerts)

		analyticsGroup.GET("/revenue/overview", analyticsController.GetRevenueOverview)
		analyticsGroup.GET("/revenue/top-categories", analyticsController.GetTopCategories)
		analyticsGroup.GET("/revenue/top-products", analyticsController.GetTopProducts)
		analyticsGroup.GET("/revenue/growth", analyticsController.GetGrowthAnalysis)
		analyticsGroup.GET("/revenue/day-of-week", analyticsController.GetDayOfWeekRevenue)
		analyticsGroup.GET("/revenue/underperforming", analyticsController.GetUnderperformingAreas)

		analyticsGroup.GET("/export/daily-summaries", analyticsController.ExportDailySummaries)
		analyticsGroup.GET("/export/recipes", analyticsController.ExportRecipeCosts)
	}

	// Dashboard
	dashboardController := api.NewDashboardController(dashboardService)
	dashboardGroup := protected.Group("/dashboard")
	{
		dashboardGroup.GET("", dashboardController.GetDashboard)
		dashboardGroup.POST("/invalidate", api.RequireWrite(), dashboardController.InvalidateDashboard)
		dashboardGroup.GET("/ws-status", dashboardController.GetWSStatus)
	}

	// Spreadsheet imports
	importController := api.NewImportController(importService, dashboardService)
	importGroup := protected.Group("/import")
	{
		importGroup.POST("/workbook", api.RequireWrite(), importController.ImportWorkbook)
		importGroup.POST("/csv", api.RequireWrite(), importController.ImportCSV)
	}

	// WebSocket hub for live dashboard updates
	go api.DashboardHub.Run()
	log.Println("📱 WebSocket hub started for dashboard clients")
	apiGroup.GET("/ws", api.ServeWS)

	// Kafka consumer for POS sale events
	if cfg.KafkaBrokers != "" && salesService != nil && dailyAnalytics != nil {
		log.Printf("📡 Kafka sales consumer: using brokers: %s", cfg.KafkaBrokers)
		kafkaConsumer := api.NewKafkaSalesConsumer(
			cfg.KafkaBrokers, cfg.SalesEventsTopic,
			salesService, dailyAnalytics, summaryPublisher,
			cfg.KafkaUsername, cfg.KafkaPassword, cfg.KafkaCACert,
		)
		kafkaConsumer.Start()
		defer kafkaConsumer.Stop()
	} else {
		if cfg.KafkaBrokers == "" {
			log.Println("⚠️ Kafka sales consumer not started: KAFKA_BROKERS not set")
		} else {
			log.Println("⚠️ Kafka sales consumer not started: PostgreSQL not available")
		}
	}

	// Nightly recalculation of yesterday's summary
	if dailyAnalytics != nil {
		go runNightlyRecalc(cfg.SummaryRecalcHour, dailyAnalytics, dashboardService, summaryPublisher)
		log.Printf("⏰ Nightly summary recalculation scheduled at %02d:00 UTC", cfg.SummaryRecalcHour)
	}

	// Periodic memory stats
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			logMemoryStats()
		}
	}()

	port := cfg.ServerPort
	if port == "" {
		port = "8080"
	}

	log.Printf("🚀 Server starting on port %s", port)
	log.Printf("📡 API available at http://0.0.0.0:%s/api/v1", port)
	if err := r.Run("0.0.0.0:" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// runNightlyRecalc recalculates yesterday's summary once per day at the
// configured UTC hour.
func runNightlyRecalc(hour int, daily *services.DailyAnalyticsService, dashboard *services.DashboardService, publisher *api.SummaryEventPublisher) {
	if hour < 0 || hour > 23 {
		hour = 3
	}

	for {
		now := time.Now().UTC()
		next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		time.Sleep(next.Sub(now))

		log.Println("🌙 Nightly summary recalculation starting")
		summary, err := daily.CalculateDailySummary(time.Time{}) // zero means yesterday
		if err != nil {
			log.Printf("⚠️ Nightly summary recalculation failed: %v", err)
			continue
		}

		if dashboard != nil {
			dashboard.InvalidateCache()
		}
		if publisher != nil {
			publisher.PublishSummaryUpdated(summary)
		}
		if update, err := json.Marshal(map[string]interface{}{
			"type":    "summary_updated",
			"date":    summary.Date.Format("2006-01-02"),
			"summary": summary,
		}); err == nil {
			api.DashboardHub.BroadcastMessage(update)
		}
		log.Printf("✅ Nightly summary recalculated for %s", summary.Date.Format("2006-01-02"))
	}
}

func logMemoryStats() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	heapAllocMB := float64(m.HeapAlloc) / 1024 / 1024
	heapSysMB := float64(m.HeapSys) / 1024 / 1024
	sysMB := float64(m.Sys) / 1024 / 1024
	numGoroutines := runtime.NumGoroutine()

	log.Printf("💾 Memory Stats: HeapAlloc=%.2f MB, HeapSys=%.2f MB, Sys=%.2f MB, GC=%d, Goroutines=%d",
		heapAllocMB, heapSysMB, sysMB, m.NumGC, numGoroutines)

	if numGoroutines > 100 {
		log.Printf("⚠️ WARNING: High number of goroutines detected: %d (possible goroutine leak)", numGoroutines)
	}
	if heapAllocMB > 500 {
		log.Printf("⚠️ WARNING: High memory usage detected: %.2f MB (possible memory leak)", heapAllocMB)
	}
}
