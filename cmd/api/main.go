package main

import (
	"log"
	"net/http"
	"os"
	"strconv"

	"reality-portal/internal/config"
	"reality-portal/internal/feed"
	"reality-portal/internal/geocoder"
	"reality-portal/internal/handlers"
	"reality-portal/internal/ingest"
	"reality-portal/internal/models"
	"reality-portal/internal/normalizer"
	"reality-portal/internal/ratelimit"
	"reality-portal/internal/scheduler"
	"reality-portal/internal/search"
	"reality-portal/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var (
	propertyStore store.Store
	aggregator    *search.Aggregator
	meiliEngine   *search.MeiliEngine
	appConfig     *config.Config
	rateLimiter   *ratelimit.RateLimiter
	appScheduler  *scheduler.Scheduler
)

func main() {
	// .env is optional; real deployments use environment variables.
	_ = godotenv.Load()

	configPath := getEnv("CONFIG_PATH", "config/portal.yaml")
	var err error
	appConfig, err = config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: Failed to load config from %s: %v. Using defaults.", configPath, err)
		appConfig = config.DefaultConfig()
	} else {
		log.Printf("Loaded configuration from %s", configPath)
	}

	// Storage backend, selected once at startup.
	propertyStore, err = openStore(appConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer propertyStore.Close()

	if err := propertyStore.InitSchema(); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	// Optional external full-text engine.
	var textSearcher search.TextSearcher
	if appConfig.Search.Engine == "meilisearch" {
		host := getEnvOrConfig(appConfig.Search.Meilisearch.Host, "MEILISEARCH_HOST", "http://meilisearch:7700")
		apiKey := getEnvOrConfig(appConfig.Search.Meilisearch.APIKey, "MEILISEARCH_KEY", "")
		meiliEngine = search.NewMeiliEngine(host, apiKey)
		if err := meiliEngine.InitIndex(); err != nil {
			log.Printf("Warning: Failed to initialize search index: %v", err)
		}
		textSearcher = meiliEngine
		log.Println("Search engine: meilisearch")
	} else {
		log.Println("Search engine: database procedure")
	}

	aggregator = search.NewAggregator(propertyStore, textSearcher)

	// Ingestion pipeline and its collaborators.
	feedClient := feed.NewClient(feed.ClientConfig{
		BaseURL:   getEnvOrConfig(appConfig.Feed.BaseURL, "FEED_URL", appConfig.Feed.BaseURL),
		Format:    appConfig.Feed.Format,
		Timeout:   appConfig.Feed.GetTimeout(),
		UserAgent: appConfig.UserAgent,
	})
	geoClient := geocoder.NewClient(geocoder.ClientConfig{
		BaseURL:   getEnvOrConfig(appConfig.Geocoder.BaseURL, "GEOCODER_URL", appConfig.Geocoder.BaseURL),
		Timeout:   appConfig.Geocoder.GetTimeout(),
		UserAgent: appConfig.UserAgent,
	})

	var indexer ingest.Indexer
	if meiliEngine != nil {
		indexer = meiliEngine
	}
	pipeline := ingest.NewPipeline(ingest.PipelineConfig{
		Fetcher:    feedClient,
		Geocoder:   geoClient,
		Store:      propertyStore,
		Indexer:    indexer,
		Pacer:      ratelimit.NewPacer(appConfig.Geocoder.GetMinInterval()),
		Normalizer: normalizer.New(appConfig.Feed.MediaHost),
	})

	// Scheduled ingestion runs.
	appScheduler = scheduler.NewScheduler(pipeline, appConfig)
	if err := appScheduler.Start(); err != nil {
		log.Printf("Warning: Failed to start scheduler: %v", err)
	}
	defer appScheduler.Stop()

	rateLimiter = ratelimit.NewRateLimiter(
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.Enabled,
	)
	log.Printf("Rate limiter initialized: %d req/min, %d req/hour (enabled: %v)",
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.Enabled,
	)

	// Setup Gin router
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     appConfig.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	// Public routes
	r.GET("/health", healthCheck)
	r.GET("/api/search", searchProperties)
	r.GET("/api/nearby", nearbyProperties)
	r.GET("/api/suggest", suggestProperties)
	r.GET("/api/properties/:slug", getPropertyBySlug)
	r.GET("/api/ratelimit/stats", getRateLimitStats)

	// Ingestion trigger (scheduled HTTP call or manual curl)
	ingestHandler := handlers.NewIngestHandler(pipeline,
		getEnvOrConfig(appConfig.Ingest.Secret, "INGEST_SECRET", ""),
		appConfig.Feed.MaxListings)
	r.POST("/api/ingest/run", rateLimitMiddleware(), ingestHandler.RequireSecret(), ingestHandler.Trigger)

	// Admin API routes
	adminHandler := handlers.NewAdminHandler(propertyStore, adminIndex())
	admin := r.Group("/api/admin")
	{
		admin.GET("/properties", adminHandler.ListProperties)
		admin.POST("/properties", adminHandler.CreateProperty)
		admin.GET("/properties/:id", adminHandler.GetProperty)
		admin.PUT("/properties/:id", adminHandler.UpdateProperty)
		admin.DELETE("/properties/:id", adminHandler.DeleteProperty)

		admin.GET("/stats", adminHandler.GetStats)
		admin.GET("/price-distribution", adminHandler.GetPriceDistribution)

		admin.POST("/search/reindex", reindexAllProperties)
	}

	port := getEnv("PORT", appConfig.Server.Port)
	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func openStore(cfg *config.Config) (store.Store, error) {
	dbType := cfg.Database.Type
	if dbType == "" {
		dbType = getEnv("DB_TYPE", "postgres")
	}

	if dbType == "mysql" {
		log.Println("Using MySQL with GORM")
		mysqlCfg := cfg.Database.MySQL
		port, _ := strconv.Atoi(getEnvOrConfig(intToStr(mysqlCfg.Port), "DB_PORT", "3306"))
		return store.NewMySQLStore(
			getEnvOrConfig(mysqlCfg.Host, "DB_HOST", "mysql"),
			port,
			getEnvOrConfig(mysqlCfg.User, "DB_USER", "reality_user"),
			getEnvOrConfig(mysqlCfg.Password, "DB_PASSWORD", "reality_pass"),
			getEnvOrConfig(mysqlCfg.Database, "DB_NAME", "reality_db"),
		)
	}

	log.Println("Using PostgreSQL")
	pgCfg := cfg.Database.Postgres
	port, _ := strconv.Atoi(getEnvOrConfig(intToStr(pgCfg.Port), "DB_PORT", "5432"))
	return store.NewPostgresStore(
		getEnvOrConfig(pgCfg.Host, "DB_HOST", "db"),
		port,
		getEnvOrConfig(pgCfg.User, "DB_USER", "reality_user"),
		getEnvOrConfig(pgCfg.Password, "DB_PASSWORD", "reality_pass"),
		getEnvOrConfig(pgCfg.Database, "DB_NAME", "reality_db"),
		pgCfg.SSLMode,
	)
}

// adminIndex adapts the optional engine to the admin handler's interface;
// a typed-nil *MeiliEngine must not leak into the interface value.
func adminIndex() handlers.SearchIndex {
	if meiliEngine == nil {
		return nil
	}
	return meiliEngine
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// searchProperties serves both search modes: free-text when "q" is present,
// structured filtering otherwise. Backend failures surface as an empty,
// flagged result — never raw backend error text.
func searchProperties(c *gin.Context) {
	filters := parseSearchFilters(c)

	properties, err := aggregator.Search(filters)
	if err != nil {
		log.Printf("[API] Search failed: %v", err)
		c.JSON(http.StatusOK, gin.H{
			"properties": []models.Property{},
			"count":      0,
			"error":      "search temporarily unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"properties": properties,
		"count":      len(properties),
	})
}

func nearbyProperties(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng are required"})
		return
	}

	geo := models.GeolocationFilters{Lat: lat, Lng: lng, RadiusKm: models.DefaultRadiusKm}
	if radiusStr := c.Query("radius_km"); radiusStr != "" {
		if radius, err := strconv.ParseFloat(radiusStr, 64); err == nil && radius > 0 {
			geo.RadiusKm = radius
		}
	}

	results, err := aggregator.Nearby(geo, parseSearchFilters(c))
	if err != nil {
		log.Printf("[API] Nearby search failed: %v", err)
		c.JSON(http.StatusOK, gin.H{
			"properties": []models.PropertyWithDistance{},
			"count":      0,
			"error":      "search temporarily unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"properties": results,
		"count":      len(results),
	})
}

func suggestProperties(c *gin.Context) {
	suggestions, err := aggregator.Suggest(c.Query("q"))
	if err != nil {
		log.Printf("[API] Suggest failed: %v", err)
		c.JSON(http.StatusOK, gin.H{
			"suggestions": []string{},
			"error":       "suggestions temporarily unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

func getPropertyBySlug(c *gin.Context) {
	property, err := propertyStore.GetPropertyBySlug(c.Param("slug"))
	if err != nil || !property.Published {
		c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
		return
	}
	c.JSON(http.StatusOK, property)
}

func getRateLimitStats(c *gin.Context) {
	c.JSON(http.StatusOK, rateLimiter.GetStats())
}

// reindexAllProperties pushes every stored row into the external search
// index. Only meaningful when meilisearch is the configured engine.
func reindexAllProperties(c *gin.Context) {
	if meiliEngine == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "external search engine not configured"})
		return
	}

	properties, err := propertyStore.AllProperties()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := meiliEngine.IndexProperties(properties); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"indexed": len(properties)})
}

func parseSearchFilters(c *gin.Context) models.SearchFilters {
	filters := models.SearchFilters{
		Query: c.Query("q"),
		City:  c.Query("city"),
	}

	if minPriceStr := c.Query("min_price"); minPriceStr != "" {
		if minPrice, err := strconv.Atoi(minPriceStr); err == nil {
			filters.MinPrice = &minPrice
		}
	}
	if maxPriceStr := c.Query("max_price"); maxPriceStr != "" {
		if maxPrice, err := strconv.Atoi(maxPriceStr); err == nil {
			filters.MaxPrice = &maxPrice
		}
	}
	if minBedroomsStr := c.Query("min_bedrooms"); minBedroomsStr != "" {
		if minBedrooms, err := strconv.Atoi(minBedroomsStr); err == nil {
			filters.MinBedrooms = &minBedrooms
		}
	}
	if minBathroomsStr := c.Query("min_bathrooms"); minBathroomsStr != "" {
		if minBathrooms, err := strconv.Atoi(minBathroomsStr); err == nil {
			filters.MinBathrooms = &minBathrooms
		}
	}
	if propType := c.Query("type"); propType != "" {
		filters.Type = models.PropertyType(propType)
	}

	return filters
}

// rateLimitMiddleware rejects requests over the configured windows.
func rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rateLimiter.AllowRequest() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded, try again later",
			})
			return
		}
		c.Next()
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvOrConfig prefers the config file value, then the environment, then
// the fallback.
func getEnvOrConfig(configValue, envKey, fallback string) string {
	if configValue != "" {
		return configValue
	}
	return getEnv(envKey, fallback)
}

func intToStr(v int) string {
	if v <= 0 {
		return ""
	}
	return strconv.Itoa(v)
}
