// Manual ingestion run, for operators and cron jobs outside the API process:
//
//	go run ./cmd/ingest -category byty -deal prodej -max 40
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"reality-portal/internal/config"
	"reality-portal/internal/feed"
	"reality-portal/internal/geocoder"
	"reality-portal/internal/ingest"
	"reality-portal/internal/normalizer"
	"reality-portal/internal/ratelimit"
	"reality-portal/internal/store"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	category := flag.String("category", feed.CategoryApartments, "feed category (byty, domy, pozemky, komercni)")
	dealType := flag.String("deal", feed.DealSale, "deal type (prodej, pronajem)")
	maxListings := flag.Int("max", 0, "listing cap for this run (0 = config default)")
	configPath := flag.String("config", getEnv("CONFIG_PATH", "config/portal.yaml"), "path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Printf("Warning: Failed to load config from %s: %v. Using defaults.", *configPath, err)
		cfg = config.DefaultConfig()
	}
	if *maxListings <= 0 {
		*maxListings = cfg.Feed.MaxListings
	}

	st, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer st.Close()

	if err := st.InitSchema(); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	pipeline := ingest.NewPipeline(ingest.PipelineConfig{
		Fetcher: feed.NewClient(feed.ClientConfig{
			BaseURL:   cfg.Feed.BaseURL,
			Format:    cfg.Feed.Format,
			Timeout:   cfg.Feed.GetTimeout(),
			UserAgent: cfg.UserAgent,
		}),
		Geocoder: geocoder.NewClient(geocoder.ClientConfig{
			BaseURL:   cfg.Geocoder.BaseURL,
			Timeout:   cfg.Geocoder.GetTimeout(),
			UserAgent: cfg.UserAgent,
		}),
		Store:      st,
		Pacer:      ratelimit.NewPacer(cfg.Geocoder.GetMinInterval()),
		Normalizer: normalizer.New(cfg.Feed.MediaHost),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := pipeline.Run(ctx, *category, *dealType, *maxListings)
	if summary != nil {
		log.Printf("[Ingest] %s/%s: imported=%d errors=%d duration=%s",
			summary.Category, summary.DealType, summary.Imported, summary.Errors,
			summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond))
	}
	if err != nil {
		log.Fatalf("Ingestion failed: %v", err)
	}
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.Database.Type == "mysql" {
		mysqlCfg := cfg.Database.MySQL
		return store.NewMySQLStore(
			getEnv("DB_HOST", mysqlCfg.Host),
			envInt("DB_PORT", mysqlCfg.Port),
			getEnv("DB_USER", mysqlCfg.User),
			getEnv("DB_PASSWORD", mysqlCfg.Password),
			getEnv("DB_NAME", mysqlCfg.Database),
		)
	}
	pgCfg := cfg.Database.Postgres
	return store.NewPostgresStore(
		getEnv("DB_HOST", pgCfg.Host),
		envInt("DB_PORT", pgCfg.Port),
		getEnv("DB_USER", pgCfg.User),
		getEnv("DB_PASSWORD", pgCfg.Password),
		getEnv("DB_NAME", pgCfg.Database),
		pgCfg.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
