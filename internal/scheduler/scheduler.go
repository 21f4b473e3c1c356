// Package scheduler triggers ingestion runs on a daily cron schedule. The
// HTTP trigger endpoint and the manual script share the same pipeline; this
// is just the third way in.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"reality-portal/internal/config"
	"reality-portal/internal/feed"
	"reality-portal/internal/ingest"

	"github.com/robfig/cron/v3"
)

// categoryPairs are the feed segments ingested on every scheduled run.
var categoryPairs = []struct {
	Category string
	DealType string
}{
	{feed.CategoryApartments, feed.DealSale},
	{feed.CategoryHouses, feed.DealSale},
}

// runTimeout bounds one full scheduled run; an in-flight geocode or upsert
// at the deadline is abandoned, rows already upserted stay persisted.
const runTimeout = 15 * time.Minute

type Scheduler struct {
	cron      *cron.Cron
	pipeline  *ingest.Pipeline
	config    *config.Config
	isRunning bool
}

// NewScheduler creates a new scheduler
func NewScheduler(pipeline *ingest.Pipeline, cfg *config.Config) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		pipeline: pipeline,
		config:   cfg,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	if !s.config.Ingest.DailyRunEnabled {
		log.Println("Scheduler: Daily run is disabled in configuration")
		return nil
	}

	cronSpec := s.parseDailyRunTime(s.config.Ingest.DailyRunTime)

	_, err := s.cron.AddFunc(cronSpec, func() {
		log.Println("Scheduler: Starting daily ingestion job...")
		if err := s.RunNow(); err != nil {
			log.Printf("Scheduler: Daily ingestion failed: %v", err)
		} else {
			log.Println("Scheduler: Daily ingestion completed successfully")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.isRunning = true
	log.Printf("Scheduler: Started with daily run at %s (cron: %s)", s.config.Ingest.DailyRunTime, cronSpec)

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	if s.isRunning {
		s.cron.Stop()
		s.isRunning = false
		log.Println("Scheduler: Stopped")
	}
}

// RunNow ingests every configured category pair back to back. A failed pair
// (feed unreachable) does not stop the remaining pairs.
func (s *Scheduler) RunNow() error {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	var lastErr error
	for _, pair := range categoryPairs {
		summary, err := s.pipeline.Run(ctx, pair.Category, pair.DealType, s.config.Feed.MaxListings)
		if err != nil {
			log.Printf("Scheduler: Ingestion failed for %s/%s: %v", pair.Category, pair.DealType, err)
			lastErr = err
			continue
		}
		log.Printf("Scheduler: %s/%s imported=%d errors=%d",
			pair.Category, pair.DealType, summary.Imported, summary.Errors)
	}
	return lastErr
}

// parseDailyRunTime converts HH:MM format to cron specification
// Example: "03:00" -> "0 3 * * *" (run at 3:00 AM every day)
func (s *Scheduler) parseDailyRunTime(timeStr string) string {
	var hour, minute int
	n, _ := fmt.Sscanf(timeStr, "%d:%d", &hour, &minute)
	if n == 2 {
		return fmt.Sprintf("%d %d * * *", minute, hour)
	}

	log.Printf("Scheduler: Failed to parse time '%s', using default 03:00", timeStr)
	return "0 3 * * *"
}
