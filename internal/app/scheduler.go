package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/niveshapp/nivesh/internal/common"
	"github.com/niveshapp/nivesh/internal/interfaces"
)

// Scheduler runs the daily market data refresh on a cron expression
// evaluated in the exchange timezone, so "0 16 * * 1-5" means 16:00 IST
// regardless of where the server runs.
type Scheduler struct {
	cron   *cron.Cron
	logger *common.Logger
}

// NewScheduler creates a scheduler for the configured cron expression.
// An unknown timezone falls back to UTC; an invalid expression is an
// error.
func NewScheduler(config common.MarketDataConfig, service interfaces.MarketDataService, logger *common.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(config.Timezone)
	if err != nil {
		logger.Warn().Err(err).Str("timezone", config.Timezone).Msg("Unknown timezone, scheduling in UTC")
		loc = time.UTC
	}

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(config.CronSchedule, func() {
		if err := service.RefreshMarketData(context.Background(), "cron"); err != nil {
			logger.Warn().Err(err).Msg("Scheduled market data refresh failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", config.CronSchedule, err)
	}

	logger.Info().Str("schedule", config.CronSchedule).Str("timezone", loc.String()).Msg("Market data refresh scheduled")

	return &Scheduler{cron: c, logger: logger}, nil
}

// Start begins running scheduled refreshes in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for any running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("Market data scheduler stopped")
}
