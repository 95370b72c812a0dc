package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/staffparty/partyhub/cmd/partyhub/models"
	"github.com/staffparty/partyhub/common/logger"
	"github.com/staffparty/partyhub/common/metrics"
)

// StatsReporter periodically copies exchange counts into Prometheus gauges
type StatsReporter struct {
	store    ExchangeStore
	metrics  *metrics.PartyMetrics
	sched    gocron.Scheduler
	interval time.Duration
	log      *logger.Logger
}

// NewStatsReporter creates a reporter driven by clock
func NewStatsReporter(store ExchangeStore, m *metrics.PartyMetrics, clock clockwork.Clock, interval time.Duration, log *logger.Logger) (*StatsReporter, error) {
	sched, err := gocron.NewScheduler(
		gocron.WithClock(clock),
		gocron.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &StatsReporter{
		store:    store,
		metrics:  m,
		sched:    sched,
		interval: interval,
		log:      log,
	}, nil
}

// Start schedules the refresh job and runs it once immediately
func (r *StatsReporter) Start(ctx context.Context) error {
	_, err := r.sched.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(func() {
			if err := r.Refresh(ctx); err != nil {
				r.log.Warn("exchange stats refresh failed", "error", err)
			}
		}),
		gocron.WithName("exchange-stats"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule exchange stats: %w", err)
	}

	r.sched.Start()
	r.log.Info("exchange stats reporter started", "interval", r.interval)
	return nil
}

// Refresh reads current counts and updates the gauges
func (r *StatsReporter) Refresh(ctx context.Context) error {
	stats, err := r.store.CountByStatus(ctx)
	if err != nil {
		return err
	}

	r.metrics.ExchangesByStatus.WithLabelValues(string(models.ExchangeSearching)).Set(float64(stats.Searching))
	r.metrics.ExchangesByStatus.WithLabelValues(string(models.ExchangeCompleted)).Set(float64(stats.Completed))
	r.metrics.ExchangesByStatus.WithLabelValues("total").Set(float64(stats.Total))
	return nil
}

// Shutdown stops the scheduler
func (r *StatsReporter) Shutdown() error {
	return r.sched.Shutdown()
}
