package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/scoutbase/internal/clock"
	"github.com/smallbiznis/scoutbase/internal/config"
	reportdomain "github.com/smallbiznis/scoutbase/internal/report/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler: missing dependency")

// Config controls the sweep interval and batch size.
type Config struct {
	RunInterval time.Duration
	BatchSize   int
}

func DefaultConfig() Config {
	return Config{
		RunInterval: time.Minute,
		BatchSize:   100,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	return c
}

func ProvideConfig() Config {
	return DefaultConfig()
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Matching *config.MatchingConfigHolder
	Reports  reportdomain.Service
	Clock    clock.Clock
	Config   Config `optional:"true"`
}

// Scheduler periodically flags reports whose content has outlived the
// configured staleness window. Staleness stays advisory: reads compute
// it from updated_at regardless, the sweep just materializes the flag
// for listings and dashboards.
type Scheduler struct {
	log      *zap.Logger
	cfg      Config
	matching *config.MatchingConfigHolder
	reports  reportdomain.Service
	clock    clock.Clock
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Matching == nil || p.Reports == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:      p.Log.Named("scheduler"),
		cfg:      p.Config.withDefaults(),
		matching: p.Matching,
		reports:  p.Reports,
		clock:    p.Clock,
	}, nil
}

// RunOnce performs a single staleness sweep.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	staleAfter := s.matching.Get().StaleAfter
	cutoff := s.clock.Now().Add(-staleAfter)

	flagged, err := s.reports.SweepStale(ctx, cutoff, s.cfg.BatchSize)
	if err != nil {
		return err
	}
	if flagged > 0 {
		s.log.Info("stale sweep flagged reports",
			zap.Int64("flagged", flagged),
			zap.Time("cutoff", cutoff),
		)
	}
	return nil
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("stale sweep failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
