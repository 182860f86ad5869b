package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/apotek/internal/clock"
	ledgerdomain "github.com/smallbiznis/apotek/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/apotek/internal/observability/metrics"
	"github.com/smallbiznis/apotek/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	JobExpirySweep = "expiry_sweep"

	lockKeyPrefix = "scheduler:lock:"
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

// Locker guards a job so only one replica runs it at a time.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) error
}

type Params struct {
	fx.In

	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	LedgerSvc ledgerdomain.Service
	Locker    *ratelimit.Locker           `optional:"true"`
	Metrics   *obsmetrics.SchedulerMetrics `optional:"true"`
	Config    Config                       `optional:"true"`
}

type Scheduler struct {
	log       *zap.Logger
	cfg       Config
	genID     *snowflake.Node
	clock     clock.Clock
	ledgerSvc ledgerdomain.Service
	locker    Locker
	metrics   *obsmetrics.SchedulerMetrics
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil || p.LedgerSvc == nil {
		return nil, ErrInvalidConfig
	}
	s := &Scheduler{
		log:       p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:       p.Config.withDefaults(),
		genID:     p.GenID,
		clock:     p.Clock,
		ledgerSvc: p.LedgerSvc,
		metrics:   p.Metrics,
	}
	if p.Locker != nil {
		s.locker = p.Locker
	}
	if s.metrics == nil {
		s.metrics = obsmetrics.Scheduler()
	}
	return s, nil
}

func (s *Scheduler) runJob(parent context.Context, name string, timeout time.Duration, fn func(ctx context.Context) error) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run, owner := s.ensureJobRun(ctx, name)
	log := s.logger(ctx).With(
		zap.String("job", name),
		zap.String("run_id", run.runID),
	)

	if s.locker != nil {
		key := lockKeyPrefix + name
		token, ok, err := s.locker.TryLock(ctx, key, s.cfg.LockTTL)
		if err != nil {
			s.metrics.IncJobError(name, err)
			log.Warn("job lock unavailable", zap.Error(err))
			return nil
		}
		if !ok {
			s.metrics.IncJobSkipped(name)
			log.Debug("job held by another replica")
			return nil
		}
		defer func() {
			err := s.locker.Release(context.Background(), key, token)
			switch {
			case errors.Is(err, ratelimit.ErrLockLost):
				log.Warn("job outlived its lock", zap.Duration("lock_ttl", s.cfg.LockTTL))
			case err != nil:
				log.Warn("job lock release failed", zap.Error(err))
			}
		}()
	}

	if owner {
		s.logJobStart(ctx, run)
	}
	s.metrics.IncJobRun(name)

	err := fn(ctx)
	s.metrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if owner {
		if err != nil && run.errorCount == 0 {
			run.IncError()
		}
		s.logJobFinish(ctx, run)
	}
	if err == nil {
		return nil
	}

	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		s.metrics.IncJobTimeout(name)
	}
	s.metrics.IncJobError(name, err)
	if isTimeout {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(ctx context.Context) error {
	return s.runJob(ctx, JobExpirySweep, s.cfg.JobTimeout, s.ExpirySweepJob)
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(s.cfg.RunInterval)

	for {
		if lag := s.clock.Now().Sub(nextRun); lag > 0 {
			s.metrics.ObserveRunLoopLag(lag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ExpirySweepJob deactivates every active medicine past its expiry date.
func (s *Scheduler) ExpirySweepJob(ctx context.Context) error {
	count, err := s.ledgerSvc.SweepExpired(ctx)
	if err != nil {
		return err
	}
	if run := jobRunFromContext(ctx); run != nil {
		run.AddProcessed(count)
	}
	s.metrics.AddBatchProcessed(JobExpirySweep, "medicines", count)
	return nil
}
