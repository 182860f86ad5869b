package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/smallbiznis/apotek/internal/clock"
	ledgerdomain "github.com/smallbiznis/apotek/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/apotek/internal/observability/metrics"
	"github.com/smallbiznis/apotek/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sweepStub struct {
	ledgerdomain.Service
	calls int
	count int64
	err   error
}

func (s *sweepStub) SweepExpired(ctx context.Context) (int64, error) {
	s.calls++
	return s.count, s.err
}

type lockStub struct {
	held       bool
	err        error
	releaseErr error
	released   []string
}

func (l *lockStub) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if l.err != nil {
		return "", false, l.err
	}
	if l.held {
		return "", false, nil
	}
	return "token-1", true, nil
}

func (l *lockStub) Release(ctx context.Context, key, token string) error {
	l.released = append(l.released, key+"="+token)
	return l.releaseErr
}

var labels = map[string]string{"service": "apotek", "env": "test", "job": JobExpirySweep}

func newTestScheduler(t *testing.T, ledger *sweepStub) (*Scheduler, *prometheus.Registry) {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	registry := prometheus.NewRegistry()

	s, err := New(Params{
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     clock.NewFakeClock(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)),
		LedgerSvc: ledger,
		Metrics:   obsmetrics.NewSchedulerMetrics(registry, obsmetrics.Config{ServiceName: "apotek", Environment: "test"}),
	})
	require.NoError(t, err)
	return s, registry
}

func TestNewRejectsMissingDependencies(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop()})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRunOnceSweepsAndCountsRows(t *testing.T) {
	ledger := &sweepStub{count: 3}
	s, registry := newTestScheduler(t, ledger)

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, 1, ledger.calls)
	assert.Equal(t, float64(1), counterValue(t, registry, "apotek_scheduler_job_runs_total", labels))

	processed := map[string]string{"service": "apotek", "env": "test", "job": JobExpirySweep, "resource": "medicines"}
	assert.Equal(t, float64(3), counterValue(t, registry, "apotek_scheduler_batch_processed_total", processed))
}

func TestRunOnceWrapsJobError(t *testing.T) {
	boom := errors.New("boom")
	s, _ := newTestScheduler(t, &sweepStub{err: boom})

	err := s.RunOnce(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), JobExpirySweep)
}

func TestRunJobTimeoutIsSoft(t *testing.T) {
	s, registry := newTestScheduler(t, &sweepStub{})

	err := s.runJob(context.Background(), JobExpirySweep, 5*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)
	assert.Equal(t, float64(1), counterValue(t, registry, "apotek_scheduler_job_timeouts_total", labels))
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	ledger := &sweepStub{}
	s, registry := newTestScheduler(t, ledger)
	s.locker = &lockStub{held: true}

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, 0, ledger.calls)
	assert.Equal(t, float64(1), counterValue(t, registry, "apotek_scheduler_job_skipped_total", labels))
}

func TestRunOnceReleasesLock(t *testing.T) {
	ledger := &sweepStub{count: 1}
	s, _ := newTestScheduler(t, ledger)
	locker := &lockStub{}
	s.locker = locker

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, 1, ledger.calls)
	assert.Equal(t, []string{"scheduler:lock:expiry_sweep=token-1"}, locker.released)
}

func TestRunOnceToleratesLostLock(t *testing.T) {
	ledger := &sweepStub{count: 2}
	s, registry := newTestScheduler(t, ledger)
	s.locker = &lockStub{releaseErr: ratelimit.ErrLockLost}

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, 1, ledger.calls)
	assert.Equal(t, float64(2), counterValue(t, registry, "apotek_scheduler_batch_processed_total",
		map[string]string{"service": "apotek", "env": "test", "job": JobExpirySweep, "resource": "medicines"}))
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{JobTimeout: 10 * time.Minute}.withDefaults()
	assert.Equal(t, time.Hour, cfg.RunInterval)
	assert.Equal(t, 10*time.Minute, cfg.LockTTL)
}

func counterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.Metric {
			if labelsMatch(metric, labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	if len(metric.Label) != len(labels) {
		return false
	}
	for _, label := range metric.Label {
		if labels[label.GetName()] != label.GetValue() {
			return false
		}
	}
	return true
}
