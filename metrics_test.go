package goToken

import (
	"context"
	"sync"
	"testing"
)

func TestMetricsIncAndSnapshot(t *testing.T) {
	m := newMetrics()
	m.Inc(MetricPairsIssued)
	m.Inc(MetricPairsIssued)
	m.Inc(MetricValidateExpired)

	snap := m.Snapshot()
	if snap.Counters[MetricPairsIssued] != 2 {
		t.Fatalf("pairs issued %d, want 2", snap.Counters[MetricPairsIssued])
	}
	if snap.Counters[MetricValidateExpired] != 1 {
		t.Fatalf("expired %d, want 1", snap.Counters[MetricValidateExpired])
	}
	if snap.Counters[MetricRevocations] != 0 {
		t.Fatal("untouched counter must be zero")
	}
}

func TestMetricsConcurrentInc(t *testing.T) {
	m := newMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				m.Inc(MetricBatchValidations)
			}
		}()
	}
	wg.Wait()

	if got := m.Snapshot().Counters[MetricBatchValidations]; got != 8000 {
		t.Fatalf("batch validations %d, want 8000", got)
	}
}

func TestMetricsNilAndOutOfRange(t *testing.T) {
	var m *Metrics
	m.Inc(MetricPairsIssued)
	if snap := m.Snapshot(); len(snap.Counters) != 0 {
		t.Fatal("nil metrics snapshot must be empty")
	}

	live := newMetrics()
	live.Inc(metricCount)
	live.Inc(metricCount + 10)
}

func TestEngineCountersTrackOperations(t *testing.T) {
	env, done := newTestEngine(t, nil)
	defer done()
	ctx := context.Background()

	pair := issueTestPair(t, env.engine)
	env.engine.Validate(ctx, pair.AccessToken, "1.1.1.1", "X")
	env.engine.Validate(ctx, "garbage", "1.1.1.1", "X")
	if _, err := env.engine.Refresh(ctx, pair.RefreshToken, "1.1.1.1"); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	snap := env.engine.MetricsSnapshot()
	// The pair minted inside Refresh counts under MetricRefreshSuccess, not
	// MetricPairsIssued.
	if snap.Counters[MetricPairsIssued] != 1 {
		t.Fatalf("pairs issued %d, want 1", snap.Counters[MetricPairsIssued])
	}
	if snap.Counters[MetricValidateValid] < 1 {
		t.Fatal("valid counter not incremented")
	}
	if snap.Counters[MetricValidateMalformed] != 1 {
		t.Fatalf("malformed %d, want 1", snap.Counters[MetricValidateMalformed])
	}
	if snap.Counters[MetricRefreshSuccess] != 1 {
		t.Fatalf("refresh success %d, want 1", snap.Counters[MetricRefreshSuccess])
	}
	if snap.Counters[MetricRevocations] != 2 {
		t.Fatalf("revocations %d, want 2 (both halves of the old pair)", snap.Counters[MetricRevocations])
	}
}
