package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeLatencies struct {
	mu      sync.Mutex
	samples []time.Duration
}

func (f *fakeLatencies) AddDuration(d time.Duration) {
	f.samples = append(f.samples, d)
}

func TestRunDurationBoundedAccumulatesCounters(t *testing.T) {
	counters := &Counters{}
	lat := &fakeLatencies{}
	var mu sync.Mutex

	cfg := DurationBoundedConfig{
		Concurrency: 4,
		Duration:    150 * time.Millisecond,
		Probe: func(ctx context.Context) ProbeResult {
			return ProbeResult{Sent: 10, Received: 20, Latency: time.Millisecond}
		},
	}

	RunDurationBounded(context.Background(), cfg, counters, lat, &mu)

	if counters.Total == 0 {
		t.Fatal("expected at least one probe to have run")
	}
	if counters.Total != counters.Success+counters.Failed {
		t.Errorf("total %d != success %d + failed %d", counters.Total, counters.Success, counters.Failed)
	}
	if counters.Failed != 0 {
		t.Errorf("expected no failures, got %d", counters.Failed)
	}
	if counters.BytesSent != counters.Total*10 {
		t.Errorf("bytes sent = %d, want %d", counters.BytesSent, counters.Total*10)
	}
}

func TestRunDurationBoundedClassifiesFailures(t *testing.T) {
	counters := &Counters{}
	var mu sync.Mutex

	cfg := DurationBoundedConfig{
		Concurrency: 2,
		Duration:    100 * time.Millisecond,
		Probe: func(ctx context.Context) ProbeResult {
			return ProbeResult{Err: context.DeadlineExceeded}
		},
	}

	RunDurationBounded(context.Background(), cfg, counters, nil, &mu)

	if counters.Success != 0 {
		t.Errorf("expected 0 successes, got %d", counters.Success)
	}
	if counters.Failed != counters.Total {
		t.Errorf("expected all probes to fail, got %d/%d", counters.Failed, counters.Total)
	}
}

func TestRunCountBoundedRunsExactlyCount(t *testing.T) {
	var ran int64
	cfg := CountBoundedConfig{
		Count:       50,
		Concurrency: 5,
		Probe: func(ctx context.Context, idx int) {
			atomic.AddInt64(&ran, 1)
		},
	}
	RunCountBounded(context.Background(), cfg)
	if ran != 50 {
		t.Errorf("ran %d probes, want 50", ran)
	}
}

func TestRunCountBoundedRespectsConcurrencyCap(t *testing.T) {
	var inFlight int32
	var maxObserved int32
	var mu sync.Mutex

	cfg := CountBoundedConfig{
		Count:       30,
		Concurrency: 3,
		Probe: func(ctx context.Context, idx int) {
			n := atomic.AddInt32(&inFlight, 1)
			mu.Lock()
			if n > maxObserved {
				maxObserved = n
			}
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
		},
	}
	RunCountBounded(context.Background(), cfg)
	if maxObserved > 3 {
		t.Errorf("observed %d concurrent probes, want <= 3", maxObserved)
	}
}
