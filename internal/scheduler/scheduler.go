// Package scheduler implements the two worker-pool shapes shared by every
// probe engine: duration-bounded (traffic, HTTP, bandwidth, latency) and
// count-bounded (connection load; the port scanners gate their own probes). Both are grounded on the same
// worker-pool-plus-shared-counters pattern the teacher's orchestrator uses
// to fan out collectors, generalized from "one task per collector" to
// "many tasks per worker slot."
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Counters are the atomic counters every duration-bounded worker updates.
// All fields must only be touched through sync/atomic.
type Counters struct {
	Total         uint64
	Success       uint64
	Failed        uint64
	BytesSent     uint64
	BytesReceived uint64
}

// ProbeResult is what one probe attempt reports back to the scheduler.
type ProbeResult struct {
	Sent     int
	Received int
	Latency  time.Duration
	Err      error
}

// ProbeFunc performs one probe attempt; ctx carries the per-probe deadline.
type ProbeFunc func(ctx context.Context) ProbeResult

// LatencyCollector is the interface the duration-bounded runner needs from
// a statistics collector, satisfied by stats.Collector.
type LatencyCollector interface {
	AddDuration(d time.Duration)
}

// DurationBoundedConfig configures a fixed-concurrency, wall-clock-bounded
// run such as traffic, HTTP, or bandwidth load.
type DurationBoundedConfig struct {
	Concurrency int
	Duration    time.Duration
	// RatePerWorker, when > 0, is the target requests/sec across the whole
	// run; each worker paces itself to 1/rate*concurrency per iteration.
	RatePerWorker float64
	Probe         ProbeFunc
	Timeout       time.Duration
}

// RunDurationBounded spawns Concurrency workers that loop while the run is
// active, invoking Probe once per iteration and accumulating results into
// counters and latencies. It blocks until Duration has elapsed and every
// worker has drained.
func RunDurationBounded(ctx context.Context, cfg DurationBoundedConfig, counters *Counters, latencies LatencyCollector, latencyMu *sync.Mutex) {
	running := &atomic.Bool{}
	running.Store(true)

	var wg sync.WaitGroup
	var delay time.Duration
	if cfg.RatePerWorker > 0 {
		delay = time.Duration(float64(time.Second) / cfg.RatePerWorker * float64(cfg.Concurrency))
	}

	for w := 0; w < cfg.Concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for running.Load() {
				start := time.Now()

				probeCtx := ctx
				var cancel context.CancelFunc
				if cfg.Timeout > 0 {
					probeCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
				}
				result := cfg.Probe(probeCtx)
				if cancel != nil {
					cancel()
				}

				atomic.AddUint64(&counters.Total, 1)
				if result.Err != nil {
					atomic.AddUint64(&counters.Failed, 1)
				} else {
					atomic.AddUint64(&counters.Success, 1)
				}
				if result.Err == nil || result.Latency > 0 {
					// A round trip that completed (even with an
					// application-level failure like an HTTP 5xx) still
					// produces a real latency sample and byte count.
					atomic.AddUint64(&counters.BytesSent, uint64(result.Sent))
					atomic.AddUint64(&counters.BytesReceived, uint64(result.Received))
					if latencies != nil {
						latencyMu.Lock()
						latencies.AddDuration(result.Latency)
						latencyMu.Unlock()
					}
				}

				if delay > 0 {
					elapsed := time.Since(start)
					if elapsed < delay {
						time.Sleep(delay - elapsed)
					}
				}
			}
		}()
	}

	timer := time.NewTimer(cfg.Duration)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
	running.Store(false)
	wg.Wait()
}

// CountBoundedConfig configures a semaphore-gated run of a fixed number of
// probes, used by connection load.
type CountBoundedConfig struct {
	Count       int
	Concurrency int
	Probe       func(ctx context.Context, index int)
	Timeout     time.Duration
}

// RunCountBounded spawns exactly Count goroutines, gated to at most
// Concurrency in flight via a buffered-channel semaphore, and waits for
// all of them to complete.
func RunCountBounded(ctx context.Context, cfg CountBoundedConfig) {
	sem := make(chan struct{}, cfg.Concurrency)
	var wg sync.WaitGroup

	for i := 0; i < cfg.Count; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			probeCtx := ctx
			var cancel context.CancelFunc
			if cfg.Timeout > 0 {
				probeCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
				defer cancel()
			}
			cfg.Probe(probeCtx, idx)
		}(i)
	}

	wg.Wait()
}
