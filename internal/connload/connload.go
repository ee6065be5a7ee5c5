// Package connload implements the connection-rate load engine: open N TCP
// connections against a target with at most C in flight, optionally parking
// the successful connections open for a hold duration before releasing them.
package connload

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitriimaksimovdevelop/nelst/internal/model"
	"github.com/dmitriimaksimovdevelop/nelst/internal/scheduler"
	"github.com/dmitriimaksimovdevelop/nelst/internal/stats"
)

// Args configures a connection load run.
type Args struct {
	Target      string
	Count       int
	Concurrency int
	Timeout     time.Duration
	KeepAlive   bool
	HoldFor     time.Duration
}

// Run opens Args.Count connections against Args.Target, gated to at most
// Args.Concurrency in flight.
func Run(ctx context.Context, args Args) (model.LoadTestResult, error) {
	start := time.Now()

	var success, failed uint64
	latencies := stats.NewCollector()
	var latencyMu sync.Mutex

	var held []net.Conn
	var heldMu sync.Mutex

	cfg := scheduler.CountBoundedConfig{
		Count:       args.Count,
		Concurrency: args.Concurrency,
		Timeout:     args.Timeout,
		Probe: func(probeCtx context.Context, idx int) {
			connectStart := time.Now()
			var d net.Dialer
			conn, err := d.DialContext(probeCtx, "tcp", args.Target)
			if err != nil {
				atomic.AddUint64(&failed, 1)
				return
			}
			atomic.AddUint64(&success, 1)

			latencyMu.Lock()
			latencies.AddDuration(time.Since(connectStart))
			latencyMu.Unlock()

			if args.KeepAlive {
				heldMu.Lock()
				held = append(held, conn)
				heldMu.Unlock()
				return
			}
			conn.Close()
		},
	}

	scheduler.RunCountBounded(ctx, cfg)

	if args.KeepAlive && args.HoldFor > 0 {
		select {
		case <-time.After(args.HoldFor):
		case <-ctx.Done():
		}
	}

	heldMu.Lock()
	for _, conn := range held {
		conn.Close()
	}
	heldMu.Unlock()

	elapsed := time.Since(start).Seconds()
	result := model.LoadTestResult{
		Target:             args.Target,
		Protocol:           "tcp",
		DurationSecs:       elapsed,
		TotalRequests:      success + failed,
		SuccessfulRequests: success,
		FailedRequests:     failed,
	}
	if elapsed > 0 {
		result.ThroughputRPS = float64(success+failed) / elapsed
	}
	if computed, ok := latencies.Compute(); ok {
		result.Latency = &model.LatencyStatsJSON{
			MinUs: float64(computed.MinUs),
			MaxUs: float64(computed.MaxUs),
			AvgUs: computed.AvgUs,
			P50Us: computed.P50Us,
			P95Us: computed.P95Us,
			P99Us: computed.P99Us,
		}
	}
	return result, nil
}
