// Package latency implements the latency benchmark engine: repeated
// fixed-interval TCP round trips over the run's duration, summarized with
// the shared statistics kernel.
package latency

import (
	"context"
	"math"
	"net"
	"sort"
	"time"

	"github.com/dmitriimaksimovdevelop/nelst/internal/model"
	"github.com/dmitriimaksimovdevelop/nelst/internal/nelsterr"
	"github.com/dmitriimaksimovdevelop/nelst/internal/stats"
)

// Args configures a latency benchmark run.
type Args struct {
	Target      string
	Duration    time.Duration
	Interval    time.Duration
	Timeout     time.Duration
	Histogram   bool
}

const pingPayload = "PING"

// Run repeatedly connects to Args.Target at Args.Interval for Args.Duration,
// recording the round-trip time of each successful attempt.
func Run(ctx context.Context, args Args) (model.LatencyResult, error) {
	if args.Interval <= 0 {
		return model.LatencyResult{}, nelsterr.Argument("interval must be positive")
	}

	var samplesMs []float64
	successCount, failureCount := 0, 0

	start := time.Now()
	deadline := start.Add(args.Duration)
	ticker := time.NewTicker(args.Interval)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			goto done
		case <-ticker.C:
		}

		elapsedMs, err := attempt(ctx, args.Target, args.Timeout)
		if err != nil {
			failureCount++
			continue
		}
		successCount++
		samplesMs = append(samplesMs, elapsedMs)
	}
done:

	count := successCount + failureCount
	result := model.LatencyResult{
		Target:       args.Target,
		DurationSecs: uint64(time.Since(start).Seconds()),
		IntervalMs:   uint64(args.Interval.Milliseconds()),
		Count:        count,
		SuccessCount: successCount,
		FailureCount: failureCount,
		Latencies:    samplesMs,
		Outliers:     stats.DetectOutliers(samplesMs),
	}
	if count > 0 {
		result.SuccessRate = float64(successCount) / float64(count) * 100
	}
	if len(samplesMs) > 0 {
		result.MinMs, result.MaxMs, result.AvgMs, result.StddevMs = summarize(samplesMs)
		sorted := make([]float64, len(samplesMs))
		copy(sorted, samplesMs)
		sort.Float64s(sorted)
		result.P50Ms = stats.Percentile(sorted, 50)
		result.P95Ms = stats.Percentile(sorted, 95)
		result.P99Ms = stats.Percentile(sorted, 99)
	}
	if args.Histogram {
		result.Histogram = stats.Histogram(samplesMs)
	}
	return result, nil
}

func attempt(ctx context.Context, target string, timeout time.Duration) (float64, error) {
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	var d net.Dialer
	conn, err := d.DialContext(dialCtx, "tcp", target)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(pingPayload)); err != nil {
		return 0, err
	}

	_ = conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	buf := make([]byte, 4)
	conn.Read(buf) // response is optional; RTT is the measurement either way

	return float64(time.Since(start).Microseconds()) / 1000.0, nil
}

func summarize(samples []float64) (minV, maxV, avg, stddev float64) {
	minV, maxV = samples[0], samples[0]
	var sum float64
	for _, v := range samples {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
		sum += v
	}
	avg = sum / float64(len(samples))

	var sqDiff float64
	for _, v := range samples {
		d := v - avg
		sqDiff += d * d
	}
	stddev = math.Sqrt(sqDiff / float64(len(samples)))
	return
}
