// Package traffic implements the TCP/UDP traffic load engine: repeated
// Send/Echo/Recv probes against a target, run through the shared
// duration-bounded scheduler.
package traffic

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/dmitriimaksimovdevelop/nelst/internal/model"
	"github.com/dmitriimaksimovdevelop/nelst/internal/nelsterr"
	"github.com/dmitriimaksimovdevelop/nelst/internal/scheduler"
	"github.com/dmitriimaksimovdevelop/nelst/internal/stats"
)

// Mode selects what each probe does with the connection.
type Mode int

const (
	ModeSend Mode = iota
	ModeEcho
	ModeRecv
)

// Args configures a traffic load run.
type Args struct {
	Target      string
	Protocol    string // "tcp" or "udp"
	Duration    time.Duration
	Concurrency int
	Size        int
	Mode        Mode
	RatePerSec  float64
	Timeout     time.Duration
}

// fillBuffer is the shared static send payload, capped at 64 KiB and
// filled with 'A' (0x41), matching the original tool's static buffer.
var fillBuffer = func() []byte {
	buf := make([]byte, 64*1024)
	for i := range buf {
		buf[i] = 0x41
	}
	return buf
}()

// Run drives Args.Concurrency workers performing Args.Mode repeatedly
// against Args.Target for Args.Duration.
func Run(ctx context.Context, args Args) (model.LoadTestResult, error) {
	if args.Protocol != "tcp" && args.Protocol != "udp" {
		return model.LoadTestResult{}, nelsterr.Argument("unsupported protocol: %s", args.Protocol)
	}
	if args.Size <= 0 || args.Size > len(fillBuffer) {
		return model.LoadTestResult{}, nelsterr.Argument("size must be between 1 and %d", len(fillBuffer))
	}

	start := time.Now()
	counters := &scheduler.Counters{}
	latencies := stats.NewCollector()
	var latencyMu sync.Mutex

	cfg := scheduler.DurationBoundedConfig{
		Concurrency:   args.Concurrency,
		Duration:      args.Duration,
		RatePerWorker: args.RatePerSec,
		Timeout:       args.Timeout,
		Probe: func(probeCtx context.Context) scheduler.ProbeResult {
			return runOneProbe(probeCtx, args)
		},
	}

	scheduler.RunDurationBounded(ctx, cfg, counters, latencies, &latencyMu)

	elapsed := time.Since(start).Seconds()
	result := model.LoadTestResult{
		Target:             args.Target,
		Protocol:           args.Protocol,
		DurationSecs:       elapsed,
		TotalRequests:      counters.Total,
		SuccessfulRequests: counters.Success,
		FailedRequests:     counters.Failed,
		BytesSent:          counters.BytesSent,
		BytesReceived:      counters.BytesReceived,
	}
	if elapsed > 0 {
		result.ThroughputRPS = float64(counters.Total) / elapsed
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

func runOneProbe(ctx context.Context, args Args) scheduler.ProbeResult {
	switch args.Mode {
	case ModeSend:
		return probeSend(ctx, args)
	case ModeEcho:
		return probeEcho(ctx, args)
	default:
		return probeRecv(ctx, args)
	}
}

func dial(ctx context.Context, args Args) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, args.Protocol, args.Target)
}

func probeSend(ctx context.Context, args Args) scheduler.ProbeResult {
	start := time.Now()
	conn, err := dial(ctx, args)
	if err != nil {
		return scheduler.ProbeResult{Err: err}
	}
	defer conn.Close()

	n, err := conn.Write(fillBuffer[:args.Size])
	if err != nil {
		return scheduler.ProbeResult{Err: err}
	}
	return scheduler.ProbeResult{Sent: n, Latency: time.Since(start)}
}

func probeEcho(ctx context.Context, args Args) scheduler.ProbeResult {
	start := time.Now()
	conn, err := dial(ctx, args)
	if err != nil {
		return scheduler.ProbeResult{Err: err}
	}
	defer conn.Close()

	n, err := conn.Write(fillBuffer[:args.Size])
	if err != nil {
		return scheduler.ProbeResult{Err: err}
	}

	buf := make([]byte, args.Size)
	read, err := conn.Read(buf)
	if err != nil {
		return scheduler.ProbeResult{Err: err}
	}
	return scheduler.ProbeResult{Sent: n, Received: read, Latency: time.Since(start)}
}

func probeRecv(ctx context.Context, args Args) scheduler.ProbeResult {
	start := time.Now()
	conn, err := dial(ctx, args)
	if err != nil {
		return scheduler.ProbeResult{Err: err}
	}
	defer conn.Close()

	sent := 0
	if args.Protocol == "udp" {
		n, err := conn.Write([]byte{0})
		if err != nil {
			return scheduler.ProbeResult{Err: err}
		}
		sent = n
	}

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, args.Size)
	read, err := conn.Read(buf)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return scheduler.ProbeResult{Err: nelsterr.Timeout("recv timed out")}
		}
		return scheduler.ProbeResult{Err: err}
	}
	return scheduler.ProbeResult{Sent: sent, Received: read, Latency: time.Since(start)}
}
