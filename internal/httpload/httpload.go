// Package httpload implements the HTTP load engine: a shared pooled client
// driving repeated requests against a target URL through the duration-bounded
// scheduler, with optional HTTP/2 prior-knowledge cleartext support.
package httpload

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/http2"

	"github.com/dmitriimaksimovdevelop/nelst/internal/model"
	"github.com/dmitriimaksimovdevelop/nelst/internal/nelsterr"
	"github.com/dmitriimaksimovdevelop/nelst/internal/scheduler"
	"github.com/dmitriimaksimovdevelop/nelst/internal/stats"
)

// Args configures an HTTP load run.
type Args struct {
	URL             string
	Method          string
	Headers         []string // "Name: Value" pairs
	Body            string   // literal body, or "@/path/to/file"
	Duration        time.Duration
	Concurrency     int
	Timeout         time.Duration
	RatePerSec      float64
	Insecure        bool
	HTTP2PriorKnowledge bool
	FollowRedirects bool
}

// Run drives Args.Concurrency workers issuing Args.Method requests against
// Args.URL for Args.Duration.
func Run(ctx context.Context, args Args) (model.LoadTestResult, error) {
	headers, err := parseHeaders(args.Headers)
	if err != nil {
		return model.LoadTestResult{}, err
	}

	body, err := loadBody(args.Body)
	if err != nil {
		return model.LoadTestResult{}, err
	}

	client := buildClient(args)

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
			return doOneRequest(probeCtx, client, args, headers, body)
		},
	}

	scheduler.RunDurationBounded(ctx, cfg, counters, latencies, &latencyMu)

	elapsed := time.Since(start).Seconds()
	result := model.LoadTestResult{
		Target:             args.URL,
		Protocol:           "http",
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

// buildClient constructs a shared http.Client with a custom transport tuned
// for load-generation concurrency: a high per-host idle pool, a dialer with
// TCP_NODELAY and keep-alive, and optional HTTP/2 prior-knowledge cleartext.
func buildClient(args Args) *http.Client {
	maxIdle := args.Concurrency
	if maxIdle < 10 {
		maxIdle = 10
	}

	dialer := &net.Dialer{
		Timeout:   args.Timeout,
		KeepAlive: 60 * time.Second,
	}

	if args.HTTP2PriorKnowledge {
		transport := &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, cfg *tls.Config) (net.Conn, error) {
				return dialer.DialContext(ctx, network, addr)
			},
		}
		return &http.Client{Transport: transport}
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost: maxIdle,
		IdleConnTimeout:     30 * time.Second,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn, nil
		},
		TLSClientConfig: &tls.Config{InsecureSkipVerify: args.Insecure},
	}

	client := &http.Client{Transport: transport}
	if !args.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return client
}

func doOneRequest(ctx context.Context, client *http.Client, args Args, headers map[string]string, body []byte) scheduler.ProbeResult {
	start := time.Now()

	var bodyReader io.Reader
	if len(body) > 0 {
		bodyReader = strings.NewReader(string(body))
	}

	req, err := http.NewRequestWithContext(ctx, args.Method, args.URL, bodyReader)
	if err != nil {
		return scheduler.ProbeResult{Err: nelsterr.Argument("invalid request: %v", err)}
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return scheduler.ProbeResult{Err: err}
	}
	defer resp.Body.Close()

	received, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return scheduler.ProbeResult{Err: err}
	}

	latency := time.Since(start)
	if resp.StatusCode >= 500 {
		return scheduler.ProbeResult{
			Sent:     len(body),
			Received: int(received),
			Latency:  latency,
			Err:      nelsterr.Connection("server responded with a 5xx status"),
		}
	}

	return scheduler.ProbeResult{Sent: len(body), Received: int(received), Latency: latency}
}

// parseHeaders converts "Name: Value" strings into a name->value map,
// trimming whitespace on both sides. A token without a colon is an argument
// error.
func parseHeaders(raw []string) (map[string]string, error) {
	headers := make(map[string]string, len(raw))
	for _, entry := range raw {
		idx := strings.Index(entry, ":")
		if idx < 0 {
			return nil, nelsterr.Argument("invalid header (expected \"Name: Value\"): %s", entry)
		}
		name := strings.TrimSpace(entry[:idx])
		value := strings.TrimSpace(entry[idx+1:])
		headers[name] = value
	}
	return headers, nil
}

// loadBody resolves the request body source: a literal string, or a
// "@/path/to/file" reference read from disk at setup time.
func loadBody(source string) ([]byte, error) {
	if source == "" {
		return nil, nil
	}
	if strings.HasPrefix(source, "@") {
		path := source[1:]
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nelsterr.IOWithContext("failed to read request body file", err)
		}
		return data, nil
	}
	return []byte(source), nil
}
