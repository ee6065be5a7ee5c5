// nelst — network diagnostics and load-testing toolkit.
//
// Five probe engines (port scan, connection-rate load, TCP/UDP traffic
// load, HTTP load, bandwidth/latency benchmarking) share a common
// concurrent scheduler; ping/traceroute/DNS/MTU diagnostics, service
// detection, and TLS inspection round out the toolkit.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitriimaksimovdevelop/nelst/internal/bandwidth"
	"github.com/dmitriimaksimovdevelop/nelst/internal/config"
	"github.com/dmitriimaksimovdevelop/nelst/internal/connload"
	"github.com/dmitriimaksimovdevelop/nelst/internal/diag"
	"github.com/dmitriimaksimovdevelop/nelst/internal/diagnostic"
	"github.com/dmitriimaksimovdevelop/nelst/internal/httpload"
	"github.com/dmitriimaksimovdevelop/nelst/internal/latency"
	"github.com/dmitriimaksimovdevelop/nelst/internal/mcp"
	"github.com/dmitriimaksimovdevelop/nelst/internal/model"
	"github.com/dmitriimaksimovdevelop/nelst/internal/nelsterr"
	"github.com/dmitriimaksimovdevelop/nelst/internal/profile"
	"github.com/dmitriimaksimovdevelop/nelst/internal/report"
	"github.com/dmitriimaksimovdevelop/nelst/internal/scan"
	"github.com/dmitriimaksimovdevelop/nelst/internal/testserver"
	"github.com/dmitriimaksimovdevelop/nelst/internal/tlsinspect"
	"github.com/dmitriimaksimovdevelop/nelst/internal/traffic"
)

var version = "0.1.0"

// global flags shared by every subcommand.
var (
	flagVerbose     bool
	flagQuiet       bool
	flagJSON        bool
	flagConfigPath  string
	flagProfileName string
	flagSaveProfile string
	flagFormat      string
	flagReportFile  string

	logger *diagnostic.Logger
	cfg    config.Config
)

// preScanConfigPath looks for an explicit --config value in the raw argument
// list before cobra parses flags, so the config file can seed subcommand
// flag defaults at command-construction time.
func preScanConfigPath(args []string) string {
	for i, a := range args {
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if strings.HasPrefix(a, "--config=") {
			return strings.TrimPrefix(a, "--config=")
		}
	}
	return ""
}

func main() {
	loaded, err := config.Load(preScanConfigPath(os.Args[1:]))
	if err != nil {
		fmt.Fprintln(os.Stderr, nelsterr.Format(err))
		os.Exit(int(nelsterr.ExitCodeFor(err)))
	}
	cfg = loaded

	rootCmd := &cobra.Command{
		Use:     "nelst",
		Short:   "Network diagnostics and load-testing toolkit",
		Version: version,
		Long: `nelst — single Go binary for network diagnostics and load testing.

Port scanning (TCP connect, raw SYN/FIN/Xmas/NULL, UDP), connection-rate
and TCP/UDP traffic and HTTP load generation, bandwidth and latency
benchmarking, and ping/traceroute/DNS/MTU diagnostics share a common
concurrent probe scheduler.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger = diagnostic.New(flagQuiet, flagVerbose)
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Shorthand for --format json")
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Config file path (default: ./nelst.toml or $HOME/.nelst/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flagProfileName, "profile", "", "Profile name (accepted; a saved profile's options are not applied to flags)")
	rootCmd.PersistentFlags().StringVar(&flagSaveProfile, "save-profile", "", "Save this invocation's flags under the given profile name")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "Output format: json, csv, html, markdown, text")
	rootCmd.PersistentFlags().StringVar(&flagReportFile, "report", "", "Write the rendered report to this file instead of stdout")

	rootCmd.AddCommand(
		newLoadCmd(),
		newScanCmd(),
		newServerCmd(),
		newDiagCmd(),
		newBenchCmd(),
		newProfileCmd(),
		newMCPCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, nelsterr.Format(err))
		os.Exit(int(nelsterr.ExitCodeFor(err)))
	}
}

// outputFormat resolves the effective report format: --json wins, else
// --format (default "text"); the config file does not set it.
func outputFormat() (report.Format, error) {
	if flagJSON {
		return report.FormatJSON, nil
	}
	return report.ParseFormat(flagFormat)
}

// emit renders data as JSON (the only format every result type supports
// generically) and writes it to --report or stdout. Non-JSON formats route
// through the caller-supplied sections, built per result type.
func emit(title string, data interface{}, sections []report.Section) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	gen := report.NewGenerator(title)
	var content string
	switch format {
	case report.FormatJSON:
		content, err = gen.ToJSON(data)
		if err != nil {
			return err
		}
	case report.FormatCSV:
		headers, rows := csvTable(sections)
		content, err = gen.ToCSV(headers, rows)
		if err != nil {
			return err
		}
	case report.FormatHTML:
		content = gen.ToHTML(sections)
	case report.FormatMarkdown:
		content = gen.ToMarkdown(sections)
	default:
		content = gen.ToText(sections)
	}

	if flagReportFile != "" {
		if err := os.WriteFile(flagReportFile, []byte(content), 0644); err != nil {
			return nelsterr.Config("failed to write report to %s: %v", flagReportFile, err)
		}
		return nil
	}
	fmt.Println(content)
	return nil
}

// csvTable extracts the first TableSection's headers/rows for --format csv.
// Most results are summary key/value pairs with one table (scan's port list,
// trace's hop list); when a result has no table at all, the first key/value
// section is rendered as a two-column "Field,Value" table instead.
func csvTable(sections []report.Section) ([]string, [][]string) {
	for _, s := range sections {
		if s.Content.Table != nil {
			return s.Content.Table.Headers, s.Content.Table.Rows
		}
	}
	for _, s := range sections {
		if s.Content.KeyValue != nil {
			rows := make([][]string, 0, len(s.Content.KeyValue))
			for _, kv := range s.Content.KeyValue {
				rows = append(rows, []string{kv[0], kv[1]})
			}
			return []string{"Field", "Value"}, rows
		}
	}
	return nil, nil
}

func maybeSaveProfile(commandType, subcommandType string, options map[string]interface{}) {
	if flagSaveProfile == "" {
		return
	}
	dir, err := config.ProfilesDir()
	if err != nil {
		logger.Warn("could not save profile: %v", err)
		return
	}
	mgr, err := profile.NewManager(dir)
	if err != nil {
		logger.Warn("could not save profile: %v", err)
		return
	}
	p := profile.New(flagSaveProfile, commandType, subcommandType, "")
	for k, v := range options {
		profile.SetOption(&p, k, v)
	}
	if err := mgr.Save(p); err != nil {
		logger.Warn("could not save profile %q: %v", flagSaveProfile, err)
	}
}

// --- load ---

func newLoadCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "load", Short: "Generate load against a target"}
	cmd.AddCommand(newLoadTrafficCmd(), newLoadConnectionCmd(), newLoadHTTPCmd())
	return cmd
}

func newLoadTrafficCmd() *cobra.Command {
	var (
		target      string
		protocol    string
		duration    time.Duration
		concurrency int
		size        int
		mode        string
		rate        float64
		timeout     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "traffic",
		Short: "TCP/UDP traffic load",
		RunE: func(cmd *cobra.Command, args []string) error {
			var m traffic.Mode
			switch mode {
			case "echo":
				m = traffic.ModeEcho
			case "recv":
				m = traffic.ModeRecv
			default:
				m = traffic.ModeSend
			}
			result, err := traffic.Run(cmd.Context(), traffic.Args{
				Target: target, Protocol: protocol, Duration: duration,
				Concurrency: concurrency, Size: size, Mode: m,
				RatePerSec: rate, Timeout: timeout,
			})
			if err != nil {
				return err
			}
			maybeSaveProfile("load", "traffic", map[string]interface{}{
				"target": target, "protocol": protocol, "concurrency": concurrency,
			})
			return emit("Traffic Load", result, loadTestSections(result))
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "host:port to send traffic to")
	cmd.Flags().StringVar(&protocol, "protocol", cfg.Load.Protocol, "tcp or udp")
	cmd.Flags().DurationVar(&duration, "duration", 10*time.Second, "how long to run")
	cmd.Flags().IntVar(&concurrency, "concurrency", 10, "number of worker goroutines")
	cmd.Flags().IntVar(&size, "size", 1024, "payload size in bytes")
	cmd.Flags().StringVar(&mode, "mode", "send", "send, echo, or recv")
	cmd.Flags().Float64Var(&rate, "rate", 0, "target requests/sec per worker, 0 for unlimited")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "per-probe timeout")
	cmd.MarkFlagRequired("target")
	return cmd
}

func newLoadConnectionCmd() *cobra.Command {
	var (
		target      string
		count       int
		concurrency int
		timeout     time.Duration
		keepAlive   bool
		holdFor     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "connection",
		Short: "Connection-rate load",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := connload.Run(cmd.Context(), connload.Args{
				Target: target, Count: count, Concurrency: concurrency,
				Timeout: timeout, KeepAlive: keepAlive, HoldFor: holdFor,
			})
			if err != nil {
				return err
			}
			return emit("Connection Load", result, loadTestSections(result))
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "host:port to connect to")
	cmd.Flags().IntVar(&count, "count", 100, "total connections to open")
	cmd.Flags().IntVar(&concurrency, "concurrency", 10, "max concurrent connection attempts")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "per-connection timeout")
	cmd.Flags().BoolVar(&keepAlive, "keep-alive", false, "hold successful connections open")
	cmd.Flags().DurationVar(&holdFor, "duration", 5*time.Second, "how long to hold keep-alive connections open")
	cmd.MarkFlagRequired("target")
	return cmd
}

func newLoadHTTPCmd() *cobra.Command {
	var (
		url                 string
		method              string
		headers             []string
		body                string
		duration            time.Duration
		concurrency         int
		rate                float64
		insecure            bool
		followRedirects     bool
		timeout             time.Duration
		http2PriorKnowledge bool
	)
	cmd := &cobra.Command{
		Use:   "http",
		Short: "HTTP load",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := httpload.Run(cmd.Context(), httpload.Args{
				URL: url, Method: method, Headers: headers, Body: body,
				Duration: duration, Concurrency: concurrency, Timeout: timeout,
				RatePerSec: rate, Insecure: insecure,
				HTTP2PriorKnowledge: http2PriorKnowledge, FollowRedirects: followRedirects,
			})
			if err != nil {
				return err
			}
			maybeSaveProfile("load", "http", map[string]interface{}{
				"url": url, "method": method, "headers": headerFlagsToMap(headers),
			})
			return emit("HTTP Load", result, loadTestSections(result))
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "target URL")
	cmd.Flags().StringVar(&method, "method", "GET", "HTTP method")
	cmd.Flags().StringArrayVar(&headers, "header", nil, `extra header as "Name: Value" (repeatable)`)
	cmd.Flags().StringVar(&body, "body", "", "literal body, or @/path/to/file")
	cmd.Flags().DurationVar(&duration, "duration", 10*time.Second, "how long to run")
	cmd.Flags().IntVar(&concurrency, "concurrency", 10, "number of worker goroutines")
	cmd.Flags().Float64Var(&rate, "rate", 0, "target requests/sec per worker, 0 for unlimited")
	cmd.Flags().BoolVar(&insecure, "insecure", false, "skip TLS certificate verification")
	cmd.Flags().BoolVar(&followRedirects, "follow-redirects", false, "follow HTTP redirects")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "per-request timeout")
	cmd.Flags().BoolVar(&http2PriorKnowledge, "http2", false, "use HTTP/2 prior-knowledge cleartext")
	cmd.MarkFlagRequired("url")
	return cmd
}

func loadTestSections(r model.LoadTestResult) []report.Section {
	kv := [][2]string{
		{"Target", r.Target},
		{"Protocol", r.Protocol},
		{"Duration (s)", fmt.Sprintf("%.2f", r.DurationSecs)},
		{"Total requests", strconv.FormatUint(r.TotalRequests, 10)},
		{"Successful", strconv.FormatUint(r.SuccessfulRequests, 10)},
		{"Failed", strconv.FormatUint(r.FailedRequests, 10)},
		{"Success rate (%)", fmt.Sprintf("%.2f", r.SuccessRate())},
		{"Throughput (req/s)", fmt.Sprintf("%.2f", r.ThroughputRPS)},
		{"Bytes sent", strconv.FormatUint(r.BytesSent, 10)},
		{"Bytes received", strconv.FormatUint(r.BytesReceived, 10)},
	}
	if r.Latency != nil {
		kv = append(kv,
			[2]string{"Latency min (us)", fmt.Sprintf("%.0f", r.Latency.MinUs)},
			[2]string{"Latency avg (us)", fmt.Sprintf("%.0f", r.Latency.AvgUs)},
			[2]string{"Latency p95 (us)", fmt.Sprintf("%.0f", r.Latency.P95Us)},
			[2]string{"Latency p99 (us)", fmt.Sprintf("%.0f", r.Latency.P99Us)},
			[2]string{"Latency max (us)", fmt.Sprintf("%.0f", r.Latency.MaxUs)},
		)
	}
	return []report.Section{report.KeyValueSection("Summary", kv)}
}

// --- scan ---

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "scan", Short: "Port scanning"}
	cmd.AddCommand(newScanPortCmd())
	return cmd
}

func newScanPortCmd() *cobra.Command {
	var (
		target           string
		method           string
		ports            string
		concurrency      int
		timeout          time.Duration
		serviceDetection bool
		grabBanner       bool
		sslCheck         bool
	)
	cmd := &cobra.Command{
		Use:   "port",
		Short: "Scan a range of ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := scan.Run(cmd.Context(), scan.Args{
				Target: target, Ports: ports, Method: method,
				Concurrency: concurrency, Timeout: timeout,
			})
			if err != nil {
				return err
			}

			var serviceInfo []model.ServiceInfo
			var sslInfo []model.SslInfo
			if serviceDetection || grabBanner {
				for _, p := range result.Ports {
					if p.State != model.PortOpen {
						continue
					}
					if info, err := tlsinspect.DetectService(target, p.Port, timeout); err == nil {
						serviceInfo = append(serviceInfo, info)
					}
				}
			}
			if sslCheck {
				for _, p := range result.Ports {
					if p.State != model.PortOpen {
						continue
					}
					if info, err := tlsinspect.InspectTLS(target, p.Port, timeout, false); err == nil {
						sslInfo = append(sslInfo, info)
					}
				}
			}

			type scanOutput struct {
				model.ScanResult
				Services []model.ServiceInfo `json:"services,omitempty"`
				TLS      []model.SslInfo     `json:"tls,omitempty"`
			}
			out := scanOutput{ScanResult: result, Services: serviceInfo, TLS: sslInfo}

			maybeSaveProfile("scan", "port", map[string]interface{}{
				"target": target, "method": method, "ports": ports,
			})
			return emit("Port Scan", out, scanSections(result))
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "host or IP to scan")
	cmd.Flags().StringVar(&method, "method", cfg.Scan.Method, "tcp, syn, fin, xmas, null, or udp")
	cmd.Flags().StringVar(&ports, "ports", cfg.Scan.Ports, "port range, e.g. 1-1024 or 22,80,443")
	cmd.Flags().IntVar(&concurrency, "concurrency", int(cfg.Scan.Concurrency), "max concurrent probes")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Second, "per-port timeout")
	cmd.Flags().BoolVar(&serviceDetection, "service-detection", false, "probe open ports for service identity")
	cmd.Flags().BoolVar(&grabBanner, "grab-banner", false, "alias for --service-detection")
	cmd.Flags().BoolVar(&sslCheck, "ssl-check", false, "inspect TLS on open ports")
	cmd.MarkFlagRequired("target")
	return cmd
}

func scanSections(r model.ScanResult) []report.Section {
	headers := []string{"Port", "State", "Service"}
	rows := make([][]string, 0, len(r.Ports))
	for _, p := range r.Ports {
		service := ""
		if p.Service != nil {
			service = *p.Service
		}
		rows = append(rows, []string{strconv.Itoa(int(p.Port)), p.State.String(), service})
	}
	summary := [][2]string{
		{"Target", r.Target},
		{"Method", r.Method},
		{"Scanned", strconv.Itoa(r.Summary.TotalScanned)},
		{"Open", strconv.Itoa(r.Summary.Open)},
		{"Closed", strconv.Itoa(r.Summary.Closed)},
		{"Filtered", strconv.Itoa(r.Summary.Filtered)},
	}
	return []report.Section{
		report.KeyValueSection("Summary", summary),
		report.TableSection("Ports", headers, rows),
	}
}

// --- server ---

func newServerCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "server", Short: "Run a local test server"}
	cmd.AddCommand(newServerEchoCmd(), newServerSinkCmd(), newServerFloodCmd(), newServerHTTPCmd())
	return cmd
}

// signalContext derives a cancelable context that's canceled on SIGINT or
// SIGTERM, so a long-running server command shuts down gracefully on Ctrl+C.
func signalContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

func runUntilSignal(name string, run func(ctx context.Context) error) error {
	ctx, stop := signalContext()
	defer stop()
	logger.Info("%s listening, press Ctrl+C to stop", name)
	return run(ctx)
}

func newServerEchoCmd() *cobra.Command {
	var bind, protocol string
	cmd := &cobra.Command{
		Use:   "echo",
		Short: "Echo server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUntilSignal("echo server", func(ctx context.Context) error {
				return testserver.RunEcho(ctx, testserver.EchoArgs{Bind: bind, Protocol: protocol})
			})
		},
	}
	cmd.Flags().StringVar(&bind, "bind", cfg.Server.Bind, "address to listen on")
	cmd.Flags().StringVar(&protocol, "protocol", cfg.Server.Protocol, "tcp or udp")
	return cmd
}

func newServerSinkCmd() *cobra.Command {
	var bind, protocol string
	cmd := &cobra.Command{
		Use:   "sink",
		Short: "Discard-everything server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUntilSignal("sink server", func(ctx context.Context) error {
				return testserver.RunSink(ctx, testserver.SinkArgs{Bind: bind, Protocol: protocol})
			})
		},
	}
	cmd.Flags().StringVar(&bind, "bind", cfg.Server.Bind, "address to listen on")
	cmd.Flags().StringVar(&protocol, "protocol", cfg.Server.Protocol, "tcp or udp")
	return cmd
}

func newServerFloodCmd() *cobra.Command {
	var bind string
	var size int
	cmd := &cobra.Command{
		Use:   "flood",
		Short: "Continuous-send server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUntilSignal("flood server", func(ctx context.Context) error {
				return testserver.RunFlood(ctx, testserver.FloodArgs{Bind: bind, Size: size})
			})
		},
	}
	cmd.Flags().StringVar(&bind, "bind", cfg.Server.Bind, "address to listen on")
	cmd.Flags().IntVar(&size, "size", 1024, "bytes per write")
	return cmd
}

func newServerHTTPCmd() *cobra.Command {
	var bind string
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Minimal HTTP test server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUntilSignal("HTTP server", func(ctx context.Context) error {
				return testserver.RunHTTP(ctx, testserver.HTTPArgs{Bind: bind})
			})
		},
	}
	cmd.Flags().StringVar(&bind, "bind", cfg.Server.Bind, "address to listen on")
	return cmd
}

// --- diag ---

func newDiagCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "diag", Short: "Network diagnostics"}
	cmd.AddCommand(newDiagPingCmd(), newDiagTraceCmd(), newDiagDNSCmd(), newDiagMTUCmd())
	return cmd
}

func newDiagPingCmd() *cobra.Command {
	var (
		target     string
		port       int
		count      int
		interval   time.Duration
		timeout    time.Duration
		mode       string
		privileged bool
	)
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "ICMP or TCP ping",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := diag.RunPing(cmd.Context(), diag.PingArgs{
				Target: target, Port: port, Count: count, Interval: interval,
				Timeout: timeout, Mode: mode, Privileged: privileged,
			})
			if err != nil {
				return err
			}
			return emit("Ping", result, pingSections(result))
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "host or IP to ping")
	cmd.Flags().IntVar(&port, "port", 80, "TCP port (tcp mode only)")
	cmd.Flags().IntVar(&count, "count", 4, "number of probes")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "delay between probes")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Second, "per-probe timeout")
	cmd.Flags().StringVar(&mode, "mode", "icmp", "icmp or tcp")
	cmd.Flags().BoolVar(&privileged, "privileged", false, "use a raw ICMP socket instead of a datagram socket")
	cmd.MarkFlagRequired("target")
	return cmd
}

func pingSections(r model.PingResult) []report.Section {
	kv := [][2]string{
		{"Target", r.Target},
		{"Resolved IP", r.ResolvedIP},
		{"Mode", r.Mode},
		{"Transmitted", strconv.Itoa(r.Transmitted)},
		{"Received", strconv.Itoa(r.Received)},
		{"Packet loss (%)", fmt.Sprintf("%.1f", r.PacketLoss)},
		{"Min RTT (ms)", fmt.Sprintf("%.3f", r.MinRTTMs)},
		{"Avg RTT (ms)", fmt.Sprintf("%.3f", r.AvgRTTMs)},
		{"Max RTT (ms)", fmt.Sprintf("%.3f", r.MaxRTTMs)},
		{"Stddev RTT (ms)", fmt.Sprintf("%.3f", r.StddevRTTMs)},
	}
	return []report.Section{report.KeyValueSection("Summary", kv)}
}

func newDiagTraceCmd() *cobra.Command {
	var (
		target  string
		maxHops int
		queries int
		timeout time.Duration
		mode    string
	)
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Traceroute",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := diag.RunTrace(cmd.Context(), diag.TraceArgs{
				Target: target, MaxHops: uint8(maxHops), Queries: queries,
				Timeout: timeout, Mode: mode,
			})
			if err != nil {
				return err
			}
			return emit("Traceroute", result, traceSections(result))
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "host or IP to trace")
	cmd.Flags().IntVar(&maxHops, "max-hops", 30, "maximum TTL to try")
	cmd.Flags().IntVar(&queries, "queries", 3, "probes per hop")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Second, "per-probe timeout")
	cmd.Flags().StringVar(&mode, "mode", "udp", "udp, tcp, or icmp")
	cmd.MarkFlagRequired("target")
	return cmd
}

func traceSections(r model.TraceResult) []report.Section {
	headers := []string{"TTL", "Address", "Hostname", "Destination"}
	rows := make([][]string, 0, len(r.Hops))
	for _, h := range r.Hops {
		addr, host := "*", ""
		if h.Address != nil {
			addr = *h.Address
		}
		if h.Hostname != nil {
			host = *h.Hostname
		}
		dest := ""
		if h.IsDestination {
			dest = "yes"
		}
		rows = append(rows, []string{strconv.Itoa(int(h.TTL)), addr, host, dest})
	}
	kv := [][2]string{
		{"Target", r.Target},
		{"Resolved IP", r.ResolvedIP},
		{"Mode", r.Mode},
		{"Reached destination", strconv.FormatBool(r.ReachedDestination)},
		{"Total hops", strconv.Itoa(int(r.TotalHops))},
	}
	return []report.Section{
		report.KeyValueSection("Summary", kv),
		report.TableSection("Hops", headers, rows),
	}
}

func newDiagDNSCmd() *cobra.Command {
	var query, queryType, server, protocol string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "dns",
		Short: "DNS lookup",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := diag.RunDNS(diag.DNSArgs{
				Query: query, QueryType: queryType, Server: server,
				Protocol: protocol, Timeout: timeout,
			})
			if err != nil {
				return err
			}
			return emit("DNS Lookup", result, dnsSections(result))
		},
	}
	cmd.Flags().StringVar(&query, "query", "", "name to resolve")
	cmd.Flags().StringVar(&queryType, "type", "A", "A, AAAA, MX, TXT, NS, CNAME, SOA, PTR, or ALL")
	cmd.Flags().StringVar(&server, "server", "", "DNS server host:port; empty uses the system resolver")
	cmd.Flags().StringVar(&protocol, "protocol", "udp", "udp or tcp")
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "query timeout")
	cmd.MarkFlagRequired("query")
	return cmd
}

func dnsSections(r model.DnsResult) []report.Section {
	headers := []string{"Type", "Value", "TTL"}
	rows := make([][]string, 0, len(r.Records))
	for _, rec := range r.Records {
		rows = append(rows, []string{rec.RecordType, rec.Value, strconv.FormatUint(uint64(rec.TTL), 10)})
	}
	server := "system resolver"
	if r.DNSServer != nil {
		server = *r.DNSServer
	}
	kv := [][2]string{
		{"Query", r.Query},
		{"Type", r.QueryType},
		{"Server", server},
		{"Resolve time (ms)", fmt.Sprintf("%.2f", r.ResolveTimeMs)},
	}
	return []report.Section{
		report.KeyValueSection("Summary", kv),
		report.TableSection("Records", headers, rows),
	}
}

func newDiagMTUCmd() *cobra.Command {
	var target string
	var minMTU, maxMTU int
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "mtu",
		Short: "Path MTU discovery",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := diag.RunMTU(diag.MTUArgs{
				Target: target, MinMTU: minMTU, MaxMTU: maxMTU, Timeout: timeout,
			})
			if err != nil {
				return err
			}
			return emit("MTU Discovery", result, mtuSections(result))
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "host or IP to probe")
	cmd.Flags().IntVar(&minMTU, "min", 68, "minimum MTU to test")
	cmd.Flags().IntVar(&maxMTU, "max", 1500, "maximum MTU to test")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Second, "per-probe timeout")
	cmd.MarkFlagRequired("target")
	return cmd
}

func mtuSections(r model.MtuResult) []report.Section {
	kv := [][2]string{
		{"Target", r.Target},
		{"Resolved IP", r.ResolvedIP},
		{"Path MTU", strconv.Itoa(r.PathMTU)},
		{"Min tested", strconv.Itoa(r.MinTested)},
		{"Max tested", strconv.Itoa(r.MaxTested)},
		{"Discovery time (ms)", fmt.Sprintf("%.2f", r.DiscoveryTimeMs)},
	}
	return []report.Section{report.KeyValueSection("Summary", kv)}
}

// --- bench ---

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "bench", Short: "Bandwidth and latency benchmarks"}
	cmd.AddCommand(newBenchBandwidthCmd(), newBenchLatencyCmd())
	return cmd
}

func newBenchBandwidthCmd() *cobra.Command {
	var (
		server    bool
		bind      string
		target    string
		direction string
		duration  time.Duration
		blockSize int
	)
	cmd := &cobra.Command{
		Use:   "bandwidth",
		Short: "Bandwidth benchmark (client or server)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if server {
				return runUntilSignal("bandwidth server", func(ctx context.Context) error {
					return testserver.RunBandwidthServer(ctx, testserver.BandwidthServerArgs{Bind: bind})
				})
			}

			var dir bandwidth.Direction
			switch direction {
			case "up":
				dir = bandwidth.DirectionUp
			case "down":
				dir = bandwidth.DirectionDown
			default:
				dir = bandwidth.DirectionBoth
			}
			result, err := bandwidth.RunClient(bandwidth.ClientArgs{
				Target: target, Direction: dir, Duration: duration, BlockSize: blockSize,
			})
			if err != nil {
				return err
			}
			return emit("Bandwidth Benchmark", result, bandwidthSections(result))
		},
	}
	cmd.Flags().BoolVar(&server, "server", false, "run the bandwidth server instead of the client")
	cmd.Flags().StringVar(&bind, "bind", cfg.Server.Bind, "address to listen on (server mode)")
	cmd.Flags().StringVar(&target, "target", "", "host:port to connect to (client mode)")
	cmd.Flags().StringVar(&direction, "direction", "both", "up, down, or both")
	cmd.Flags().DurationVar(&duration, "duration", 10*time.Second, "how long to run each direction")
	cmd.Flags().IntVar(&blockSize, "block-size", 128*1024, "bytes per transfer block")
	return cmd
}

func bandwidthSections(r model.BandwidthResult) []report.Section {
	kv := [][2]string{{"Mode", r.Mode}, {"Duration (s)", strconv.FormatUint(r.DurationSecs, 10)}}
	if r.Target != nil {
		kv = append(kv, [2]string{"Target", *r.Target})
	}
	if r.Upload != nil {
		kv = append(kv,
			[2]string{"Upload (Mbps)", fmt.Sprintf("%.2f", r.Upload.BandwidthMbps)},
			[2]string{"Upload peak (Mbps)", fmt.Sprintf("%.2f", r.Upload.PeakMbps)},
			[2]string{"Upload bytes", strconv.FormatUint(r.Upload.BytesTransferred, 10)},
		)
	}
	if r.Download != nil {
		kv = append(kv,
			[2]string{"Download (Mbps)", fmt.Sprintf("%.2f", r.Download.BandwidthMbps)},
			[2]string{"Download peak (Mbps)", fmt.Sprintf("%.2f", r.Download.PeakMbps)},
			[2]string{"Download bytes", strconv.FormatUint(r.Download.BytesTransferred, 10)},
		)
	}
	return []report.Section{report.KeyValueSection("Summary", kv)}
}

func newBenchLatencyCmd() *cobra.Command {
	var target string
	var duration, interval, timeout time.Duration
	var histogram bool
	cmd := &cobra.Command{
		Use:   "latency",
		Short: "Latency benchmark",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := latency.Run(cmd.Context(), latency.Args{
				Target: target, Duration: duration, Interval: interval,
				Timeout: timeout, Histogram: histogram,
			})
			if err != nil {
				return err
			}
			return emit("Latency Benchmark", result, latencySections(result))
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "host:port to probe")
	cmd.Flags().DurationVar(&duration, "duration", 10*time.Second, "how long to run")
	cmd.Flags().DurationVar(&interval, "interval", 100*time.Millisecond, "delay between probes")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Second, "per-probe timeout")
	cmd.Flags().BoolVar(&histogram, "histogram", false, "include a latency histogram in the result")
	cmd.MarkFlagRequired("target")
	return cmd
}

func latencySections(r model.LatencyResult) []report.Section {
	kv := [][2]string{
		{"Target", r.Target},
		{"Count", strconv.Itoa(r.Count)},
		{"Success", strconv.Itoa(r.SuccessCount)},
		{"Failed", strconv.Itoa(r.FailureCount)},
		{"Success rate (%)", fmt.Sprintf("%.2f", r.SuccessRate)},
		{"Min (ms)", fmt.Sprintf("%.3f", r.MinMs)},
		{"Avg (ms)", fmt.Sprintf("%.3f", r.AvgMs)},
		{"P95 (ms)", fmt.Sprintf("%.3f", r.P95Ms)},
		{"P99 (ms)", fmt.Sprintf("%.3f", r.P99Ms)},
		{"Max (ms)", fmt.Sprintf("%.3f", r.MaxMs)},
		{"Stddev (ms)", fmt.Sprintf("%.3f", r.StddevMs)},
	}
	return []report.Section{report.KeyValueSection("Summary", kv)}
}

// --- profile ---

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "profile", Short: "Manage saved invocation profiles"}
	cmd.AddCommand(
		newProfileListCmd(),
		newProfileDeleteCmd(),
		newProfileExportCmd(),
		newProfileImportCmd(),
	)
	return cmd
}

func openProfileManager() (*profile.Manager, error) {
	dir, err := config.ProfilesDir()
	if err != nil {
		return nil, err
	}
	return profile.NewManager(dir)
}

func newProfileListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openProfileManager()
			if err != nil {
				return err
			}
			list, err := mgr.List()
			if err != nil {
				return err
			}
			headers := []string{"Name", "Command", "Subcommand", "Description", "Updated"}
			rows := make([][]string, 0, len(list))
			for _, p := range list {
				rows = append(rows, []string{p.Name, p.CommandType, p.SubcommandType, p.Description, p.UpdatedAt})
			}
			return emit("Profiles", list, []report.Section{report.TableSection("Profiles", headers, rows)})
		},
	}
}

func newProfileDeleteCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a saved profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openProfileManager()
			if err != nil {
				return err
			}
			return mgr.Delete(name)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "profile name")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newProfileExportCmd() *cobra.Command {
	var name, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a saved profile to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openProfileManager()
			if err != nil {
				return err
			}
			return mgr.Export(name, output)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "profile name")
	cmd.Flags().StringVar(&output, "output", "", "destination file path")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("output")
	return cmd
}

func newProfileImportCmd() *cobra.Command {
	var input, newName string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a profile from a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openProfileManager()
			if err != nil {
				return err
			}
			imported, err := mgr.Import(input, newName)
			if err != nil {
				return err
			}
			fmt.Printf("imported profile %q\n", imported.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "source file path")
	cmd.Flags().StringVar(&newName, "name", "", "rename the imported profile")
	cmd.MarkFlagRequired("input")
	return cmd
}

// --- mcp ---

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start a Model Context Protocol server",
		Long: `Starts a JSON-RPC server implementing the Model Context Protocol (MCP),
exposing scan_ports, ping_host, run_http_load, and get_last_result tools so
an MCP client (e.g. Claude Desktop, Cursor) can drive nelst interactively.

Communication happens over standard input/output (stdio).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()
			srv := mcp.NewServer(version)
			return srv.Start(ctx)
		},
	}
}

// headerFlagsToMap turns repeated "Name: Value" --header flags into a map,
// used when persisting an HTTP load invocation into a profile.
func headerFlagsToMap(headers []string) map[string]string {
	out := make(map[string]string, len(headers))
	for _, h := range headers {
		parts := strings.SplitN(h, ":", 2)
		if len(parts) != 2 {
			continue
		}
		out[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return out
}
