// Package model defines the stable result record shapes produced by every
// probe engine. These types are serialized to JSON (and rendered through the
// report formatters) and are the only thing external collaborators ever see
// — engines never leak internal scheduler or socket state across this
// boundary.
// Schema version: 1.0.0
package model

// --- Scan (component D) ---

// PortState is the outcome of probing a single port.
type PortState int

const (
	PortOpen PortState = iota
	PortClosed
	PortFiltered
)

func (s PortState) String() string {
	switch s {
	case PortOpen:
		return "open"
	case PortClosed:
		return "closed"
	case PortFiltered:
		return "filtered"
	default:
		return "unknown"
	}
}

func (s PortState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// PortResult is one scanned port's outcome plus an optional service label.
type PortResult struct {
	Port    uint16  `json:"port"`
	State   PortState `json:"state"`
	Service *string `json:"service,omitempty"`
}

// ScanSummary tallies the port states seen during a scan.
type ScanSummary struct {
	TotalScanned int `json:"total_scanned"`
	Open         int `json:"open"`
	Closed       int `json:"closed"`
	Filtered     int `json:"filtered"`
}

// ScanResult is the complete output of a `scan port` run.
type ScanResult struct {
	Target       string       `json:"target"`
	Method       string       `json:"method"`
	ScanTime     string       `json:"scan_time"`
	DurationSecs float64      `json:"duration_secs"`
	Ports        []PortResult `json:"ports"`
	Summary      ScanSummary  `json:"summary"`
}

// --- Load engines (components E, F, G) ---

// LatencyStatsJSON mirrors stats.LatencyStats for embedding in a
// LoadTestResult without introducing a cross-package import cycle in
// callers that only need the shape.
type LatencyStatsJSON struct {
	MinUs float64 `json:"min_us"`
	MaxUs float64 `json:"max_us"`
	AvgUs float64 `json:"avg_us"`
	P50Us float64 `json:"p50_us"`
	P95Us float64 `json:"p95_us"`
	P99Us float64 `json:"p99_us"`
}

// LoadTestResult is the common result shape for traffic, HTTP, and
// connection load runs.
type LoadTestResult struct {
	Target              string             `json:"target"`
	Protocol            string             `json:"protocol"`
	DurationSecs        float64            `json:"duration_secs"`
	TotalRequests       uint64             `json:"total_requests"`
	SuccessfulRequests  uint64             `json:"successful_requests"`
	FailedRequests      uint64             `json:"failed_requests"`
	ThroughputRPS       float64            `json:"throughput_rps"`
	BytesSent           uint64             `json:"bytes_sent"`
	BytesReceived       uint64             `json:"bytes_received"`
	Latency             *LatencyStatsJSON  `json:"latency,omitempty"`
}

// SuccessRate returns the percentage of successful requests, 0 when no
// requests were made.
func (r LoadTestResult) SuccessRate() float64 {
	if r.TotalRequests == 0 {
		return 0
	}
	return 100 * float64(r.SuccessfulRequests) / float64(r.TotalRequests)
}

// --- Bandwidth (component H) ---

// DirectionResult is one direction (upload or download) of a bandwidth run.
type DirectionResult struct {
	BytesTransferred uint64    `json:"bytes_transferred"`
	BandwidthMbps    float64   `json:"bandwidth_mbps"`
	PeakMbps         float64   `json:"peak_mbps"`
	JitterMs         float64   `json:"jitter_ms"`
	PerSecondMbps    []float64 `json:"per_second_mbps"`
}

// BandwidthResult is the complete output of a `bench bandwidth` run.
type BandwidthResult struct {
	Mode         string           `json:"mode"`
	Target       *string          `json:"target,omitempty"`
	Bind         *string          `json:"bind,omitempty"`
	DurationSecs uint64           `json:"duration_secs"`
	Upload       *DirectionResult `json:"upload,omitempty"`
	Download     *DirectionResult `json:"download,omitempty"`
}

// --- Latency benchmark (component I) ---

// LatencyResult is the richer record produced by `bench latency`: the raw
// sample sequence, histogram, and outlier indices, in addition to the
// summary statistics.
type LatencyResult struct {
	Target        string         `json:"target"`
	DurationSecs  uint64         `json:"duration_secs"`
	IntervalMs    uint64         `json:"interval_ms"`
	Count         int            `json:"count"`
	SuccessCount  int            `json:"success_count"`
	FailureCount  int            `json:"failure_count"`
	SuccessRate   float64        `json:"success_rate"`
	MinMs         float64        `json:"min_ms"`
	MaxMs         float64        `json:"max_ms"`
	AvgMs         float64        `json:"avg_ms"`
	P50Ms         float64        `json:"p50_ms"`
	P95Ms         float64        `json:"p95_ms"`
	P99Ms         float64        `json:"p99_ms"`
	StddevMs      float64        `json:"stddev_ms"`
	Histogram     map[string]int `json:"histogram,omitempty"`
	Latencies     []float64      `json:"latencies"`
	Outliers      []int          `json:"outliers"`
}

// --- Ping (component J) ---

// PingResult is the complete output of a `diag ping` run.
type PingResult struct {
	Target      string     `json:"target"`
	ResolvedIP  string     `json:"resolved_ip"`
	Mode        string     `json:"mode"`
	Transmitted int        `json:"transmitted"`
	Received    int        `json:"received"`
	PacketLoss  float64    `json:"packet_loss"`
	MinRTTMs    float64    `json:"min_rtt_ms"`
	MaxRTTMs    float64    `json:"max_rtt_ms"`
	AvgRTTMs    float64    `json:"avg_rtt_ms"`
	StddevRTTMs float64    `json:"stddev_rtt_ms"`
	RTTs        []*float64 `json:"rtts"`
}

// --- Traceroute (component J) ---

// Hop is one TTL step of a traceroute.
type Hop struct {
	TTL           uint8      `json:"ttl"`
	Address       *string    `json:"address,omitempty"`
	Hostname      *string    `json:"hostname,omitempty"`
	RTTs          []*float64 `json:"rtts"`
	IsDestination bool       `json:"is_destination"`
}

// TraceResult is the complete output of a `diag trace` run.
type TraceResult struct {
	Target             string `json:"target"`
	ResolvedIP         string `json:"resolved_ip"`
	Mode               string `json:"mode"`
	MaxHops            uint8  `json:"max_hops"`
	Hops               []Hop  `json:"hops"`
	ReachedDestination bool   `json:"reached_destination"`
	TotalHops          uint8  `json:"total_hops"`
}

// --- MTU (component J) ---

// MtuProbe is one size tried during PMTU binary search.
type MtuProbe struct {
	MtuSize int      `json:"mtu_size"`
	Success bool     `json:"success"`
	RTTMs   *float64 `json:"rtt_ms,omitempty"`
}

// MtuResult is the complete output of a `diag mtu` run.
type MtuResult struct {
	Target           string     `json:"target"`
	ResolvedIP       string     `json:"resolved_ip"`
	PathMTU          int        `json:"path_mtu"`
	MinTested        int        `json:"min_tested"`
	MaxTested        int        `json:"max_tested"`
	DiscoveryTimeMs  float64    `json:"discovery_time_ms"`
	Probes           []MtuProbe `json:"probes"`
}

// --- DNS (component J) ---

// DnsRecord is one resolved record of any supported type.
type DnsRecord struct {
	RecordType string `json:"record_type"`
	Value      string `json:"value"`
	TTL        uint32 `json:"ttl"`
}

// DnsResult is the complete output of a `diag dns` run.
type DnsResult struct {
	Query         string      `json:"query"`
	QueryType     string      `json:"query_type"`
	DNSServer     *string     `json:"dns_server,omitempty"`
	Protocol      string      `json:"protocol"`
	ResolveTimeMs float64     `json:"resolve_time_ms"`
	Records       []DnsRecord `json:"records"`
	Error         *string     `json:"error,omitempty"`
}

// --- Service detection & TLS inspection (component L) ---

// ServiceInfo is the outcome of banner-grab based service identification.
type ServiceInfo struct {
	Port    uint16  `json:"port"`
	Name    string  `json:"name"`
	Version *string `json:"version,omitempty"`
	Banner  *string `json:"banner,omitempty"`
	Product *string `json:"product,omitempty"`
}

// CertificateInfo describes a single certificate in a TLS chain.
type CertificateInfo struct {
	Subject               string   `json:"subject"`
	Issuer                string   `json:"issuer"`
	SerialNumber          string   `json:"serial_number"`
	NotBefore             string   `json:"not_before"`
	NotAfter              string   `json:"not_after"`
	IsExpired             bool     `json:"is_expired"`
	DaysUntilExpiry       int64    `json:"days_until_expiry"`
	SAN                   []string `json:"san"`
	SignatureAlgorithm    string   `json:"signature_algorithm"`
	PublicKeyAlgorithm    string   `json:"public_key_algorithm"`
	PublicKeyBits         *uint32  `json:"public_key_bits,omitempty"`
}

// SslInfo is the complete output of a `scan port --ssl-check` inspection.
type SslInfo struct {
	Port        uint16           `json:"port"`
	TLSVersion  *string          `json:"tls_version,omitempty"`
	CipherSuite *string          `json:"cipher_suite,omitempty"`
	Certificate *CertificateInfo `json:"certificate,omitempty"`
	ChainLength int              `json:"chain_length"`
	IsValid     bool             `json:"is_valid"`
	Errors      []string         `json:"errors"`
}

// --- Profiles (N) ---

// Profile is a persisted, named invocation with its option map.
type Profile struct {
	Name           string                 `json:"name" toml:"name"`
	Description    string                 `json:"description" toml:"description"`
	CreatedAt      string                 `json:"created_at" toml:"created_at"`
	UpdatedAt      string                 `json:"updated_at" toml:"updated_at"`
	CommandType    string                 `json:"command_type" toml:"command_type"`
	SubcommandType string                 `json:"subcommand_type" toml:"subcommand_type"`
	Options        map[string]interface{} `json:"options" toml:"options"`
}

// ProfileInfo is the lighter summary shape used for listing profiles.
type ProfileInfo struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	CommandType    string `json:"command_type"`
	SubcommandType string `json:"subcommand_type"`
	UpdatedAt      string `json:"updated_at"`
}
