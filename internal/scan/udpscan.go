package scan

import (
	"context"
	"net"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/dmitriimaksimovdevelop/nelst/internal/model"
)

// UDPArgs configures a UDP scan.
type UDPArgs struct {
	Target      string
	Ports       string
	Concurrency int
	Timeout     time.Duration
}

// RunUDP scans every port in args.Ports by sending a single 1-byte probe
// datagram and waiting 2x the timeout for a reply. UDP scanning is
// inherently ambiguous without an ICMP Port-Unreachable receive loop (not
// implemented here, matching the original tool's own deliberate
// simplification): silence is reported as Open rather than "open|filtered",
// and only an explicit connection refusal on the write/read path marks a
// port Closed.
func RunUDP(ctx context.Context, args UDPArgs) (model.ScanResult, error) {
	start := time.Now()

	ports, err := ParsePorts(args.Ports)
	if err != nil {
		return model.ScanResult{}, err
	}

	var mu sync.Mutex
	results := make([]model.PortResult, 0, len(ports))

	sem := make(chan struct{}, args.Concurrency)
	var wg sync.WaitGroup

	for _, port := range ports {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break
		}
		wg.Add(1)
		go func(port uint16) {
			defer wg.Done()
			defer func() { <-sem }()

			state := probeOneUDPPort(args.Target, port, args.Timeout)
			var service *string
			if state == model.PortOpen {
				if name, ok := ServiceName(port); ok {
					service = &name
				}
			}

			mu.Lock()
			results = append(results, model.PortResult{Port: port, State: state, Service: service})
			mu.Unlock()
		}(port)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Port < results[j].Port })

	summary := model.ScanSummary{TotalScanned: len(ports)}
	for _, r := range results {
		switch r.State {
		case model.PortOpen:
			summary.Open++
		case model.PortClosed:
			summary.Closed++
		case model.PortFiltered:
			summary.Filtered++
		}
	}

	return model.ScanResult{
		Target:       args.Target,
		Method:       "udp",
		ScanTime:     time.Now().Format("2006-01-02 15:04:05"),
		DurationSecs: time.Since(start).Seconds(),
		Ports:        results,
		Summary:      summary,
	}, nil
}

func probeOneUDPPort(target string, port uint16, timeout time.Duration) model.PortState {
	addr := net.JoinHostPort(target, strconv.Itoa(int(port)))
	conn, err := net.DialTimeout("udp", addr, timeout)
	if err != nil {
		return model.PortClosed
	}
	defer conn.Close()

	if _, err := conn.Write([]byte{0}); err != nil {
		return model.PortClosed
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * timeout))
	buf := make([]byte, 512)
	if _, err := conn.Read(buf); err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return model.PortOpen
		}
		return model.PortClosed
	}
	return model.PortOpen
}
