package scan

import (
	"context"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/dmitriimaksimovdevelop/nelst/internal/model"
	"github.com/dmitriimaksimovdevelop/nelst/internal/nelsterr"
	"github.com/dmitriimaksimovdevelop/nelst/internal/rawsock"
)

// RawArgs configures a raw SYN/FIN/Xmas/NULL scan.
type RawArgs struct {
	Target  string
	Ports   string
	Method  rawsock.Method
	Timeout time.Duration
}

// rawTransport is satisfied by a raw IPPROTO_TCP socket; it is narrowed to
// an interface so the receive loop and packet sends can be exercised by
// tests without opening an actual raw socket (which requires root).
type rawTransport interface {
	SendTo(packet []byte, destIP net.IP) error
	ReceiveTCP(deadline time.Time) (src net.IP, segment []byte, err error)
	Close() error
}

// RunRaw sends one raw TCP packet per target port with the flags
// appropriate to args.Method, then runs a 5-second bounded receive loop to
// interpret replies. It requires root (or CAP_NET_RAW) to open the
// underlying raw socket.
func RunRaw(ctx context.Context, args RawArgs, transport rawTransport) (model.ScanResult, error) {
	start := time.Now()

	if err := rawsock.CheckRootPrivileges(); err != nil {
		return model.ScanResult{}, err
	}

	ports, err := ParsePorts(args.Ports)
	if err != nil {
		return model.ScanResult{}, err
	}

	destIP := net.ParseIP(args.Target)
	if destIP == nil {
		resolved, err := net.ResolveIPAddr("ip4", args.Target)
		if err != nil {
			return model.ScanResult{}, nelsterr.ConnectionWithSource("failed to resolve target", err)
		}
		destIP = resolved.IP
	}
	if destIP.To4() == nil {
		return model.ScanResult{}, nelsterr.Argument("IPv6 is not supported for raw socket scanning")
	}

	localIP, err := rawsock.LocalIPv4(args.Target)
	if err != nil {
		return model.ScanResult{}, err
	}

	flags := args.Method.Flags()

	stateMap := make(map[uint16]model.PortState)
	var stateMu sync.Mutex

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		receiveResponses(transport, destIP, stateMap, &stateMu, args.Method)
	}()

	sourcePort := rawsock.RandomSourcePort()
	for _, port := range ports {
		packet := rawsock.BuildTCPPacket(localIP, sourcePort, destIP, port, flags, rawsock.RandomSeq())
		_ = transport.SendTo(packet, destIP)
		time.Sleep(100 * time.Microsecond)
	}

	select {
	case <-time.After(args.Timeout * 2):
	case <-ctx.Done():
	}
	wg.Wait()

	results := make([]model.PortResult, 0, len(ports))
	stateMu.Lock()
	for _, port := range ports {
		state, found := stateMap[port]
		if !found {
			state = defaultAbsentState(args.Method)
		}
		var service *string
		if state == model.PortOpen {
			if name, ok := ServiceName(port); ok {
				service = &name
			}
		}
		results = append(results, model.PortResult{Port: port, State: state, Service: service})
	}
	stateMu.Unlock()

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
		Method:       args.Method.Name(),
		ScanTime:     time.Now().Format("2006-01-02 15:04:05"),
		DurationSecs: time.Since(start).Seconds(),
		Ports:        results,
		Summary:      summary,
	}, nil
}

// defaultAbsentState is the state assigned to a port that produced no
// captured reply within the receive window: Filtered for SYN (no response
// to a SYN means the packet or its reply was dropped), Open for the
// FIN-family variants (RFC 793 says a closed port replies RST; silence on
// an open port is the expected, if ambiguous, outcome).
func defaultAbsentState(method rawsock.Method) model.PortState {
	if method == rawsock.MethodSyn {
		return model.PortFiltered
	}
	return model.PortOpen
}

func receiveResponses(transport rawTransport, targetIP net.IP, states map[uint16]model.PortState, mu *sync.Mutex, method rawsock.Method) {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		src, segment, err := transport.ReceiveTCP(time.Now().Add(100 * time.Millisecond))
		if err != nil {
			continue
		}
		if !src.Equal(targetIP) {
			continue
		}
		resp := rawsock.ParseTCPResponse(segment)
		state := determinePortState(resp, method)

		mu.Lock()
		states[resp.SourcePort] = state
		mu.Unlock()
	}
}

// determinePortState maps a captured reply to a PortState per scan flavor.
func determinePortState(resp rawsock.TCPResponse, method rawsock.Method) model.PortState {
	switch method {
	case rawsock.MethodSyn:
		if resp.IsSynAck {
			return model.PortOpen
		}
		if resp.IsRst {
			return model.PortClosed
		}
		return model.PortFiltered
	default: // Fin, Xmas, Null
		if resp.IsRst {
			return model.PortClosed
		}
		return model.PortOpen
	}
}
