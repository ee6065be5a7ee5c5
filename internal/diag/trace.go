package diag

import (
	"context"
	"net"
	"syscall"
	"time"

	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"

	probing "github.com/prometheus-community/pro-bing"

	"github.com/dmitriimaksimovdevelop/nelst/internal/model"
	"github.com/dmitriimaksimovdevelop/nelst/internal/nelsterr"
)

// ttlControl returns a net.Dialer.Control hook that sets IP_TTL on the
// underlying socket before connect(), used by the TCP traceroute mode to
// limit how many hops an outbound SYN survives.
func ttlControl(ttl int) func(network, address string, c syscall.RawConn) error {
	return func(network, address string, c syscall.RawConn) error {
		var sockErr error
		err := c.Control(func(fd uintptr) {
			sockErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_TTL, ttl)
		})
		if err != nil {
			return err
		}
		return sockErr
	}
}

// TraceArgs configures a traceroute run.
type TraceArgs struct {
	Target  string
	MaxHops uint8
	Queries int
	Timeout time.Duration
	Mode    string // "udp", "tcp", or "icmp"
}

const traceBasePort = 33434

// RunTrace dispatches to the UDP, TCP, or ICMP traceroute implementation.
func RunTrace(ctx context.Context, args TraceArgs) (model.TraceResult, error) {
	resolved, err := net.ResolveIPAddr("ip4", args.Target)
	if err != nil {
		return model.TraceResult{}, nelsterr.ConnectionWithSource("failed to resolve target for traceroute", err)
	}

	switch args.Mode {
	case "tcp":
		return runTCPTrace(ctx, args, resolved)
	case "icmp":
		return runICMPTrace(ctx, args, resolved)
	default:
		return runUDPTrace(ctx, args, resolved)
	}
}

// runUDPTrace sends Queries UDP probes per TTL, incrementing the destination
// port each query so replies can be correlated, and reading any response
// (typically an ICMP Time-Exceeded or Port-Unreachable) with a deadline.
func runUDPTrace(ctx context.Context, args TraceArgs, target *net.IPAddr) (model.TraceResult, error) {
	icmpConn, err := net.ListenPacket("ip4:icmp", "0.0.0.0")
	if err != nil {
		return model.TraceResult{}, nelsterr.PermissionWithHint(
			"traceroute requires a raw ICMP socket to receive replies",
			"Run with 'sudo nelst diag trace ...'",
		)
	}
	defer icmpConn.Close()

	hops := make([]model.Hop, 0, args.MaxHops)
	reached := false

	for ttl := uint8(1); ttl <= args.MaxHops; ttl++ {
		select {
		case <-ctx.Done():
			goto finish
		default:
		}

		hop := model.Hop{TTL: ttl}
		var hopAddr net.Addr

		for q := 0; q < args.Queries; q++ {
			udpConn, err := net.ListenUDP("udp4", &net.UDPAddr{})
			if err != nil {
				continue
			}
			p := ipv4.NewConn(udpConn)
			_ = p.SetTTL(int(ttl))

			destPort := traceBasePort + int(ttl)*args.Queries + q
			dest := &net.UDPAddr{IP: target.IP, Port: destPort}

			start := time.Now()
			_, _ = udpConn.WriteTo([]byte{0}, dest)
			udpConn.Close()

			_ = icmpConn.SetReadDeadline(time.Now().Add(args.Timeout))
			buf := make([]byte, 512)
			_, addr, err := icmpConn.ReadFrom(buf)
			elapsedMs := float64(time.Since(start).Microseconds()) / 1000.0
			if err != nil {
				continue
			}
			hopAddr = addr
			rtt := elapsedMs
			hop.RTTs = append(hop.RTTs, &rtt)
		}

		if hopAddr != nil {
			addrStr := hopAddr.String()
			hop.Address = &addrStr
			if names, err := net.LookupAddr(addrStr); err == nil && len(names) > 0 {
				hop.Hostname = &names[0]
			}
			if addrStr == target.String() {
				hop.IsDestination = true
				reached = true
			}
		}

		hops = append(hops, hop)
		if reached {
			break
		}
	}
finish:

	return model.TraceResult{
		Target:             args.Target,
		ResolvedIP:         target.String(),
		Mode:               "udp",
		MaxHops:            args.MaxHops,
		Hops:               hops,
		ReachedDestination: reached,
		TotalHops:          uint8(len(hops)),
	}, nil
}

// runTCPTrace sets IP TTL on a connect-mode TCP socket per hop; a successful
// connect within the hop limit marks the destination reached.
func runTCPTrace(ctx context.Context, args TraceArgs, target *net.IPAddr) (model.TraceResult, error) {
	hops := make([]model.Hop, 0, args.MaxHops)
	reached := false

	for ttl := uint8(1); ttl <= args.MaxHops; ttl++ {
		hop := model.Hop{TTL: ttl}

		for q := 0; q < args.Queries; q++ {
			dialer := net.Dialer{
				Timeout: args.Timeout,
				Control: ttlControl(int(ttl)),
			}
			start := time.Now()
			conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(target.String(), "80"))
			elapsedMs := float64(time.Since(start).Microseconds()) / 1000.0
			if err != nil {
				continue
			}
			conn.Close()

			addrStr := target.String()
			hop.Address = &addrStr
			rtt := elapsedMs
			hop.RTTs = append(hop.RTTs, &rtt)
			hop.IsDestination = true
			reached = true
			break
		}

		hops = append(hops, hop)
		if reached {
			break
		}
	}

	return model.TraceResult{
		Target:             args.Target,
		ResolvedIP:         target.String(),
		Mode:               "tcp",
		MaxHops:            args.MaxHops,
		Hops:               hops,
		ReachedDestination: reached,
		TotalHops:          uint8(len(hops)),
	}, nil
}

// runICMPTrace is a best-effort traceroute driven by the ICMP ping library,
// which doesn't expose per-packet TTL control: it pings the destination
// directly and reports it as the sole hop. See the design notes for why
// this is a known, documented limitation rather than a full per-TTL trace.
func runICMPTrace(ctx context.Context, args TraceArgs, target *net.IPAddr) (model.TraceResult, error) {
	pinger, err := probing.NewPinger(target.String())
	if err != nil {
		return model.TraceResult{}, nelsterr.ConnectionWithSource("failed to resolve target for ICMP traceroute", err)
	}
	pinger.Count = args.Queries
	pinger.Timeout = args.Timeout * time.Duration(args.Queries)

	hop := model.Hop{TTL: args.MaxHops}
	reached := false
	if err := pinger.RunWithContext(ctx); err == nil {
		st := pinger.Statistics()
		if st.PacketsRecv > 0 {
			addrStr := target.String()
			hop.Address = &addrStr
			hop.IsDestination = true
			reached = true
			for _, d := range st.Rtts {
				ms := float64(d.Microseconds()) / 1000.0
				hop.RTTs = append(hop.RTTs, &ms)
			}
		}
	}

	return model.TraceResult{
		Target:             args.Target,
		ResolvedIP:         target.String(),
		Mode:               "icmp",
		MaxHops:            args.MaxHops,
		Hops:               []model.Hop{hop},
		ReachedDestination: reached,
		TotalHops:          1,
	}, nil
}
