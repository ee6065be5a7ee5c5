// Package diag implements the network diagnostics commands: ICMP/TCP ping,
// UDP/TCP/ICMP traceroute, DNS lookups, and path-MTU discovery.
package diag

import (
	"context"
	"math"
	"net"
	"strconv"
	"time"

	probing "github.com/prometheus-community/pro-bing"

	"github.com/dmitriimaksimovdevelop/nelst/internal/model"
	"github.com/dmitriimaksimovdevelop/nelst/internal/nelsterr"
)

// PingArgs configures a ping run.
type PingArgs struct {
	Target     string
	Port       int // used only by TCP ping mode; defaults to 80
	Count      int
	Interval   time.Duration
	Timeout    time.Duration
	Mode       string // "icmp" or "tcp"
	Privileged bool
}

// RunPing dispatches to the ICMP or TCP ping implementation per args.Mode.
func RunPing(ctx context.Context, args PingArgs) (model.PingResult, error) {
	switch args.Mode {
	case "tcp":
		return runTCPPing(ctx, args)
	default:
		return runICMPPing(ctx, args)
	}
}

// runICMPPing uses prometheus-community/pro-bing (a maintained wrapper over
// golang.org/x/net/icmp, matching the network-diagnostics ecosystem pattern
// this corpus follows) with a random identifier per run.
func runICMPPing(ctx context.Context, args PingArgs) (model.PingResult, error) {
	pinger, err := probing.NewPinger(args.Target)
	if err != nil {
		return model.PingResult{}, nelsterr.ConnectionWithSource("failed to resolve target for ping", err)
	}
	pinger.Count = args.Count
	pinger.Interval = args.Interval
	pinger.Timeout = args.Timeout * time.Duration(args.Count)
	if pinger.Timeout <= 0 {
		pinger.Timeout = args.Timeout
	}
	pinger.SetPrivileged(args.Privileged)

	if err := pinger.RunWithContext(ctx); err != nil {
		return model.PingResult{}, nelsterr.ConnectionWithSource("ping run failed", err)
	}

	st := pinger.Statistics()
	rtts := make([]*float64, 0, len(st.Rtts))
	for _, d := range st.Rtts {
		ms := float64(d.Microseconds()) / 1000.0
		rtts = append(rtts, &ms)
	}

	return model.PingResult{
		Target:      args.Target,
		ResolvedIP:  st.IPAddr.String(),
		Mode:        "icmp",
		Transmitted: st.PacketsSent,
		Received:    st.PacketsRecv,
		PacketLoss:  st.PacketLoss,
		MinRTTMs:    float64(st.MinRtt.Microseconds()) / 1000.0,
		MaxRTTMs:    float64(st.MaxRtt.Microseconds()) / 1000.0,
		AvgRTTMs:    float64(st.AvgRtt.Microseconds()) / 1000.0,
		StddevRTTMs: float64(st.StdDevRtt.Microseconds()) / 1000.0,
		RTTs:        rtts,
	}, nil
}

// runTCPPing measures per-sample TCP connect time in place of an ICMP echo,
// for environments without raw-socket privileges.
func runTCPPing(ctx context.Context, args PingArgs) (model.PingResult, error) {
	port := args.Port
	if port <= 0 {
		port = 80
	}
	resolved, err := net.ResolveTCPAddr("tcp", net.JoinHostPort(args.Target, strconv.Itoa(port)))
	if err != nil {
		return model.PingResult{}, nelsterr.ConnectionWithSource("failed to resolve target for TCP ping", err)
	}

	rtts := make([]*float64, 0, args.Count)
	transmitted, received := 0, 0

	ticker := time.NewTicker(args.Interval)
	defer ticker.Stop()

	for i := 0; i < args.Count; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				goto done
			case <-ticker.C:
			}
		}
		transmitted++

		dialCtx, cancel := context.WithTimeout(ctx, args.Timeout)
		start := time.Now()
		var d net.Dialer
		conn, err := d.DialContext(dialCtx, "tcp", resolved.String())
		cancel()
		if err != nil {
			continue
		}
		elapsedMs := float64(time.Since(start).Microseconds()) / 1000.0
		conn.Close()
		received++
		rtts = append(rtts, &elapsedMs)
	}
done:

	result := model.PingResult{
		Target:      args.Target,
		ResolvedIP:  resolved.IP.String(),
		Mode:        "tcp",
		Transmitted: transmitted,
		Received:    received,
		RTTs:        rtts,
	}
	if transmitted > 0 {
		result.PacketLoss = float64(transmitted-received) / float64(transmitted) * 100
	}
	if len(rtts) > 0 {
		result.MinRTTMs, result.MaxRTTMs, result.AvgRTTMs, result.StddevRTTMs = summarizeRTTs(rtts)
	}
	return result, nil
}

func summarizeRTTs(rtts []*float64) (minV, maxV, avg, stddev float64) {
	minV, maxV = *rtts[0], *rtts[0]
	var sum float64
	for _, r := range rtts {
		v := *r
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
		sum += v
	}
	avg = sum / float64(len(rtts))

	var sqDiff float64
	for _, r := range rtts {
		d := *r - avg
		sqDiff += d * d
	}
	stddev = math.Sqrt(sqDiff / float64(len(rtts)))
	return
}
