package diag

import (
	"net"
	"time"

	"golang.org/x/sys/unix"

	"github.com/dmitriimaksimovdevelop/nelst/internal/model"
	"github.com/dmitriimaksimovdevelop/nelst/internal/nelsterr"
	"github.com/dmitriimaksimovdevelop/nelst/internal/rawsock"
)

// MTUArgs configures a path-MTU discovery run.
type MTUArgs struct {
	Target  string
	MinMTU  int
	MaxMTU  int
	Timeout time.Duration
}

const ipv4Overhead = 28

// RunMTU binary-searches [args.MinMTU, args.MaxMTU] for the largest MTU
// (IP packet size) whose ICMP echo reaches args.Target without fragmentation, forcing the
// Don't-Fragment bit via IP_MTU_DISCOVER the way the original tool does.
func RunMTU(args MTUArgs) (model.MtuResult, error) {
	resolved, err := net.ResolveIPAddr("ip4", args.Target)
	if err != nil {
		return model.MtuResult{}, nelsterr.ConnectionWithSource("failed to resolve target for MTU discovery", err)
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, unix.IPPROTO_ICMP)
	if err != nil {
		return model.MtuResult{}, nelsterr.PermissionWithHint(
			"MTU discovery requires a raw/datagram ICMP socket",
			"Run with 'sudo nelst diag mtu ...'",
		)
	}
	defer unix.Close(fd)

	if err := unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_MTU_DISCOVER, unix.IP_PMTUDISC_DO); err != nil {
		return model.MtuResult{}, nelsterr.IOWithContext("failed to set IP_MTU_DISCOVER", err)
	}

	start := time.Now()
	var probes []model.MtuProbe

	probeSize := func(size int) model.MtuProbe {
		ok, rttMs := tryMTUSize(fd, resolved.IP, size, args.Timeout)
		probe := model.MtuProbe{MtuSize: size, Success: ok}
		if ok {
			probe.RTTMs = &rttMs
		}
		probes = append(probes, probe)
		return probe
	}

	maxProbe := probeSize(args.MaxMTU)
	if maxProbe.Success {
		return model.MtuResult{
			Target:          args.Target,
			ResolvedIP:      resolved.String(),
			PathMTU:         args.MaxMTU,
			MinTested:       args.MinMTU,
			MaxTested:       args.MaxMTU,
			DiscoveryTimeMs: float64(time.Since(start).Microseconds()) / 1000.0,
			Probes:          probes,
		}, nil
	}

	minProbe := probeSize(args.MinMTU)
	if !minProbe.Success {
		return model.MtuResult{
			Target:          args.Target,
			ResolvedIP:      resolved.String(),
			PathMTU:         0,
			MinTested:       args.MinMTU,
			MaxTested:       args.MaxMTU,
			DiscoveryTimeMs: float64(time.Since(start).Microseconds()) / 1000.0,
			Probes:          probes,
		}, nil
	}

	low, high := args.MinMTU, args.MaxMTU
	pathMTU := low
	for low+1 < high {
		mid := (low + high) / 2
		probe := probeSize(mid)
		if probe.Success {
			low = mid
			pathMTU = mid
		} else {
			high = mid
		}
	}

	return model.MtuResult{
		Target:          args.Target,
		ResolvedIP:      resolved.String(),
		PathMTU:         pathMTU,
		MinTested:       args.MinMTU,
		MaxTested:       args.MaxMTU,
		DiscoveryTimeMs: float64(time.Since(start).Microseconds()) / 1000.0,
		Probes:          probes,
	}, nil
}

func tryMTUSize(fd int, target net.IP, mtuSize int, timeout time.Duration) (bool, float64) {
	payloadSize := mtuSize - ipv4Overhead
	if payloadSize < 8 {
		return false, 0
	}

	payload := make([]byte, payloadSize)
	packet := buildICMPEcho(payload)

	var addr unix.SockaddrInet4
	copy(addr.Addr[:], target.To4())

	start := time.Now()
	if err := unix.Sendto(fd, packet, 0, &addr); err != nil {
		return false, 0
	}

	tv := unix.NsecToTimeval(timeout.Nanoseconds())
	_ = unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv)

	buf := make([]byte, 65536)
	_, _, err := unix.Recvfrom(fd, buf, 0)
	if err != nil {
		return false, 0
	}
	return true, float64(time.Since(start).Microseconds()) / 1000.0
}

// buildICMPEcho constructs a minimal 8-byte-header ICMP echo request with
// the given payload and a correct checksum, reusing the checksum algorithm
// shared with the raw-socket scan engines.
func buildICMPEcho(payload []byte) []byte {
	packet := make([]byte, 8+len(payload))
	packet[0] = 8 // type: echo request
	packet[1] = 0 // code
	// packet[2:4] checksum, filled below
	packet[4] = 0 // identifier high byte
	packet[5] = 1 // identifier low byte
	packet[6] = 0 // sequence high byte
	packet[7] = 1 // sequence low byte
	copy(packet[8:], payload)

	checksum := rawsock.ICMPChecksum(packet)
	packet[2] = byte(checksum >> 8)
	packet[3] = byte(checksum)
	return packet
}
