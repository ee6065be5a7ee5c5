// Package rawsock implements the raw-socket substrate shared by the SYN,
// FIN, Xmas, and NULL scan engines: privilege checks, manual TCP packet
// construction with the pseudo-header checksum, and local-IP discovery.
package rawsock

import (
	"encoding/binary"
	"math/rand"
	"net"
	"os"
	"runtime"

	"github.com/dmitriimaksimovdevelop/nelst/internal/nelsterr"
)

// ScanFlags are the TCP flag bytes used by each raw scan variant.
type ScanFlags byte

const (
	FlagSYN  ScanFlags = 0x02
	FlagFIN  ScanFlags = 0x01
	FlagPSH  ScanFlags = 0x08
	FlagURG  ScanFlags = 0x20
	FlagACK  ScanFlags = 0x10
	FlagRST  ScanFlags = 0x04
	FlagXmas           = FlagFIN | FlagPSH | FlagURG
	FlagNull ScanFlags = 0
)

// Method names a raw-scan variant; Name() is the display label reported in
// scan results ("SYN", "FIN", "Xmas", "NULL"), not the lowercase --method value.
type Method int

const (
	MethodSyn Method = iota
	MethodFin
	MethodXmas
	MethodNull
)

func (m Method) Flags() ScanFlags {
	switch m {
	case MethodSyn:
		return FlagSYN
	case MethodFin:
		return FlagFIN
	case MethodXmas:
		return FlagXmas
	case MethodNull:
		return FlagNull
	default:
		return FlagSYN
	}
}

func (m Method) Name() string {
	switch m {
	case MethodSyn:
		return "SYN"
	case MethodFin:
		return "FIN"
	case MethodXmas:
		return "Xmas"
	case MethodNull:
		return "NULL"
	default:
		return "SYN"
	}
}

// CheckRootPrivileges returns a permission error with a remediation hint
// when the process is not running as root. It is a no-op on platforms
// where raw sockets don't require elevation at the application layer
// (the kernel will surface its own error at socket-creation time instead).
func CheckRootPrivileges() error {
	if runtime.GOOS == "windows" {
		return nil
	}
	if os.Geteuid() != 0 {
		return nelsterr.PermissionWithHint(
			"This scan method requires root privileges",
			"Run with 'sudo nelst scan port --method syn ...'",
		)
	}
	return nil
}

// TCPChecksum computes the standard one's-complement checksum over the
// IPv4 pseudo-header and a fully-populated (checksum-field-zeroed) TCP
// segment.
func TCPChecksum(source, dest net.IP, tcpSegment []byte) uint16 {
	src4 := source.To4()
	dst4 := dest.To4()

	pseudo := make([]byte, 0, 12+len(tcpSegment))
	pseudo = append(pseudo, src4...)
	pseudo = append(pseudo, dst4...)
	pseudo = append(pseudo, 0, 6) // zero byte, protocol=TCP
	length := make([]byte, 2)
	binary.BigEndian.PutUint16(length, uint16(len(tcpSegment)))
	pseudo = append(pseudo, length...)
	pseudo = append(pseudo, tcpSegment...)

	return checksum(pseudo)
}

// ICMPChecksum computes the same one's-complement checksum directly over
// an ICMP message (no pseudo-header).
func ICMPChecksum(data []byte) uint16 {
	return checksum(data)
}

func checksum(data []byte) uint16 {
	var sum uint32
	length := len(data)
	i := 0
	for length > 1 {
		sum += uint32(data[i])<<8 | uint32(data[i+1])
		i += 2
		length -= 2
	}
	if length == 1 {
		sum += uint32(data[i]) << 8
	}
	for sum>>16 != 0 {
		sum = (sum & 0xFFFF) + (sum >> 16)
	}
	return ^uint16(sum)
}

// TCPHeader is the 20-byte fixed TCP header with no options, matching the
// fields the scan engines need to build and sign.
type TCPHeader struct {
	SourcePort      uint16
	DestinationPort uint16
	SeqNumber       uint32
	AckNumber       uint32
	Flags           ScanFlags
	Window          uint16
}

// Build serializes the header (with checksum field zeroed) and then patches
// in the TCP checksum computed over the IPv4 pseudo-header.
func (h TCPHeader) Build(sourceIP, destIP net.IP) []byte {
	buf := make([]byte, 20)
	binary.BigEndian.PutUint16(buf[0:2], h.SourcePort)
	binary.BigEndian.PutUint16(buf[2:4], h.DestinationPort)
	binary.BigEndian.PutUint32(buf[4:8], h.SeqNumber)
	binary.BigEndian.PutUint32(buf[8:12], h.AckNumber)
	buf[12] = 5 << 4 // data offset = 5 words, reserved = 0
	buf[13] = byte(h.Flags)
	binary.BigEndian.PutUint16(buf[14:16], h.Window)
	// buf[16:18] checksum, left zero for the sum pass
	// buf[18:20] urgent pointer, left zero

	sum := TCPChecksum(sourceIP, destIP, buf)
	binary.BigEndian.PutUint16(buf[16:18], sum)
	return buf
}

// BuildTCPPacket constructs a 20-byte TCP segment with the given flags,
// source port and sequence number, used as passed (a zero sourcePort stays
// zero; see RandomSourcePort and RandomSeq for random values).
func BuildTCPPacket(sourceIP net.IP, sourcePort uint16, destIP net.IP, destPort uint16, flags ScanFlags, seq uint32) []byte {
	h := TCPHeader{
		SourcePort:      sourcePort,
		DestinationPort: destPort,
		SeqNumber:       seq,
		AckNumber:       0,
		Flags:           flags,
		Window:          65535,
	}
	return h.Build(sourceIP, destIP)
}

// TCPResponse is the subset of an inbound TCP segment the scan receive
// loop cares about.
type TCPResponse struct {
	SourcePort      uint16
	DestinationPort uint16
	Flags           ScanFlags
	IsSynAck        bool
	IsRst           bool
}

// ParseTCPResponse extracts a TCPResponse from a raw 20-byte-or-larger TCP
// segment (the options, if any, are ignored).
func ParseTCPResponse(segment []byte) TCPResponse {
	flags := ScanFlags(segment[13])
	return TCPResponse{
		SourcePort:      binary.BigEndian.Uint16(segment[0:2]),
		DestinationPort: binary.BigEndian.Uint16(segment[2:4]),
		Flags:           flags,
		IsSynAck:        flags&FlagSYN != 0 && flags&FlagACK != 0,
		IsRst:           flags&FlagRST != 0,
	}
}

// RandomSourcePort returns a uniform random ephemeral port in [49152, 65535].
func RandomSourcePort() uint16 {
	return uint16(rand.Intn(16384)) + 49152
}

// RandomSeq returns a uniform random 32-bit TCP sequence number.
func RandomSeq() uint32 {
	return rand.Uint32()
}

// LocalIPv4 discovers the local address the kernel would use to reach
// target by connecting an unconnected UDP socket to (target, 80) without
// sending any data, then reading its local address.
func LocalIPv4(target string) (net.IP, error) {
	ip := net.ParseIP(target)
	if ip != nil && ip.To4() == nil {
		return nil, nelsterr.Argument("IPv6 is not supported for raw socket scanning")
	}

	conn, err := net.Dial("udp4", net.JoinHostPort(target, "80"))
	if err != nil {
		return nil, nelsterr.ConnectionWithSource("failed to determine local address", err)
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP, nil
}
