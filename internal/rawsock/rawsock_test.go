package rawsock

import (
	"net"
	"testing"
)

func TestMethodFlags(t *testing.T) {
	cases := []struct {
		method Method
		want   ScanFlags
		name   string
	}{
		{MethodSyn, FlagSYN, "SYN"},
		{MethodFin, FlagFIN, "FIN"},
		{MethodXmas, FlagFIN | FlagPSH | FlagURG, "Xmas"},
		{MethodNull, 0, "NULL"},
	}
	for _, c := range cases {
		if got := c.method.Flags(); got != c.want {
			t.Errorf("%s flags = %#x, want %#x", c.name, got, c.want)
		}
		if got := c.method.Name(); got != c.name {
			t.Errorf("name = %s, want %s", got, c.name)
		}
	}
}

func TestBuildTCPPacketLength(t *testing.T) {
	src := net.ParseIP("192.168.1.1")
	dst := net.ParseIP("192.168.1.2")
	packet := BuildTCPPacket(src, 49200, dst, 80, FlagSYN, 12345)
	if len(packet) != 20 {
		t.Fatalf("packet length = %d, want 20", len(packet))
	}
}

func TestTCPChecksumNonZero(t *testing.T) {
	src := net.ParseIP("10.0.0.1")
	dst := net.ParseIP("10.0.0.2")
	packet := BuildTCPPacket(src, 49200, dst, 443, FlagSYN, 1)
	// TCPChecksum is defined over a segment whose checksum field is zero.
	packet[16], packet[17] = 0, 0
	sum := TCPChecksum(src, dst, packet)
	if sum == 0 {
		t.Error("checksum over a non-trivial TCP segment should not be zero")
	}
}

func TestParseTCPResponseSynAck(t *testing.T) {
	src := net.ParseIP("1.2.3.4")
	dst := net.ParseIP("1.2.3.5")
	packet := BuildTCPPacket(src, 80, dst, 49200, FlagSYN|FlagACK, 99)
	resp := ParseTCPResponse(packet)
	if !resp.IsSynAck {
		t.Error("expected IsSynAck=true")
	}
	if resp.IsRst {
		t.Error("expected IsRst=false")
	}
	if resp.SourcePort != 80 {
		t.Errorf("source port = %d, want 80", resp.SourcePort)
	}
}

func TestParseTCPResponseRst(t *testing.T) {
	src := net.ParseIP("1.2.3.4")
	dst := net.ParseIP("1.2.3.5")
	packet := BuildTCPPacket(src, 80, dst, 49200, FlagRST, 1)
	resp := ParseTCPResponse(packet)
	if !resp.IsRst {
		t.Error("expected IsRst=true")
	}
	if resp.IsSynAck {
		t.Error("expected IsSynAck=false")
	}
}

func TestRandomSourcePortRange(t *testing.T) {
	for i := 0; i < 100; i++ {
		p := RandomSourcePort()
		if p < 49152 {
			t.Fatalf("port %d below expected range", p)
		}
	}
}

func TestICMPChecksumAllZero(t *testing.T) {
	data := make([]byte, 8)
	sum := ICMPChecksum(data)
	if sum != 0xFFFF {
		t.Errorf("checksum of all-zero data = %#x, want 0xFFFF", sum)
	}
}

func TestICMPChecksumOddLength(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	// must not panic on odd-length input
	_ = ICMPChecksum(data)
}
