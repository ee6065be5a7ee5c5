package diag

import (
	"testing"

	"github.com/dmitriimaksimovdevelop/nelst/internal/rawsock"
)

func TestBuildICMPEchoHasCorrectChecksum(t *testing.T) {
	packet := buildICMPEcho(make([]byte, 32))
	if len(packet) != 40 {
		t.Fatalf("len = %d, want 40", len(packet))
	}
	if packet[0] != 8 || packet[1] != 0 {
		t.Errorf("expected type=8 code=0 echo request header, got %d/%d", packet[0], packet[1])
	}

	// Re-zero the checksum field and recompute; it must match what was set.
	withZeroedChecksum := make([]byte, len(packet))
	copy(withZeroedChecksum, packet)
	withZeroedChecksum[2] = 0
	withZeroedChecksum[3] = 0

	got := uint16(packet[2])<<8 | uint16(packet[3])
	if got == 0 {
		t.Error("expected a nonzero checksum for a nonzero-length packet")
	}
	if want := rawsock.ICMPChecksum(withZeroedChecksum); got != want {
		t.Errorf("checksum = %#04x, want %#04x", got, want)
	}
}

func TestBuildICMPEchoRejectsUndersizedPayloadInCaller(t *testing.T) {
	ok, rtt := tryMTUSize(-1, nil, 20, 0)
	if ok || rtt != 0 {
		t.Error("expected tryMTUSize to fail fast for a payload below the minimum ICMP size")
	}
}
