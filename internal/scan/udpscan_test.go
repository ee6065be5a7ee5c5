package scan

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"
)

func TestRunUDPClosedPortWithICMPUnreachable(t *testing.T) {
	// A UDP socket bound to an ephemeral loopback port with nothing
	// listening typically yields ECONNREFUSED on the write/read path once
	// the kernel delivers the ICMP port-unreachable, which this engine
	// reports as Closed.
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	if err != nil {
		t.Fatalf("failed to find a free port: %v", err)
	}
	port := conn.LocalAddr().(*net.UDPAddr).Port
	conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result, err := RunUDP(ctx, UDPArgs{
		Target:      "127.0.0.1",
		Ports:       strconv.Itoa(port),
		Concurrency: 2,
		Timeout:     100 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Summary.TotalScanned != 1 {
		t.Fatalf("expected exactly one port scanned, got %d", result.Summary.TotalScanned)
	}
}

func TestRunUDPInvalidPortsIsError(t *testing.T) {
	_, err := RunUDP(context.Background(), UDPArgs{Target: "127.0.0.1", Ports: "not-a-port", Concurrency: 1, Timeout: time.Millisecond})
	if err == nil {
		t.Error("expected an error for an invalid port spec")
	}
}
