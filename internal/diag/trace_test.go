package diag

import (
	"context"
	"net"
	"syscall"
	"testing"
	"time"
)

func TestTTLControlReturnsUsableHook(t *testing.T) {
	hook := ttlControl(5)
	if hook == nil {
		t.Fatal("expected a non-nil control hook")
	}
	// The hook's type must satisfy net.Dialer.Control's signature.
	var _ func(network, address string, c syscall.RawConn) error = hook
}

func TestRunTCPTraceReachesLocalListenerOnPort80Substitute(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:80")
	if err != nil {
		t.Skipf("skipping: cannot bind port 80 in this sandbox: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	target := &net.IPAddr{IP: net.ParseIP("127.0.0.1")}
	result, err := runTCPTrace(context.Background(), TraceArgs{
		MaxHops: 3,
		Queries: 1,
		Timeout: time.Second,
	}, target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.ReachedDestination {
		t.Error("expected the destination to be reached against a reachable local listener")
	}
}
