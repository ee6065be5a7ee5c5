package connload

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestRunOpensExactCount(t *testing.T) {
	var acceptCount int
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer ln.Close()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			acceptCount++
			conn.Close()
		}
		close(done)
	}()

	result, err := Run(context.Background(), Args{
		Target:      ln.Addr().String(),
		Count:       10,
		Concurrency: 3,
		Timeout:     time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalRequests != 10 {
		t.Errorf("total = %d, want 10", result.TotalRequests)
	}
	if result.SuccessfulRequests != 10 {
		t.Errorf("successful = %d, want 10", result.SuccessfulRequests)
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("server never accepted all connections")
	}
}

func TestRunKeepAliveHoldsForDuration(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn
		}
	}()

	start := time.Now()
	result, err := Run(context.Background(), Args{
		Target:      ln.Addr().String(),
		Count:       2,
		Concurrency: 2,
		Timeout:     time.Second,
		KeepAlive:   true,
		HoldFor:     100 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) < 100*time.Millisecond {
		t.Error("expected the run to block for at least the hold duration")
	}
	if result.SuccessfulRequests != 2 {
		t.Errorf("successful = %d, want 2", result.SuccessfulRequests)
	}
}

func TestRunRefusedConnectionCountsAsFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find a free port: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	result, err := Run(context.Background(), Args{
		Target:      addr,
		Count:       3,
		Concurrency: 1,
		Timeout:     200 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FailedRequests != 3 {
		t.Errorf("failed = %d, want 3", result.FailedRequests)
	}
}
