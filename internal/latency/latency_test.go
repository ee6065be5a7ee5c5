package latency

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestRunAgainstEchoServer(t *testing.T) {
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
			go func(c net.Conn) {
				defer c.Close()
				buf := make([]byte, 4)
				c.Read(buf)
			}(conn)
		}
	}()

	result, err := Run(context.Background(), Args{
		Target:   ln.Addr().String(),
		Duration: 120 * time.Millisecond,
		Interval: 20 * time.Millisecond,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SuccessCount == 0 {
		t.Fatal("expected at least one successful round trip")
	}
	if result.Count != result.SuccessCount+result.FailureCount {
		t.Errorf("count %d != success %d + failure %d", result.Count, result.SuccessCount, result.FailureCount)
	}
	if len(result.Latencies) != result.SuccessCount {
		t.Errorf("len(latencies) = %d, want %d", len(result.Latencies), result.SuccessCount)
	}
}

func TestRunRejectsNonPositiveInterval(t *testing.T) {
	_, err := Run(context.Background(), Args{Target: "127.0.0.1:1", Duration: time.Millisecond, Interval: 0, Timeout: time.Millisecond})
	if err == nil {
		t.Error("expected an error for a non-positive interval")
	}
}

func TestRunAllFailuresOnUnreachableTarget(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find a free port: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	result, err := Run(context.Background(), Args{
		Target:   addr,
		Duration: 60 * time.Millisecond,
		Interval: 15 * time.Millisecond,
		Timeout:  20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SuccessCount != 0 {
		t.Errorf("expected 0 successes, got %d", result.SuccessCount)
	}
	if result.SuccessRate != 0 {
		t.Errorf("expected 0%% success rate, got %f", result.SuccessRate)
	}
}
