package scan

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"
)

func TestRunConnectOpenPort(t *testing.T) {
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
			conn.Close()
		}
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	result, err := RunConnect(context.Background(), ConnectArgs{
		Target:      "127.0.0.1",
		Ports:       strconv.Itoa(port),
		Concurrency: 4,
		Timeout:     time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Summary.Open != 1 {
		t.Errorf("expected 1 open port, got summary %+v", result.Summary)
	}
}

func TestRunConnectClosedPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find a free port: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	result, err := RunConnect(context.Background(), ConnectArgs{
		Target:      "127.0.0.1",
		Ports:       strconv.Itoa(port),
		Concurrency: 4,
		Timeout:     time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Summary.Closed != 1 {
		t.Errorf("expected 1 closed port, got summary %+v", result.Summary)
	}
}

func TestRunConnectResultsAreSortedByPort(t *testing.T) {
	result, err := RunConnect(context.Background(), ConnectArgs{
		Target:      "127.0.0.1",
		Ports:       "9,5,7",
		Concurrency: 3,
		Timeout:     100 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(result.Ports); i++ {
		if result.Ports[i].Port < result.Ports[i-1].Port {
			t.Errorf("ports not sorted: %+v", result.Ports)
		}
	}
}

func TestRunConnectInvalidPortsIsError(t *testing.T) {
	_, err := RunConnect(context.Background(), ConnectArgs{Target: "127.0.0.1", Ports: "xyz", Concurrency: 1, Timeout: time.Millisecond})
	if err == nil {
		t.Error("expected an error for an invalid port spec")
	}
}
