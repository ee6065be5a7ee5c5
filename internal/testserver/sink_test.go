package testserver

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestRunSinkTCPAcceptsAndDiscards(t *testing.T) {
	addr := freeAddr(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go RunSink(ctx, SinkArgs{Bind: addr, Protocol: "tcp"})
	waitForListener(t, addr)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("some bytes to discard")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	conn.Close()

	// The connection closing cleanly (no reset) is the observable signal
	// that the sink read and discarded the bytes rather than rejecting them.
	time.Sleep(50 * time.Millisecond)
}

func TestRunSinkUDPAcceptsDatagrams(t *testing.T) {
	addr := freeAddr(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go RunSink(ctx, SinkArgs{Bind: addr, Protocol: "udp"})
	time.Sleep(100 * time.Millisecond)

	conn, err := net.Dial("udp", addr)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("ping")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
}

func TestRunSinkUDPInvalidBindIsError(t *testing.T) {
	err := RunSink(context.Background(), SinkArgs{Bind: "not-an-address", Protocol: "udp"})
	if err == nil {
		t.Error("expected an error for an invalid bind address")
	}
}
