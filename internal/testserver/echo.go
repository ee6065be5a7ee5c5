// Package testserver implements the local test servers used to exercise the
// load engines without an external dependency: echo, sink, flood, and a
// minimal HTTP server.
package testserver

import (
	"context"
	"net"

	"github.com/dmitriimaksimovdevelop/nelst/internal/nelsterr"
)

// EchoArgs configures an echo server.
type EchoArgs struct {
	Bind     string
	Protocol string // "tcp" or "udp"
}

// RunEcho accepts connections/datagrams on args.Bind and writes back exactly
// what it read, until ctx is cancelled.
func RunEcho(ctx context.Context, args EchoArgs) error {
	switch args.Protocol {
	case "udp":
		return runEchoUDP(ctx, args.Bind)
	default:
		return runEchoTCP(ctx, args.Bind)
	}
}

func runEchoTCP(ctx context.Context, bind string) error {
	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return nelsterr.ConnectionWithSource("failed to bind echo server", err)
	}
	go closeOnDone(ctx, ln)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		go func(c net.Conn) {
			defer c.Close()
			buf := make([]byte, 4096)
			for {
				n, err := c.Read(buf)
				if n > 0 {
					if _, werr := c.Write(buf[:n]); werr != nil {
						return
					}
				}
				if err != nil {
					return
				}
			}
		}(conn)
	}
}

func runEchoUDP(ctx context.Context, bind string) error {
	addr, err := net.ResolveUDPAddr("udp", bind)
	if err != nil {
		return nelsterr.Argument("invalid bind address: %v", err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nelsterr.ConnectionWithSource("failed to bind echo server", err)
	}
	go closeOnDone(ctx, conn)

	buf := make([]byte, 65536)
	for {
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		_, _ = conn.WriteToUDP(buf[:n], from)
	}
}

// closeOnDone closes a listener-like resource as soon as ctx is cancelled,
// unblocking the accept/read loop above it.
func closeOnDone(ctx context.Context, c interface{ Close() error }) {
	<-ctx.Done()
	_ = c.Close()
}
