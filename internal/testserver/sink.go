package testserver

import (
	"context"
	"log"
	"net"
	"sync/atomic"
	"time"

	"github.com/dmitriimaksimovdevelop/nelst/internal/nelsterr"
)

// SinkArgs configures a sink server.
type SinkArgs struct {
	Bind     string
	Protocol string // "tcp" or "udp"
}

const sinkLogInterval = 5 * time.Second

// RunSink accepts and discards all input on args.Bind, logging a periodic
// byte-count line, until ctx is cancelled.
func RunSink(ctx context.Context, args SinkArgs) error {
	var totalBytes int64

	logCtx, cancelLog := context.WithCancel(ctx)
	defer cancelLog()
	go logPeriodically(logCtx, &totalBytes)

	switch args.Protocol {
	case "udp":
		return sinkUDP(ctx, args.Bind, &totalBytes)
	default:
		return sinkTCP(ctx, args.Bind, &totalBytes)
	}
}

func logPeriodically(ctx context.Context, totalBytes *int64) {
	ticker := time.NewTicker(sinkLogInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			log.Printf("sink: %d bytes received so far", atomic.LoadInt64(totalBytes))
		}
	}
}

func sinkTCP(ctx context.Context, bind string, totalBytes *int64) error {
	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return nelsterr.ConnectionWithSource("failed to bind sink server", err)
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
			buf := make([]byte, 65536)
			for {
				n, err := c.Read(buf)
				if n > 0 {
					atomic.AddInt64(totalBytes, int64(n))
				}
				if err != nil {
					return
				}
			}
		}(conn)
	}
}

func sinkUDP(ctx context.Context, bind string, totalBytes *int64) error {
	addr, err := net.ResolveUDPAddr("udp", bind)
	if err != nil {
		return nelsterr.Argument("invalid bind address: %v", err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nelsterr.ConnectionWithSource("failed to bind sink server", err)
	}
	go closeOnDone(ctx, conn)

	buf := make([]byte, 65536)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if n > 0 {
			atomic.AddInt64(totalBytes, int64(n))
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
	}
}
