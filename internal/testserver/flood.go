package testserver

import (
	"context"
	"net"

	"github.com/dmitriimaksimovdevelop/nelst/internal/nelsterr"
)

// FloodArgs configures a flood server.
type FloodArgs struct {
	Bind string
	Size int // bytes per write, default 1024
}

// RunFlood writes an args.Size-byte buffer in a tight loop on every accepted
// connection until the peer disconnects — the send-side counterpart used to
// drive the traffic engine's Recv mode during local testing.
func RunFlood(ctx context.Context, args FloodArgs) error {
	size := args.Size
	if size <= 0 {
		size = 1024
	}

	ln, err := net.Listen("tcp", args.Bind)
	if err != nil {
		return nelsterr.ConnectionWithSource("failed to bind flood server", err)
	}
	go closeOnDone(ctx, ln)

	buf := make([]byte, size)
	for i := range buf {
		buf[i] = 0x46
	}

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
			for {
				if _, err := c.Write(buf); err != nil {
					return
				}
			}
		}(conn)
	}
}
