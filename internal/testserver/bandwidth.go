package testserver

import (
	"context"
	"net"

	"github.com/dmitriimaksimovdevelop/nelst/internal/bandwidth"
	"github.com/dmitriimaksimovdevelop/nelst/internal/nelsterr"
)

// BandwidthServerArgs configures the bandwidth protocol's server half.
type BandwidthServerArgs struct {
	Bind string
}

// RunBandwidthServer accepts connections and dispatches each one to
// bandwidth.ServeConn based on its leading command byte, until ctx is
// cancelled.
func RunBandwidthServer(ctx context.Context, args BandwidthServerArgs) error {
	ln, err := net.Listen("tcp", args.Bind)
	if err != nil {
		return nelsterr.ConnectionWithSource("failed to bind bandwidth server", err)
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
		go bandwidth.ServeConn(conn)
	}
}
