package scan

import (
	"context"
	"time"

	"github.com/dmitriimaksimovdevelop/nelst/internal/model"
	"github.com/dmitriimaksimovdevelop/nelst/internal/nelsterr"
	"github.com/dmitriimaksimovdevelop/nelst/internal/rawsock"
)

// Args configures `scan port`, covering every method the CLI exposes;
// Run dispatches to the TCP-connect, UDP, or raw-socket engine.
type Args struct {
	Target      string
	Ports       string
	Method      string // "tcp", "syn", "fin", "xmas", "null", "udp"
	Concurrency int
	Timeout     time.Duration
}

// Run dispatches args.Method to the matching scan engine.
func Run(ctx context.Context, args Args) (model.ScanResult, error) {
	switch args.Method {
	case "", "tcp":
		return RunConnect(ctx, ConnectArgs{
			Target: args.Target, Ports: args.Ports,
			Concurrency: args.Concurrency, Timeout: args.Timeout,
		})
	case "udp":
		return RunUDP(ctx, UDPArgs{
			Target: args.Target, Ports: args.Ports,
			Concurrency: args.Concurrency, Timeout: args.Timeout,
		})
	case "syn", "fin", "xmas", "null":
		method, err := parseRawMethod(args.Method)
		if err != nil {
			return model.ScanResult{}, err
		}
		transport, err := NewRawSocketTransport()
		if err != nil {
			return model.ScanResult{}, err
		}
		defer transport.Close()
		return RunRaw(ctx, RawArgs{
			Target: args.Target, Ports: args.Ports,
			Method: method, Timeout: args.Timeout,
		}, transport)
	default:
		return model.ScanResult{}, nelsterr.Argument("unknown scan method %q", args.Method)
	}
}

func parseRawMethod(s string) (rawsock.Method, error) {
	switch s {
	case "syn":
		return rawsock.MethodSyn, nil
	case "fin":
		return rawsock.MethodFin, nil
	case "xmas":
		return rawsock.MethodXmas, nil
	case "null":
		return rawsock.MethodNull, nil
	default:
		return 0, nelsterr.Argument("unknown raw scan method %q", s)
	}
}
