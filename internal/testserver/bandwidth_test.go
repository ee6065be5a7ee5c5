package testserver

import (
	"context"
	"testing"
	"time"

	"github.com/dmitriimaksimovdevelop/nelst/internal/bandwidth"
)

func TestRunBandwidthServerServesUpload(t *testing.T) {
	addr := freeAddr(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go RunBandwidthServer(ctx, BandwidthServerArgs{Bind: addr})
	waitForListener(t, addr)

	result, err := bandwidth.RunClient(bandwidth.ClientArgs{
		Target:    addr,
		Direction: bandwidth.DirectionUp,
		Duration:  200 * time.Millisecond,
		BlockSize: 4096,
	})
	if err != nil {
		t.Fatalf("RunClient failed: %v", err)
	}
	if result.Upload == nil {
		t.Fatal("expected an upload result")
	}
	if result.Upload.BytesTransferred == 0 {
		t.Error("expected some bytes to have been uploaded")
	}
}

func TestRunBandwidthServerServesDownload(t *testing.T) {
	addr := freeAddr(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go RunBandwidthServer(ctx, BandwidthServerArgs{Bind: addr})
	waitForListener(t, addr)

	result, err := bandwidth.RunClient(bandwidth.ClientArgs{
		Target:    addr,
		Direction: bandwidth.DirectionDown,
		Duration:  200 * time.Millisecond,
		BlockSize: 4096,
	})
	if err != nil {
		t.Fatalf("RunClient failed: %v", err)
	}
	if result.Download == nil {
		t.Fatal("expected a download result")
	}
	if result.Download.BytesTransferred == 0 {
		t.Error("expected some bytes to have been downloaded")
	}
}
