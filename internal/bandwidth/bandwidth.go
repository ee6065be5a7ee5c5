// Package bandwidth implements the bandwidth benchmark's wire protocol and
// both halves (client and server) of the upload/download direction test.
// The protocol is a single command byte at the start of each connection:
// 'U' means the client intends to upload, 'D' means it intends to download.
package bandwidth

import (
	"io"
	"net"
	"time"

	"github.com/dmitriimaksimovdevelop/nelst/internal/model"
	"github.com/dmitriimaksimovdevelop/nelst/internal/nelsterr"
	"github.com/dmitriimaksimovdevelop/nelst/internal/stats"
)

const (
	cmdUpload   = 'U'
	cmdDownload = 'D'

	serverUploadCap       = 60 * time.Second
	serverDownloadWindow  = 10 * time.Second
	serverDownloadBlock   = 128 * 1024
	defaultClientBlock    = 128 * 1024
)

// Direction selects which side of the bandwidth test the client runs.
type Direction int

const (
	DirectionUp Direction = iota
	DirectionDown
	DirectionBoth
)

// ClientArgs configures a bandwidth client run.
type ClientArgs struct {
	Target    string
	Direction Direction
	Duration  time.Duration
	BlockSize int
}

// RunClient performs the client half of the bandwidth test, opening one
// connection per requested direction (upload then download for "both" —
// never a single bidirectional connection).
func RunClient(args ClientArgs) (model.BandwidthResult, error) {
	blockSize := args.BlockSize
	if blockSize <= 0 {
		blockSize = defaultClientBlock
	}

	result := model.BandwidthResult{
		Mode:         directionName(args.Direction),
		Target:       &args.Target,
		DurationSecs: uint64(args.Duration.Seconds()),
	}

	if args.Direction == DirectionUp || args.Direction == DirectionBoth {
		up, err := runUpload(args.Target, args.Duration, blockSize)
		if err != nil {
			return model.BandwidthResult{}, err
		}
		result.Upload = &up
	}
	if args.Direction == DirectionDown || args.Direction == DirectionBoth {
		down, err := runDownload(args.Target, args.Duration, blockSize)
		if err != nil {
			return model.BandwidthResult{}, err
		}
		result.Download = &down
	}
	return result, nil
}

func directionName(d Direction) string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	default:
		return "both"
	}
}

func runUpload(target string, duration time.Duration, blockSize int) (model.DirectionResult, error) {
	conn, err := net.Dial("tcp", target)
	if err != nil {
		return model.DirectionResult{}, nelsterr.ConnectionWithSource("failed to connect for upload", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte{cmdUpload}); err != nil {
		return model.DirectionResult{}, nelsterr.ConnectionWithSource("failed to send upload command", err)
	}

	fill := make([]byte, blockSize)
	for i := range fill {
		fill[i] = 0xCD
	}

	var total uint64
	perSecond := make([]float64, 0)
	var currentSecondBytes uint64
	currentSecond := 0

	start := time.Now()
	deadline := start.Add(duration)
	for time.Now().Before(deadline) {
		n, err := conn.Write(fill)
		if err != nil {
			break
		}
		total += uint64(n)
		currentSecondBytes += uint64(n)

		elapsedSecond := int(time.Since(start).Seconds())
		if elapsedSecond > currentSecond {
			perSecond = append(perSecond, mbps(currentSecondBytes, 1))
			currentSecondBytes = 0
			currentSecond = elapsedSecond
		}
	}
	if currentSecondBytes > 0 {
		perSecond = append(perSecond, mbps(currentSecondBytes, 1))
	}

	elapsed := time.Since(start).Seconds()
	return model.DirectionResult{
		BytesTransferred: total,
		BandwidthMbps:    mbps(total, elapsed),
		PeakMbps:         peak(perSecond),
		JitterMs:         stats.Jitter(perSecond),
		PerSecondMbps:    perSecond,
	}, nil
}

func runDownload(target string, duration time.Duration, blockSize int) (model.DirectionResult, error) {
	conn, err := net.Dial("tcp", target)
	if err != nil {
		return model.DirectionResult{}, nelsterr.ConnectionWithSource("failed to connect for download", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte{cmdDownload}); err != nil {
		return model.DirectionResult{}, nelsterr.ConnectionWithSource("failed to send download command", err)
	}

	buf := make([]byte, blockSize)
	var total uint64
	perSecond := make([]float64, 0)
	var currentSecondBytes uint64
	currentSecond := 0

	start := time.Now()
	deadline := start.Add(duration)
	for time.Now().Before(deadline) {
		_ = conn.SetReadDeadline(deadline)
		n, err := conn.Read(buf)
		if n > 0 {
			total += uint64(n)
			currentSecondBytes += uint64(n)
		}
		if err != nil {
			break
		}

		elapsedSecond := int(time.Since(start).Seconds())
		if elapsedSecond > currentSecond {
			perSecond = append(perSecond, mbps(currentSecondBytes, 1))
			currentSecondBytes = 0
			currentSecond = elapsedSecond
		}
	}
	if currentSecondBytes > 0 {
		perSecond = append(perSecond, mbps(currentSecondBytes, 1))
	}

	elapsed := time.Since(start).Seconds()
	return model.DirectionResult{
		BytesTransferred: total,
		BandwidthMbps:    mbps(total, elapsed),
		PeakMbps:         peak(perSecond),
		JitterMs:         stats.Jitter(perSecond),
		PerSecondMbps:    perSecond,
	}, nil
}

func mbps(bytes uint64, seconds float64) float64 {
	if seconds <= 0 {
		return 0
	}
	return 8 * float64(bytes) / (seconds * 1_000_000)
}

func peak(series []float64) float64 {
	var max float64
	for _, v := range series {
		if v > max {
			max = v
		}
	}
	return max
}

// ServeConn dispatches a single accepted connection according to the
// command byte it begins with.
func ServeConn(conn net.Conn) {
	defer conn.Close()

	cmd := make([]byte, 1)
	if _, err := io.ReadFull(conn, cmd); err != nil {
		return
	}

	switch cmd[0] {
	case cmdUpload:
		serveUpload(conn)
	case cmdDownload:
		serveDownload(conn)
	}
}

func serveUpload(conn net.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(serverUploadCap))
	io.Copy(io.Discard, conn)
}

func serveDownload(conn net.Conn) {
	buf := make([]byte, serverDownloadBlock)
	for i := range buf {
		buf[i] = 0xAB
	}

	deadline := time.Now().Add(serverDownloadWindow)
	for time.Now().Before(deadline) {
		if _, err := conn.Write(buf); err != nil {
			return
		}
	}
}
