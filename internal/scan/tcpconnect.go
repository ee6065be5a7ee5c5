package scan

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/dmitriimaksimovdevelop/nelst/internal/model"
	"golang.org/x/sync/semaphore"
)

// ConnectArgs configures a TCP-Connect scan.
type ConnectArgs struct {
	Target      string
	Ports       string
	Concurrency int
	Timeout     time.Duration
}

// RunConnect scans every port named by args.Ports against args.Target using
// a plain TCP three-way handshake, bounding in-flight connections with a
// semaphore the way the corpus's own port scanner (lucchesi-sec-portscan)
// bounds concurrency with golang.org/x/sync.
func RunConnect(ctx context.Context, args ConnectArgs) (model.ScanResult, error) {
	start := time.Now()

	ports, err := ParsePorts(args.Ports)
	if err != nil {
		return model.ScanResult{}, err
	}

	var mu sync.Mutex
	results := make([]model.PortResult, 0, len(ports))

	sem := semaphore.NewWeighted(int64(args.Concurrency))
	var wg sync.WaitGroup

	for _, port := range ports {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(port uint16) {
			defer wg.Done()
			defer sem.Release(1)

			state := scanOnePort(ctx, args.Target, port, args.Timeout)
			var service *string
			if state == model.PortOpen {
				if name, ok := ServiceName(port); ok {
					service = &name
				}
			}

			mu.Lock()
			results = append(results, model.PortResult{Port: port, State: state, Service: service})
			mu.Unlock()
		}(port)
	}
	wg.Wait()

	sortPortResults(results)

	summary := model.ScanSummary{TotalScanned: len(ports)}
	for _, r := range results {
		switch r.State {
		case model.PortOpen:
			summary.Open++
		case model.PortClosed:
			summary.Closed++
		case model.PortFiltered:
			summary.Filtered++
		}
	}

	return model.ScanResult{
		Target:       args.Target,
		Method:       "tcp-connect",
		ScanTime:     time.Now().Format("2006-01-02 15:04:05"),
		DurationSecs: time.Since(start).Seconds(),
		Ports:        results,
		Summary:      summary,
	}, nil
}

func scanOnePort(ctx context.Context, target string, port uint16, timeout time.Duration) model.PortState {
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addr := net.JoinHostPort(target, fmt.Sprintf("%d", port))
	var d net.Dialer
	conn, err := d.DialContext(dialCtx, "tcp", addr)
	if err == nil {
		conn.Close()
		return model.PortOpen
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return model.PortClosed
	}
	return model.PortFiltered
}

func sortPortResults(results []model.PortResult) {
	sort.Slice(results, func(i, j int) bool { return results[i].Port < results[j].Port })
}
