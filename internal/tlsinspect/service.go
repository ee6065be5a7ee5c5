// Package tlsinspect implements banner-grab based service detection and
// TLS/certificate inspection, supplementing the scan engines with the
// richer per-port detail the original tool exposes via --service-detection
// and --ssl-check.
package tlsinspect

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/dmitriimaksimovdevelop/nelst/internal/model"
	"github.com/dmitriimaksimovdevelop/nelst/internal/nelsterr"
	"github.com/dmitriimaksimovdevelop/nelst/internal/scan"
)

const bannerReadTimeout = 2 * time.Second

// probeStrings maps a well-known service name to the probe it should be
// sent before reading a banner; services not listed are read unprompted.
var probeStrings = map[string]string{
	"http":       "GET / HTTP/1.0\r\n\r\n",
	"http-proxy": "GET / HTTP/1.0\r\n\r\n",
	"https-alt":  "GET / HTTP/1.0\r\n\r\n",
	"smtp":       "EHLO test\r\n",
	"submission": "EHLO test\r\n",
	"smtps":      "EHLO test\r\n",
	"redis":      "PING\r\n",
}

// DetectService connects to target:port, sends a protocol-appropriate probe
// if the well-known-port table names one, and pattern-matches the response
// banner before falling back to the plain well-known-port lookup.
func DetectService(target string, port uint16, timeout time.Duration) (model.ServiceInfo, error) {
	addr := net.JoinHostPort(target, strconv.Itoa(int(port)))
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return model.ServiceInfo{}, nelsterr.ConnectionWithSource("failed to connect for service detection", err)
	}
	defer conn.Close()

	fallbackName, _ := scan.ServiceName(port)
	if probe, ok := probeStrings[fallbackName]; ok {
		_, _ = conn.Write([]byte(probe))
	}

	_ = conn.SetReadDeadline(time.Now().Add(bannerReadTimeout))
	buf := make([]byte, 1024)
	n, _ := conn.Read(buf)
	banner := strings.TrimSpace(string(buf[:n]))

	info := model.ServiceInfo{Port: port, Name: fallbackName}
	if banner != "" {
		b := banner
		info.Banner = &b
	}

	switch {
	case strings.HasPrefix(banner, "SSH-"):
		info.Name = "ssh"
		version := strings.TrimPrefix(banner, "SSH-")
		info.Version = &version
	case strings.HasPrefix(banner, "HTTP/"):
		info.Name = "http"
		if server := extractHeader(banner, "Server"); server != "" {
			info.Product = &server
		}
	case strings.HasPrefix(banner, "220") && containsAny(banner, "FTP", "ftp"):
		info.Name = "ftp"
		fields := strings.Fields(banner)
		if len(fields) > 1 {
			version := fields[len(fields)-1]
			info.Version = &version
		}
	}

	if info.Name == "" {
		info.Name = "unknown"
	}
	return info, nil
}

func extractHeader(raw, name string) string {
	for _, line := range strings.Split(raw, "\r\n") {
		prefix := name + ":"
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix))
		}
	}
	return ""
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
