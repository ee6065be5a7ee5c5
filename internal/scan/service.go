// Package scan implements the port scan engines: TCP-Connect, UDP, and the
// raw SYN/FIN/Xmas/NULL family, plus the well-known-port service table used
// by all of them.
package scan

import (
	"strconv"
	"strings"

	"github.com/dmitriimaksimovdevelop/nelst/internal/nelsterr"
)

// wellKnownServices is the canonical port->service-name table, unified from
// the original implementation's two slightly divergent copies (the fuller
// one lived alongside service detection, the other alongside the TCP-connect
// engine) into a single source of truth.
var wellKnownServices = map[uint16]string{
	20:    "ftp-data",
	21:    "ftp",
	22:    "ssh",
	23:    "telnet",
	25:    "smtp",
	53:    "dns",
	80:    "http",
	110:   "pop3",
	111:   "rpcbind",
	135:   "msrpc",
	139:   "netbios-ssn",
	143:   "imap",
	443:   "https",
	445:   "microsoft-ds",
	465:   "smtps",
	587:   "submission",
	993:   "imaps",
	995:   "pop3s",
	1433:  "ms-sql-s",
	1521:  "oracle",
	3306:  "mysql",
	3389:  "ms-wbt-server",
	5432:  "postgresql",
	5900:  "vnc",
	6379:  "redis",
	8080:  "http-proxy",
	8443:  "https-alt",
	27017: "mongodb",
}

// ServiceName looks up a well-known port in the canonical table.
func ServiceName(port uint16) (string, bool) {
	name, ok := wellKnownServices[port]
	return name, ok
}

// ParsePorts parses a comma-separated list of single ports or inclusive
// "low-high" ranges, trimming whitespace around each token. Reversed ranges
// and non-numeric tokens are argument errors.
func ParsePorts(spec string) ([]uint16, error) {
	var result []uint16
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "-") {
			bounds := strings.SplitN(part, "-", 2)
			if len(bounds) != 2 {
				return nil, nelsterr.Argument("Invalid port range: %s", part)
			}
			start, err := strconv.ParseUint(strings.TrimSpace(bounds[0]), 10, 16)
			if err != nil {
				return nil, nelsterr.Argument("Invalid port number: %s", bounds[0])
			}
			end, err := strconv.ParseUint(strings.TrimSpace(bounds[1]), 10, 16)
			if err != nil {
				return nil, nelsterr.Argument("Invalid port number: %s", bounds[1])
			}
			if start > end {
				return nil, nelsterr.Argument("Invalid port range: %d > %d", start, end)
			}
			for p := start; p <= end; p++ {
				result = append(result, uint16(p))
			}
		} else {
			port, err := strconv.ParseUint(part, 10, 16)
			if err != nil {
				return nil, nelsterr.Argument("Invalid port number: %s", part)
			}
			result = append(result, uint16(port))
		}
	}
	return result, nil
}
