package diag

import (
	"net"
	"strconv"
	"time"

	"github.com/miekg/dns"

	"github.com/dmitriimaksimovdevelop/nelst/internal/model"
	"github.com/dmitriimaksimovdevelop/nelst/internal/nelsterr"
)

// DNSArgs configures a DNS lookup run.
type DNSArgs struct {
	Query     string
	QueryType string // "A", "AAAA", "MX", "TXT", "NS", "CNAME", "SOA", "PTR", or "ALL"
	Server    string // "host:53"; empty means use the system resolver
	Protocol  string // "udp" or "tcp"
	Timeout   time.Duration
}

var queryTypes = map[string]uint16{
	"A":     dns.TypeA,
	"AAAA":  dns.TypeAAAA,
	"MX":    dns.TypeMX,
	"TXT":   dns.TypeTXT,
	"NS":    dns.TypeNS,
	"CNAME": dns.TypeCNAME,
	"SOA":   dns.TypeSOA,
	"PTR":   dns.TypePTR,
}

// allQueryTypes are the record types queried when QueryType is "ALL" — the
// first six of the supported types, matching the original tool's own
// "All" shorthand.
var allQueryTypes = []string{"A", "AAAA", "MX", "TXT", "NS", "CNAME"}

// RunDNS resolves args.Query using miekg/dns, the DNS library attested
// across the retrieved corpus.
func RunDNS(args DNSArgs) (model.DnsResult, error) {
	server, err := resolveServer(args.Server, args.Protocol)
	if err != nil {
		return model.DnsResult{}, err
	}

	client := &dns.Client{Net: args.Protocol, Timeout: args.Timeout}

	types := []string{args.QueryType}
	if args.QueryType == "" || args.QueryType == "ALL" {
		types = allQueryTypes
	}

	var records []model.DnsRecord
	var lastErr error
	start := time.Now()

	for _, t := range types {
		rtype, ok := queryTypes[t]
		if !ok {
			lastErr = nelsterr.Argument("unsupported DNS record type: %s", t)
			continue
		}
		msg := new(dns.Msg)
		msg.SetQuestion(dns.Fqdn(args.Query), rtype)
		msg.RecursionDesired = true

		resp, _, err := client.Exchange(msg, server)
		if err != nil {
			lastErr = err
			continue
		}
		for _, ans := range resp.Answer {
			records = append(records, recordFromRR(ans))
		}
	}

	result := model.DnsResult{
		Query:         args.Query,
		QueryType:     args.QueryType,
		Protocol:      args.Protocol,
		ResolveTimeMs: float64(time.Since(start).Microseconds()) / 1000.0,
		Records:       records,
	}
	if args.Server != "" {
		result.DNSServer = &args.Server
	}
	if len(records) == 0 && lastErr != nil {
		msg := lastErr.Error()
		result.Error = &msg
	}
	return result, nil
}

func resolveServer(server, protocol string) (string, error) {
	if server != "" {
		if _, _, err := net.SplitHostPort(server); err != nil {
			return net.JoinHostPort(server, "53"), nil
		}
		return server, nil
	}

	conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(conf.Servers) == 0 {
		return "", nelsterr.Config("no DNS server configured and /etc/resolv.conf could not be read")
	}
	return net.JoinHostPort(conf.Servers[0], conf.Port), nil
}

func recordFromRR(rr dns.RR) model.DnsRecord {
	header := rr.Header()
	value := ""

	switch r := rr.(type) {
	case *dns.A:
		value = r.A.String()
	case *dns.AAAA:
		value = r.AAAA.String()
	case *dns.MX:
		value = strconv.Itoa(int(r.Preference)) + " " + r.Mx
	case *dns.TXT:
		for i, s := range r.Txt {
			if i > 0 {
				value += " "
			}
			value += s
		}
	case *dns.NS:
		value = r.Ns
	case *dns.CNAME:
		value = r.Target
	case *dns.SOA:
		value = r.Ns + " " + r.Mbox
	case *dns.PTR:
		value = r.Ptr
	default:
		value = rr.String()
	}

	return model.DnsRecord{
		RecordType: dns.TypeToString[header.Rrtype],
		Value:      value,
		TTL:        header.Ttl,
	}
}
