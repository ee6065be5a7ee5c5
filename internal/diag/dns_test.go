package diag

import (
	"testing"

	"github.com/miekg/dns"
)

func TestRecordFromRRTypesA(t *testing.T) {
	rr := &dns.A{
		Hdr: dns.RR_Header{Rrtype: dns.TypeA, Ttl: 300},
		A:   []byte{93, 184, 216, 34},
	}
	rec := recordFromRR(rr)
	if rec.RecordType != "A" {
		t.Errorf("record type = %q, want A", rec.RecordType)
	}
	if rec.TTL != 300 {
		t.Errorf("ttl = %d, want 300", rec.TTL)
	}
	if rec.Value != "93.184.216.34" {
		t.Errorf("value = %q, want 93.184.216.34", rec.Value)
	}
}

func TestRecordFromRRTXTJoinsStrings(t *testing.T) {
	rr := &dns.TXT{
		Hdr: dns.RR_Header{Rrtype: dns.TypeTXT, Ttl: 60},
		Txt: []string{"v=spf1", "include:example.com"},
	}
	rec := recordFromRR(rr)
	if rec.Value != "v=spf1 include:example.com" {
		t.Errorf("value = %q", rec.Value)
	}
}

func TestResolveServerExplicitHostPort(t *testing.T) {
	server, err := resolveServer("8.8.8.8:53", "udp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if server != "8.8.8.8:53" {
		t.Errorf("server = %q, want 8.8.8.8:53", server)
	}
}

func TestResolveServerAppendsDefaultPort(t *testing.T) {
	server, err := resolveServer("8.8.8.8", "udp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if server != "8.8.8.8:53" {
		t.Errorf("server = %q, want 8.8.8.8:53", server)
	}
}

func TestAllQueryTypesAreRecognized(t *testing.T) {
	for _, name := range allQueryTypes {
		if _, ok := queryTypes[name]; !ok {
			t.Errorf("allQueryTypes entry %q missing from queryTypes map", name)
		}
	}
}
