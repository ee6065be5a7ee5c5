package scan

import "testing"

func TestServiceNameLookup(t *testing.T) {
	cases := []struct {
		port uint16
		want string
	}{
		{22, "ssh"},
		{443, "https"},
		{3306, "mysql"},
	}
	for _, c := range cases {
		got, ok := ServiceName(c.port)
		if !ok || got != c.want {
			t.Errorf("ServiceName(%d) = (%q, %v), want (%q, true)", c.port, got, ok, c.want)
		}
	}
}

func TestServiceNameUnknownPort(t *testing.T) {
	if _, ok := ServiceName(59999); ok {
		t.Error("expected unknown port to be absent")
	}
}

func TestParsePortsRange(t *testing.T) {
	ports, err := ParsePorts("1-1024")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ports) != 1024 {
		t.Errorf("len = %d, want 1024", len(ports))
	}
	if ports[0] != 1 || ports[len(ports)-1] != 1024 {
		t.Errorf("range bounds = [%d, %d], want [1, 1024]", ports[0], ports[len(ports)-1])
	}
}

func TestParsePortsCommaList(t *testing.T) {
	ports, err := ParsePorts("22,80,443")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []uint16{22, 80, 443}
	if len(ports) != len(want) {
		t.Fatalf("len = %d, want %d", len(ports), len(want))
	}
	for i, p := range want {
		if ports[i] != p {
			t.Errorf("ports[%d] = %d, want %d", i, ports[i], p)
		}
	}
}

func TestParsePortsMixedRangeAndSingles(t *testing.T) {
	ports, err := ParsePorts("22,80-82,443")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []uint16{22, 80, 81, 82, 443}
	if len(ports) != len(want) {
		t.Fatalf("len = %d, want %d", len(ports), len(want))
	}
	for i, p := range want {
		if ports[i] != p {
			t.Errorf("ports[%d] = %d, want %d", i, ports[i], p)
		}
	}
}

func TestParsePortsReversedRangeIsError(t *testing.T) {
	if _, err := ParsePorts("100-50"); err == nil {
		t.Error("expected an error for a reversed range")
	}
}

func TestParsePortsWhitespaceTolerated(t *testing.T) {
	ports, err := ParsePorts(" 22 , 80 , 443 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ports) != 3 {
		t.Fatalf("len = %d, want 3", len(ports))
	}
}

func TestParsePortsInvalidToken(t *testing.T) {
	if _, err := ParsePorts("abc"); err == nil {
		t.Error("expected an error for a non-numeric token")
	}
}
