package tlsinspect

import (
	"net"
	"testing"
	"time"
)

func TestDetectServiceSSHBanner(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte("SSH-2.0-OpenSSH_8.9\r\n"))
	}()

	addr := ln.Addr().(*net.TCPAddr)
	info, err := DetectService("127.0.0.1", uint16(addr.Port), time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Name != "ssh" {
		t.Errorf("name = %q, want ssh", info.Name)
	}
	if info.Version == nil || *info.Version != "2.0-OpenSSH_8.9" {
		t.Errorf("version = %v, want 2.0-OpenSSH_8.9", info.Version)
	}
}

func TestDetectServiceHTTPBannerExtractsServerHeader(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte("HTTP/1.1 200 OK\r\nServer: nginx/1.25\r\n\r\n"))
	}()

	addr := ln.Addr().(*net.TCPAddr)
	info, err := DetectService("127.0.0.1", uint16(addr.Port), time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Name != "http" {
		t.Errorf("name = %q, want http", info.Name)
	}
	if info.Product == nil || *info.Product != "nginx/1.25" {
		t.Errorf("product = %v, want nginx/1.25", info.Product)
	}
}

func TestExtractHeaderMissing(t *testing.T) {
	if got := extractHeader("HTTP/1.1 200 OK\r\n\r\n", "Server"); got != "" {
		t.Errorf("got %q, want empty string", got)
	}
}

func TestContainsAny(t *testing.T) {
	if !containsAny("220 Welcome to ProFTPD", "FTP", "ftp") {
		t.Error("expected a match for FTP")
	}
	if containsAny("hello world", "FTP", "ftp") {
		t.Error("expected no match")
	}
}
