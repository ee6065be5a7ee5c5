// Package mcp exposes nelst's probe engines as Model Context Protocol
// tools, so an MCP client can drive a scan or load test and read back the
// same result types the CLI prints.
package mcp

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server wraps the MCP server instance.
type Server struct {
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server with registered tools.
func NewServer(version string) *Server {
	s := server.NewMCPServer("nelst", version, server.WithLogging())
	registerTools(s)
	return &Server{mcpServer: s}
}

// Start runs the server in stdio mode (blocking).
func (s *Server) Start(ctx context.Context) error {
	stdioServer := server.NewStdioServer(s.mcpServer)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// registerTools adds all supported tools to the server.
func registerTools(s *server.MCPServer) {
	scanTool := mcp.NewTool("scan_ports",
		mcp.WithDescription("Scan a target host for open ports using TCP connect, UDP, or a raw-socket method (syn, fin, xmas, null)."),
		mcp.WithString("target", mcp.Required(), mcp.Description("Host or IP to scan")),
		mcp.WithString("ports", mcp.Description("Port range, e.g. 1-1024 or 22,80,443"), mcp.DefaultString("1-1024")),
		mcp.WithString("method", mcp.Description("tcp, syn, fin, xmas, null, or udp"), mcp.DefaultString("tcp")),
		mcp.WithNumber("concurrency", mcp.Description("Max concurrent probes"), mcp.DefaultNumber(100)),
	)
	s.AddTool(scanTool, handleScanPorts)

	pingTool := mcp.NewTool("ping_host",
		mcp.WithDescription("ICMP or TCP ping a target and return round-trip statistics."),
		mcp.WithString("target", mcp.Required(), mcp.Description("Host or IP to ping")),
		mcp.WithNumber("count", mcp.Description("Number of probes"), mcp.DefaultNumber(4)),
		mcp.WithString("mode", mcp.Description("icmp or tcp"), mcp.DefaultString("icmp")),
	)
	s.AddTool(pingTool, handlePingHost)

	loadTool := mcp.NewTool("run_http_load",
		mcp.WithDescription("Generate HTTP load against a URL for a fixed duration and return throughput and latency statistics."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Target URL")),
		mcp.WithNumber("duration_secs", mcp.Description("How long to run, in seconds"), mcp.DefaultNumber(10)),
		mcp.WithNumber("concurrency", mcp.Description("Number of worker goroutines"), mcp.DefaultNumber(10)),
	)
	s.AddTool(loadTool, handleRunHTTPLoad)

	lastResultTool := mcp.NewTool("get_last_result",
		mcp.WithDescription("Return the most recent tool result run in this session, as JSON."),
	)
	s.AddTool(lastResultTool, handleGetLastResult)
}
