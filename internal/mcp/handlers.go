package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dmitriimaksimovdevelop/nelst/internal/diag"
	"github.com/dmitriimaksimovdevelop/nelst/internal/httpload"
	"github.com/dmitriimaksimovdevelop/nelst/internal/scan"
)

// scanTimeout bounds a scan_ports tool call regardless of the requested
// concurrency, so a misbehaving client can't hang the MCP stdio loop.
const scanTimeout = 2 * time.Minute

// pingTimeout bounds a ping_host tool call.
const pingTimeout = 30 * time.Second

// loadTimeout caps run_http_load beyond the requested duration to allow for
// connection teardown.
const loadTimeout = 5 * time.Minute

// lastResult holds the most recent tool result for get_last_result,
// mirroring the CLI's single-invocation-at-a-time model.
var lastResult struct {
	mu   sync.Mutex
	tool string
	data json.RawMessage
}

func recordLastResult(tool string, data interface{}) {
	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	lastResult.mu.Lock()
	lastResult.tool = tool
	lastResult.data = raw
	lastResult.mu.Unlock()
}

// handleScanPorts runs a port scan and returns the result as JSON.
func handleScanPorts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, cancel := context.WithTimeout(ctx, scanTimeout)
	defer cancel()

	args := getArgs(request)
	target := stringArg(args, "target", "")
	if target == "" {
		return errResult("target is required"), nil
	}
	ports := stringArg(args, "ports", "1-1024")
	method := stringArg(args, "method", "tcp")
	concurrency := int(numberArg(args, "concurrency", 100))

	result, err := scan.Run(ctx, scan.Args{
		Target: target, Ports: ports, Method: method,
		Concurrency: concurrency, Timeout: time.Second,
	})
	if err != nil {
		return errResult(fmt.Sprintf("scan failed: %v", err)), nil
	}

	recordLastResult("scan_ports", result)
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errResult(fmt.Sprintf("json marshal failed: %v", err)), nil
	}
	return newTextResult(string(jsonData)), nil
}

// handlePingHost runs a ping and returns round-trip statistics as JSON.
func handlePingHost(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	args := getArgs(request)
	target := stringArg(args, "target", "")
	if target == "" {
		return errResult("target is required"), nil
	}
	count := int(numberArg(args, "count", 4))
	mode := stringArg(args, "mode", "icmp")

	result, err := diag.RunPing(ctx, diag.PingArgs{
		Target: target, Count: count, Mode: mode,
		Interval: time.Second, Timeout: 2 * time.Second,
	})
	if err != nil {
		return errResult(fmt.Sprintf("ping failed: %v", err)), nil
	}

	recordLastResult("ping_host", result)
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errResult(fmt.Sprintf("json marshal failed: %v", err)), nil
	}
	return newTextResult(string(jsonData)), nil
}

// handleRunHTTPLoad drives an HTTP load test and returns throughput and
// latency statistics as JSON.
func handleRunHTTPLoad(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	args := getArgs(request)
	url := stringArg(args, "url", "")
	if url == "" {
		return errResult("url is required"), nil
	}
	duration := time.Duration(numberArg(args, "duration_secs", 10)) * time.Second
	concurrency := int(numberArg(args, "concurrency", 10))

	result, err := httpload.Run(ctx, httpload.Args{
		URL: url, Method: "GET", Duration: duration,
		Concurrency: concurrency, Timeout: 5 * time.Second,
	})
	if err != nil {
		return errResult(fmt.Sprintf("load test failed: %v", err)), nil
	}

	recordLastResult("run_http_load", result)
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errResult(fmt.Sprintf("json marshal failed: %v", err)), nil
	}
	return newTextResult(string(jsonData)), nil
}

// handleGetLastResult returns the most recent tool's result.
func handleGetLastResult(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lastResult.mu.Lock()
	tool, data := lastResult.tool, lastResult.data
	lastResult.mu.Unlock()

	if data == nil {
		return errResult("no result recorded yet in this session"), nil
	}
	wrapped := map[string]json.RawMessage{"tool": json.RawMessage(fmt.Sprintf("%q", tool)), "result": data}
	jsonData, err := json.MarshalIndent(wrapped, "", "  ")
	if err != nil {
		return errResult(fmt.Sprintf("json marshal failed: %v", err)), nil
	}
	return newTextResult(string(jsonData)), nil
}

// getArgs safely extracts the arguments map from a CallToolRequest.
// Returns an empty map if Arguments is nil or not a map.
func getArgs(request mcp.CallToolRequest) map[string]interface{} {
	if request.Params.Arguments == nil {
		return map[string]interface{}{}
	}
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return args
}

// stringArg extracts a string argument with a default value.
func stringArg(args map[string]interface{}, key, defaultVal string) string {
	val, ok := args[key]
	if !ok || val == nil {
		return defaultVal
	}
	s, ok := val.(string)
	if !ok || s == "" {
		return defaultVal
	}
	return s
}

// numberArg extracts a numeric argument with a default value. MCP transmits
// tool arguments as JSON, so numbers decode as float64.
func numberArg(args map[string]interface{}, key string, defaultVal float64) float64 {
	val, ok := args[key]
	if !ok || val == nil {
		return defaultVal
	}
	f, ok := val.(float64)
	if !ok {
		return defaultVal
	}
	return f
}

// newTextResult creates a successful MCP tool result with text content.
func newTextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: text,
			},
		},
	}
}

// errResult creates an MCP tool error result (IsError=true).
// This is returned as a tool-level error, not a transport-level JSON-RPC error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: msg,
			},
		},
	}
}
