package tool

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dotcommander/agenthost/internal/config"
)

// initClient starts a client for the given MCP server. Stdio servers
// launch their subprocess here, which is why construction of the tool
// set itself never spawns anything.
func initClient(ctx context.Context, name string, server config.MCPServerConfig, log *slog.Logger) (*client.Client, error) {
	var cli *client.Client
	var err error

	switch server.Type {
	case "", "stdio":
		cli, err = client.NewStdioMCPClient(
			server.Command,
			append(os.Environ(), server.Env...),
			server.Args...,
		)
		if err == nil && server.CaptureStderr {
			if stderr, ok := client.GetStderr(cli); ok {
				go pumpStderr(stderr, name, server, log)
			}
		}
	case "sse":
		cli, err = client.NewSSEMCPClient(server.URL)
	case "http":
		cli, err = client.NewStreamableHttpClient(server.URL)
	default:
		return nil, fmt.Errorf("unsupported MCP server type: %q, supported types are: stdio, sse, http", server.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create MCP client: %w", err)
	}

	if err := cli.Start(ctx); err != nil {
		cli.Close() //nolint:errcheck
		return nil, fmt.Errorf("failed to start MCP client: %w", err)
	}

	if _, err := cli.Initialize(ctx, mcp.InitializeRequest{}); err != nil {
		cli.Close() //nolint:errcheck
		return nil, fmt.Errorf("failed to initialize MCP client: %w", err)
	}

	return cli, nil
}

// pumpStderr drains a stdio server's stderr until the subprocess exits,
// appending lines to the configured log file and optionally echoing
// them into the process log. Startup diagnostics of a crashing server
// would otherwise vanish with its pipe.
func pumpStderr(stderr io.Reader, name string, server config.MCPServerConfig, log *slog.Logger) {
	var sink io.Writer
	if path := server.StderrLogPath; path != "" {
		if dir := filepath.Dir(path); dir != "" {
			_ = os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			log.Warn("could not open mcp stderr log", "server", name, "path", path, "error", err)
		} else {
			defer f.Close() //nolint:errcheck
			sink = f
		}
	}

	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if sink != nil {
			fmt.Fprintln(sink, line) //nolint:errcheck
		}
		if server.EchoStderr {
			log.Info("mcp stderr", "server", name, "line", line)
		}
	}
}

// listServerTools lists a server's tools as prefixed descriptors.
func listServerTools(ctx context.Context, name string, server config.MCPServerConfig, log *slog.Logger) ([]Descriptor, error) {
	cli, err := initClient(ctx, name, server, log)
	if err != nil {
		return nil, err
	}
	defer cli.Close() //nolint:errcheck

	result, err := cli.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, err
	}

	descriptors := make([]Descriptor, 0, len(result.Tools))
	for _, t := range result.Tools {
		schema, err := json.Marshal(t.InputSchema)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, Descriptor{
			Name:        name + "_" + t.Name,
			Description: t.Description,
			InputSchema: schema,
		})
	}
	return descriptors, nil
}

// callServerTool executes one tool call against the server.
func callServerTool(ctx context.Context, name string, server config.MCPServerConfig, toolName string, arguments json.RawMessage, log *slog.Logger) (string, error) {
	cli, err := initClient(ctx, name, server, log)
	if err != nil {
		return "", err
	}
	defer cli.Close() //nolint:errcheck

	var args map[string]any
	if len(arguments) > 0 {
		if err := json.Unmarshal(arguments, &args); err != nil {
			return "", fmt.Errorf("%s: %s", err, string(arguments))
		}
	}

	request := mcp.CallToolRequest{}
	request.Params.Name = toolName
	request.Params.Arguments = args
	result, err := cli.CallTool(ctx, request)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, content := range result.Content {
		switch content := content.(type) {
		case mcp.TextContent:
			sb.WriteString(content.Text)
		default:
			sb.WriteString("[Non-text content]")
		}
	}

	if result.IsError {
		return "", errors.New(sb.String())
	}
	return sb.String(), nil
}
