// Package tool builds the set of capabilities exposed to the hosted
// agent: a deterministic built-in tool plus optional MCP-backed tools.
package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dotcommander/agenthost/internal/config"
)

// ErrInvocation indicates a tool call failed at invocation time.
var ErrInvocation = errors.New("tool invocation failed")

// Tool is a locally implemented callable capability.
type Tool interface {
	Name() string
	Description() string
	Call(ctx context.Context, input string) (string, error)
}

// Descriptor is what gets registered with the remote agent for one
// callable tool.
type Descriptor struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// freeTextSchema is the input schema for built-in free-text tools.
var freeTextSchema = json.RawMessage(`{"type":"object","properties":{"input":{"type":"string","description":"Free-text input."}},"required":["input"]}`)

// Set is the ordered collection of tools handed to the agent factory.
// It is not mutated after construction.
type Set struct {
	builtins []Tool
	servers  map[string]config.MCPServerConfig
	order    []string
	log      *slog.Logger
}

// NewSet creates a tool set from built-in tools and MCP servers.
// serverOrder fixes the listing order of the servers map.
func NewSet(builtins []Tool, servers map[string]config.MCPServerConfig, serverOrder []string, log *slog.Logger) *Set {
	return &Set{builtins: builtins, servers: servers, order: serverOrder, log: log}
}

// Builtins returns the built-in tools in order.
func (s *Set) Builtins() []Tool { return s.builtins }

// ServerNames returns the MCP server names in order.
func (s *Set) ServerNames() []string { return s.order }

// Descriptors lists every tool the set exposes. MCP servers are queried
// concurrently; their tool names are prefixed "<server>_<tool>".
//
// A server that fails to launch or list is skipped with a warning so a
// broken optional tool never takes the agent down. Its calls, should
// the agent still attempt any, fail individually at call time.
func (s *Set) Descriptors(ctx context.Context) ([]Descriptor, error) {
	descriptors := make([]Descriptor, 0, len(s.builtins))
	for _, t := range s.builtins {
		descriptors = append(descriptors, Descriptor{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: freeTextSchema,
		})
	}

	var mu sync.Mutex
	byServer := make(map[string][]Descriptor, len(s.order))
	var wg errgroup.Group
	for _, name := range s.order {
		server := s.servers[name]
		wg.Go(func() error {
			serverTools, err := listServerTools(ctx, name, server, s.log)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.log.Warn("skipping unavailable mcp server", "server", name, "error", err)
				return nil
			}
			mu.Lock()
			byServer[name] = serverTools
			mu.Unlock()
			return nil
		})
	}
	if err := wg.Wait(); err != nil {
		return nil, err
	}
	for _, name := range s.order {
		descriptors = append(descriptors, byServer[name]...)
	}
	return descriptors, nil
}

// Call dispatches a tool call by the name previously listed by
// Descriptors. MCP calls launch the backing server on demand.
func (s *Set) Call(ctx context.Context, name string, arguments json.RawMessage) (string, error) {
	for _, t := range s.builtins {
		if t.Name() != name {
			continue
		}
		var args struct {
			Input string `json:"input"`
		}
		if len(arguments) > 0 {
			if err := json.Unmarshal(arguments, &args); err != nil {
				return "", fmt.Errorf("%w: %s: %s", ErrInvocation, name, err)
			}
		}
		out, err := t.Call(ctx, args.Input)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %s", ErrInvocation, name, err)
		}
		return out, nil
	}

	sname, toolName, ok := strings.Cut(name, "_")
	if !ok {
		return "", fmt.Errorf("%w: unknown tool %q", ErrInvocation, name)
	}
	server, ok := s.servers[sname]
	if !ok {
		return "", fmt.Errorf("%w: unknown server %q", ErrInvocation, sname)
	}
	out, err := callServerTool(ctx, sname, server, toolName, arguments, s.log)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %s", ErrInvocation, name, err)
	}
	return out, nil
}
