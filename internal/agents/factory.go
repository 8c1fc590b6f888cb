package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dotcommander/agenthost/internal/errs"
	"github.com/dotcommander/agenthost/internal/tool"
)

// functionTool is the wire form of one registered tool.
type functionTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string         `json:"name"`
		Description string         `json:"description,omitempty"`
		Parameters  map[string]any `json:"parameters,omitempty"`
	} `json:"function"`
}

type agentList struct {
	Data    []Agent `json:"data"`
	HasMore bool    `json:"has_more"`
	LastID  string  `json:"last_id"`
}

// EnsureAgent finds the agent with the given display name, creating it
// when absent. The lookup-then-create makes repeated deployments of the
// same container reuse one remote agent instead of accumulating copies.
func (c *Client) EnsureAgent(ctx context.Context, name, model, instructions string, descriptors []tool.Descriptor) (Agent, error) {
	existing, err := c.findByName(ctx, name)
	if err != nil {
		return Agent{}, errs.Error{
			Err:    fmt.Errorf("%w: %w", ErrProvisioning, err),
			Reason: "Could not look up the remote agent.",
		}
	}
	if existing != nil {
		return *existing, nil
	}

	tools := make([]functionTool, 0, len(descriptors))
	for _, d := range descriptors {
		var ft functionTool
		ft.Type = "function"
		ft.Function.Name = d.Name
		ft.Function.Description = d.Description
		if len(d.InputSchema) > 0 {
			ft.Function.Parameters = map[string]any{}
			if err := json.Unmarshal(d.InputSchema, &ft.Function.Parameters); err != nil {
				return Agent{}, errs.Error{
					Err:    fmt.Errorf("%w: tool %s: %w", ErrProvisioning, d.Name, err),
					Reason: "Invalid tool schema.",
				}
			}
		}
		tools = append(tools, ft)
	}

	body := map[string]any{
		"name":         name,
		"model":        model,
		"instructions": instructions,
	}
	if len(tools) > 0 {
		body["tools"] = tools
	}

	var created Agent
	if err := c.do(ctx, http.MethodPost, "/assistants", body, &created); err != nil {
		return Agent{}, errs.Error{
			Err:    fmt.Errorf("%w: %w", ErrProvisioning, err),
			Reason: "Could not create the remote agent.",
		}
	}
	return created, nil
}

// findByName pages through the agent list looking for a display-name
// match. Returns nil when no agent matches.
func (c *Client) findByName(ctx context.Context, name string) (*Agent, error) {
	after := ""
	for {
		path := "/assistants?limit=100"
		if after != "" {
			path += "&after=" + after
		}
		var page agentList
		if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, err
		}
		for _, agent := range page.Data {
			if agent.Name == name {
				return &agent, nil
			}
		}
		if !page.HasMore || page.LastID == "" {
			return nil, nil
		}
		after = page.LastID
	}
}
