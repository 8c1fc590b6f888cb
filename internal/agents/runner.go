package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ToolCaller dispatches a tool call requested by the remote run loop to
// a locally implemented tool.
type ToolCaller func(ctx context.Context, name string, arguments json.RawMessage) (string, error)

// pollInterval is how often run status is checked.
const pollInterval = 500 * time.Millisecond

type toolCall struct {
	ID       string `json:"id"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type requiredAction struct {
	SubmitToolOutputs struct {
		ToolCalls []toolCall `json:"tool_calls"`
	} `json:"submit_tool_outputs"`
}

type runError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type run struct {
	ID             string          `json:"id"`
	ThreadID       string          `json:"thread_id"`
	Status         string          `json:"status"`
	RequiredAction *requiredAction `json:"required_action"`
	LastError      *runError       `json:"last_error"`
}

type messageList struct {
	Data []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text struct {
				Value string `json:"value"`
			} `json:"text"`
		} `json:"content"`
	} `json:"data"`
}

// Run sends a single user message to the agent and returns the single
// assistant response. Tool calls requested by the remote run loop are
// dispatched through tools before the response is produced.
func (c *Client) Run(ctx context.Context, agent Agent, prompt string, tools ToolCaller) (string, error) {
	body := map[string]any{
		"assistant_id": agent.ID,
		"thread": map[string]any{
			"messages": []map[string]any{{"role": "user", "content": prompt}},
		},
	}
	var current run
	if err := c.do(ctx, http.MethodPost, "/threads/runs", body, &current); err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}

	for {
		switch current.Status {
		case "completed":
			return c.lastAssistantMessage(ctx, current.ThreadID)

		case "requires_action":
			if err := c.submitToolOutputs(ctx, &current, tools); err != nil {
				return "", err
			}
			continue

		case "failed", "cancelled", "expired", "incomplete":
			if current.LastError != nil {
				return "", fmt.Errorf("run %s: %s: %s", current.Status, current.LastError.Code, current.LastError.Message)
			}
			return "", fmt.Errorf("run %s", current.Status)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(pollInterval):
		}

		path := fmt.Sprintf("/threads/%s/runs/%s", current.ThreadID, current.ID)
		if err := c.do(ctx, http.MethodGet, path, nil, &current); err != nil {
			return "", fmt.Errorf("poll run: %w", err)
		}
	}
}

func (c *Client) submitToolOutputs(ctx context.Context, current *run, tools ToolCaller) error {
	if current.RequiredAction == nil {
		return fmt.Errorf("run requires action but none was provided")
	}
	if tools == nil {
		return fmt.Errorf("run requested tool calls but no tools are registered")
	}

	calls := current.RequiredAction.SubmitToolOutputs.ToolCalls
	outputs := make([]map[string]string, 0, len(calls))
	for _, call := range calls {
		result, err := tools(ctx, call.Function.Name, json.RawMessage(call.Function.Arguments))
		if err != nil {
			// Surface the failure to the model instead of aborting the
			// run; the remote loop decides how to proceed.
			result = "error: " + err.Error()
		}
		outputs = append(outputs, map[string]string{
			"tool_call_id": call.ID,
			"output":       result,
		})
	}

	path := fmt.Sprintf("/threads/%s/runs/%s/submit_tool_outputs", current.ThreadID, current.ID)
	if err := c.do(ctx, http.MethodPost, path, map[string]any{"tool_outputs": outputs}, current); err != nil {
		return fmt.Errorf("submit tool outputs: %w", err)
	}
	return nil
}

func (c *Client) lastAssistantMessage(ctx context.Context, threadID string) (string, error) {
	var messages messageList
	path := fmt.Sprintf("/threads/%s/messages?order=desc&limit=1", threadID)
	if err := c.do(ctx, http.MethodGet, path, nil, &messages); err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if len(messages.Data) == 0 {
		return "", fmt.Errorf("run completed without a response message")
	}

	var sb strings.Builder
	for _, content := range messages.Data[0].Content {
		if content.Type == "text" {
			sb.WriteString(content.Text.Value)
		}
	}
	return sb.String(), nil
}
