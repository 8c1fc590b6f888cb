// Package agents talks to the remote agent management service: it
// provisions the named agent and runs conversations against it.
package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dotcommander/agenthost/internal/credential"
)

// ErrProvisioning indicates the remote create/lookup failed.
var ErrProvisioning = errors.New("agent provisioning failed")

// Scope is the OAuth2 scope requested for management calls.
const Scope = "https://ai.azure.com/.default"

const apiVersion = "v1"

// Agent is a transient reference to a remotely owned agent resource.
type Agent struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Model string `json:"model"`
}

// Client is a thin HTTP client for the project endpoint.
type Client struct {
	endpoint string
	cred     credential.TokenCredential
	http     *http.Client
}

// NewClient creates a management client for the project endpoint.
func NewClient(endpoint string, cred credential.TokenCredential) *Client {
	return &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		cred:     cred,
		http:     &http.Client{Timeout: 60 * time.Second},
	}
}

// do performs one authenticated round-trip and decodes the response
// into out when it is non-nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	url := c.endpoint + path
	if strings.Contains(path, "?") {
		url += "&api-version=" + apiVersion
	} else {
		url += "?api-version=" + apiVersion
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	token, err := c.cred.GetToken(ctx, Scope)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token.Value)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: HTTP %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}
