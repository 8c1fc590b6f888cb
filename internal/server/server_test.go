package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dotcommander/agenthost/internal/agents"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubInvoker struct {
	output string
	err    error
	prompt string
}

func (s *stubInvoker) Run(_ context.Context, _ agents.Agent, prompt string, _ agents.ToolCaller) (string, error) {
	s.prompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.output, nil
}

func newTestHost(invoker Invoker) *Host {
	agent := agents.Agent{ID: "asst_1", Name: "HostedAgent", Model: "gpt-4o-mini"}
	return New(":0", agent, invoker, nil, discardLogger())
}

func TestHandler(t *testing.T) {
	t.Run("healthz", func(t *testing.T) {
		srv := httptest.NewServer(newTestHost(&stubInvoker{}).Handler())
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("agent card", func(t *testing.T) {
		srv := httptest.NewServer(newTestHost(&stubInvoker{}).Handler())
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/agent")
		require.NoError(t, err)
		defer resp.Body.Close()

		var agent agents.Agent
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&agent))
		require.Equal(t, "HostedAgent", agent.Name)
		require.Equal(t, "gpt-4o-mini", agent.Model)
	})

	t.Run("responses forwards to the agent", func(t *testing.T) {
		invoker := &stubInvoker{output: "a joke"}
		srv := httptest.NewServer(newTestHost(invoker).Handler())
		defer srv.Close()

		resp, err := http.Post(srv.URL+"/responses", "application/json",
			strings.NewReader(`{"input":"Tell me a joke about a pirate."}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body responseBody
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Equal(t, "a joke", body.Output)
		require.Equal(t, "HostedAgent", body.Agent)
		require.True(t, strings.HasPrefix(body.ID, "resp_"))
		require.Equal(t, "Tell me a joke about a pirate.", invoker.prompt)
	})

	t.Run("missing input is a bad request", func(t *testing.T) {
		srv := httptest.NewServer(newTestHost(&stubInvoker{}).Handler())
		defer srv.Close()

		resp, err := http.Post(srv.URL+"/responses", "application/json", strings.NewReader(`{}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("agent failure is a bad gateway", func(t *testing.T) {
		invoker := &stubInvoker{err: errors.New("model overloaded")}
		srv := httptest.NewServer(newTestHost(invoker).Handler())
		defer srv.Close()

		resp, err := http.Post(srv.URL+"/responses", "application/json",
			strings.NewReader(`{"input":"hello"}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})
}

func TestRun(t *testing.T) {
	t.Run("binds the port and shuts down on cancel", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addr := ln.Addr().String()
		require.NoError(t, ln.Close())

		host := New(addr, agents.Agent{Name: "HostedAgent"}, &stubInvoker{output: "ok"}, nil, discardLogger())

		ctx, cancel := context.WithCancel(t.Context())
		done := make(chan error, 1)
		go func() { done <- host.Run(ctx) }()

		require.Eventually(t, func() bool {
			resp, err := http.Get("http://" + addr + "/healthz")
			if err != nil {
				return false
			}
			defer resp.Body.Close()
			return resp.StatusCode == http.StatusOK
		}, 5*time.Second, 50*time.Millisecond)

		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("server did not shut down")
		}
	})

	t.Run("bind failure returns an error", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		defer ln.Close()

		host := New(ln.Addr().String(), agents.Agent{}, &stubInvoker{}, nil, discardLogger())
		require.Error(t, host.Run(t.Context()))
	})
}
