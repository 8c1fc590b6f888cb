// Package server hosts the agent behind an HTTP interface for the
// long-running container mode.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dotcommander/agenthost/internal/agents"
)

// Invoker runs one conversation turn against the remote agent.
type Invoker interface {
	Run(ctx context.Context, agent agents.Agent, prompt string, tools agents.ToolCaller) (string, error)
}

// Host serves the agent over HTTP. It owns no conversation state; every
// request is forwarded to the remote agent.
type Host struct {
	addr    string
	agent   agents.Agent
	invoker Invoker
	tools   agents.ToolCaller
	log     *slog.Logger
	tracer  trace.Tracer
}

// New creates a host listening on addr.
func New(addr string, agent agents.Agent, invoker Invoker, tools agents.ToolCaller, log *slog.Logger) *Host {
	return &Host{
		addr:    addr,
		agent:   agent,
		invoker: invoker,
		tools:   tools,
		log:     log,
		tracer:  otel.Tracer("agenthost/server"),
	}
}

// Handler builds the HTTP routes.
func (h *Host) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.handleHealth)
	r.Get("/agent", h.handleAgent)
	r.Post("/responses", h.handleResponses)
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
// Under normal operation it only returns after a termination signal.
func (h *Host) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              h.addr,
		Handler:           h.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		h.log.Info("agent host listening", "addr", h.addr, "agent", h.agent.Name)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	err := <-errCh
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (h *Host) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Host) handleAgent(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.agent)
}

type responseRequest struct {
	Input string `json:"input"`
}

type responseBody struct {
	ID     string `json:"id"`
	Agent  string `json:"agent"`
	Output string `json:"output"`
}

func (h *Host) handleResponses(w http.ResponseWriter, r *http.Request) {
	var req responseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.Input == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "input is required"})
		return
	}

	ctx, span := h.tracer.Start(r.Context(), "agent.response",
		trace.WithAttributes(attribute.String("agent.name", h.agent.Name)))
	defer span.End()

	output, err := h.invoker.Run(ctx, h.agent, req.Input, h.tools)
	if err != nil {
		span.RecordError(err)
		h.log.Error("agent invocation failed", "error", err)
		respondJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	respondJSON(w, http.StatusOK, responseBody{
		ID:     "resp_" + uuid.NewString(),
		Agent:  h.agent.Name,
		Output: output,
	})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
