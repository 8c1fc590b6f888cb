package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dotcommander/agenthost/internal/agents"
	"github.com/dotcommander/agenthost/internal/config"
	"github.com/dotcommander/agenthost/internal/credential"
	"github.com/dotcommander/agenthost/internal/errs"
	"github.com/dotcommander/agenthost/internal/observe"
	"github.com/dotcommander/agenthost/internal/server"
	"github.com/dotcommander/agenthost/internal/tool"
)

// run performs the linear container flow: resolve credentials, build
// the tool set, provision the agent, then dispatch on the run mode.
func (rt *runtime) run(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg := rt.cfg
	cfg.RunMode = strings.ToLower(strings.TrimSpace(cfg.RunMode))
	log := newLogger(cfg)

	shutdown, err := observe.Setup(ctx, cfg, log)
	if err != nil {
		// Local tracing is optional; a missing collector must not block
		// the agent.
		log.Warn("tracing setup failed", "error", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	cred, err := credential.Resolve(cfg, log)
	if err != nil {
		return err
	}

	set, err := tool.Build(cfg, log)
	if err != nil {
		return err
	}

	client := agents.NewClient(cfg.ProjectEndpoint, cred)
	descriptors, err := set.Descriptors(ctx)
	if err != nil {
		return errs.Error{Err: err, Reason: "Could not list agent tools."}
	}

	agent, err := client.EnsureAgent(ctx, cfg.AgentName, cfg.ModelDeploymentName, cfg.AgentInstructions, descriptors)
	if err != nil {
		return err
	}
	log.Info("agent ready", "name", agent.Name, "id", agent.ID, "model", agent.Model)

	return dispatch(ctx, cfg, agent, client, set.Call, cmd.OutOrStdout(), log)
}

// dispatch runs the selected mode against a provisioned agent.
func dispatch(ctx context.Context, cfg config.Config, agent agents.Agent, invoker server.Invoker, tools agents.ToolCaller, out io.Writer, log *slog.Logger) error {
	switch cfg.Mode() {
	case config.ModePrompt:
		response, err := invoker.Run(ctx, agent, cfg.Prompt, tools)
		if err != nil {
			return errs.Error{Err: err, Reason: "Prompt execution failed."}
		}
		fmt.Fprintln(out, response)
		return nil
	default:
		host := server.New(cfg.Addr(), agent, invoker, tools, log)
		return host.Run(ctx)
	}
}
