package tool

import (
	"log/slog"
	"maps"
	"os/exec"
	"slices"

	"github.com/dotcommander/agenthost/internal/config"
)

const workIQServerName = "workiq"

// Decision is the outcome of the pure inclusion logic: which optional
// tools make it into the set, and why any were skipped.
type Decision struct {
	IncludeWorkIQ bool
	Warnings      []string
}

// Plan decides whether the optional Work IQ tool is included, without
// side effects. lookPath abstracts PATH resolution so the decision can
// be tested; pass exec.LookPath in production.
//
// The hosted guard keys off the managed-identity endpoint. That is a
// best-effort signal for "interactive sign-in is impossible", not a
// guarantee.
func Plan(cfg config.Config, lookPath func(string) (string, error)) Decision {
	var d Decision
	if !cfg.EnableWorkIQ {
		return d
	}

	if cfg.Hosted() && !cfg.WorkIQAllowHosted {
		d.Warnings = append(d.Warnings,
			"Work IQ is enabled but this runtime appears to be hosted (MSI_ENDPOINT is set). "+
				"Work IQ uses delegated user auth and typically requires interactive sign-in, "+
				"which is not available in headless hosted containers. Skipping Work IQ. "+
				"Set WORKIQ_ALLOW_HOSTED=true to force-enable (best-effort).")
		return d
	}

	if _, err := lookPath(cfg.WorkIQCommand); err != nil {
		d.Warnings = append(d.Warnings,
			"Work IQ is enabled but '"+cfg.WorkIQCommand+"' was not found on PATH. "+
				"Install Node.js (for npx) or set WORKIQ_COMMAND. Skipping Work IQ.")
		return d
	}

	d.IncludeWorkIQ = true
	return d
}

// workIQServer builds the MCP server declaration for Work IQ.
func workIQServer(cfg config.Config) config.MCPServerConfig {
	args := []string{"-y", "@microsoft/workiq"}
	if cfg.WorkIQTenantID != "" {
		args = append(args, "-t", cfg.WorkIQTenantID)
	}
	args = append(args, "mcp")
	return config.MCPServerConfig{
		Command:       cfg.WorkIQCommand,
		Args:          args,
		CaptureStderr: cfg.WorkIQCaptureStderr,
		EchoStderr:    cfg.WorkIQEchoStderr,
		StderrLogPath: cfg.WorkIQStderrLogPath,
	}
}

// Build assembles the tool set: the built-in slogan tool, Work IQ when
// the Plan admits it, and any servers from the tools file. Warnings are
// logged, never fatal. No subprocess is launched here.
func Build(cfg config.Config, log *slog.Logger) (*Set, error) {
	decision := Plan(cfg, exec.LookPath)
	for _, warning := range decision.Warnings {
		log.Warn(warning)
	}

	servers := map[string]config.MCPServerConfig{}
	var order []string
	if decision.IncludeWorkIQ {
		servers[workIQServerName] = workIQServer(cfg)
		order = append(order, workIQServerName)
		log.Debug("workiq tool enabled", "command", cfg.WorkIQCommand)
		if cfg.WorkIQCaptureStderr {
			log.Info("capturing workiq stderr", "path", cfg.WorkIQStderrLogPath, "echo", cfg.WorkIQEchoStderr)
		}
	}

	extra, err := config.LoadToolsFile(cfg.ToolsFile)
	if err != nil {
		return nil, err
	}
	extraNames := slices.Sorted(maps.Keys(extra))
	for _, name := range extraNames {
		if _, exists := servers[name]; exists {
			continue
		}
		servers[name] = extra[name]
		order = append(order, name)
	}

	return NewSet([]Tool{NewSlogan()}, servers, order, log), nil
}
