package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v9"

	"github.com/dotcommander/agenthost/internal/errs"
)

// Mode selects the process lifecycle.
type Mode string

const (
	// ModeServer runs the long-lived hosted-agent HTTP server.
	ModeServer Mode = "server"
	// ModePrompt sends a single prompt, prints the response, and exits.
	ModePrompt Mode = "prompt"
)

// Config holds everything the process reads from the environment.
//
// It is assembled once at startup and treated as read-only afterwards;
// components receive it explicitly instead of reaching into the
// environment themselves.
type Config struct {
	Port    string `env:"PORT" envDefault:"8088"`
	RunMode string `env:"RUN_MODE" envDefault:"server"`
	Prompt  string `env:"PROMPT" envDefault:"Tell me a joke about a pirate."`

	ProjectEndpoint     string `env:"PROJECT_ENDPOINT"`
	ModelDeploymentName string `env:"MODEL_DEPLOYMENT_NAME"`
	AgentName           string `env:"AGENT_NAME"`
	AgentInstructions   string `env:"AGENT_INSTRUCTIONS" envDefault:"You are good at telling jokes."`

	LogLevel string `env:"LOG_LEVEL"`
	Debug    bool   `env:"DEBUG"`
	// AFDebug is the agent framework's own debug switch; it lowers the
	// log level exactly like Debug does.
	AFDebug bool `env:"AF_DEBUG"`

	// Credential selection. MSIEndpoint is injected by the hosting
	// platform (the identity SDK reads its companion secret from the
	// environment itself); the rest configure explicit strategies.
	UseCLICredential bool   `env:"USE_CLI_CREDENTIAL"`
	ClientID         string `env:"CLIENT_ID"`
	ClientSecret     string `env:"CLIENT_SECRET"`
	TenantID         string `env:"TENANT_ID"`
	MSIEndpoint      string `env:"MSI_ENDPOINT"`

	EnableOTel   bool   `env:"ENABLE_OTEL"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	EnableWorkIQ      bool   `env:"ENABLE_WORKIQ"`
	WorkIQCommand     string `env:"WORKIQ_COMMAND" envDefault:"npx"`
	WorkIQTenantID    string `env:"WORKIQ_TENANT_ID"`
	WorkIQAllowHosted bool   `env:"WORKIQ_ALLOW_HOSTED"`

	// Work IQ writes startup diagnostics to stderr; capturing them is
	// the only way to see why the subprocess died.
	WorkIQCaptureStderr bool   `env:"WORKIQ_CAPTURE_STDERR" envDefault:"true"`
	WorkIQEchoStderr    bool   `env:"WORKIQ_ECHO_STDERR" envDefault:"true"`
	WorkIQStderrLogPath string `env:"WORKIQ_STDERR_LOG_PATH" envDefault:"/tmp/workiq-mcp.stderr.log"`

	// ToolsFile optionally points at a YAML file declaring extra MCP
	// servers to expose as agent tools.
	ToolsFile string `env:"TOOLS_FILE"`
}

// MCPServerConfig declares one MCP server from the tools file.
type MCPServerConfig struct {
	Type    string   `yaml:"type"`
	Command string   `yaml:"command"`
	Env     []string `yaml:"env"`
	Args    []string `yaml:"args"`
	URL     string   `yaml:"url"`

	// Stderr capture for stdio servers. When enabled, subprocess stderr
	// is appended to StderrLogPath and optionally echoed into the
	// process log.
	CaptureStderr bool   `yaml:"capture-stderr"`
	EchoStderr    bool   `yaml:"echo-stderr"`
	StderrLogPath string `yaml:"stderr-log-path"`
}

// Load parses the environment into a Config and validates it.
//
// LoadDotEnv should run before this so local .env values are visible.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return c, errs.Error{Err: err, Reason: "Could not parse environment configuration."}
	}

	c.RunMode = strings.ToLower(strings.TrimSpace(c.RunMode))
	if c.RunMode == "" {
		c.RunMode = string(ModeServer)
	}

	if err := c.validate(); err != nil {
		return c, err
	}
	return c, nil
}

func (c Config) validate() error {
	var missing []string
	for _, v := range []struct{ name, value string }{
		{"PROJECT_ENDPOINT", c.ProjectEndpoint},
		{"MODEL_DEPLOYMENT_NAME", c.ModelDeploymentName},
		{"AGENT_NAME", c.AgentName},
	} {
		if strings.TrimSpace(v.value) == "" {
			missing = append(missing, v.name)
		}
	}
	if len(missing) > 0 {
		return errs.Error{
			Err:    fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", ")),
			Reason: "Incomplete project configuration.",
		}
	}

	switch Mode(c.RunMode) {
	case ModeServer, ModePrompt:
	default:
		return errs.Error{
			Err:    fmt.Errorf("RUN_MODE must be %q or %q (got %q)", ModeServer, ModePrompt, c.RunMode),
			Reason: "Invalid run mode.",
		}
	}
	return nil
}

// Mode returns the validated run mode.
func (c Config) Mode() Mode { return Mode(c.RunMode) }

// Hosted reports whether the process appears to run inside a managed
// container, detected by the platform-injected managed-identity
// endpoint. This is a best-effort heuristic, not a guarantee.
func (c Config) Hosted() bool { return strings.TrimSpace(c.MSIEndpoint) != "" }

// Addr returns the listen address for server mode.
func (c Config) Addr() string { return ":" + c.Port }
