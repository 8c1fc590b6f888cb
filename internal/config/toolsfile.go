package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dotcommander/agenthost/internal/errs"
)

// ToolsFileSpec is the schema of the optional tools file.
type ToolsFileSpec struct {
	MCPServers map[string]MCPServerConfig `yaml:"mcp-servers"`
}

// LoadToolsFile reads extra MCP server declarations from the YAML file
// named by TOOLS_FILE. An empty path yields no servers.
func LoadToolsFile(path string) (map[string]MCPServerConfig, error) {
	if path == "" {
		return nil, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Error{Err: err, Reason: "Could not read tools file."}
	}
	var spec ToolsFileSpec
	if err := yaml.Unmarshal(content, &spec); err != nil {
		return nil, errs.Error{Err: err, Reason: "Could not parse tools file."}
	}
	return spec.MCPServers, nil
}
