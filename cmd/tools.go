package cmd

import (
	"context"
	"sort"

	"github.com/mj1618/remote-ui-mcp/internal/config"
	"github.com/mj1618/remote-ui-mcp/internal/output"
	"github.com/mj1618/remote-ui-mcp/internal/server"
	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the MCP tools the server exposes",
	RunE:  runTools,
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}

// toolEntry is the output for one tool.
type toolEntry struct {
	Name        string   `yaml:"name"                json:"name"`
	Description string   `yaml:"description"         json:"description"`
	Required    []string `yaml:"required,omitempty"  json:"required,omitempty"`
	Optional    []string `yaml:"optional,omitempty"  json:"optional,omitempty"`
	ReadOnly    bool     `yaml:"read_only,omitempty" json:"read_only,omitempty"`
}

func runTools(cmd *cobra.Command, args []string) error {
	device, err := openDevice("")
	if err != nil {
		return err
	}
	srv := server.New(device, config.Static(config.Default()))
	defer srv.Close(context.Background())

	tools := srv.Registry().ListTools()
	entries := make([]toolEntry, 0, len(tools))
	for _, t := range tools {
		e := toolEntry{Name: t.Name, Description: t.Description, Required: t.InputSchema.Required}
		required := make(map[string]bool, len(t.InputSchema.Required))
		for _, r := range t.InputSchema.Required {
			required[r] = true
		}
		for name := range t.InputSchema.Properties {
			if !required[name] {
				e.Optional = append(e.Optional, name)
			}
		}
		sort.Strings(e.Optional)
		if hint := t.Annotations.ReadOnlyHint; hint != nil {
			e.ReadOnly = *hint
		}
		entries = append(entries, e)
	}
	return output.Fprint(cmd.OutOrStdout(), entries)
}
