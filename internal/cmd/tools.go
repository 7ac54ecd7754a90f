package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/mychem-mcp/mychem-mcp/internal/tools"
)

var toolsJSON bool

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the available MCP tools",
	Long: `List every tool the server exposes, grouped by domain. Useful for a
quick overview of what an MCP client will see, without starting a server.`,
	RunE: runTools,
}

func init() {
	rootCmd.AddCommand(toolsCmd)

	toolsCmd.Flags().BoolVar(&toolsJSON, "json", false, "output as JSON, including each tool's input schema")
}

func runTools(cmd *cobra.Command, args []string) error {
	registry := tools.NewRegistry()

	if toolsJSON {
		type toolInfo struct {
			Name        string          `json:"name"`
			Domain      string          `json:"domain"`
			Description string          `json:"description"`
			InputSchema json.RawMessage `json:"input_schema"`
		}
		infos := make([]toolInfo, 0, registry.Len())
		for _, t := range registry.All() {
			infos = append(infos, toolInfo{
				Name:        t.Name,
				Domain:      t.Domain,
				Description: t.Description,
				InputSchema: t.Schema,
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Name", "Domain", "Description"})
	for _, t := range registry.All() {
		tw.AppendRow(table.Row{t.Name, t.Domain, t.Description})
	}
	tw.Render()

	fmt.Printf("\n%d tools\n", registry.Len())
	return nil
}
