package main

import (
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/budget-extractor/internal/mcp"
)

func newMCPCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run an MCP server on stdio",
		Long: `Run a Model Context Protocol server on stdin/stdout exposing the tools
extract_budget, list_projects and get_project. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := mcp.NewServer(a.svc, version, c.cfg.Server.MaxUploadBytes, c.logger)
			if err != nil {
				return err
			}
			return s.ServeStdio()
		},
	}
}
