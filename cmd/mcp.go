package main

import (
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/xhad/docspace/server"
)

func newMCPCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the document tools over MCP on stdio",
		Example: `  # claude_desktop_config.json
  # {"mcpServers": {"docspace": {"command": "docspace", "args": ["mcp"]}}}`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdout carries the protocol; never log there
			flags.verbose = false

			eng, _, err := flags.openEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			if err := mcpserver.ServeStdio(server.NewMCPServer(eng, version)); err != nil {
				return fmt.Errorf("mcp server: %w", err)
			}
			return nil
		},
	}
}
