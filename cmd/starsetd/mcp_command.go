package main

import (
	"log"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"starset-backend/config"
	"starset-backend/mcp"
)

func newMCPCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configFlag)
			if err != nil {
				return err
			}

			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			mcpServer := mcp.NewMCPServer(store, cfg.MCP.AdminAPIKey)

			log.Printf("Starset MCP server starting (store=%s)", cfg.Store.Driver)
			return server.ServeStdio(mcpServer.GetMCPServer())
		},
	}
}
