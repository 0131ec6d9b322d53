package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/hr-agent/internal/config"
)

// buildServeCmd creates the "serve" command that starts the gateway server.
func buildServeCmd() *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HR agent gateway server",
		Long: `Start the HR agent gateway server.

The server will:
1. Load configuration from the specified file (if present)
2. Register the HR lookup tools with the agent runtime
3. Start the HTTP server for chat and session endpoints

Graceful shutdown is handled on SIGINT/SIGTERM signals.`,
		Example: `  # Start with default config
  hr-agent serve

  # Start with custom config
  hr-agent serve --config /etc/hr-agent/production.yaml

  # Start with debug logging
  hr-agent serve --debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, explicit := resolveConfigPath(configPath)
			return runServe(cmd.Context(), path, explicit, debug)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "",
		"Path to YAML configuration file")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false,
		"Enable debug logging (verbose output)")

	return cmd
}

// buildConfigCmd creates the "config" command group.
func buildConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the configuration JSON Schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := config.JSONSchema()
			if err != nil {
				return fmt.Errorf("generate schema: %w", err)
			}
			fmt.Println(string(schema))
			return nil
		},
	})

	return cmd
}
