// Package main provides the CLI entry point for the HR agent gateway.
//
// The gateway exposes a chat endpoint backed by an Anthropic-powered agent
// with three HR lookup tools (assignment ids, timeoff schedules, direct
// reports) and in-memory conversation tracking.
//
// # Basic Usage
//
// Start the server:
//
//	hr-agent serve --config hr-agent.yaml
//
// Print the configuration schema:
//
//	hr-agent config schema
//
// # Environment Variables
//
//   - ANTHROPIC_API_KEY: Anthropic API key (required for serve)
//   - HR_AGENT_CONFIG: Path to configuration file (default: hr-agent.yaml)
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build information - populated by ldflags during build.
//
// Example build command:
//
//	go build -ldflags "-X main.version=v1.0.0 -X main.commit=$(git rev-parse HEAD) -X main.date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	version = "dev"     // Semantic version (e.g., "v1.0.0")
	commit  = "none"    // Git commit SHA
	date    = "unknown" // Build timestamp
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hr-agent",
		Short: "HTTP gateway for an HR question-answering agent",
		Long: `hr-agent serves a chat API over an Anthropic-powered HR agent.

The agent answers questions about employee assignment ids, timeoff
schedules, and direct reports using a fixed set of lookup tools, and the
gateway tracks conversation history per session in memory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		buildServeCmd(),
		buildConfigCmd(),
		buildVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// buildVersionCmd creates the "version" command.
func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("hr-agent %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

// resolveConfigPath applies the HR_AGENT_CONFIG fallback when no explicit
// path was given. The second return reports whether the operator named the
// path (flag or environment) rather than the built-in default; a named path
// that does not exist is an error, the default path is optional.
func resolveConfigPath(path string) (string, bool) {
	if path != "" {
		return path, true
	}
	if env := os.Getenv("HR_AGENT_CONFIG"); env != "" {
		return env, true
	}
	return "hr-agent.yaml", false
}
