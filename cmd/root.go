package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the mcp-redfish application.
var rootCmd = &cobra.Command{
	Use:   "mcp-redfish",
	Short: "MCP server for Redfish-based hardware management",
	Long: `mcp-redfish exposes a fleet of Redfish-compliant servers as MCP tools
for AI agents. Hosts come from static configuration and optional SSDP
discovery; resource access is authenticated and retried on transport
failures.`,
	// SilenceUsage prevents Cobra from printing the usage message on
	// errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command. Called from main
// to inject the build version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mcp-redfish version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
}
