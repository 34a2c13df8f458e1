// Package cli wires the command-line interface.
package cli

import (
	"github.com/spf13/cobra"
)

const version = "0.1.0"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sela",
	Short: "Sela - paid conversational agent endpoint",
	Long: `Sela serves a conversational agent over a payment-gated HTTP endpoint.
It keeps bounded per-session conversation memory, lets the agent probe
endpoint schemas, and streams run events to watchers.`,
	Version: version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
}

// GetRootCmd returns the root command for testing
func GetRootCmd() *cobra.Command {
	return rootCmd
}
