// Package cmd wires the guidewalk CLI: running a guide end to end and
// inspecting recorded run history.
package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for guidewalk
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guidewalk",
		Short: "Automated test driver for interactive in-app guides",
		Long: `Guidewalk opens a page that renders a multi-step interactive guide,
discovers the steps it exposes, and drives each one to completion or
failure without human intervention.

Unmet prerequisites are repaired through the guide's own fix controls,
guided sub-step sequences are followed action by action, and every
failure is classified and captured (screenshot, DOM snapshot, console
errors) for triage.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
