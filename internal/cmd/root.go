package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for foamcsv
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "foamcsv",
		Short: "Convert OpenFOAM field files to CSV",
		Long: `Foamcsv walks the time directories of an OpenFOAM case, extracts the
internalField entry of each configured field file, and writes one CSV per
field per time step.

Scalar fields produce cellId,value rows; vector fields produce
cellId,ux,uy,uz rows. Missing field files are skipped and malformed ones
are logged without stopping the run.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	// Add subcommands
	cmd.AddCommand(NewExportCommand())
	cmd.AddCommand(NewInspectCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
