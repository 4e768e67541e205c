package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
//
// Storage flags left at their zero value fall back to the CUSTOMS_*
// environment variables (package config).
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	Root     string
	Backend  string
	Workers  int
	AutoSave bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the customs CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "customs",
		Short: "customs - custom definitions manager",
		Long: `Manage file-backed custom definitions: listener groups and menus.

Every command loads the collection from storage, applies one operation
and saves the touched streams before exiting.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Root, "root", "", "storage root directory (env CUSTOMS_ROOT)")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "storage backend: file|memory|sqlite|s3 (env CUSTOMS_BACKEND)")
	cmd.PersistentFlags().IntVar(&opts.Workers, "workers", 0, "I/O worker pool size (env CUSTOMS_WORKERS)")
	cmd.PersistentFlags().BoolVar(&opts.AutoSave, "autosave", false, "persist after every mutation (env CUSTOMS_AUTOSAVE)")

	cmd.AddCommand(NewListenersCommand(opts))
	cmd.AddCommand(NewMenusCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
