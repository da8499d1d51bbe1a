// Package cli implements catalogctl, the operator tool for the exercise
// catalog and database setup.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"alcyxob/gym-routines/internal/config"
	"alcyxob/gym-routines/internal/platform/logger"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigDir string
	Verbose   bool
	Format    string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for catalogctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "catalogctl",
		Short: "Manage the gym exercise catalog",
		Long:  "Seed muscle groups and exercises, inspect the catalog and prepare database indexes.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigDir, "config", ".", "directory holding config.yaml")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log to stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewIndexesCommand(opts))
	return cmd
}

// load reads the configuration and builds the command logger.
func (o *RootOptions) load() (config.Config, *logger.Logger, error) {
	cfg, err := config.LoadConfig(o.ConfigDir)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	if !o.Verbose {
		return cfg, logger.Nop(), nil
	}
	log, err := logger.New("development")
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}

// print writes v as indented JSON, or calls text for the human format.
func (o *RootOptions) print(w io.Writer, v any, text func(io.Writer)) error {
	if o.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}
