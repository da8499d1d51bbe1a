package cli

import (
	"fmt"
	"io"
	"os"

	"alcyxob/gym-routines/internal/app"
	"alcyxob/gym-routines/internal/service"

	"github.com/spf13/cobra"
)

type seedOutput struct {
	File   string              `json:"file"`
	DryRun bool                `json:"dryRun"`
	Groups int                 `json:"groups"`
	Report *service.SeedReport `json:"report,omitempty"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "seed <catalog.yaml>",
		Short: "Load muscle groups and exercises from a YAML file",
		Long: `Create every muscle group and exercise listed in the file that does not
exist yet. Existing records are matched by name and left untouched, so the
command can be re-run safely.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, rootOpts, args[0], dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse the file without writing anything")
	return cmd
}

func runSeed(cmd *cobra.Command, opts *RootOptions, path string, dryRun bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	seed, err := service.DecodeCatalogSeed(f)
	if err != nil {
		return err
	}
	out := seedOutput{File: path, DryRun: dryRun, Groups: len(seed.MuscleGroups)}

	if !dryRun {
		cfg, log, err := opts.load()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		store, err := app.OpenStore(ctx, log, cfg.Database, true)
		if err != nil {
			return err
		}
		defer store.Close()

		services := app.NewServices(log, store, nil, nil)
		report, err := services.Catalog.SeedCatalog(ctx, seed)
		if err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		out.Report = report
	}

	return opts.print(cmd.OutOrStdout(), out, func(w io.Writer) {
		if out.Report == nil {
			exercises := 0
			for _, g := range seed.MuscleGroups {
				exercises += len(g.Exercises)
			}
			fmt.Fprintf(w, "%s: %d muscle groups, %d exercises (dry run)\n", path, out.Groups, exercises)
			return
		}
		r := out.Report
		fmt.Fprintf(w, "muscle groups: %d created, %d existing\n", r.GroupsCreated, r.GroupsExisting)
		fmt.Fprintf(w, "exercises:     %d created, %d existing\n", r.ExercisesCreated, r.ExercisesExisting)
	})
}
