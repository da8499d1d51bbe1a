package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"alcyxob/gym-routines/internal/app"
	"alcyxob/gym-routines/internal/domain"

	"github.com/spf13/cobra"
)

type listedGroup struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Exercises []listedExercise `json:"exercises"`
}

type listedExercise struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Difficulty string `json:"difficulty"`
	Equipment  string `json:"equipment,omitempty"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var difficulty, search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print active exercises grouped by muscle group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, rootOpts, difficulty, search)
		},
	}
	cmd.Flags().StringVar(&difficulty, "difficulty", "", "only this difficulty (beginner|intermediate|advanced)")
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive text filter")
	return cmd
}

func runList(cmd *cobra.Command, opts *RootOptions, difficulty, search string) error {
	cfg, log, err := opts.load()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	store, err := app.OpenStore(ctx, log, cfg.Database, false)
	if err != nil {
		return err
	}
	defer store.Close()
	catalog := app.NewServices(log, store, nil, nil).Catalog

	groups, err := catalog.ListMuscleGroups(ctx)
	if err != nil {
		return err
	}
	out := make([]listedGroup, 0, len(groups))
	for _, g := range groups {
		filter := domain.ExerciseFilter{MuscleGroupID: &g.ID, Search: search}
		if difficulty != "" {
			d := domain.Difficulty(difficulty)
			filter.Difficulty = &d
		}
		exercises, err := catalog.ListExercises(ctx, filter)
		if err != nil {
			return err
		}
		lg := listedGroup{ID: g.ID.Hex(), Name: g.Name, Exercises: []listedExercise{}}
		for _, ex := range exercises {
			lg.Exercises = append(lg.Exercises, listedExercise{
				ID:         ex.ID.Hex(),
				Name:       ex.Name,
				Difficulty: string(ex.Difficulty),
				Equipment:  ex.EquipmentNeeded,
			})
		}
		out = append(out, lg)
	}

	return opts.print(cmd.OutOrStdout(), out, func(w io.Writer) {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		defer tw.Flush()
		for _, g := range out {
			fmt.Fprintf(tw, "%s\t(%d)\n", strings.ToUpper(g.Name), len(g.Exercises))
			for _, ex := range g.Exercises {
				fmt.Fprintf(tw, "  %s\t%s\t%s\n", ex.Name, ex.Difficulty, ex.Equipment)
			}
		}
	})
}
