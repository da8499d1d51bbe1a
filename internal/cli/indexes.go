package cli

import (
	"fmt"
	"io"

	"alcyxob/gym-routines/internal/app"

	"github.com/spf13/cobra"
)

// NewIndexesCommand creates the indexes command.
func NewIndexesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Create the database indexes",
		Long: `Create every MongoDB index the service relies on, including the unique
partial index that allows at most one active routine per member.
The server does this on start; run it ahead of a deploy to avoid the wait.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := rootOpts.load()
			if err != nil {
				return err
			}
			store, err := app.OpenStore(cmd.Context(), log, cfg.Database, true)
			if err != nil {
				return err
			}
			defer store.Close()

			out := map[string]string{"driver": cfg.Database.Driver, "status": "ok"}
			return rootOpts.print(cmd.OutOrStdout(), out, func(w io.Writer) {
				fmt.Fprintf(w, "indexes ensured (%s)\n", cfg.Database.Driver)
			})
		},
	}
}
