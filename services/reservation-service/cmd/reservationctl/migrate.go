package main

import (
	"fmt"

	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/migrate"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				names, err := migrate.Files()
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				return nil
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()
			pool, err := opts.openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := migrate.Up(ctx, pool, opts.logger()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations up to date")
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "only list the embedded migrations")
	return cmd
}
