package main

import (
	"fmt"
	"time"

	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/reservation"
	"github.com/spf13/cobra"
)

func newAvailableCmd(opts *rootOptions) *cobra.Command {
	var startRaw, endRaw string
	cmd := &cobra.Command{
		Use:   "available",
		Short: "List tables free for a window",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := time.Parse(time.RFC3339, startRaw)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			end, err := time.Parse(time.RFC3339, endRaw)
			if err != nil {
				return fmt.Errorf("invalid --end: %w", err)
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()
			store, closeStore, err := opts.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			tables, err := reservation.NewScheduler(store, opts.logger(), storeConfig()).AvailableTables(ctx, start, end)
			if err != nil {
				return err
			}
			printTables(cmd.OutOrStdout(), tables)
			return nil
		},
	}
	cmd.Flags().StringVar(&startRaw, "start", "", "window start, RFC3339 (required)")
	cmd.Flags().StringVar(&endRaw, "end", "", "window end, RFC3339 (required)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}
