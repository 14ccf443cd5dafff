package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/model"
	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/reservation"
	"github.com/spf13/cobra"
)

func newTableCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Manage dining tables",
	}
	cmd.AddCommand(newTableAddCmd(opts), newTableListCmd(opts), newTableAvailabilityCmd(opts))
	return cmd
}

func newTableAddCmd(opts *rootOptions) *cobra.Command {
	var (
		seats       int
		unavailable bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a table",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			store, closeStore, err := opts.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			t, err := reservation.NewTableAdmin(store, opts.logger(), storeConfig(), nil).CreateTable(ctx, seats, !unavailable)
			if err != nil {
				return err
			}
			printTables(cmd.OutOrStdout(), []model.Table{t})
			return nil
		},
	}
	cmd.Flags().IntVar(&seats, "seats", 0, "number of seats (required)")
	cmd.Flags().BoolVar(&unavailable, "unavailable", false, "create the table closed for booking")
	_ = cmd.MarkFlagRequired("seats")
	return cmd
}

func newTableListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			store, closeStore, err := opts.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			tables, err := reservation.NewTableAdmin(store, opts.logger(), storeConfig(), nil).ListTables(ctx)
			if err != nil {
				return err
			}
			printTables(cmd.OutOrStdout(), tables)
			return nil
		},
	}
}

func newTableAvailabilityCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-available <id> <true|false>",
		Short: "Open or close a table for booking",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				id        int64
				available bool
			)
			if _, err := fmt.Sscan(args[0], &id); err != nil {
				return fmt.Errorf("invalid table id %q", args[0])
			}
			if _, err := fmt.Sscan(args[1], &available); err != nil {
				return fmt.Errorf("invalid availability %q", args[1])
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()
			store, closeStore, err := opts.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			t, err := reservation.NewTableAdmin(store, opts.logger(), storeConfig(), nil).SetAvailability(ctx, id, available)
			if err != nil {
				return err
			}
			printTables(cmd.OutOrStdout(), []model.Table{t})
			return nil
		},
	}
}

func printTables(out io.Writer, tables []model.Table) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSEATS\tAVAILABLE")
	for _, t := range tables {
		fmt.Fprintf(tw, "%d\t%d\t%t\n", t.ID, t.Seats, t.IsAvailable)
	}
	_ = tw.Flush()
}
