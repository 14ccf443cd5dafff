package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lukas99o/restaurant-api/libs/config"
	"github.com/lukas99o/restaurant-api/libs/db"
	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/outbox"
	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/reservation"
	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/storage"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

type rootOptions struct {
	databaseURL string
	verbose     bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "reservationctl",
		Short:         "Operator tool for the restaurant reservation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.databaseURL, "database-url", config.String("DATABASE_URL", ""), "Postgres connection string (default $DATABASE_URL)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newMigrateCmd(opts))
	root.AddCommand(newTableCmd(opts))
	root.AddCommand(newAvailableCmd(opts))
	root.AddCommand(newTokenCmd())
	root.AddCommand(newHealthCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (o *rootOptions) logger() *slog.Logger {
	if !o.verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func (o *rootOptions) openPool(ctx context.Context) (*db.Pool, error) {
	if o.databaseURL == "" {
		return nil, fmt.Errorf("--database-url or DATABASE_URL is required")
	}
	return db.Open(ctx, o.databaseURL, db.Options{MaxConns: 2, ApplicationName: "reservationctl"})
}

// openStore connects to the service database and wraps it in the same store the
// service uses, so CLI changes emit the usual outbox events.
func (o *rootOptions) openStore(ctx context.Context) (*storage.PostgresStore, func(), error) {
	pool, err := o.openPool(ctx)
	if err != nil {
		return nil, nil, err
	}
	return storage.NewPostgresStore(pool, outbox.NewRepository()), pool.Close, nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func storeConfig() reservation.Config {
	return reservation.DefaultConfig()
}
