package main

import (
	"fmt"
	"time"

	"github.com/lukas99o/restaurant-api/libs/auth"
	"github.com/lukas99o/restaurant-api/libs/config"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var (
		secret  string
		subject string
		role    string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an HS256 token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("--secret or JWT_SECRET is required")
			}
			if role != auth.RoleStaff && role != auth.RoleAdmin {
				return fmt.Errorf("--role must be %q or %q", auth.RoleStaff, auth.RoleAdmin)
			}
			tok, err := auth.SignHS256(auth.NewClaims(subject, role, time.Now(), ttl), secret)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", config.String("JWT_SECRET", ""), "signing secret (default $JWT_SECRET)")
	cmd.Flags().StringVar(&subject, "sub", "operator", "token subject")
	cmd.Flags().StringVar(&role, "role", auth.RoleStaff, "staff or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
