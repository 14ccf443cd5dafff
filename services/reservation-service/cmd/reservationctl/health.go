package main

import (
	"context"
	"fmt"
	"time"

	"github.com/lukas99o/restaurant-api/libs/grpcx"
	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/grpcserver"
	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func newHealthCmd() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Query the service's gRPC health endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := grpcx.Dial(addr, grpcx.DialOptions{UserAgent: "reservationctl/" + Version})
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: grpcserver.ServiceName})
			if err != nil {
				return fmt.Errorf("health check %s: %w", addr, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.GetStatus().String())
			if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
				return fmt.Errorf("service is %s", resp.GetStatus())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:9090", "gRPC address")
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "call timeout")
	return cmd
}
