package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/danielpatrickdp/coref-probe/internal/oracle"
)

// #region serve
func newServeCmd(a *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Expose the local oracle process over gRPC",
		Args:    cobra.NoArgs,
		PreRunE: a.load,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lis, err := net.Listen("tcp", listen)
			if err != nil {
				return fmt.Errorf("listen %s: %w", listen, err)
			}
			backend := oracle.NewExecClient(a.cfg.ExecConfig(), a.logger)
			return serveOracle(cmd.Context(), lis, backend, a.cfg.Oracle.Timeout, a.logger)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", ":7070", "address to accept oracle requests on")
	return cmd
}

// serveOracle serves backend on lis until ctx is done or Serve fails.
func serveOracle(ctx context.Context, lis net.Listener, backend oracle.Client, timeout time.Duration, logger zerolog.Logger) error {
	srv := grpc.NewServer()
	oracle.RegisterServer(srv, backend, timeout, logger)

	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down oracle server")
			srv.GracefulStop()
		case <-stopped:
		}
	}()

	logger.Info().Str("listen", lis.Addr().String()).Msg("oracle server ready")
	if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
// #endregion serve
