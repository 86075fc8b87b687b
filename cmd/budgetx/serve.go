package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/budget-extractor/internal/server"
)

func newServeCmd(c *cli) *cobra.Command {
	var httpAddr, grpcAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP and gRPC APIs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := c.newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			logger := c.logger

			if err := a.db.HealthCheck(ctx, 5*time.Second); err != nil {
				logger.Error("failed to ping database", "error", err)
				return err
			}

			if httpAddr == "" {
				httpAddr = c.cfg.Server.HTTPAddr
			}
			if grpcAddr == "" {
				grpcAddr = c.cfg.Server.GRPCAddr
			}

			httpSrv := &http.Server{
				Addr: httpAddr,
				Handler: server.NewHTTPHandler(a.svc, server.HTTPConfig{
					RequestTimeout: c.cfg.Server.RequestTimeout,
					MaxUploadBytes: c.cfg.Server.MaxUploadBytes,
					Health: func(ctx context.Context) error {
						return a.db.HealthCheck(ctx, 2*time.Second)
					},
				}, logger).Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			grpcSrv := server.NewGRPCServer(a.svc, logger)

			lis, err := net.Listen("tcp", grpcAddr)
			if err != nil {
				logger.Error("failed to listen on address", "addr", grpcAddr, "error", err)
				return err
			}

			errCh := make(chan error, 2)
			go func() {
				logger.Info("grpc.listening", "addr", grpcAddr)
				errCh <- grpcSrv.Serve(lis)
			}()
			go func() {
				logger.Info("http.listening", "addr", httpAddr, "backends", a.svc.Backends(), "default_backend", a.svc.DefaultBackend())
				if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
					return
				}
				errCh <- nil
			}()

			var serveErr error
			select {
			case <-ctx.Done():
			case serveErr = <-errCh:
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("http.shutdown_failed", "error", err)
			}
			grpcSrv.GracefulStop()
			return serveErr
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http-addr", "", "HTTP listen address (default server.http_addr)")
	cmd.Flags().StringVar(&grpcAddr, "grpc-addr", "", "gRPC listen address (default server.grpc_addr)")
	return cmd
}
