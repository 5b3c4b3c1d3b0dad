package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/msquare/internal/cli"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Starts the contact and portfolio HTTP API.

Projects are kept in memory unless the config selects the redis store (or MSQUARE_REDIS_ADDR is set).
Admin routes require MSQUARE_ADMIN_TOKEN; contact emails require RESEND_API_KEY.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		site, logger, err := openSite(cmd)
		if err != nil {
			return err
		}
		defer site.Close()

		if cmd.Flags().Changed("port") {
			site.Config.Server.Port, _ = cmd.Flags().GetInt("port")
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		pingCtx, cancel := context.WithTimeout(sigCtx, 3*time.Second)
		defer cancel()
		if err := site.Ping(pingCtx); err != nil {
			return fmt.Errorf("project store unreachable: %w", err)
		}
		if site.Config.Admin.Token == "" {
			logger.Warn("admin API disabled: no admin token configured")
		}

		handler, err := site.Handler()
		if err != nil {
			return err
		}
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", site.Config.Server.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gctx := errgroup.WithContext(sigCtx)
		g.Go(func() error {
			cli.PrintSystemMessage(cmd.OutOrStdout(), "MSquare API listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			logger.Info("shutting down", "signal", sigCtx.Signal())

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				_ = srv.Close()
				return fmt.Errorf("graceful shutdown did not complete in %v: %w", shutdownTimeout, err)
			}
			return nil
		})

		if err := g.Wait(); err != nil {
			return err
		}
		cli.PrintSystemMessage(cmd.OutOrStdout(), "MSquare API stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (overrides the config file)")
}
