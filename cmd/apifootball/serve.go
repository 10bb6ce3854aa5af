package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Sternrassler/apifootball-client/internal/httpapi"
	"github.com/Sternrassler/apifootball-client/pkg/logging"
	"github.com/spf13/cobra"
)

func (c *cli) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API for the browser front-end",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app) error {
				return serve(ctx, a)
			})
		},
	}
	cmd.Flags().String("listen-addr", "", "Address to listen on")
	cmd.Flags().StringSlice("cors-origins", nil, "Allowed CORS origins")
	_ = c.viper.BindPFlags(cmd.Flags())
	return cmd
}

func serve(ctx context.Context, a *app) error {
	logger := logging.NewLogger("server")

	router := httpapi.NewRouter(httpapi.Services{
		Client:   a.client,
		Cache:    a.cache,
		Catalog:  a.catalog,
		Search:   a.search,
		Paginate: a.paginationConfig(),
	}, httpapi.Options{
		CORSOrigins: a.cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              a.cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", a.cfg.ListenAddr).
			Str("storage", a.cfg.Storage).
			Strs("cors_origins", a.cfg.CORSOrigins).
			Msg("Starting API-Football service")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			logger.Error().Err(err).Msg("Server failed")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Shutdown error")
		return err
	}
	logger.Info().Msg("Server stopped")
	return nil
}
