package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sichef/sichef/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API used by the browser client",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := withShutdownSignals(cmd.Context())
		defer stop()

		port := resolvePort(servePort, cfg.Server.Port)
		cfg.Server.Port = port
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		env, err := initEnv(ctx, cfg, envNeeds{geocoder: true, store: true})
		if err != nil {
			return err
		}
		defer env.Close()

		deps := server.Deps{
			Geocoder:  env.Geocoder,
			Dataset:   env.Dataset,
			Favorites: env.Store,
			Metrics:   env.Metrics,
		}
		// Scraping needs the LLM key; without it the rest of the API still serves.
		if err := cfg.Validate("scrape"); err != nil {
			zap.L().Warn("scrape endpoints disabled", zap.Error(err))
		} else {
			p := initPipeline(cfg, env.Geocoder, env.Metrics)
			deps.Scraper = p
			deps.Describer = newDescriber(cfg)
		}

		handler := server.New(deps, server.Config{AllowedOrigins: cfg.Server.AllowedOrigins})
		return startServer(ctx, handler, port)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

// resolvePort prefers the flag when set.
func resolvePort(flagPort, cfgPort int) int {
	if flagPort > 0 {
		return flagPort
	}
	if cfgPort > 0 {
		return cfgPort
	}
	return 8080
}

// startServer serves handler on port until ctx is cancelled, then shuts down
// gracefully.
func startServer(ctx context.Context, handler http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return eris.Wrap(err, "server: listen")
		}
		return nil
	case <-ctx.Done():
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return eris.Wrap(err, "server: shutdown")
		}
		return nil
	}
}
