package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/use-agent/sitecheck/api"
	"github.com/use-agent/sitecheck/cache"
	"github.com/use-agent/sitecheck/webhook"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the validation HTTP API",
	Long: `Serve launches a headless browser and exposes:

  GET  /api/v1/health
  POST /api/v1/validate        capture a URL and validate it
  POST /api/v1/validate/html   validate caller-supplied markup`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "listen host (default 0.0.0.0)")
	serveCmd.Flags().Int("port", 0, "listen port (default 8080)")
	serveCmd.Flags().Int("max-pages", 0, "browser page pool capacity")
	serveCmd.Flags().Bool("multi-engine", false, "enable fetch_mode \"auto\" (HTTP first, browser on failure)")

	_ = viper.BindPFlag("host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("max_pages", serveCmd.Flags().Lookup("max-pages"))
	_ = viper.BindPFlag("multi_engine", serveCmd.Flags().Lookup("multi-engine"))
}

func runServe(cmd *cobra.Command, args []string) error {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := loadConfig()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("sitecheck starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxPages", cfg.Browser.MaxPages,
	)

	// ── 3. Site profile + validator ─────────────────────────────────
	v, err := newValidator(cfg.ProfilePath)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	// ── 4. Engines (launches browser) ───────────────────────────────
	rt, err := newRuntime(cfg, true)
	if err != nil {
		return fmt.Errorf("initialise capture: %w", err)
	}
	defer rt.Close()

	// ── 5. Cache, webhook, router ───────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(cfg, api.Deps{
		Fetchers:  rt.fetchers,
		Validator: v,
		Cache:     cache.New(cfg.Cache.MaxEntries, cfg.Cache.CleanupInterval),
		Webhook:   webhook.New(cfg.Webhook.Secret, cfg.Webhook.Timeout),
		PoolStats: rt.poolStats(),
		StartTime: startTime,
	})

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig.String())
	case err := <-serveErr:
		return fmt.Errorf("HTTP server: %w", err)
	}

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// rt.Close() runs via defer: drains page pool and kills Chrome.
	slog.Info("sitecheck stopped")
	return nil
}
