package cmd

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

	"github.com/MeKo-Tech/cardscan/internal/models"
	"github.com/MeKo-Tech/cardscan/internal/pipeline"
	"github.com/MeKo-Tech/cardscan/internal/recognizer"
	"github.com/MeKo-Tech/cardscan/internal/server"
	"github.com/MeKo-Tech/cardscan/internal/version"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the WebSocket scan server",
	Long: `Start an HTTP server that runs one scan session per WebSocket connection.

The server provides the following endpoints:
  GET /scan    - WebSocket scan session (frames in, overlays and results out)
  GET /health  - Health check endpoint
  GET /metrics - Prometheus metrics

Examples:
  cardscan serve
  cardscan serve --port 8080
  cardscan serve --host 0.0.0.0 --port 3000 --release-mode immediate`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}

		pCfg := cfg.ToPipelineConfig()
		rCfg := pCfg.Recognizer
		rCfg.ResolvePaths(models.GetModelsDir(pCfg.ModelsDir))

		// one recognizer shared by all sessions
		engine, err := recognizer.New(rCfg)
		if err != nil {
			return fmt.Errorf("failed to create recognizer: %w", err)
		}
		defer func() { _ = engine.Close() }()
		if w, ok := engine.(interface{ Warmup(int) error }); ok && pCfg.WarmupIterations > 0 {
			if err := w.Warmup(pCfg.WarmupIterations); err != nil {
				return fmt.Errorf("recognizer warmup failed: %w", err)
			}
		}

		logger := slog.Default()
		factory := func(p pipeline.Presenter) (*pipeline.Scanner, error) {
			return pipeline.NewBuilder().
				WithConfig(pCfg).
				WithRecognizer(engine).
				WithPresenter(p).
				WithLogger(logger).
				Build()
		}

		scanServer, err := server.NewServer(server.Config{
			Host:            cfg.Server.Host,
			Port:            cfg.Server.Port,
			CORSOrigin:      cfg.Server.CORSOrigin,
			MaxFrameMB:      int64(cfg.Server.MaxFrameMB),
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
		}, factory)
		if err != nil {
			return fmt.Errorf("failed to initialize server: %w", err)
		}
		scanServer.SetLogger(logger)

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		httpServer := &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:           scanServer.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			slog.Info("Starting scan server", "host", cfg.Server.Host, "port", cfg.Server.Port, "version", version.String())
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Server error", "error", err)
				cancel()
			}
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			slog.Info("Received shutdown signal", "signal", sig.String())
		case <-ctx.Done():
			slog.Info("Context cancelled, initiating shutdown")
		}

		shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
		slog.Info("Starting graceful shutdown", "timeout", shutdownTimeout.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
		// hijacked WebSocket connections are not covered by Shutdown
		if err := scanServer.Close(); err != nil {
			slog.Error("Scan session cleanup error", "error", err)
		}

		slog.Info("Graceful shutdown completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addPipelineFlags(serveCmd)
	serveCmd.Flags().StringP("host", "H", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("cors-origin", "*", "CORS allowed origin")
	serveCmd.Flags().Int("max-frame-size", 16, "maximum WebSocket frame message size in MB")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
}
