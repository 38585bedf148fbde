package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seuros/pacer/internal/handlers"
	"github.com/seuros/pacer/internal/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the JSON API for goals, progress and workout ingestion.

Examples:
  pacer serve
  pacer serve --port 8080 --backend sql`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(servePort)
	},
}

var servePort string

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (default 3000)")
}

// listen is a variable so tests can run the server without binding a port.
var listen = func(app *fiber.App, addr string) error {
	return app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

func runServe(port string) error {
	cfg, err := loadConfig(port)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	a, err := openApp(startCtx, cfg)
	cancel()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	logger := a.Logger
	server := handlers.NewApp(handlers.New(a.Directory, logger.Named("http")), createFiberConfig("pacer"), cfg.APIToken)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", ":"+cfg.Port), zap.String("backend", cfg.StorageBackend))
		errCh <- listen(server, ":"+cfg.Port)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logging.Fatal(logger, "server stopped", zap.Error(err))
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	_ = logger.Sync()
	return nil
}
