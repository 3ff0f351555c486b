package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mark3labs/applywiz/internal/config"
	"github.com/mark3labs/applywiz/internal/logger"
	"github.com/mark3labs/applywiz/internal/nats"
	"github.com/mark3labs/applywiz/internal/server"
	"github.com/mark3labs/applywiz/internal/store"
)

var serveFlags struct {
	listen    string
	stepsFile string
	natsDir   string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reference wizard backend",
	Long: `Run a reference implementation of the wizard's REST backend.

Drafts and submitted applications are stored as events in an embedded NATS
JetStream server under nats_dir. Steps are read from steps_file when set,
otherwise the built-in five-step configuration is served.

Endpoints:
  GET  /api/steps-config?scholarship_id=N
  GET  /api/draft?scholarship_id=N
  POST /api/draft
  POST /api/applications/multi-step
  GET  /healthz
  GET  /metrics`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveFlags.listen, "listen", "l", "", "Listen address (default: listen_addr from config)")
	serveCmd.Flags().StringVar(&serveFlags.stepsFile, "steps", "", "YAML steps configuration (default: steps_file from config)")
	serveCmd.Flags().StringVar(&serveFlags.natsDir, "nats-dir", "", "JetStream storage directory (default: nats_dir from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	// The backend has no TUI, so logs go to stderr unless a file is configured.
	logger.Default.SetOutput(os.Stderr)
	if err := logger.Configure(cfg.LogLevel, cfg.LogFile); err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}

	listen := firstNonEmpty(serveFlags.listen, cfg.ListenAddr)
	stepsFile := firstNonEmpty(serveFlags.stepsFile, cfg.StepsFile)
	natsDir := firstNonEmpty(serveFlags.natsDir, cfg.NATSDir)

	steps, err := server.LoadSteps(stepsFile)
	if err != nil {
		return fmt.Errorf("failed to load steps: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	embedded, err := nats.Start(natsDir)
	if err != nil {
		return fmt.Errorf("failed to start NATS: %w", err)
	}
	defer func() {
		if err := embedded.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
		}
	}()

	stream, err := nats.SetupStream(ctx, embedded.JS)
	if err != nil {
		return fmt.Errorf("failed to set up stream: %w", err)
	}

	srv := server.New(store.NewStore(embedded.JS, stream), steps)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(listen) }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	fmt.Fprintln(os.Stderr, "\nShutting down gracefully...")
	if err := srv.Shutdown(context.Background()); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return <-errCh
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
