package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fikri/sela/internal/config"
	"github.com/fikri/sela/internal/logger"
	"github.com/fikri/sela/pkg/agent"
	"github.com/fikri/sela/pkg/server"
	"github.com/fikri/sela/pkg/session"
	"github.com/fikri/sela/pkg/tools"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the agent endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration fault: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Pretty: cfg.Logging.Pretty,
	})

	apiKey := cfg.AnthropicAPIKey
	if cfg.Provider == "openai" {
		apiKey = cfg.OpenAIAPIKey
	}
	runtime, err := agent.NewRuntime(agent.RuntimeOptions{
		Provider:    cfg.Provider,
		APIKey:      apiKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create agent runtime: %w", err)
	}

	store := session.NewStore(log)
	broadcaster := server.NewBroadcaster(log)

	runner, err := agent.NewRunner(agent.Config{
		Store:    store,
		Runtime:  runtime,
		Tools:    tools.NewClient(log),
		Observer: broadcaster.Observer(),
		Logger:   log,
	})
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := runner.Start(ctx); err != nil {
		return err
	}

	cleanup := session.NewCleanup(store, cfg.Session.TTL, cfg.Session.SweepSchedule, log)
	if err := cleanup.Start(); err != nil {
		return err
	}
	defer cleanup.Stop()

	srv, err := server.NewServer(server.Options{
		Host: cfg.Host,
		Port: cfg.Port,
		Payment: server.PaymentOptions{
			Disabled: cfg.Payment.Disabled,
			Price:    cfg.Payment.Price,
			PayTo:    cfg.Payment.PayTo,
			Network:  cfg.Payment.Network,
			Asset:    cfg.Payment.Asset,
		},
	}, runner, broadcaster, log)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
		return srv.Stop()
	case err := <-errCh:
		return err
	}
}
