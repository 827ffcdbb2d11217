package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gupta-soham/goodfoods/internal/config"
	"github.com/gupta-soham/goodfoods/internal/logger"
	"github.com/gupta-soham/goodfoods/pkg/agent"
	"github.com/gupta-soham/goodfoods/pkg/gateway"
	"github.com/gupta-soham/goodfoods/pkg/mcpserver"
	"github.com/gupta-soham/goodfoods/pkg/reservation"
	"github.com/gupta-soham/goodfoods/pkg/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the GoodFoods gateway server",
	Long: `Start the chat gateway. Clients connect over WebSocket at /ws and each
connection gets its own agent with independent conversation history.
The tool dispatcher is also exposed over HTTP at /rpc.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: cfg.Logging.Console,
		Pretty:  cfg.Logging.Pretty,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Close()
	zl := log.GetZerolog()

	st := store.New()
	if err := store.Seed(st, store.SeedConfig{
		PerCuisine: cfg.Catalog.PerCuisine,
		Seed:       cfg.Catalog.Seed,
	}); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	zl.Info().Int("restaurants", st.RestaurantCount()).Msg("Catalog seeded")

	engine := reservation.New(st, reservation.Config{
		BucketMinutes:          cfg.Booking.BucketMinutes,
		AlternateStepMinutes:   cfg.Booking.AlternateStepMinutes,
		AlternateWindowMinutes: cfg.Booking.AlternateWindowMinutes,
		MaxAlternates:          cfg.Booking.MaxAlternates,
	}, zl)

	dispatcher, err := mcpserver.NewServer(st, engine, zl)
	if err != nil {
		return fmt.Errorf("failed to create tool dispatcher: %w", err)
	}

	provider, err := agent.NewProvider(cfg.Provider.Name, cfg.Provider.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	agentCfg := agent.Config{
		Model:        cfg.Agent.Model,
		Temperature:  cfg.Agent.Temperature,
		MaxTokens:    cfg.Agent.MaxTokens,
		MaxRounds:    cfg.Agent.MaxRounds,
		MaxRetries:   cfg.Agent.MaxRetries,
		SystemPrompt: cfg.Agent.SystemPrompt,
		HistoryLimit: cfg.Agent.HistoryLimit,
	}

	srv, err := gateway.NewServer(gateway.Config{
		Host: cfg.Gateway.Host,
		Port: cfg.Gateway.Port,
		NewAgent: func() (gateway.ChatAgent, error) {
			return agent.NewRunner(provider, dispatcher, agentCfg, zl)
		},
		Dispatcher: dispatcher,
		Logger:     zl,
	})
	if err != nil {
		return fmt.Errorf("failed to create gateway server: %w", err)
	}

	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start gateway server: %w", err)
	}
	zl.Info().Int("port", cfg.Gateway.Port).Msg("Gateway listening")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	zl.Info().Str("signal", sig.String()).Msg("Received signal")

	if err := srv.Stop(); err != nil {
		zl.Error().Err(err).Msg("Failed to stop gateway server")
		return err
	}

	return nil
}
