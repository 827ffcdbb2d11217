package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gupta-soham/goodfoods/internal/config"
	"github.com/gupta-soham/goodfoods/internal/logger"
	"github.com/gupta-soham/goodfoods/pkg/agent"
	"github.com/gupta-soham/goodfoods/pkg/mcpserver"
	"github.com/gupta-soham/goodfoods/pkg/reservation"
	"github.com/gupta-soham/goodfoods/pkg/store"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the reservation assistant on the terminal",
	Long: `Start an interactive terminal session with the reservation assistant.
Useful for trying the agent without running the gateway. Type "exit" or
press Ctrl-D to quit.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
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

	// Keep the terminal clean: log to file only unless debugging
	log, err := logger.New(logger.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: cfg.Logging.Level == "debug",
		Pretty:  true,
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

	runner, err := agent.NewRunner(provider, dispatcher, agent.Config{
		Model:        cfg.Agent.Model,
		Temperature:  cfg.Agent.Temperature,
		MaxTokens:    cfg.Agent.MaxTokens,
		MaxRounds:    cfg.Agent.MaxRounds,
		MaxRetries:   cfg.Agent.MaxRetries,
		SystemPrompt: cfg.Agent.SystemPrompt,
		HistoryLimit: cfg.Agent.HistoryLimit,
	}, zl)
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	fmt.Printf("GoodFoods reservation assistant (%d restaurants loaded)\n", st.RestaurantCount())
	fmt.Println("Type a message, or \"exit\" to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nyou> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		fmt.Print("assistant> ")
		streamed := false
		result, err := runner.ProcessMessage(cmd.Context(), line, func(ev agent.Event) {
			switch {
			case ev.Stream == agent.StreamAssistant && ev.Phase == "delta":
				streamed = true
				fmt.Print(ev.Content)
			case ev.Stream == agent.StreamTool && ev.Phase == "start":
				fmt.Printf("\n[calling %s]\n", ev.Tool)
			}
		})
		if err != nil {
			fmt.Println()
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		if !streamed {
			fmt.Print(result.Response)
		}
		fmt.Println()
	}
}
