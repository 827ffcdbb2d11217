package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gupta-soham/goodfoods/internal/config"
)

var (
	configureProvider string
	configureAPIKey   string
	configurePort     int
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Write provider settings to the config file",
	Long: `Store the completion provider and its API key in the config file so
serve and chat can run without environment variables.`,
	RunE: runConfigure,
}

func init() {
	configureCmd.Flags().StringVar(&configureProvider, "provider", "anthropic", "completion provider (anthropic, openai)")
	configureCmd.Flags().StringVar(&configureAPIKey, "api-key", "", "provider API key")
	configureCmd.Flags().IntVar(&configurePort, "port", 0, "gateway port")
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader(cfgFile)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	v := config.NewValidator()
	if err := v.ValidateProvider(configureProvider); err != nil {
		return err
	}
	cfg.Provider.Name = configureProvider

	if configureAPIKey != "" {
		if err := v.ValidateAPIKey(configureAPIKey, configureProvider); err != nil {
			return err
		}
		cfg.Provider.APIKey = configureAPIKey
	}

	if configurePort != 0 {
		cfg.Gateway.Port = configurePort
	}

	if err := loader.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", loader.GetConfigPath())
	return nil
}
