package cli

import (
	"fmt"
	"strings"

	"github.com/mgpai22/xcaption/internal/config"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration utilities",
}

var configInitCmd = &cobra.Command{
	Use:         "init",
	Short:       "Create a sample configuration file",
	Annotations: map[string]string{skipConfigLoad: "true"},
	Args:        cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		targetPath, _ := cmd.Flags().GetString("path")
		overwrite, _ := cmd.Flags().GetBool("overwrite")

		target := strings.TrimSpace(targetPath)
		if target == "" {
			target = strings.TrimSpace(configPath)
		}
		var err error
		if target == "" {
			target, err = config.DefaultConfigPath()
		} else {
			target, err = config.ExpandPath(target)
		}
		if err != nil {
			return fmt.Errorf("resolve config path: %w", err)
		}

		if err := config.CreateSample(target, overwrite); err != nil {
			if !overwrite {
				return fmt.Errorf("%w (use --overwrite to replace it)", err)
			}
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
		fmt.Fprintln(out, "Set an API key under [providers] (or export GEMINI_API_KEY) to enable translation.")
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with API keys redacted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		shown := *cfg
		shown.Providers.GeminiAPIKey = redact(shown.Providers.GeminiAPIKey)
		shown.Providers.OpenAIAPIKey = redact(shown.Providers.OpenAIAPIKey)
		shown.Providers.AnthropicAPIKey = redact(shown.Providers.AnthropicAPIKey)

		data, err := toml.Marshal(shown)
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "****"
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	configInitCmd.Flags().
		StringP("path", "p", "", "Destination for the configuration file")
	configInitCmd.Flags().
		Bool("overwrite", false, "Overwrite existing configuration if present")
}
