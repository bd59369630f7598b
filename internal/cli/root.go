package cli

import (
	"context"

	"github.com/mgpai22/xcaption/internal/config"
	"github.com/mgpai22/xcaption/internal/logging"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	logger     *logging.Logger
)

const skipConfigLoad = "skipConfigLoad"

var rootCmd = &cobra.Command{
	Use:   "xcaption",
	Short: "Caption API and CLI for YouTube videos",
	Long: `XCaption fetches subtitles for YouTube videos with yt-dlp and turns
them into structured caption records.

Run it as an HTTP API (xcaption serve) or use the fetch, info and parse
commands directly. Captions can be translated with an LLM provider, and
videos without captions can optionally be transcribed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[skipConfigLoad] == "true" {
			logger = logging.NewLogger(verbose)
			return nil
		}

		loaded, path, exists, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		logger, err = logging.New(logging.Options{
			Level:   cfg.Logging.Level,
			Format:  cfg.Logging.Format,
			Verbose: verbose,
		})
		if err != nil {
			return err
		}
		if exists {
			logger.Debugw("config loaded", "path", path)
		} else {
			logger.Debugw("no config file found, using defaults", "path", path)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the CLI with ctx as the command context.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", "", "Path to config file (default ~/.config/xcaption/config.toml)")
}
