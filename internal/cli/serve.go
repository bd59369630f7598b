package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mgpai22/xcaption/internal/cache"
	"github.com/mgpai22/xcaption/internal/server"
	"github.com/mgpai22/xcaption/internal/service"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the caption HTTP API",
	Long: `Run the caption HTTP API.

Endpoints:
  GET  /                            health check
  GET  /api/captions/{videoId}      captions (?lang=en&translate=es&stripTags=true&format=json|srt|vtt|ass)
  GET  /api/video-info/{videoId}    video metadata
  POST /api/captions/parse          parse an uploaded SRT body

Only one server may use a cache database at a time.

Examples:
  xcaption serve
  xcaption serve --bind 0.0.0.0:8000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().
		String("bind", "", "Listen address (overrides server.bind)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if bind, _ := cmd.Flags().GetString("bind"); strings.TrimSpace(bind) != "" {
		cfg.Server.Bind = strings.TrimSpace(bind)
	}

	if cfg.Cache.Enabled {
		lock, err := cache.AcquireLock(cfg.LockPath())
		if err != nil {
			return err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				logger.Warnw("failed to release cache lock", "error", err)
			}
		}()
	}

	comps, err := service.Build(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer comps.Close()

	if err := comps.Source.CheckBinary(); err != nil {
		logger.Warnw("caption requests will fail until yt-dlp is installed", "error", err)
	}

	srv := server.New(comps.Service, server.Options{
		Bind:             cfg.Server.Bind,
		CORSOrigins:      cfg.Server.CORSOrigins,
		ReadTimeout:      cfg.ReadTimeout(),
		WriteTimeout:     cfg.WriteTimeout(),
		ShutdownTimeout:  cfg.ShutdownTimeout(),
		StripTagsDefault: cfg.Captions.StripTags,
		Version:          Version,
		Logger:           logger,
	})

	logger.Infow("starting xcaption",
		"version", Version,
		"bind", cfg.Server.Bind,
		"cache", cfg.Cache.Enabled,
		"transcription", cfg.Transcribe.Enabled,
	)
	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
