package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mgpai22/xcaption/internal/audio"
	"github.com/mgpai22/xcaption/internal/cache"
	"github.com/mgpai22/xcaption/internal/config"
	ffmpegbin "github.com/mgpai22/xcaption/internal/ffmpeg"
	"github.com/mgpai22/xcaption/internal/logging"
	"github.com/mgpai22/xcaption/internal/transcribe"
	"github.com/mgpai22/xcaption/internal/translate"
	"github.com/mgpai22/xcaption/internal/ytdlp"
	"golang.org/x/text/language"
)

// Components is a Service wired from configuration plus the resources it
// owns.
type Components struct {
	Service *Service
	Source  *ytdlp.Client
	Cache   *cache.Store // nil when caching is disabled
}

// Close releases the cache database.
func (c *Components) Close() error {
	if c == nil || c.Cache == nil {
		return nil
	}
	return c.Cache.Close()
}

// Build wires the caption source, cache, translation and transcription
// fallback described by cfg. useCache=false skips the cache even when it is
// enabled in the config.
func Build(ctx context.Context, cfg *config.Config, logger *logging.Logger, useCache bool) (*Components, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	source := ytdlp.New(YtDlpConfig(cfg), logger.Named("ytdlp"))
	comps := &Components{Source: source}
	opts := Options{
		Source:               source,
		CacheTTL:             cfg.CacheTTL(),
		NewTranslator:        NewTranslatorFactory(cfg),
		TranslateConcurrency: cfg.Translate.Concurrency,
		DefaultLanguage:      cfg.Captions.DefaultLanguage,
		FallbackLanguage:     cfg.YtDlp.FallbackLanguage,
		Logger:               logger,
	}

	if useCache && cfg.Cache.Enabled {
		store, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		comps.Cache = store
		opts.Cache = store
		logger.Debugw("cache opened", "path", store.Path(), "ttl", cfg.CacheTTL())
	}

	if cfg.Transcribe.Enabled {
		paths, err := ffmpegbin.Resolve(ffmpegbin.BinaryPaths{
			FFmpeg:  cfg.FFmpeg.FFmpegPath,
			FFprobe: cfg.FFmpeg.FFprobePath,
		})
		if err != nil {
			_ = comps.Close()
			return nil, fmt.Errorf("transcription fallback: %w", err)
		}
		opts.Fallback = &AudioPipeline{
			Source:         source,
			Processor:      audio.NewProcessor(paths),
			NewTranscriber: NewTranscriberFactory(cfg),
			ChunkDuration:  cfg.ChunkDuration(),
			Concurrency:    cfg.Transcribe.Concurrency,
			Logger:         logger.Named("transcribe"),
		}
		logger.Debugw("transcription fallback enabled",
			"provider", cfg.Transcribe.Provider,
			"ffmpeg", paths.FFmpeg,
		)
	}

	comps.Service = New(opts)
	return comps, nil
}

// YtDlpConfig maps the [ytdlp] config section onto client settings.
func YtDlpConfig(cfg *config.Config) ytdlp.Config {
	yc := ytdlp.DefaultConfig()
	if cfg.YtDlp.Binary != "" {
		yc.Binary = cfg.YtDlp.Binary
	}
	if cfg.YtDlp.TimeoutSeconds > 0 {
		yc.Timeout = time.Duration(cfg.YtDlp.TimeoutSeconds) * time.Second
	}
	if cfg.YtDlp.InfoTimeoutSeconds > 0 {
		yc.InfoTimeout = time.Duration(cfg.YtDlp.InfoTimeoutSeconds) * time.Second
	}
	if cfg.YtDlp.AudioTimeoutSeconds > 0 {
		yc.AudioTimeout = time.Duration(cfg.YtDlp.AudioTimeoutSeconds) * time.Second
	}
	if cfg.YtDlp.URLTemplate != "" {
		yc.URLTemplate = cfg.YtDlp.URLTemplate
	}
	if cfg.YtDlp.FallbackLanguage != "" {
		yc.FallbackLanguage = cfg.YtDlp.FallbackLanguage
	}
	yc.NoConfig = cfg.YtDlp.NoConfig
	yc.ExtraArgs = append([]string(nil), cfg.YtDlp.ExtraArgs...)
	return yc
}

// NewTranslatorFactory returns a factory for the configured provider. The
// provider sees English language names, which LLMs handle better than tags.
func NewTranslatorFactory(cfg *config.Config) TranslatorFactory {
	provider := cfg.Translate.Provider
	apiKey := cfg.APIKey(provider)
	base := translate.Options{
		Model:     cfg.Translate.Model,
		Prompt:    cfg.Translate.Prompt,
		BatchSize: cfg.Translate.BatchSize,
	}
	return func(ctx context.Context, source, target Language) (translate.Translator, error) {
		if apiKey == "" {
			return nil, fmt.Errorf("%w: no API key for provider %q", ErrTranslationUnavailable, provider)
		}
		opts := base
		opts.InputLanguage = source.Name()
		opts.TargetLanguage = target.Name()
		return translate.Factory(ctx, translate.Provider(provider), apiKey, opts)
	}
}

// NewTranscriberFactory returns a factory for the configured speech-to-text
// provider. The undetermined tag "und" keeps the spoken language.
func NewTranscriberFactory(cfg *config.Config) TranscriberFactory {
	provider := cfg.Transcribe.Provider
	apiKey := cfg.APIKey(provider)
	base := transcribe.Options{
		Language: cfg.Transcribe.Language,
		Model:    cfg.Transcribe.Model,
	}
	return func(ctx context.Context, lang Language) (transcribe.Transcriber, error) {
		opts := base
		opts.TranscriptLanguage = "native"
		if !lang.IsZero() && lang.Tag() != language.Und {
			opts.TranscriptLanguage = lang.Name()
		}
		return transcribe.Factory(ctx, transcribe.Provider(provider), apiKey, opts)
	}
}
