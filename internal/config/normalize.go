package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeServer()
	c.normalizeYtDlp()
	c.normalizeCaptions()
	if err := c.normalizeCache(); err != nil {
		return err
	}
	c.normalizeProviders()
	c.normalizeTranslate()
	c.normalizeTranscribe()
	if err := c.normalizeFFmpeg(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	origins := c.Server.CORSOrigins[:0]
	for _, origin := range c.Server.CORSOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	c.Server.CORSOrigins = origins
	if c.Server.ReadTimeoutSeconds <= 0 {
		c.Server.ReadTimeoutSeconds = defaultReadTimeout
	}
	if c.Server.WriteTimeoutSeconds <= 0 {
		c.Server.WriteTimeoutSeconds = defaultWriteTimeout
	}
	if c.Server.ShutdownSeconds <= 0 {
		c.Server.ShutdownSeconds = defaultShutdownSeconds
	}
}

func (c *Config) normalizeYtDlp() {
	c.YtDlp.Binary = strings.TrimSpace(c.YtDlp.Binary)
	if c.YtDlp.Binary == "" {
		c.YtDlp.Binary = defaultYtDlpBinary
	}
	if c.YtDlp.TimeoutSeconds <= 0 {
		c.YtDlp.TimeoutSeconds = defaultYtDlpTimeout
	}
	if c.YtDlp.InfoTimeoutSeconds <= 0 {
		c.YtDlp.InfoTimeoutSeconds = defaultYtDlpInfoTimeout
	}
	if c.YtDlp.AudioTimeoutSeconds <= 0 {
		c.YtDlp.AudioTimeoutSeconds = defaultAudioTimeout
	}
	c.YtDlp.URLTemplate = strings.TrimSpace(c.YtDlp.URLTemplate)
	if c.YtDlp.URLTemplate == "" {
		c.YtDlp.URLTemplate = defaultURLTemplate
	}
	c.YtDlp.FallbackLanguage = strings.TrimSpace(c.YtDlp.FallbackLanguage)
}

func (c *Config) normalizeCaptions() {
	c.Captions.DefaultLanguage = strings.TrimSpace(c.Captions.DefaultLanguage)
	if c.Captions.DefaultLanguage == "" {
		c.Captions.DefaultLanguage = defaultLanguage
	}
}

func (c *Config) normalizeCache() error {
	if strings.TrimSpace(c.Cache.Path) == "" {
		c.Cache.Path = defaultCachePath
	}
	var err error
	if c.Cache.Path, err = expandPath(strings.TrimSpace(c.Cache.Path)); err != nil {
		return fmt.Errorf("cache.path: %w", err)
	}
	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = defaultCacheTTLHours
	}
	return nil
}

// env keys fill in only when the file leaves a key empty
func (c *Config) normalizeProviders() {
	fill := func(target *string, env string) {
		*target = strings.TrimSpace(*target)
		if *target != "" {
			return
		}
		if value, ok := os.LookupEnv(env); ok {
			*target = strings.TrimSpace(value)
		}
	}
	fill(&c.Providers.GeminiAPIKey, "GEMINI_API_KEY")
	fill(&c.Providers.OpenAIAPIKey, "OPENAI_API_KEY")
	fill(&c.Providers.AnthropicAPIKey, "ANTHROPIC_API_KEY")
}

func (c *Config) normalizeTranslate() {
	c.Translate.Provider = strings.ToLower(strings.TrimSpace(c.Translate.Provider))
	if c.Translate.Provider == "" {
		c.Translate.Provider = defaultProvider
	}
	c.Translate.Model = strings.TrimSpace(c.Translate.Model)
	if c.Translate.BatchSize <= 0 {
		c.Translate.BatchSize = defaultTranslateBatch
	}
	if c.Translate.Concurrency <= 0 {
		c.Translate.Concurrency = defaultConcurrency
	}
}

func (c *Config) normalizeTranscribe() {
	c.Transcribe.Provider = strings.ToLower(strings.TrimSpace(c.Transcribe.Provider))
	if c.Transcribe.Provider == "" {
		c.Transcribe.Provider = defaultProvider
	}
	c.Transcribe.Model = strings.TrimSpace(c.Transcribe.Model)
	c.Transcribe.Language = strings.TrimSpace(c.Transcribe.Language)
	if c.Transcribe.ChunkMinutes <= 0 {
		c.Transcribe.ChunkMinutes = defaultChunkMinutes
	}
	if c.Transcribe.Concurrency <= 0 {
		c.Transcribe.Concurrency = defaultConcurrency
	}
}

func (c *Config) normalizeFFmpeg() error {
	var err error
	if c.FFmpeg.FFmpegPath, err = expandPath(strings.TrimSpace(c.FFmpeg.FFmpegPath)); err != nil {
		return fmt.Errorf("ffmpeg.ffmpeg_path: %w", err)
	}
	if c.FFmpeg.FFprobePath, err = expandPath(strings.TrimSpace(c.FFmpeg.FFprobePath)); err != nil {
		return fmt.Errorf("ffmpeg.ffprobe_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
