package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Server contains HTTP API settings.
type Server struct {
	Bind                string   `toml:"bind"`
	CORSOrigins         []string `toml:"cors_origins"`
	ReadTimeoutSeconds  int      `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds int      `toml:"write_timeout_seconds"`
	ShutdownSeconds     int      `toml:"shutdown_seconds"`
}

// YtDlp contains caption source settings.
type YtDlp struct {
	Binary              string   `toml:"binary"`
	TimeoutSeconds      int      `toml:"timeout_seconds"`
	InfoTimeoutSeconds  int      `toml:"info_timeout_seconds"`
	AudioTimeoutSeconds int      `toml:"audio_timeout_seconds"`
	URLTemplate         string   `toml:"url_template"`
	FallbackLanguage    string   `toml:"fallback_language"`
	NoConfig            bool     `toml:"no_config"`
	ExtraArgs           []string `toml:"extra_args"`
}

// Captions contains parsing defaults.
type Captions struct {
	DefaultLanguage string `toml:"default_language"`
	StripTags       bool   `toml:"strip_tags"`
}

// Cache contains configuration for the SQLite caption cache.
type Cache struct {
	Enabled  bool   `toml:"enabled"`
	Path     string `toml:"path"`
	TTLHours int    `toml:"ttl_hours"`
}

// Providers holds API keys for the LLM providers.
type Providers struct {
	GeminiAPIKey    string `toml:"gemini_api_key"`
	OpenAIAPIKey    string `toml:"openai_api_key"`
	AnthropicAPIKey string `toml:"anthropic_api_key"`
}

// Translate contains caption translation settings.
type Translate struct {
	Provider    string `toml:"provider"`
	Model       string `toml:"model"`
	Prompt      string `toml:"prompt"`
	BatchSize   int    `toml:"batch_size"`
	Concurrency int    `toml:"concurrency"`
}

// Transcribe contains settings for the speech-to-text fallback used when a
// video has no captions.
type Transcribe struct {
	Enabled      bool   `toml:"enabled"`
	Provider     string `toml:"provider"`
	Model        string `toml:"model"`
	Language     string `toml:"language"`
	ChunkMinutes int    `toml:"chunk_minutes"`
	Concurrency  int    `toml:"concurrency"`
}

// FFmpeg contains optional explicit binary paths.
type FFmpeg struct {
	FFmpegPath  string `toml:"ffmpeg_path"`
	FFprobePath string `toml:"ffprobe_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for xcaption.
type Config struct {
	Server     Server     `toml:"server"`
	YtDlp      YtDlp      `toml:"ytdlp"`
	Captions   Captions   `toml:"captions"`
	Cache      Cache      `toml:"cache"`
	Providers  Providers  `toml:"providers"`
	Translate  Translate  `toml:"translate"`
	Transcribe Transcribe `toml:"transcribe"`
	FFmpeg     FFmpeg     `toml:"ffmpeg"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. A missing file is
// not an error; defaults apply. The resolved path and whether it existed are
// returned alongside the config.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("xcaption.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
// An existing file is left untouched unless overwrite is set.
func CreateSample(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists at %s", path)
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// APIKey returns the configured key for an LLM provider name.
func (c *Config) APIKey(provider string) string {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gemini":
		return c.Providers.GeminiAPIKey
	case "openai":
		return c.Providers.OpenAIAPIKey
	case "anthropic":
		return c.Providers.AnthropicAPIKey
	default:
		return ""
	}
}

// CacheTTL returns the cache entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLHours) * time.Hour
}

// ChunkDuration returns the transcription chunk length.
func (c *Config) ChunkDuration() time.Duration {
	return time.Duration(c.Transcribe.ChunkMinutes) * time.Minute
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// ReadTimeout returns the HTTP read timeout.
func (c *Config) ReadTimeout() time.Duration { return seconds(c.Server.ReadTimeoutSeconds) }

// WriteTimeout returns the HTTP write timeout.
func (c *Config) WriteTimeout() time.Duration { return seconds(c.Server.WriteTimeoutSeconds) }

// ShutdownTimeout returns the graceful shutdown budget.
func (c *Config) ShutdownTimeout() time.Duration { return seconds(c.Server.ShutdownSeconds) }

// LockPath returns the serve lock file next to the cache database.
func (c *Config) LockPath() string {
	return c.Cache.Path + ".lock"
}
