package config

const (
	defaultConfigPath = "~/.config/xcaption/config.toml"
	defaultCachePath  = "~/.cache/xcaption/captions.db"

	defaultBind             = "127.0.0.1:8000"
	defaultReadTimeout      = 15
	defaultWriteTimeout     = 120
	defaultShutdownSeconds  = 10
	defaultYtDlpBinary      = "yt-dlp"
	defaultYtDlpTimeout     = 30
	defaultYtDlpInfoTimeout = 15
	defaultAudioTimeout     = 300
	defaultURLTemplate      = "https://www.youtube.com/watch?v=%s"
	defaultLanguage         = "en"
	defaultCacheTTLHours    = 24
	defaultTranslateBatch   = 50
	defaultConcurrency      = 3
	defaultChunkMinutes     = 1
	defaultProvider         = "gemini"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			Bind:                defaultBind,
			CORSOrigins:         []string{"*"},
			ReadTimeoutSeconds:  defaultReadTimeout,
			WriteTimeoutSeconds: defaultWriteTimeout,
			ShutdownSeconds:     defaultShutdownSeconds,
		},
		YtDlp: YtDlp{
			Binary:              defaultYtDlpBinary,
			TimeoutSeconds:      defaultYtDlpTimeout,
			InfoTimeoutSeconds:  defaultYtDlpInfoTimeout,
			AudioTimeoutSeconds: defaultAudioTimeout,
			URLTemplate:         defaultURLTemplate,
			FallbackLanguage:    defaultLanguage,
			NoConfig:            true,
		},
		Captions: Captions{
			DefaultLanguage: defaultLanguage,
		},
		Cache: Cache{
			Enabled:  true,
			Path:     defaultCachePath,
			TTLHours: defaultCacheTTLHours,
		},
		Translate: Translate{
			Provider:    defaultProvider,
			BatchSize:   defaultTranslateBatch,
			Concurrency: defaultConcurrency,
		},
		Transcribe: Transcribe{
			Enabled:      false,
			Provider:     defaultProvider,
			ChunkMinutes: defaultChunkMinutes,
			Concurrency:  defaultConcurrency,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
