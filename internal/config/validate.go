package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Validate ensures the configuration is usable. Provider API keys are only
// checked when the feature needing them is used.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateYtDlp(); err != nil {
		return err
	}
	if err := c.validateTranslate(); err != nil {
		return err
	}
	if err := c.validateTranscribe(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind %q must be host:port: %w", c.Server.Bind, err)
	}
	return nil
}

func (c *Config) validateYtDlp() error {
	if strings.Count(c.YtDlp.URLTemplate, "%s") != 1 {
		return errors.New("ytdlp.url_template must contain exactly one %s")
	}
	return nil
}

func validProvider(name string, allowed ...string) bool {
	for _, a := range allowed {
		if name == a {
			return true
		}
	}
	return false
}

func (c *Config) validateTranslate() error {
	if !validProvider(c.Translate.Provider, "gemini", "openai", "anthropic") {
		return fmt.Errorf("translate.provider %q must be gemini, openai, or anthropic", c.Translate.Provider)
	}
	return nil
}

func (c *Config) validateTranscribe() error {
	if !validProvider(c.Transcribe.Provider, "gemini", "openai") {
		return fmt.Errorf("transcribe.provider %q must be gemini or openai", c.Transcribe.Provider)
	}
	if c.Transcribe.Enabled && c.APIKey(c.Transcribe.Provider) == "" {
		return fmt.Errorf(
			"transcribe.enabled requires an API key for %s (set providers.%s_api_key or %s_API_KEY)",
			c.Transcribe.Provider,
			c.Transcribe.Provider,
			strings.ToUpper(c.Transcribe.Provider),
		)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn, or error", c.Logging.Level)
	}
	return nil
}
