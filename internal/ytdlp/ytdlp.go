package ytdlp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"github.com/mgpai22/xcaption/internal/logging"
)

var (
	ErrNotInstalled   = errors.New("yt-dlp not found, install it with: pip install yt-dlp")
	ErrTimeout        = errors.New("yt-dlp timed out")
	ErrNoSubtitles    = errors.New("no subtitle files found")
	ErrInvalidVideoID = errors.New("invalid video id")
)

// ExitError reports a non-zero yt-dlp exit status with its stderr.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("yt-dlp exited with status %d", e.Code)
	}
	return fmt.Sprintf("yt-dlp failed: %s", msg)
}

// Config holds yt-dlp invocation settings.
type Config struct {
	Binary           string
	Timeout          time.Duration // subtitle download
	InfoTimeout      time.Duration // --dump-json
	AudioTimeout     time.Duration // audio download for transcription
	URLTemplate      string        // %s is replaced by the video id
	FallbackLanguage string
	NoConfig         bool // pass --no-config to ignore user yt-dlp config files
	ExtraArgs        []string
}

func DefaultConfig() Config {
	return Config{
		Binary:           "yt-dlp",
		Timeout:          30 * time.Second,
		InfoTimeout:      15 * time.Second,
		AudioTimeout:     5 * time.Minute,
		URLTemplate:      "https://www.youtube.com/watch?v=%s",
		FallbackLanguage: "en",
		NoConfig:         true,
	}
}

// Client runs yt-dlp as a subprocess.
type Client struct {
	cfg    Config
	logger *logging.Logger
}

func New(cfg Config, logger *logging.Logger) *Client {
	defaults := DefaultConfig()
	if cfg.Binary == "" {
		cfg.Binary = defaults.Binary
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.InfoTimeout <= 0 {
		cfg.InfoTimeout = defaults.InfoTimeout
	}
	if cfg.AudioTimeout <= 0 {
		cfg.AudioTimeout = defaults.AudioTimeout
	}
	if cfg.URLTemplate == "" {
		cfg.URLTemplate = defaults.URLTemplate
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{cfg: cfg, logger: logger.Named("ytdlp")}
}

// CheckBinary verifies the configured binary can be found.
func (c *Client) CheckBinary() error {
	if _, err := exec.LookPath(c.cfg.Binary); err != nil {
		return fmt.Errorf("%w (%s): %v", ErrNotInstalled, c.cfg.Binary, err)
	}
	return nil
}

// VideoURL expands the URL template for a video id.
func (c *Client) VideoURL(videoID string) string {
	return fmt.Sprintf(c.cfg.URLTemplate, videoID)
}

func (c *Client) baseArgs() []string {
	args := make([]string, 0, 16)
	// --no-config first so local config files cannot change behaviour
	if c.cfg.NoConfig {
		args = append(args, "--no-config")
	}
	return args
}

// run executes yt-dlp with a bounded lifetime and returns stdout.
func (c *Client) run(
	ctx context.Context,
	timeout time.Duration,
	args []string,
) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c.logger.Debugw("Running command",
		"binary", c.cfg.Binary,
		"args", strings.Join(args, " "),
	)

	start := time.Now()
	cmd := exec.CommandContext(ctx, c.cfg.Binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.logger.Warnw("yt-dlp timed out",
				"timeout", timeout.String(),
			)
			return nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w (%s)", ErrNotInstalled, c.cfg.Binary)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			c.logger.Warnw("yt-dlp error",
				"status", exitErr.ExitCode(),
				"stderr", strings.TrimSpace(stderr.String()),
			)
			return nil, &ExitError{Code: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return nil, fmt.Errorf("run yt-dlp: %w", err)
	}

	c.logger.Debugw("yt-dlp finished",
		"elapsed", elapsed.String(),
	)
	return stdout.Bytes(), nil
}
