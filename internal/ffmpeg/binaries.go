package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

const (
	EnvFFmpegPath  = "XCAPTION_FFMPEG_PATH"
	EnvFFprobePath = "XCAPTION_FFPROBE_PATH"
)

var ErrNotFound = errors.New("ffmpeg binaries not found")

type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
}

// Resolve fills missing entries of configured from the XCAPTION_ environment
// variables and then from PATH.
func Resolve(configured BinaryPaths) (BinaryPaths, error) {
	paths := BinaryPaths{
		FFmpeg:  strings.TrimSpace(configured.FFmpeg),
		FFprobe: strings.TrimSpace(configured.FFprobe),
	}

	if paths.FFmpeg == "" {
		paths.FFmpeg = strings.TrimSpace(os.Getenv(EnvFFmpegPath))
	}
	if paths.FFprobe == "" {
		paths.FFprobe = strings.TrimSpace(os.Getenv(EnvFFprobePath))
	}

	if paths.FFmpeg == "" {
		if found, err := exec.LookPath("ffmpeg"); err == nil {
			paths.FFmpeg = found
		}
	}
	if paths.FFprobe == "" {
		if found, err := exec.LookPath("ffprobe"); err == nil {
			paths.FFprobe = found
		}
	}

	var missing []string
	if paths.FFmpeg == "" || !fileExists(paths.FFmpeg) {
		missing = append(missing, "ffmpeg")
	}
	if paths.FFprobe == "" || !fileExists(paths.FFprobe) {
		missing = append(missing, "ffprobe")
	}
	if len(missing) > 0 {
		return paths, fmt.Errorf(
			"%w: %s (install ffmpeg, set %s/%s, or configure [ffmpeg] paths)",
			ErrNotFound,
			strings.Join(missing, ", "),
			EnvFFmpegPath,
			EnvFFprobePath,
		)
	}
	return paths, nil
}

// Version returns the first line of `ffmpeg -version`.
func (p BinaryPaths) Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, p.FFmpeg, "-version").Output()
	if err != nil {
		return "", fmt.Errorf("ffmpeg -version: %w", err)
	}
	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(line), nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
