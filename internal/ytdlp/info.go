package ytdlp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const descriptionLimit = 200

// VideoInfo is the metadata subset exposed by the API.
type VideoInfo struct {
	VideoID            string   `json:"videoId"`
	Title              string   `json:"title"`
	Uploader           string   `json:"uploader"`
	Duration           float64  `json:"duration"`
	ViewCount          int64    `json:"view_count"`
	Description        string   `json:"description"`
	SubtitleLanguages  []string `json:"subtitle_languages"`
	AutomaticLanguages []string `json:"automatic_caption_languages"`
}

// fields of interest from yt-dlp --dump-json
type dumpOutput struct {
	ID                string                     `json:"id"`
	Title             *string                    `json:"title"`
	Uploader          *string                    `json:"uploader"`
	Duration          float64                    `json:"duration"`
	ViewCount         int64                      `json:"view_count"`
	Description       string                     `json:"description"`
	Subtitles         map[string]json.RawMessage `json:"subtitles"`
	AutomaticCaptions map[string]json.RawMessage `json:"automatic_captions"`
}

// VideoInfo fetches metadata without downloading media.
func (c *Client) VideoInfo(ctx context.Context, videoID string) (*VideoInfo, error) {
	if err := ValidateVideoID(videoID); err != nil {
		return nil, err
	}

	args := c.baseArgs()
	args = append(args, "--dump-json", "--no-download", "--no-warnings")
	args = append(args, c.cfg.ExtraArgs...)
	args = append(args, c.VideoURL(videoID))

	out, err := c.run(ctx, c.cfg.InfoTimeout, args)
	if err != nil {
		return nil, err
	}

	return parseVideoInfo(videoID, out)
}

func parseVideoInfo(videoID string, out []byte) (*VideoInfo, error) {
	var jsonLine []byte
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "{") {
			jsonLine = []byte(line)
			break
		}
	}
	if jsonLine == nil {
		return nil, fmt.Errorf("no JSON in yt-dlp output")
	}

	var dump dumpOutput
	if err := json.Unmarshal(jsonLine, &dump); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp JSON: %w", err)
	}

	return &VideoInfo{
		VideoID:            videoID,
		Title:              valueOr(dump.Title, "Unknown"),
		Uploader:           valueOr(dump.Uploader, "Unknown"),
		Duration:           dump.Duration,
		ViewCount:          dump.ViewCount,
		Description:        truncateDescription(dump.Description),
		SubtitleLanguages:  sortedKeys(dump.Subtitles),
		AutomaticLanguages: sortedKeys(dump.AutomaticCaptions),
	}, nil
}

func valueOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}

// first 200 characters followed by an ellipsis; empty stays empty
func truncateDescription(s string) string {
	if s == "" {
		return ""
	}
	runes := []rune(s)
	if len(runes) > descriptionLimit {
		runes = runes[:descriptionLimit]
	}
	return string(runes) + "..."
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DownloadAudio extracts the audio track as mp3 into dir and returns its path.
func (c *Client) DownloadAudio(ctx context.Context, videoID, dir string) (string, error) {
	if err := ValidateVideoID(videoID); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create audio directory: %w", err)
	}

	args := c.baseArgs()
	args = append(args,
		"--extract-audio",
		"--audio-format", "mp3",
		"--audio-quality", "5",
		"--no-playlist",
		"--no-progress",
		"--output", filepath.Join(dir, "%(id)s.%(ext)s"),
	)
	args = append(args, c.cfg.ExtraArgs...)
	args = append(args, c.VideoURL(videoID))

	if _, err := c.run(ctx, c.cfg.AudioTimeout, args); err != nil {
		return "", err
	}

	matches, err := filepath.Glob(filepath.Join(dir, globEscape(videoID)+".*"))
	if err != nil {
		return "", fmt.Errorf("failed to locate audio file: %w", err)
	}
	sort.Strings(matches)
	for _, m := range matches {
		if strings.EqualFold(filepath.Ext(m), ".mp3") {
			return m, nil
		}
	}
	if len(matches) > 0 {
		return matches[0], nil
	}
	return "", fmt.Errorf("yt-dlp produced no audio file for %s", videoID)
}

func globEscape(s string) string {
	replacer := strings.NewReplacer("*", "\\*", "?", "\\?", "[", "\\[", "\\", "\\\\")
	return replacer.Replace(s)
}
