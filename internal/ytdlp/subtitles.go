package ytdlp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgpai22/xcaption/internal/subtitle"
)

// Subtitles is the raw caption track produced by yt-dlp, always as SRT text.
type Subtitles struct {
	VideoID  string
	Language string
	Format   subtitle.Format // format yt-dlp wrote before conversion
	Text     string
}

// LanguagePreference returns the requested language followed by the
// fallback, without duplicates or blanks.
func LanguagePreference(lang, fallback string) []string {
	var langs []string
	seen := make(map[string]bool)
	for _, l := range []string{lang, fallback} {
		l = strings.TrimSpace(l)
		if l == "" || seen[strings.ToLower(l)] {
			continue
		}
		seen[strings.ToLower(l)] = true
		langs = append(langs, l)
	}
	return langs
}

// FetchSubtitles downloads manual or automatic subtitles for videoID in the
// first available language of langs.
func (c *Client) FetchSubtitles(
	ctx context.Context,
	videoID string,
	langs []string,
) (*Subtitles, error) {
	if err := ValidateVideoID(videoID); err != nil {
		return nil, err
	}
	if len(langs) == 0 {
		langs = LanguagePreference("", c.cfg.FallbackLanguage)
	}

	tempDir, err := os.MkdirTemp("", "xcaption-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	args := c.subtitleArgs(c.VideoURL(videoID), langs, tempDir)
	if _, err := c.run(ctx, c.cfg.Timeout, args); err != nil {
		return nil, err
	}

	file, err := selectSubtitleFile(tempDir, videoID, langs)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(file.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read subtitle file: %w", err)
	}

	text, err := subtitle.ToSRT(data, file.format)
	if err != nil {
		return nil, fmt.Errorf("failed to convert %s subtitles: %w", file.format, err)
	}

	c.logger.Infow("Downloaded subtitles",
		"video_id", videoID,
		"language", file.language,
		"format", file.format,
		"bytes", len(data),
	)

	return &Subtitles{
		VideoID:  videoID,
		Language: file.language,
		Format:   file.format,
		Text:     text,
	}, nil
}

func (c *Client) subtitleArgs(url string, langs []string, dir string) []string {
	args := c.baseArgs()
	args = append(args,
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", strings.Join(langs, ","),
		"--sub-format", "srt/vtt/best",
		"--convert-subs", "srt",
		"--skip-download",
		"--no-progress",
		"--output", filepath.Join(dir, "%(id)s.%(ext)s"),
	)
	args = append(args, c.cfg.ExtraArgs...)
	return append(args, url)
}

type subtitleFile struct {
	path     string
	language string
	format   subtitle.Format
}

// selectSubtitleFile picks the downloaded file matching the earliest
// preferred language, exact tag before regional variants, srt before vtt.
func selectSubtitleFile(dir, videoID string, langs []string) (*subtitleFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list subtitle directory: %w", err)
	}

	var files []subtitleFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		format, err := subtitle.ParseFormat(filepath.Ext(name))
		if err != nil || format == subtitle.FormatASS {
			continue
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		lang := strings.TrimPrefix(stem, videoID+".")
		if lang == stem {
			lang = ""
		}
		files = append(files, subtitleFile{
			path:     filepath.Join(dir, name),
			language: lang,
			format:   format,
		})
	}
	if len(files) == 0 {
		return nil, ErrNoSubtitles
	}

	matchers := []func(fileLang, want string) bool{
		strings.EqualFold,
		func(fileLang, want string) bool {
			return strings.HasPrefix(strings.ToLower(fileLang), strings.ToLower(want)+"-")
		},
	}
	for _, want := range langs {
		for _, match := range matchers {
			for _, format := range []subtitle.Format{subtitle.FormatSRT, subtitle.FormatVTT} {
				for i := range files {
					if files[i].format == format && match(files[i].language, want) {
						return &files[i], nil
					}
				}
			}
		}
	}

	for _, format := range []subtitle.Format{subtitle.FormatSRT, subtitle.FormatVTT} {
		for i := range files {
			if files[i].format == format {
				return &files[i], nil
			}
		}
	}
	return nil, ErrNoSubtitles
}
