package ytdlp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/mgpai22/xcaption/internal/subtitle"
)

// fakeBinary writes an executable shell script that stands in for yt-dlp.
func fakeBinary(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "yt-dlp")
	content := "#!/bin/sh\n" + script
	if err := os.WriteFile(path, []byte(content), 0755); err != nil {
		t.Fatalf("write fake binary: %v", err)
	}
	return path
}

// outputDirScript extracts the directory passed after --output.
const outputDirScript = `
out=""
prev=""
for arg in "$@"; do
  if [ "$prev" = "--output" ]; then out="$arg"; fi
  prev="$arg"
done
dir=$(dirname "$out")
`

func TestFetchSubtitlesPrefersRequestedLanguage(t *testing.T) {
	bin := fakeBinary(t, outputDirScript+`
printf '1\n00:00:01,000 --> 00:00:02,000\nHola\n\n' > "$dir/abc123def45.es.srt"
printf '1\n00:00:01,000 --> 00:00:02,000\nHello\n\n' > "$dir/abc123def45.en.srt"
`)
	client := New(Config{Binary: bin}, nil)

	subs, err := client.FetchSubtitles(context.Background(), "abc123def45", []string{"es", "en"})
	if err != nil {
		t.Fatalf("FetchSubtitles error: %v", err)
	}
	if subs.Language != "es" {
		t.Errorf("expected es, got %q", subs.Language)
	}
	if !strings.Contains(subs.Text, "Hola") {
		t.Errorf("unexpected text: %q", subs.Text)
	}
	if subs.Format != subtitle.FormatSRT {
		t.Errorf("expected srt format, got %q", subs.Format)
	}
}

func TestFetchSubtitlesFallsBackToRegionalAndVTT(t *testing.T) {
	bin := fakeBinary(t, outputDirScript+`
printf 'WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nHello\n' > "$dir/abc123def45.en-US.vtt"
`)
	client := New(Config{Binary: bin}, nil)

	subs, err := client.FetchSubtitles(context.Background(), "abc123def45", []string{"fr", "en"})
	if err != nil {
		t.Fatalf("FetchSubtitles error: %v", err)
	}
	if subs.Language != "en-US" || subs.Format != subtitle.FormatVTT {
		t.Errorf("unexpected selection: %+v", subs)
	}
	if !strings.Contains(subs.Text, "00:00:01,000 --> 00:00:02,000") {
		t.Errorf("vtt should be converted to srt: %q", subs.Text)
	}
}

func TestFetchSubtitlesNoFiles(t *testing.T) {
	bin := fakeBinary(t, "exit 0\n")
	client := New(Config{Binary: bin}, nil)

	_, err := client.FetchSubtitles(context.Background(), "abc123def45", []string{"en"})
	if !errors.Is(err, ErrNoSubtitles) {
		t.Fatalf("expected ErrNoSubtitles, got %v", err)
	}
}

func TestFetchSubtitlesExitError(t *testing.T) {
	bin := fakeBinary(t, "echo 'ERROR: Video unavailable' >&2\nexit 1\n")
	client := New(Config{Binary: bin}, nil)

	_, err := client.FetchSubtitles(context.Background(), "abc123def45", []string{"en"})
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if exitErr.Code != 1 || !strings.Contains(exitErr.Error(), "Video unavailable") {
		t.Errorf("unexpected exit error: %+v", exitErr)
	}
}

func TestFetchSubtitlesTimeout(t *testing.T) {
	bin := fakeBinary(t, "exec sleep 5\n")
	client := New(Config{Binary: bin, Timeout: 100 * time.Millisecond}, nil)

	_, err := client.FetchSubtitles(context.Background(), "abc123def45", []string{"en"})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestFetchSubtitlesMissingBinary(t *testing.T) {
	client := New(Config{Binary: filepath.Join(t.TempDir(), "missing-yt-dlp")}, nil)

	_, err := client.FetchSubtitles(context.Background(), "abc123def45", []string{"en"})
	if !errors.Is(err, ErrNotInstalled) {
		t.Fatalf("expected ErrNotInstalled, got %v", err)
	}
	if err := client.CheckBinary(); !errors.Is(err, ErrNotInstalled) {
		t.Errorf("CheckBinary: expected ErrNotInstalled, got %v", err)
	}
}

func TestFetchSubtitlesRejectsBadID(t *testing.T) {
	client := New(Config{Binary: "true"}, nil)
	_, err := client.FetchSubtitles(context.Background(), "--exec=rm", nil)
	if !errors.Is(err, ErrInvalidVideoID) {
		t.Fatalf("expected ErrInvalidVideoID, got %v", err)
	}
}

func TestSubtitleArgs(t *testing.T) {
	client := New(Config{Binary: "yt-dlp", NoConfig: true, ExtraArgs: []string{"--cookies", "c.txt"}}, nil)
	args := client.subtitleArgs("https://www.youtube.com/watch?v=abc123def45", []string{"de", "en"}, "/tmp/x")
	joined := strings.Join(args, " ")

	for _, want := range []string{
		"--no-config",
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs de,en",
		"--skip-download",
		"--cookies c.txt",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}
	if args[0] != "--no-config" {
		t.Errorf("--no-config should come first: %v", args)
	}
	if args[len(args)-1] != "https://www.youtube.com/watch?v=abc123def45" {
		t.Errorf("url should be last: %v", args)
	}
}

func TestLanguagePreference(t *testing.T) {
	tests := []struct {
		lang, fallback string
		want           []string
	}{
		{"es", "en", []string{"es", "en"}},
		{"en", "en", []string{"en"}},
		{"EN", "en", []string{"EN"}},
		{"", "en", []string{"en"}},
		{" fr ", "", []string{"fr"}},
	}
	for _, tt := range tests {
		got := LanguagePreference(tt.lang, tt.fallback)
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("LanguagePreference(%q, %q) = %v, want %v", tt.lang, tt.fallback, got, tt.want)
		}
	}
}

func TestVideoInfo(t *testing.T) {
	bin := fakeBinary(t, `echo 'WARNING: something'
echo '{"id":"abc123def45","title":"A talk","uploader":"Someone","duration":61.5,"view_count":42,"description":"short","subtitles":{"fr":[],"en":[]},"automatic_captions":{"de":[]}}'
`)
	client := New(Config{Binary: bin}, nil)

	info, err := client.VideoInfo(context.Background(), "abc123def45")
	if err != nil {
		t.Fatalf("VideoInfo error: %v", err)
	}
	if info.Title != "A talk" || info.Uploader != "Someone" || info.ViewCount != 42 || info.Duration != 61.5 {
		t.Errorf("unexpected info: %+v", info)
	}
	if info.Description != "short..." {
		t.Errorf("description: %q", info.Description)
	}
	if strings.Join(info.SubtitleLanguages, ",") != "en,fr" {
		t.Errorf("subtitle languages: %v", info.SubtitleLanguages)
	}
	if strings.Join(info.AutomaticLanguages, ",") != "de" {
		t.Errorf("automatic languages: %v", info.AutomaticLanguages)
	}
}

func TestParseVideoInfoDefaults(t *testing.T) {
	info, err := parseVideoInfo("x", []byte(`{"id":"x"}`))
	if err != nil {
		t.Fatalf("parseVideoInfo error: %v", err)
	}
	if info.Title != "Unknown" || info.Uploader != "Unknown" || info.Description != "" {
		t.Errorf("unexpected defaults: %+v", info)
	}

	if _, err := parseVideoInfo("x", []byte("no json here")); err == nil {
		t.Error("expected error without JSON")
	}
}

func TestTruncateDescription(t *testing.T) {
	long := strings.Repeat("é", 250)
	got := truncateDescription(long)
	if len([]rune(got)) != 203 || !strings.HasSuffix(got, "...") {
		t.Errorf("unexpected truncation: %d runes", len([]rune(got)))
	}
}

func TestDownloadAudio(t *testing.T) {
	bin := fakeBinary(t, outputDirScript+`
printf 'ID3' > "$dir/abc123def45.mp3"
`)
	client := New(Config{Binary: bin}, nil)

	path, err := client.DownloadAudio(context.Background(), "abc123def45", t.TempDir())
	if err != nil {
		t.Fatalf("DownloadAudio error: %v", err)
	}
	if filepath.Base(path) != "abc123def45.mp3" {
		t.Errorf("unexpected path %q", path)
	}
}

func TestParseVideoID(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=10s", "dQw4w9WgXcQ", false},
		{"youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://youtu.be/dQw4w9WgXcQ?si=abc", "dQw4w9WgXcQ", false},
		{"https://m.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://music.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://example.com/watch?v=dQw4w9WgXcQ", "", true},
		{"https://www.youtube.com/watch?v=short", "", true},
		{"-rf", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseVideoID(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidVideoID) {
				t.Errorf("ParseVideoID(%q) expected ErrInvalidVideoID, got %q, %v", tt.in, got, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseVideoID(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}
