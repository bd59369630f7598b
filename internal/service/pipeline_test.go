package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mgpai22/xcaption/internal/audio"
	"github.com/mgpai22/xcaption/internal/subtitle"
	"github.com/mgpai22/xcaption/internal/transcribe"
)

type fakeAudioSource struct{ dir string }

func (f *fakeAudioSource) DownloadAudio(_ context.Context, videoID, dir string) (string, error) {
	f.dir = dir
	path := filepath.Join(dir, videoID+".mp3")
	return path, os.WriteFile(path, []byte("audio"), 0o644)
}

type fakeProcessor struct {
	compressed string
	chunkLen   time.Duration
}

func (f *fakeProcessor) CompressAudio(_ context.Context, in, out string, _ audio.CompressionOptions) error {
	f.compressed = out
	return os.WriteFile(out, []byte("compressed"), 0o644)
}

func (f *fakeProcessor) ChunkAudio(_ context.Context, path string, chunk time.Duration, dir string, _ int) ([]audio.ChunkInfo, error) {
	f.chunkLen = chunk
	return []audio.ChunkInfo{
		{Path: filepath.Join(dir, "chunk_000.mp3"), Index: 0, StartTime: 0, EndTime: chunk},
		{Path: filepath.Join(dir, "chunk_001.mp3"), Index: 1, StartTime: chunk, EndTime: chunk + 30*time.Second},
	}, nil
}

type scriptedTranscriber struct{}

func (scriptedTranscriber) Transcribe(_ context.Context, path string) (*transcribe.Result, error) {
	text := "first"
	if filepath.Base(path) == "chunk_001.mp3" {
		text = "second"
	}
	return &transcribe.Result{Segments: []subtitle.Segment{{StartTime: time.Second, EndTime: 3 * time.Second, Text: text}}}, nil
}

func TestAudioPipelineTranscribe(t *testing.T) {
	src := &fakeAudioSource{}
	proc := &fakeProcessor{}
	var gotLang string
	p := &AudioPipeline{
		Source:    src,
		Processor: proc,
		NewTranscriber: func(_ context.Context, lang Language) (transcribe.Transcriber, error) {
			gotLang = lang.Name()
			return scriptedTranscriber{}, nil
		},
		ChunkDuration: time.Minute,
		Concurrency:   2,
		TempDir:       t.TempDir(),
	}

	result, err := p.Transcribe(context.Background(), "dQw4w9WgXcQ", "fr")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if gotLang != "French" {
		t.Errorf("transcriber language = %q, want French", gotLang)
	}
	if proc.chunkLen != time.Minute || filepath.Base(proc.compressed) != "compressed.mp3" {
		t.Errorf("unexpected processing: %+v", proc)
	}
	if len(result.Segments) != 2 || result.Segments[1].StartTime != 61*time.Second {
		t.Errorf("unexpected segments: %+v", result.Segments)
	}
	if _, err := os.Stat(src.dir); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("work directory should be removed, stat err = %v", err)
	}
}

func TestAudioPipelineRequiresComponents(t *testing.T) {
	p := &AudioPipeline{}
	if _, err := p.Transcribe(context.Background(), "dQw4w9WgXcQ", "en"); err == nil {
		t.Fatal("expected error for unconfigured pipeline")
	}
}
