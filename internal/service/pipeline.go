package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mgpai22/xcaption/internal/audio"
	"github.com/mgpai22/xcaption/internal/logging"
	"github.com/mgpai22/xcaption/internal/transcribe"
)

// AudioSource downloads a video's audio track into dir.
type AudioSource interface {
	DownloadAudio(ctx context.Context, videoID, dir string) (string, error)
}

// AudioProcessor prepares audio for transcription.
type AudioProcessor interface {
	CompressAudio(ctx context.Context, inputPath, outputPath string, opts audio.CompressionOptions) error
	ChunkAudio(ctx context.Context, audioPath string, chunkDuration time.Duration, outputDir string, concurrency int) ([]audio.ChunkInfo, error)
}

// TranscriberFactory builds a transcriber that writes in the given language.
type TranscriberFactory func(ctx context.Context, lang Language) (transcribe.Transcriber, error)

// AudioPipeline transcribes a video by downloading its audio, normalising it
// with ffmpeg, and transcribing fixed-length chunks in parallel.
type AudioPipeline struct {
	Source         AudioSource
	Processor      AudioProcessor
	NewTranscriber TranscriberFactory
	ChunkDuration  time.Duration
	Concurrency    int
	TempDir        string // parent for per-call work dirs, default os.TempDir()
	Logger         *logging.Logger
}

func (p *AudioPipeline) Transcribe(ctx context.Context, videoID, lang string) (*transcribe.Result, error) {
	if p.Source == nil || p.Processor == nil || p.NewTranscriber == nil {
		return nil, errors.New("audio pipeline is not fully configured")
	}
	target, err := ParseLanguage(lang)
	if err != nil {
		return nil, err
	}
	logger := p.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	workDir, err := os.MkdirTemp(p.TempDir, "xcaption-audio-*")
	if err != nil {
		return nil, fmt.Errorf("create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	audioPath, err := p.Source.DownloadAudio(ctx, videoID, workDir)
	if err != nil {
		return nil, fmt.Errorf("download audio: %w", err)
	}

	compressed := filepath.Join(workDir, "compressed.mp3")
	if err := p.Processor.CompressAudio(ctx, audioPath, compressed, audio.DefaultCompressionOptions()); err != nil {
		return nil, err
	}

	chunks, err := p.Processor.ChunkAudio(ctx, compressed, p.ChunkDuration, filepath.Join(workDir, "chunks"), p.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("chunk audio: %w", err)
	}
	logger.Debugw("audio prepared", "video_id", videoID, "chunks", len(chunks))

	tr, err := p.NewTranscriber(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("create transcriber: %w", err)
	}
	return transcribe.TranscribeChunks(ctx, tr, chunks, p.Concurrency)
}
