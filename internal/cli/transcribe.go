package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/mgpai22/xcaption/internal/audio"
	"github.com/mgpai22/xcaption/internal/caption"
	ffmpegbin "github.com/mgpai22/xcaption/internal/ffmpeg"
	"github.com/mgpai22/xcaption/internal/service"
	"github.com/mgpai22/xcaption/internal/transcribe"
	"github.com/mgpai22/xcaption/internal/ytdlp"
	"github.com/spf13/cobra"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <video>",
	Short: "Generate captions for a video by transcribing its audio",
	Long: `Generate captions for a YouTube video with AI transcription, ignoring any
captions the video already has.

The audio is downloaded with yt-dlp, normalised with ffmpeg, split into
chunks (default 1 minute) and transcribed in parallel.

Examples:
  xcaption transcribe dQw4w9WgXcQ
  xcaption transcribe dQw4w9WgXcQ -o talk.srt
  xcaption transcribe dQw4w9WgXcQ --provider openai --chunk-duration 2`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func init() {
	rootCmd.AddCommand(transcribeCmd)

	transcribeCmd.Flags().
		StringP("lang", "l", "", "Language to write the transcript in (default: the spoken language)")
	transcribeCmd.Flags().
		StringP("api-key", "k", "", "API key (or set GEMINI_API_KEY/OPENAI_API_KEY)")
	transcribeCmd.Flags().
		String("provider", "", "Transcription provider (gemini, openai)")
	transcribeCmd.Flags().
		String("model", "", "Model to use for transcription")
	transcribeCmd.Flags().
		IntP("chunk-duration", "d", 0, "Chunk duration in minutes (default from config)")
	transcribeCmd.Flags().
		Int("concurrency", 0, "Number of parallel transcription workers (default from config)")
	transcribeCmd.Flags().
		StringP("format", "f", outputAuto, "Output format (table, json, srt, vtt, ass)")
	transcribeCmd.Flags().
		StringP("output", "o", "", "Write output to a file instead of stdout")
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	videoID, err := ytdlp.ParseVideoID(args[0])
	if err != nil {
		return err
	}

	lang, _ := cmd.Flags().GetString("lang")
	apiKey, _ := cmd.Flags().GetString("api-key")
	provider, _ := cmd.Flags().GetString("provider")
	model, _ := cmd.Flags().GetString("model")
	chunkMinutes, _ := cmd.Flags().GetInt("chunk-duration")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	formatStr, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")

	tc := *cfg
	if provider != "" {
		tc.Transcribe.Provider = strings.ToLower(strings.TrimSpace(provider))
	}
	if model != "" {
		tc.Transcribe.Model = model
	}
	if chunkMinutes != 0 {
		tc.Transcribe.ChunkMinutes = chunkMinutes
	}
	if concurrency != 0 {
		tc.Transcribe.Concurrency = concurrency
	}
	if tc.Transcribe.ChunkMinutes <= 0 {
		return fmt.Errorf("chunk duration must be positive, got %d", tc.Transcribe.ChunkMinutes)
	}
	if tc.Transcribe.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", tc.Transcribe.Concurrency)
	}
	switch transcribe.Provider(tc.Transcribe.Provider) {
	case transcribe.ProviderGemini:
		if apiKey != "" {
			tc.Providers.GeminiAPIKey = apiKey
		}
	case transcribe.ProviderOpenAI:
		if apiKey != "" {
			tc.Providers.OpenAIAPIKey = apiKey
		}
		// the OpenAI audio API can only transcribe natively or translate to English
		if !isValidOpenAITranscriptLanguage(lang) {
			return fmt.Errorf(
				"OpenAI transcription can only output the spoken language or English, got %q",
				lang,
			)
		}
	default:
		return fmt.Errorf("unsupported transcription provider %q: use gemini or openai", tc.Transcribe.Provider)
	}
	if tc.APIKey(tc.Transcribe.Provider) == "" {
		return fmt.Errorf(
			"API key is required: use --api-key or set %s_API_KEY",
			strings.ToUpper(tc.Transcribe.Provider),
		)
	}

	output, err := outputFormat(cmd, formatStr, outputPath)
	if err != nil {
		return err
	}

	paths, err := ffmpegbin.Resolve(ffmpegbin.BinaryPaths{
		FFmpeg:  tc.FFmpeg.FFmpegPath,
		FFprobe: tc.FFmpeg.FFprobePath,
	})
	if err != nil {
		return err
	}

	pipeline := &service.AudioPipeline{
		Source:         ytdlp.New(service.YtDlpConfig(&tc), logger.Named("ytdlp")),
		Processor:      audio.NewProcessor(paths),
		NewTranscriber: service.NewTranscriberFactory(&tc),
		ChunkDuration:  tc.ChunkDuration(),
		Concurrency:    tc.Transcribe.Concurrency,
		Logger:         logger.Named("transcribe"),
	}

	pipelineLang := pipelineLanguage(lang)

	logger.Infow("Starting transcription",
		"video_id", videoID,
		"provider", tc.Transcribe.Provider,
		"chunk_duration", tc.ChunkDuration(),
		"concurrency", tc.Transcribe.Concurrency,
	)
	start := time.Now()

	result, err := pipeline.Transcribe(ctx, videoID, pipelineLang)
	if err != nil {
		return fmt.Errorf("transcription failed: %w", err)
	}
	captions, stats, err := transcribe.Captions(result, nil, caption.ParseOptions{})
	if err != nil {
		return err
	}

	logger.Infow("Transcription complete",
		"captions", len(captions),
		"elapsed", time.Since(start).Round(time.Second),
	)

	return printCaptions(cmd, captionsOutput{
		VideoID:  videoID,
		Language: result.Language,
		Source:   service.SourceTranscription,
		Count:    len(captions),
		Stats:    &stats,
		Captions: captions,
	}, output, outputPath)
}

// isValidOpenAITranscriptLanguage reports whether the OpenAI audio API can
// produce a transcript in lang.
func isValidOpenAITranscriptLanguage(lang string) bool {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "", "native", "english", "en":
		return true
	default:
		return false
	}
}

// pipelineLanguage maps the --language flag to a tag. "native" becomes und,
// which leaves the choice to the model.
func pipelineLanguage(lang string) string {
	switch trimmed := strings.TrimSpace(lang); strings.ToLower(trimmed) {
	case "", "native":
		return "und"
	case "english":
		return "en"
	default:
		return trimmed
	}
}
