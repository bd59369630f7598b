package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mgpai22/xcaption/internal/caption"
	"github.com/mgpai22/xcaption/internal/service"
	"github.com/mgpai22/xcaption/internal/subtitle"
	"github.com/mgpai22/xcaption/internal/translate"
	"github.com/spf13/cobra"
)

var translateCmd = &cobra.Command{
	Use:   "translate <subtitle_file>",
	Short: "Translate a local subtitle file using AI",
	Long: `Translate an SRT or VTT file to another language using an LLM provider.

Timestamps are kept; only caption text is translated. The output format
follows the output file extension and defaults to the input's format.

Examples:
  xcaption translate talk.en.srt --to ja
  xcaption translate talk.en.vtt --to spanish -o talk.es.vtt
  xcaption translate talk.srt --to de --provider anthropic`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().
		StringP("to", "t", "", "Target language (required)")
	translateCmd.Flags().
		String("from", "", "Source language (default from config, usually en)")
	translateCmd.Flags().
		StringP("output", "o", "", "Output file (default <input>.<lang>.<ext>)")
	translateCmd.Flags().
		StringP("api-key", "k", "", "API key (or set GEMINI_API_KEY/OPENAI_API_KEY/ANTHROPIC_API_KEY)")
	translateCmd.Flags().
		String("provider", "", "Translation provider (gemini, openai, anthropic)")
	translateCmd.Flags().
		String("model", "", "Model to use (provider-specific, uses sensible defaults)")
	translateCmd.Flags().
		Int("concurrency", 0, "Number of parallel translation workers (default from config)")
	translateCmd.Flags().
		Int("batch-size", 0, "Number of captions per API request (default from config)")

	_ = translateCmd.MarkFlagRequired("to")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	ctx := cmd.Context()

	targetRaw, _ := cmd.Flags().GetString("to")
	sourceRaw, _ := cmd.Flags().GetString("from")
	outputPath, _ := cmd.Flags().GetString("output")
	apiKey, _ := cmd.Flags().GetString("api-key")
	providerStr, _ := cmd.Flags().GetString("provider")
	model, _ := cmd.Flags().GetString("model")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	batchSize, _ := cmd.Flags().GetInt("batch-size")

	if providerStr == "" {
		providerStr = cfg.Translate.Provider
	}
	if model == "" {
		model = cfg.Translate.Model
	}
	if concurrency == 0 {
		concurrency = cfg.Translate.Concurrency
	}
	if batchSize == 0 {
		batchSize = cfg.Translate.BatchSize
	}
	if concurrency < 0 {
		return fmt.Errorf("concurrency must be positive, got %d", concurrency)
	}
	if batchSize < 0 {
		return fmt.Errorf("batch-size must be positive, got %d", batchSize)
	}
	if sourceRaw == "" {
		sourceRaw = cfg.Captions.DefaultLanguage
	}

	target, err := languageLabel(targetRaw)
	if err != nil {
		return err
	}
	source, err := languageLabel(sourceRaw)
	if err != nil {
		return err
	}
	if strings.EqualFold(source, target) {
		return fmt.Errorf("source language %q and target language %q cannot be the same", sourceRaw, targetRaw)
	}

	if apiKey == "" {
		apiKey = cfg.APIKey(providerStr)
	}
	if apiKey == "" {
		return fmt.Errorf(
			"API key is required: use --api-key or set %s_API_KEY",
			strings.ToUpper(providerStr),
		)
	}

	text, err := readSRT(inputPath)
	if err != nil {
		return err
	}
	captions, stats := caption.ParseSRTWithStats(text, caption.ParseOptions{StripTags: cfg.Captions.StripTags})
	if len(captions) == 0 {
		return fmt.Errorf("subtitle file contains no captions")
	}

	format, err := translateOutputFormat(inputPath, outputPath)
	if err != nil {
		return err
	}
	if outputPath == "" {
		base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
		outputPath = fmt.Sprintf("%s.%s%s", base, safeSuffix(targetRaw), format.Extension())
	}

	logger.Infow("Starting caption translation",
		"input", inputPath,
		"output", outputPath,
		"captions", len(captions),
		"dropped", stats.Dropped(),
		"source_language", source,
		"target_language", target,
		"provider", providerStr,
	)

	translator, err := translate.Factory(ctx, translate.Provider(providerStr), apiKey, translate.Options{
		InputLanguage:  source,
		TargetLanguage: target,
		Model:          model,
		Prompt:         cfg.Translate.Prompt,
		BatchSize:      batchSize,
	})
	if err != nil {
		return fmt.Errorf("failed to create translator: %w", err)
	}

	translated, err := translate.Captions(ctx, translator, captions, concurrency)
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}

	data, err := subtitle.Render(subtitle.FromCaptions(translated, targetRaw), format)
	if err != nil {
		return err
	}
	if err := writeOutput(cmd, outputPath, data); err != nil {
		return err
	}

	logger.Infow("Translation complete", "captions", len(translated))
	return nil
}

// languageLabel accepts a BCP 47 tag or a free-form language name. Tags are
// turned into English names for the model.
func languageLabel(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("language is required")
	}
	if tag, err := service.ParseLanguage(raw); err == nil {
		return tag.Name(), nil
	}
	if strings.ContainsAny(raw, "/\\<>{}") {
		return "", fmt.Errorf("%w %q", service.ErrInvalidLanguage, raw)
	}
	return raw, nil
}

func translateOutputFormat(inputPath, outputPath string) (subtitle.Format, error) {
	if outputPath != "" {
		return subtitle.ParseFormat(filepath.Ext(outputPath))
	}
	if format, err := subtitle.ParseFormat(filepath.Ext(inputPath)); err == nil {
		return format, nil
	}
	return subtitle.FormatSRT, nil
}

func safeSuffix(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ' ' {
			return '_'
		}
		return r
	}, s)
}
