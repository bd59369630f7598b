package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mgpai22/xcaption/internal/subtitle"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// implements Transcriber interface using OpenAI Audio API
type OpenAITranscriber struct {
	client  openai.Client
	model   string
	options Options
}

// segment from OpenAI Whisper verbose_json response
type whisperSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// verbose_json response structure from Whisper
type whisperVerboseResponse struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
	Language string           `json:"language"`
	Duration float64          `json:"duration"`
}

func NewOpenAITranscriber(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*OpenAITranscriber, error) {
	if apiKey == "" {
		return nil, errors.New("API key is required")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	model := opts.Model
	if model == "" {
		model = "whisper-1"
	}

	return &OpenAITranscriber{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

// transcribes single audio file
func (t *OpenAITranscriber) Transcribe(
	ctx context.Context,
	audioPath string,
) (*Result, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	if t.shouldUseTranslation() {
		params := openai.AudioTranslationNewParams{
			File:           file,
			Model:          openai.AudioModel(t.model),
			ResponseFormat: openai.AudioTranslationNewParamsResponseFormatVerboseJSON,
		}
		if t.options.Prompt != "" {
			params.Prompt = openai.String(t.options.Prompt)
		}

		resp, err := t.client.Audio.Translations.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("translation failed: %w", err)
		}
		return whisperResult(resp.RawJSON(), resp.Text, "en")
	}

	params := openai.AudioTranscriptionNewParams{
		File:                   file,
		Model:                  openai.AudioModel(t.model),
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"segment"},
	}
	if t.options.Language != "" {
		params.Language = openai.String(t.options.Language)
	}
	if t.options.Prompt != "" {
		params.Prompt = openai.String(t.options.Prompt)
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}
	return whisperResult(resp.RawJSON(), resp.Text, t.options.Language)
}

// the translations endpoint only targets English
func (t *OpenAITranscriber) shouldUseTranslation() bool {
	lang := strings.ToLower(strings.TrimSpace(t.options.TranscriptLanguage))
	return lang == "english" || lang == "en"
}

// whisperResult turns a verbose_json body into a Result. language is used
// when the caller knows the transcript language, otherwise the detected one.
// fallbackText covers bodies without usable segments.
func whisperResult(rawJSON, fallbackText, language string) (*Result, error) {
	var resp whisperVerboseResponse
	decodeErr := errors.New("empty response")
	if rawJSON != "" {
		decodeErr = nil
		if err := json.Unmarshal([]byte(rawJSON), &resp); err != nil {
			decodeErr = fmt.Errorf("failed to parse verbose_json response: %w", err)
		}
	}
	if strings.TrimSpace(language) == "" {
		language = resp.Language
	}

	result := &Result{
		Language: NormalizeLanguage(language),
		Duration: secondsToDuration(resp.Duration),
	}
	for _, seg := range resp.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		result.Segments = append(result.Segments, subtitle.Segment{
			StartTime: secondsToDuration(seg.Start),
			EndTime:   secondsToDuration(seg.End),
			Text:      text,
		})
	}
	if len(result.Segments) > 0 {
		return result, nil
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		text = strings.TrimSpace(fallbackText)
	}
	if text == "" {
		if decodeErr != nil {
			return nil, decodeErr
		}
		return nil, errors.New("no segments or text in response")
	}
	// an end of zero is stretched to the chunk length by TranscribeChunks
	result.Segments = []subtitle.Segment{{EndTime: result.Duration, Text: text}}
	return result, nil
}
