package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// TranslationItem is one caption text sent to the model. Seconds is how
// long the caption stays on screen; zero means unknown.
type TranslationItem struct {
	Index   int     `json:"index"`
	Text    string  `json:"text"`
	Seconds float64 `json:"seconds,omitempty"`
}

// TranslationResult is the model's text for the item with the same Index.
type TranslationResult struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

type Translator interface {
	Translate(ctx context.Context, items []TranslationItem) ([]TranslationResult, error)
}

// ConcurrentTranslator can run its batches on several workers.
type ConcurrentTranslator interface {
	Translator
	TranslateWithConcurrency(ctx context.Context, items []TranslationItem, concurrency int) ([]TranslationResult, error)
}

type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// ErrUnknownProvider is returned for provider names other than gemini,
// openai and anthropic.
var ErrUnknownProvider = errors.New("unsupported translation provider")

// ParseProvider accepts a provider name in any case.
func ParseProvider(raw string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(raw)))
	switch p {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProvider, raw)
}

const DefaultBatchSize = 50

type Options struct {
	InputLanguage  string // optional; the model detects it otherwise
	TargetLanguage string
	Model          string // provider default when empty
	Prompt         string // extra instructions appended to the prompt
	BatchSize      int    // captions per request, DefaultBatchSize when zero
}

func (o Options) validate() error {
	if strings.TrimSpace(o.TargetLanguage) == "" {
		return errors.New("target language is required")
	}
	if o.BatchSize < 0 {
		return fmt.Errorf("batch size must not be negative, got %d", o.BatchSize)
	}
	return nil
}

func (o Options) batchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return DefaultBatchSize
}

// Factory builds the translator for provider.
func Factory(ctx context.Context, provider Provider, apiKey string, opts Options) (Translator, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	p, err := ParseProvider(string(provider))
	if err != nil {
		return nil, err
	}

	switch p {
	case ProviderOpenAI:
		return NewOpenAITranslator(ctx, apiKey, opts)
	case ProviderAnthropic:
		return NewAnthropicTranslator(ctx, apiKey, opts)
	default:
		return NewGeminiTranslator(ctx, apiKey, opts)
	}
}

var promptRules = []string{
	"Translate the meaning of each caption, not word by word.",
	"Keep inline tags such as <i>, <b> and <font> where they are.",
	"Each caption is one line. Do not add line breaks.",
	"Answer with a JSON array only: one object per input with the same 'index' and the translated 'text'.",
	"Do not merge, split, skip or reorder captions.",
	"No explanations and no markdown fences.",
}

// BuildPrompt renders the translation request for one batch.
func BuildPrompt(opts Options, items []TranslationItem) string {
	var sb strings.Builder

	source := ""
	if opts.InputLanguage != "" {
		source = opts.InputLanguage + " "
	}
	fmt.Fprintf(&sb, "Translate the following %svideo caption texts to %s.\n\n", source, opts.TargetLanguage)

	rules := promptRules
	for _, item := range items {
		if item.Seconds > 0 {
			rules = append(rules[:len(rules):len(rules)],
				"'seconds' is how long a caption is on screen; keep translations short enough to read in that time.")
			break
		}
	}
	sb.WriteString("Rules:\n")
	for i, rule := range rules {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, rule)
	}
	if extra := strings.TrimSpace(opts.Prompt); extra != "" {
		fmt.Fprintf(&sb, "\nAdditional instructions: %s\n", extra)
	}

	inputJSON, _ := json.MarshalIndent(items, "", "  ")
	sb.WriteString("\nInput JSON:\n")
	sb.Write(inputJSON)
	sb.WriteString("\n\nOutput the translated JSON array only:")

	return sb.String()
}
