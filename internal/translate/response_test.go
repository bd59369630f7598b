package translate

import (
	"strings"
	"testing"
)

func TestExtractTranslationResults(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCount int
		wantErr   bool
	}{
		{
			name: "plain valid array",
			input: `[
				{"index": 0, "text": "こんにちは"},
				{"index": 1, "text": "さようなら"}
			]`,
			wantCount: 2,
		},
		{
			name: "preamble with valid array",
			input: `Here is the translation:
			[
				{"index": 0, "text": "Bonjour"},
				{"index": 1, "text": "Au revoir"}
			]`,
			wantCount: 2,
		},
		{
			name: "valid array with trailing text",
			input: `[
				{"index": 0, "text": "Hola"}
			]
			I hope this helps!`,
			wantCount: 1,
		},
		{
			name: "wrapper object with results key",
			input: `{"results": [
				{"index": 0, "text": "Translated"}
			]}`,
			wantCount: 1,
		},
		{
			name: "wrapper object with translations key",
			input: `{"translations": [
				{"index": 0, "text": "Übersetzt"}
			]}`,
			wantCount: 1,
		},
		{
			name:    "empty array",
			input:   `[]`,
			wantErr: true,
		},
		{
			name:    "no JSON at all",
			input:   `This is just plain text.`,
			wantErr: true,
		},
		{
			name:    "invalid JSON",
			input:   `[{"index": 0, "text": "incomplete"`,
			wantErr: true,
		},
		{
			name:    "array with empty text",
			input:   `[{"index": 0, "text": ""}]`,
			wantErr: true,
		},
		{
			name: "line break escape in text",
			input: `[
				{"index": 0, "text": "That's why they are fuming...\Nthese Babu and Pappu."}
			]`,
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := extractTranslationResults(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(results) != tt.wantCount {
				t.Errorf("got %d results, want %d", len(results), tt.wantCount)
			}
		})
	}
}

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain JSON",
			input: `[{"index": 0, "text": "hello"}]`,
			want:  `[{"index": 0, "text": "hello"}]`,
		},
		{
			name:  "json code fence",
			input: "```json\n[{\"index\": 0, \"text\": \"hello\"}]\n```",
			want:  `[{"index": 0, "text": "hello"}]`,
		},
		{
			name:  "with leading/trailing whitespace",
			input: "  \n\n```json\n[{\"index\": 0}]\n```\n\n  ",
			want:  `[{"index": 0}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanJSONResponse(tt.input); got != tt.want {
				t.Errorf("cleanJSONResponse() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseBatchResponseValidatesIndices(t *testing.T) {
	items := []TranslationItem{{Index: 4, Text: "a"}, {Index: 5, Text: "b"}}

	results, err := parseBatchResponse("Test", "```json\n[{\"index\":5,\"text\":\"B\"},{\"index\":4,\"text\":\"A\"}]\n```", items)
	if err != nil || len(results) != 2 {
		t.Fatalf("expected 2 results, got %v %v", results, err)
	}

	tests := map[string]string{
		"count mismatch":  `[{"index":4,"text":"A"}]`,
		"wrong index":     `[{"index":4,"text":"A"},{"index":9,"text":"B"}]`,
		"duplicate index": `[{"index":4,"text":"A"},{"index":4,"text":"B"}]`,
		"empty reply":     ``,
	}
	for name, reply := range tests {
		if _, err := parseBatchResponse("Test", reply, items); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestBuildPrompt(t *testing.T) {
	opts := Options{InputLanguage: "English", TargetLanguage: "Japanese", Prompt: "Keep names in romaji."}
	items := []TranslationItem{
		{Index: 0, Text: "Hello world"},
		{Index: 1, Text: "Goodbye"},
	}

	prompt := BuildPrompt(opts, items)

	for _, want := range []string{
		"English video caption texts",
		"to Japanese",
		"Hello world",
		`"index": 0`,
		"Additional instructions: Keep names in romaji.",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt should contain %q", want)
		}
	}
}

func TestBuildPromptWithoutInputLanguage(t *testing.T) {
	prompt := BuildPrompt(Options{TargetLanguage: "Spanish"}, []TranslationItem{{Index: 0, Text: "Hello"}})

	if strings.Contains(prompt, "English") || strings.Contains(prompt, "Additional instructions") {
		t.Error("prompt should not contain unset options")
	}
	if !strings.Contains(prompt, "to Spanish") {
		t.Error("prompt should contain target language")
	}
}

func TestBuildPromptMentionsDurationOnlyWhenKnown(t *testing.T) {
	opts := Options{TargetLanguage: "German"}
	without := BuildPrompt(opts, []TranslationItem{{Index: 0, Text: "Hi"}})
	with := BuildPrompt(opts, []TranslationItem{{Index: 0, Text: "Hi", Seconds: 1.5}})

	if strings.Contains(without, "seconds") {
		t.Error("prompt without durations should not mention seconds")
	}
	if !strings.Contains(with, "'seconds' is how long") || !strings.Contains(with, `"seconds": 1.5`) {
		t.Errorf("prompt should describe and include durations:\n%s", with)
	}
	if strings.Count(BuildPrompt(opts, []TranslationItem{{Index: 0, Text: "Hi"}}), "\n7.") != 0 {
		t.Error("duration rule leaked into shared rules")
	}
}
