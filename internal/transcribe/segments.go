package transcribe

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mgpai22/xcaption/internal/subtitle"
)

// segment from an LLM JSON transcript
type transcriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

var jsonBlockRegex = regexp.MustCompile("```(?:json)?\\s*")

// removes markdown formatting from the response
func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)

	s = jsonBlockRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")

	return strings.TrimSpace(s)
}

// finds the first JSON value in text that holds transcript segments, either
// as a bare array or inside (possibly nested) wrapper objects
func extractTranscriptSegments(text string) ([]transcriptSegment, error) {
	for i := 0; i < len(text); i++ {
		if text[i] != '[' && text[i] != '{' {
			continue
		}
		decoder := json.NewDecoder(strings.NewReader(text[i:]))
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			continue
		}
		if segments, ok := tryExtractSegments(raw, 0); ok {
			return segments, nil
		}
	}
	return nil, fmt.Errorf("no valid transcript JSON found in response")
}

const maxWrapperDepth = 4

func tryExtractSegments(raw json.RawMessage, depth int) ([]transcriptSegment, bool) {
	var segments []transcriptSegment
	if err := json.Unmarshal(raw, &segments); err == nil && validateSegments(segments) {
		return segments, true
	}
	if depth >= maxWrapperDepth {
		return nil, false
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, false
	}

	for _, key := range []string{"segments", "transcript", "data", "results"} {
		if fieldRaw, ok := wrapper[key]; ok {
			if segments, ok := tryExtractSegments(fieldRaw, depth+1); ok {
				return segments, true
			}
		}
	}
	for _, fieldRaw := range wrapper {
		if segments, ok := tryExtractSegments(fieldRaw, depth+1); ok {
			return segments, true
		}
	}
	return nil, false
}

// at least one segment carries text or a timestamp
func validateSegments(segments []transcriptSegment) bool {
	for _, s := range segments {
		if s.Text != "" || s.Start != 0 || s.End != 0 {
			return true
		}
	}
	return false
}

func toSubtitleSegments(segments []transcriptSegment) []subtitle.Segment {
	out := make([]subtitle.Segment, 0, len(segments))
	for _, ts := range segments {
		out = append(out, subtitle.Segment{
			StartTime: secondsToDuration(ts.Start),
			EndTime:   secondsToDuration(ts.End),
			Text:      strings.TrimSpace(ts.Text),
		})
	}
	return out
}

func secondsToDuration(s float64) time.Duration {
	if s < 0 {
		return 0
	}
	return time.Duration(s*1000+0.5) * time.Millisecond
}

// truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
