package caption

import (
	"regexp"
	"strings"
)

var (
	timestampLineRegex = regexp.MustCompile(
		`^(\d{2}:\d{2}:\d{2},\d{3}) --> (\d{2}:\d{2}:\d{2},\d{3})`,
	)
	markupRegex = regexp.MustCompile(`<[^>]*>`)
)

// ParseOptions tunes ParseSRTWithStats.
type ParseOptions struct {
	// StripTags removes inline markup such as <i> or <font color=...>
	// before the empty-text check.
	StripTags bool
}

// Stats counts what happened to each block of an SRT document.
type Stats struct {
	Blocks        int `json:"blocks"`
	Parsed        int `json:"parsed"`
	ShortBlocks   int `json:"shortBlocks"`
	BadTimestamps int `json:"badTimestamps"`
	EmptyText     int `json:"emptyText"`
}

// number of blocks that did not produce a caption
func (s Stats) Dropped() int {
	return s.ShortBlocks + s.BadTimestamps + s.EmptyText
}

// ParseSRT converts SubRip text into captions in source order. Malformed or
// text-less blocks are skipped; it never fails.
func ParseSRT(text string) []Caption {
	captions, _ := ParseSRTWithStats(text, ParseOptions{})
	return captions
}

// ParseSRTWithStats is ParseSRT plus per-block drop counts.
func ParseSRTWithStats(text string, opts ParseOptions) ([]Caption, Stats) {
	captions := []Caption{}
	var stats Stats

	text = strings.TrimSpace(normalizeNewlines(text))
	if text == "" {
		return captions, stats
	}

	for _, block := range strings.Split(text, "\n\n") {
		stats.Blocks++

		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 3 {
			stats.ShortBlocks++
			continue
		}

		matches := timestampLineRegex.FindStringSubmatch(lines[1])
		if matches == nil {
			stats.BadTimestamps++
			continue
		}
		startString, endString := matches[1], matches[2]

		cueText := strings.Join(lines[2:], " ")
		if opts.StripTags {
			cueText = markupRegex.ReplaceAllString(cueText, "")
		}
		cueText = strings.TrimSpace(cueText)

		// the regex guarantees both fields are well formed
		start, err := SRTTimeToSeconds(startString)
		if err != nil {
			stats.BadTimestamps++
			continue
		}
		end, err := SRTTimeToSeconds(endString)
		if err != nil {
			stats.BadTimestamps++
			continue
		}

		if cueText == "" {
			stats.EmptyText++
			continue
		}

		captions = append(captions, Caption{
			Start:           Round1(start),
			End:             Round1(end),
			Text:            cueText,
			StartTimeString: startString,
			EndTimeString:   endString,
		})
		stats.Parsed++
	}

	return captions, stats
}

func normalizeNewlines(text string) string {
	text = strings.TrimPrefix(text, "\ufeff")
	if strings.Contains(text, "\r") {
		text = strings.ReplaceAll(text, "\r\n", "\n")
		text = strings.ReplaceAll(text, "\r", "\n")
	}
	return text
}
