package subtitle

import (
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultGenerator implements the Generator interface
type DefaultGenerator struct {
	MaxCharsPerLine int
	MaxLinesPerSub  int
	MinDuration     time.Duration
	MaxDuration     time.Duration
}

func NewDefaultGenerator() *DefaultGenerator {
	return &DefaultGenerator{
		MaxCharsPerLine: 42, // Standard subtitle line length
		MaxLinesPerSub:  2,  // Most players support 2 lines
		MinDuration:     time.Second,
		MaxDuration:     7 * time.Second,
	}
}

// converts transcription segments to subtitle entries. Long segments are
// split, short ones are stretched to MinDuration without overlapping the
// next segment.
func (g *DefaultGenerator) Generate(segments []Segment) (*Subtitle, error) {
	entries := []Entry{}

	for i, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		seg.Text = text
		next, hasNext := nextStart(segments, i)
		seg.EndTime = g.stretch(seg, next, hasNext)

		if g.needsSplit(text, seg.EndTime-seg.StartTime) {
			entries = append(entries, g.splitSegment(seg, len(entries)+1)...)
			continue
		}

		entries = append(entries, Entry{
			Index:     len(entries) + 1,
			StartTime: seg.StartTime,
			EndTime:   seg.EndTime,
			Text:      g.formatText(text),
		})
	}

	return &Subtitle{
		Entries: entries,
		Format:  string(FormatSRT),
	}, nil
}

func nextStart(segments []Segment, i int) (time.Duration, bool) {
	for _, seg := range segments[i+1:] {
		if strings.TrimSpace(seg.Text) != "" {
			return seg.StartTime, true
		}
	}
	return 0, false
}

func (g *DefaultGenerator) stretch(seg Segment, next time.Duration, hasNext bool) time.Duration {
	end := seg.EndTime
	if end < seg.StartTime {
		end = seg.StartTime
	}
	if end-seg.StartTime >= g.MinDuration {
		return end
	}
	target := seg.StartTime + g.MinDuration
	if hasNext && next < target {
		target = max(next, end)
	}
	return target
}

func (g *DefaultGenerator) needsSplit(
	text string,
	duration time.Duration,
) bool {
	if utf8.RuneCountInString(text) > g.MaxCharsPerLine*g.MaxLinesPerSub {
		return true
	}
	return duration > g.MaxDuration
}

// splits long segment into multiple entries with proportional timing
func (g *DefaultGenerator) splitSegment(seg Segment, startIndex int) []Entry {
	words := strings.Fields(seg.Text)
	if len(words) == 0 {
		return nil
	}
	totalDuration := seg.EndTime - seg.StartTime

	maxChars := g.MaxCharsPerLine * g.MaxLinesPerSub
	totalChars := utf8.RuneCountInString(seg.Text)

	numSplits := max((totalChars+maxChars-1)/maxChars, 1)
	if g.MaxDuration > 0 {
		numSplits = max(numSplits, int(totalDuration/g.MaxDuration)+1)
	}
	numSplits = min(numSplits, len(words))

	wordsPerSplit := (len(words) + numSplits - 1) / numSplits
	durationPerSplit := totalDuration / time.Duration(numSplits)

	var entries []Entry
	currentStart := seg.StartTime

	for i := 0; len(words) > 0; i++ {
		endIdx := min(wordsPerSplit, len(words))
		chunk := strings.Join(words[:endIdx], " ")
		words = words[endIdx:]

		currentEnd := currentStart + durationPerSplit
		if len(words) == 0 {
			currentEnd = seg.EndTime
		}

		entries = append(entries, Entry{
			Index:     startIndex + i,
			StartTime: currentStart,
			EndTime:   currentEnd,
			Text:      g.formatText(chunk),
		})
		currentStart = currentEnd
	}

	return entries
}

// wraps text onto two lines at the word break closest to the middle
func (g *DefaultGenerator) formatText(text string) string {
	text = strings.TrimSpace(text)
	runeCount := utf8.RuneCountInString(text)
	if runeCount <= g.MaxCharsPerLine {
		return text
	}

	words := strings.Fields(text)
	if len(words) < 2 {
		return text
	}

	middle := runeCount / 2
	bestSplit := 0
	bestDiff := runeCount

	currentLen := 0
	for i, word := range words[:len(words)-1] {
		currentLen += utf8.RuneCountInString(word)
		if i > 0 {
			currentLen++ // space
		}
		if diff := abs(currentLen - middle); diff < bestDiff {
			bestDiff = diff
			bestSplit = i + 1
		}
	}

	if bestSplit == 0 {
		return text
	}
	return strings.Join(words[:bestSplit], " ") + "\n" + strings.Join(words[bestSplit:], " ")
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
