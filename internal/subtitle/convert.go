package subtitle

import (
	"bytes"
	"fmt"
	"time"

	"github.com/mgpai22/xcaption/internal/caption"
)

// FromCaptions builds a subtitle track from caption records. The verbatim
// timestamp strings are preferred over the rounded seconds so exports keep
// millisecond precision.
func FromCaptions(captions []caption.Caption, language string) *Subtitle {
	entries := make([]Entry, 0, len(captions))
	for i, c := range captions {
		entries = append(entries, Entry{
			Index:     i + 1,
			StartTime: captionTime(c.StartTimeString, c.Start),
			EndTime:   captionTime(c.EndTimeString, c.End),
			Text:      c.Text,
		})
	}
	return &Subtitle{
		Entries:  entries,
		Language: language,
		Format:   string(FormatSRT),
	}
}

func captionTime(ts string, fallback float64) time.Duration {
	if seconds, err := caption.SRTTimeToSeconds(ts); err == nil {
		return secondsToDuration(seconds)
	}
	return secondsToDuration(fallback)
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds*1000+0.5) * time.Millisecond
}

// ToSRT converts raw subtitle bytes of the given format into SubRip text.
func ToSRT(data []byte, format Format) (string, error) {
	switch format {
	case FormatSRT:
		return string(data), nil
	case FormatVTT:
		sub, err := ParseVTT(bytes.NewReader(data))
		if err != nil {
			return "", err
		}
		return RenderSRT(sub), nil
	default:
		return "", fmt.Errorf("cannot convert %s subtitles to srt", format)
	}
}
