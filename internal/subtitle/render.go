package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ASS script header values
type ASSStyle struct {
	Title    string
	FontName string
	FontSize int
}

func DefaultASSStyle() ASSStyle {
	return ASSStyle{
		Title:    "XCaption Subtitles",
		FontName: "Arial",
		FontSize: 20,
	}
}

// Render serializes sub in the given format.
func Render(sub *Subtitle, format Format) ([]byte, error) {
	if sub == nil {
		return nil, fmt.Errorf("nil subtitle")
	}
	switch format {
	case FormatSRT:
		return []byte(RenderSRT(sub)), nil
	case FormatVTT:
		return []byte(RenderVTT(sub)), nil
	case FormatASS:
		return []byte(RenderASS(sub, DefaultASSStyle())), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// WriteFile renders sub and writes it to path, creating parent directories.
func WriteFile(sub *Subtitle, format Format, path string) error {
	data, err := Render(sub, format)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func RenderSRT(sub *Subtitle) string {
	var sb strings.Builder
	for i, entry := range sub.Entries {
		// index (1-based)
		fmt.Fprintf(&sb, "%d\n", i+1)

		// timestamps: 00:00:00,000 --> 00:00:00,000
		fmt.Fprintf(&sb, "%s --> %s\n",
			formatSRTTime(entry.StartTime),
			formatSRTTime(entry.EndTime))

		sb.WriteString(entry.Text)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func RenderVTT(sub *Subtitle) string {
	var sb strings.Builder
	sb.WriteString("WEBVTT\n")
	if sub.Language != "" {
		fmt.Fprintf(&sb, "Language: %s\n", sub.Language)
	}
	sb.WriteString("\n")

	for i, entry := range sub.Entries {
		// optional cue identifier
		fmt.Fprintf(&sb, "%d\n", i+1)

		// timestamps: 00:00:00.000 --> 00:00:00.000
		fmt.Fprintf(&sb, "%s --> %s\n",
			formatVTTTime(entry.StartTime),
			formatVTTTime(entry.EndTime))

		sb.WriteString(entry.Text)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func RenderASS(sub *Subtitle, style ASSStyle) string {
	var sb strings.Builder

	sb.WriteString("[Script Info]\n")
	fmt.Fprintf(&sb, "Title: %s\n", style.Title)
	sb.WriteString("ScriptType: v4.00+\n")
	sb.WriteString("Collisions: Normal\n")
	sb.WriteString("PlayDepth: 0\n\n")

	sb.WriteString("[V4+ Styles]\n")
	sb.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(&sb, "Style: Default,%s,%d,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,2,2,10,10,10,1\n\n",
		style.FontName, style.FontSize)

	sb.WriteString("[Events]\n")
	sb.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	for _, entry := range sub.Entries {
		fmt.Fprintf(&sb, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			formatASSTime(entry.StartTime),
			formatASSTime(entry.EndTime),
			escapeASSText(entry.Text))
	}
	return sb.String()
}

func formatSRTTime(d time.Duration) string {
	h, m, s, ms := splitDuration(d)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

func formatVTTTime(d time.Duration) string {
	h, m, s, ms := splitDuration(d)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

func formatASSTime(d time.Duration) string {
	h, m, s, ms := splitDuration(d)
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, ms/10)
}

func splitDuration(d time.Duration) (hours, minutes, seconds, millis int) {
	if d < 0 {
		d = 0
	}
	total := int(d.Milliseconds())
	return total / 3600000, (total / 60000) % 60, (total / 1000) % 60, total % 1000
}

func escapeASSText(text string) string {
	return strings.ReplaceAll(text, "\n", "\\N")
}
