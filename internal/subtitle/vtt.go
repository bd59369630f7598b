package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	vttTimestampRegex = regexp.MustCompile(
		`(\d{2,}):(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(\d{2,}):(\d{2}):(\d{2})\.(\d{3})`,
	)
	vttShortTimestampRegex = regexp.MustCompile(
		`^(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(\d{2}):(\d{2})\.(\d{3})`,
	)
	// inline cue timing and class spans emitted for auto-generated tracks
	vttInlineTagRegex = regexp.MustCompile(`<\d{2}:\d{2}(?::\d{2})?\.\d{3}>|</?c(?:\.[^>]*)?>`)
)

// ParseVTT reads a WebVTT document. NOTE and STYLE blocks are skipped and
// inline timing tags are removed from cue text.
func ParseVTT(r io.Reader) (*Subtitle, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		entries     []Entry
		current     *Entry
		textLines   []string
		lineNum     int
		skipBlock   bool
		headerFound bool
	)

	flush := func() {
		if current != nil && len(textLines) > 0 {
			current.Text = strings.Join(textLines, "\n")
			entries = append(entries, *current)
		}
		current = nil
		textLines = nil
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		lineNum++

		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			flush()
			skipBlock = false
			continue
		}
		if skipBlock {
			continue
		}

		if !headerFound && strings.HasPrefix(trimmed, "WEBVTT") {
			headerFound = true
			skipBlock = true
			continue
		}
		if current == nil &&
			(strings.HasPrefix(trimmed, "NOTE") || strings.HasPrefix(trimmed, "STYLE") ||
				strings.HasPrefix(trimmed, "REGION")) {
			skipBlock = true
			continue
		}

		if start, end, ok, err := matchVTTTiming(line); ok {
			if err != nil {
				return nil, fmt.Errorf("invalid timestamp at line %d: %w", lineNum, err)
			}
			flush()
			current = &Entry{
				Index:     len(entries) + 1,
				StartTime: start,
				EndTime:   end,
			}
			continue
		}

		if current != nil {
			text := strings.TrimSpace(vttInlineTagRegex.ReplaceAllString(line, ""))
			if text != "" {
				textLines = append(textLines, text)
			}
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading VTT: %w", err)
	}

	return &Subtitle{
		Entries: entries,
		Format:  string(FormatVTT),
	}, nil
}

func matchVTTTiming(line string) (time.Duration, time.Duration, bool, error) {
	if m := vttTimestampRegex.FindStringSubmatch(line); len(m) == 9 {
		start, err := parseVTTTimestamp(m[1], m[2], m[3], m[4])
		if err != nil {
			return 0, 0, true, err
		}
		end, err := parseVTTTimestamp(m[5], m[6], m[7], m[8])
		return start, end, true, err
	}
	if m := vttShortTimestampRegex.FindStringSubmatch(line); len(m) == 7 {
		start, err := parseVTTTimestamp("00", m[1], m[2], m[3])
		if err != nil {
			return 0, 0, true, err
		}
		end, err := parseVTTTimestamp("00", m[4], m[5], m[6])
		return start, end, true, err
	}
	return 0, 0, false, nil
}

func parseVTTTimestamp(
	hours, minutes, seconds, millis string,
) (time.Duration, error) {
	var fields [4]int
	for i, raw := range []string{hours, minutes, seconds, millis} {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, err
		}
		fields[i] = n
	}

	return time.Duration(fields[0])*time.Hour +
		time.Duration(fields[1])*time.Minute +
		time.Duration(fields[2])*time.Second +
		time.Duration(fields[3])*time.Millisecond, nil
}
