package transcribe

import (
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// lower-case English language names keyed to their two-letter codes, e.g.
// "english" -> "en"; Whisper reports detected languages this way
var languageCodes = sync.OnceValue(func() map[string]string {
	codes := make(map[string]string)
	namer := display.English.Languages()
	for a := 'a'; a <= 'z'; a++ {
		for b := 'a'; b <= 'z'; b++ {
			base, err := language.ParseBase(string([]rune{a, b}))
			if err != nil {
				continue
			}
			if name := namer.Name(base); name != "" {
				codes[strings.ToLower(name)] = base.String()
			}
		}
	}
	return codes
})

// NormalizeLanguage turns a language name ("English") or tag ("EN") into a
// BCP 47 tag. "native", "und" and "" mean unknown and yield "". Values that
// are neither are returned trimmed.
func NormalizeLanguage(raw string) string {
	raw = strings.TrimSpace(raw)
	lower := strings.ToLower(raw)
	switch lower {
	case "", "native", "und":
		return ""
	}
	if code, ok := languageCodes()[lower]; ok {
		return code
	}
	if tag, err := language.Parse(raw); err == nil {
		return tag.String()
	}
	return raw
}

// resultLanguage is the language a transcript is written in: the requested
// output language, else the spoken language when known.
func (o Options) resultLanguage() string {
	if lang := NormalizeLanguage(o.TranscriptLanguage); lang != "" {
		return lang
	}
	return NormalizeLanguage(o.Language)
}
