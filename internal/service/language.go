package service

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language is a validated BCP 47 tag. The zero value means "none".
type Language struct {
	tag language.Tag
	set bool
}

// ParseLanguage validates raw and canonicalises its casing, so "en-us"
// becomes "en-US" and "zh-hans" becomes "zh-Hans".
func ParseLanguage(raw string) (Language, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Language{}, fmt.Errorf("%w: empty", ErrInvalidLanguage)
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return Language{}, fmt.Errorf("%w %q", ErrInvalidLanguage, raw)
	}
	return Language{tag: tag, set: true}, nil
}

// CanonicalLanguage returns the canonical form of a language tag.
func CanonicalLanguage(raw string) (string, error) {
	l, err := ParseLanguage(raw)
	if err != nil {
		return "", err
	}
	return l.String(), nil
}

func (l Language) IsZero() bool { return !l.set }

func (l Language) Tag() language.Tag { return l.tag }

func (l Language) String() string {
	if !l.set {
		return ""
	}
	return l.tag.String()
}

func (l Language) Equal(other Language) bool {
	return l.set && other.set && l.tag == other.tag
}

// Name is the English display name, e.g. "Spanish", falling back to the tag.
func (l Language) Name() string {
	if !l.set {
		return ""
	}
	if name := display.English.Tags().Name(l.tag); name != "" {
		return name
	}
	return l.tag.String()
}
