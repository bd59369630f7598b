package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/mgpai22/xcaption/internal/caption"
)

// Captions translates caption text and returns new records with the same
// timestamps. Translators implementing ConcurrentTranslator run batches on
// up to concurrency workers.
func Captions(
	ctx context.Context,
	tr Translator,
	captions []caption.Caption,
	concurrency int,
) ([]caption.Caption, error) {
	out := make([]caption.Caption, len(captions))
	if len(captions) == 0 {
		return out, nil
	}

	items := make([]TranslationItem, len(captions))
	for i, c := range captions {
		items[i] = TranslationItem{Index: i, Text: c.Text, Seconds: caption.Round1(c.End - c.Start)}
	}

	var (
		results []TranslationResult
		err     error
	)
	if ct, ok := tr.(ConcurrentTranslator); ok && concurrency > 1 {
		results, err = ct.TranslateWithConcurrency(ctx, items, concurrency)
	} else {
		results, err = tr.Translate(ctx, items)
	}
	if err != nil {
		return nil, err
	}

	byIndex := make(map[int]string, len(results))
	for _, r := range results {
		byIndex[r.Index] = r.Text
	}

	for i, c := range captions {
		text, ok := byIndex[i]
		if !ok {
			return nil, fmt.Errorf("missing translation for caption %d", i)
		}
		c.Text = singleLine(text)
		if c.Text == "" {
			c.Text = captions[i].Text
		}
		out[i] = c
	}
	return out, nil
}

// caption text is one line; models sometimes add breaks anyway
func singleLine(s string) string {
	s = strings.ReplaceAll(s, "\\N", " ")
	return strings.Join(strings.Fields(s), " ")
}
