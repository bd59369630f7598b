package transcribe

import (
	"fmt"

	"github.com/mgpai22/xcaption/internal/caption"
	"github.com/mgpai22/xcaption/internal/subtitle"
)

// Captions turns a transcription into caption records by rendering SRT and
// running it through the caption parser, so transcribed captions follow the
// same rules as downloaded ones.
func Captions(result *Result, gen subtitle.Generator, opts caption.ParseOptions) ([]caption.Caption, caption.Stats, error) {
	if result == nil || len(result.Segments) == 0 {
		return []caption.Caption{}, caption.Stats{}, nil
	}
	if gen == nil {
		gen = subtitle.NewDefaultGenerator()
	}

	sub, err := gen.Generate(result.Segments)
	if err != nil {
		return nil, caption.Stats{}, fmt.Errorf("generate subtitles: %w", err)
	}
	sub.Language = result.Language

	captions, stats := caption.ParseSRTWithStats(subtitle.RenderSRT(sub), opts)
	return captions, stats, nil
}
