package transcribe

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mgpai22/xcaption/internal/audio"
	"github.com/mgpai22/xcaption/internal/subtitle"
)

// holds the result of transcribing a chunk
type chunkResult struct {
	Index    int
	Segments []subtitle.Segment
	Error    error
}

// shifts chunk-relative segments onto the full timeline; segments without a
// usable end run to the end of the chunk
func offsetSegments(segments []subtitle.Segment, chunk audio.ChunkInfo) []subtitle.Segment {
	chunkLen := chunk.EndTime - chunk.StartTime
	adjusted := make([]subtitle.Segment, 0, len(segments))
	for _, seg := range segments {
		if seg.EndTime <= seg.StartTime {
			seg.EndTime = chunkLen
		}
		if chunkLen > 0 && seg.EndTime > chunkLen {
			seg.EndTime = chunkLen
		}
		if seg.StartTime >= seg.EndTime {
			continue
		}
		adjusted = append(adjusted, subtitle.Segment{
			StartTime: seg.StartTime + chunk.StartTime,
			EndTime:   seg.EndTime + chunk.StartTime,
			Text:      seg.Text,
		})
	}
	return adjusted
}

// TranscribeChunks transcribes chunks on up to concurrency workers and merges
// the segments in chunk order. The first failure cancels the remaining work.
func TranscribeChunks(
	ctx context.Context,
	tr Transcriber,
	chunks []audio.ChunkInfo,
	concurrency int,
) (*Result, error) {
	if len(chunks) == 0 {
		return &Result{}, nil
	}

	if concurrency <= 0 {
		concurrency = 3
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workChan := make(chan audio.ChunkInfo)
	resultChan := make(chan chunkResult, len(chunks))

	var (
		wg       sync.WaitGroup
		langOnce sync.Once
		language string
	)
	for i := 0; i < concurrency && i < len(chunks); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case chunk, ok := <-workChan:
					if !ok {
						return
					}
					if ctx.Err() != nil {
						return
					}

					result, err := tr.Transcribe(ctx, chunk.Path)
					if err != nil {
						cancel()
						resultChan <- chunkResult{Index: chunk.Index, Error: err}
						continue
					}
					if result.Language != "" {
						langOnce.Do(func() { language = result.Language })
					}
					resultChan <- chunkResult{
						Index:    chunk.Index,
						Segments: offsetSegments(result.Segments, chunk),
					}
				}
			}
		}()
	}

	go func() {
		defer close(workChan)
		for _, chunk := range chunks {
			select {
			case <-ctx.Done():
				return
			case workChan <- chunk:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]chunkResult, 0, len(chunks))
	var firstErr error
	for result := range resultChan {
		if result.Error != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf(
					"chunk %d failed: %w",
					result.Index,
					result.Error,
				)
			}
			cancel()
			continue
		}
		results = append(results, result)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if len(results) != len(chunks) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("transcribed %d of %d chunks", len(results), len(chunks))
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})

	var allSegments []subtitle.Segment
	for _, r := range results {
		allSegments = append(allSegments, r.Segments...)
	}

	var totalDuration time.Duration
	for _, c := range chunks {
		if c.EndTime > totalDuration {
			totalDuration = c.EndTime
		}
	}

	return &Result{
		Segments: allSegments,
		Language: language,
		Duration: totalDuration,
	}, nil
}
