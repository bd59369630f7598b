package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mgpai22/xcaption/internal/caption"
)

// Key identifies a cached caption list. Target is empty for untranslated
// captions.
type Key struct {
	VideoID  string
	Language string
	Target   string
}

// Entry is a cached caption list.
type Entry struct {
	Source    string
	Language  string // language of the captions as returned
	Captions  []caption.Caption
	Stats     caption.Stats
	CreatedAt time.Time
}

// Get returns the entry for key when it is younger than maxAge. A miss
// returns (nil, false, nil). maxAge <= 0 disables the age check.
func (s *Store) Get(ctx context.Context, key Key, maxAge time.Duration) (*Entry, bool, error) {
	var (
		source, language, captionsJSON, statsJSON string
		createdAt                                 int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT source, result_language, captions_json, stats_json, created_at
		FROM captions
		WHERE video_id = ? AND language = ? AND target_language = ?`,
		key.VideoID, key.Language, key.Target,
	).Scan(&source, &language, &captionsJSON, &statsJSON, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query cache: %w", err)
	}

	created := time.Unix(createdAt, 0)
	if maxAge > 0 && s.now().Sub(created) > maxAge {
		return nil, false, nil
	}

	entry := &Entry{
		Source:    source,
		Language:  language,
		CreatedAt: created,
	}
	if err := json.Unmarshal([]byte(captionsJSON), &entry.Captions); err != nil {
		return nil, false, fmt.Errorf("decode cached captions: %w", err)
	}
	if err := json.Unmarshal([]byte(statsJSON), &entry.Stats); err != nil {
		return nil, false, fmt.Errorf("decode cached stats: %w", err)
	}
	if entry.Captions == nil {
		entry.Captions = []caption.Caption{}
	}
	return entry, true, nil
}

// Put stores or replaces the entry for key.
func (s *Store) Put(ctx context.Context, key Key, entry Entry) error {
	captionsJSON, err := json.Marshal(entry.Captions)
	if err != nil {
		return fmt.Errorf("encode captions: %w", err)
	}
	statsJSON, err := json.Marshal(entry.Stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	_, err = s.execWithRetry(ctx, `
		INSERT INTO captions (video_id, language, target_language, source, result_language, captions_json, stats_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (video_id, language, target_language) DO UPDATE SET
			source = excluded.source,
			result_language = excluded.result_language,
			captions_json = excluded.captions_json,
			stats_json = excluded.stats_json,
			created_at = excluded.created_at`,
		key.VideoID, key.Language, key.Target,
		entry.Source, entry.Language, string(captionsJSON), string(statsJSON), createdAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("store cache entry: %w", err)
	}
	return nil
}

// Purge removes entries older than olderThan and returns how many were deleted.
// olderThan <= 0 removes everything.
func (s *Store) Purge(ctx context.Context, olderThan time.Duration) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if olderThan <= 0 {
		res, err = s.execWithRetry(ctx, "DELETE FROM captions")
	} else {
		cutoff := s.now().Add(-olderThan).Unix()
		res, err = s.execWithRetry(ctx, "DELETE FROM captions WHERE created_at < ?", cutoff)
	}
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	return n, nil
}

// Count returns the number of cached entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM captions").Scan(&n); err != nil {
		return 0, fmt.Errorf("count cache entries: %w", err)
	}
	return n, nil
}
