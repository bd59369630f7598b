package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mgpai22/xcaption/internal/cache"
	"github.com/mgpai22/xcaption/internal/caption"
	"github.com/mgpai22/xcaption/internal/logging"
	"github.com/mgpai22/xcaption/internal/subtitle"
	"github.com/mgpai22/xcaption/internal/transcribe"
	"github.com/mgpai22/xcaption/internal/translate"
	"github.com/mgpai22/xcaption/internal/ytdlp"
)

var (
	ErrNoCaptions             = errors.New("no captions found in subtitle file")
	ErrInvalidLanguage        = errors.New("invalid language tag")
	ErrTranslationUnavailable = errors.New("translation is not configured")
)

// Where a caption list came from.
const (
	SourceYtDlp         = "yt-dlp"
	SourceTranscription = "transcription"
	SourceUpload        = "upload"
)

// CaptionSource downloads subtitle tracks and metadata.
type CaptionSource interface {
	FetchSubtitles(ctx context.Context, videoID string, langs []string) (*ytdlp.Subtitles, error)
	VideoInfo(ctx context.Context, videoID string) (*ytdlp.VideoInfo, error)
}

// Cache stores parsed caption lists.
type Cache interface {
	Get(ctx context.Context, key cache.Key, maxAge time.Duration) (*cache.Entry, bool, error)
	Put(ctx context.Context, key cache.Key, entry cache.Entry) error
}

// Fallback produces a transcript for videos without captions.
type Fallback interface {
	Transcribe(ctx context.Context, videoID, language string) (*transcribe.Result, error)
}

// TranslatorFactory builds a translator from source to target language.
type TranslatorFactory func(ctx context.Context, source, target Language) (translate.Translator, error)

type Options struct {
	Source   CaptionSource
	Cache    Cache // optional
	CacheTTL time.Duration
	Fallback Fallback // optional
	// NewTranslator is optional; without it translation requests fail with
	// ErrTranslationUnavailable.
	NewTranslator        TranslatorFactory
	TranslateConcurrency int
	DefaultLanguage      string
	FallbackLanguage     string
	Generator            subtitle.Generator
	Logger               *logging.Logger
}

// Service fetches, parses, caches and translates captions.
type Service struct {
	source        CaptionSource
	cache         Cache
	cacheTTL      time.Duration
	fallback      Fallback
	newTranslator TranslatorFactory
	concurrency   int
	defaultLang   string
	fallbackLang  string
	generator     subtitle.Generator
	log           *logging.Logger
}

// Request describes a caption fetch.
type Request struct {
	VideoID   string
	Language  string // requested caption language, default "en"
	StripTags bool
	Translate string // target language, empty for none
}

// Result is a caption list plus where it came from.
type Result struct {
	VideoID       string
	Language      string // requested language, or the translation target
	TrackLanguage string // language of the track that was parsed
	Source        string
	Captions      []caption.Caption
	Stats         caption.Stats
	Cached        bool
}

func New(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	gen := opts.Generator
	if gen == nil {
		gen = subtitle.NewDefaultGenerator()
	}
	defaultLang := strings.TrimSpace(opts.DefaultLanguage)
	if defaultLang == "" {
		defaultLang = "en"
	}
	fallbackLang := strings.TrimSpace(opts.FallbackLanguage)
	if fallbackLang == "" {
		fallbackLang = "en"
	}
	return &Service{
		source:        opts.Source,
		cache:         opts.Cache,
		cacheTTL:      opts.CacheTTL,
		fallback:      opts.Fallback,
		newTranslator: opts.NewTranslator,
		concurrency:   opts.TranslateConcurrency,
		defaultLang:   defaultLang,
		fallbackLang:  fallbackLang,
		generator:     gen,
		log:           logger.Named("service"),
	}
}

// Captions returns the caption list for a video, translated when
// req.Translate is set.
func (s *Service) Captions(ctx context.Context, req Request) (*Result, error) {
	videoID := strings.TrimSpace(req.VideoID)
	if err := ytdlp.ValidateVideoID(videoID); err != nil {
		return nil, err
	}
	lang, err := s.resolveLanguage(req.Language)
	if err != nil {
		return nil, err
	}
	var target Language
	if strings.TrimSpace(req.Translate) != "" {
		if target, err = ParseLanguage(req.Translate); err != nil {
			return nil, err
		}
	}

	base, err := s.baseCaptions(ctx, videoID, lang, req.StripTags)
	if err != nil {
		return nil, err
	}
	if target.IsZero() || target.Equal(lang) {
		return base, nil
	}
	return s.translated(ctx, base, lang, target, req.StripTags)
}

func (s *Service) baseCaptions(ctx context.Context, videoID string, lang Language, stripTags bool) (*Result, error) {
	key := cache.Key{VideoID: videoID, Language: lang.String()}
	if cached, ok := s.cached(ctx, key, stripTags); ok {
		return cached, nil
	}

	opts := caption.ParseOptions{StripTags: stripTags}
	result := &Result{VideoID: videoID, Language: lang.String(), Source: SourceYtDlp}

	subs, err := s.source.FetchSubtitles(ctx, videoID, ytdlp.LanguagePreference(lang.String(), s.fallbackLang))
	switch {
	case err == nil:
		result.TrackLanguage = subs.Language
		result.Captions, result.Stats = caption.ParseSRTWithStats(subs.Text, opts)
		s.log.Debugw("subtitles parsed",
			"video_id", videoID,
			"track_language", subs.Language,
			"format", subs.Format,
			"blocks", result.Stats.Blocks,
			"dropped", result.Stats.Dropped(),
		)
	case errors.Is(err, ytdlp.ErrNoSubtitles) && s.fallback != nil:
		s.log.Infow("no subtitles available, transcribing audio", "video_id", videoID)
	default:
		return nil, err
	}

	if len(result.Captions) == 0 {
		if s.fallback == nil {
			return nil, ErrNoCaptions
		}
		if err := s.transcribe(ctx, result, lang, opts); err != nil {
			return nil, err
		}
	}

	s.store(ctx, key, result, stripTags)
	return result, nil
}

func (s *Service) transcribe(ctx context.Context, result *Result, lang Language, opts caption.ParseOptions) error {
	transcript, err := s.fallback.Transcribe(ctx, result.VideoID, lang.String())
	if err != nil {
		return fmt.Errorf("transcription fallback: %w", err)
	}
	captions, stats, err := transcribe.Captions(transcript, s.generator, opts)
	if err != nil {
		return fmt.Errorf("transcription fallback: %w", err)
	}
	if len(captions) == 0 {
		return ErrNoCaptions
	}
	result.Source = SourceTranscription
	result.TrackLanguage = transcript.Language
	result.Captions = captions
	result.Stats = stats
	s.log.Infow("transcription complete",
		"video_id", result.VideoID,
		"captions", len(captions),
		"duration", transcript.Duration,
	)
	return nil
}

func (s *Service) translated(ctx context.Context, base *Result, lang, target Language, stripTags bool) (*Result, error) {
	key := cache.Key{VideoID: base.VideoID, Language: lang.String(), Target: target.String()}
	if cached, ok := s.cached(ctx, key, stripTags); ok {
		cached.TrackLanguage = base.TrackLanguage
		return cached, nil
	}
	if s.newTranslator == nil {
		return nil, ErrTranslationUnavailable
	}

	tr, err := s.newTranslator(ctx, lang, target)
	if err != nil {
		return nil, fmt.Errorf("create translator: %w", err)
	}
	start := time.Now()
	captions, err := translate.Captions(ctx, tr, base.Captions, s.concurrency)
	if err != nil {
		return nil, fmt.Errorf("translate captions: %w", err)
	}
	s.log.Infow("captions translated",
		"video_id", base.VideoID,
		"from", lang.String(),
		"to", target.String(),
		"count", len(captions),
		"elapsed", time.Since(start),
	)

	result := &Result{
		VideoID:       base.VideoID,
		Language:      target.String(),
		TrackLanguage: base.TrackLanguage,
		Source:        base.Source,
		Captions:      captions,
		Stats:         base.Stats,
	}
	s.store(ctx, key, result, stripTags)
	return result, nil
}

// Cache entries hold captions parsed without tag stripping; stripped
// requests bypass the cache.
func (s *Service) cached(ctx context.Context, key cache.Key, stripTags bool) (*Result, bool) {
	if s.cache == nil || stripTags {
		return nil, false
	}
	entry, ok, err := s.cache.Get(ctx, key, s.cacheTTL)
	if err != nil {
		s.log.Warnw("cache lookup failed", "video_id", key.VideoID, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	lang := key.Language
	if key.Target != "" {
		lang = key.Target
	}
	s.log.Debugw("cache hit", "video_id", key.VideoID, "language", key.Language, "target", key.Target)
	return &Result{
		VideoID:       key.VideoID,
		Language:      lang,
		TrackLanguage: entry.Language,
		Source:        entry.Source,
		Captions:      entry.Captions,
		Stats:         entry.Stats,
		Cached:        true,
	}, true
}

func (s *Service) store(ctx context.Context, key cache.Key, result *Result, stripTags bool) {
	if s.cache == nil || stripTags {
		return
	}
	err := s.cache.Put(ctx, key, cache.Entry{
		Source:   result.Source,
		Language: result.TrackLanguage,
		Captions: result.Captions,
		Stats:    result.Stats,
	})
	if err != nil {
		s.log.Warnw("cache store failed", "video_id", key.VideoID, "error", err)
	}
}

// VideoInfo returns metadata for a video.
func (s *Service) VideoInfo(ctx context.Context, videoID string) (*ytdlp.VideoInfo, error) {
	videoID = strings.TrimSpace(videoID)
	if err := ytdlp.ValidateVideoID(videoID); err != nil {
		return nil, err
	}
	return s.source.VideoInfo(ctx, videoID)
}

// ParseUpload parses client supplied SRT text.
func (s *Service) ParseUpload(text string, opts caption.ParseOptions) (*Result, error) {
	captions, stats := caption.ParseSRTWithStats(text, opts)
	if len(captions) == 0 {
		return nil, ErrNoCaptions
	}
	return &Result{
		Source:   SourceUpload,
		Captions: captions,
		Stats:    stats,
	}, nil
}

func (s *Service) resolveLanguage(raw string) (Language, error) {
	if strings.TrimSpace(raw) == "" {
		raw = s.defaultLang
	}
	return ParseLanguage(raw)
}
