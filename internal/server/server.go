package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/mgpai22/xcaption/internal/caption"
	"github.com/mgpai22/xcaption/internal/logging"
	"github.com/mgpai22/xcaption/internal/service"
	"github.com/mgpai22/xcaption/internal/ytdlp"
)

// CaptionService is the subset of service.Service the API needs.
type CaptionService interface {
	Captions(ctx context.Context, req service.Request) (*service.Result, error)
	VideoInfo(ctx context.Context, videoID string) (*ytdlp.VideoInfo, error)
	ParseUpload(text string, opts caption.ParseOptions) (*service.Result, error)
}

type Options struct {
	Bind             string
	CORSOrigins      []string // "*" allows any origin
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	ShutdownTimeout  time.Duration
	StripTagsDefault bool
	Version          string
	Logger           *logging.Logger
}

// Server is the caption HTTP API.
type Server struct {
	svc     CaptionService
	opts    Options
	log     *logging.Logger
	handler http.Handler
}

func New(svc CaptionService, opts Options) *Server {
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 15 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 120 * time.Second
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	s := &Server{
		svc:  svc,
		opts: opts,
		log:  logger.Named("api"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /api/captions/{videoId}", s.handleCaptions)
	mux.HandleFunc("POST /api/captions/parse", s.handleParse)
	mux.HandleFunc("GET /api/video-info/{videoId}", s.handleVideoInfo)

	s.handler = s.requestID(s.accessLog(s.cors(mux)))
	return s
}

// Handler returns the API with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe listens on the configured bind address and serves until ctx
// is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.opts.Bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is cancelled, then shuts down
// gracefully, waiting up to the shutdown timeout for in-flight requests.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()
	s.log.Infow("api server listening", "address", listener.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}
	s.log.Infow("api server stopped")
	return nil
}
