package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/mgpai22/xcaption/internal/service"
	"github.com/mgpai22/xcaption/internal/ytdlp"
)

const (
	captionsPrefix  = "Failed to fetch captions: "
	videoInfoPrefix = "Failed to get video info: "
	parsePrefix     = "Failed to parse captions: "
)

// captionsError maps a caption fetch error to a status and detail message.
func captionsError(err error) (int, string) {
	switch {
	case errors.Is(err, ytdlp.ErrInvalidVideoID), errors.Is(err, service.ErrInvalidLanguage):
		return http.StatusBadRequest, captionsPrefix + err.Error()
	case errors.Is(err, service.ErrNoCaptions), errors.Is(err, ytdlp.ErrNoSubtitles):
		return http.StatusNotFound, captionsPrefix + err.Error()
	case errors.Is(err, ytdlp.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, captionsPrefix + "caption download timed out"
	default:
		return http.StatusInternalServerError, captionsPrefix + err.Error()
	}
}

// videoInfoError keeps the original API's 408 for timeouts.
func videoInfoError(err error) (int, string) {
	switch {
	case errors.Is(err, ytdlp.ErrInvalidVideoID):
		return http.StatusBadRequest, videoInfoPrefix + err.Error()
	case errors.Is(err, ytdlp.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout, "Request timed out"
	case errors.Is(err, ytdlp.ErrNotInstalled):
		return http.StatusInternalServerError, err.Error()
	default:
		return http.StatusInternalServerError, videoInfoPrefix + err.Error()
	}
}

func parseError(err error) (int, string) {
	if errors.Is(err, service.ErrNoCaptions) {
		return http.StatusUnprocessableEntity, parsePrefix + err.Error()
	}
	return http.StatusInternalServerError, parsePrefix + err.Error()
}
