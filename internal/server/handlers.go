package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/mgpai22/xcaption/internal/caption"
	"github.com/mgpai22/xcaption/internal/service"
	"github.com/mgpai22/xcaption/internal/subtitle"
)

const maxUploadBytes = 5 << 20

type statusResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

type captionsResponse struct {
	Success  bool              `json:"success"`
	VideoID  string            `json:"videoId,omitempty"`
	Language string            `json:"language,omitempty"`
	Captions []caption.Caption `json:"captions"`
	Count    int               `json:"count"`
	Source   string            `json:"source"`
	Cached   bool              `json:"cached,omitempty"`
	Dropped  *int              `json:"dropped,omitempty"`
}

func newCaptionsResponse(res *service.Result) captionsResponse {
	captions := res.Captions
	if captions == nil {
		captions = []caption.Caption{}
	}
	return captionsResponse{
		Success:  true,
		VideoID:  res.VideoID,
		Language: res.Language,
		Captions: captions,
		Count:    len(captions),
		Source:   res.Source,
		Cached:   res.Cached,
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, statusResponse{
		Status:  "ok",
		Service: "XCaption API",
		Version: s.opts.Version,
	})
}

func (s *Server) handleCaptions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	stripTags, err := s.stripTags(query.Get("stripTags"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, captionsPrefix+err.Error())
		return
	}
	format, err := parseOutputFormat(query.Get("format"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, captionsPrefix+err.Error())
		return
	}

	res, err := s.svc.Captions(r.Context(), service.Request{
		VideoID:   r.PathValue("videoId"),
		Language:  query.Get("lang"),
		StripTags: stripTags,
		Translate: query.Get("translate"),
	})
	if err != nil {
		s.log.Warnw("caption fetch failed",
			"video_id", r.PathValue("videoId"),
			"request_id", requestIDFrom(r.Context()),
			"error", err,
		)
		status, detail := captionsError(err)
		s.writeError(w, status, detail)
		return
	}

	if format == "" {
		s.writeJSON(w, http.StatusOK, newCaptionsResponse(res))
		return
	}
	s.writeSubtitle(w, res, format)
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	stripTags, err := s.stripTags(r.URL.Query().Get("stripTags"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, parsePrefix+err.Error())
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, parsePrefix+"subtitle file too large")
			return
		}
		s.writeError(w, http.StatusBadRequest, parsePrefix+err.Error())
		return
	}

	res, err := s.svc.ParseUpload(string(body), caption.ParseOptions{StripTags: stripTags})
	if err != nil {
		status, detail := parseError(err)
		s.writeError(w, status, detail)
		return
	}

	resp := newCaptionsResponse(res)
	dropped := res.Stats.Dropped()
	resp.Dropped = &dropped
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVideoInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.svc.VideoInfo(r.Context(), r.PathValue("videoId"))
	if err != nil {
		s.log.Warnw("video info failed",
			"video_id", r.PathValue("videoId"),
			"request_id", requestIDFrom(r.Context()),
			"error", err,
		)
		status, detail := videoInfoError(err)
		s.writeError(w, status, detail)
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

func (s *Server) stripTags(raw string) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.opts.StripTagsDefault, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid stripTags value %q", raw)
	}
	return v, nil
}

// parseOutputFormat returns "" for the JSON envelope.
func parseOutputFormat(raw string) (subtitle.Format, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "json") {
		return "", nil
	}
	return subtitle.ParseFormat(raw)
}

func (s *Server) writeSubtitle(w http.ResponseWriter, res *service.Result, format subtitle.Format) {
	data, err := subtitle.Render(subtitle.FromCaptions(res.Captions, res.Language), format)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, captionsPrefix+err.Error())
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`inline; filename="%s.%s%s"`, res.VideoID, res.Language, format.Extension()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.log.Debugw("failed to write subtitle response", "error", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Errorw("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, map[string]string{"detail": detail})
}
