package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/pitabwire/util"

	"github.com/kevsila/narrator/internal/audio"
	"github.com/kevsila/narrator/internal/quota"
	"github.com/kevsila/narrator/internal/studio"
	"github.com/kevsila/narrator/internal/synth/engine"
	"github.com/kevsila/narrator/internal/take"
	"github.com/kevsila/narrator/internal/voice"
)

// StudioHandler exposes the studio over a JSON HTTP API.
type StudioHandler struct {
	studio *studio.Studio
}

// NewStudioHandler creates the handler.
func NewStudioHandler(s *studio.Studio) *StudioHandler {
	return &StudioHandler{studio: s}
}

// Register mounts all routes on the mux.
func (h *StudioHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/takes", h.narrate)
	mux.HandleFunc("GET /v1/takes", h.listTakes)
	mux.HandleFunc("DELETE /v1/takes/{id}", h.removeTake)
	mux.HandleFunc("GET /v1/takes/{id}/download", h.download)
	mux.HandleFunc("POST /v1/takes/{id}/play", h.play)
	mux.HandleFunc("POST /v1/playback/stop", h.stopPlayback)
	mux.HandleFunc("POST /v1/previews", h.preview)
	mux.HandleFunc("GET /v1/voices", h.listVoices)
	mux.HandleFunc("GET /v1/books", h.listBooks)
	mux.HandleFunc("GET /v1/quota", h.quotaStatus)
	mux.HandleFunc("POST /v1/quota/reset", h.resetQuota)
}

type narrateRequest struct {
	Text   string          `json:"text"`
	Voice  string          `json:"voice"`
	Speed  float64         `json:"speed"`
	Style  string          `json:"style"`
	Book   string          `json:"book"`
	Export take.ExportMeta `json:"export"`
}

func (h *StudioHandler) narrate(w http.ResponseWriter, r *http.Request) {
	var req narrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	t, err := h.studio.Narrate(r.Context(), studio.NarrateParams{
		Text:    req.Text,
		VoiceID: req.Voice,
		Speed:   req.Speed,
		Style:   req.Style,
		BookID:  req.Book,
		Export:  req.Export,
	})
	if err != nil {
		writeStudioError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *StudioHandler) listTakes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"takes": h.studio.Takes()})
}

func (h *StudioHandler) removeTake(w http.ResponseWriter, r *http.Request) {
	if err := h.studio.RemoveTake(r.Context(), r.PathValue("id")); err != nil {
		writeStudioError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *StudioHandler) download(w http.ResponseWriter, r *http.Request) {
	filename, wav, err := h.studio.Export(r.PathValue("id"))
	if err != nil {
		writeStudioError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(wav)))
	w.WriteHeader(http.StatusOK)
	w.Write(wav)
}

func (h *StudioHandler) play(w http.ResponseWriter, r *http.Request) {
	if err := h.studio.Play(r.Context(), r.PathValue("id")); err != nil {
		writeStudioError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *StudioHandler) stopPlayback(w http.ResponseWriter, r *http.Request) {
	h.studio.StopPlayback(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

type previewRequest struct {
	Voice string `json:"voice"`
}

func (h *StudioHandler) preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	decoded, err := h.studio.Preview(r.Context(), req.Voice)
	if err != nil {
		writeStudioError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"voice":            req.Voice,
		"duration_seconds": decoded.Duration(),
	})
}

func (h *StudioHandler) listVoices(w http.ResponseWriter, r *http.Request) {
	if pl := r.URL.Query().Get("platform"); pl != "" {
		if !voice.ValidPlatform(pl) {
			writeError(w, http.StatusBadRequest, fmt.Errorf("unknown platform %q", pl))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"voices": voice.ForPlatform(voice.Platform(pl))})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"voices": voice.All()})
}

func (h *StudioHandler) listBooks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"books": h.studio.Books()})
}

func (h *StudioHandler) quotaStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"usage":            h.studio.Usage(),
		"cooldown_seconds": h.studio.CooldownSeconds(),
	})
}

func (h *StudioHandler) resetQuota(w http.ResponseWriter, r *http.Request) {
	if err := h.studio.ResetQuota(r.Context()); err != nil {
		writeStudioError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeStudioError maps pipeline failures to HTTP statuses and stable
// user-facing messages. Nothing here crashes the process.
func writeStudioError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, quota.ErrCooldownActive), errors.Is(err, quota.ErrQuotaExceeded):
		status = http.StatusTooManyRequests
	case errors.Is(err, studio.ErrTakeNotFound):
		status = http.StatusNotFound
	case errors.Is(err, studio.ErrEmptyManuscript),
		errors.Is(err, studio.ErrUnknownVoice),
		errors.Is(err, studio.ErrUnknownBook),
		errors.Is(err, studio.ErrInvalidSpeed):
		status = http.StatusBadRequest
	case engine.IsRateLimited(err):
		status = http.StatusTooManyRequests
	case errors.Is(err, engine.ErrNoAudio), errors.Is(err, audio.ErrMalformedPayload):
		status = http.StatusBadGateway
	}

	if status >= 500 {
		util.Log(r.Context()).WithError(err).Error("studio request failed")
	}

	writeJSON(w, status, map[string]string{
		"error":   err.Error(),
		"message": studio.UserMessage(err),
	})
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
