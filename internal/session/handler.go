package session

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"alzie-companion/internal/health"
	"alzie-companion/internal/mood"
	"alzie-companion/internal/patient"
	"alzie-companion/internal/response"
)

const maxAudioUpload = 10 << 20

type Handler struct {
	svc    Service
	logger zerolog.Logger
}

func NewHandler(svc Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type CreateSessionRequest struct {
	PatientID string `json:"patient_id"`
}

type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	Greeting  string `json:"greeting"`
}

type TurnRequest struct {
	Text string `json:"text"`
}

type TurnResponse struct {
	Text         string            `json:"text,omitempty"`
	Response     string            `json:"response"`
	FollowUp     string            `json:"follow_up,omitempty"`
	Category     response.Category `json:"category"`
	Intervention mood.Intervention `json:"intervention,omitempty"`
	Mood         mood.Mood         `json:"mood"`
	StressLevel  int               `json:"stress_level"`
	Alerts       []health.Alert    `json:"alerts,omitempty"`
	AudioBase64  string            `json:"audio_base64,omitempty"`
}

type TTSRequest struct {
	Text string `json:"text"`
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	c, err := h.svc.StartSession(r.Context(), strings.TrimSpace(req.PatientID))
	if err != nil {
		h.fail(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateSessionResponse{
		SessionID: c.ID(),
		Greeting:  c.Greeting(),
	})
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	l, err := h.svc.GetSession(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *Handler) HandleTurn(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	out, err := h.svc.ProcessTurn(r.Context(), id, req.Text)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, turnResponse(out))
}

func (h *Handler) HandleAudioUpload(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxAudioUpload); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("audio")
	if err != nil {
		http.Error(w, "Error retrieving audio file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		http.Error(w, "Failed to read audio file", http.StatusInternalServerError)
		return
	}

	text, err := h.svc.TranscribeAudio(r.Context(), buf.Bytes())
	if err != nil {
		h.logger.Warn().Err(err).Str("session_id", id.String()).Msg("transcription failed")
		text = ""
	}

	// Unrecognized speech still gets a turn: the engine asks to repeat.
	out, err := h.svc.ProcessTurn(r.Context(), id, text)
	if err != nil {
		h.fail(w, err)
		return
	}

	resp := turnResponse(out)
	resp.Text = text

	spoken := out.Reply.Text
	if out.FollowUp != "" {
		spoken += ". " + out.FollowUp
	}
	if audio, err := h.svc.SynthesizeSpeech(r.Context(), spoken); err == nil {
		resp.AudioBase64 = base64.StdEncoding.EncodeToString(audio)
	} else {
		h.logger.Warn().Err(err).Msg("speech synthesis failed")
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	l, err := h.svc.EndSession(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"session_id": l.ID.String(),
		"summary":    l.Summary(),
	})
}

func (h *Handler) PatientSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.PatientSummary(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

func (h *Handler) HandleTTS(w http.ResponseWriter, r *http.Request) {
	var req TTSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	audioData, err := h.svc.SynthesizeSpeech(r.Context(), req.Text)
	if err != nil {
		http.Error(w, "TTS failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Write(audioData)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/sessions", h.CreateSession)
	r.Get("/sessions/{id}", h.GetSession)
	r.Post("/sessions/{id}/turns", h.HandleTurn)
	r.Post("/sessions/{id}/audio", h.HandleAudioUpload)
	r.Delete("/sessions/{id}", h.EndSession)
	r.Get("/patients/{id}/summary", h.PatientSummary)
	r.Post("/tts", h.HandleTTS)
}

func turnResponse(out Outcome) TurnResponse {
	return TurnResponse{
		Response:     out.Reply.Text,
		FollowUp:     out.FollowUp,
		Category:     out.Reply.Category,
		Intervention: out.Reply.Intervention,
		Mood:         out.Mood.Mood,
		StressLevel:  out.Mood.Stress,
		Alerts:       out.Alerts,
	}
}

func sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid session ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, patient.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		h.logger.Error().Err(err).Msg("request failed")
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
