package transcriptions

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Teek0505/TransMedix/internal/domain/sessions"
	"github.com/Teek0505/TransMedix/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, sessionsSvc *sessions.Service, maxUploadBytes int64) {
	r.Post("/sessions/{sessionID}/transcriptions", uploadHandler(svc, sessionsSvc, maxUploadBytes))
	r.Get("/sessions/{sessionID}/transcriptions", listBySessionHandler(svc, sessionsSvc))

	r.Route("/transcriptions", func(tr chi.Router) {
		tr.Get("/{transcriptionID}", getHandler(svc))
		tr.Patch("/{transcriptionID}", editHandler(svc))
		tr.Delete("/{transcriptionID}", deleteHandler(svc))
	})
}

type segmentResponse struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
}

type editResponse struct {
	PreviousText string    `json:"previous_text"`
	EditedBy     string    `json:"edited_by"`
	EditedAt     time.Time `json:"edited_at"`
}

type transcriptionResponse struct {
	ID          string            `json:"id"`
	SessionID   string            `json:"session_id"`
	Filename    string            `json:"filename"`
	MimeType    string            `json:"mime_type"`
	SizeBytes   int64             `json:"size_bytes"`
	Language    string            `json:"language"`
	Status      string            `json:"status"`
	Text        string            `json:"text"`
	Confidence  float64           `json:"confidence"`
	Segments    []segmentResponse `json:"segments"`
	Edits       []editResponse    `json:"edits"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

func uploadHandler(svc *Service, sessionsSvc *sessions.Service, maxUploadBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		sessionID := chi.URLParam(r, "sessionID")
		sess, err := sessionsSvc.GetByID(r.Context(), sessionID)
		if err != nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		if sess.Status == sessions.StatusCompleted || sess.Status == sessions.StatusCancelled {
			http.Error(w, "session is closed", http.StatusBadRequest)
			return
		}

		if maxUploadBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		}
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			http.Error(w, "invalid multipart upload", http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("audio")
		if err != nil {
			http.Error(w, "audio file required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		mime := header.Header.Get("Content-Type")
		if !IsAudioMime(mime) {
			http.Error(w, "file must be audio", http.StatusBadRequest)
			return
		}

		audio, err := io.ReadAll(file)
		if err != nil {
			http.Error(w, "failed to read upload", http.StatusBadRequest)
			return
		}

		lang := r.FormValue("language")
		if strings.TrimSpace(lang) == "" {
			lang = sess.Language
		}

		tr, err := svc.Upload(r.Context(), UploadInput{
			SessionID: sessionID,
			Language:  lang,
			Filename:  header.Filename,
			MimeType:  mime,
			Audio:     audio,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		if err := sessionsSvc.AttachTranscription(r.Context(), sessionID, tr.ID); err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		// 202: el texto llega después por WebSocket.
		writeJSON(w, http.StatusAccepted, map[string]string{
			"id":     tr.ID,
			"status": string(tr.Status),
		})
	}
}

func listBySessionHandler(svc *Service, sessionsSvc *sessions.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		sessionID := chi.URLParam(r, "sessionID")
		if _, err := sessionsSvc.GetByID(r.Context(), sessionID); err != nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		items, err := svc.ListBySession(r.Context(), sessionID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]transcriptionResponse, 0, len(items))
		for _, tr := range items {
			out = append(out, toTranscriptionResponse(tr))
		}

		writeJSON(w, http.StatusOK, out)
	}
}

func getHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		tr, err := svc.GetByID(r.Context(), chi.URLParam(r, "transcriptionID"))
		if err != nil {
			http.Error(w, "transcription not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, toTranscriptionResponse(tr))
	}
}

type editRequest struct {
	Text string `json:"text"`
}

func editHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req editRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		tr, err := svc.EditText(r.Context(), chi.URLParam(r, "transcriptionID"), claims.UserID, req.Text)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "transcription not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, toTranscriptionResponse(tr))
	}
}

func deleteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Delete(r.Context(), chi.URLParam(r, "transcriptionID")); err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				http.Error(w, "transcription not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func toTranscriptionResponse(t Transcription) transcriptionResponse {
	segs := make([]segmentResponse, 0, len(t.Segments))
	for _, sg := range t.Segments {
		segs = append(segs, segmentResponse(sg))
	}
	edits := make([]editResponse, 0, len(t.Edits))
	for _, e := range t.Edits {
		edits = append(edits, editResponse(e))
	}

	return transcriptionResponse{
		ID:          t.ID,
		SessionID:   t.SessionID,
		Filename:    t.Audio.Filename,
		MimeType:    t.Audio.MimeType,
		SizeBytes:   t.Audio.SizeBytes,
		Language:    t.Language,
		Status:      string(t.Status),
		Text:        t.Text,
		Confidence:  t.Confidence,
		Segments:    segs,
		Edits:       edits,
		Error:       t.Error,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		CompletedAt: t.CompletedAt,
	}
}

// writeJSON está duplicado a propósito en los handlers de cada módulo
// para no crear helpers compartidos antes de tiempo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
