package summaries

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Teek0505/TransMedix/internal/domain/sessions"
	"github.com/Teek0505/TransMedix/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, sessionsSvc *sessions.Service) {
	r.Post("/sessions/{sessionID}/summary", generateHandler(svc, sessionsSvc))
	r.Get("/sessions/{sessionID}/summary", getBySessionHandler(svc, sessionsSvc))
	r.Post("/sessions/{sessionID}/questions", questionsHandler(svc, sessionsSvc))
}

type sectionsResponse struct {
	ChiefComplaint string `json:"chief_complaint"`
	History        string `json:"history"`
	Assessment     string `json:"assessment"`
	Plan           string `json:"plan"`
}

type entitiesResponse struct {
	Symptoms    []string `json:"symptoms"`
	Conditions  []string `json:"conditions"`
	Medications []string `json:"medications"`
}

type versionResponse struct {
	Version   int              `json:"version"`
	Sections  sectionsResponse `json:"sections"`
	Entities  entitiesResponse `json:"entities"`
	RawText   string           `json:"raw_text"`
	CreatedAt time.Time        `json:"created_at"`
}

type summaryResponse struct {
	ID                 string            `json:"id"`
	SessionID          string            `json:"session_id"`
	Status             string            `json:"status"`
	Sections           sectionsResponse  `json:"sections"`
	Entities           entitiesResponse  `json:"entities"`
	ReflexiveQuestions []string          `json:"reflexive_questions"`
	RawText            string            `json:"raw_text,omitempty"`
	Model              string            `json:"model,omitempty"`
	ProcessingMs       int64             `json:"processing_ms,omitempty"`
	Version            int               `json:"version"`
	Versions           []versionResponse `json:"versions"`
	Error              string            `json:"error,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

func generateHandler(svc *Service, sessionsSvc *sessions.Service) http.HandlerFunc {
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

		regenerate := strings.EqualFold(r.URL.Query().Get("regenerate"), "true")

		sum, created, err := svc.Generate(r.Context(), sessionID, regenerate)
		if err != nil {
			switch {
			case errors.Is(err, ErrNoTranscript):
				http.Error(w, "session has no transcribed text", http.StatusBadRequest)
			case errors.Is(err, ErrInProgress):
				http.Error(w, "summary generation already in progress", http.StatusConflict)
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		// La referencia queda en la sesión desde la primera generación.
		_ = sessionsSvc.SetSummary(r.Context(), sessionID, sum.ID)

		if !created {
			// Ya había un summary y no pidieron regenerar.
			writeJSON(w, http.StatusOK, map[string]string{
				"id":     sum.ID,
				"status": string(sum.Status),
			})
			return
		}

		writeJSON(w, http.StatusAccepted, map[string]string{
			"id":     sum.ID,
			"status": string(sum.Status),
		})
	}
}

func getBySessionHandler(svc *Service, sessionsSvc *sessions.Service) http.HandlerFunc {
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

		sum, err := svc.GetBySession(r.Context(), sessionID)
		if err != nil {
			http.Error(w, "summary not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, toSummaryResponse(sum))
	}
}

func questionsHandler(svc *Service, sessionsSvc *sessions.Service) http.HandlerFunc {
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

		sum, err := svc.GenerateQuestions(r.Context(), sessionID)
		if err != nil {
			switch {
			case errors.Is(err, ErrNoTranscript):
				http.Error(w, "session has no transcribed text", http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "generate a summary first", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusAccepted, map[string]string{
			"summary_id": sum.ID,
			"status":     "processing",
		})
	}
}

func toSummaryResponse(s Summary) summaryResponse {
	versions := make([]versionResponse, 0, len(s.Versions))
	for _, v := range s.Versions {
		versions = append(versions, versionResponse{
			Version:   v.Version,
			Sections:  sectionsResponse(v.Sections),
			Entities:  toEntitiesResponse(v.Entities),
			RawText:   v.RawText,
			CreatedAt: v.CreatedAt,
		})
	}

	questions := s.ReflexiveQuestions
	if questions == nil {
		questions = []string{}
	}

	return summaryResponse{
		ID:                 s.ID,
		SessionID:          s.SessionID,
		Status:             string(s.Status),
		Sections:           sectionsResponse(s.Sections),
		Entities:           toEntitiesResponse(s.Entities),
		ReflexiveQuestions: questions,
		RawText:            s.RawText,
		Model:              s.Model,
		ProcessingMs:       s.ProcessingMs,
		Version:            s.Version,
		Versions:           versions,
		Error:              s.Error,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

func toEntitiesResponse(e Entities) entitiesResponse {
	out := entitiesResponse{
		Symptoms:    e.Symptoms,
		Conditions:  e.Conditions,
		Medications: e.Medications,
	}
	if out.Symptoms == nil {
		out.Symptoms = []string{}
	}
	if out.Conditions == nil {
		out.Conditions = []string{}
	}
	if out.Medications == nil {
		out.Medications = []string{}
	}
	return out
}

// writeJSON está duplicado a propósito en los handlers de cada módulo
// para no crear helpers compartidos antes de tiempo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
