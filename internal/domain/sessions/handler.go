package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Teek0505/TransMedix/internal/domain/patients"
	"github.com/Teek0505/TransMedix/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// Purger borra los registros dependientes de una sesión (cascade del DELETE).
// Lo implementan los services de transcriptions y summaries.
type Purger interface {
	DeleteBySession(ctx context.Context, sessionID string) error
}

func RegisterRoutes(r chi.Router, svc *Service, patientsSvc *patients.Service, purgers ...Purger) {
	r.Route("/sessions", func(sr chi.Router) {
		sr.Post("/", createSessionHandler(svc, patientsSvc))
		sr.Get("/", listSessionsHandler(svc))
		sr.Get("/{sessionID}", getSessionHandler(svc))
		sr.Delete("/{sessionID}", deleteSessionHandler(svc, purgers))

		sr.Post("/{sessionID}/start", transitionHandler(svc.Start))
		sr.Post("/{sessionID}/end", transitionHandler(svc.End))
		sr.Post("/{sessionID}/cancel", transitionHandler(svc.Cancel))

		sr.Post("/{sessionID}/diagnoses", addDiagnosisHandler(svc))
		sr.Post("/{sessionID}/prescriptions", addPrescriptionHandler(svc))
	})
}

type createSessionRequest struct {
	PatientID      string `json:"patient_id"`
	DoctorName     string `json:"doctor_name"`
	Language       string `json:"language"`
	ChiefComplaint string `json:"chief_complaint"`
	Notes          string `json:"notes"`
}

type diagnosisResponse struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	RecordedBy  string    `json:"recorded_by"`
	RecordedAt  time.Time `json:"recorded_at"`
}

type prescriptionResponse struct {
	ID           string    `json:"id"`
	Medication   string    `json:"medication"`
	Dosage       string    `json:"dosage"`
	Frequency    string    `json:"frequency"`
	Duration     string    `json:"duration"`
	Instructions string    `json:"instructions"`
	RecordedBy   string    `json:"recorded_by"`
	RecordedAt   time.Time `json:"recorded_at"`
}

type sessionResponse struct {
	ID               string                 `json:"id"`
	PatientID        string                 `json:"patient_id"`
	DoctorUserID     string                 `json:"doctor_user_id"`
	DoctorName       string                 `json:"doctor_name"`
	Status           string                 `json:"status"`
	Language         string                 `json:"language"`
	ChiefComplaint   string                 `json:"chief_complaint"`
	Notes            string                 `json:"notes"`
	TranscriptionIDs []string               `json:"transcription_ids"`
	SummaryID        string                 `json:"summary_id,omitempty"`
	Diagnoses        []diagnosisResponse    `json:"diagnoses"`
	Prescriptions    []prescriptionResponse `json:"prescriptions"`
	StartedAt        *time.Time             `json:"started_at,omitempty"`
	EndedAt          *time.Time             `json:"ended_at,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

func createSessionHandler(svc *Service, patientsSvc *patients.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		// El paciente debe existir antes de abrir la sesión.
		if strings.TrimSpace(req.PatientID) != "" {
			if _, err := patientsSvc.GetByID(r.Context(), req.PatientID); err != nil {
				http.Error(w, "patient not found", http.StatusNotFound)
				return
			}
		}

		sess, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			PatientID:      req.PatientID,
			DoctorName:     req.DoctorName,
			Language:       req.Language,
			ChiefComplaint: req.ChiefComplaint,
			Notes:          req.Notes,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusCreated, toSessionResponse(sess))
	}
}

func listSessionsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		q := r.URL.Query()
		filter := ListFilter{
			PatientID: q.Get("patient_id"),
			Status:    Status(q.Get("status")),
		}
		if v := q.Get("limit"); v != "" {
			filter.Limit, _ = strconv.Atoi(v)
		}

		items, err := svc.List(r.Context(), filter)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]sessionResponse, 0, len(items))
		for _, sess := range items {
			out = append(out, toSessionResponse(sess))
		}

		writeJSON(w, http.StatusOK, out)
	}
}

func getSessionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		sess, err := svc.GetByID(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, toSessionResponse(sess))
	}
}

// transitionHandler cubre start/end/cancel: misma forma, distinta transición.
func transitionHandler(op func(ctx context.Context, id string) (Session, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		sess, err := op(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "session not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, toSessionResponse(sess))
	}
}

func deleteSessionHandler(svc *Service, purgers []Purger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		sessionID := chi.URLParam(r, "sessionID")
		if _, err := svc.GetByID(r.Context(), sessionID); err != nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		if err := svc.Delete(r.Context(), sessionID); err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		// Hard delete: se llevan también transcripciones y summary.
		for _, p := range purgers {
			_ = p.DeleteBySession(r.Context(), sessionID)
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

type diagnosisRequest struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func addDiagnosisHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req diagnosisRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		sess, err := svc.AddDiagnosis(r.Context(), chi.URLParam(r, "sessionID"), claims.UserID, DiagnosisInput{
			Code:        req.Code,
			Description: req.Description,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "session not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, toSessionResponse(sess))
	}
}

type prescriptionRequest struct {
	Medication   string `json:"medication"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	Duration     string `json:"duration"`
	Instructions string `json:"instructions"`
}

func addPrescriptionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req prescriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		sess, err := svc.AddPrescription(r.Context(), chi.URLParam(r, "sessionID"), claims.UserID, PrescriptionInput{
			Medication:   req.Medication,
			Dosage:       req.Dosage,
			Frequency:    req.Frequency,
			Duration:     req.Duration,
			Instructions: req.Instructions,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "session not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, toSessionResponse(sess))
	}
}

func toSessionResponse(s Session) sessionResponse {
	diags := make([]diagnosisResponse, 0, len(s.Diagnoses))
	for _, d := range s.Diagnoses {
		diags = append(diags, diagnosisResponse(d))
	}
	prescs := make([]prescriptionResponse, 0, len(s.Prescriptions))
	for _, p := range s.Prescriptions {
		prescs = append(prescs, prescriptionResponse(p))
	}

	trIDs := s.TranscriptionIDs
	if trIDs == nil {
		trIDs = []string{}
	}

	return sessionResponse{
		ID:               s.ID,
		PatientID:        s.PatientID,
		DoctorUserID:     s.DoctorUserID,
		DoctorName:       s.DoctorName,
		Status:           string(s.Status),
		Language:         s.Language,
		ChiefComplaint:   s.ChiefComplaint,
		Notes:            s.Notes,
		TranscriptionIDs: trIDs,
		SummaryID:        s.SummaryID,
		Diagnoses:        diags,
		Prescriptions:    prescs,
		StartedAt:        s.StartedAt,
		EndedAt:          s.EndedAt,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

// writeJSON está duplicado a propósito en los handlers de cada módulo
// para no crear helpers compartidos antes de tiempo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
