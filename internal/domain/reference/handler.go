package reference

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Las búsquedas de catálogo son públicas dentro del app: no exigen claims.

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/conditions", searchConditionsHandler(svc))
	r.Get("/symptoms", searchSymptomsHandler(svc))
}

type conditionResponse struct {
	ID          string   `json:"id"`
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Synonyms    []string `json:"synonyms"`
}

type symptomResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

func searchConditionsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		items, err := svc.SearchConditions(r.Context(), q, limit)
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, "query parameter q is required", http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]conditionResponse, 0, len(items))
		for _, c := range items {
			syn := c.Synonyms
			if syn == nil {
				syn = []string{}
			}
			out = append(out, conditionResponse{
				ID:          c.ID,
				Code:        c.Code,
				Name:        c.Name,
				Description: c.Description,
				Synonyms:    syn,
			})
		}

		writeJSON(w, http.StatusOK, out)
	}
}

func searchSymptomsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		items, err := svc.SearchSymptoms(r.Context(), q, limit)
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, "query parameter q is required", http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]symptomResponse, 0, len(items))
		for _, s := range items {
			out = append(out, symptomResponse(s))
		}

		writeJSON(w, http.StatusOK, out)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
