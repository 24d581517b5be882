package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/Teek0505/TransMedix/internal/domain/reference"
)

type referenceRepo struct {
	mu         sync.RWMutex
	conditions []reference.Condition
	symptoms   []reference.Symptom
}

func NewReferenceRepo() reference.Repository {
	return &referenceRepo{}
}

func (r *referenceRepo) SearchConditions(ctx context.Context, query string, limit int) ([]reference.Condition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(query)
	out := make([]reference.Condition, 0)

	for _, c := range r.conditions {
		hay := strings.ToLower(c.Code + " " + c.Name + " " + c.Description + " " + strings.Join(c.Synonyms, " "))
		if strings.Contains(hay, q) {
			out = append(out, c)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (r *referenceRepo) SearchSymptoms(ctx context.Context, query string, limit int) ([]reference.Symptom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(query)
	out := make([]reference.Symptom, 0)

	for _, s := range r.symptoms {
		hay := strings.ToLower(s.Name + " " + s.Category + " " + s.Description)
		if strings.Contains(hay, q) {
			out = append(out, s)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (r *referenceRepo) SeedIfEmpty(ctx context.Context, conditions []reference.Condition, symptoms []reference.Symptom) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.conditions) == 0 {
		r.conditions = conditions
	}
	if len(r.symptoms) == 0 {
		r.symptoms = symptoms
	}
	return nil
}
