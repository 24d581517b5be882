package memory

import (
	"context"
	"sync"

	"github.com/Teek0505/TransMedix/internal/domain/summaries"
)

type summaryRepo struct {
	mu        sync.RWMutex
	byID      map[string]summaries.Summary
	bySession map[string]string // sessionID -> summaryID (uno por sesión)
}

func NewSummaryRepo() summaries.Repository {
	return &summaryRepo{
		byID:      make(map[string]summaries.Summary),
		bySession: make(map[string]string),
	}
}

func (r *summaryRepo) Create(ctx context.Context, s summaries.Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.ID == "" {
		return summaries.ErrInvalidInput
	}
	r.byID[s.ID] = s
	r.bySession[s.SessionID] = s.ID
	return nil
}

func (r *summaryRepo) GetByID(ctx context.Context, id string) (summaries.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return summaries.Summary{}, summaries.ErrNotFound
	}
	return s, nil
}

func (r *summaryRepo) GetBySession(ctx context.Context, sessionID string) (summaries.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.bySession[sessionID]
	if !ok {
		return summaries.Summary{}, summaries.ErrNotFound
	}
	s, ok := r.byID[id]
	if !ok {
		return summaries.Summary{}, summaries.ErrNotFound
	}
	return s, nil
}

func (r *summaryRepo) Update(ctx context.Context, s summaries.Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[s.ID]; !ok {
		return summaries.ErrNotFound
	}
	r.byID[s.ID] = s
	return nil
}

func (r *summaryRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.bySession[sessionID]
	if !ok {
		return nil
	}
	delete(r.byID, id)
	delete(r.bySession, sessionID)
	return nil
}
