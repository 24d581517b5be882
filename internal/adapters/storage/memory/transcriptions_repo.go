package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Teek0505/TransMedix/internal/domain/transcriptions"
)

type transcriptionRepo struct {
	mu   sync.RWMutex
	byID map[string]transcriptions.Transcription
}

func NewTranscriptionRepo() transcriptions.Repository {
	return &transcriptionRepo{
		byID: make(map[string]transcriptions.Transcription),
	}
}

func (r *transcriptionRepo) Create(ctx context.Context, t transcriptions.Transcription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t.ID == "" {
		return transcriptions.ErrInvalidInput
	}
	r.byID[t.ID] = t
	return nil
}

func (r *transcriptionRepo) GetByID(ctx context.Context, id string) (transcriptions.Transcription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byID[id]
	if !ok {
		return transcriptions.Transcription{}, transcriptions.ErrNotFound
	}
	return t, nil
}

func (r *transcriptionRepo) ListBySession(ctx context.Context, sessionID string) ([]transcriptions.Transcription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]transcriptions.Transcription, 0)
	for _, t := range r.byID {
		if t.SessionID == sessionID {
			out = append(out, t)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *transcriptionRepo) Update(ctx context.Context, t transcriptions.Transcription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[t.ID]; !ok {
		return transcriptions.ErrNotFound
	}
	r.byID[t.ID] = t
	return nil
}

func (r *transcriptionRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return transcriptions.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *transcriptionRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, t := range r.byID {
		if t.SessionID == sessionID {
			delete(r.byID, id)
		}
	}
	return nil
}
