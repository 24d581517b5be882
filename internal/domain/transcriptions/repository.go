package transcriptions

import "context"

type Repository interface {
	Create(ctx context.Context, t Transcription) error
	GetByID(ctx context.Context, id string) (Transcription, error)
	ListBySession(ctx context.Context, sessionID string) ([]Transcription, error)
	Update(ctx context.Context, t Transcription) error
	Delete(ctx context.Context, id string) error
	DeleteBySession(ctx context.Context, sessionID string) error
}
