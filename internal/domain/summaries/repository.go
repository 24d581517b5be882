package summaries

import "context"

type Repository interface {
	Create(ctx context.Context, s Summary) error
	GetByID(ctx context.Context, id string) (Summary, error)
	GetBySession(ctx context.Context, sessionID string) (Summary, error)
	Update(ctx context.Context, s Summary) error
	DeleteBySession(ctx context.Context, sessionID string) error
}
