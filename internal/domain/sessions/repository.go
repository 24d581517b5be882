package sessions

import "context"

type Repository interface {
	Create(ctx context.Context, s Session) error
	GetByID(ctx context.Context, id string) (Session, error)
	List(ctx context.Context, filter ListFilter) ([]Session, error)
	// Update reemplaza el documento completo (escritura single-document).
	Update(ctx context.Context, s Session) error
	Delete(ctx context.Context, id string) error
}
