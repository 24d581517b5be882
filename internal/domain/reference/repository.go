package reference

import "context"

type Repository interface {
	SearchConditions(ctx context.Context, query string, limit int) ([]Condition, error)
	SearchSymptoms(ctx context.Context, query string, limit int) ([]Symptom, error)

	// SeedIfEmpty carga el catálogo inicial solo si las colecciones
	// están vacías (idempotente en startup).
	SeedIfEmpty(ctx context.Context, conditions []Condition, symptoms []Symptom) error
}
