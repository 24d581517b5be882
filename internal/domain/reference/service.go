package reference

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

// Cache es un get/set/expire plano (redis). nil degrada a sin cache.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

const (
	searchCacheTTL = 10 * time.Minute
	defaultLimit   = 20
	maxLimit       = 100
)

type Service struct {
	repo  Repository
	cache Cache
}

func NewService(repo Repository, cache Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// SeedIfEmpty carga el catálogo embebido en el primer arranque.
func (s *Service) SeedIfEmpty(ctx context.Context) error {
	return s.repo.SeedIfEmpty(ctx, SeedConditions(), SeedSymptoms())
}

func (s *Service) SearchConditions(ctx context.Context, query string, limit int) ([]Condition, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrInvalidInput
	}
	limit = clampLimit(limit)

	key := "ref:cond:" + strings.ToLower(query)
	if cached, ok := cacheGet[[]Condition](ctx, s.cache, key); ok {
		return cached, nil
	}

	out, err := s.repo.SearchConditions(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	cacheSet(ctx, s.cache, key, out)
	return out, nil
}

func (s *Service) SearchSymptoms(ctx context.Context, query string, limit int) ([]Symptom, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrInvalidInput
	}
	limit = clampLimit(limit)

	key := "ref:symp:" + strings.ToLower(query)
	if cached, ok := cacheGet[[]Symptom](ctx, s.cache, key); ok {
		return cached, nil
	}

	out, err := s.repo.SearchSymptoms(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	cacheSet(ctx, s.cache, key, out)
	return out, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// El cache es best-effort: cualquier error se ignora y se va al repo.
func cacheGet[T any](ctx context.Context, c Cache, key string) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	raw, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return zero, false
	}
	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return zero, false
	}
	return out, true
}

func cacheSet[T any](ctx context.Context, c Cache, key string, v T) {
	if c == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.Set(ctx, key, string(b), searchCacheTTL)
}
