package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Store envuelve go-redis con las dos operaciones que usa el dominio:
// cache get/set con TTL y locks SETNX para deduplicar trabajos.
// Con client nil opera en modo degradado: el cache siempre falla
// (miss) y los locks siempre se conceden.
type Store struct {
	client *goredis.Client
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

// Open conecta y hace ping. Addr vacío devuelve un Store degradado sin error.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		return &Store{}, nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Store{client: client}, nil
}

func (s *Store) Enabled() bool {
	return s != nil && s.client != nil
}

func (s *Store) Close() error {
	if !s.Enabled() {
		return nil
	}
	return s.client.Close()
}

// Get implementa el cache de lecturas. (value, found, error).
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if !s.Enabled() {
		return "", false, nil
	}
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Acquire toma un lock con SETNX. true si lo obtuvo.
// Sin redis configurado siempre concede; la dedupe pasa a best-effort.
func (s *Store) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if !s.Enabled() {
		return true, nil
	}
	return s.client.SetNX(ctx, key, "1", ttl).Result()
}

func (s *Store) Release(ctx context.Context, key string) error {
	if !s.Enabled() {
		return nil
	}
	return s.client.Del(ctx, key).Err()
}
