package patients

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("patient not found")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	FullName       string
	DocumentNumber string
	Sex            string
	BirthDate      *time.Time
	Email          string
	Phone          string
	Notes          string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Patient, error) {
	if strings.TrimSpace(in.FullName) == "" {
		return Patient{}, ErrInvalidInput
	}

	sex := Sex(strings.TrimSpace(in.Sex))
	if sex == "" {
		sex = SexUnknown
	}

	now := s.now()
	p := Patient{
		ID:             uuid.NewString(),
		FullName:       strings.TrimSpace(in.FullName),
		DocumentNumber: strings.TrimSpace(in.DocumentNumber),
		Sex:            sex,
		BirthDate:      in.BirthDate,
		Email:          strings.TrimSpace(in.Email),
		Phone:          strings.TrimSpace(in.Phone),
		Notes:          strings.TrimSpace(in.Notes),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Patient{}, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Patient, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Patient{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit int) ([]Patient, error) {
	return s.repo.List(ctx, limit)
}

type UpdateInput struct {
	// Punteros para PATCH real: nil = no tocar.
	FullName       *string
	DocumentNumber *string
	Sex            *string
	Email          *string
	Phone          *string
	Notes          *string
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Patient, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return Patient{}, err
	}

	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return Patient{}, ErrInvalidInput
		}
		current.FullName = name
	}
	if in.DocumentNumber != nil {
		current.DocumentNumber = strings.TrimSpace(*in.DocumentNumber)
	}
	if in.Sex != nil {
		current.Sex = Sex(strings.TrimSpace(*in.Sex))
	}
	if in.Email != nil {
		current.Email = strings.TrimSpace(*in.Email)
	}
	if in.Phone != nil {
		current.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Notes != nil {
		current.Notes = strings.TrimSpace(*in.Notes)
	}

	current.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, current); err != nil {
		return Patient{}, err
	}
	return current, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}
	return s.repo.Delete(ctx, id)
}
