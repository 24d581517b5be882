package patients

import (
	"context"
	"errors"
	"testing"
	"time"
)

type testRepo struct {
	byID map[string]Patient
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Patient{}}
}

func (r *testRepo) Create(ctx context.Context, p Patient) error {
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Patient, error) {
	p, ok := r.byID[id]
	if !ok {
		return Patient{}, ErrNotFound
	}
	return p, nil
}

func (r *testRepo) List(ctx context.Context, limit int) ([]Patient, error) {
	out := make([]Patient, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	return out, nil
}

func (r *testRepo) Update(ctx context.Context, p Patient) error {
	if _, ok := r.byID[p.ID]; !ok {
		return ErrNotFound
	}
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func TestService_Create_RequiresFullName(t *testing.T) {
	svc := NewService(newTestRepo())

	_, err := svc.Create(context.Background(), CreateInput{DocumentNumber: "123"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without name, got %v", err)
	}

	_, err = svc.Create(context.Background(), CreateInput{FullName: "   "})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput with blank name, got %v", err)
	}
}

func TestService_Create_DefaultsSexUnknown(t *testing.T) {
	svc := NewService(newTestRepo())

	p, err := svc.Create(context.Background(), CreateInput{FullName: "Ana Torres"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Sex != SexUnknown {
		t.Fatalf("expected sex unknown by default, got %q", p.Sex)
	}
	if p.ID == "" {
		t.Fatalf("expected generated id")
	}
}

func TestService_Update_PartialPatch(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	p, _ := svc.Create(context.Background(), CreateInput{
		FullName: "Ana Torres",
		Email:    "ana@example.com",
		Phone:    "555-1234",
	})

	newPhone := "555-9999"
	updated, err := svc.Update(context.Background(), p.ID, UpdateInput{Phone: &newPhone})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	// Solo cambia lo que viene; el resto queda igual.
	if updated.Phone != "555-9999" {
		t.Fatalf("expected phone updated, got %q", updated.Phone)
	}
	if updated.FullName != "Ana Torres" || updated.Email != "ana@example.com" {
		t.Fatalf("expected untouched fields preserved, got %+v", updated)
	}

	// No se puede vaciar el nombre por PATCH.
	blank := "  "
	if _, err := svc.Update(context.Background(), p.ID, UpdateInput{FullName: &blank}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput blanking name, got %v", err)
	}
}
