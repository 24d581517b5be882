package sessions

import (
	"context"
	"errors"
	"testing"
	"time"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID map[string]Session
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Session{}}
}

func (r *testRepo) Create(ctx context.Context, s Session) error {
	if s.ID == "" {
		return errors.New("repo: id required")
	}
	r.byID[s.ID] = s
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Session, error) {
	s, ok := r.byID[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return s, nil
}

func (r *testRepo) List(ctx context.Context, filter ListFilter) ([]Session, error) {
	out := make([]Session, 0)
	for _, s := range r.byID {
		if filter.PatientID != "" && s.PatientID != filter.PatientID {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *testRepo) Update(ctx context.Context, s Session) error {
	if _, ok := r.byID[s.ID]; !ok {
		return ErrNotFound
	}
	r.byID[s.ID] = s
	return nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

// -------------------------
// Tests
// -------------------------

func newTestService(repo *testRepo) *Service {
	svc := NewService(repo, "es")
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc
}

func TestService_Create_RequiresDoctorName(t *testing.T) {
	svc := newTestService(newTestRepo())

	_, err := svc.Create(context.Background(), "doc-1", CreateInput{
		PatientID: "pat-1",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without doctor name, got %v", err)
	}

	_, err = svc.Create(context.Background(), "doc-1", CreateInput{
		DoctorName: "Dr. Perez",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without patient id, got %v", err)
	}
}

func TestService_Create_DefaultsLanguage(t *testing.T) {
	svc := newTestService(newTestRepo())

	sess, err := svc.Create(context.Background(), "doc-1", CreateInput{
		PatientID:  "pat-1",
		DoctorName: "Dr. Perez",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sess.Status != StatusScheduled {
		t.Fatalf("expected scheduled, got %s", sess.Status)
	}
	if sess.Language != "es" {
		t.Fatalf("expected default language es, got %q", sess.Language)
	}

	sess2, err := svc.Create(context.Background(), "doc-1", CreateInput{
		PatientID:  "pat-1",
		DoctorName: "Dr. Perez",
		Language:   "pt",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sess2.Language != "pt" {
		t.Fatalf("expected explicit language pt, got %q", sess2.Language)
	}
}

func TestService_Transitions(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	sess, err := svc.Create(ctx, "doc-1", CreateInput{PatientID: "pat-1", DoctorName: "Dr. Perez"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// end antes de start => invalid transition
	if _, err := svc.End(ctx, sess.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition ending scheduled, got %v", err)
	}

	started, err := svc.Start(ctx, sess.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Status != StatusInProgress || started.StartedAt == nil {
		t.Fatalf("expected in_progress with started_at, got %+v", started)
	}

	// start dos veces => invalid transition
	if _, err := svc.Start(ctx, sess.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition starting twice, got %v", err)
	}

	ended, err := svc.End(ctx, sess.ID)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if ended.Status != StatusCompleted || ended.EndedAt == nil {
		t.Fatalf("expected completed with ended_at, got %+v", ended)
	}

	// end de una completed => invalid transition
	if _, err := svc.End(ctx, sess.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition ending completed, got %v", err)
	}

	// cancel de una completed tampoco procede
	if _, err := svc.Cancel(ctx, sess.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition cancelling completed, got %v", err)
	}
}

func TestService_Cancel_IsSoftDelete(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	sess, _ := svc.Create(ctx, "doc-1", CreateInput{PatientID: "pat-1", DoctorName: "Dr. Perez"})

	cancelled, err := svc.Cancel(ctx, sess.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	// Sigue en el historial.
	if _, err := svc.GetByID(ctx, sess.ID); err != nil {
		t.Fatalf("expected cancelled session still readable, got %v", err)
	}
}

func TestService_AttachTranscription_Idempotent(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	sess, _ := svc.Create(ctx, "doc-1", CreateInput{PatientID: "pat-1", DoctorName: "Dr. Perez"})

	if err := svc.AttachTranscription(ctx, sess.ID, "tr-1"); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := svc.AttachTranscription(ctx, sess.ID, "tr-1"); err != nil {
		t.Fatalf("attach twice: %v", err)
	}

	got, _ := svc.GetByID(ctx, sess.ID)
	if len(got.TranscriptionIDs) != 1 {
		t.Fatalf("expected one transcription id, got %v", got.TranscriptionIDs)
	}
}

func TestService_AddDiagnosisAndPrescription(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	sess, _ := svc.Create(ctx, "doc-1", CreateInput{PatientID: "pat-1", DoctorName: "Dr. Perez"})

	if _, err := svc.AddDiagnosis(ctx, sess.ID, "doc-1", DiagnosisInput{Code: "J45"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without description, got %v", err)
	}

	withDiag, err := svc.AddDiagnosis(ctx, sess.ID, "doc-1", DiagnosisInput{
		Code:        "J45",
		Description: "Asthma exacerbation",
	})
	if err != nil {
		t.Fatalf("add diagnosis: %v", err)
	}
	if len(withDiag.Diagnoses) != 1 || withDiag.Diagnoses[0].RecordedBy != "doc-1" {
		t.Fatalf("unexpected diagnoses %+v", withDiag.Diagnoses)
	}

	if _, err := svc.AddPrescription(ctx, sess.ID, "doc-1", PrescriptionInput{Dosage: "10mg"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without medication, got %v", err)
	}

	withRx, err := svc.AddPrescription(ctx, sess.ID, "doc-1", PrescriptionInput{
		Medication: "Salbutamol",
		Dosage:     "2 puffs",
		Frequency:  "every 6h",
	})
	if err != nil {
		t.Fatalf("add prescription: %v", err)
	}
	if len(withRx.Prescriptions) != 1 || withRx.Prescriptions[0].Medication != "Salbutamol" {
		t.Fatalf("unexpected prescriptions %+v", withRx.Prescriptions)
	}
}
