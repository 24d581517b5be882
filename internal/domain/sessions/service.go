package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("session not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

type Service struct {
	repo            Repository
	defaultLanguage string
	now             func() time.Time
}

func NewService(repo Repository, defaultLanguage string) *Service {
	if strings.TrimSpace(defaultLanguage) == "" {
		defaultLanguage = "en"
	}
	return &Service{
		repo:            repo,
		defaultLanguage: defaultLanguage,
		now:             time.Now,
	}
}

type CreateInput struct {
	PatientID      string
	DoctorName     string
	Language       string
	ChiefComplaint string
	Notes          string
}

func (s *Service) Create(ctx context.Context, doctorUserID string, in CreateInput) (Session, error) {
	if strings.TrimSpace(doctorUserID) == "" {
		return Session{}, ErrInvalidInput
	}
	// El nombre del doctor es obligatorio: sin él la sesión no es atribuible.
	if strings.TrimSpace(in.DoctorName) == "" {
		return Session{}, fmt.Errorf("%w: doctor name required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.PatientID) == "" {
		return Session{}, fmt.Errorf("%w: patient id required", ErrInvalidInput)
	}

	lang := strings.TrimSpace(in.Language)
	if lang == "" {
		lang = s.defaultLanguage
	}

	now := s.now()
	sess := Session{
		ID:               uuid.NewString(),
		PatientID:        strings.TrimSpace(in.PatientID),
		DoctorUserID:     strings.TrimSpace(doctorUserID),
		DoctorName:       strings.TrimSpace(in.DoctorName),
		Status:           StatusScheduled,
		Language:         lang,
		ChiefComplaint:   strings.TrimSpace(in.ChiefComplaint),
		Notes:            strings.TrimSpace(in.Notes),
		TranscriptionIDs: []string{},
		Diagnoses:        []Diagnosis{},
		Prescriptions:    []Prescription{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Create(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Session{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Session, error) {
	return s.repo.List(ctx, filter)
}

// Start pasa scheduled -> in_progress.
func (s *Service) Start(ctx context.Context, id string) (Session, error) {
	sess, err := s.GetByID(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if sess.Status != StatusScheduled {
		return Session{}, fmt.Errorf("%w: cannot start a %s session", ErrInvalidTransition, sess.Status)
	}

	now := s.now()
	sess.Status = StatusInProgress
	sess.StartedAt = &now
	sess.UpdatedAt = now

	if err := s.repo.Update(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// End pasa in_progress -> completed. Terminar una sesión ya
// completada es un error del cliente.
func (s *Service) End(ctx context.Context, id string) (Session, error) {
	sess, err := s.GetByID(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if sess.Status != StatusInProgress {
		return Session{}, fmt.Errorf("%w: cannot end a %s session", ErrInvalidTransition, sess.Status)
	}

	now := s.now()
	sess.Status = StatusCompleted
	sess.EndedAt = &now
	sess.UpdatedAt = now

	if err := s.repo.Update(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Cancel es el soft delete: la sesión queda en el historial como cancelled.
func (s *Service) Cancel(ctx context.Context, id string) (Session, error) {
	sess, err := s.GetByID(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if sess.Status == StatusCompleted || sess.Status == StatusCancelled {
		return Session{}, fmt.Errorf("%w: cannot cancel a %s session", ErrInvalidTransition, sess.Status)
	}

	sess.Status = StatusCancelled
	sess.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}
	return s.repo.Delete(ctx, id)
}

type DiagnosisInput struct {
	Code        string
	Description string
}

func (s *Service) AddDiagnosis(ctx context.Context, sessionID, recordedBy string, in DiagnosisInput) (Session, error) {
	if strings.TrimSpace(in.Description) == "" {
		return Session{}, fmt.Errorf("%w: description required", ErrInvalidInput)
	}

	sess, err := s.GetByID(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}

	sess.Diagnoses = append(sess.Diagnoses, Diagnosis{
		ID:          uuid.NewString(),
		Code:        strings.TrimSpace(in.Code),
		Description: strings.TrimSpace(in.Description),
		RecordedBy:  strings.TrimSpace(recordedBy),
		RecordedAt:  s.now(),
	})
	sess.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

type PrescriptionInput struct {
	Medication   string
	Dosage       string
	Frequency    string
	Duration     string
	Instructions string
}

func (s *Service) AddPrescription(ctx context.Context, sessionID, recordedBy string, in PrescriptionInput) (Session, error) {
	if strings.TrimSpace(in.Medication) == "" {
		return Session{}, fmt.Errorf("%w: medication required", ErrInvalidInput)
	}

	sess, err := s.GetByID(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}

	sess.Prescriptions = append(sess.Prescriptions, Prescription{
		ID:           uuid.NewString(),
		Medication:   strings.TrimSpace(in.Medication),
		Dosage:       strings.TrimSpace(in.Dosage),
		Frequency:    strings.TrimSpace(in.Frequency),
		Duration:     strings.TrimSpace(in.Duration),
		Instructions: strings.TrimSpace(in.Instructions),
		RecordedBy:   strings.TrimSpace(recordedBy),
		RecordedAt:   s.now(),
	})
	sess.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// AttachTranscription agrega la referencia a una transcripción creada.
func (s *Service) AttachTranscription(ctx context.Context, sessionID, transcriptionID string) error {
	sess, err := s.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}

	for _, id := range sess.TranscriptionIDs {
		if id == transcriptionID {
			return nil
		}
	}

	sess.TranscriptionIDs = append(sess.TranscriptionIDs, transcriptionID)
	sess.UpdatedAt = s.now()
	return s.repo.Update(ctx, sess)
}

// SetSummary guarda la referencia al summary de la sesión.
func (s *Service) SetSummary(ctx context.Context, sessionID, summaryID string) error {
	sess, err := s.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}

	sess.SummaryID = summaryID
	sess.UpdatedAt = s.now()
	return s.repo.Update(ctx, sess)
}
