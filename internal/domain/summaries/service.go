package summaries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Teek0505/TransMedix/internal/platform/logger"
	"github.com/Teek0505/TransMedix/internal/ports/nlg"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("summary not found")
	ErrNoTranscript = errors.New("session has no transcribed text")
	ErrInProgress   = errors.New("summary generation already in progress")
)

// TranscriptSource entrega el texto consolidado de una sesión.
// Lo implementa transcriptions.Service.
type TranscriptSource interface {
	TextForSession(ctx context.Context, sessionID string) (string, error)
}

// Notifier publica eventos al room WebSocket de la sesión.
type Notifier interface {
	Publish(sessionID, event string, payload any)
}

// Locker evita generaciones concurrentes para la misma sesión.
// Lo implementa el cache redis; nil degrada a no-op (modo dev).
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

const genLockTTL = 2 * time.Minute

type Service struct {
	repo        Repository
	transcripts TranscriptSource
	gen         nlg.Generator
	notifier    Notifier
	locker      Locker
	log         logger.Logger
	now         func() time.Time

	wg sync.WaitGroup
}

func NewService(
	repo Repository,
	transcripts TranscriptSource,
	gen nlg.Generator,
	notifier Notifier,
	locker Locker,
	log logger.Logger,
) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:        repo,
		transcripts: transcripts,
		gen:         gen,
		notifier:    notifier,
		locker:      locker,
		log:         log,
		now:         time.Now,
	}
}

// Generate arranca la generación del summary en background.
// Si ya existe uno y regenerate es false, devuelve el existente sin
// generar de nuevo (created=false).
func (s *Service) Generate(ctx context.Context, sessionID string, regenerate bool) (Summary, bool, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return Summary{}, false, ErrInvalidInput
	}

	existing, err := s.repo.GetBySession(ctx, sessionID)
	found := err == nil
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Summary{}, false, err
	}

	if found && !regenerate {
		return existing, false, nil
	}

	text, err := s.transcripts.TextForSession(ctx, sessionID)
	if err != nil {
		return Summary{}, false, ErrNoTranscript
	}

	if ok, err := s.acquireLock(ctx, sessionID); err != nil {
		return Summary{}, false, err
	} else if !ok {
		if found {
			return existing, false, nil
		}
		return Summary{}, false, ErrInProgress
	}

	now := s.now()

	var sum Summary
	if found {
		// regenerate: el contenido actual pasa al historial de versiones
		if existing.Status == StatusCompleted {
			existing.Versions = append(existing.Versions, Version{
				Version:   existing.Version,
				Sections:  existing.Sections,
				Entities:  existing.Entities,
				RawText:   existing.RawText,
				CreatedAt: existing.UpdatedAt,
			})
		}
		existing.Version++
		existing.Status = StatusProcessing
		existing.Sections = Sections{}
		existing.Entities = Entities{}
		existing.RawText = ""
		existing.Error = ""
		existing.UpdatedAt = now

		if err := s.repo.Update(ctx, existing); err != nil {
			s.releaseLock(sessionID)
			return Summary{}, false, err
		}
		sum = existing
	} else {
		sum = Summary{
			ID:                 uuid.NewString(),
			SessionID:          sessionID,
			Status:             StatusProcessing,
			ReflexiveQuestions: []string{},
			Version:            1,
			Versions:           []Version{},
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := s.repo.Create(ctx, sum); err != nil {
			s.releaseLock(sessionID)
			return Summary{}, false, err
		}
	}

	s.wg.Add(1)
	go s.process(sum, text)

	return sum, true, nil
}

// modelPayload es el JSON que se espera embebido en la respuesta del modelo.
type modelPayload struct {
	ChiefComplaint string   `json:"chief_complaint"`
	History        string   `json:"history"`
	Assessment     string   `json:"assessment"`
	Plan           string   `json:"plan"`
	Symptoms       []string `json:"symptoms"`
	Conditions     []string `json:"conditions"`
	Medications    []string `json:"medications"`
}

func (s *Service) process(sum Summary, text string) {
	defer s.wg.Done()
	defer s.releaseLock(sum.SessionID)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	start := s.now()
	raw, err := s.gen.Generate(ctx, fmt.Sprintf(summaryPrompt, text))
	if err != nil {
		s.fail(ctx, sum, err)
		return
	}

	sum.RawText = raw
	sum.Model = s.gen.Model()
	sum.ProcessingMs = s.now().Sub(start).Milliseconds()

	// Extracción best-effort: si no hay JSON parseable, se conserva el
	// texto crudo y las secciones quedan vacías. No es un fallo.
	if payload, ok := ExtractJSON(raw); ok {
		var mp modelPayload
		if err := json.Unmarshal(payload, &mp); err == nil {
			sum.Sections = Sections{
				ChiefComplaint: strings.TrimSpace(mp.ChiefComplaint),
				History:        strings.TrimSpace(mp.History),
				Assessment:     strings.TrimSpace(mp.Assessment),
				Plan:           strings.TrimSpace(mp.Plan),
			}
			sum.Entities = Entities{
				Symptoms:    cleanList(mp.Symptoms),
				Conditions:  cleanList(mp.Conditions),
				Medications: cleanList(mp.Medications),
			}
		}
	} else {
		s.log.Warn("summary response had no parseable json", map[string]any{
			"summary_id": sum.ID, "session_id": sum.SessionID,
		})
	}

	now := s.now()
	sum.Status = StatusCompleted
	sum.UpdatedAt = now

	if err := s.repo.Update(ctx, sum); err != nil {
		s.log.Error("store summary result", map[string]any{
			"summary_id": sum.ID, "err": logger.Err(err),
		})
		return
	}

	s.log.Info("summary completed", map[string]any{
		"summary_id": sum.ID, "session_id": sum.SessionID,
		"version": sum.Version, "processing_ms": sum.ProcessingMs,
	})
	s.publish(sum.SessionID, "summary:completed", map[string]any{
		"summary_id": sum.ID,
		"version":    sum.Version,
	})
}

func (s *Service) fail(ctx context.Context, sum Summary, cause error) {
	sum.Status = StatusFailed
	sum.Error = cause.Error()
	sum.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, sum); err != nil {
		s.log.Error("store summary failure", map[string]any{
			"summary_id": sum.ID, "err": logger.Err(err),
		})
	}

	s.log.Warn("summary failed", map[string]any{
		"summary_id": sum.ID, "session_id": sum.SessionID, "err": logger.Err(cause),
	})
	s.publish(sum.SessionID, "summary:failed", map[string]any{
		"summary_id": sum.ID,
		"error":      sum.Error,
	})
}

// GenerateQuestions produce las preguntas reflexivas para el doctor y las
// guarda en el summary existente de la sesión.
func (s *Service) GenerateQuestions(ctx context.Context, sessionID string) (Summary, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return Summary{}, ErrInvalidInput
	}

	sum, err := s.repo.GetBySession(ctx, sessionID)
	if err != nil {
		return Summary{}, err
	}

	text, err := s.transcripts.TextForSession(ctx, sessionID)
	if err != nil {
		return Summary{}, ErrNoTranscript
	}

	s.wg.Add(1)
	go s.processQuestions(sum, text)

	return sum, nil
}

func (s *Service) processQuestions(sum Summary, text string) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	raw, err := s.gen.Generate(ctx, fmt.Sprintf(questionsPrompt, text))
	if err != nil {
		s.log.Warn("questions generation failed", map[string]any{
			"summary_id": sum.ID, "err": logger.Err(err),
		})
		s.publish(sum.SessionID, "questions:failed", map[string]any{
			"summary_id": sum.ID,
			"error":      err.Error(),
		})
		return
	}

	questions := []string{}
	if payload, ok := ExtractJSON(raw); ok {
		var qs []string
		if err := json.Unmarshal(payload, &qs); err == nil {
			questions = cleanList(qs)
		}
	}

	// Releer antes de escribir: el summary pudo regenerarse mientras tanto.
	current, err := s.repo.GetByID(ctx, sum.ID)
	if err != nil {
		return
	}
	current.ReflexiveQuestions = questions
	current.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, current); err != nil {
		s.log.Error("store reflexive questions", map[string]any{
			"summary_id": sum.ID, "err": logger.Err(err),
		})
		return
	}

	s.publish(sum.SessionID, "questions:completed", map[string]any{
		"summary_id": sum.ID,
		"questions":  questions,
	})
}

func (s *Service) GetBySession(ctx context.Context, sessionID string) (Summary, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return Summary{}, ErrInvalidInput
	}
	return s.repo.GetBySession(ctx, sessionID)
}

func (s *Service) DeleteBySession(ctx context.Context, sessionID string) error {
	return s.repo.DeleteBySession(ctx, sessionID)
}

// Wait bloquea hasta que terminen los jobs en vuelo (solo tests).
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) publish(sessionID, event string, payload any) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(sessionID, event, payload)
}

func (s *Service) acquireLock(ctx context.Context, sessionID string) (bool, error) {
	if s.locker == nil {
		return true, nil
	}
	return s.locker.Acquire(ctx, "summary:gen:"+sessionID, genLockTTL)
}

func (s *Service) releaseLock(sessionID string) {
	if s.locker == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.locker.Release(ctx, "summary:gen:"+sessionID)
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
