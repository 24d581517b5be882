package transcriptions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Teek0505/TransMedix/internal/platform/logger"
	"github.com/Teek0505/TransMedix/internal/ports/speech"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("transcription not found")
	ErrNoText       = errors.New("session has no transcribed text")
)

// Notifier publica eventos al room WebSocket de la sesión.
// Lo implementa ws.Hub; puede ser nil en tests.
type Notifier interface {
	Publish(sessionID, event string, payload any)
}

type Service struct {
	repo     Repository
	rec      speech.Recognizer
	notifier Notifier
	log      logger.Logger
	now      func() time.Time

	// wg permite a los tests esperar los jobs en vuelo.
	wg sync.WaitGroup
}

func NewService(repo Repository, rec speech.Recognizer, notifier Notifier, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:     repo,
		rec:      rec,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

type UploadInput struct {
	SessionID string
	Language  string
	Filename  string
	MimeType  string
	Audio     []byte
}

// Upload crea el registro en processing y dispara el reconocimiento en
// background. El resultado llega después por WebSocket.
func (s *Service) Upload(ctx context.Context, in UploadInput) (Transcription, error) {
	if strings.TrimSpace(in.SessionID) == "" {
		return Transcription{}, ErrInvalidInput
	}
	if len(in.Audio) == 0 {
		return Transcription{}, fmt.Errorf("%w: empty audio", ErrInvalidInput)
	}
	if !IsAudioMime(in.MimeType) {
		return Transcription{}, fmt.Errorf("%w: unsupported content type %q", ErrInvalidInput, in.MimeType)
	}

	now := s.now()
	tr := Transcription{
		ID:        uuid.NewString(),
		SessionID: in.SessionID,
		Audio: AudioMeta{
			Filename:  strings.TrimSpace(in.Filename),
			MimeType:  in.MimeType,
			SizeBytes: int64(len(in.Audio)),
		},
		Language:  in.Language,
		Status:    StatusProcessing,
		Segments:  []Segment{},
		Edits:     []Edit{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, tr); err != nil {
		return Transcription{}, err
	}

	s.wg.Add(1)
	go s.process(tr, in.Audio)

	return tr, nil
}

// process corre desacoplado del request HTTP.
func (s *Service) process(tr Transcription, audio []byte) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := s.rec.Recognize(ctx, audio, speech.Params{
		Language: tr.Language,
		MimeType: tr.Audio.MimeType,
	})
	if err != nil {
		s.fail(ctx, tr, err)
		return
	}

	now := s.now()
	tr.Status = StatusCompleted
	tr.Text = res.Text
	tr.Confidence = res.Confidence
	tr.Segments = toSegments(res.Segments)
	tr.CompletedAt = &now
	tr.UpdatedAt = now

	if err := s.repo.Update(ctx, tr); err != nil {
		s.log.Error("store transcription result", map[string]any{
			"transcription_id": tr.ID, "err": logger.Err(err),
		})
		return
	}

	s.log.Info("transcription completed", map[string]any{
		"transcription_id": tr.ID, "session_id": tr.SessionID, "confidence": res.Confidence,
	})
	s.publish(tr.SessionID, "transcription:completed", map[string]any{
		"transcription_id": tr.ID,
		"text":             tr.Text,
		"confidence":       tr.Confidence,
	})
}

func (s *Service) fail(ctx context.Context, tr Transcription, cause error) {
	// Sin retries: se registra el fallo y se avisa al cliente (catch-and-log).
	tr.Status = StatusFailed
	tr.Error = cause.Error()
	tr.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, tr); err != nil {
		s.log.Error("store transcription failure", map[string]any{
			"transcription_id": tr.ID, "err": logger.Err(err),
		})
	}

	s.log.Warn("transcription failed", map[string]any{
		"transcription_id": tr.ID, "session_id": tr.SessionID, "err": logger.Err(cause),
	})
	s.publish(tr.SessionID, "transcription:failed", map[string]any{
		"transcription_id": tr.ID,
		"error":            tr.Error,
	})
}

func (s *Service) publish(sessionID, event string, payload any) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(sessionID, event, payload)
}

// Wait bloquea hasta que terminen los jobs en vuelo (solo tests).
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) GetByID(ctx context.Context, id string) (Transcription, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Transcription{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListBySession(ctx context.Context, sessionID string) ([]Transcription, error) {
	return s.repo.ListBySession(ctx, sessionID)
}

// EditText aplica una corrección manual preservando el texto anterior.
func (s *Service) EditText(ctx context.Context, id, editedBy, newText string) (Transcription, error) {
	if strings.TrimSpace(newText) == "" {
		return Transcription{}, fmt.Errorf("%w: text required", ErrInvalidInput)
	}

	tr, err := s.GetByID(ctx, id)
	if err != nil {
		return Transcription{}, err
	}
	if tr.Status != StatusCompleted {
		return Transcription{}, fmt.Errorf("%w: can only edit a completed transcription", ErrInvalidInput)
	}

	tr.Edits = append(tr.Edits, Edit{
		PreviousText: tr.Text,
		EditedBy:     strings.TrimSpace(editedBy),
		EditedAt:     s.now(),
	})
	tr.Text = newText
	tr.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, tr); err != nil {
		return Transcription{}, err
	}
	return tr, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) DeleteBySession(ctx context.Context, sessionID string) error {
	return s.repo.DeleteBySession(ctx, sessionID)
}

// TextForSession concatena el texto de las transcripciones completadas,
// en orden de creación. Lo usa el generador de summaries.
func (s *Service) TextForSession(ctx context.Context, sessionID string) (string, error) {
	items, err := s.repo.ListBySession(ctx, sessionID)
	if err != nil {
		return "", err
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})

	parts := make([]string, 0, len(items))
	for _, tr := range items {
		if tr.Status != StatusCompleted {
			continue
		}
		if t := strings.TrimSpace(tr.Text); t != "" {
			parts = append(parts, t)
		}
	}

	if len(parts) == 0 {
		return "", ErrNoText
	}
	return strings.Join(parts, "\n\n"), nil
}

// IsAudioMime acepta audio/* y los contenedores webm/ogg que mandan
// los browsers al grabar con MediaRecorder.
func IsAudioMime(mime string) bool {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if strings.HasPrefix(mime, "audio/") {
		return true
	}
	switch mime {
	case "video/webm", "application/ogg":
		return true
	}
	return false
}

func toSegments(in []speech.Segment) []Segment {
	out := make([]Segment, 0, len(in))
	for _, sg := range in {
		out = append(out, Segment{
			Speaker: sg.Speaker,
			Start:   sg.Start,
			End:     sg.End,
			Text:    sg.Text,
		})
	}
	return out
}
