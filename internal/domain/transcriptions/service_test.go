package transcriptions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Teek0505/TransMedix/internal/ports/speech"
)

// -------------------------
// Fakes
// -------------------------

type testRepo struct {
	mu   sync.Mutex
	byID map[string]Transcription
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Transcription{}}
}

func (r *testRepo) Create(ctx context.Context, t Transcription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[t.ID] = t
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Transcription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok {
		return Transcription{}, ErrNotFound
	}
	return t, nil
}

func (r *testRepo) ListBySession(ctx context.Context, sessionID string) ([]Transcription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Transcription, 0)
	for _, t := range r.byID {
		if t.SessionID == sessionID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *testRepo) Update(ctx context.Context, t Transcription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[t.ID]; !ok {
		return ErrNotFound
	}
	r.byID[t.ID] = t
	return nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *testRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range r.byID {
		if t.SessionID == sessionID {
			delete(r.byID, id)
		}
	}
	return nil
}

type fakeRecognizer struct {
	result speech.Result
	err    error
}

func (f *fakeRecognizer) Recognize(ctx context.Context, audio []byte, p speech.Params) (speech.Result, error) {
	if f.err != nil {
		return speech.Result{}, f.err
	}
	return f.result, nil
}

func (f *fakeRecognizer) OpenStream(ctx context.Context, p speech.Params, onPartial func(speech.Partial)) (speech.Stream, error) {
	return nil, errors.New("not supported")
}

type eventRecorder struct {
	mu     sync.Mutex
	events []string
}

func (e *eventRecorder) Publish(sessionID, event string, payload any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

func (e *eventRecorder) all() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.events...)
}

// -------------------------
// Tests
// -------------------------

func TestService_Upload_RejectsNonAudio(t *testing.T) {
	svc := NewService(newTestRepo(), &fakeRecognizer{}, nil, nil)

	_, err := svc.Upload(context.Background(), UploadInput{
		SessionID: "sess-1",
		MimeType:  "text/plain",
		Audio:     []byte("hello"),
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for text/plain, got %v", err)
	}

	_, err = svc.Upload(context.Background(), UploadInput{
		SessionID: "sess-1",
		MimeType:  "audio/wav",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty audio, got %v", err)
	}
}

func TestService_Upload_CompletesAsync(t *testing.T) {
	repo := newTestRepo()
	rec := &fakeRecognizer{result: speech.Result{
		Text:       "hola doctor",
		Confidence: 0.88,
		Segments:   []speech.Segment{{Speaker: "patient", Start: 0, End: 1.2, Text: "hola doctor"}},
	}}
	events := &eventRecorder{}
	svc := NewService(repo, rec, events, nil)

	tr, err := svc.Upload(context.Background(), UploadInput{
		SessionID: "sess-1",
		Language:  "es",
		Filename:  "a.wav",
		MimeType:  "audio/wav",
		Audio:     []byte("bytes"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if tr.Status != StatusProcessing {
		t.Fatalf("expected processing right after upload, got %s", tr.Status)
	}

	svc.Wait()

	got, err := svc.GetByID(context.Background(), tr.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (err=%s)", got.Status, got.Error)
	}
	if got.Text != "hola doctor" || got.Confidence != 0.88 || len(got.Segments) != 1 {
		t.Fatalf("unexpected result %+v", got)
	}
	if got.CompletedAt == nil {
		t.Fatalf("expected completed_at set")
	}

	evs := events.all()
	if len(evs) != 1 || evs[0] != "transcription:completed" {
		t.Fatalf("expected transcription:completed event, got %v", evs)
	}
}

func TestService_Upload_FailureIsRecorded(t *testing.T) {
	repo := newTestRepo()
	events := &eventRecorder{}
	svc := NewService(repo, &fakeRecognizer{err: errors.New("provider down")}, events, nil)

	tr, err := svc.Upload(context.Background(), UploadInput{
		SessionID: "sess-1",
		MimeType:  "audio/webm",
		Audio:     []byte("bytes"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	svc.Wait()

	got, _ := svc.GetByID(context.Background(), tr.ID)
	if got.Status != StatusFailed || got.Error == "" {
		t.Fatalf("expected failed with error, got %+v", got)
	}

	evs := events.all()
	if len(evs) != 1 || evs[0] != "transcription:failed" {
		t.Fatalf("expected transcription:failed event, got %v", evs)
	}
}

func TestService_EditText_KeepsHistory(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, &fakeRecognizer{result: speech.Result{Text: "original text"}}, nil, nil)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	tr, _ := svc.Upload(context.Background(), UploadInput{
		SessionID: "sess-1",
		MimeType:  "audio/wav",
		Audio:     []byte("bytes"),
	})
	svc.Wait()

	edited, err := svc.EditText(context.Background(), tr.ID, "doc-1", "corrected text")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.Text != "corrected text" {
		t.Fatalf("expected corrected text, got %q", edited.Text)
	}
	if len(edited.Edits) != 1 {
		t.Fatalf("expected one edit, got %d", len(edited.Edits))
	}
	if edited.Edits[0].PreviousText != "original text" || edited.Edits[0].EditedBy != "doc-1" {
		t.Fatalf("unexpected edit entry %+v", edited.Edits[0])
	}

	// texto vacío => invalid
	if _, err := svc.EditText(context.Background(), tr.ID, "doc-1", "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank text, got %v", err)
	}
}

func TestService_EditText_OnlyCompleted(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, &fakeRecognizer{err: errors.New("down")}, nil, nil)

	tr, _ := svc.Upload(context.Background(), UploadInput{
		SessionID: "sess-1",
		MimeType:  "audio/wav",
		Audio:     []byte("bytes"),
	})
	svc.Wait()

	// quedó failed: no se puede editar
	if _, err := svc.EditText(context.Background(), tr.ID, "doc-1", "text"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput editing failed transcription, got %v", err)
	}
}

func TestService_TextForSession(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, &fakeRecognizer{}, nil, nil)
	ctx := context.Background()

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	_ = repo.Create(ctx, Transcription{ID: "t1", SessionID: "sess-1", Status: StatusCompleted, Text: "first part", CreatedAt: base})
	_ = repo.Create(ctx, Transcription{ID: "t2", SessionID: "sess-1", Status: StatusFailed, Text: "ignored", CreatedAt: base.Add(time.Minute)})
	_ = repo.Create(ctx, Transcription{ID: "t3", SessionID: "sess-1", Status: StatusCompleted, Text: "second part", CreatedAt: base.Add(2 * time.Minute)})

	text, err := svc.TextForSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("text for session: %v", err)
	}
	if text != "first part\n\nsecond part" {
		t.Fatalf("unexpected joined text %q", text)
	}

	// sesión sin texto completado => ErrNoText
	if _, err := svc.TextForSession(ctx, "sess-2"); !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
}

func TestIsAudioMime(t *testing.T) {
	cases := map[string]bool{
		"audio/wav":                true,
		"audio/mpeg":               true,
		"audio/webm;codecs=opus":   true,
		"AUDIO/WAV":                true,
		"video/webm":               true,
		"application/ogg":          true,
		"text/plain":               false,
		"application/octet-stream": false,
		"":                         false,
	}
	for mime, want := range cases {
		if got := IsAudioMime(mime); got != want {
			t.Fatalf("IsAudioMime(%q) = %v, want %v", mime, got, want)
		}
	}
}
