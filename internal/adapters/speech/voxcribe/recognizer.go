package voxcribe

import (
	"context"
	"sync"
	"time"

	"github.com/Teek0505/TransMedix/internal/ports/speech"
)

// Recognizer implementa speech.Recognizer contra el API de voxcribe.
type Recognizer struct {
	client *Client
}

func NewRecognizer(client *Client) *Recognizer {
	return &Recognizer{client: client}
}

func (r *Recognizer) Recognize(ctx context.Context, audio []byte, p speech.Params) (speech.Result, error) {
	resp, err := r.client.recognize(ctx, audio, localeFor(p.Language), p.MimeType, false)
	if err != nil {
		return speech.Result{}, err
	}
	return toResult(resp), nil
}

// El proveedor no expone un endpoint de streaming real; el stream
// acumula chunks y pide hipótesis parciales sobre lo acumulado cada
// cierto volumen de audio. Close hace el reconocimiento completo.
const partialEvery = 64 * 1024

func (r *Recognizer) OpenStream(ctx context.Context, p speech.Params, onPartial func(speech.Partial)) (speech.Stream, error) {
	if !r.client.IsConfigured() {
		return nil, ErrNotConfigured
	}
	return &bufferedStream{
		rec:       r,
		ctx:       ctx,
		params:    p,
		onPartial: onPartial,
	}, nil
}

type bufferedStream struct {
	rec       *Recognizer
	ctx       context.Context
	params    speech.Params
	onPartial func(speech.Partial)

	mu           sync.Mutex
	buf          []byte
	sincePartial int
	closed       bool
}

func (s *bufferedStream) Write(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return context.Canceled
	}
	s.buf = append(s.buf, chunk...)
	s.sincePartial += len(chunk)

	if s.sincePartial < partialEvery || s.onPartial == nil {
		return nil
	}
	s.sincePartial = 0

	// Hipótesis best-effort: si el proveedor falla, el parcial se omite.
	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()

	resp, err := s.rec.client.recognize(ctx, s.buf, localeFor(s.params.Language), s.params.MimeType, true)
	if err != nil {
		return nil
	}
	s.onPartial(speech.Partial{Text: resp.Text})
	return nil
}

func (s *bufferedStream) Close() (speech.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return speech.Result{}, context.Canceled
	}
	s.closed = true

	if len(s.buf) == 0 {
		return speech.Result{}, nil
	}

	resp, err := s.rec.client.recognize(s.ctx, s.buf, localeFor(s.params.Language), s.params.MimeType, false)
	if err != nil {
		return speech.Result{}, err
	}

	result := toResult(resp)
	if s.onPartial != nil {
		s.onPartial(speech.Partial{Text: result.Text, Final: true})
	}
	return result, nil
}

func toResult(resp recognizeResponse) speech.Result {
	result := speech.Result{
		Text:       resp.Text,
		Confidence: resp.Confidence,
	}
	for _, sg := range resp.Segments {
		result.Segments = append(result.Segments, speech.Segment(sg))
	}
	return result
}
