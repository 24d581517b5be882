package speech

import "context"

// Params son los hints que acompañan al audio.
type Params struct {
	Language string // código corto ("es", "en"); el adapter lo mapea a locale
	MimeType string
}

// Segment es un tramo atribuido a un hablante (diarización del proveedor).
type Segment struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
}

// Result es la transcripción final que devuelve el proveedor.
type Result struct {
	Text       string
	Confidence float64
	Segments   []Segment
}

// Partial es una hipótesis intermedia durante streaming.
type Partial struct {
	Text  string
	Final bool
}

// Stream recibe chunks de audio y emite parciales vía el callback
// entregado en OpenStream. Close devuelve el resultado consolidado.
type Stream interface {
	Write(chunk []byte) error
	Close() (Result, error)
}

// Recognizer es el contrato con el API de speech-to-text externo.
type Recognizer interface {
	Recognize(ctx context.Context, audio []byte, p Params) (Result, error)
	OpenStream(ctx context.Context, p Params, onPartial func(Partial)) (Stream, error)
}
