package transcriptions

import "time"

// Status del procesamiento asíncrono.
// @Enum processing, completed, failed
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// AudioMeta es la metadata del archivo subido; el audio en sí no se persiste.
type AudioMeta struct {
	Filename  string
	MimeType  string
	SizeBytes int64
}

// Segment es un tramo de texto atribuido a un hablante.
type Segment struct {
	Speaker string
	Start   float64
	End     float64
	Text    string
}

// Edit guarda el texto anterior cada vez que el doctor corrige a mano.
type Edit struct {
	PreviousText string
	EditedBy     string
	EditedAt     time.Time
}

// Transcription es el resultado speech-to-text asociado a una sesión.
type Transcription struct {
	ID        string
	SessionID string

	Audio    AudioMeta
	Language string

	Status     Status
	Text       string
	Confidence float64
	Segments   []Segment
	Edits      []Edit

	Error string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}
