package summaries

import "time"

// Status del procesamiento asíncrono.
// @Enum processing, completed, failed
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Sections son las secciones clínicas estructuradas de la nota.
type Sections struct {
	ChiefComplaint string
	History        string
	Assessment     string
	Plan           string
}

// Entities son las entidades extraídas del texto por el modelo.
type Entities struct {
	Symptoms    []string
	Conditions  []string
	Medications []string
}

// Version es una foto del contenido antes de regenerar.
type Version struct {
	Version   int
	Sections  Sections
	Entities  Entities
	RawText   string
	CreatedAt time.Time
}

// Summary es la nota clínica generada a partir de las transcripciones
// de una sesión, más las preguntas reflexivas para el doctor.
type Summary struct {
	ID        string
	SessionID string

	Status Status

	Sections           Sections
	Entities           Entities
	ReflexiveQuestions []string

	// RawText es la respuesta cruda del modelo; se conserva aunque la
	// extracción de JSON falle.
	RawText string

	Model        string
	ProcessingMs int64

	Version  int
	Versions []Version

	Error string

	CreatedAt time.Time
	UpdatedAt time.Time
}
