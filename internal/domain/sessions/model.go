package sessions

import "time"

// Diagnosis es un sub-registro ad hoc dentro de la sesión.
type Diagnosis struct {
	ID          string
	Code        string // ICD-10 u otro catálogo, texto libre
	Description string
	RecordedBy  string
	RecordedAt  time.Time
}

// Prescription es un sub-registro ad hoc dentro de la sesión.
type Prescription struct {
	ID           string
	Medication   string
	Dosage       string
	Frequency    string
	Duration     string
	Instructions string
	RecordedBy   string
	RecordedAt   time.Time
}

// Session es el agregado central: una consulta médico-paciente.
// Referencia al paciente, a sus transcripciones y a un summary.
type Session struct {
	ID        string
	PatientID string

	DoctorUserID string
	DoctorName   string

	Status   Status
	Language string // hint para el API de speech ("es", "en", ...)

	ChiefComplaint string
	Notes          string

	TranscriptionIDs []string
	SummaryID        string

	Diagnoses     []Diagnosis
	Prescriptions []Prescription

	StartedAt *time.Time
	EndedAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
