package sessions

// Status define el ciclo de vida de una sesión.
// @Enum scheduled, in_progress, completed, cancelled
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// ListFilter filtra el listado de sesiones.
type ListFilter struct {
	PatientID string
	Status    Status
	Limit     int
}
