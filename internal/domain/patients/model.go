package patients

import "time"

// Sex define el sexo del paciente.
// @Enum male, female, other, unknown
type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexOther   Sex = "other"
	SexUnknown Sex = "unknown"
)

// Patient representa la ficha básica de un paciente.
type Patient struct {
	ID string

	FullName       string
	DocumentNumber string
	Sex            Sex

	BirthDate *time.Time

	Email string
	Phone string

	Notes string

	CreatedAt time.Time
	UpdatedAt time.Time
}
