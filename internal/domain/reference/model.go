package reference

// Condition es un registro estático de catálogo (lookup con text search).
type Condition struct {
	ID          string
	Code        string // ICD-10
	Name        string
	Description string
	Synonyms    []string
}

// Symptom es un registro estático de catálogo.
type Symptom struct {
	ID          string
	Name        string
	Category    string
	Description string
}
