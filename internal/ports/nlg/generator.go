package nlg

import "context"

// Generator es el contrato con el API de lenguaje generativo.
// Devuelve texto libre; quien llama decide cómo interpretarlo.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}
