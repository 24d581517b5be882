package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Teek0505/TransMedix/internal/platform/logger"

	"google.golang.org/genai"
)

var ErrNotConfigured = errors.New("gemini generator not configured")

// Generator llama al API de Gemini para generar texto clínico.
// Rota entre API keys cuando una llega a su cuota.
type Generator struct {
	mu         sync.Mutex
	apiKeys    []string
	currentKey int

	model string
	log   logger.Logger
}

func New(apiKeys []string, model string, log logger.Logger) *Generator {
	keys := make([]string, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	if strings.TrimSpace(model) == "" {
		model = "gemini-2.5-flash"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Generator{
		apiKeys: keys,
		model:   model,
		log:     log,
	}
}

func (g *Generator) IsConfigured() bool {
	return g != nil && len(g.apiKeys) > 0
}

func (g *Generator) Model() string {
	return g.model
}

// Generate envía el prompt y devuelve el texto crudo del modelo.
// Ante 429 / quota rota a la siguiente key y reintenta; otros errores cortan.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if !g.IsConfigured() {
		return "", ErrNotConfigured
	}

	attempts := len(g.apiKeys)
	var lastErr error

	for range attempts {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  g.pickKey(),
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			lastErr = fmt.Errorf("create client: %w", err)
			g.rotateKey()
			continue
		}

		result, err := client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
		if err != nil {
			errMsg := err.Error()
			if strings.Contains(errMsg, "429") || strings.Contains(errMsg, "quota") || strings.Contains(errMsg, "RESOURCE_EXHAUSTED") {
				g.log.Warn("gemini key rate limited, rotating", nil)
				g.rotateKey()
				lastErr = err
				continue
			}
			return "", fmt.Errorf("generate content: %w", err)
		}

		if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
			var text strings.Builder
			for _, part := range result.Candidates[0].Content.Parts {
				if part.Text != "" {
					text.WriteString(part.Text)
				}
			}
			if text.Len() > 0 {
				return text.String(), nil
			}
		}

		return "", errors.New("empty response from gemini")
	}

	return "", fmt.Errorf("all api keys exhausted: %w", lastErr)
}

func (g *Generator) pickKey() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.apiKeys[g.currentKey]
}

func (g *Generator) rotateKey() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.currentKey = (g.currentKey + 1) % len(g.apiKeys)
}
