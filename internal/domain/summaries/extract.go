package summaries

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)\\s*```")

// ExtractJSON busca un objeto o array JSON embebido en la respuesta libre
// del modelo. Primero intenta un bloque cercado (```json ... ```), luego el
// primer objeto/array balanceado. Devuelve false si no hay JSON parseable.
func ExtractJSON(raw string) (json.RawMessage, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}

	// 1) bloque cercado
	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		if v, ok := tryParse(m[1]); ok {
			return v, true
		}
	}

	// 2) respuesta ya es JSON puro
	if v, ok := tryParse(raw); ok {
		return v, true
	}

	// 3) primer objeto/array balanceado dentro del texto
	for i := 0; i < len(raw); i++ {
		if raw[i] != '{' && raw[i] != '[' {
			continue
		}
		if candidate, ok := balanced(raw[i:]); ok {
			if v, parsed := tryParse(candidate); parsed {
				return v, true
			}
		}
	}

	return nil, false
}

func tryParse(s string) (json.RawMessage, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	switch v.(type) {
	case map[string]any, []any:
		return json.RawMessage(s), true
	default:
		// un string o número suelto no cuenta como payload estructurado
		return nil, false
	}
}

// balanced corta el prefijo de s que forma un objeto/array balanceado,
// respetando strings y escapes.
func balanced(s string) (string, bool) {
	open := s[0]
	var closer byte
	switch open {
	case '{':
		closer = '}'
	case '[':
		closer = ']'
	default:
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}

	return "", false
}
