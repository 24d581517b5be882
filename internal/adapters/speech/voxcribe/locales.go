package voxcribe

import "strings"

// El API espera locales BCP-47; el dominio maneja códigos cortos.
var locales = map[string]string{
	"es": "es-ES",
	"en": "en-US",
	"pt": "pt-BR",
	"fr": "fr-FR",
	"de": "de-DE",
	"it": "it-IT",
	"qu": "qu-PE",
}

const defaultLocale = "en-US"

// localeFor mapea un código corto de idioma al locale del proveedor.
// Acepta locales ya completos ("es-MX") y los respeta tal cual.
func localeFor(language string) string {
	language = strings.TrimSpace(language)
	if language == "" {
		return defaultLocale
	}
	if strings.Contains(language, "-") {
		return language
	}
	if loc, ok := locales[strings.ToLower(language)]; ok {
		return loc
	}
	return defaultLocale
}
