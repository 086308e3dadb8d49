// Package ingest turns loosely formatted model output into typed records.
//
// Model replies are expected to carry one JSON object but often arrive wrapped
// in markdown fences or conversational prose. Every parser shares the same
// recovery step: strip fences, then slice from the first '{' to the last '}'.
// After decoding, a normalisation pass fills defaults so partially compliant
// replies still produce a renderable record.
package ingest

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Hmmmm3247/ContractGuard/model"
	"github.com/Hmmmm3247/ContractGuard/pkg/apperr"
)

var fencePattern = regexp.MustCompile("```(?:json|JSON)?\\n?|\\n?```")

// StripFences removes markdown code-fence markers and surrounding whitespace.
func StripFences(text string) string {
	return strings.TrimSpace(fencePattern.ReplaceAllString(text, ""))
}

// ExtractObject returns the span between the first '{' and the last '}' of
// text once fences are removed. Text without such a span is malformed.
func ExtractObject(text string) (string, error) {
	clean := StripFences(text)
	first := strings.Index(clean, "{")
	last := strings.LastIndex(clean, "}")
	if first == -1 || last == -1 || last < first {
		return "", apperr.NewMalformed("response did not contain a JSON object", nil)
	}
	return clean[first : last+1], nil
}

// DedupSources keeps sources that have both a title and a uri, first
// occurrence of each uri wins.
func DedupSources(sources []model.GroundingSource) []model.GroundingSource {
	out := make([]model.GroundingSource, 0, len(sources))
	seen := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		if s.URI == "" || s.Title == "" {
			continue
		}
		if _, ok := seen[s.URI]; ok {
			continue
		}
		seen[s.URI] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Preview shortens text for log lines.
func Preview(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]`)

// Slug derives a company identity from its canonical name.
func Slug(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "unknown_company"
	}
	return slugPattern.ReplaceAllString(name, "_")
}
