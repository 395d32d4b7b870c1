package indexing

import (
	"strings"
	"unicode"

	"github.com/lexidb/lexidb/pkg/types"
)

// Token is one word occurrence within a single field's text, numbered by
// its zero-based position within that field.
type Token struct {
	Word     string
	Position uint16
}

// Tokenize splits text into lowercased word tokens, dropping configured
// stop words. A rune is part of a word if it is a letter or digit, or it
// appears in settings.NonSeparatorTokens; everything else ends the current
// word. settings.SeparatorTokens beyond the default is honored by also
// splitting on any of its runes.
func Tokenize(text string, settings types.Settings) []Token {
	stop := make(map[string]struct{}, len(settings.StopWords))
	for _, w := range settings.StopWords {
		stop[strings.ToLower(w)] = struct{}{}
	}

	nonSeparator := make(map[rune]struct{})
	for _, s := range settings.NonSeparatorTokens {
		for _, r := range s {
			nonSeparator[r] = struct{}{}
		}
	}
	separator := make(map[rune]struct{})
	for _, s := range settings.SeparatorTokens {
		for _, r := range s {
			separator[r] = struct{}{}
		}
	}

	isWordRune := func(r rune) bool {
		if _, ok := nonSeparator[r]; ok {
			return true
		}
		if _, ok := separator[r]; ok {
			return false
		}
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}

	var tokens []Token
	var cur []rune
	var pos uint16

	flush := func() {
		if len(cur) == 0 {
			return
		}
		word := strings.ToLower(string(cur))
		cur = cur[:0]
		if _, dropped := stop[word]; dropped {
			return
		}
		tokens = append(tokens, Token{Word: word, Position: pos})
		pos++
	}

	for _, r := range text {
		if isWordRune(r) {
			cur = append(cur, r)
		} else {
			flush()
		}
	}
	flush()

	return tokens
}

// fieldText coerces a document field value into a single string to
// tokenize: strings pass through, string slices are space-joined, anything
// else (numbers, bools, nested objects) is not searchable text.
func fieldText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case []any:
		var parts []string
		for _, item := range t {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, " "), true
	default:
		return "", false
	}
}

// facetStringValues returns every string value a field contributes to a
// facet_string_docids store: the field itself if it is a string, or each
// string element if it is an array.
func facetStringValues(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		var out []string
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// facetNumberValue reports whether v is a facet_number_docids candidate.
func facetNumberValue(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

func containsString(set []string, s string) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}

// searchableFields returns the attributes to tokenize for doc: every
// top-level field in a stable order if settings wildcards with "*", else
// exactly settings.SearchableAttributes.
func searchableFields(doc types.Document, settings types.Settings) []string {
	if len(settings.SearchableAttributes) == 1 && settings.SearchableAttributes[0] == "*" {
		fields := make([]string, 0, len(doc))
		for k := range doc {
			fields = append(fields, k)
		}
		sortStrings(fields)
		return fields
	}
	return settings.SearchableAttributes
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
