package search

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/lexidb/lexidb/pkg/types"
)

// applyDistinct keeps the first hit for each distinct value of attribute
// in ranked order and drops every later hit sharing that value. A hit
// whose document lacks the attribute is always kept.
func applyDistinct(docs []ranked, attribute string) []ranked {
	if attribute == "" {
		return docs
	}
	seen := make(map[string]struct{})
	out := make([]ranked, 0, len(docs))
	for _, d := range docs {
		v, ok := d.doc[attribute]
		if !ok {
			out = append(out, d)
			continue
		}
		key := distinctKey(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, d)
	}
	return out
}

func distinctKey(v any) string {
	switch t := v.(type) {
	case string:
		return "s:" + t
	case float64:
		return "n:" + strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return ""
	}
}

// project trims doc down to attributesToRetrieve, leaving it untouched
// when the list is empty or ["*"].
func project(doc types.Document, attributes []string) types.Document {
	if len(attributes) == 0 || (len(attributes) == 1 && attributes[0] == "*") {
		return doc
	}
	out := make(types.Document, len(attributes))
	for _, a := range attributes {
		if v, ok := doc[a]; ok {
			out[a] = v
		}
	}
	return out
}

// wordRun is one letter/digit run found while scanning a field's text for
// highlight/crop purposes. Unlike pkg/indexing.Tokenize, this always uses
// plain Unicode letter/digit boundaries: the settings-driven separator and
// non-separator token overrides only affect indexing, not the formatting
// pass, which re-scans the stored text fresh at query time.
type wordRun struct {
	start, length int // rune offsets into the source text
	lower         string
}

func scanWordRuns(text string) []wordRun {
	runes := []rune(text)
	var runs []wordRun
	i := 0
	for i < len(runes) {
		if !isWordRune(runes[i]) {
			i++
			continue
		}
		j := i
		for j < len(runes) && isWordRune(runes[j]) {
			j++
		}
		runs = append(runs, wordRun{start: i, length: j - i, lower: strings.ToLower(string(runes[i:j]))})
		i = j
	}
	return runs
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// matchedWordSet collects every concrete dictionary word any term matched
// for docID, lowercased, for highlight/crop comparison against a field's
// own word runs.
func matchedWordSet(docID types.InternalDocID, tbs []termBitmap) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tb := range tbs {
		for _, w := range tb.matchedWords(uint32(docID)) {
			set[w] = struct{}{}
		}
	}
	return set
}

// highlight wraps every run in text whose lowercased form is in words
// with preTag/postTag, and reports each match's rune span in the
// original text.
func highlight(text string, words map[string]struct{}, preTag, postTag string) (string, []MatchSpan) {
	runes := []rune(text)
	runs := scanWordRuns(text)

	var b strings.Builder
	var spans []MatchSpan
	cursor := 0
	for _, run := range runs {
		if _, ok := words[run.lower]; !ok {
			continue
		}
		b.WriteString(string(runes[cursor:run.start]))
		b.WriteString(preTag)
		b.WriteString(string(runes[run.start : run.start+run.length]))
		b.WriteString(postTag)
		spans = append(spans, MatchSpan{Start: run.start, Length: run.length})
		cursor = run.start + run.length
	}
	b.WriteString(string(runes[cursor:]))
	return b.String(), spans
}

// crop returns the cropLength-word window of text holding the most matched
// words (the earliest such window on a tie), bracketed by marker wherever text was cut
// off. cropLength <= 0 or a text shorter than the window returns text
// unchanged.
func crop(text string, words map[string]struct{}, cropLength int, marker string) string {
	if cropLength <= 0 {
		return text
	}
	runs := scanWordRuns(text)
	if len(runs) <= cropLength {
		return text
	}

	bestStart, bestCount := 0, -1
	for start := 0; start+cropLength <= len(runs); start++ {
		count := 0
		for _, r := range runs[start : start+cropLength] {
			if _, ok := words[r.lower]; ok {
				count++
			}
		}
		if count > bestCount {
			bestCount, bestStart = count, start
		}
	}

	end := bestStart + cropLength
	runes := []rune(text)
	from := runs[bestStart].start
	to := runs[end-1].start + runs[end-1].length

	var b strings.Builder
	if bestStart > 0 {
		b.WriteString(marker)
	}
	b.WriteString(string(runes[from:to]))
	if end < len(runs) {
		b.WriteString(marker)
	}
	return b.String()
}
