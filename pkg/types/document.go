package types

import (
	"math"
	"strconv"
)

// Document is the decoded JSON object form of one record. The indexing
// pipeline re-encodes this into the obkv (ordered by FieldID) layout before
// it ever touches a posting list; callers outside pkg/indexing only ever
// see this map form.
type Document map[string]any

// PrimaryKeyValue extracts the value of key from d and renders it as the
// string an InternalDocID is ultimately mapped back to. Only strings and
// integers are accepted as primary key values.
func (d Document) PrimaryKeyValue(key string) (string, error) {
	v, ok := d[key]
	if !ok {
		return "", ErrPrimaryKeyMissing
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return "", ErrPrimaryKeyMissing
		}
		return t, nil
	case float64:
		if t != math.Trunc(t) {
			return "", ErrMalformedDocument
		}
		return formatNumericKey(t), nil
	default:
		return "", ErrMalformedDocument
	}
}

// InferPrimaryKey scans candidate for the field to use as primary key when
// an index has no configured primary key yet: a field literally named "id"
// wins outright; otherwise exactly one top-level field whose name ends in
// "id" case-insensitively must exist. ok is false both when no candidate
// exists and when more than one does (ambiguous), matching §4.3 phase 1's
// "infer it... fail if ambiguous".
func InferPrimaryKey(candidate Document) (string, bool) {
	if _, ok := candidate["id"]; ok {
		return "id", true
	}
	var matches []string
	for k := range candidate {
		if len(k) > 2 && (k[len(k)-2] == 'i' || k[len(k)-2] == 'I') && (k[len(k)-1] == 'd' || k[len(k)-1] == 'D') {
			matches = append(matches, k)
		}
	}
	if len(matches) != 1 {
		return "", false
	}
	return matches[0], true
}

func formatNumericKey(f float64) string {
	i := int64(f)
	if float64(i) == f {
		return strconv.FormatInt(i, 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
