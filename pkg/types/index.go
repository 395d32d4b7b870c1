package types

import (
	"fmt"
	"regexp"
	"time"
)

var uidPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,400}$`)

// ValidateUID checks an index uid against the syntax required by §3:
// 1-400 bytes drawn from [A-Za-z0-9_-].
func ValidateUID(uid string) error {
	if !uidPattern.MatchString(uid) {
		return fmt.Errorf("%w: %q", ErrInvalidIndexUID, uid)
	}
	return nil
}

// IndexMeta is the durable header record for one Index: everything about
// it except the sub-stores (documents, postings, facets) that live beside
// it in the same KV environment.
type IndexMeta struct {
	UID         string    `json:"uid"`
	PrimaryKey  string    `json:"primaryKey,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	NumberOfDocuments uint64 `json:"numberOfDocuments"`

	// FieldIDs maps a searchable/filterable/sortable field path to the
	// small integer id posting lists key on. Assigned once, never reused.
	FieldIDs map[string]uint16 `json:"fieldIds,omitempty"`
	NextFieldID uint16 `json:"nextFieldId"`
}

// InternalDocID is the dense 32-bit id posting lists are keyed on.
type InternalDocID = uint32

// FieldID is the small integer a searchable/filterable/sortable attribute
// path is assigned on first use.
type FieldID = uint16
