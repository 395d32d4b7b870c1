package types

import "time"

// Action is one permission an APIKey can grant. The wildcard "*" grants
// every action the gate knows about.
type Action string

const (
	ActionAll                 Action = "*"
	ActionSearch              Action = "search"
	ActionDocumentsAdd        Action = "documents.add"
	ActionDocumentsGet        Action = "documents.get"
	ActionDocumentsDelete     Action = "documents.delete"
	ActionIndexesCreate       Action = "indexes.create"
	ActionIndexesGet          Action = "indexes.get"
	ActionIndexesUpdate       Action = "indexes.update"
	ActionIndexesDelete       Action = "indexes.delete"
	ActionIndexesSwap         Action = "indexes.swap"
	ActionSettingsGet         Action = "settings.get"
	ActionSettingsUpdate      Action = "settings.update"
	ActionTasksGet            Action = "tasks.get"
	ActionTasksCancel         Action = "tasks.cancel"
	ActionTasksDelete         Action = "tasks.delete"
	ActionKeysGet             Action = "keys.get"
	ActionKeysCreate          Action = "keys.create"
	ActionKeysUpdate          Action = "keys.update"
	ActionKeysDelete          Action = "keys.delete"
)

// APIKey is an action/index-pattern/expiry tuple a bearer token resolves
// to: an opaque secret, a scope, and an optional expiry.
type APIKey struct {
	UID         string     `json:"uid"`
	Name        string     `json:"name,omitempty"`
	Description string     `json:"description,omitempty"`

	// Key is the plaintext bearer value returned to the caller exactly
	// once, at creation time; only its signed/hashed form is persisted.
	Key string `json:"key,omitempty"`

	Actions     []Action `json:"actions"`
	Indexes     []string `json:"indexes"` // "*" matches any uid

	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Expired reports whether k's expiry, if any, is in the past relative to
// now.
func (k APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && now.After(*k.ExpiresAt)
}

// Permits reports whether k grants action against indexUID.
func (k APIKey) Permits(action Action, indexUID string) bool {
	if !k.permitsAction(action) {
		return false
	}
	return k.permitsIndex(indexUID)
}

func (k APIKey) permitsAction(action Action) bool {
	for _, a := range k.Actions {
		if a == ActionAll || a == action {
			return true
		}
	}
	return false
}

func (k APIKey) permitsIndex(indexUID string) bool {
	for _, p := range k.Indexes {
		if p == "*" || p == indexUID {
			return true
		}
	}
	return false
}
