package types

import "errors"

// Sentinel errors form the §7 error-kind taxonomy. Callers compare with
// errors.Is; the HTTP layer maps each to a status code and a stable code
// string in the response body.
var (
	ErrInvalidIndexUID     = errors.New("invalid index uid")
	ErrIndexNotFound       = errors.New("index not found")
	ErrIndexAlreadyExists  = errors.New("index already exists")
	ErrPrimaryKeyMissing   = errors.New("primary key could not be inferred")
	ErrPrimaryKeyConflict  = errors.New("document primary key does not match index primary key")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrMalformedDocument   = errors.New("malformed document")
	ErrInvalidFilter       = errors.New("invalid filter expression")
	ErrInvalidSort         = errors.New("invalid sort expression")
	ErrAttributeNotSortable  = errors.New("attribute is not sortable")
	ErrAttributeNotFilterable = errors.New("attribute is not filterable")
	ErrTaskNotFound        = errors.New("task not found")
	ErrBatchNotFound       = errors.New("batch not found")
	ErrTaskNotCancelable   = errors.New("task is no longer cancelable")
	ErrAPIKeyNotFound      = errors.New("api key not found")
	ErrAPIKeyExpired       = errors.New("api key expired")
	ErrAPIKeyInvalidAction = errors.New("api key does not permit this action")
	ErrAPIKeyInvalidIndex  = errors.New("api key does not permit this index")
	ErrUnauthorized        = errors.New("missing or invalid authorization")
	ErrPayloadTooLarge     = errors.New("payload exceeds configured limit")
	ErrVersionMismatch     = errors.New("database version mismatch")
	ErrDumplessUpgradeRequired = errors.New("dumpless upgrade required for this version jump")
)
