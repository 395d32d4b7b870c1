package api

import (
	"errors"
	"net/http"

	"github.com/lexidb/lexidb/pkg/auth"
	"github.com/lexidb/lexidb/pkg/types"
	"github.com/go-mizu/mizu"
)

const docLink = "https://docs.lexidb.dev/errors#"

// errorBody is the wire shape every client-visible error takes (§6, §7).
type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Type    string `json:"type"`
	Link    string `json:"link"`
}

// apiError pairs an HTTP status with a stable §7 error code.
type apiError struct {
	status  int
	code    string
	errType string
	message string
}

func (e *apiError) Error() string { return e.message }

func newAPIError(status int, code, errType, message string) *apiError {
	return &apiError{status: status, code: code, errType: errType, message: message}
}

// codeFor maps a sentinel from pkg/types/errors.go to its §7 code/type/
// status. Unrecognized errors fall through to "internal" — it should
// never leak for an error this layer could have classified.
func codeFor(err error) *apiError {
	switch {
	case errors.Is(err, types.ErrInvalidIndexUID):
		return newAPIError(http.StatusBadRequest, "invalid_index_uid", "invalid_request", err.Error())
	case errors.Is(err, types.ErrIndexNotFound):
		return newAPIError(http.StatusNotFound, "index_not_found", "invalid_request", err.Error())
	case errors.Is(err, types.ErrIndexAlreadyExists):
		return newAPIError(http.StatusBadRequest, "index_already_exists", "invalid_request", err.Error())
	case errors.Is(err, types.ErrPrimaryKeyMissing):
		return newAPIError(http.StatusBadRequest, "primary_key_inference_failed", "invalid_request", err.Error())
	case errors.Is(err, types.ErrPrimaryKeyConflict):
		return newAPIError(http.StatusBadRequest, "index_primary_key_already_exists", "invalid_request", err.Error())
	case errors.Is(err, types.ErrDocumentNotFound):
		return newAPIError(http.StatusNotFound, "document_not_found", "invalid_request", err.Error())
	case errors.Is(err, types.ErrMalformedDocument):
		return newAPIError(http.StatusBadRequest, "bad_request", "invalid_request", err.Error())
	case errors.Is(err, types.ErrInvalidFilter):
		return newAPIError(http.StatusBadRequest, "invalid_search_q", "invalid_request", err.Error())
	case errors.Is(err, types.ErrInvalidSort):
		return newAPIError(http.StatusBadRequest, "invalid_search_q", "invalid_request", err.Error())
	case errors.Is(err, types.ErrAttributeNotSortable):
		return newAPIError(http.StatusBadRequest, "invalid_search_q", "invalid_request", err.Error())
	case errors.Is(err, types.ErrAttributeNotFilterable):
		return newAPIError(http.StatusBadRequest, "invalid_search_q", "invalid_request", err.Error())
	case errors.Is(err, types.ErrTaskNotFound):
		return newAPIError(http.StatusNotFound, "task_not_found", "invalid_request", err.Error())
	case errors.Is(err, types.ErrTaskNotCancelable):
		return newAPIError(http.StatusBadRequest, "task_not_cancelable", "invalid_request", err.Error())
	case errors.Is(err, types.ErrAPIKeyNotFound):
		return newAPIError(http.StatusNotFound, "api_key_not_found", "invalid_request", err.Error())
	case errors.Is(err, types.ErrAPIKeyExpired):
		return newAPIError(http.StatusForbidden, "invalid_api_key", "auth", err.Error())
	case errors.Is(err, types.ErrAPIKeyInvalidAction), errors.Is(err, types.ErrAPIKeyInvalidIndex):
		return newAPIError(http.StatusForbidden, "invalid_api_key", "auth", err.Error())
	case errors.Is(err, types.ErrUnauthorized):
		return newAPIError(http.StatusUnauthorized, "missing_authorization_header", "auth", err.Error())
	case errors.Is(err, types.ErrPayloadTooLarge):
		return newAPIError(http.StatusRequestEntityTooLarge, "payload_too_large", "invalid_request", err.Error())
	case errors.Is(err, types.ErrVersionMismatch), errors.Is(err, types.ErrDumplessUpgradeRequired):
		return newAPIError(http.StatusInternalServerError, "internal", "internal", err.Error())
	default:
		var apiErr *apiError
		if errors.As(err, &apiErr) {
			return apiErr
		}
		return newAPIError(http.StatusInternalServerError, "internal", "internal", "an internal error occurred")
	}
}

// rejectionError maps an auth.RejectionReason to its §7 tenancy code.
func rejectionError(reason auth.RejectionReason) *apiError {
	switch reason {
	case auth.RejectionMissingAuthorizationHeader:
		return newAPIError(http.StatusUnauthorized, "missing_authorization_header", "auth", "the Authorization header is missing")
	case auth.RejectionAuthorizationHeader:
		return newAPIError(http.StatusUnauthorized, "missing_authorization_header", "auth", "the Authorization header is malformed")
	case auth.RejectionInvalidToken:
		return newAPIError(http.StatusForbidden, "invalid_api_key", "auth", "the provided token is invalid")
	case auth.RejectionInvalidAPIKey:
		return newAPIError(http.StatusForbidden, "invalid_api_key", "auth", "the provided API key is invalid")
	case auth.RejectionExpiredToken:
		return newAPIError(http.StatusForbidden, "invalid_api_key", "auth", "the provided API key has expired")
	default:
		return newAPIError(http.StatusForbidden, "invalid_api_key", "auth", "authentication failed")
	}
}

func writeError(c *mizu.Ctx, err error) error {
	apiErr := codeFor(err)
	return c.JSON(apiErr.status, errorBody{
		Message: apiErr.message,
		Code:    apiErr.code,
		Type:    apiErr.errType,
		Link:    docLink + apiErr.code,
	})
}
