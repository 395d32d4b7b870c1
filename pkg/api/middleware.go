package api

import (
	"context"

	"github.com/lexidb/lexidb/pkg/auth"
	"github.com/lexidb/lexidb/pkg/types"
	"github.com/go-mizu/mizu"
)

type principalKey struct{}

// principalFrom returns the Principal the auth middleware resolved for
// this request. Only call from a handler mounted behind requireAuth.
func principalFrom(c *mizu.Ctx) auth.Principal {
	p, _ := c.Context().Value(principalKey{}).(auth.Principal)
	return p
}

// requireAuth authenticates the Authorization header against gate,
// stashes the resolved Principal on the request context, and maps each
// of the gate's five RejectionReasons to its own status/body — the
// generalization middlewares/bearerauth's boolean validator can't
// express.
func requireAuth(gate *auth.Gate) mizu.Middleware {
	return func(next mizu.Handler) mizu.Handler {
		return func(c *mizu.Ctx) error {
			principal, reason := gate.Authenticate(c.Request().Header.Get("Authorization"))
			if reason != auth.RejectionNone {
				return writeError(c, rejectionError(reason))
			}

			ctx := context.WithValue(c.Request().Context(), principalKey{}, principal)
			*c.Request() = *c.Request().WithContext(ctx)
			return next(c)
		}
	}
}

// authorize checks the request's already-resolved Principal against
// action for indexUID, writing the standard 403 body and returning
// false if the key doesn't permit it. Handlers call this themselves
// rather than through a generic middleware, since each route knows its
// own action and index parameter statically.
func authorize(c *mizu.Ctx, gate *auth.Gate, action types.Action, indexUID string) bool {
	if gate.Authorize(principalFrom(c), action, indexUID) {
		return true
	}
	_ = writeError(c, newAPIError(403, "invalid_api_key", "auth", "the provided API key does not permit this action"))
	return false
}
