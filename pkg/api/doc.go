/*
Package api is the Wire API: an HTTP/JSON surface over pkg/engine built
with github.com/go-mizu/mizu, carrying a plain bearer-token HTTP
contract.

Routes fall into two families. Read routes (search, facet-search,
document/task/key lookups, settings reads, health/stats/version) call
straight into the engine and answer synchronously. Write routes
(index/document/settings mutation, task cancellation/deletion) enqueue a
task and answer 202 with the task stub immediately, a per-handler
sync/async split rather than a global interceptor.

Authentication is a bespoke middleware built in mizu's own
func(Handler) Handler shape rather than middlewares/bearerauth, because
pkg/auth.Gate.Authenticate returns one of five RejectionReasons that
need distinct status codes (401 missing header, 403 malformed/invalid/
expired token) instead of bearerauth's single valid/invalid boolean.
middlewares/bodylimit and middlewares/ratelimit are used unmodified for
the 413 and 429 boundaries.
*/
package api
