/*
Package engine wires the process together: the task queue, the live
index registry, the auth store, the scheduler, the event broker, and
the reconciler, all sharing one data directory. It is the concrete type
pkg/scheduler's Registry, pkg/reconciler's Lister, and pkg/metrics'
Source interfaces are written against, and the handle pkg/api's Server
is built around.

A single struct any other package reaches through, composed at the top
rather than threaded through every call site.
*/
package engine
