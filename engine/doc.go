// Package engine implements the approval workflow engine: one lifecycle per
// submitted request, driving prompt dispatch, decision collection, deadline
// resolution and audit persistence. Every request owns an independent parked
// wait; the first of {decision callback, deadline} to occur commits the
// terminal status exactly once.
package engine
