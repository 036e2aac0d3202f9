// Package scheduler provides a named, cancellable periodic task used to drive
// recurring background work such as the billing sweep.
//
// A Task waits an initial delay, then repeatedly runs its action and sleeps
// for max(0, repeat - elapsed) so a slow run does not push every following run
// later; a run that exceeds the interval is followed back-to-back by the next
// one. Panics and errors from the action are logged and never stop the
// schedule.
//
// Shutdown stops the task gracefully: an in-flight run finishes but no new run
// starts. Cancel interrupts immediately by cancelling the context passed to
// the action.
package scheduler
