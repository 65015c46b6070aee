// Package worker runs long computations in the background.
//
// A Pool bounds how many jobs run at once and how many may wait for a slot.
// Submit returns a Job handle immediately; callers poll State, block in Wait
// or abandon the job with Cancel. Cancelling a running job discards its
// result but does not interrupt it: the computation still runs to
// completion and holds its slot until then.
package worker
