// Package tasks runs I/O-bound operations on a bounded pool of workers.
//
// Submit returns a *Task immediately. Callers either Wait on it or supply a
// completion callback, which is invoked with no arguments once the task
// finishes, whatever its outcome.
//
// Thread-safety model:
//   - Submit(): safe from any goroutine
//   - Task.Wait(), Task.Err(): safe from any goroutine
//   - Close(): safe to call more than once
package tasks
