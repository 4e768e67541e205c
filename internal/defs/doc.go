// Package defs provides the generic definitions store: a typed,
// lazily materialized view over one or more flat record streams.
//
// A Store owns the in-memory flat values of its streams and the cached
// view computed from them. Callers only see deep copies of entities; every
// change goes through Add, Remove, Edit or Import, which rebuild the full
// entity list, re-flatten it and commit the new flat values as a whole.
//
// # Consistency
//
// One mutex per store guards the flat values, the dirty set and the view
// cache. It is held for the full extent of every operation, storage I/O
// included, and released on every exit path. A failed operation leaves
// the prior flat values in place.
//
// # Persistence
//
// Mutations commit to memory and mark the touched streams dirty. Save
// writes the dirty streams. With WithAutoSave the dirty streams are
// written before the mutation returns. Fetch re-reads every stream and
// discards unsaved local changes.
//
// # Async
//
// FetchAsync, SaveAsync, ImportAsync and ExportAsync run on a bounded
// worker pool (package tasks) and return a *tasks.Task. An optional
// callback is invoked with no arguments when the task finishes.
package defs
