// Package transform runs an ordered set of transformers over every class of a
// workspace resource until no transformer produces further change.
//
// A run resolves the requested transformer names into a dependency-respecting
// queue, calls each transformer's Setup once, and then sweeps every bundle in
// passes. Within a pass each transformer processes all classes of the bundle
// in parallel on a shared worker pool; the next transformer starts only after
// the batch completes. A pass in which nothing changed ends the loop for that
// bundle. Prunable transformers that did no work in a pass are dropped from
// later passes.
//
// Transformers read and write class state only through the Context. Changes
// are collected into an immutable Result; nothing reaches the workspace until
// Result.Apply is called.
//
// Errors from Transform are recorded per class and never abort the run.
// Dependency cycles, unknown transformer names and Setup failures are fatal
// and returned as a transform-category ClassifiedError.
package transform
