// Package errors provides the classified error primitives used across classforge.
//
// A ClassifiedError carries a category (config, workspace, codec, transform, ...),
// a severity, a message, an optional cause and a free-form context map. Errors are
// built through a fluent builder:
//
//	err := errors.TransformError("dependency cycle").
//		WithContext("chain", "a -> b -> a").
//		WithCause(cycleErr).
//		Build()
//
// The CLI adapter maps categories to process exit codes.
package errors
