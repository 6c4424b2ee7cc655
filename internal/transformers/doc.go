// Package transformers contains the built-in transformers and the factory
// that builds a transform.Registry from per-transformer options.
package transformers
