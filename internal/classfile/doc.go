// Package classfile defines the structural representation of a class and the
// codec that converts it to and from its stored byte form.
//
// The stored form is a YAML document. Derived data (per-method frames) is never
// trusted on input: the encoder recomputes it from each method's join points
// using an inheritance Hierarchy.
package classfile
