// Package hierarchy answers inheritance questions over the classes of a
// workspace: ancestor chains, assignability, and the common superclass of two
// types. Unknown types are treated as direct subclasses of the root type.
package hierarchy
