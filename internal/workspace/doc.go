// Package workspace models the classes a pipeline run operates on.
//
// A Workspace has one primary Resource (the classes being rewritten) and any
// number of supporting resources (libraries consulted for type information).
// A Resource is a set of named Bundles, and bundles may nest. Every class is an
// immutable ClassInfo record keyed by its internal name (e.g. com/example/Foo).
//
// Resources persist to a directory tree:
//
//	<resource>/
//	  <bundle>/
//	    classes/com/example/Foo.class
//	    bundles/<child>/classes/...
package workspace
