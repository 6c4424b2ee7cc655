package sets

import (
	"cmp"
	"slices"
	"sync"
)

// Set is a simple generic hash set for comparable keys.
// Usage: s := sets.New[string]("a","b"); s.Add("c"); if s.Has("b") {...}
type Set[T comparable] map[T]struct{}

// New creates a set pre-populated with the provided values.
func New[T comparable](vals ...T) Set[T] {
	s := make(Set[T], len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts value into the set and reports whether it was absent.
func (s Set[T]) Add(v T) bool {
	if _, ok := s[v]; ok {
		return false
	}
	s[v] = struct{}{}
	return true
}

// Has returns true if v is present.
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Delete removes v if present.
func (s Set[T]) Delete(v T) { delete(s, v) }

// Sorted returns the members of an ordered set in ascending order.
func Sorted[T cmp.Ordered](s Set[T]) []T {
	out := make([]T, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Sync is a Set guarded by a mutex, safe for concurrent writers.
type Sync[T comparable] struct {
	mu  sync.Mutex
	set Set[T]
}

// NewSync creates an empty concurrent set.
func NewSync[T comparable]() *Sync[T] {
	return &Sync[T]{set: New[T]()}
}

// Add inserts v and reports whether it was absent.
func (s *Sync[T]) Add(v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.Add(v)
}

// Has returns true if v is present.
func (s *Sync[T]) Has(v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.Has(v)
}

// Len returns the number of members.
func (s *Sync[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.set)
}

// Snapshot returns a copy of the current members.
func (s *Sync[T]) Snapshot() Set[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(Set[T], len(s.set))
	for k := range s.set {
		out[k] = struct{}{}
	}
	return out
}
