package proto

import (
	"iter"
	"log"
	"slices"
	"sync"
)

// Options configures a Store for one record type.
type Options[T Record] struct {
	Kind Kind
	// Less orders the secondary (display) table. Ties are broken by vnum.
	Less func(a, b T) bool
	// Name returns the string FindByName matches against.
	Name func(rec T) string
}

// Store maps vnums to prototypes and keeps a secondary sorted order in
// lockstep with the primary table. Linkage lives here, not in records.
type Store[T Record] struct {
	mu     sync.RWMutex
	kind   Kind
	less   func(a, b T) bool
	name   func(rec T) string
	byVnum map[Vnum]T
	sorted []T
}

// NewStore creates an empty store.
func NewStore[T Record](opts Options[T]) *Store[T] {
	return &Store[T]{
		kind:   opts.Kind,
		less:   opts.Less,
		name:   opts.Name,
		byVnum: make(map[Vnum]T),
	}
}

// Kind returns the record kind held by the store.
func (s *Store[T]) Kind() Kind { return s.kind }

// Insert adds rec under its vnum. A duplicate vnum is logged and ignored,
// keeping the existing record; Insert reports whether rec was added.
func (s *Store[T]) Insert(rec T) bool {
	v := rec.Vnum()
	if v < 0 {
		log.Printf("proto: refusing to insert %s with vnum %d", s.kind, v)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byVnum[v]; ok {
		log.Printf("proto: WARNING: duplicate %s vnum %d ignored", s.kind, v)
		return false
	}
	s.byVnum[v] = rec
	s.sorted = append(s.sorted, rec)
	s.sortLocked()
	return true
}

// Lookup returns the prototype at v. Negative vnums are never present.
func (s *Store[T]) Lookup(v Vnum) (T, bool) {
	var zero T
	if v < 0 {
		return zero, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byVnum[v]
	if !ok {
		return zero, false
	}
	return rec, true
}

// Exists reports whether a prototype is stored at v.
func (s *Store[T]) Exists(v Vnum) bool {
	_, ok := s.Lookup(v)
	return ok
}

// Delete unlinks the prototype at v from both tables and returns it.
func (s *Store[T]) Delete(v Vnum) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byVnum[v]
	if !ok {
		return rec, false
	}
	delete(s.byVnum, v)
	s.sorted = slices.DeleteFunc(s.sorted, func(r T) bool { return r.Vnum() == v })
	return rec, true
}

// Resort re-sorts the secondary table, e.g. after a rename.
func (s *Store[T]) Resort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortLocked()
}

func (s *Store[T]) sortLocked() {
	slices.SortStableFunc(s.sorted, func(a, b T) int {
		if s.less != nil {
			if s.less(a, b) {
				return -1
			}
			if s.less(b, a) {
				return 1
			}
		}
		return int(a.Vnum()) - int(b.Vnum())
	})
}

// Len returns the number of stored prototypes.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byVnum)
}

// Sorted returns a snapshot of the secondary order.
func (s *Store[T]) Sorted() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.sorted)
}

// Vnums returns every stored vnum in ascending order.
func (s *Store[T]) Vnums() []Vnum {
	s.mu.RLock()
	out := make([]Vnum, 0, len(s.byVnum))
	for v := range s.byVnum {
		out = append(out, v)
	}
	s.mu.RUnlock()
	slices.Sort(out)
	return out
}

// All yields prototypes in vnum order. Each call starts a fresh pass;
// records deleted mid-iteration are skipped.
func (s *Store[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, v := range s.Vnums() {
			rec, ok := s.Lookup(v)
			if !ok {
				continue
			}
			if !yield(rec) {
				return
			}
		}
	}
}

// FindByName scans the sorted table for name. An exact case-insensitive
// match wins; otherwise the first record whose name matches word by word
// as an abbreviation is returned. Records in development, or rejected by
// filter, never match.
func (s *Store[T]) FindByName(name string, filter func(T) bool) (T, bool) {
	var zero, abbrev T
	found := false
	if s.name == nil || name == "" {
		return zero, false
	}
	for _, rec := range s.Sorted() {
		if rec.InDevelopment() || (filter != nil && !filter(rec)) {
			continue
		}
		n := s.name(rec)
		if FoldEqual(n, name) {
			return rec, true
		}
		if !found && WordsAbbrev(name, n) {
			abbrev, found = rec, true
		}
	}
	return abbrev, found
}
