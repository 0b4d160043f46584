// Package reconcile keeps a keyed list in sync with fresh snapshots and only
// reports a change when membership or a tracked field moved.
package reconcile

import (
	"slices"
)

type Diff[T any] struct {
	Added   []T
	Removed []T
	Updated []T
}

func (d Diff[T]) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Updated) == 0
}

type Reconciler[T any] struct {
	key     func(T) string
	tracked func(T) []string

	items []T
	index map[string]int
	ready bool
}

// New builds a reconciler identifying items by key and comparing the values
// returned by tracked.
func New[T any](key func(T) string, tracked func(T) []string) *Reconciler[T] {
	return &Reconciler[T]{key: key, tracked: tracked, index: map[string]int{}}
}

// Apply compares next with the current items. When nothing changed the
// current items are kept as they are and changed is false. The first snapshot
// always counts as a change.
func (r *Reconciler[T]) Apply(next []T) (diff Diff[T], changed bool) {
	nextIndex := make(map[string]int, len(next))
	for i, item := range next {
		nextIndex[r.key(item)] = i
	}

	for _, item := range next {
		i, ok := r.index[r.key(item)]
		if !ok {
			diff.Added = append(diff.Added, item)
			continue
		}
		if !slices.Equal(r.tracked(r.items[i]), r.tracked(item)) {
			diff.Updated = append(diff.Updated, item)
		}
	}
	for _, item := range r.items {
		if _, ok := nextIndex[r.key(item)]; !ok {
			diff.Removed = append(diff.Removed, item)
		}
	}

	if r.ready && diff.Empty() {
		return diff, false
	}
	r.items = append([]T(nil), next...)
	r.index = nextIndex
	r.ready = true
	return diff, true
}

func (r *Reconciler[T]) Items() []T {
	return append([]T(nil), r.items...)
}
