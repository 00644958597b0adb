package compilation

import (
	"slices"

	"kiln/internal/compiler"
)

// List is an ordered mutable sequence with no internal locking.
type List[T any] struct {
	items []T
}

// NewList copies items into a new list.
func NewList[T any](items ...T) *List[T] {
	return &List[T]{items: slices.Clone(items)}
}

func (l *List[T]) Len() int { return len(l.items) }

// At returns the i-th element. It panics when i is out of range.
func (l *List[T]) At(i int) T { return l.items[i] }

func (l *List[T]) Set(i int, v T) { l.items[i] = v }

// Items returns a copy in list order.
func (l *List[T]) Items() []T { return slices.Clone(l.items) }

func (l *List[T]) Append(v ...T) { l.items = append(l.items, v...) }

// Insert places v before index i.
func (l *List[T]) Insert(i int, v ...T) { l.items = slices.Insert(l.items, i, v...) }

func (l *List[T]) RemoveAt(i int) { l.items = slices.Delete(l.items, i, i+1) }

// RemoveFunc deletes every element for which del returns true and reports
// how many were removed.
func (l *List[T]) RemoveFunc(del func(T) bool) int {
	n := len(l.items)
	l.items = slices.DeleteFunc(l.items, del)
	return n - len(l.items)
}

// Index returns the position of the first element matching f, or -1.
func (l *List[T]) Index(f func(T) bool) int { return slices.IndexFunc(l.items, f) }

func (l *List[T]) Clear() { l.items = l.items[:0] }

// ReferenceList holds the metadata references passed to the compiler.
type ReferenceList = List[compiler.Reference]

// ModuleList is the live list of compile modules for one run.
type ModuleList = List[Module]
