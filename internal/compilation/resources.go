package compilation

import (
	"slices"
)

// ResourceList presents a ResourceResolver as a mutable list. Every method
// except Resolved forces resolution first and returns the resolver's error.
type ResourceList struct {
	r *ResourceResolver
}

func (l *ResourceList) Resolver() *ResourceResolver { return l.r }

// Resolved reports whether the producer has already run, without forcing it.
func (l *ResourceList) Resolved() bool {
	return l.r.State() != Unresolved
}

func (l *ResourceList) Len() (int, error) {
	items, err := l.r.Resolve()
	return len(items), err
}

// At returns the i-th resource. It panics when i is out of range.
func (l *ResourceList) At(i int) (ResourceDescription, error) {
	items, err := l.r.Resolve()
	if err != nil {
		return ResourceDescription{}, err
	}
	return items[i], nil
}

// Items returns a copy of the resources.
func (l *ResourceList) Items() ([]ResourceDescription, error) {
	items, err := l.r.Resolve()
	if err != nil {
		return nil, err
	}
	return slices.Clone(items), nil
}

// Find returns the first resource named name.
func (l *ResourceList) Find(name string) (ResourceDescription, bool, error) {
	items, err := l.r.Resolve()
	if err != nil {
		return ResourceDescription{}, false, err
	}
	for _, res := range items {
		if res.Name == name {
			return res, true, nil
		}
	}
	return ResourceDescription{}, false, nil
}

func (l *ResourceList) Append(res ...ResourceDescription) error {
	items, err := l.r.Resolve()
	if err != nil {
		return err
	}
	l.r.set(append(items, res...))
	return nil
}

// RemoveAt deletes the i-th resource. It panics when i is out of range.
func (l *ResourceList) RemoveAt(i int) error {
	items, err := l.r.Resolve()
	if err != nil {
		return err
	}
	l.r.set(slices.Delete(items, i, i+1))
	return nil
}

// Remove deletes every resource named name and reports whether any matched.
func (l *ResourceList) Remove(name string) (bool, error) {
	items, err := l.r.Resolve()
	if err != nil {
		return false, err
	}
	n := len(items)
	items = slices.DeleteFunc(items, func(res ResourceDescription) bool { return res.Name == name })
	l.r.set(items)
	return len(items) != n, nil
}

func (l *ResourceList) Clear() error {
	if _, err := l.r.Resolve(); err != nil {
		return err
	}
	l.r.set([]ResourceDescription{})
	return nil
}
