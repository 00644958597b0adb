package diag

// Bag is the ordered diagnostics sequence shared by every phase of one
// pipeline run. Insertion order is preserved and nothing is ever dropped
// implicitly; entries leave the bag only through RemoveAt.
//
// Bag has no internal locking. The driver runs one module at a time.
type Bag struct {
	items []Diagnostic
}

func NewBag(initial ...Diagnostic) *Bag {
	b := &Bag{items: make([]Diagnostic, 0, max(len(initial), 8))}
	b.items = append(b.items, initial...)
	return b
}

// Add appends a diagnostic.
func (b *Bag) Add(d Diagnostic) {
	b.items = append(b.items, d)
}

// AddAll appends diagnostics in the given order.
func (b *Bag) AddAll(ds ...Diagnostic) {
	b.items = append(b.items, ds...)
}

// At returns the i-th diagnostic. It panics when i is out of range, like a slice.
func (b *Bag) At(i int) Diagnostic {
	return b.items[i]
}

// Set replaces the i-th diagnostic in place.
func (b *Bag) Set(i int, d Diagnostic) {
	b.items[i] = d
}

// RemoveAt deletes the i-th diagnostic, keeping the order of the rest.
func (b *Bag) RemoveAt(i int) {
	b.items = append(b.items[:i], b.items[i+1:]...)
}

func (b *Bag) Len() int {
	if b == nil {
		return 0
	}
	return len(b.items)
}

// Items returns a copy of the diagnostics in insertion order.
func (b *Bag) Items() []Diagnostic {
	if b == nil {
		return nil
	}
	out := make([]Diagnostic, len(b.items))
	copy(out, b.items)
	return out
}

// HasErrors reports whether any diagnostic has Severity >= Error.
func (b *Bag) HasErrors() bool {
	return b.Count(SevError) > 0
}

// HasWarnings reports whether any diagnostic has Severity >= Warning.
func (b *Bag) HasWarnings() bool {
	return b.Count(SevWarning) > 0
}

// Count returns the number of diagnostics with severity >= sev.
func (b *Bag) Count(sev Severity) int {
	if b == nil {
		return 0
	}
	n := 0
	for i := range b.items {
		if b.items[i].Severity >= sev {
			n++
		}
	}
	return n
}

// FirstError returns the first error-level diagnostic, if any.
func (b *Bag) FirstError() (Diagnostic, bool) {
	if b == nil {
		return Diagnostic{}, false
	}
	for i := range b.items {
		if b.items[i].Severity >= SevError {
			return b.items[i], true
		}
	}
	return Diagnostic{}, false
}
