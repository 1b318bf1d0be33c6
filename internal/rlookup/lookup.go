// Package rlookup implements the named-field schema (Lookup) that flows
// between aggregation plan steps, and the plan itself (AggPlan): an
// ordered list of typed steps with a schema-resolution walk.
//
// This is a different "lookup" concept from field-enrichment lookups
// (IP/ASN/geoip tables) — here a Lookup is a per-step registry of named
// keys, the schema the pipeline flows row values through.
package rlookup

// KeyFlags are orthogonal properties of a Key.
type KeyFlags uint8

const (
	// DocSource marks a key whose value originates from a stored document field.
	DocSource KeyFlags = 1 << iota
	// SortValueSource marks a key that is sortable without reloading the document.
	SortValueSource
	// ExplicitReturn marks a key selected by name in a RETURN clause.
	ExplicitReturn
)

// Has reports whether all bits in want are set in f.
func (f KeyFlags) Has(want KeyFlags) bool { return f&want == want }

// Key is a single named field flowing through the pipeline.
type Key struct {
	Name  string
	Flags KeyFlags
}

// Lookup is an ordered, append-only (within a step) set of named keys.
type Lookup struct {
	keys  []*Key
	index map[string]int
}

// New creates an empty Lookup.
func New() *Lookup {
	return &Lookup{index: make(map[string]int)}
}

// Keys returns the keys in insertion order. Callers must not mutate the slice.
func (l *Lookup) Keys() []*Key { return l.keys }

// Find returns the key with the given name, or nil if absent.
func (l *Lookup) Find(name string) *Key {
	if i, ok := l.index[name]; ok {
		return l.keys[i]
	}
	return nil
}

// GetKey implements the two creation modes from §4.B:
//
//   - open-or-create (exclusive=false): returns the existing key if
//     present, otherwise creates and appends one. Always succeeds.
//   - open-exclusive (exclusive=true): creates and appends a new key only
//     if absent; if a key with that name already exists, returns (nil,
//     false) — "absent" — without modifying the lookup.
//
// ok is true iff a key was returned (existing or newly created).
func (l *Lookup) GetKey(name string, exclusive bool, flags KeyFlags) (key *Key, ok bool) {
	if i, present := l.index[name]; present {
		if exclusive {
			return nil, false
		}
		return l.keys[i], true
	}
	k := &Key{Name: name, Flags: flags}
	l.index[name] = len(l.keys)
	l.keys = append(l.keys, k)
	return k, true
}
