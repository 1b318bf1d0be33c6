package pipeline

import (
	"strings"

	"ftaggregate/internal/aggerr"
	"ftaggregate/internal/rlookup"
)

// resolveExisting trims ref's leading "@" and resolves it against lk, the
// Lookup in scope where the reference was written (per §4.B/§4.F: every
// step resolves field names against the prevailing Lookup, open-or-create
// at the root and open-exclusive anywhere a step already owns its own
// schema). The root lookup's fields come from whatever the stored document
// happens to carry, which is never known in full ahead of time, so a
// reference against root always succeeds (and registers the name as
// DocSource if this is its first mention). Any other lookup only carries
// the fields its owning step actually produced, so a name missing there is
// a no-property error.
func resolveExisting(lk, root *rlookup.Lookup, ref string) (string, error) {
	name := strings.TrimPrefix(ref, "@")
	if lk == root {
		lk.GetKey(name, false, rlookup.DocSource)
		return name, nil
	}
	if lk.Find(name) == nil {
		return "", aggerr.New(aggerr.KindNoProperty, "no such property %q", name).WithKeyword(ref)
	}
	return name, nil
}

// resolveNew registers a field a step produces (a GROUPBY key carried
// forward, a reducer alias, an APPLY alias, a LOAD'd field) into lk,
// returning its canonical name.
func resolveNew(lk *rlookup.Lookup, ref string, flags rlookup.KeyFlags) string {
	name := strings.TrimPrefix(ref, "@")
	lk.GetKey(name, false, flags)
	return name
}
