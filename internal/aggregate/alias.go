package aggregate

import "strings"

// GenerateAlias builds the default alias for a reducer (or APPLY
// expression) that did not supply an explicit AS name:
//
//	__generated_alias<lower(fn)><lower(args joined by comma, @ stripped)>
func GenerateAlias(fn string, args []string) string {
	var b strings.Builder
	b.WriteString("__generated_alias")
	b.WriteString(strings.ToLower(fn))
	for i, a := range args {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strings.ToLower(strings.TrimPrefix(a, "@")))
	}
	return b.String()
}
