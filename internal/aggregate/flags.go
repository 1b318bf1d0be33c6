package aggregate

// Flags are the orthogonal boolean modifiers that shape compilation and
// result encoding, per §4.D.
type Flags uint16

const (
	// FlagSimple marks a bare search request (no pipeline, no extended syntax).
	FlagSimple Flags = 1 << iota
	// FlagExtended marks a full aggregation request (GROUPBY/APPLY/FILTER/LOAD).
	// Mutually exclusive with FlagSimple — see Request.validateModeExclusivity.
	FlagExtended
	// FlagCursor means the request produces a cursor instead of one shot of rows.
	FlagCursor
	// FlagNoRows suppresses row output, returning only the result count.
	FlagNoRows
	// FlagSendScores includes each row's relevance score in the reply.
	FlagSendScores
	// FlagSendSortKeys includes each row's sort-key values in the reply.
	FlagSendSortKeys
	// FlagSendPayloads includes each row's document payload in the reply.
	FlagSendPayloads
	// FlagNoFields suppresses field values entirely (RETURN 0).
	FlagNoFields
	// FlagSendHighlight includes highlighted field fragments in the reply.
	FlagSendHighlight
	// FlagExplainScore includes the scorer's explanation breakdown.
	FlagExplainScore
	// FlagRawIDs returns internal document ids instead of resolved keys.
	FlagRawIDs
	// FlagTyped annotates each returned value with its resolved type.
	FlagTyped
)

func (f Flags) Has(want Flags) bool { return f&want == want }
func (f *Flags) Set(bit Flags)      { *f |= bit }
