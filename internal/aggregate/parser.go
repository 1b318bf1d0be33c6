package aggregate

import (
	"strings"

	"ftaggregate/internal/argcursor"
	"ftaggregate/internal/config"
	"ftaggregate/internal/rlookup"
)

// Parser turns a command's token list into a compiled Request. It
// dispatches top-level keywords in any order, the way an AC_GetString
// keyword loop does in the original command parser, rather than demanding
// a fixed grammar position for each clause.
type Parser struct{}

// Parse builds a Request from the index name, query string, and the
// remaining command tokens.
func (Parser) Parse(index, query string, args []string) (*Request, error) {
	req := New(index, query)
	c := argcursor.New(args)

	for c.NumRemaining() > 0 {
		switch {
		case c.AdvanceIfMatch("VERBATIM"):
			req.Search.Verbatim = true

		case c.AdvanceIfMatch("NOSTOPWORDS"):
			req.Search.NoStopwords = true

		case c.AdvanceIfMatch("WITHSCORES"):
			req.Flags.Set(FlagSendScores)

		case c.AdvanceIfMatch("WITHSORTKEYS"):
			req.Flags.Set(FlagSendSortKeys)

		case c.AdvanceIfMatch("WITHPAYLOADS"):
			req.Flags.Set(FlagSendPayloads)

		case c.AdvanceIfMatch("NOCONTENT"):
			req.Flags.Set(FlagNoFields)
			req.Flags.Set(FlagSimple)

		case c.AdvanceIfMatch("EXPLAINSCORE"):
			req.Flags.Set(FlagExplainScore)

		case c.AdvanceIfMatch("RAWIDS"):
			req.Flags.Set(FlagRawIDs)

		case c.AdvanceIfMatch("WITHTYPES"):
			req.Flags.Set(FlagTyped)

		case c.AdvanceIfMatch("INORDER"):
			req.Search.InOrder = true

		case c.AdvanceIfMatch("INFIELDS"):
			fields, err := readVarArgsSlice(c, "INFIELDS")
			if err != nil {
				return nil, err
			}
			req.Search.InFields = fields

		case c.AdvanceIfMatch("INKEYS"):
			keys, err := readVarArgsSlice(c, "INKEYS")
			if err != nil {
				return nil, err
			}
			req.Search.InKeys = keys

		case c.AdvanceIfMatch("SLOP"):
			n, err := c.GetI64()
			if err != nil {
				return nil, parseArgsf("SLOP", "expected an integer")
			}
			req.Search.Slop = int(n)

		case c.AdvanceIfMatch("EXPANDER"):
			name, err := c.GetString(false)
			if err != nil {
				return nil, parseArgsf("EXPANDER", "expected an expander name")
			}
			req.Search.Expander = name

		case c.AdvanceIfMatch("PAYLOAD"):
			payload, err := c.GetString(false)
			if err != nil {
				return nil, parseArgsf("PAYLOAD", "expected a payload string")
			}
			req.Search.Payload = []byte(payload)

		case c.AdvanceIfMatch("ON_TIMEOUT"):
			if err := parseOnTimeout(c, req); err != nil {
				return nil, err
			}

		case c.AdvanceIfMatch("RETURN"):
			if err := parseReturn(c, req); err != nil {
				return nil, err
			}

		case c.AdvanceIfMatch("SUMMARIZE"):
			if err := parseSummarize(c, req); err != nil {
				return nil, err
			}

		case c.AdvanceIfMatch("HIGHLIGHT"):
			if err := parseHighlight(c, req); err != nil {
				return nil, err
			}

		case c.AdvanceIfMatch("LANGUAGE"):
			lang, err := c.GetString(false)
			if err != nil {
				return nil, parseArgsf("LANGUAGE", "expected a language name")
			}
			req.Search.Language = lang

		case c.AdvanceIfMatch("SCORER"):
			name, err := c.GetString(false)
			if err != nil {
				return nil, parseArgsf("SCORER", "expected a scorer name")
			}
			req.Search.Scorer = name

		case c.AdvanceIfMatch("TIMEOUT"):
			ms, err := c.GetUnsigned()
			if err != nil {
				return nil, parseArgsf("TIMEOUT", "expected a millisecond count")
			}
			req.Timeout = ms

		case c.AdvanceIfMatch("PARAMS"):
			if err := parseParams(c, req); err != nil {
				return nil, err
			}

		case c.AdvanceIfMatch("LIMIT"):
			if err := parseLimit(c, req); err != nil {
				return nil, err
			}

		case c.AdvanceIfMatch("SORTBY"):
			if err := parseSortby(c, req); err != nil {
				return nil, err
			}

		case c.AdvanceIfMatch("GROUPBY"):
			if err := parseGroupby(c, req); err != nil {
				return nil, err
			}

		case c.AdvanceIfMatch("APPLY"):
			if err := parseApply(c, req); err != nil {
				return nil, err
			}

		case c.AdvanceIfMatch("FILTER"):
			if err := parseFilter(c, req); err != nil {
				return nil, err
			}

		case c.AdvanceIfMatch("LOAD"):
			if err := parseLoad(c, req); err != nil {
				return nil, err
			}

		case c.AdvanceIfMatch("WITHCURSOR"):
			req.Flags.Set(FlagCursor)
			if err := parseCursorOpts(c, req); err != nil {
				return nil, err
			}

		default:
			tok, _ := c.GetString(true)
			return nil, parseArgsf(tok, "unknown argument %q", tok)
		}
	}

	if !req.Flags.Has(FlagExtended) {
		req.Flags.Set(FlagSimple)
	}
	if err := req.Compile(nil); err != nil { //nolint:staticcheck // Compile accepts a context only for future collaborator calls.
		return nil, err
	}
	return req, nil
}

func promoteExtended(req *Request) {
	req.Flags.Set(FlagExtended)
}

func parseParams(c *argcursor.Cursor, req *Request) error {
	n, err := c.GetUnsigned()
	if err != nil {
		return parseArgsf("PARAMS", "expected an argument count")
	}
	if n%2 != 0 {
		return invalidArgumentf("PARAMS", "PARAMS count must be even (name/value pairs), got %d", n)
	}
	sub, err := c.GetSlice(n)
	if err != nil {
		return parseArgsf("PARAMS", "expected %d more tokens", n)
	}
	for i := 0; i < len(sub); i += 2 {
		req.Params[sub[i]] = sub[i+1]
	}
	return nil
}

func parseLimit(c *argcursor.Cursor, req *Request) error {
	offset, err := c.GetUnsigned()
	if err != nil {
		return parseArgsf("LIMIT", "expected an offset")
	}
	num, err := c.GetUnsigned()
	if err != nil {
		return parseArgsf("LIMIT", "expected a count")
	}
	step := latestArrangeStep(req)
	step.Offset = offset
	step.Limit = num
	return nil
}

// latestArrangeStep returns the plan's trailing ArrangeStep, creating and
// appending one if the last step isn't already an ArrangeStep. This lets
// SORTBY and LIMIT combine into the same step when adjacent, matching the
// single-processor fusion the original pipeline builder performs.
func latestArrangeStep(req *Request) *rlookup.ArrangeStep {
	tail := req.Plan.First()
	for {
		next, ok := req.Plan.Next(tail)
		if !ok {
			break
		}
		tail = next
	}
	if as, ok := tail.Step().(*rlookup.ArrangeStep); ok {
		return as
	}
	as := &rlookup.ArrangeStep{Offset: -1, Limit: -1}
	req.Plan.Append(as)
	return as
}

func parseSortby(c *argcursor.Cursor, req *Request) error {
	sub, err := c.GetVarArgs()
	if err != nil {
		return parseArgsf("SORTBY", "expected an argument count")
	}
	step := latestArrangeStep(req)
	var bitmap uint64
	idx := 0
	for sub.NumRemaining() > 0 {
		field, err := sub.GetString(false)
		if err != nil {
			return parseArgsf("SORTBY", "expected a sort field")
		}
		if !strings.HasPrefix(field, "@") {
			return invalidArgumentf("SORTBY", "sort field %q must begin with @", field)
		}
		asc := true
		if sub.AdvanceIfMatch("ASC") {
			asc = true
		} else if sub.AdvanceIfMatch("DESC") {
			asc = false
		}
		step.SortKeys = append(step.SortKeys, field)
		if asc {
			bitmap |= 1 << uint(idx)
		}
		idx++
		if idx > 64 {
			return parseArgsf("SORTBY", "too many sort keys, maximum is 64")
		}
	}
	step.AscBitmap = bitmap
	if c.AdvanceIfMatch("MAX") {
		max, err := c.GetUnsigned()
		if err != nil {
			return parseArgsf("SORTBY", "expected a MAX count")
		}
		step.Limit = max
	}
	return nil
}

func parseGroupby(c *argcursor.Cursor, req *Request) error {
	promoteExtended(req)
	sub, err := c.GetVarArgs()
	if err != nil {
		return parseArgsf("GROUPBY", "expected an argument count")
	}
	var keys []string
	for sub.NumRemaining() > 0 {
		k, err := sub.GetString(false)
		if err != nil {
			return parseArgsf("GROUPBY", "expected a field name")
		}
		keys = append(keys, k)
	}
	group := rlookup.NewGroupStep(keys)

	for c.AdvanceIfMatch("REDUCE") {
		fn, err := c.GetString(false)
		if err != nil {
			return parseArgsf("REDUCE", "expected a reducer function name")
		}
		rargs, err := c.GetVarArgs()
		if err != nil {
			return parseArgsf("REDUCE", "expected an argument count")
		}
		var argTokens []string
		for rargs.NumRemaining() > 0 {
			a, err := rargs.GetString(false)
			if err != nil {
				return parseArgsf("REDUCE", "malformed reducer arguments")
			}
			argTokens = append(argTokens, a)
		}
		alias := GenerateAlias(fn, argTokens)
		if c.AdvanceIfMatch("AS") {
			explicit, err := c.GetString(false)
			if err != nil {
				return parseArgsf("AS", "expected an alias")
			}
			alias = explicit
		}
		group.Reducers = append(group.Reducers, rlookup.Reducer{Func: fn, Args: argTokens, Alias: alias})
	}
	if len(group.Reducers) == 0 {
		return invalidArgumentf("GROUPBY", "GROUPBY requires at least one REDUCE clause")
	}
	req.Plan.Append(group)
	return nil
}

func parseApply(c *argcursor.Cursor, req *Request) error {
	promoteExtended(req)
	expr, err := c.GetString(false)
	if err != nil {
		return parseArgsf("APPLY", "expected an expression")
	}
	alias := GenerateAlias("apply", []string{expr})
	if c.AdvanceIfMatch("AS") {
		explicit, err := c.GetString(false)
		if err != nil {
			return parseArgsf("AS", "expected an alias")
		}
		alias = explicit
	} else {
		return invalidArgumentf("APPLY", "APPLY requires an AS alias")
	}
	req.Plan.Append(&rlookup.ApplyStep{Expr: expr, Alias: alias})
	return nil
}

func parseFilter(c *argcursor.Cursor, req *Request) error {
	promoteExtended(req)
	expr, err := c.GetString(false)
	if err != nil {
		return parseArgsf("FILTER", "expected an expression")
	}
	req.Plan.Append(&rlookup.FilterStep{Expr: expr})
	return nil
}

func parseLoad(c *argcursor.Cursor, req *Request) error {
	promoteExtended(req)
	if c.AdvanceIfMatch("*") {
		req.Plan.Append(&rlookup.LoadStep{LoadAll: true})
		return nil
	}
	sub, err := c.GetVarArgs()
	if err != nil {
		return parseArgsf("LOAD", "expected an argument count or '*'")
	}
	var fields []string
	for sub.NumRemaining() > 0 {
		f, err := sub.GetString(false)
		if err != nil {
			return parseArgsf("LOAD", "expected a field name")
		}
		fields = append(fields, f)
	}
	req.Plan.Append(&rlookup.LoadStep{Fields: fields})
	return nil
}

func parseCursorOpts(c *argcursor.Cursor, req *Request) error {
	ceiling := config.Default().MaxIdleCeilingMS
	if req.Cursor.MaxIdle == 0 {
		req.Cursor.MaxIdle = ceiling
	}
	for {
		switch {
		case c.AdvanceIfMatch("COUNT"):
			n, err := c.GetUnsigned()
			if err != nil {
				return parseArgsf("COUNT", "expected a row count")
			}
			req.Cursor.Count = n
		case c.AdvanceIfMatch("MAXIDLE"):
			n, err := c.GetUnsigned()
			if err != nil {
				return parseArgsf("MAXIDLE", "expected a millisecond count")
			}
			req.Cursor.MaxIdle = min(n, ceiling)
		default:
			return nil
		}
	}
}

// readVarArgsSlice reads a count-prefixed sub-argument list and returns its
// raw tokens, for keywords (INFIELDS/INKEYS) whose sub-args are plain
// field names with no per-entry modifiers.
func readVarArgsSlice(c *argcursor.Cursor, keyword string) ([]string, error) {
	sub, err := c.GetVarArgs()
	if err != nil {
		return nil, parseArgsf(keyword, "expected an argument count")
	}
	toks, err := sub.GetSlice(sub.NumRemaining())
	if err != nil {
		return nil, parseArgsf(keyword, "malformed argument list")
	}
	return toks, nil
}

func parseOnTimeout(c *argcursor.Cursor, req *Request) error {
	policy, err := c.GetString(false)
	if err != nil {
		return parseArgsf("ON_TIMEOUT", "expected a timeout policy")
	}
	switch strings.ToUpper(policy) {
	case "RETURN":
		req.Search.OnTimeout = OnTimeoutReturn
	case "FAIL":
		req.Search.OnTimeout = OnTimeoutFail
	default:
		return invalidArgumentf("ON_TIMEOUT", "%q is not a valid timeout policy", policy)
	}
	return nil
}

// parseReturn implements RETURN n field [AS alias]...: forces simple mode,
// and (per the "RETURN 0 still runs the restriction pass" edge case)
// leaves ReturnFields non-nil but empty when the count is zero so
// downstream code can tell "RETURN 0" apart from "no RETURN clause at all".
func parseReturn(c *argcursor.Cursor, req *Request) error {
	req.Flags.Set(FlagSimple)
	sub, err := c.GetVarArgs()
	if err != nil {
		return parseArgsf("RETURN", "expected an argument count")
	}
	fields := []ReturnField{}
	for sub.NumRemaining() > 0 {
		name, err := sub.GetString(false)
		if err != nil {
			return parseArgsf("RETURN", "expected a field name")
		}
		rf := ReturnField{Name: strings.TrimPrefix(name, "@")}
		if sub.AdvanceIfMatch("AS") {
			alias, err := sub.GetString(false)
			if err != nil {
				return parseArgsf("RETURN", "expected an alias after AS")
			}
			rf.As = alias
		}
		fields = append(fields, rf)
	}
	req.Search.ReturnFields = fields
	if len(fields) == 0 {
		req.Flags.Set(FlagNoFields)
	}
	return nil
}

// parseSummarize implements SUMMARIZE [FIELDS n field...] [FRAGS n] [LEN n]
// [SEPARATOR sep]; like HIGHLIGHT, it forces simple mode and implies
// send-highlight (the reference formatter treats summarized fragments as
// a highlight variant).
func parseSummarize(c *argcursor.Cursor, req *Request) error {
	req.Flags.Set(FlagSimple)
	req.Flags.Set(FlagSendHighlight)
	opts := &req.Search.Summarize
	opts.Set = true
	opts.FragCount = -1
	opts.FragLen = -1
	if c.AdvanceIfMatch("FIELDS") {
		fields, err := readVarArgsSlice(c, "SUMMARIZE")
		if err != nil {
			return err
		}
		for _, f := range fields {
			opts.Fields = append(opts.Fields, strings.TrimPrefix(f, "@"))
		}
	}
	if c.AdvanceIfMatch("FRAGS") {
		n, err := c.GetUnsigned()
		if err != nil {
			return parseArgsf("SUMMARIZE", "expected a FRAGS count")
		}
		opts.FragCount = n
	}
	if c.AdvanceIfMatch("LEN") {
		n, err := c.GetUnsigned()
		if err != nil {
			return parseArgsf("SUMMARIZE", "expected a LEN count")
		}
		opts.FragLen = n
	}
	if c.AdvanceIfMatch("SEPARATOR") {
		sep, err := c.GetString(false)
		if err != nil {
			return parseArgsf("SUMMARIZE", "expected a SEPARATOR string")
		}
		opts.Separator = sep
	}
	return nil
}

// parseHighlight implements HIGHLIGHT [FIELDS n field...] [TAGS open close].
func parseHighlight(c *argcursor.Cursor, req *Request) error {
	req.Flags.Set(FlagSimple)
	req.Flags.Set(FlagSendHighlight)
	opts := &req.Search.Highlight
	opts.Set = true
	opts.OpenTag = "<b>"
	opts.CloseTag = "</b>"
	if c.AdvanceIfMatch("FIELDS") {
		fields, err := readVarArgsSlice(c, "HIGHLIGHT")
		if err != nil {
			return err
		}
		for _, f := range fields {
			opts.Fields = append(opts.Fields, strings.TrimPrefix(f, "@"))
		}
	}
	if c.AdvanceIfMatch("TAGS") {
		open, err := c.GetString(false)
		if err != nil {
			return parseArgsf("HIGHLIGHT", "expected an open tag")
		}
		closeTag, err := c.GetString(false)
		if err != nil {
			return parseArgsf("HIGHLIGHT", "expected a close tag")
		}
		opts.OpenTag = open
		opts.CloseTag = closeTag
	}
	return nil
}
