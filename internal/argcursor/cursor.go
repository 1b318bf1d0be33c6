// Package argcursor implements a positional iterator over a command's
// token arguments, with typed extractors and a declarative arg-spec table
// for keyword dispatch — the lowest-level building block the parser uses
// to walk LIMIT/SORTBY/GROUPBY/... argument lists.
package argcursor

import (
	"strconv"
	"strings"

	"ftaggregate/internal/aggerr"
)

// Cursor is a positional iterator over a slice of string tokens.
type Cursor struct {
	tokens []string
	pos    int
}

// New creates a Cursor over tokens, starting at position 0.
func New(tokens []string) *Cursor {
	return &Cursor{tokens: tokens}
}

// NumRemaining returns how many tokens remain unconsumed.
func (c *Cursor) NumRemaining() int {
	return len(c.tokens) - c.pos
}

// Pos returns the current cursor position, for error reporting.
func (c *Cursor) Pos() int { return c.pos }

// AdvanceIfMatch case-insensitively compares the current token to keyword;
// if it matches, consumes it and returns true.
func (c *Cursor) AdvanceIfMatch(keyword string) bool {
	if c.pos >= len(c.tokens) {
		return false
	}
	if !strings.EqualFold(c.tokens[c.pos], keyword) {
		return false
	}
	c.pos++
	return true
}

// GetString returns the current token. If noAdvance is false, the cursor
// advances past it.
func (c *Cursor) GetString(noAdvance bool) (string, error) {
	if c.pos >= len(c.tokens) {
		return "", aggerr.New(aggerr.KindParseArgs, "expected a string argument, got end of input")
	}
	s := c.tokens[c.pos]
	if !noAdvance {
		c.pos++
	}
	return s, nil
}

// GetU64 parses the current token as an unsigned 64-bit integer and advances.
func (c *Cursor) GetU64() (uint64, error) {
	s, err := c.GetString(true)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, aggerr.New(aggerr.KindParseArgs, "expected an unsigned integer, got %q", s)
	}
	c.pos++
	return n, nil
}

// GetI64 parses the current token as a signed 64-bit integer and advances.
func (c *Cursor) GetI64() (int64, error) {
	s, err := c.GetString(true)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, aggerr.New(aggerr.KindParseArgs, "expected an integer, got %q", s)
	}
	c.pos++
	return n, nil
}

// GetUnsigned parses the current token as a non-negative int and advances.
func (c *Cursor) GetUnsigned() (int, error) {
	n, err := c.GetU64()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// GetSlice returns the next n tokens without interpretation and advances past them.
func (c *Cursor) GetSlice(n int) ([]string, error) {
	if c.NumRemaining() < n {
		return nil, aggerr.New(aggerr.KindParseArgs, "expected %d more arguments, got %d", n, c.NumRemaining())
	}
	out := c.tokens[c.pos : c.pos+n]
	c.pos += n
	return out, nil
}

// GetVarArgs reads a leading count token, then returns a child Cursor over
// exactly that many following tokens (e.g. `GROUPBY n @field...`).
func (c *Cursor) GetVarArgs() (*Cursor, error) {
	n, err := c.GetUnsigned()
	if err != nil {
		return nil, err
	}
	toks, err := c.GetSlice(n)
	if err != nil {
		return nil, err
	}
	return New(toks), nil
}

// SpecKind identifies the expected shape of an arg-spec entry.
type SpecKind int

const (
	SpecString SpecKind = iota
	SpecInt
	SpecUint
	SpecBitFlag
	SpecSubArgs
)

// Spec describes how to parse and store one keyword's argument(s).
type Spec struct {
	Keyword string
	Kind    SpecKind
	Target  any // *string, *int64, *uint64, *bool, or *Cursor, matching Kind
}

// ParseSpecResult is the outcome of one ParseArgSpec pass.
type ParseSpecResult int

const (
	// SpecNotFound means the keyword was absent; the cursor was not advanced.
	SpecNotFound ParseSpecResult = iota
	// SpecOK means the keyword matched and its value was stored in Target.
	SpecOK
	// SpecError means the keyword matched but its value failed to parse;
	// the caller should inspect the returned error. The cursor's position
	// after a SpecError is implementation-defined but never past the
	// failed spec's own tokens — ParseArgSpec never advances past a
	// failed spec, matching §4.A's invariant.
	SpecError
)

// ParseArgSpec applies a single spec against the cursor's current position.
// It never advances the cursor when the keyword is absent, and never
// advances past the keyword's own arguments when parsing of the value
// fails.
func ParseArgSpec(c *Cursor, spec Spec) (ParseSpecResult, error) {
	start := c.pos
	if !c.AdvanceIfMatch(spec.Keyword) {
		return SpecNotFound, nil
	}

	switch spec.Kind {
	case SpecBitFlag:
		target, ok := spec.Target.(*bool)
		if !ok {
			return SpecError, aggerr.New(aggerr.KindInvalidArgument, "internal: bad target type for flag %q", spec.Keyword)
		}
		*target = true
		return SpecOK, nil

	case SpecString:
		target, ok := spec.Target.(*string)
		if !ok {
			return SpecError, aggerr.New(aggerr.KindInvalidArgument, "internal: bad target type for %q", spec.Keyword)
		}
		s, err := c.GetString(false)
		if err != nil {
			c.pos = start + 1
			return SpecError, err.(*aggerr.Error).WithKeyword(spec.Keyword)
		}
		*target = s
		return SpecOK, nil

	case SpecInt:
		target, ok := spec.Target.(*int64)
		if !ok {
			return SpecError, aggerr.New(aggerr.KindInvalidArgument, "internal: bad target type for %q", spec.Keyword)
		}
		n, err := c.GetI64()
		if err != nil {
			c.pos = start + 1
			return SpecError, err.(*aggerr.Error).WithKeyword(spec.Keyword)
		}
		*target = n
		return SpecOK, nil

	case SpecUint:
		target, ok := spec.Target.(*uint64)
		if !ok {
			return SpecError, aggerr.New(aggerr.KindInvalidArgument, "internal: bad target type for %q", spec.Keyword)
		}
		n, err := c.GetU64()
		if err != nil {
			c.pos = start + 1
			return SpecError, err.(*aggerr.Error).WithKeyword(spec.Keyword)
		}
		*target = n
		return SpecOK, nil

	case SpecSubArgs:
		target, ok := spec.Target.(**Cursor)
		if !ok {
			return SpecError, aggerr.New(aggerr.KindInvalidArgument, "internal: bad target type for %q", spec.Keyword)
		}
		sub, err := c.GetVarArgs()
		if err != nil {
			c.pos = start + 1
			return SpecError, err.(*aggerr.Error).WithKeyword(spec.Keyword)
		}
		*target = sub
		return SpecOK, nil

	default:
		return SpecError, aggerr.New(aggerr.KindInvalidArgument, "internal: unknown spec kind for %q", spec.Keyword)
	}
}
