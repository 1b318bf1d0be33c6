// Package aggerr defines the error-kind taxonomy shared by every layer of
// the aggregation core (ArgCursor, the parser, the pipeline builder, the
// extension registry, and the GC), modeled on the sentinel-error /
// structured-ParseError idiom used by this codebase's query expression
// parser.
package aggerr

import "fmt"

// Kind identifies the category of failure, independent of the message text.
type Kind int

const (
	// KindParseArgs indicates the token stream did not have the expected shape.
	KindParseArgs Kind = iota
	// KindInvalidArgument indicates a semantic conflict, e.g. mixing modes.
	KindInvalidArgument
	// KindLimit indicates a bound was exceeded.
	KindLimit
	// KindNoProperty indicates a referenced field does not exist in scope.
	KindNoProperty
	// KindNoReducer indicates an unknown reducer (aggregation function) name.
	KindNoReducer
	// KindNoScorer indicates an unknown scorer name.
	KindNoScorer
	// KindNoLanguage indicates an unknown language tag.
	KindNoLanguage
	// KindIO indicates a pipe/transport failure (used by the GC protocol).
	KindIO
	// KindTimeout indicates the query's cooperative clock expired.
	KindTimeout
	// KindOOM indicates a resource ceiling was hit.
	KindOOM
)

func (k Kind) String() string {
	switch k {
	case KindParseArgs:
		return "parse-args"
	case KindInvalidArgument:
		return "invalid-argument"
	case KindLimit:
		return "limit"
	case KindNoProperty:
		return "no-property"
	case KindNoReducer:
		return "no-reducer"
	case KindNoScorer:
		return "no-scorer"
	case KindNoLanguage:
		return "no-language"
	case KindIO:
		return "io"
	case KindTimeout:
		return "timeout"
	case KindOOM:
		return "oom"
	default:
		return "unknown"
	}
}

// Error is a structured error carrying a Kind, a human-readable Message,
// and (optionally) the offending Keyword that triggered it. It implements
// error and supports errors.Is against the Kind sentinels below via Is().
type Error struct {
	Kind    Kind
	Message string
	Keyword string
}

func (e *Error) Error() string {
	if e.Keyword != "" {
		return fmt.Sprintf("%s: %s (keyword %q)", e.Kind, e.Message, e.Keyword)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is implements errors.Is support against the Kind sentinel errors below,
// so callers can write errors.Is(err, aggerr.ErrNoProperty).
func (e *Error) Is(target error) bool {
	t, ok := target.(*sentinel)
	return ok && t.kind == e.Kind
}

// sentinel is a minimal error used only as an errors.Is target; its Error()
// text matches Kind.String() so it never leaks a confusing message.
type sentinel struct{ kind Kind }

func (s *sentinel) Error() string { return s.kind.String() }

// Sentinel Kind values for errors.Is comparisons, e.g.:
//
//	if errors.Is(err, aggerr.ErrNoProperty) { ... }
var (
	ErrParseArgs        error = &sentinel{KindParseArgs}
	ErrInvalidArgument  error = &sentinel{KindInvalidArgument}
	ErrLimit            error = &sentinel{KindLimit}
	ErrNoProperty       error = &sentinel{KindNoProperty}
	ErrNoReducer        error = &sentinel{KindNoReducer}
	ErrNoScorer         error = &sentinel{KindNoScorer}
	ErrNoLanguage       error = &sentinel{KindNoLanguage}
	ErrIO               error = &sentinel{KindIO}
	ErrTimeout          error = &sentinel{KindTimeout}
	ErrOOM              error = &sentinel{KindOOM}
)

// New constructs an Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithKeyword attaches the offending keyword to an Error, matching the
// spec's requirement that invalid-argument/parse-args errors name the
// keyword that triggered them.
func (e *Error) WithKeyword(keyword string) *Error {
	e.Keyword = keyword
	return e
}
