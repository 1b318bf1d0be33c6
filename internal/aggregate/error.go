package aggregate

import "ftaggregate/internal/aggerr"

// Error is the public error type this package returns, a thin alias over
// aggerr.Error so callers outside the aggregation core can do
// errors.Is(err, aggregate.ErrNoProperty) without importing internal/aggerr.
type Error = aggerr.Error

var (
	ErrParseArgs       = aggerr.ErrParseArgs
	ErrInvalidArgument = aggerr.ErrInvalidArgument
	ErrLimit           = aggerr.ErrLimit
	ErrNoProperty      = aggerr.ErrNoProperty
	ErrNoReducer       = aggerr.ErrNoReducer
	ErrNoScorer        = aggerr.ErrNoScorer
	ErrNoLanguage      = aggerr.ErrNoLanguage
	ErrIO              = aggerr.ErrIO
	ErrTimeout         = aggerr.ErrTimeout
	ErrOOM             = aggerr.ErrOOM
)
