package aggregate

import "ftaggregate/internal/aggerr"

func parseArgsf(keyword, format string, args ...any) *aggerr.Error {
	return aggerr.New(aggerr.KindParseArgs, format, args...).WithKeyword(keyword)
}

func invalidArgumentf(keyword, format string, args ...any) *aggerr.Error {
	e := aggerr.New(aggerr.KindInvalidArgument, format, args...)
	if keyword != "" {
		e = e.WithKeyword(keyword)
	}
	return e
}

func limitf(keyword, format string, args ...any) *aggerr.Error {
	return aggerr.New(aggerr.KindLimit, format, args...).WithKeyword(keyword)
}
