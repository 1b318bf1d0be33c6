package pipeline

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"ftaggregate/internal/aggerr"
)

// Accumulator folds one group's rows into a single field value. It mirrors
// this codebase's stats-accumulator pattern (one accumulator instance per
// group key, fed one row at a time, read once at the end).
type Accumulator interface {
	Add(row Row)
	Result() string
}

// ReducerFactory builds a fresh Accumulator for one REDUCE clause's
// argument tokens (already @-prefixed field references, numeric literals,
// or bare strings depending on the reducer).
type ReducerFactory func(args []string) (Accumulator, error)

// Reducers is the process-wide registry of built-in reducer functions,
// grounded on this codebase's aggregate-function dispatch table.
var Reducers = map[string]ReducerFactory{
	"COUNT":          newCountAccumulator,
	"SUM":            newFieldAccumulator(func() fieldFold { return &sumFold{} }),
	"AVG":            newFieldAccumulator(func() fieldFold { return &avgFold{} }),
	"MIN":            newFieldAccumulator(func() fieldFold { return &minFold{val: nil} }),
	"MAX":            newFieldAccumulator(func() fieldFold { return &maxFold{val: nil} }),
	"COUNT_DISTINCT": newFieldAccumulator(func() fieldFold { return &countDistinctFold{seen: map[string]struct{}{}} }),
	"TOLIST":         newFieldAccumulator(func() fieldFold { return &toListFold{} }),
	"FIRST_VALUE":    newFieldAccumulator(func() fieldFold { return &firstValueFold{} }),
}

// LookupReducer resolves a reducer by name, case-insensitively, returning
// an aggerr.KindNoReducer error when unknown.
func LookupReducer(name string) (ReducerFactory, error) {
	f, ok := Reducers[strings.ToUpper(name)]
	if !ok {
		return nil, aggerr.New(aggerr.KindNoReducer, "unknown reducer function %q", name).WithKeyword(name)
	}
	return f, nil
}

type countAccumulator struct{ n int }

func newCountAccumulator([]string) (Accumulator, error) { return &countAccumulator{}, nil }
func (c *countAccumulator) Add(Row)                     { c.n++ }
func (c *countAccumulator) Result() string               { return strconv.Itoa(c.n) }

// fieldFold is the per-value folding strategy behind the single-field
// reducers (SUM/AVG/MIN/MAX/...); newFieldAccumulator wraps one of these
// with the common "extract @field from each row" plumbing.
type fieldFold interface {
	add(v string)
	result() string
}

type fieldAccumulator struct {
	field string
	fold  fieldFold
}

func newFieldAccumulator(newFold func() fieldFold) ReducerFactory {
	return func(args []string) (Accumulator, error) {
		if len(args) == 0 {
			return nil, aggerr.New(aggerr.KindInvalidArgument, "reducer requires a @field argument")
		}
		return &fieldAccumulator{field: strings.TrimPrefix(args[0], "@"), fold: newFold()}, nil
	}
}

func (a *fieldAccumulator) Add(row Row) {
	if v, ok := row.Fields[a.field]; ok {
		a.fold.add(v)
	}
}
func (a *fieldAccumulator) Result() string { return a.fold.result() }

type sumFold struct{ total float64 }

func (f *sumFold) add(v string)    { n, _ := strconv.ParseFloat(v, 64); f.total += n }
func (f *sumFold) result() string { return strconv.FormatFloat(f.total, 'g', -1, 64) }

type avgFold struct {
	total float64
	n     int
}

func (f *avgFold) add(v string) {
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return
	}
	f.total += n
	f.n++
}
func (f *avgFold) result() string {
	if f.n == 0 {
		return "0"
	}
	return strconv.FormatFloat(f.total/float64(f.n), 'g', -1, 64)
}

type minFold struct{ val *float64 }

func (f *minFold) add(v string) {
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return
	}
	if f.val == nil || n < *f.val {
		f.val = &n
	}
}
func (f *minFold) result() string {
	if f.val == nil {
		return ""
	}
	return strconv.FormatFloat(*f.val, 'g', -1, 64)
}

type maxFold struct{ val *float64 }

func (f *maxFold) add(v string) {
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return
	}
	if f.val == nil || n > *f.val {
		f.val = &n
	}
}
func (f *maxFold) result() string {
	if f.val == nil {
		return ""
	}
	return strconv.FormatFloat(*f.val, 'g', -1, 64)
}

type countDistinctFold struct{ seen map[string]struct{} }

func (f *countDistinctFold) add(v string)    { f.seen[v] = struct{}{} }
func (f *countDistinctFold) result() string { return strconv.Itoa(len(f.seen)) }

type toListFold struct{ vals []string }

func (f *toListFold) add(v string) { f.vals = append(f.vals, v) }
func (f *toListFold) result() string {
	sorted := append([]string(nil), f.vals...)
	sort.Strings(sorted)
	return fmt.Sprintf("[%s]", strings.Join(sorted, ","))
}

type firstValueFold struct {
	val string
	set bool
}

func (f *firstValueFold) add(v string) {
	if !f.set {
		f.val, f.set = v, true
	}
}
func (f *firstValueFold) result() string { return f.val }
