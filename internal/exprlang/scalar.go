package exprlang

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ScalarFuncNames is the canonical list of built-in scalar function names
// available inside APPLY/FILTER expressions.
var ScalarFuncNames = []string{
	"tonumber", "tostring",
	"abs", "ceil", "floor", "sqrt", "round",
	"len", "lower", "upper", "substr", "concat",
	"coalesce",
}

func (e *Evaluator) registerBuiltins() {
	e.funcs["tonumber"] = builtinToNumber
	e.funcs["tostring"] = builtinToString
	e.funcs["abs"] = mathFunc1("abs", math.Abs)
	e.funcs["ceil"] = mathFunc1("ceil", math.Ceil)
	e.funcs["floor"] = mathFunc1("floor", math.Floor)
	e.funcs["sqrt"] = mathFunc1("sqrt", math.Sqrt)
	e.funcs["round"] = builtinRound
	e.funcs["len"] = builtinLen
	e.funcs["lower"] = builtinLower
	e.funcs["upper"] = builtinUpper
	e.funcs["substr"] = builtinSubstr
	e.funcs["concat"] = builtinConcat
	e.funcs["coalesce"] = builtinCoalesce
}

func builtinToNumber(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, fmt.Errorf("tonumber requires exactly 1 argument, got %d", len(args))
	}
	v := args[0]
	if v.Missing {
		return MissingValue(), nil
	}
	if v.IsNum {
		return v, nil
	}
	f, err := strconv.ParseFloat(v.Str, 64)
	if err != nil {
		return MissingValue(), nil
	}
	return NumValue(f), nil
}

func builtinToString(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, fmt.Errorf("tostring requires exactly 1 argument, got %d", len(args))
	}
	if args[0].Missing {
		return MissingValue(), nil
	}
	return StrValue(args[0].Str), nil
}

func mathFunc1(name string, fn func(float64) float64) ScalarFunc {
	return func(args []Value) (Value, error) {
		if len(args) != 1 {
			return Value{}, fmt.Errorf("%s requires exactly 1 argument, got %d", name, len(args))
		}
		if args[0].Missing {
			return MissingValue(), nil
		}
		n, ok := args[0].ToNum()
		if !ok {
			return MissingValue(), nil
		}
		return NumValue(fn(n)), nil
	}
}

func builtinRound(args []Value) (Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return Value{}, fmt.Errorf("round requires 1 or 2 arguments, got %d", len(args))
	}
	if args[0].Missing {
		return MissingValue(), nil
	}
	n, ok := args[0].ToNum()
	if !ok {
		return MissingValue(), nil
	}
	decimals := 0
	if len(args) == 2 {
		if args[1].Missing {
			return MissingValue(), nil
		}
		d, ok := args[1].ToNum()
		if !ok {
			return MissingValue(), nil
		}
		decimals = int(d)
	}
	shift := math.Pow(10, float64(decimals))
	return NumValue(math.Round(n*shift) / shift), nil
}

func builtinLen(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, fmt.Errorf("len requires exactly 1 argument, got %d", len(args))
	}
	if args[0].Missing {
		return MissingValue(), nil
	}
	return NumValue(float64(len(args[0].Str))), nil
}

func builtinLower(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, fmt.Errorf("lower requires exactly 1 argument, got %d", len(args))
	}
	if args[0].Missing {
		return MissingValue(), nil
	}
	return StrValue(strings.ToLower(args[0].Str)), nil
}

func builtinUpper(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, fmt.Errorf("upper requires exactly 1 argument, got %d", len(args))
	}
	if args[0].Missing {
		return MissingValue(), nil
	}
	return StrValue(strings.ToUpper(args[0].Str)), nil
}

func builtinSubstr(args []Value) (Value, error) {
	if len(args) != 3 {
		return Value{}, fmt.Errorf("substr requires exactly 3 arguments, got %d", len(args))
	}
	if args[0].Missing {
		return MissingValue(), nil
	}
	s := args[0].Str
	start, ok1 := args[1].ToNum()
	length, ok2 := args[2].ToNum()
	if !ok1 || !ok2 {
		return MissingValue(), nil
	}
	si, li := int(start), int(length)
	if si < 0 {
		si = 0
	}
	if si >= len(s) {
		return StrValue(""), nil
	}
	end := si + li
	if end > len(s) {
		end = len(s)
	}
	return StrValue(s[si:end]), nil
}

func builtinConcat(args []Value) (Value, error) {
	if len(args) == 0 {
		return Value{}, fmt.Errorf("concat requires at least 1 argument")
	}
	var sb strings.Builder
	for _, a := range args {
		if a.Missing {
			continue
		}
		sb.WriteString(a.Str)
	}
	return StrValue(sb.String()), nil
}

func builtinCoalesce(args []Value) (Value, error) {
	if len(args) == 0 {
		return Value{}, fmt.Errorf("coalesce requires at least 1 argument")
	}
	for _, a := range args {
		if !a.Missing {
			return a, nil
		}
	}
	return MissingValue(), nil
}
