package exprlang

import "testing"

func evalStr(t *testing.T, expr string, row Row) Value {
	t.Helper()
	ast, err := Parse(expr)
	if err != nil {
		t.Fatalf("Parse(%q): %v", expr, err)
	}
	v, err := NewEvaluator().Eval(ast, row)
	if err != nil {
		t.Fatalf("Eval(%q): %v", expr, err)
	}
	return v
}

func TestEvalArithmetic(t *testing.T) {
	row := Row{"a": "3", "b": "4"}
	v := evalStr(t, "@a + @b * 2", row)
	if !v.IsNum || v.Num != 11 {
		t.Fatalf("got %+v, want 11", v)
	}
}

func TestEvalFuncCall(t *testing.T) {
	row := Row{"title": "Hello"}
	v := evalStr(t, `upper(@title)`, row)
	if v.Str != "HELLO" {
		t.Fatalf("got %q, want HELLO", v.Str)
	}
}

func TestEvalCompare(t *testing.T) {
	row := Row{"t": "FOO"}
	v := evalStr(t, `@t == "FOO"`, row)
	if !v.Truthy() {
		t.Fatalf("expected truthy, got %+v", v)
	}
}

func TestEvalLogic(t *testing.T) {
	row := Row{"a": "1", "b": "0"}
	v := evalStr(t, `@a == 1 AND @b == 0`, row)
	if !v.Truthy() {
		t.Fatalf("expected truthy, got %+v", v)
	}

	v = evalStr(t, `NOT (@a == 1 AND @b == 0)`, row)
	if v.Truthy() {
		t.Fatalf("expected falsy, got %+v", v)
	}
}

func TestEvalMissingField(t *testing.T) {
	row := Row{}
	v := evalStr(t, "@missing", row)
	if !v.Missing {
		t.Fatalf("expected missing value, got %+v", v)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{"", "@a +", "foo(", "(1 + 2", "1 2"}
	for _, c := range cases {
		if _, err := Parse(c); err == nil {
			t.Errorf("Parse(%q): expected error", c)
		}
	}
}
