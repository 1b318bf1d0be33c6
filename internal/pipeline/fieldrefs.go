package pipeline

import "ftaggregate/internal/exprlang"

// fieldRefs collects every FieldRef name an APPLY/FILTER expression
// touches, so Builder.Build can resolve each one against the prevailing
// Lookup before the step is wired into the pipeline.
func fieldRefs(e exprlang.Expr) []string {
	var out []string
	var walk func(exprlang.Expr)
	walk = func(e exprlang.Expr) {
		switch n := e.(type) {
		case *exprlang.FieldRef:
			out = append(out, n.Name)
		case *exprlang.FuncCall:
			for _, a := range n.Args {
				walk(a)
			}
		case *exprlang.ArithExpr:
			walk(n.Left)
			walk(n.Right)
		case *exprlang.CompareExpr:
			walk(n.Left)
			walk(n.Right)
		case *exprlang.LogicExpr:
			walk(n.Left)
			walk(n.Right)
		case *exprlang.NotExpr:
			walk(n.Term)
		}
	}
	walk(e)
	return out
}
