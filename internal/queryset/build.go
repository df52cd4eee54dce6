package queryset

import "github.com/roach88/rowfilter/internal/ir"

// StringTerm creates a string scalar.
func StringTerm(s string) Scalar {
	return Scalar{Value: ir.IRString(s)}
}

// NumberTerm creates a number scalar from its literal text.
func NumberTerm(text string) Scalar {
	return Scalar{Value: ir.IRNumber(text)}
}

// BoolTerm creates a boolean scalar.
func BoolTerm(b bool) Scalar {
	return Scalar{Value: ir.IRBool(b)}
}

// NullTerm creates a null scalar.
func NullTerm() Scalar {
	return Scalar{Value: ir.IRNull{}}
}

// DataRef creates data.<table>[<row>].<path...>.
func DataRef(table string, row Term, path ...string) *Ref {
	terms := []Term{Var("data"), StringTerm(table), row}
	for _, p := range path {
		terms = append(terms, StringTerm(p))
	}
	return NewRef(terms...)
}
