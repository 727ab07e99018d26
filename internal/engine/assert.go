package engine

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/dgpv/bsst/internal/lexer"
	"github.com/dgpv/bsst/internal/value"
)

// relOp is one relational prefix recognized in assertion/assumption term
// grammar (spec.md §4.5).
type relOp int

const (
	relEq relOp = iota
	relNe
	relGt
	relLt
	relGe
	relLe
)

// term is one parsed operand of an OR-joined assertion/assumption
// expression: either a bare relational comparison or a numeric range.
type term struct {
	isRange  bool
	rel      relOp
	operand  *big.Int
	rangeLo  *big.Int
	rangeHi  *big.Int
}

// ParseExpression parses the whitespace-separated, OR-joined term list from
// a bsst-assert/bsst-assume expression body.
func ParseExpression(expr string) ([]term, error) {
	fields := strings.Fields(expr)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty assertion/assumption expression")
	}
	terms := make([]term, 0, len(fields))
	for _, f := range fields {
		t, err := parseTerm(f)
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	return terms, nil
}

func parseTerm(f string) (term, error) {
	if idx := strings.Index(f, ".."); idx >= 0 {
		loStr, hiStr := f[:idx], f[idx+2:]
		lo, err := parseOperand(loStr)
		if err != nil {
			return term{}, err
		}
		hi, err := parseOperand(hiStr)
		if err != nil {
			return term{}, err
		}
		return term{isRange: true, rangeLo: lo, rangeHi: hi}, nil
	}

	rel := relEq
	rest := f
	switch {
	case strings.HasPrefix(f, ">="):
		rel, rest = relGe, f[2:]
	case strings.HasPrefix(f, "<="):
		rel, rest = relLe, f[2:]
	case strings.HasPrefix(f, "!="):
		rel, rest = relNe, f[2:]
	case strings.HasPrefix(f, "="):
		rel, rest = relEq, f[1:]
	case strings.HasPrefix(f, ">"):
		rel, rest = relGt, f[1:]
	case strings.HasPrefix(f, "<"):
		rel, rest = relLt, f[1:]
	}
	n, err := parseOperand(rest)
	if err != nil {
		return term{}, err
	}
	return term{rel: rel, operand: n}, nil
}

func parseOperand(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	lines, err := lexer.Tokenize([]string{s}, lexer.DefaultOptions())
	if err != nil || len(lines) != 1 || len(lines[0].Tokens) != 1 {
		return nil, fmt.Errorf("invalid assertion/assumption operand %q", s)
	}
	tok := lines[0].Tokens[0]
	if tok.Kind != lexer.KindLiteral {
		return nil, fmt.Errorf("invalid assertion/assumption operand %q", s)
	}
	n, ok := value.AsScriptNumber(tok.Bytes)
	if !ok {
		n, ok = new(big.Int), true
		n.SetBytes(tok.Bytes)
	}
	return n, nil
}

// predicateOver builds this single term as a constraint over target; the
// disjunction of OR-joined terms is built by BuildConstraint.
func (t term) predicateOver(target *value.Value) *value.Value {
	lit := func(n *big.Int) *value.Value { return value.NewLiteral(value.FromScriptNumber(n)) }
	if t.isRange {
		return value.NewOp(value.KindWithin, target, lit(t.rangeLo), lit(new(big.Int).Add(t.rangeHi, big.NewInt(1))))
	}
	switch t.rel {
	case relEq:
		return value.NewOp(value.KindNumEqual, target, lit(t.operand))
	case relNe:
		return value.NewOp(value.KindNumNotEqual, target, lit(t.operand))
	case relGt:
		return value.NewOp(value.KindGreaterThan, target, lit(t.operand))
	case relLt:
		return value.NewOp(value.KindLessThan, target, lit(t.operand))
	case relGe:
		return value.NewOp(value.KindGreaterThanOrEqual, target, lit(t.operand))
	case relLe:
		return value.NewOp(value.KindLessThanOrEqual, target, lit(t.operand))
	}
	panic("unreachable")
}

// BuildConstraint ORs together every term in terms, over target.
func BuildConstraint(terms []term, target *value.Value) *value.Value {
	pred := terms[0].predicateOver(target)
	for _, t := range terms[1:] {
		pred = value.NewOp(value.KindBoolOr, pred, t.predicateOver(target))
	}
	return pred
}

// AndConstraints ANDs together constraints published by multiple adjacent
// directives on the same target (spec.md §4.5: "multiple adjacent ...
// comments on the same target are joined by AND").
func AndConstraints(preds []*value.Value) *value.Value {
	out := preds[0]
	for _, p := range preds[1:] {
		out = value.NewOp(value.KindBoolAnd, out, p)
	}
	return out
}
