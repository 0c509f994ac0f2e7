package analogy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	celast "github.com/google/cel-go/common/ast"
	"github.com/google/cel-go/common/operators"
)

// ErrSyntax is wrapped by every Parse failure.
var ErrSyntax = errors.New("invalid query expression")

// Parse reads a query expression such as
//
//	unlike(like("mouse", keyboard), screen, 0.5)
//
// Operators are like and unlike with two operands and an optional numeric
// projection factor; defaultFactor is used when it is omitted. Operands are
// words (quoted or bare) or nested operators. A lone word is a valid
// expression whose tree has a leaf root.
func Parse(expr string, defaultFactor float32) (*Tree, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("parse query: %w: empty expression", ErrSyntax)
	}

	env, err := cel.NewEnv()
	if err != nil {
		return nil, fmt.Errorf("parse query: %w", err)
	}
	parsed, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("parse query: %w: %v", ErrSyntax, iss.Err())
	}

	t := NewTree()
	root, err := t.build(parsed.NativeRep().Expr(), defaultFactor)
	if err != nil {
		return nil, fmt.Errorf("parse query: %w", err)
	}
	t.SetRoot(root)
	return t, nil
}

func (t *Tree) build(e celast.Expr, defaultFactor float32) (NodeID, error) {
	switch e.Kind() {
	case celast.IdentKind:
		return t.Leaf(e.AsIdent()), nil

	case celast.LiteralKind:
		if s, ok := e.AsLiteral().Value().(string); ok {
			return t.Leaf(s), nil
		}
		return 0, fmt.Errorf("%w: %v is not a word", ErrSyntax, e.AsLiteral().Value())

	case celast.SelectKind:
		// dotted bare words such as e.g or u.s.a
		if w, ok := selectWord(e); ok {
			return t.Leaf(w), nil
		}

	case celast.CallKind:
		call := e.AsCall()
		var negative bool
		switch call.FunctionName() {
		case "like":
		case "unlike":
			negative = true
		default:
			return 0, fmt.Errorf("%w: unknown operator %q", ErrSyntax, call.FunctionName())
		}
		if call.IsMemberFunction() {
			return 0, fmt.Errorf("%w: %s must be called as a function", ErrSyntax, call.FunctionName())
		}

		args := call.Args()
		if len(args) != 2 && len(args) != 3 {
			return 0, fmt.Errorf("%w: %s takes two operands and an optional factor, got %d arguments",
				ErrSyntax, call.FunctionName(), len(args))
		}
		factor := defaultFactor
		if len(args) == 3 {
			f, err := numeric(args[2])
			if err != nil {
				return 0, err
			}
			factor = f
		}

		left, err := t.build(args[0], defaultFactor)
		if err != nil {
			return 0, err
		}
		right, err := t.build(args[1], defaultFactor)
		if err != nil {
			return 0, err
		}
		return t.Node(left, right, negative, factor), nil
	}

	return 0, fmt.Errorf("%w: unsupported term", ErrSyntax)
}

func selectWord(e celast.Expr) (string, bool) {
	switch e.Kind() {
	case celast.IdentKind:
		return e.AsIdent(), true
	case celast.SelectKind:
		sel := e.AsSelect()
		if sel.IsTestOnly() {
			return "", false
		}
		prefix, ok := selectWord(sel.Operand())
		if !ok {
			return "", false
		}
		return prefix + "." + sel.FieldName(), true
	}
	return "", false
}

func numeric(e celast.Expr) (float32, error) {
	switch e.Kind() {
	case celast.LiteralKind:
		switch v := e.AsLiteral().Value().(type) {
		case float64:
			return float32(v), nil
		case int64:
			return float32(v), nil
		case uint64:
			return float32(v), nil
		}
	case celast.CallKind:
		call := e.AsCall()
		if call.FunctionName() == operators.Negate && len(call.Args()) == 1 {
			f, err := numeric(call.Args()[0])
			return -f, err
		}
	}
	return 0, fmt.Errorf("%w: projection factor must be a number", ErrSyntax)
}
