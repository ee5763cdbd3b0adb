package filterexpr

import (
	"errors"
	"fmt"

	exprpb "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

type predicate struct {
	field string
	op    Op
	value any
}

// predicates flattens an AND chain into its atomic comparisons.
func predicates(expr *exprpb.Expr) ([]predicate, error) {
	if expr == nil {
		return nil, errors.New("empty expression")
	}
	call := expr.GetCallExpr()
	if call == nil {
		return nil, errors.New("expected a comparison or function call")
	}

	switch call.Function {
	case "_&&_":
		var out []predicate
		for _, arg := range call.Args {
			sub, err := predicates(arg)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
		return out, nil
	case "_||_", "_?_:_", "!_":
		return nil, fmt.Errorf("operator %q is not supported; only && is allowed", call.Function)
	case "_==_":
		return single(comparison(call, OpEQ))
	case "_>=_":
		return single(comparison(call, OpGTE))
	case "_<=_":
		return single(comparison(call, OpLTE))
	case "@in", "_in_":
		return single(comparison(call, OpIN))
	case "startsWith":
		return single(startsWith(call))
	default:
		return nil, fmt.Errorf("function %q is not supported", call.Function)
	}
}

func single(p predicate, err error) ([]predicate, error) {
	if err != nil {
		return nil, err
	}
	return []predicate{p}, nil
}

func comparison(call *exprpb.Expr_Call, op Op) (predicate, error) {
	if call.Target != nil || len(call.Args) != 2 {
		return predicate{}, fmt.Errorf("operator %q expects two operands", op)
	}
	return build(call.Args[0], call.Args[1], op)
}

func startsWith(call *exprpb.Expr_Call) (predicate, error) {
	if call.Target == nil || len(call.Args) != 1 {
		return predicate{}, errors.New("startsWith must be called on a field with one argument")
	}
	p, err := build(call.Target, call.Args[0], OpSW)
	if err != nil {
		return predicate{}, err
	}
	if _, ok := p.value.(string); !ok {
		return predicate{}, errors.New("startsWith requires a string literal")
	}
	return p, nil
}

func build(fieldExpr, valueExpr *exprpb.Expr, op Op) (predicate, error) {
	ident := fieldExpr.GetIdentExpr()
	if ident == nil {
		return predicate{}, errors.New("left-hand side must be an identifier")
	}
	value, err := literal(valueExpr)
	if err != nil {
		return predicate{}, err
	}
	return predicate{field: ident.GetName(), op: op, value: value}, nil
}

// literal returns a string, float64 or []string.
func literal(expr *exprpb.Expr) (any, error) {
	if c := expr.GetConstExpr(); c != nil {
		switch c.ConstantKind.(type) {
		case *exprpb.Constant_StringValue:
			return c.GetStringValue(), nil
		case *exprpb.Constant_Int64Value:
			return float64(c.GetInt64Value()), nil
		case *exprpb.Constant_Uint64Value:
			return float64(c.GetUint64Value()), nil
		case *exprpb.Constant_DoubleValue:
			return c.GetDoubleValue(), nil
		default:
			return nil, fmt.Errorf("literal type %T is not supported", c.ConstantKind)
		}
	}
	if list := expr.GetListExpr(); list != nil {
		values := make([]string, 0, len(list.GetElements()))
		for i, elem := range list.GetElements() {
			v, err := literal(elem)
			if err != nil {
				return nil, fmt.Errorf("list element %d: %w", i, err)
			}
			s, ok := v.(string)
			if !ok || s == "" {
				return nil, fmt.Errorf("list element %d must be a non-empty string", i)
			}
			values = append(values, s)
		}
		return values, nil
	}
	return nil, errors.New("right-hand side must be a literal or list literal")
}
