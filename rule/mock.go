package rule

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/reasonflow/graphcore/value"
)

// MockEvaluator is a minimal rule language sufficient for tests and
// examples: a rule source is a semicolon-separated list of assignments of
// the form `name = expr`, where expr is either a literal, a bare input
// field name, or a simple `a OP b` comparison/arithmetic expression over
// input fields and numeric literals. It exists because the real GRL parser
// is an external collaborator (§1) — this is deliberately small.
type MockEvaluator struct{}

type mockProgram struct {
	assignments []mockAssignment
}

type mockAssignment struct {
	name string
	expr string
}

// Compile splits rule source into assignments; a syntactically malformed
// assignment (missing '=') is a compile-time failure, classified by the
// caller as a Rule error per §4.6.1.
func (MockEvaluator) Compile(source string) (Compiled, error) {
	var prog mockProgram
	for _, stmt := range strings.Split(source, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		parts := strings.SplitN(stmt, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("rule: malformed statement %q, expected 'name = expr'", stmt)
		}
		prog.assignments = append(prog.assignments, mockAssignment{
			name: strings.TrimSpace(parts[0]),
			expr: strings.TrimSpace(parts[1]),
		})
	}
	return &prog, nil
}

// Evaluate runs each assignment in order, binding results so later
// assignments may reference earlier ones alongside the original input.
func (MockEvaluator) Evaluate(ctx context.Context, compiled Compiled, input map[string]value.Value) (map[string]value.Value, error) {
	prog, ok := compiled.(*mockProgram)
	if !ok {
		return nil, fmt.Errorf("rule: compiled handle is not a mock program")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	env := make(map[string]value.Value, len(input))
	for k, v := range input {
		env[k] = v
	}

	bindings := make(map[string]value.Value, len(prog.assignments))
	for _, a := range prog.assignments {
		v, err := evalExpr(a.expr, env)
		if err != nil {
			return nil, fmt.Errorf("rule: evaluating %q: %w", a.expr, err)
		}
		env[a.name] = v
		bindings[a.name] = v
	}
	return bindings, nil
}

var comparators = []string{">=", "<=", "==", "!=", ">", "<", "+", "-", "*", "/"}

func evalExpr(expr string, env map[string]value.Value) (value.Value, error) {
	expr = strings.TrimSpace(expr)
	for _, op := range comparators {
		if idx := strings.Index(expr, op); idx > 0 {
			lhs, err := resolveOperand(strings.TrimSpace(expr[:idx]), env)
			if err != nil {
				return value.Value{}, err
			}
			rhs, err := resolveOperand(strings.TrimSpace(expr[idx+len(op):]), env)
			if err != nil {
				return value.Value{}, err
			}
			return applyOp(op, lhs, rhs)
		}
	}
	return resolveOperand(expr, env)
}

func resolveOperand(tok string, env map[string]value.Value) (value.Value, error) {
	if v, ok := env[tok]; ok {
		return v, nil
	}
	if tok == "true" {
		return value.Bool(true), nil
	}
	if tok == "false" {
		return value.Bool(false), nil
	}
	if tok == "null" {
		return value.Null(), nil
	}
	if strings.HasPrefix(tok, "\"") && strings.HasSuffix(tok, "\"") && len(tok) >= 2 {
		return value.String(tok[1 : len(tok)-1]), nil
	}
	if n, err := strconv.ParseFloat(tok, 64); err == nil {
		return value.Number(n), nil
	}
	return value.Value{}, fmt.Errorf("unresolved operand %q", tok)
}

func applyOp(op string, lhs, rhs value.Value) (value.Value, error) {
	ln, lok := lhs.AsNumber()
	rn, rok := rhs.AsNumber()
	switch op {
	case "==":
		return value.Bool(value.Equal(lhs, rhs)), nil
	case "!=":
		return value.Bool(!value.Equal(lhs, rhs)), nil
	}
	if !lok || !rok {
		return value.Value{}, fmt.Errorf("operator %q requires numeric operands", op)
	}
	switch op {
	case ">=":
		return value.Bool(ln >= rn), nil
	case "<=":
		return value.Bool(ln <= rn), nil
	case ">":
		return value.Bool(ln > rn), nil
	case "<":
		return value.Bool(ln < rn), nil
	case "+":
		return value.Number(ln + rn), nil
	case "-":
		return value.Number(ln - rn), nil
	case "*":
		return value.Number(ln * rn), nil
	case "/":
		if rn == 0 {
			return value.Value{}, fmt.Errorf("division by zero")
		}
		return value.Number(ln / rn), nil
	default:
		return value.Value{}, fmt.Errorf("unsupported operator %q", op)
	}
}
