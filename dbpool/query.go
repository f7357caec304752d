package dbpool

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/reasonflow/graphcore/value"
)

// ToWireValue converts a Context value into the string a DB node substitutes
// into its query template, per §4.6.2's wire-value rule: "string->string,
// number->stringified, bool->stringified, null->the literal null token,
// mapping/sequence->JSON text."
func ToWireValue(v value.Value) string {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.AsString()
		return s
	case value.KindNumber:
		n, _ := v.AsNumber()
		return formatNumber(n)
	case value.KindBool:
		b, _ := v.AsBool()
		if b {
			return "true"
		}
		return "false"
	case value.KindNull:
		return "null"
	default:
		return string(value.Canonical(v))
	}
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}

// BuildParams extracts params (in order) from a resolved input view,
// converting each to its wire value. Missing entries are silently skipped
// per §4.6.2/§9 Open Question #2 — this implementation instead fails fast
// with a Configuration error when any named param is missing, the
// documented alternative the spec explicitly allows ("implementations MAY
// choose to fail fast... both are acceptable provided the choice is
// documented" — see DESIGN.md decision #2).
func BuildParams(order []string, input map[string]value.Value) ([]any, error) {
	params := make([]any, 0, len(order))
	for _, name := range order {
		v, ok := input[name]
		if !ok {
			return nil, fmt.Errorf("missing required query parameter %q", name)
		}
		params = append(params, ToWireValue(v))
	}
	return params, nil
}

// Execute runs queryTemplate against db with the given positional params,
// and serializes the result set as a sequence of row mappings (§4.6.2
// "output is the query's result set serialized as a sequence of mappings").
func Execute(ctx context.Context, db *sql.DB, queryTemplate string, params []any) (value.Value, error) {
	rows, err := db.QueryContext(ctx, queryTemplate, params...)
	if err != nil {
		return value.Value{}, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return value.Value{}, err
	}

	var results []value.Value
	for rows.Next() {
		scanTargets := make([]any, len(cols))
		scanBuf := make([]any, len(cols))
		for i := range scanTargets {
			scanTargets[i] = &scanBuf[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return value.Value{}, err
		}
		row := value.NewMapBuilder()
		for i, col := range cols {
			row.Set(col, sqlToValue(scanBuf[i]))
		}
		results = append(results, row.Build())
	}
	if err := rows.Err(); err != nil {
		return value.Value{}, err
	}
	return value.Seq(results...), nil
}

func sqlToValue(raw any) value.Value {
	switch v := raw.(type) {
	case nil:
		return value.Null()
	case []byte:
		return value.String(string(v))
	case string:
		return value.String(v)
	case int64:
		return value.Number(float64(v))
	case float64:
		return value.Number(v)
	case bool:
		return value.Bool(v)
	default:
		return value.String(fmt.Sprintf("%v", v))
	}
}
