package node

import (
	"context"

	"github.com/reasonflow/graphcore/dbpool"
	"github.com/reasonflow/graphcore/rgcontext"
	"github.com/reasonflow/graphcore/rgerrors"
	"github.com/reasonflow/graphcore/value"
)

// DBNode routes a positional-placeholder query template to a named pool
// from a process-registered registry, per §4.6.2.
type DBNode struct {
	QueryTemplate string
	ParamOrder    []string
	Database      string
	Registry      *dbpool.Registry
}

func NewDBNode(queryTemplate, database string, paramOrder []string, registry *dbpool.Registry) *DBNode {
	return &DBNode{QueryTemplate: queryTemplate, ParamOrder: paramOrder, Database: database, Registry: registry}
}

func (n *DBNode) Run(ctx context.Context, input map[string]value.Value, _ *rgcontext.Snapshot) (Result, error) {
	db, err := n.Registry.Lookup(n.Database)
	if err != nil {
		return Result{}, err // already a Configuration *rgerrors.Error
	}

	params, err := dbpool.BuildParams(n.ParamOrder, input)
	if err != nil {
		return Result{}, rgerrors.Wrap(rgerrors.CodeConfiguration, err, "could not build query parameters")
	}

	out, err := dbpool.Execute(ctx, db, n.QueryTemplate, params)
	if err != nil {
		return Result{}, rgerrors.Wrap(rgerrors.CodeDatabaseConn, err, "query execution failed")
	}

	return Result{Output: out}, nil
}
