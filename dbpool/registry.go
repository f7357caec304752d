// Package dbpool implements the process-level named connection pool
// registry the DB Node routes through (§4.2 "Registered pool names", §6).
// It is adapted from the teacher's store.Store[S] persistence layer
// (graph/store/{sqlite,mysql}.go), narrowed from "durable workflow state
// storage" (a Non-goal here) down to "open and register a *sql.DB by
// logical name", which is squarely in this spec's scope.
package dbpool

import (
	"database/sql"
	"sync"

	"github.com/reasonflow/graphcore/rgerrors"
)

// Registry holds named *sql.DB pools. Callers register pools by logical
// name before the Executor runs; DB nodes route through Lookup, and
// executor.New rejects a DB node whose pool name Lookup cannot resolve with
// a Configuration error (§6).
type Registry struct {
	mu      sync.RWMutex
	pools   map[string]*sql.DB
	fallback *sql.DB
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{pools: make(map[string]*sql.DB)}
}

// Register associates name with db. Re-registering a name replaces the
// previous pool (the caller owns closing the old one).
func (r *Registry) Register(name string, db *sql.DB) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pools[name] = db
}

// SetDefault designates the pool DB nodes use when their `database` field
// is empty (§4.6.2: "if absent, uses a default pool").
func (r *Registry) SetDefault(db *sql.DB) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = db
}

// Lookup resolves a logical pool name. An empty name resolves to the
// default pool if one is set. An unknown non-empty name is a Configuration
// error (E004), per §6.
func (r *Registry) Lookup(name string) (*sql.DB, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		if r.fallback == nil {
			return nil, rgerrors.New(rgerrors.CodeConfiguration, "no default database pool registered")
		}
		return r.fallback, nil
	}
	db, ok := r.pools[name]
	if !ok {
		return nil, rgerrors.Newf(rgerrors.CodeConfiguration, "unknown database pool %q", name)
	}
	return db, nil
}

// Names returns the registered pool names (the default fallback has no
// name and is not included).
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.pools))
	for n := range r.pools {
		names = append(names, n)
	}
	return names
}

// Has reports whether name is registered (ignores the default fallback).
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.pools[name]
	return ok
}

// Close closes every registered pool (and the default, if distinct),
// swallowing nothing — callers should log individual errors themselves if
// they care which pool failed to close cleanly.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	closed := make(map[*sql.DB]bool)
	for _, db := range r.pools {
		if closed[db] {
			continue
		}
		closed[db] = true
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if r.fallback != nil && !closed[r.fallback] {
		if err := r.fallback.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
