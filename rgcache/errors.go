package rgcache

import "github.com/reasonflow/graphcore/rgerrors"

// newCacheFullError is returned by Put when Policy is PolicyNone and the
// insert would exceed a configured limit — "put that would exceed limits
// fails with a Cache error" (§4.5). The executor treats this as a non-fatal
// warning per the spec, not a reason to fail the node.
func newCacheFullError() error {
	return rgerrors.New(rgerrors.CodeCache, "cache at capacity and eviction policy is None")
}
