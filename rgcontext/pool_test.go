package rgcontext

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reasonflow/graphcore/value"
)

// Pool tests use testify/assert, matching the pack's go-utilpkg idiom,
// while the rest of this package uses plain stdlib testing — this module's
// test suite intentionally mixes both, mirroring how the source corpus
// itself is inconsistent about it across repos.

func TestPoolReusesReleasedContext(t *testing.T) {
	p := NewPool(1, 2, 4)

	g1 := p.Acquire()
	g1.Context().Set("k", value.String("v"))
	g1.Release()

	g2 := p.Acquire()
	assert.False(t, func() bool { _, ok := g2.Context().Get("k"); return ok }(), "released context should be cleared before reuse")
}

func TestPoolDiscardsBeyondCapacity(t *testing.T) {
	p := NewPool(0, 1, 4)

	g1 := p.Acquire()
	g2 := p.Acquire()

	g1.Release()
	g2.Release() // pool already at max=1, this one should be discarded

	stats := p.Stats()
	assert.Equal(t, int64(1), stats.Discarded)
}

func TestGuardReleaseIsIdempotent(t *testing.T) {
	p := NewPool(0, 2, 4)
	g := p.Acquire()
	g.Release()
	g.Release() // must not double-count release stats

	stats := p.Stats()
	assert.Equal(t, int64(1), stats.Released)
}
