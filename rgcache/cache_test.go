package rgcache

import (
	"errors"
	"testing"
	"time"

	"github.com/reasonflow/graphcore/value"
)

func TestGetMissOnEmptyCache(t *testing.T) {
	c := New(Config{MaxEntries: 10})
	if _, ok := c.Get(Key{NodeID: "n1", Fingerprint: 1}); ok {
		t.Fatal("expected miss")
	}
	if c.Stats().Misses != 1 {
		t.Fatalf("expected 1 miss recorded, got %d", c.Stats().Misses)
	}
}

func TestPutThenGetHits(t *testing.T) {
	c := New(Config{MaxEntries: 10})
	key := Key{NodeID: "n1", Fingerprint: 42}
	if err := c.Put(key, value.String("hello"), 0); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected hit")
	}
	s, _ := got.AsString()
	if s != "hello" {
		t.Fatalf("got %q", s)
	}
}

func TestTTLExpiryTreatedAsMiss(t *testing.T) {
	c := New(Config{MaxEntries: 10})
	key := Key{NodeID: "n1", Fingerprint: 1}
	_ = c.Put(key, value.Number(1), time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get(key); ok {
		t.Fatal("expected expired entry to miss")
	}
	if c.Stats().ExpiredHits != 1 {
		t.Fatalf("expected expired hit counted, got %d", c.Stats().ExpiredHits)
	}
}

func TestLRUEvictsLeastRecentlyAccessed(t *testing.T) {
	c := New(Config{MaxEntries: 2, Policy: PolicyLRU})
	k1, k2, k3 := Key{NodeID: "n", Fingerprint: 1}, Key{NodeID: "n", Fingerprint: 2}, Key{NodeID: "n", Fingerprint: 3}
	_ = c.Put(k1, value.Number(1), 0)
	_ = c.Put(k2, value.Number(2), 0)
	c.Get(k1) // touch k1, making k2 the least recently accessed
	_ = c.Put(k3, value.Number(3), 0)

	if _, ok := c.Get(k2); ok {
		t.Fatal("expected k2 evicted")
	}
	if _, ok := c.Get(k1); !ok {
		t.Fatal("expected k1 retained")
	}
}

func TestLFUEvictsLeastFrequentlyAccessed(t *testing.T) {
	c := New(Config{MaxEntries: 2, Policy: PolicyLFU})
	k1, k2, k3 := Key{NodeID: "n", Fingerprint: 1}, Key{NodeID: "n", Fingerprint: 2}, Key{NodeID: "n", Fingerprint: 3}
	_ = c.Put(k1, value.Number(1), 0)
	_ = c.Put(k2, value.Number(2), 0)
	c.Get(k1)
	c.Get(k1) // k1 now has the higher access count; k2 is the least frequently used
	_ = c.Put(k3, value.Number(3), 0)

	if _, ok := c.Get(k2); ok {
		t.Fatal("expected k2 evicted as least frequently used")
	}
	if _, ok := c.Get(k1); !ok {
		t.Fatal("expected k1 retained")
	}
}

func TestFIFOEvictsOldestInsertedRegardlessOfAccess(t *testing.T) {
	c := New(Config{MaxEntries: 2, Policy: PolicyFIFO})
	k1, k2, k3 := Key{NodeID: "n", Fingerprint: 1}, Key{NodeID: "n", Fingerprint: 2}, Key{NodeID: "n", Fingerprint: 3}
	_ = c.Put(k1, value.Number(1), 0)
	_ = c.Put(k2, value.Number(2), 0)
	c.Get(k1) // FIFO ignores access recency, so touching k1 does not save it
	_ = c.Put(k3, value.Number(3), 0)

	if _, ok := c.Get(k1); ok {
		t.Fatal("expected k1 evicted as the oldest inserted entry")
	}
	if _, ok := c.Get(k2); !ok {
		t.Fatal("expected k2 retained")
	}
}

func TestNonePolicyFailsOnOverCapacity(t *testing.T) {
	c := New(Config{MaxEntries: 1, Policy: PolicyNone})
	k1, k2 := Key{NodeID: "n", Fingerprint: 1}, Key{NodeID: "n", Fingerprint: 2}
	if err := c.Put(k1, value.Number(1), 0); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if err := c.Put(k2, value.Number(2), 0); err == nil {
		t.Fatal("expected cache-full error under PolicyNone")
	}
}

func TestInvalidateNodeRemovesOnlyMatchingKeys(t *testing.T) {
	c := New(Config{MaxEntries: 10})
	_ = c.Put(Key{NodeID: "a", Fingerprint: 1}, value.Number(1), 0)
	_ = c.Put(Key{NodeID: "b", Fingerprint: 1}, value.Number(2), 0)
	c.InvalidateNode("a")

	if _, ok := c.Get(Key{NodeID: "a", Fingerprint: 1}); ok {
		t.Fatal("expected node a's entries invalidated")
	}
	if _, ok := c.Get(Key{NodeID: "b", Fingerprint: 1}); !ok {
		t.Fatal("expected node b's entries retained")
	}
}

func TestResolveDeduplicatesConcurrentCompute(t *testing.T) {
	c := New(Config{MaxEntries: 10})
	key := Key{NodeID: "n", Fingerprint: 7}

	calls := make(chan struct{}, 10)
	compute := func() (value.Value, error) {
		calls <- struct{}{}
		return value.Number(99), nil
	}

	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		go func() {
			_, _ = c.Resolve(key, 0, compute)
			done <- struct{}{}
		}()
	}
	for i := 0; i < 5; i++ {
		<-done
	}
	close(calls)
	if len(calls) == 0 {
		t.Fatal("expected compute to run at least once")
	}
}

func TestResolvePropagatesComputeError(t *testing.T) {
	c := New(Config{MaxEntries: 10})
	wantErr := errors.New("boom")
	_, err := c.Resolve(Key{NodeID: "n", Fingerprint: 1}, 0, func() (value.Value, error) {
		return value.Value{}, wantErr
	})
	if err == nil {
		t.Fatal("expected error to propagate")
	}
}
