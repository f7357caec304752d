package value

import (
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Canonical serializes a Value into a deterministic byte form: map keys are
// sorted, numbers use a fixed formatting, and the structure is fully
// unambiguous. It is the basis for cache fingerprints (Cache Key §3) and
// size_bytes estimation (Cache Entry §3) — never for a wire format other
// systems must parse.
func Canonical(v Value) []byte {
	buf := make([]byte, 0, 64)
	return appendCanonical(buf, v)
}

func appendCanonical(buf []byte, v Value) []byte {
	switch v.kind {
	case KindNull:
		return append(buf, "null"...)
	case KindBool:
		if v.b {
			return append(buf, "true"...)
		}
		return append(buf, "false"...)
	case KindNumber:
		return strconv.AppendFloat(buf, v.n, 'g', -1, 64)
	case KindString:
		buf = append(buf, '"')
		buf = append(buf, v.s...)
		buf = append(buf, '"')
		return buf
	case KindSeq:
		buf = append(buf, '[')
		for i, e := range v.seq {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = appendCanonical(buf, e)
		}
		return append(buf, ']')
	case KindMap:
		keys, get, _ := v.AsMap()
		sort.Strings(keys)
		buf = append(buf, '{')
		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = append(buf, '"')
			buf = append(buf, k...)
			buf = append(buf, '"', ':')
			vv, _ := get(k)
			buf = appendCanonical(buf, vv)
		}
		return append(buf, '}')
	default:
		return buf
	}
}

// Fingerprint returns a stable 64-bit hash over a canonicalized input view,
// used to build the Cache Key's input_fingerprint component (§3). xxhash is
// used rather than crypto/sha256 because the fingerprint need not resist
// adversarial collision, only be stable and cheap to compute on the hot
// dispatch path — the same reasoning the teacher applies to its own
// ComputeOrderKey (graph/scheduler.go), just swapping sha256 for a faster
// non-cryptographic hash since this key is not used for path ordering, only
// for cache addressing.
func Fingerprint(v Value) uint64 {
	return xxhash.Sum64(Canonical(v))
}

// EstimatedSize returns the canonical serialized byte length, used as the
// Cache Entry's size_bytes estimate (§3 "Size estimation uses serialized
// JSON byte length").
func EstimatedSize(v Value) int64 {
	return int64(len(Canonical(v)))
}
