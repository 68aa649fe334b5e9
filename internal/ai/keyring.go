package ai

import "sync/atomic"

// KeyRing hands out API keys round-robin. Rotation is an atomic counter
// reduced modulo the pool size, so a reader always lands on a valid key
// regardless of concurrent rotations.
type KeyRing struct {
	keys []string
	pos  atomic.Uint64
}

// NewKeyRing creates a ring over the given keys. Empty entries are dropped.
func NewKeyRing(keys []string) *KeyRing {
	r := &KeyRing{}
	for _, k := range keys {
		if k != "" {
			r.keys = append(r.keys, k)
		}
	}
	return r
}

// Empty reports whether the ring holds no keys.
func (r *KeyRing) Empty() bool {
	return len(r.keys) == 0
}

// Len returns the number of keys in the ring.
func (r *KeyRing) Len() int {
	return len(r.keys)
}

// Current returns the active key, or "" for an empty ring.
func (r *KeyRing) Current() string {
	if len(r.keys) == 0 {
		return ""
	}
	return r.keys[r.pos.Load()%uint64(len(r.keys))]
}

// Rotate advances to the next key and returns it. With a single key the
// rotation is a no-op.
func (r *KeyRing) Rotate() string {
	if len(r.keys) == 0 {
		return ""
	}
	return r.keys[r.pos.Add(1)%uint64(len(r.keys))]
}
