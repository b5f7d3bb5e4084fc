package miner

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// Hasher computes the two hashes the engine's entire correctness
// guarantee rests on. The engine does not fix a concrete algorithm —
// any implementation obeying these contracts (deterministic, pure,
// thread-safe, bit-exact against the target chain's canonical rule)
// can be substituted via Coordinator.Hasher.
type Hasher interface {
	// Digest returns H1(intent || txBytes).
	Digest(txBytes []byte) [32]byte
	// DeriveObjectID returns H2(digest || little-endian index).
	DeriveObjectID(digest [32]byte, index uint64) [32]byte
}

// BlakeHasher is the reference Hasher: Blake2b-256 domain-separated by
// a fixed intent prefix, matching the canonical digest/object-id rule
// this miner was built against (Blake2b256(intent || bcs(tx)) for the
// transaction digest, Blake2b256(digest || index_le) for the derived
// object id).
type BlakeHasher struct {
	Intent []byte
}

// NewBlakeHasher returns a BlakeHasher using the given intent prefix.
// A nil or empty intent is valid — it simply means no domain
// separation is applied to the digest.
func NewBlakeHasher(intent []byte) BlakeHasher {
	return BlakeHasher{Intent: intent}
}

func (h BlakeHasher) Digest(txBytes []byte) [32]byte {
	hasher, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only fails for an oversized key, and we never
		// pass one; a failure here means the stdlib/x/crypto build is
		// broken beyond anything a caller can recover from.
		panic("miner: blake2b.New256: " + err.Error())
	}
	if len(h.Intent) > 0 {
		hasher.Write(h.Intent)
	}
	hasher.Write(txBytes)
	var out [32]byte
	hasher.Sum(out[:0])
	return out
}

func (h BlakeHasher) DeriveObjectID(digest [32]byte, index uint64) [32]byte {
	hasher, err := blake2b.New256(nil)
	if err != nil {
		panic("miner: blake2b.New256: " + err.Error())
	}
	hasher.Write(digest[:])
	var idxBytes [8]byte
	binary.LittleEndian.PutUint64(idxBytes[:], index)
	hasher.Write(idxBytes[:])
	var out [32]byte
	hasher.Sum(out[:0])
	return out
}
