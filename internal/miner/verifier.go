package miner

// Verifier re-derives a candidate's digest and object id from raw
// transaction bytes via the reference Hasher. It is the engine's last
// line of defense against non-reference code paths — GPU kernels, SIMD
// hashing, alternative serializers — ever producing an accepted win
// that would not reproduce on-chain.
type Verifier struct {
	Hasher Hasher
}

// NewVerifier builds a Verifier around the given reference Hasher.
func NewVerifier(h Hasher) Verifier {
	return Verifier{Hasher: h}
}

// Verify recomputes digest and object id from txBytes and reports
// whether they match the claimed values. A verifier failure is a hard
// rejection: the caller must discard the candidate and keep searching.
func (v Verifier) Verify(txBytes []byte, claimedDigest, claimedObjectID [32]byte, claimedIndex uint16) bool {
	digest := v.Hasher.Digest(txBytes)
	if digest != claimedDigest {
		return false
	}
	id := v.Hasher.DeriveObjectID(digest, uint64(claimedIndex))
	return id == claimedObjectID
}
