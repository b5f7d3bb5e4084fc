package miner

import "encoding/binary"

// Template is an opaque, pre-serialized transaction byte string with
// one 8-byte window reserved for the nonce. Mining mutates only that
// window; the rest of Bytes is never touched.
type Template struct {
	Bytes       []byte
	NonceOffset int
}

// BaseNonce reads the current 8-byte little-endian value sitting in
// the reserved window. Coordinator.Mine adds each trial offset to this
// value with wrapping arithmetic, so the caller's own semantics for
// that field (an expiration epoch, a gas budget, ...) are preserved for
// offset 0.
func (t Template) BaseNonce() (uint64, error) {
	if err := t.validate(); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(t.Bytes[t.NonceOffset : t.NonceOffset+8]), nil
}

func (t Template) validate() error {
	if t.NonceOffset < 0 || t.NonceOffset+8 > len(t.Bytes) {
		return errInvalidOffset(len(t.Bytes), t.NonceOffset)
	}
	return nil
}

// writeNonce writes value into buf's reserved window in place. buf must
// be at least NonceOffset+8 bytes long; callers own that invariant
// since this sits on the hot path and must not allocate or bounds-check
// twice.
func writeNonce(buf []byte, nonceOffset int, value uint64) {
	binary.LittleEndian.PutUint64(buf[nonceOffset:nonceOffset+8], value)
}
