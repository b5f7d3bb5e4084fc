package miner

// MiningResult is the value returned to the caller on a successful
// search. TxBytes is the exact byte sequence whose reference-hash path
// yields TxDigest and whose Mode.Check yields (ObjectID, ObjectIndex).
type MiningResult struct {
	ObjectID         [32]byte
	ObjectIndex      uint16
	TxDigest         [32]byte
	TxBytes          []byte
	NonceUsed        uint64
	AttemptsRelative uint64
}

// TemplateParser is the hot-path hook standing in for the out-of-scope
// chain codec: given a mutated template buffer, return the bytes to
// hash (usually the buffer itself, unmodified) or an error if the
// buffer is not a structurally valid transaction for this nonce value.
// A parse failure on any single nonce is benign and the search simply
// continues to the next one — see Coordinator.Mine.
//
// A nil TemplateParser is the identity parser: every nonce value is
// assumed to produce a structurally valid transaction, which holds
// whenever the caller's template builder guarantees the reserved
// window never changes the byte layout around it (see
// internal/txtemplate for one such builder).
type TemplateParser func(buf []byte) ([]byte, error)

func identityParser(buf []byte) ([]byte, error) {
	return buf, nil
}
