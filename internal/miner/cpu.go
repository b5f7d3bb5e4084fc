package miner

import "log"

// cpuExecutor implements the worker loop of spec §4.6 on the calling
// goroutine. Coordinator.Mine spawns one cpuExecutor per OS thread it
// wants active; each instance is stateless apart from the reference
// Hasher/Verifier it was built with; all mutable search state lives in
// the shared searchState passed to run.
type cpuExecutor struct {
	hasher   Hasher
	verifier Verifier
}

// run claims chunks of p.chunkSize nonces at a time from
// p.state.nextChunkStart, mutates p.template's private copy in place,
// and hashes/checks each candidate. It allocates exactly once (the
// owned buffer) plus once more only on a win (the copy handed to the
// caller) — nothing in the per-attempt path allocates beyond whatever
// p.parser itself does.
func (e cpuExecutor) run(p workerParams) {
	buf := make([]byte, len(p.template))
	copy(buf, p.template)

	for {
		if p.cancel.Load() || p.state.found.Load() {
			return
		}

		chunkBase := p.state.nextChunkStart.Add(p.chunkSize) - p.chunkSize

		for i := uint64(0); i < p.chunkSize; i++ {
			if p.state.found.Load() {
				return
			}

			n := chunkBase + i
			nonceVal := p.baseNonce + n // wrapping add: uint64 overflow wraps by definition

			writeNonce(buf, p.nonceOffset, nonceVal)

			txBytes, err := p.parser(buf)
			if err != nil {
				// Transient candidate failure: benign, keep searching.
				continue
			}

			digest := e.hasher.Digest(txBytes)
			id, index, ok := p.mode.Check(digest, p.target, e.hasher)
			if !ok {
				continue
			}

			if !p.state.found.CompareAndSwap(false, true) {
				return
			}

			owned := make([]byte, len(buf))
			copy(owned, buf)
			result := &MiningResult{
				ObjectID:         id,
				ObjectIndex:      index,
				TxDigest:         digest,
				TxBytes:          owned,
				NonceUsed:        n,
				AttemptsRelative: n - p.initialStart,
			}

			if !e.verifier.Verify(owned, digest, id, index) {
				// Should be unreachable on the CPU path (same hasher both
				// sides), but a failed verification is never published.
				log.Printf("[CpuExecutor] verifier rejected a candidate at nonce=%d; discarding", n)
				p.state.found.Store(false)
				continue
			}

			p.state.resultMu.Lock()
			p.state.result = result
			p.state.resultMu.Unlock()
			return
		}

		p.attemptsOut.Add(p.chunkSize)
	}
}
