// Package gpu implements the optional GpuExecutor of spec §4.7: a
// cgo-gated hardware accelerator behind the same Mine contract as
// internal/miner.Coordinator, split across !cuda/cuda build tags the
// way the teacher splits internal/cuda.
package gpu

import (
	"errors"
	"sync/atomic"

	"github.com/rawblock/id-miner/internal/miner"
	"github.com/rawblock/id-miner/pkg/target"
)

// ErrGPUUnavailable is returned by the default (!cuda) build: no
// hardware kernel is linked in, so Mine cannot proceed.
var ErrGPUUnavailable = errors.New("gpu: engine was built without CUDA support")

// RingBufferSize bounds the number of candidates a single kernel
// dispatch may report, per spec §4.7.
const RingBufferSize = 10

// GlobalWorkSize is the number of nonces one kernel dispatch covers.
const GlobalWorkSize = 1 << 20

// Executor mirrors internal/miner.Coordinator's Mine contract so a
// caller can select CPU or GPU execution behind the same interface.
type Executor interface {
	Mine(cfg miner.MinerConfig, mode miner.Mode, tgt target.Target, attemptsOut *atomic.Uint64, cancel *atomic.Bool) (*miner.MiningResult, error)
}

// candidate is one ring-buffer entry a kernel dispatch reports: a
// nonce it believes produced a match, and the digest it computed for
// that nonce. The host never trusts the digest on its own — it always
// reconstructs tx_bytes and re-hashes via the reference Hasher before
// accepting a win (spec §4.7 step 3).
type candidate struct {
	nonce  uint64
	digest [32]byte
}
