//go:build !cuda

package gpu

import (
	"log"
	"sync/atomic"

	"github.com/rawblock/id-miner/internal/miner"
	"github.com/rawblock/id-miner/pkg/target"
)

// cpuFallbackExecutor is loaded whenever the binary is built without
// the 'cuda' tag. It never searches; every call reports that hardware
// acceleration is unavailable so callers fall back to
// internal/miner.Coordinator.
type cpuFallbackExecutor struct{}

// NewExecutor returns the default build's GPU executor: a stub that
// always reports ErrGPUUnavailable. Logged once at construction, the
// way the teacher's CalculateAnonSetHardware fallback warns on every
// call rather than hiding the degraded mode.
func NewExecutor(_ miner.Hasher) Executor {
	log.Println("[GPU] hardware acceleration requested, but engine was compiled without CUDA support; GPU mining is unavailable")
	return cpuFallbackExecutor{}
}

func (cpuFallbackExecutor) Mine(miner.MinerConfig, miner.Mode, target.Target, *atomic.Uint64, *atomic.Bool) (*miner.MiningResult, error) {
	return nil, ErrGPUUnavailable
}
