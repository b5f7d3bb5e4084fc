//go:build !cuda

package gpu

import (
	"sync/atomic"
	"testing"

	"github.com/rawblock/id-miner/internal/miner"
	"github.com/rawblock/id-miner/pkg/target"
)

// S6 (partial, default build): without CUDA support compiled in, Mine
// must never fabricate a result — it reports ErrGPUUnavailable so
// callers fall back to the CPU coordinator instead of silently mining
// nothing.
func TestCpuFallbackReportsUnavailable(t *testing.T) {
	h := miner.NewBlakeHasher(nil)
	exec := NewExecutor(h)

	cfg := miner.MinerConfig{TemplateBytes: make([]byte, 32), NonceOffset: 0, Threads: 1}
	tgt, err := target.Parse("00")
	if err != nil {
		t.Fatalf("target.Parse: %v", err)
	}

	var attempts atomic.Uint64
	var cancel atomic.Bool
	result, err := exec.Mine(cfg, miner.Mode{Kind: miner.Package}, tgt, &attempts, &cancel)
	if err != ErrGPUUnavailable {
		t.Fatalf("err = %v, want ErrGPUUnavailable", err)
	}
	if result != nil {
		t.Fatal("expected a nil result alongside ErrGPUUnavailable")
	}
}
