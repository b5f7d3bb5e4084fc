package miner

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rawblock/id-miner/pkg/target"
)

// DefaultChunkSize is the number of consecutive nonces one worker
// claims per atomic fetch-add. Large enough to amortize the RMW, small
// enough to bound cancellation latency and progress-report granularity.
const DefaultChunkSize = 10_000

// MinerConfig mirrors the language-agnostic Engine API of spec §6: an
// opaque template, the nonce window inside it, a thread count (0 means
// "auto-detect", i.e. runtime.NumCPU), and the first nonce value to try.
type MinerConfig struct {
	TemplateBytes []byte
	NonceOffset   int
	Threads       int
	StartNonce    uint64
}

// Coordinator owns the shared nonce counter, found-flag, result slot,
// and drives a CPU worker pool for one mine() call. It holds no state
// across calls — Mine's SearchState lives entirely inside the call.
type Coordinator struct {
	Hasher    Hasher
	Verifier  Verifier
	Parser    TemplateParser
	ChunkSize uint64
}

// NewCoordinator builds a Coordinator around the given reference Hasher.
// Parser defaults to the identity parser and ChunkSize to
// DefaultChunkSize; both can be overridden on the returned value.
func NewCoordinator(h Hasher) *Coordinator {
	return &Coordinator{
		Hasher:    h,
		Verifier:  NewVerifier(h),
		Parser:    identityParser,
		ChunkSize: DefaultChunkSize,
	}
}

// searchState is the coordinator's shared mutable state for exactly one
// Mine call — created at entry, discarded on return.
type searchState struct {
	nextChunkStart atomic.Uint64
	found          atomic.Bool
	resultMu       sync.Mutex
	result         *MiningResult
}

// Mine runs the parallel search loop described in spec §4.5 and
// returns the first winning MiningResult, or nil if cancel flips before
// any worker wins. attemptsOut and cancel are externally owned: the
// caller creates them, may read attemptsOut concurrently for progress
// display, and flips cancel to abort.
func (c *Coordinator) Mine(
	mode Mode,
	cfg MinerConfig,
	tgt target.Target,
	attemptsOut *atomic.Uint64,
	cancel *atomic.Bool,
) (*MiningResult, error) {
	tmpl := Template{Bytes: cfg.TemplateBytes, NonceOffset: cfg.NonceOffset}
	baseNonce, err := tmpl.BaseNonce()
	if err != nil {
		return nil, err
	}
	if start, end := mode.IndexRange(); start >= end {
		return nil, errEmptyIndexSet
	}

	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	parser := c.Parser
	if parser == nil {
		parser = identityParser
	}
	chunkSize := c.ChunkSize
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}

	state := &searchState{}
	state.nextChunkStart.Store(cfg.StartNonce)

	var wg sync.WaitGroup
	var panicOnce sync.Once
	var panicErr error

	wg.Add(threads)
	for w := 0; w < threads; w++ {
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					cancel.Store(true)
					panicOnce.Do(func() {
						panicErr = &WorkerPanicError{Message: formatPanic(r)}
					})
				}
			}()
			exec := cpuExecutor{hasher: c.Hasher, verifier: c.Verifier}
			exec.run(workerParams{
				template:     cfg.TemplateBytes,
				nonceOffset:  cfg.NonceOffset,
				baseNonce:    baseNonce,
				initialStart: cfg.StartNonce,
				mode:         mode,
				target:       tgt,
				parser:       parser,
				chunkSize:    chunkSize,
				state:        state,
				attemptsOut:  attemptsOut,
				cancel:       cancel,
			})
		}()
	}
	wg.Wait()

	if panicErr != nil {
		return nil, panicErr
	}

	state.resultMu.Lock()
	result := state.result
	state.resultMu.Unlock()
	return result, nil
}

type workerParams struct {
	template     []byte
	nonceOffset  int
	baseNonce    uint64
	initialStart uint64
	mode         Mode
	target       target.Target
	parser       TemplateParser
	chunkSize    uint64
	state        *searchState
	attemptsOut  *atomic.Uint64
	cancel       *atomic.Bool
}

func formatPanic(r interface{}) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	return "unknown panic"
}
