package miner

import (
	"context"
	"sync/atomic"
	"time"
)

// TerminalKind distinguishes the two ways a search ends, per spec §4.5's
// state machine: Won (a worker's CAS succeeded) or Cancelled (the caller
// flipped cancel before any worker won).
type TerminalKind uint8

const (
	Won TerminalKind = iota
	Cancelled
)

// ProgressSample is the periodic observation a Sampler delivers: the
// running attempts count and the instantaneous rate since the previous
// sample.
type ProgressSample struct {
	AttemptsTotal   uint64
	HashesPerSecond float64
}

// TerminalEvent is the one-shot final observation a Sampler delivers
// when the search ends. Result is non-nil only for Kind == Won;
// LastNonce is meaningful only for Kind == Cancelled.
type TerminalEvent struct {
	Kind      TerminalKind
	Result    *MiningResult
	LastNonce uint64
}

// ProgressSink is the caller-supplied receiver described in spec §4.8.
// Implementations must not block significantly — OnSample is called
// from the Sampler's own goroutine on a fixed cadence and a slow sink
// delays every subsequent sample.
type ProgressSink interface {
	OnSample(ProgressSample)
	OnTerminal(TerminalEvent)
}

// Sampler drives a ProgressSink on a fixed cadence by reading an
// attempts counter atomically; it never touches the coordinator's
// internal state directly; it only observes the same shared atomic a
// Coordinator.Mine call is incrementing.
type Sampler struct {
	Sink     ProgressSink
	Interval time.Duration
}

// NewSampler builds a Sampler with the spec's recommended 500ms cadence.
// Interval can be overridden on the returned value.
func NewSampler(sink ProgressSink) *Sampler {
	return &Sampler{Sink: sink, Interval: 500 * time.Millisecond}
}

// Run ticks until ctx is done, reporting the attempts delta over each
// tick as a hashes-per-second rate. The caller is responsible for
// calling Report with the search's terminal outcome after Run returns
// (Run itself never decides whether the search ended in a win or a
// cancel — it only knows how to sample a counter).
func (s *Sampler) Run(ctx context.Context, attempts *atomic.Uint64) {
	interval := s.Interval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := attempts.Load()
	lastAt := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			current := attempts.Load()
			elapsed := now.Sub(lastAt).Seconds()
			var rate float64
			if elapsed > 0 {
				rate = float64(current-last) / elapsed
			}
			s.Sink.OnSample(ProgressSample{AttemptsTotal: current, HashesPerSecond: rate})
			last = current
			lastAt = now
		}
	}
}

// Report delivers the search's terminal event to the sink. Callers
// invoke it once, after Coordinator.Mine returns and after cancelling
// the Sampler's context.
func (s *Sampler) Report(result *MiningResult, lastNonce uint64) {
	if result != nil {
		s.Sink.OnTerminal(TerminalEvent{Kind: Won, Result: result})
		return
	}
	s.Sink.OnTerminal(TerminalEvent{Kind: Cancelled, LastNonce: lastNonce})
}
