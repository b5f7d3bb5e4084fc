package miner

import (
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rawblock/id-miner/pkg/target"
)

func blankTemplate(n int) []byte {
	return make([]byte, n)
}

// S1: target="00", Package, all-zero 32-byte template, start_nonce=0.
func TestMineS1PackageZeroPrefix(t *testing.T) {
	h := NewBlakeHasher([]byte{0, 0, 0})
	c := NewCoordinator(h)
	tgt, err := target.Parse("00")
	if err != nil {
		t.Fatalf("target.Parse: %v", err)
	}
	cfg := MinerConfig{TemplateBytes: blankTemplate(32), NonceOffset: 0, Threads: 1}

	var attempts atomic.Uint64
	var cancel atomic.Bool
	result, err := c.Mine(Mode{Kind: Package}, cfg, tgt, &attempts, &cancel)
	if err != nil {
		t.Fatalf("Mine: %v", err)
	}
	if result == nil {
		t.Fatal("expected a result")
	}
	if result.ObjectIndex != 0 {
		t.Errorf("ObjectIndex = %d, want 0", result.ObjectIndex)
	}
	if !tgt.Matches(result.ObjectID) {
		t.Errorf("target does not match returned object id")
	}
}

// S2: target="ff", Package, same template.
func TestMineS2PackageFfPrefix(t *testing.T) {
	h := NewBlakeHasher([]byte{0, 0, 0})
	c := NewCoordinator(h)
	tgt, err := target.Parse("ff")
	if err != nil {
		t.Fatalf("target.Parse: %v", err)
	}
	cfg := MinerConfig{TemplateBytes: blankTemplate(32), NonceOffset: 0, Threads: 1}

	var attempts atomic.Uint64
	var cancel atomic.Bool
	result, err := c.Mine(Mode{Kind: Package}, cfg, tgt, &attempts, &cancel)
	if err != nil {
		t.Fatalf("Mine: %v", err)
	}
	if result == nil {
		t.Fatal("expected a result")
	}
	if result.NonceUsed == 0 {
		t.Error("expected a non-zero nonce_used")
	}
	if result.ObjectID[0] != 0xff {
		t.Errorf("ObjectID[0] = %#x, want 0xff", result.ObjectID[0])
	}
}

// S3: target="0" (odd nibble), Multi{k=3}.
func TestMineS3MultiOddNibble(t *testing.T) {
	h := NewBlakeHasher(nil)
	c := NewCoordinator(h)
	tgt, err := target.Parse("0")
	if err != nil {
		t.Fatalf("target.Parse: %v", err)
	}
	mode, err := NewMulti(3)
	if err != nil {
		t.Fatalf("NewMulti: %v", err)
	}
	cfg := MinerConfig{TemplateBytes: blankTemplate(16), NonceOffset: 4, Threads: 1}

	var attempts atomic.Uint64
	var cancel atomic.Bool
	result, err := c.Mine(mode, cfg, tgt, &attempts, &cancel)
	if err != nil {
		t.Fatalf("Mine: %v", err)
	}
	if result == nil {
		t.Fatal("expected a result")
	}
	if result.ObjectIndex > 2 {
		t.Errorf("ObjectIndex = %d, want 0..2", result.ObjectIndex)
	}
	if result.ObjectID[0]>>4 != 0 {
		t.Errorf("ObjectID[0] high nibble = %#x, want 0", result.ObjectID[0]>>4)
	}
}

// S4: mid-run cancellation returns nil within bounded iterations.
func TestMineS4CancellationBounded(t *testing.T) {
	h := NewBlakeHasher(nil)
	c := NewCoordinator(h)
	// An unreachable target makes a win (effectively) impossible inside
	// the test's time budget, forcing the cancel path to be exercised.
	tgt, err := target.Parse(strings.Repeat("0", 64))
	if err != nil {
		t.Fatalf("target.Parse: %v", err)
	}
	cfg := MinerConfig{TemplateBytes: blankTemplate(32), NonceOffset: 0, Threads: 2}

	var attempts atomic.Uint64
	var cancel atomic.Bool

	done := make(chan struct{})
	var result *MiningResult
	go func() {
		result, _ = c.Mine(Mode{Kind: Package}, cfg, tgt, &attempts, &cancel)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel.Store(true)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Mine did not return after cancel within bound")
	}

	if result != nil {
		t.Fatal("expected no result after cancellation against an unreachable target")
	}
	if attempts.Load() == 0 {
		t.Error("expected attempts_out > 0")
	}
}

// S5: threads=4 vs threads=1 both satisfy the core invariants.
func TestMineS5ThreadCountParity(t *testing.T) {
	h := NewBlakeHasher([]byte{1, 2, 3})
	tgt, err := target.Parse("face")
	if err != nil {
		t.Fatalf("target.Parse: %v", err)
	}

	for _, threads := range []int{1, 4} {
		c := NewCoordinator(h)
		cfg := MinerConfig{TemplateBytes: blankTemplate(24), NonceOffset: 8, Threads: threads}
		var attempts atomic.Uint64
		var cancel atomic.Bool
		result, err := c.Mine(Mode{Kind: Package}, cfg, tgt, &attempts, &cancel)
		if err != nil {
			t.Fatalf("threads=%d: Mine: %v", threads, err)
		}
		if result == nil {
			t.Fatalf("threads=%d: expected a result", threads)
		}
		if !tgt.Matches(result.ObjectID) {
			t.Errorf("threads=%d: target does not match object id", threads)
		}
		v := NewVerifier(h)
		if !v.Verify(result.TxBytes, result.TxDigest, result.ObjectID, result.ObjectIndex) {
			t.Errorf("threads=%d: verifier rejects the coordinator's own result", threads)
		}
	}
}

func TestMineRejectsEmptyIndexSet(t *testing.T) {
	h := NewBlakeHasher(nil)
	c := NewCoordinator(h)
	cfg := MinerConfig{TemplateBytes: blankTemplate(8), NonceOffset: 0, Threads: 1}
	var attempts atomic.Uint64
	var cancel atomic.Bool

	_, err := c.Mine(Mode{Kind: Multi, K: 0}, cfg, target.Target{}, &attempts, &cancel)
	if err == nil {
		t.Fatal("expected an error for an empty index set")
	}
}

func TestMineRejectsBadNonceOffset(t *testing.T) {
	h := NewBlakeHasher(nil)
	c := NewCoordinator(h)
	cfg := MinerConfig{TemplateBytes: blankTemplate(4), NonceOffset: 0, Threads: 1}
	var attempts atomic.Uint64
	var cancel atomic.Bool

	_, err := c.Mine(Mode{Kind: Package}, cfg, target.Target{}, &attempts, &cancel)
	if err == nil {
		t.Fatal("expected an error when the template is too short for the nonce window")
	}
}

// nonce_offset + 8 == len(template) is the boundary case explicitly
// called out as legal.
func TestMineAllowsNonceWindowAtTemplateEnd(t *testing.T) {
	h := NewBlakeHasher(nil)
	c := NewCoordinator(h)
	tgt, _ := target.Parse("") // empty prefix matches every id
	cfg := MinerConfig{TemplateBytes: blankTemplate(8), NonceOffset: 0, Threads: 1}
	var attempts atomic.Uint64
	var cancel atomic.Bool

	result, err := c.Mine(Mode{Kind: Package}, cfg, tgt, &attempts, &cancel)
	if err != nil {
		t.Fatalf("Mine: %v", err)
	}
	if result == nil {
		t.Fatal("expected a result: empty prefix matches every id, so the first nonce tested wins")
	}
	if result.NonceUsed != 0 {
		t.Errorf("NonceUsed = %d, want 0 (first candidate should win against an empty prefix)", result.NonceUsed)
	}
}
