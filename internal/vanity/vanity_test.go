package vanity

import (
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestMineRejectsEmptyPrefix(t *testing.T) {
	var attempts atomic.Uint64
	var cancel atomic.Bool
	if _, err := Mine(Config{Prefix: ""}, &attempts, &cancel); err == nil {
		t.Fatal("expected an error for an empty prefix")
	}
}

func TestMineRejectsNonMainnetPrefix(t *testing.T) {
	var attempts atomic.Uint64
	var cancel atomic.Bool
	if _, err := Mine(Config{Prefix: "3abc"}, &attempts, &cancel); err == nil {
		t.Fatal("expected an error for a prefix that cannot start a P2PKH address")
	}
}

func TestMineFindsSingleCharacterPrefix(t *testing.T) {
	var attempts atomic.Uint64
	var cancel atomic.Bool

	done := make(chan struct{})
	var result *Result
	go func() {
		result, _ = Mine(Config{Prefix: "1", Threads: 2}, &attempts, &cancel)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Mine did not return in time for a trivially satisfiable prefix")
	}

	if result == nil {
		t.Fatal("expected a result")
	}
	if !strings.HasPrefix(result.Address, "1") {
		t.Errorf("address %q does not start with %q", result.Address, "1")
	}
	if result.PrivateKeyHex == "" {
		t.Error("expected a non-empty private key hex string")
	}
}
