package main

import (
	"testing"

	"github.com/rawblock/id-miner/internal/txtemplate"
)

func TestSplitPayloadEncodesCountLittleEndian(t *testing.T) {
	got := splitPayload(0x0102)
	want := []byte{0x02, 0x01}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("splitPayload(0x0102) = %v, want %v", got, want)
	}
}

func TestThreadsOrAutoFallsBackOnNonPositive(t *testing.T) {
	if threadsOrAuto(0) <= 0 {
		t.Fatal("threadsOrAuto(0) must fall back to a positive auto-detected count")
	}
	if n := threadsOrAuto(4); n != 4 {
		t.Fatalf("threadsOrAuto(4) = %d, want 4", n)
	}
}

func TestGasTemplateBuildsOverReservedWindow(t *testing.T) {
	tmplBytes, nonceOffset, err := txtemplate.Build(txtemplate.Split, txtemplate.Fields{
		Payload: splitPayload(3),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if nonceOffset < 0 || nonceOffset+8 > len(tmplBytes) {
		t.Fatalf("nonceOffset %d out of bounds for template of length %d", nonceOffset, len(tmplBytes))
	}
}
