package txtemplate

import (
	"bytes"
	"testing"
)

func TestBuildLocatesReservedWindow(t *testing.T) {
	fields := Fields{Sender: []byte("0xsender"), Payload: []byte("module-bytes-go-here")}
	tmpl, offset, err := Build(Package, fields)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if offset < 0 || offset+8 > len(tmpl) {
		t.Fatalf("offset %d out of range for template of length %d", offset, len(tmpl))
	}
}

func TestCanonicalizeIsByteStable(t *testing.T) {
	fields := Fields{Sender: []byte("addr"), Payload: []byte("payload-bytes")}
	tmpl, offset, err := Build(Split, fields)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Simulate mining: overwrite the reserved window with an arbitrary
	// nonce value before canonicalizing.
	copy(tmpl[offset:offset+8], []byte{1, 2, 3, 4, 5, 6, 7, 8})

	rebuilt, newOffset, err := Canonicalize(tmpl, offset)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	if newOffset != offset {
		t.Errorf("newOffset = %d, want %d", newOffset, offset)
	}
	if len(rebuilt) != len(tmpl) {
		t.Errorf("rebuilt length = %d, want %d", len(rebuilt), len(tmpl))
	}
}

func TestCanonicalizeRejectsTruncatedTemplate(t *testing.T) {
	if _, _, err := Canonicalize([]byte{0, 1}, 0); err == nil {
		t.Fatal("expected an error for a too-short template")
	}
}

func TestParserAcceptsWellFormedTemplate(t *testing.T) {
	tmpl, _, err := Build(Generic, Fields{Sender: []byte("s"), Payload: []byte("p")})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	parser := NewParser()
	out, err := parser(tmpl)
	if err != nil {
		t.Fatalf("parser: %v", err)
	}
	if !bytes.Equal(out, tmpl) {
		t.Error("parser should return the buffer unchanged")
	}
}

func TestParserRejectsCorruptTemplate(t *testing.T) {
	parser := NewParser()
	if _, err := parser([]byte{9, 9}); err == nil {
		t.Fatal("expected an error for a corrupt buffer")
	}
}
