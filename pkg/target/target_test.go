package target

import "testing"

func TestParseAndMatches(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		id     [32]byte
		want   bool
	}{
		{"empty prefix matches all-zero id", "", [32]byte{}, true},
		{"even prefix exact match", "00", [32]byte{}, true},
		{"even prefix mismatch", "00", [32]byte{0x01}, false},
		{"odd prefix ignores low nibble", "0", [32]byte{0x0f}, true},
		{"odd prefix rejects high nibble", "0", [32]byte{0x10}, false},
		{"case insensitive", "FF", [32]byte{0xff}, true},
		{"multi-byte prefix", "dead", [32]byte{0xde, 0xad, 0x00}, true},
		{"multi-byte prefix mismatch on second byte", "dead", [32]byte{0xde, 0xac}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := Parse(tt.prefix)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.prefix, err)
			}
			if got := target.Matches(tt.id); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseCaseInsensitiveIdempotent(t *testing.T) {
	mixed := "DeAdBeEf"
	lower, err := Parse(mixed)
	if err != nil {
		t.Fatalf("Parse(%q): %v", mixed, err)
	}
	upper, err := Parse("DEADBEEF")
	if err != nil {
		t.Fatalf("Parse upper: %v", err)
	}
	if lower != upper {
		t.Errorf("Parse is not case-insensitive: %+v != %+v", lower, upper)
	}
}

func TestParseRejectsTooLong(t *testing.T) {
	long := make([]byte, 65)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := Parse(string(long)); err == nil {
		t.Fatal("expected error for 65-character prefix")
	}
}

func TestParseRejectsNonHex(t *testing.T) {
	if _, err := Parse("zz"); err == nil {
		t.Fatal("expected error for non-hex prefix")
	}
}

func TestEstimatedAttempts(t *testing.T) {
	tests := []struct {
		prefix string
		want   uint64
	}{
		{"", 1},
		{"0", 16},
		{"00", 256},
		{"0000", 65536},
	}
	for _, tt := range tests {
		target, err := Parse(tt.prefix)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.prefix, err)
		}
		if got := target.EstimatedAttempts(); got != tt.want {
			t.Errorf("EstimatedAttempts(%q) = %d, want %d", tt.prefix, got, tt.want)
		}
	}
}

func TestEstimatedAttemptsSaturates(t *testing.T) {
	target, err := Parse("0123456789abcdef0") // 17 hex chars
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := target.EstimatedAttempts(); got != ^uint64(0) {
		t.Errorf("EstimatedAttempts() = %d, want saturated max uint64", got)
	}
}

func TestDifficultyIsHexLen(t *testing.T) {
	hexes := []string{"", "a", "ab", "abc", "deadbeef", "0123456789abcdef"}
	for _, h := range hexes {
		target, err := Parse(h)
		if err != nil {
			t.Fatalf("Parse(%q): %v", h, err)
		}
		if got := target.Difficulty(); got != len(h) {
			t.Errorf("Difficulty(%q) = %d, want %d", h, got, len(h))
		}
	}
}
