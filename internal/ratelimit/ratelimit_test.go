package ratelimit

import "testing"

func TestAllowRespectsBurst(t *testing.T) {
	rl := New(60, 2) // 1/sec, burst of 2
	if ok, _ := rl.Allow("1.2.3.4"); !ok {
		t.Fatal("first request should be allowed")
	}
	if ok, _ := rl.Allow("1.2.3.4"); !ok {
		t.Fatal("second request should be allowed (burst=2)")
	}
	if ok, wait := rl.Allow("1.2.3.4"); ok {
		t.Fatal("third immediate request should be rate limited")
	} else if wait <= 0 {
		t.Error("expected a positive retry-after duration")
	}
}

func TestAllowTracksIPsIndependently(t *testing.T) {
	rl := New(60, 1)
	if ok, _ := rl.Allow("1.1.1.1"); !ok {
		t.Fatal("first IP's first request should be allowed")
	}
	if ok, _ := rl.Allow("2.2.2.2"); !ok {
		t.Fatal("second IP should have its own independent bucket")
	}
}
