package lifecycle

import (
	"testing"
	"time"
)

// TestGate_AcquireRelease verifies basic permit round-trips.
func TestGate_AcquireRelease(t *testing.T) {
	g := NewGate(50 * time.Millisecond)

	if err := g.Acquire(); err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	if !g.TryRelease() {
		t.Fatal("TryRelease after Acquire should succeed")
	}
	if err := g.Acquire(); err != nil {
		t.Fatalf("re-Acquire after release failed: %v", err)
	}
}

// TestGate_Timeout verifies the bounded wait fails with ErrGateTimeout.
func TestGate_Timeout(t *testing.T) {
	g := NewGate(30 * time.Millisecond)

	if err := g.Acquire(); err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}

	start := time.Now()
	err := g.Acquire()
	if err != ErrGateTimeout {
		t.Fatalf("expected ErrGateTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 25*time.Millisecond {
		t.Errorf("timeout returned too early: %v", elapsed)
	}
}

// TestGate_DoubleReleaseDetected verifies the second release of a free
// permit is reported, not absorbed silently.
func TestGate_DoubleReleaseDetected(t *testing.T) {
	g := NewGate(30 * time.Millisecond)

	if err := g.Acquire(); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if !g.TryRelease() {
		t.Fatal("first TryRelease should succeed")
	}
	if g.TryRelease() {
		t.Fatal("second TryRelease should report the permit was already free")
	}
}

// TestGate_Exclusivity verifies exactly one of two concurrent acquirers
// wins while the permit is held.
func TestGate_Exclusivity(t *testing.T) {
	g := NewGate(40 * time.Millisecond)

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() { results <- g.Acquire() }()
	}

	var ok, timedOut int
	for i := 0; i < 2; i++ {
		switch err := <-results; err {
		case nil:
			ok++
		case ErrGateTimeout:
			timedOut++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if ok != 1 || timedOut != 1 {
		t.Errorf("expected exactly one winner and one timeout, got ok=%d timedOut=%d", ok, timedOut)
	}
}
