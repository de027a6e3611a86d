package worker

import (
	"sync/atomic"
	"testing"
	"time"
)

// TestWorker_FIFOOrder verifies jobs run in submission order, one at a time.
func TestWorker_FIFOOrder(t *testing.T) {
	w := New(64)

	var got []int
	for i := 0; i < 32; i++ {
		i := i
		if err := w.Submit(func() { got = append(got, i) }); err != nil {
			t.Fatalf("Submit(%d) failed: %v", i, err)
		}
	}

	// Close drains everything before returning, so got is complete and
	// safely visible afterwards.
	w.Close()

	if len(got) != 32 {
		t.Fatalf("expected 32 jobs run, got %d", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Errorf("job order broken at index %d: got %d", i, v)
		}
	}
}

// TestWorker_CloseDrainsPendingJobs verifies Close runs queued work before
// returning.
func TestWorker_CloseDrainsPendingJobs(t *testing.T) {
	w := New(16)

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		if err := w.Submit(func() {
			time.Sleep(time.Millisecond)
			ran.Add(1)
		}); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	w.Close()

	if n := ran.Load(); n != 10 {
		t.Errorf("expected all 10 queued jobs to run before Close returned, got %d", n)
	}
}

// TestWorker_SubmitAfterClose verifies rejected submission after shutdown.
func TestWorker_SubmitAfterClose(t *testing.T) {
	w := New(4)
	w.Close()

	err := w.Submit(func() { t.Error("job ran after Close") })
	if err != ErrClosed {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

// TestWorker_CloseIdempotent verifies double Close does not panic or hang.
func TestWorker_CloseIdempotent(t *testing.T) {
	w := New(4)
	w.Close()
	w.Close()
	w.Close()
}

// TestWorker_QueueFull verifies the bounded queue rejects overflow instead
// of blocking the caller.
func TestWorker_QueueFull(t *testing.T) {
	w := New(1)
	defer w.Close()

	block := make(chan struct{})
	release := make(chan struct{})

	// First job occupies the goroutine.
	if err := w.Submit(func() {
		close(block)
		<-release
	}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	<-block

	// Second job fills the queue slot.
	if err := w.Submit(func() {}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	// Third must be rejected, not block.
	if err := w.Submit(func() {}); err != ErrQueueFull {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}

	close(release)
}
