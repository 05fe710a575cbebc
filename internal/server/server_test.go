package server

import (
	"testing"
	"time"
)

func TestStopIdempotent(t *testing.T) {
	s := &Server{done: make(chan struct{})}

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	// A shutdown command and a termination signal can both reach Stop; the
	// second call must be a no-op, not a panic.
	if err := s.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestStopUnblocksWait(t *testing.T) {
	s := &Server{done: make(chan struct{})}

	waited := make(chan struct{})
	go func() {
		s.Wait()
		close(waited)
	}()

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	select {
	case <-waited:
	case <-time.After(5 * time.Second):
		t.Fatal("Wait still blocked after Stop")
	}
}
