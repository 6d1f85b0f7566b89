package relay_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/averlon/averlon.net.p2p/internal/protocol"
	"github.com/averlon/averlon.net.p2p/internal/relay"
)

// stubWorker is a scriptable inner worker for exercising the relay.
type stubWorker struct {
	mu       sync.Mutex
	received []protocol.Message
	stopped  bool
	workLeft int
	tickErr  error
	stopErr  error
}

func (s *stubWorker) Receive(msg protocol.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, msg)
	return nil
}

func (s *stubWorker) Tick() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tickErr != nil {
		return false, s.tickErr
	}
	if s.workLeft > 0 {
		s.workLeft--
		return true, nil
	}
	return false, nil
}

func (s *stubWorker) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return s.stopErr
}

func (s *stubWorker) receivedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.received)
}

func newStubRelay(t *testing.T, w *stubWorker) *relay.Relay {
	t.Helper()

	r, err := relay.New(relay.SinkFunc(func(protocol.Message) error { return nil }),
		func(relay.Sink) (relay.Worker, error) { return w, nil })
	if err != nil {
		t.Fatalf("relay.New failed: %v", err)
	}
	return r
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// TestRelayForwardsSend verifies outbound messages reach the inner
// worker in order.
func TestRelayForwardsSend(t *testing.T) {
	w := &stubWorker{}
	r := newStubRelay(t, w)
	defer r.Stop()

	if err := r.Send(protocol.Ping{Orig: 1}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if err := r.Send(protocol.Ping{Orig: 2}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	waitFor(t, func() bool { return w.receivedCount() == 2 }, "worker to receive both messages")

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.received[0].(protocol.Ping).Orig != 1 || w.received[1].(protocol.Ping).Orig != 2 {
		t.Errorf("messages out of order: %#v", w.received)
	}
}

// TestRelayTickReportsWork verifies worker activity surfaces through
// Tick and that an idle relay reports no work.
func TestRelayTickReportsWork(t *testing.T) {
	w := &stubWorker{workLeft: 3}
	r := newStubRelay(t, w)
	defer r.Stop()

	waitFor(t, func() bool {
		did, err := r.Tick()
		if err != nil {
			t.Fatalf("Tick failed: %v", err)
		}
		return did
	}, "Tick to report work")

	// Let the remaining scripted work drain, then the relay goes idle.
	waitFor(t, func() bool {
		w.mu.Lock()
		left := w.workLeft
		w.mu.Unlock()
		return left == 0
	}, "scripted work to drain")
	time.Sleep(10 * time.Millisecond)
	r.Tick() // consume any residual work flag

	if did, _ := r.Tick(); did {
		t.Error("idle relay reported work")
	}
}

// TestRelayStop verifies Stop reaches the worker, is idempotent, and
// fails later Sends.
func TestRelayStop(t *testing.T) {
	w := &stubWorker{}
	r := newStubRelay(t, w)

	if err := r.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	w.mu.Lock()
	stopped := w.stopped
	w.mu.Unlock()
	if !stopped {
		t.Error("worker was not stopped")
	}

	if err := r.Stop(); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}

	if err := r.Send(protocol.Ping{}); !errors.Is(err, relay.ErrStopped) {
		t.Errorf("expected ErrStopped from Send, got %v", err)
	}
}

// TestRelayLatchesWorkerError verifies a tick error surfaces on the
// owner's next call and sticks.
func TestRelayLatchesWorkerError(t *testing.T) {
	boom := errors.New("transport exploded")
	w := &stubWorker{tickErr: boom}
	r := newStubRelay(t, w)
	defer r.Stop()

	waitFor(t, func() bool {
		_, err := r.Tick()
		return errors.Is(err, boom)
	}, "Tick to surface the worker error")

	if err := r.Send(protocol.Ping{}); !errors.Is(err, boom) {
		t.Errorf("expected latched error from Send, got %v", err)
	}
}

// TestRelayStopError verifies a stop-time worker error is returned.
func TestRelayStopError(t *testing.T) {
	boom := errors.New("close failed")
	w := &stubWorker{stopErr: boom}
	r := newStubRelay(t, w)

	if err := r.Stop(); !errors.Is(err, boom) {
		t.Errorf("expected stop error, got %v", err)
	}
}

// TestRelayFactoryError verifies a factory failure aborts construction.
func TestRelayFactoryError(t *testing.T) {
	boom := errors.New("no socket")
	_, err := relay.New(relay.SinkFunc(func(protocol.Message) error { return nil }),
		func(relay.Sink) (relay.Worker, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected factory error, got %v", err)
	}
}
