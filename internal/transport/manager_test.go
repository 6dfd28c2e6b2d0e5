package transport

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeDevice scripts reads and records writes for manager tests.
type fakeDevice struct {
	mu         sync.Mutex
	chunks     [][]byte
	writes     []string
	writeDelay time.Duration
	openErr    error
	opened     bool
	closes     int
}

func (d *fakeDevice) Open() error {
	if d.openErr != nil {
		return d.openErr
	}
	d.mu.Lock()
	d.opened = true
	d.mu.Unlock()
	return nil
}

func (d *fakeDevice) Close() error {
	d.mu.Lock()
	d.opened = false
	d.closes++
	d.mu.Unlock()
	return nil
}

func (d *fakeDevice) ReadAvailable(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.chunks) == 0 {
		return 0, nil // timed out, nothing available
	}
	n := copy(p, d.chunks[0])
	d.chunks[0] = d.chunks[0][n:]
	if len(d.chunks[0]) == 0 {
		d.chunks = d.chunks[1:]
	}
	return n, nil
}

func (d *fakeDevice) WriteLine(s string) error {
	if d.writeDelay > 0 {
		time.Sleep(d.writeDelay)
	}
	d.mu.Lock()
	d.writes = append(d.writes, s)
	d.mu.Unlock()
	return nil
}

func (d *fakeDevice) feed(s string) {
	d.mu.Lock()
	d.chunks = append(d.chunks, []byte(s))
	d.mu.Unlock()
}

func (d *fakeDevice) written() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.writes...)
}

func (d *fakeDevice) closeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closes
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newTestManager(dev *fakeDevice) *Manager {
	return NewManager(dev, time.Millisecond)
}

func TestStartFailsWhenLinkUnavailable(t *testing.T) {
	dev := &fakeDevice{openErr: errors.New("device busy")}
	m := newTestManager(dev)
	if err := m.Start(); err == nil {
		t.Fatalf("expected start to fail when link cannot be opened")
	}
	// a failed start leaves the manager stopped; a later start must be legal
	dev.openErr = nil
	if err := m.Start(); err != nil {
		t.Fatalf("restart after failed open: %v", err)
	}
	m.Stop()
}

func TestCommandsSentInOrder(t *testing.T) {
	dev := &fakeDevice{writeDelay: 5 * time.Millisecond}
	m := newTestManager(dev)
	if err := m.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	m.SendCommand("a")
	m.SendCommand("d")
	m.SendCommand("s11")

	waitFor(t, "3 writes", func() bool { return len(dev.written()) == 3 })
	got := dev.written()
	want := []string{"a", "d", "s11"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("write order mismatch: got %v, want %v", got, want)
		}
	}
}

func TestCommandsEnqueuedBeforeStartAreSent(t *testing.T) {
	dev := &fakeDevice{}
	m := newTestManager(dev)

	m.SendCommand("a")
	m.SendCommand("s5")

	if err := m.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	waitFor(t, "pre-start commands", func() bool { return len(dev.written()) == 2 })
	got := dev.written()
	if got[0] != "a" || got[1] != "s5" {
		t.Fatalf("unexpected writes: %v", got)
	}
}

func TestSplitLineReassembly(t *testing.T) {
	dev := &fakeDevice{}
	m := newTestManager(dev)
	if err := m.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	dev.feed("TS:10")
	dev.feed("00 | ARM:1\n")

	want := "TS:1000 | ARM:1 | AGE:0ms"
	waitFor(t, "reassembled record", func() bool { return m.LatestTelemetry() == want })
}

func TestAgeAnnotationSequence(t *testing.T) {
	dev := &fakeDevice{}
	m := newTestManager(dev)
	if err := m.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	dev.feed("TS:1000\n")
	waitFor(t, "first record", func() bool { return m.LatestTelemetry() == "TS:1000 | AGE:0ms" })

	dev.feed("TS:1500\n")
	waitFor(t, "second record", func() bool { return m.LatestTelemetry() == "TS:1500 | AGE:500ms" })
}

func TestNegativeAgeTolerated(t *testing.T) {
	dev := &fakeDevice{}
	m := newTestManager(dev)
	if err := m.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	dev.feed("TS:1000\nTS:400\n")
	waitFor(t, "negative age record", func() bool { return m.LatestTelemetry() == "TS:400 | AGE:-600ms" })
}

func TestMarkerlessLinePublishedVerbatim(t *testing.T) {
	dev := &fakeDevice{}
	m := newTestManager(dev)
	if err := m.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	dev.feed("  ARM:1 | BATT:87  \n")
	waitFor(t, "verbatim record", func() bool { return m.LatestTelemetry() == "ARM:1 | BATT:87" })
}

func TestUnparsableTimestampSkipsBookkeeping(t *testing.T) {
	dev := &fakeDevice{}
	m := newTestManager(dev)
	if err := m.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	dev.feed("TS:1000\n")
	waitFor(t, "first record", func() bool { return m.LatestTelemetry() == "TS:1000 | AGE:0ms" })

	// unparsable TS: published as-is, previous timestamp untouched
	dev.feed("TS:abc\n")
	waitFor(t, "unparsable record", func() bool { return m.LatestTelemetry() == "TS:abc" })

	dev.feed("TS:1800\n")
	waitFor(t, "third record", func() bool { return m.LatestTelemetry() == "TS:1800 | AGE:800ms" })
}

func TestMultipleLinesInOneChunk(t *testing.T) {
	dev := &fakeDevice{}
	m := newTestManager(dev)
	if err := m.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	dev.feed("TS:100 | N:1\nTS:250 | N:2\n")
	// the last record wins, with age derived from the intermediate one
	want := "TS:250 | N:2 | AGE:150ms"
	waitFor(t, "last of batch", func() bool { return m.LatestTelemetry() == want })
}

func TestBlankLinesDiscarded(t *testing.T) {
	dev := &fakeDevice{}
	m := newTestManager(dev)
	if err := m.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	dev.feed("\n   \nARM:1\n")
	waitFor(t, "non-blank record", func() bool { return m.LatestTelemetry() == "ARM:1" })
}

func TestLatestTelemetryLifecycle(t *testing.T) {
	dev := &fakeDevice{}
	m := newTestManager(dev)

	if got := m.LatestTelemetry(); got != "" {
		t.Fatalf("expected empty telemetry before start, got %q", got)
	}

	if err := m.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	dev.feed("ARM:0 | BATT:99\n")
	waitFor(t, "record", func() bool { return m.LatestTelemetry() != "" })
	m.Stop()

	// the cache is not cleared on stop
	if got := m.LatestTelemetry(); got != "ARM:0 | BATT:99" {
		t.Fatalf("expected cached record after stop, got %q", got)
	}
}

func TestStopIdempotent(t *testing.T) {
	dev := &fakeDevice{}
	m := newTestManager(dev)

	// stop before start is a no-op that leaves the link closed
	m.Stop()
	if dev.closeCount() == 0 {
		t.Fatalf("expected close on stop before start")
	}

	if err := m.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	m.Stop()
	m.Stop()

	dev.mu.Lock()
	opened := dev.opened
	dev.mu.Unlock()
	if opened {
		t.Fatalf("link should be closed after stop")
	}
}

func TestRestartAfterStop(t *testing.T) {
	dev := &fakeDevice{}
	m := newTestManager(dev)

	if err := m.Start(); err != nil {
		t.Fatalf("first start: %v", err)
	}
	m.Stop()

	if err := m.Start(); err != nil {
		t.Fatalf("second start: %v", err)
	}
	dev.feed("TS:7\n")
	waitFor(t, "record after restart", func() bool { return m.LatestTelemetry() == "TS:7 | AGE:0ms" })
	m.Stop()
}
