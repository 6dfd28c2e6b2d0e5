package sequence

import (
	"sync"
	"testing"
	"time"
)

// recorder collects sent commands.
type recorder struct {
	mu   sync.Mutex
	cmds []string
}

func (r *recorder) send(cmd string) {
	r.mu.Lock()
	r.cmds = append(r.cmds, cmd)
	r.mu.Unlock()
}

func (r *recorder) sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.cmds...)
}

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

func TestRunnerFiresStepsInOrder(t *testing.T) {
	rec := &recorder{}
	r := NewRunner("startup", []Step{
		{Command: "a", Delay: time.Millisecond},
		{Command: "s10", Delay: time.Millisecond},
		{Command: "s0", Delay: 0},
	}, rec.send)

	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, "all steps", func() bool { return len(rec.sent()) == 3 })
	r.Stop()

	got := rec.sent()
	want := []string{"a", "s10", "s0"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("step order mismatch: got %v, want %v", got, want)
		}
	}
}

func TestRunnerRejectsConcurrentRuns(t *testing.T) {
	rec := &recorder{}
	r := NewRunner("slow", []Step{{Command: "a", Delay: time.Second}}, rec.send)

	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := r.Start(); err == nil {
		t.Fatalf("expected second start to fail while running")
	}
	r.Stop()
}

func TestRunnerCancellation(t *testing.T) {
	rec := &recorder{}
	r := NewRunner("long", []Step{
		{Command: "a", Delay: 10 * time.Second},
		{Command: "never", Delay: 0},
	}, rec.send)

	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, "first step", func() bool { return len(rec.sent()) == 1 })

	done := make(chan struct{})
	go func() {
		r.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("stop did not cancel the in-flight delay")
	}

	if got := rec.sent(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("expected only the first step, got %v", got)
	}

	// a cancelled runner may be started again
	if err := r.Start(); err != nil {
		t.Fatalf("restart after cancel: %v", err)
	}
	r.Stop()
}
