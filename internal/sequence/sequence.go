// Package sequence runs named scripts of timed commands against the
// transport. A running sequence is an independent cancellable goroutine that
// only calls the send function; it can never block the transport itself.
package sequence

import (
	"fmt"
	"sync"
	"time"

	"ArduLink/internal/util"
)

// Step is one command of a script followed by a pause before the next.
type Step struct {
	Command string
	Delay   time.Duration
}

// Runner fires the steps of a single named script in the background.
// Commands are fire-and-forget: no acknowledgement is awaited.
type Runner struct {
	Name  string
	Steps []Step

	send func(string)

	mu      sync.Mutex
	cancel  chan struct{}
	running bool
	wg      sync.WaitGroup
}

// NewRunner constructs a Runner that delivers commands through send
// (typically transport.Manager.SendCommand).
func NewRunner(name string, steps []Step, send func(string)) *Runner {
	return &Runner{Name: name, Steps: steps, send: send}
}

// Start launches the script in a background goroutine. A runner executes at
// most one instance of its script at a time.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return fmt.Errorf("sequence %s already running", r.Name)
	}
	r.cancel = make(chan struct{})
	r.running = true
	r.wg.Add(1)
	go r.run(r.cancel)
	return nil
}

// Stop cancels an in-flight script and waits for it to finish. Safe to call
// when not running.
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.running {
		// close cancel channel (idempotent)
		select {
		case <-r.cancel:
		default:
			close(r.cancel)
		}
	}
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Runner) run(cancel <-chan struct{}) {
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
		r.wg.Done()
	}()

	util.Info("[sequence] %s: started (%d steps)", r.Name, len(r.Steps))
	for _, step := range r.Steps {
		select {
		case <-cancel:
			util.Info("[sequence] %s: cancelled", r.Name)
			return
		default:
		}
		r.send(step.Command)
		if step.Delay <= 0 {
			continue
		}
		select {
		case <-cancel:
			util.Info("[sequence] %s: cancelled", r.Name)
			return
		case <-time.After(step.Delay):
		}
	}
	util.Info("[sequence] %s: finished", r.Name)
}
