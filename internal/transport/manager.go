// Package transport implements the bridge between the serial link and the
// rest of the process. A Manager owns the physical link exclusively and runs
// two background workers: one draining device telemetry into a single-slot
// cache, one draining queued commands onto the wire. Callers interact only
// through SendCommand and LatestTelemetry, which never block and never fail.
package transport

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"time"

	"ArduLink/internal/device"
	"ArduLink/internal/parser"
	"ArduLink/internal/util"
)

// defaultIdleSleep bounds worker CPU usage when the link is quiet.
const defaultIdleSleep = 10 * time.Millisecond

type state int

const (
	stateStopped state = iota
	stateStarting
	stateRunning
	stateStopping
)

// Manager composes the link, command queue and telemetry cache and manages
// the lifecycle of the read and write workers.
type Manager struct {
	dev  device.Device
	idle time.Duration

	queue commandQueue
	cache telemetryCache

	mu    sync.Mutex
	state state
	stop  chan struct{}
	wg    sync.WaitGroup
}

// NewManager constructs a Manager over the given link. idleSleep <= 0
// selects the default worker idle sleep.
func NewManager(dev device.Device, idleSleep time.Duration) *Manager {
	if idleSleep <= 0 {
		idleSleep = defaultIdleSleep
	}
	return &Manager{dev: dev, idle: idleSleep}
}

// Start opens the link and launches both workers. It is only valid from the
// stopped state; a link that cannot be opened fails Start synchronously.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != stateStopped {
		return fmt.Errorf("transport: start from non-stopped state")
	}
	m.state = stateStarting
	if err := m.dev.Open(); err != nil {
		m.state = stateStopped
		return fmt.Errorf("transport: open link: %w", err)
	}
	m.stop = make(chan struct{})
	m.wg.Add(2)
	go m.readLoop(m.stop)
	go m.writeLoop(m.stop)
	m.state = stateRunning
	util.Info("[transport] started")
	return nil
}

// Stop signals both workers, closes the link and waits for the workers to
// quiesce. Safe to call from any state and any number of times. The
// telemetry cache keeps its last value.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.state == stateStopped {
		// never started (or already fully stopped): just make sure
		// the link is released
		_ = m.dev.Close()
		m.mu.Unlock()
		return
	}
	m.state = stateStopping
	// close stop channel (idempotent)
	select {
	case <-m.stop:
		// already closed
	default:
		close(m.stop)
	}
	_ = m.dev.Close()
	m.mu.Unlock()

	m.wg.Wait()

	m.mu.Lock()
	m.state = stateStopped
	m.mu.Unlock()
	util.Info("[transport] stopped")
}

// SendCommand enqueues opaque command text for transmission. It never
// blocks and never reports failure; commands enqueued before Start are
// retained and sent once the write worker is running.
func (m *Manager) SendCommand(text string) {
	m.queue.enqueue(text)
}

// LatestTelemetry returns the most recent telemetry record, or "" if none
// has arrived. Valid in any state.
func (m *Manager) LatestTelemetry() string {
	return m.cache.read()
}

// readLoop drains the link, reassembles newline-delimited records from a
// partial-line buffer and publishes each one to the cache. Records carrying
// a parsable TS field get an AGE annotation derived from the previous
// record's timestamp. The buffer and timestamp state are owned by this
// goroutine alone.
func (m *Manager) readLoop(stop <-chan struct{}) {
	defer m.wg.Done()

	var (
		raw     []byte
		prevTS  int64
		havePrv bool
	)
	chunk := make([]byte, 256)

	for {
		select {
		case <-stop:
			return
		default:
		}

		n, err := m.dev.ReadAvailable(chunk)
		if err != nil {
			// transient I/O failure: log and keep going
			util.Error("[transport] read: %v", err)
		} else if n > 0 {
			raw = append(raw, chunk[:n]...)
			for {
				i := bytes.IndexByte(raw, '\n')
				if i < 0 {
					break
				}
				line := strings.TrimSpace(string(raw[:i]))
				raw = raw[i+1:]
				if line == "" {
					continue
				}
				if ts, ok := parser.Timestamp(line); ok {
					var age int64
					if havePrv {
						age = ts - prevTS
					}
					prevTS, havePrv = ts, true
					line = parser.Annotate(line, age)
				}
				m.cache.publish(line)
			}
		}

		select {
		case <-stop:
			return
		case <-time.After(m.idle):
		}
	}
}

// writeLoop drains the command queue onto the wire in FIFO order. A failed
// write drops the command (at-most-once, no retry).
func (m *Manager) writeLoop(stop <-chan struct{}) {
	defer m.wg.Done()
	for {
		select {
		case <-stop:
			return
		default:
		}

		if cmd, ok := m.queue.tryDequeue(); ok {
			if err := m.dev.WriteLine(cmd); err != nil {
				util.Error("[transport] write %q: %v", cmd, err)
			}
			continue
		}

		select {
		case <-stop:
			return
		case <-time.After(m.idle):
		}
	}
}
