package transport

import "sync"

// commandQueue is an unbounded FIFO of pending outbound command strings.
// Enqueue is safe from any number of goroutines; the write worker is the
// single consumer. Backpressure is intentionally absent.
type commandQueue struct {
	mu      sync.Mutex
	pending []string
}

// enqueue appends a command. It never blocks and never fails.
func (q *commandQueue) enqueue(cmd string) {
	q.mu.Lock()
	q.pending = append(q.pending, cmd)
	q.mu.Unlock()
}

// tryDequeue removes and returns the oldest pending command,
// or ("", false) when the queue is empty.
func (q *commandQueue) tryDequeue() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return "", false
	}
	cmd := q.pending[0]
	q.pending = q.pending[1:]
	return cmd, true
}
