package transport

import "sync"

// telemetryCache is a single slot holding the latest telemetry record.
// The read worker overwrites it wholesale; any goroutine may read it.
// No history is retained and readers must poll.
type telemetryCache struct {
	mu     sync.Mutex
	latest string
}

// publish replaces the stored record.
func (c *telemetryCache) publish(record string) {
	c.mu.Lock()
	c.latest = record
	c.mu.Unlock()
}

// read returns the current record, or "" if none has arrived yet.
func (c *telemetryCache) read() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}
