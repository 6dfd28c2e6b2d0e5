// Package util provides helpers for virtual serial management using socat.
package util

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"sync"
)

// SocatManager manages the lifecycle of a socat-created virtual serial pair,
// used to run the bridge against the simulator without real hardware.
type SocatManager struct {
	mu     sync.Mutex
	cmds   []*exec.Cmd
	links  []string
	closed bool
}

// NewSocatManager initializes an empty manager.
func NewSocatManager() *SocatManager {
	return &SocatManager{}
}

// CreatePair starts a socat process that links two PTYs (bidirectional).
// The bridge opens one end, the simulator the other.
func (m *SocatManager) CreatePair(bridgeEnd, deviceEnd string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cmd := exec.Command(
		"socat", "-d", "-d",
		fmt.Sprintf("pty,raw,echo=0,link=%s", bridgeEnd),
		fmt.Sprintf("pty,raw,echo=0,link=%s", deviceEnd),
	)
	cmd.Stdout = log.Writer()
	cmd.Stderr = log.Writer()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start socat: %w", err)
	}

	log.Printf("[virt-serial] started socat (pid=%d): %s <-> %s", cmd.Process.Pid, bridgeEnd, deviceEnd)

	m.cmds = append(m.cmds, cmd)
	m.links = append(m.links, bridgeEnd, deviceEnd)
	return nil
}

// Cleanup stops all socat processes and removes created links.
func (m *SocatManager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true

	for _, cmd := range m.cmds {
		if cmd.Process != nil {
			log.Printf("[virt-serial] killing socat pid=%d", cmd.Process.Pid)
			_ = cmd.Process.Kill()
			_, _ = cmd.Process.Wait()
		}
	}

	for _, path := range m.links {
		if _, err := os.Lstat(path); err == nil {
			_ = os.Remove(path)
			log.Printf("[virt-serial] removed link: %s", path)
		}
	}

	log.Printf("[virt-serial] cleanup complete (%d pairs)", len(m.links)/2)
}
