// Package main implements a microcontroller simulator for developing the
// bridge without hardware. It emits telemetry lines with a TS device clock
// and applies the single-character command protocol it receives.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"ArduLink/internal/device"
	"ArduLink/internal/util"
)

func main() {
	util.SetupLogger()

	dev := flag.String("dev", "/tmp/ttySIM", "serial device to attach to")
	baud := flag.Int("baud", 115200, "baud rate")
	interval := flag.Duration("interval", time.Second, "telemetry interval")
	pair := flag.Bool("pair", false, "create a socat PTY pair /tmp/ttyBRIDGE <-> /tmp/ttySIM first")
	flag.Parse()

	var socat *util.SocatManager
	if *pair {
		socat = util.NewSocatManager()
		if err := socat.CreatePair("/tmp/ttyBRIDGE", "/tmp/ttySIM"); err != nil {
			log.Fatalf("create pty pair: %v", err)
		}
		defer socat.Cleanup()
		// give socat a moment to create the links
		time.Sleep(500 * time.Millisecond)
	}

	port := device.NewSerialDevice(*dev, *baud, 200*time.Millisecond)
	if err := port.Open(); err != nil {
		log.Fatalf("open %s: %v", *dev, err)
	}
	defer func() {
		if err := port.Close(); err != nil {
			log.Printf("[sim] warning: close: %v", err)
		}
	}()

	log.Printf("[sim] simulator attached to %s (baud %d)", *dev, *baud)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	armed := 0
	speed := 0
	battery := 100
	start := time.Now()
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	buf := make([]byte, 64)
	var partial string

	for {
		select {
		case <-stop:
			log.Println("[sim] simulator stopped.")
			return
		case <-ticker.C:
			if battery > 1 && armed == 1 {
				battery--
			}
			line := fmt.Sprintf("TS:%d | ARM:%d | SPD:%d | BATT:%d",
				time.Since(start).Milliseconds(), armed, speed, battery)
			if err := port.WriteLine(line); err != nil {
				log.Printf("[sim] telemetry write err: %v", err)
			} else {
				log.Printf("[sim] sent: %s", line)
			}
		default:
		}

		n, err := port.ReadAvailable(buf)
		if err != nil || n == 0 {
			continue
		}
		partial += string(buf[:n])
		for {
			cmd, rest, found := strings.Cut(partial, "\n")
			if !found {
				break
			}
			partial = rest
			armed, speed = apply(strings.TrimSpace(cmd), armed, speed)
		}
	}
}

// apply executes one command: 'a' arms, 'd' disarms, 's<n>' sets speed.
func apply(cmd string, armed, speed int) (int, int) {
	switch {
	case cmd == "":
	case cmd == "a":
		log.Printf("[sim] armed")
		return 1, speed
	case cmd == "d":
		log.Printf("[sim] disarmed")
		return 0, 0
	case strings.HasPrefix(cmd, "s"):
		if v, err := strconv.Atoi(cmd[1:]); err == nil {
			log.Printf("[sim] speed set to %d", v)
			return armed, v
		}
		log.Printf("[sim] bad speed command: %q", cmd)
	default:
		log.Printf("[sim] unknown command: %q", cmd)
	}
	return armed, speed
}
