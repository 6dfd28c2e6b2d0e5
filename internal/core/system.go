// Package core contains the runtime orchestration for the ArduLink bridge.
// It loads configuration, wires the transport manager to the web app and
// exporters, and manages their combined lifecycle.
package core

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"ArduLink/internal/app"
	"ArduLink/internal/device"
	"ArduLink/internal/export"
	"ArduLink/internal/model"
	"ArduLink/internal/sequence"
	"ArduLink/internal/transport"
)

// System manages the lifecycle of the bridge components: the transport
// manager, the dashboard web app and the optional MQTT exporter.
type System struct {
	cfgPath string
	cfg     *model.Config

	Bridge    *transport.Manager
	Web       *app.App
	Exporter  *export.MQTTExporter
	Sequences map[string]*sequence.Runner

	started   bool
	startLock sync.Mutex
}

// NewSystem reads the YAML configuration at cfgPath and constructs all
// components. The serial link itself is not opened until StartAll.
func NewSystem(cfgPath string) (*System, error) {
	b, err := os.ReadFile(cfgPath)
	if err != nil {
		return nil, err
	}
	var cfg model.Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	if cfg.Serial.Device == "" {
		return nil, fmt.Errorf("config: serial.device is required")
	}

	s := &System{
		cfgPath:   cfgPath,
		cfg:       &cfg,
		Sequences: make(map[string]*sequence.Runner),
	}

	dev := device.NewSerialDevice(
		cfg.Serial.Device,
		cfg.Serial.Baud,
		time.Duration(cfg.Serial.ReadTimeoutMs)*time.Millisecond,
	)
	s.Bridge = transport.NewManager(dev, time.Duration(cfg.Serial.IdleSleepMs)*time.Millisecond)

	for _, sc := range cfg.Sequences {
		steps := make([]sequence.Step, 0, len(sc.Steps))
		for _, st := range sc.Steps {
			steps = append(steps, sequence.Step{
				Command: st.Command,
				Delay:   time.Duration(st.DelayMs) * time.Millisecond,
			})
		}
		s.Sequences[sc.Name] = sequence.NewRunner(sc.Name, steps, s.Bridge.SendCommand)
	}

	if cfg.Web.Addr != "" {
		web, err := app.NewApp(s.Bridge, s.Sequences, cfg.Web.Username, cfg.Web.Password)
		if err != nil {
			return nil, err
		}
		s.Web = web
	}

	if cfg.MQTT.Broker != "" {
		s.Exporter = export.NewMQTTExporter(
			cfg.MQTT.Broker,
			cfg.MQTT.Username,
			cfg.MQTT.Password,
			cfg.MQTT.Topic,
			time.Duration(cfg.MQTT.IntervalMs)*time.Millisecond,
			s.Bridge.LatestTelemetry,
		)
	}

	return s, nil
}

// StartAll starts the transport manager and, if configured, the web app and
// MQTT exporter. A link that cannot be opened is fatal; exporter failures
// are logged and the rest keeps running.
func (s *System) StartAll() error {
	s.startLock.Lock()
	defer s.startLock.Unlock()
	if s.started {
		return nil
	}

	if err := s.Bridge.Start(); err != nil {
		return err
	}

	if s.Web != nil {
		go func() {
			if err := s.Web.Start(s.cfg.Web.Addr); err != nil {
				log.Printf("[core] web app: %v", err)
			}
		}()
	}

	if s.Exporter != nil {
		if err := s.Exporter.Start(); err != nil {
			log.Printf("[core] mqtt exporter start err: %v", err)
		}
	}

	s.started = true
	return nil
}

// StopAll stops all running components gracefully.
func (s *System) StopAll() {
	s.startLock.Lock()
	defer s.startLock.Unlock()
	if !s.started {
		return
	}
	for _, r := range s.Sequences {
		r.Stop()
	}
	if s.Exporter != nil {
		s.Exporter.Stop()
	}
	if s.Web != nil {
		s.Web.Stop()
	}
	s.Bridge.Stop()
	s.started = false
}
