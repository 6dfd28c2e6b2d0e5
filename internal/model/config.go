// Package model defines shared configuration structures used to initialize the ArduLink bridge.
// It includes the serial link settings, web dashboard settings and command sequence scripts.
package model

// Config represents the root structure loaded from configs/config.yml.
type Config struct {
	Serial    SerialConfig     `yaml:"serial"`
	Web       WebConfig        `yaml:"web"`
	MQTT      MQTTConfig       `yaml:"mqtt"`
	Sequences []SequenceConfig `yaml:"sequences"`
}

// SerialConfig defines how the bridge opens and polls the serial link.
type SerialConfig struct {
	Device        string `yaml:"device"`          // device path (e.g. /dev/ttyUSB0)
	Baud          int    `yaml:"baud"`            // baud rate (e.g. 115200)
	ReadTimeoutMs int    `yaml:"read_timeout_ms"` // bounded read timeout (default 500)
	IdleSleepMs   int    `yaml:"idle_sleep_ms"`   // worker idle sleep (default 10)
}

// WebConfig defines the dashboard HTTP server.
type WebConfig struct {
	Addr     string `yaml:"addr"`     // listen address (e.g. ":8080"); empty disables
	Username string `yaml:"username"` // dashboard login user
	Password string `yaml:"password"` // dashboard login password
}

// MQTTConfig defines the optional telemetry exporter.
// An empty broker URL disables the exporter.
type MQTTConfig struct {
	Broker     string `yaml:"broker"` // broker URL (e.g. tcp://localhost:1883)
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	Topic      string `yaml:"topic"`       // publish topic for telemetry lines
	IntervalMs int    `yaml:"interval_ms"` // cache poll interval (default 1000)
}

// SequenceConfig defines a named script of timed commands
// that can be fired from the dashboard.
type SequenceConfig struct {
	Name  string         `yaml:"name"`
	Steps []SequenceStep `yaml:"steps"`
}

// SequenceStep is one command of a sequence followed by a pause.
type SequenceStep struct {
	Command string `yaml:"command"`
	DelayMs int    `yaml:"delay_ms"`
}
