// Package export publishes telemetry records to an MQTT broker, for
// consumers that cannot poll the bridge's HTTP API directly.
package export

import (
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"ArduLink/internal/util"
)

// defaultInterval is the cache poll interval when none is configured.
const defaultInterval = time.Second

// MQTTExporter polls a telemetry source and publishes every new record to a
// single topic with QoS 0. Publish failures are logged and the record is
// dropped, mirroring the at-most-once discipline of the transport itself.
type MQTTExporter struct {
	BrokerURL string
	Username  string
	Password  string
	Topic     string
	Interval  time.Duration

	source func() string // typically transport.Manager.LatestTelemetry

	client mqtt.Client
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewMQTTExporter constructs an exporter reading records from source.
func NewMQTTExporter(brokerURL, username, password, topic string, interval time.Duration, source func() string) *MQTTExporter {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &MQTTExporter{
		BrokerURL: brokerURL,
		Username:  username,
		Password:  password,
		Topic:     topic,
		Interval:  interval,
		source:    source,
	}
}

// Start connects to the broker and launches the publish loop.
func (e *MQTTExporter) Start() error {
	opts := mqtt.NewClientOptions().
		AddBroker(e.BrokerURL).
		SetClientID(fmt.Sprintf("ardulink-%d", time.Now().UnixNano())).
		SetAutoReconnect(true)
	if e.Username != "" {
		opts.SetUsername(e.Username)
		opts.SetPassword(e.Password)
	}

	e.client = mqtt.NewClient(opts)
	token := e.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect %s: %w", e.BrokerURL, err)
	}

	e.stop = make(chan struct{})
	e.wg.Add(1)
	go e.loop()
	util.Info("[export] mqtt exporter started (broker=%s topic=%s)", e.BrokerURL, e.Topic)
	return nil
}

// Stop halts the publish loop and disconnects from the broker.
// Safe to call when never started.
func (e *MQTTExporter) Stop() {
	if e.stop == nil {
		return
	}
	select {
	case <-e.stop:
	default:
		close(e.stop)
	}
	e.wg.Wait()
	if e.client != nil {
		e.client.Disconnect(250)
	}
	util.Info("[export] mqtt exporter stopped")
}

// loop publishes the cached record whenever it changes.
func (e *MQTTExporter) loop() {
	defer e.wg.Done()
	ticker := time.NewTicker(e.Interval)
	defer ticker.Stop()

	var last string
	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			record := e.source()
			if record == "" || record == last {
				continue
			}
			token := e.client.Publish(e.Topic, 0, false, record)
			token.Wait()
			if err := token.Error(); err != nil {
				util.Error("[export] publish: %v", err)
				continue
			}
			last = record
		}
	}
}
