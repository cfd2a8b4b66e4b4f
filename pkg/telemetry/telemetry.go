// Package telemetry publishes controller snapshots over MQTT so the robot's
// state can be watched from off-board tools.
package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/gwillem/quadpod/pkg/quad"
)

var log = logrus.WithField("pkg", "telemetry")

const (
	connectTimeout = 5 * time.Second
	publishQoS     = 0
)

// Publisher forwards state snapshots to an MQTT broker. Publishing is
// fire-and-forget at QoS 0; a slow broker never stalls the control loop.
type Publisher struct {
	client mqtt.Client
	topic  string
}

// NewPublisher connects to the broker and returns a ready publisher.
// brokerURL is e.g. "tcp://localhost:1883".
func NewPublisher(brokerURL, topic string) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(fmt.Sprintf("quadpod-%d", time.Now().UnixNano())).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(time.Second).
		SetOnConnectHandler(func(mqtt.Client) {
			log.WithField("broker", brokerURL).Info("mqtt connected")
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("mqtt connection lost")
		})

	client := mqtt.NewClient(opts)
	tok := client.Connect()
	if !tok.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", brokerURL)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return &Publisher{client: client, topic: topic}, nil
}

// Publish serializes one snapshot and hands it to the broker without waiting
// for delivery.
func (p *Publisher) Publish(s quad.Snapshot) {
	data, err := json.Marshal(s)
	if err != nil {
		log.WithError(err).Warn("snapshot marshal failed")
		return
	}
	p.client.Publish(p.topic, publishQoS, false, data)
}

// Run consumes snapshots from ch until it closes, publishing each one.
// Intended to run on its own goroutine next to the controller.
func (p *Publisher) Run(ch <-chan quad.Snapshot) {
	for s := range ch {
		p.Publish(s)
	}
}

// Close disconnects from the broker, allowing a short drain window.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
