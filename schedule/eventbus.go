package schedule

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// EventBus publishes job completion events so external tooling (progress
// dashboards, CI hooks) can observe a run without polling the work
// directory. It is optional: a nil *EventBus is a valid no-op publisher.
type EventBus struct {
	client mqtt.Client
	topic  string
}

// JobEvent is the payload published for each terminal job transition.
type JobEvent struct {
	RunID  string `json:"run_id"`
	RuleID string `json:"rule_id"`
	File   string `json:"file,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// NewEventBus connects to an MQTT broker for publishing run progress, per
// SPEC_FULL.md's optional event-bus wiring. broker is a full URL
// (e.g. "tcp://localhost:1883"); topic is the base topic progress events are
// published under.
func NewEventBus(broker, topic, clientID string) (*EventBus, error) {
	opts := mqtt.NewClientOptions().AddBroker(broker).SetClientID(clientID).SetAutoReconnect(true)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &EventBus{client: client, topic: topic}, nil
}

// Publish sends a job event, best-effort: a publish failure never fails the
// job it describes.
func (b *EventBus) Publish(ev JobEvent) {
	if b == nil || b.client == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	topic := fmt.Sprintf("%s/%s", b.topic, ev.RunID)
	b.client.Publish(topic, 0, false, payload)
}

// Close disconnects from the broker, waiting up to 250ms for in-flight
// publishes to drain.
func (b *EventBus) Close() {
	if b == nil || b.client == nil {
		return
	}
	b.client.Disconnect(250)
}
