package main

import "github.com/bittoy/corpuspipe/schedule"

// connectEventBus optionally connects the scheduler's MQTT job-completion
// publisher, gated by "scheduler.mqtt_broker" per SPEC_FULL.md's ambient
// observability extra. A nil bus is a valid no-op publisher.
func connectEventBus(e *env) (*schedule.EventBus, error) {
	broker, ok := e.cfg.Get("scheduler.mqtt_broker", nil)
	if !ok {
		return nil, nil
	}
	brokerStr, ok := broker.(string)
	if !ok || brokerStr == "" {
		return nil, nil
	}
	topic := e.cfg.GetString("scheduler.mqtt_topic", "corpuspipe/runs")
	return schedule.NewEventBus(brokerStr, topic, "corpuspipe-"+e.runID)
}
