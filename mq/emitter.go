package mq

import (
	"context"
	"encoding/json"
	"log"

	"commune/rdx"
)

// Msg is one domain event published on the audit channel. EntityType
// names the aggregate ("registration", "setting", "incident"),
// EntityId the affected document, Method the mutation verb.
type Msg struct {
	EntityType string `json:"entity_type"`
	Method     string `json:"method"`
	EntityId   string `json:"entity_id"`
	ItemType   string `json:"item_type,omitempty"`
	ItemId     string `json:"item_id,omitempty"`
}

const channel = "domain-events"

// Emit publishes the event to Redis. Failures are logged, never
// surfaced: audit events must not fail the request that caused them.
func Emit(ctx context.Context, eventName string, content Msg) {
	data, err := json.Marshal(map[string]any{"event": eventName, "payload": content})
	if err != nil {
		log.Printf("[mq] marshal %s: %v", eventName, err)
		return
	}
	if err := rdx.Conn.Publish(ctx, channel, data).Err(); err != nil {
		log.Printf("[mq] publish %s: %v", eventName, err)
	}
}

// StartAuditWorker consumes the audit channel and writes a log line
// per event. Runs for the life of the process.
func StartAuditWorker() {
	ctx := context.Background()
	sub := rdx.Conn.Subscribe(ctx, channel)
	ch := sub.Channel()

	log.Println("[mq] audit worker listening")

	for msg := range ch {
		var event struct {
			Event   string `json:"event"`
			Payload Msg    `json:"payload"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			log.Printf("[mq] bad event payload: %v", err)
			continue
		}
		log.Printf("[mq] %s %s/%s %s", event.Event, event.Payload.EntityType, event.Payload.EntityId, event.Payload.Method)
	}
}
