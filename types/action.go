package types

import (
	"time"
)

type ActionBroker interface {
	LifecycleManager
	Publish(action string, payload interface{}) error
}

type ActionMessage struct {
	Action    string      `json:"action"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
	Source    string      `json:"source"`
	MessageID string      `json:"message_id"`
}
