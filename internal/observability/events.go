package observability

import "context"

// EventEnvelope is the wire shape of domain events published to the broker.
type EventEnvelope struct {
	EventType string      `json:"event_type"`
	EventName string      `json:"event_name"`
	Payload   interface{} `json:"payload"`
}

// MessageCreatedPayload describes an accepted append for downstream
// consumers (notification fan-out lives outside this core).
type MessageCreatedPayload struct {
	ConversationID string   `json:"conversation_id"`
	Kind           string   `json:"kind"`
	MessageID      string   `json:"message_id"`
	Seq            int64    `json:"seq"`
	SenderID       string   `json:"sender_id"`
	RecipientIDs   []string `json:"recipient_ids"`
}

// Publisher is the broker surface the messaging core publishes through.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

var defaultPublisher Publisher

// SetPublisher installs the process-wide event publisher.
func SetPublisher(publisher Publisher) {
	defaultPublisher = publisher
}

// PublishEvent publishes through the installed publisher; a missing
// publisher makes this a no-op so the core never depends on the broker.
func PublishEvent(ctx context.Context, routingKey string, event any) error {
	if defaultPublisher == nil {
		return nil
	}
	err := defaultPublisher.Publish(ctx, routingKey, event)
	if err != nil {
		IncAMQPPublishError()
	}
	return err
}
