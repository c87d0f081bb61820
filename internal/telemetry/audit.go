package telemetry

import (
	"context"
	"log"
	"time"
)

// Publisher is the broker surface audit events go through.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// AuditEmitter publishes audit-log envelopes for conversation and
// membership changes.
type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
}

// AuditEnvelope is the audit-log wire format.
type AuditEnvelope struct {
	SchemaVersion  int     `json:"schema_version"`
	EventType      string  `json:"event_type"`
	OccurredAt     string  `json:"occurred_at"`
	Service        string  `json:"service"`
	Environment    string  `json:"environment"`
	RequestID      string  `json:"request_id"`
	UserID         *string `json:"user_id,omitempty"`
	ConversationID string  `json:"conversation_id,omitempty"`
	Action         string  `json:"action"`
	Detail         string  `json:"detail,omitempty"`
	IP             string  `json:"ip,omitempty"`
	DeviceID       string  `json:"device_id,omitempty"`
}

// RequestMeta carries the caller context attached to every audit event.
type RequestMeta struct {
	RequestID string
	UserID    *string
	IP        string
	DeviceID  string
}

// NewAuditEmitter builds an AuditEmitter.
func NewAuditEmitter(publisher Publisher, routingKey, service, environment string) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
	}
}

// Emit publishes one audit event; a nil emitter or publisher is a no-op.
func (e *AuditEmitter) Emit(ctx context.Context, action, conversationID, detail string, meta RequestMeta) {
	if e == nil || e.publisher == nil {
		return
	}

	log.Printf("audit emit: action=%s conversation_id=%s request_id=%s", action, conversationID, meta.RequestID)
	envelope := AuditEnvelope{
		SchemaVersion:  1,
		EventType:      "audit_log",
		OccurredAt:     time.Now().UTC().Format(time.RFC3339Nano),
		Service:        e.service,
		Environment:    e.environment,
		RequestID:      meta.RequestID,
		UserID:         meta.UserID,
		ConversationID: conversationID,
		Action:         action,
		Detail:         detail,
		IP:             meta.IP,
		DeviceID:       meta.DeviceID,
	}

	if err := e.publisher.Publish(ctx, e.routingKey, envelope); err != nil {
		log.Printf("audit publish failed: %v", err)
	}
}
