package flow

import (
	"context"
	"time"

	"bcct-chatbot-be/pkg/store"
)

const (
	EventContractCreated  = "CONTRACT_CREATED"
	EventChecklistCreated = "CHECKLIST_CREATED"
)

// AuditEvent records a successful creation made through a conversation.
type AuditEvent struct {
	Type       string            `json:"type"`
	SessionID  string            `json:"session_id"`
	UserID     string            `json:"user_id"`
	ContractID string            `json:"contract_id"`
	Fields     map[string]string `json:"fields"`
	OccurredAt time.Time         `json:"occurred_at"`
}

type AuditPublisher interface {
	PublishAudit(ctx context.Context, event AuditEvent) error
}

type nopPublisher struct{}

func (nopPublisher) PublishAudit(context.Context, AuditEvent) error { return nil }

// publish never fails the turn; the creation already happened.
func (c *Controller) publish(ctx context.Context, eventType string, sess *store.ConversationSession, contractID string, fields map[string]string) {
	ev := AuditEvent{
		Type:       eventType,
		SessionID:  sess.SessionID,
		UserID:     sess.UserID,
		ContractID: contractID,
		Fields:     copyFields(fields),
		OccurredAt: c.now(),
	}
	if err := c.audit.PublishAudit(ctx, ev); err != nil {
		c.logger.Error("FlowController", "Failed to publish audit event", map[string]interface{}{
			"type":        eventType,
			"contract_id": contractID,
			"error":       err.Error(),
		})
	}
}
