package events

import "time"

// NewAuditEvent builds the exported form of a conversation audit record. The
// payload carries its own timestamp so consumers do not depend on delivery time.
func NewAuditEvent(eventType, auditID, sessionID, userID, contractID string, fields map[string]string, at time.Time) BaseEvent {
	f := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		f[k] = v
	}
	return BaseEvent{
		Type: eventType,
		Data: map[string]interface{}{
			"audit_id":    auditID,
			"session_id":  sessionID,
			"user_id":     userID,
			"contract_id": contractID,
			"fields":      f,
			"occurred_at": at.UTC().Format(time.RFC3339),
		},
		OccurredAt: at,
	}
}
