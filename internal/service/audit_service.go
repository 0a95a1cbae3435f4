package service

import (
	"context"
	"encoding/json"
	"fmt"

	"bcct-chatbot-be/internal/entity"
	"bcct-chatbot-be/internal/pkg/logger"
	"bcct-chatbot-be/internal/repository/unitofwork"
	"bcct-chatbot-be/pkg/conversation/flow"
	"bcct-chatbot-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// EventExporter forwards persisted audit records off-process.
type EventExporter interface {
	Publish(ctx context.Context, event events.Event) error
}

// IAuditService takes audit events from the flow controller, decoupled from
// the user turn through an in-process topic.
type IAuditService interface {
	flow.AuditPublisher
	Consume(ctx context.Context) error
}

type auditService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	exporter   EventExporter
	logger     logger.ILogger
}

// NewAuditService wires the audit pipeline. uowFactory and exporter may be nil:
// without a database nothing is stored, without NATS nothing is exported.
func NewAuditService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	exporter EventExporter,
	logger logger.ILogger,
) IAuditService {
	return &auditService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
		exporter:   exporter,
		logger:     logger,
	}
}

func (s *auditService) PublishAudit(ctx context.Context, event flow.AuditEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := s.pubSub.Publish(s.topicName, msg); err != nil {
		return fmt.Errorf("publish audit event: %w", err)
	}
	return nil
}

func (s *auditService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (s *auditService) processMessage(ctx context.Context, msg *message.Message) {
	var ev flow.AuditEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		s.logger.Error("AuditService", "Dropping malformed audit message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		msg.Ack()
		return
	}

	record := &entity.AuditLog{
		Id:        uuid.New(),
		Action:    ev.Type,
		EntityId:  ev.ContractID,
		SessionId: ev.SessionID,
		UserId:    ev.UserID,
		Payload:   auditPayload(ev.Fields),
		CreatedAt: ev.OccurredAt,
	}

	if s.uowFactory != nil {
		if err := s.persist(ctx, record); err != nil {
			s.logger.Error("AuditService", "Failed to store audit record", map[string]interface{}{
				"action":      ev.Type,
				"contract_id": ev.ContractID,
				"error":       err.Error(),
			})
			msg.Nack()
			return
		}
	}

	// Export is best effort: the database row is the record of truth and a
	// redelivery would insert it twice.
	if s.exporter != nil {
		exported := events.NewAuditEvent(exportType(ev.Type), record.Id.String(), ev.SessionID, ev.UserID, ev.ContractID, ev.Fields, ev.OccurredAt)
		if err := s.exporter.Publish(ctx, exported); err != nil {
			s.logger.Warn("AuditService", "Failed to export audit event", map[string]interface{}{
				"audit_id": record.Id.String(),
				"error":    err.Error(),
			})
		}
	}

	s.logger.Info("AuditService", "Audit event recorded", map[string]interface{}{
		"action":      ev.Type,
		"contract_id": ev.ContractID,
		"session_id":  ev.SessionID,
	})
	msg.Ack()
}

func (s *auditService) persist(ctx context.Context, record *entity.AuditLog) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.AuditLogRepository().Create(ctx, record); err != nil {
		return err
	}
	return uow.Commit()
}

func auditPayload(fields map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func exportType(action string) string {
	switch action {
	case flow.EventContractCreated:
		return events.ContractCreated
	case flow.EventChecklistCreated:
		return events.ChecklistCreated
	default:
		return "audit.unknown"
	}
}
