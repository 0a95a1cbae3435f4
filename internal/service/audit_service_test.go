package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bcct-chatbot-be/internal/entity"
	"bcct-chatbot-be/internal/pkg/logger"
	"bcct-chatbot-be/internal/repository/contract"
	"bcct-chatbot-be/internal/repository/unitofwork"
	"bcct-chatbot-be/pkg/conversation/flow"
	"bcct-chatbot-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type auditStore struct {
	mu       sync.Mutex
	records  []*entity.AuditLog
	failures int
}

func (s *auditStore) Create(_ context.Context, l *entity.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("db unavailable")
	}
	s.records = append(s.records, l)
	return nil
}

func (s *auditStore) all() []*entity.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*entity.AuditLog(nil), s.records...)
}

type fakeUnitOfWork struct {
	store *auditStore
}

func (fakeUnitOfWork) Begin(context.Context) error { return nil }
func (fakeUnitOfWork) Commit() error               { return nil }
func (fakeUnitOfWork) Rollback() error             { return nil }

func (u fakeUnitOfWork) AuditLogRepository() contract.AuditLogRepository { return u.store }
func (fakeUnitOfWork) ContractRepository() contract.ContractRepository   { return nil }
func (fakeUnitOfWork) ChecklistRepository() contract.ChecklistRepository { return nil }
func (fakeUnitOfWork) LookupRepository() contract.LookupRepository       { return nil }

type fakeFactory struct {
	store *auditStore
}

func (f fakeFactory) NewUnitOfWork(context.Context) unitofwork.UnitOfWork {
	return fakeUnitOfWork{store: f.store}
}

type exportRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *exportRecorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *exportRecorder) all() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

func newAuditHarness(t *testing.T, store *auditStore) (IAuditService, *exportRecorder) {
	t.Helper()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })

	exporter := &exportRecorder{}
	svc := NewAuditService(pubSub, "audit", fakeFactory{store: store}, exporter, logger.NewNopLogger())
	require.NoError(t, svc.Consume(context.Background()))
	return svc, exporter
}

func TestAuditEventIsStoredAndExported(t *testing.T) {
	store := &auditStore{}
	svc, exporter := newAuditHarness(t, store)

	at := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	err := svc.PublishAudit(context.Background(), flow.AuditEvent{
		Type:       flow.EventContractCreated,
		SessionID:  "s1",
		UserID:     "tester",
		ContractID: "100001",
		Fields:     map[string]string{"TITLE": "Seals"},
		OccurredAt: at,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(exporter.all()) == 1 }, time.Second, 10*time.Millisecond)

	records := store.all()
	require.Len(t, records, 1)
	assert.Equal(t, flow.EventContractCreated, records[0].Action)
	assert.Equal(t, "100001", records[0].EntityId)
	assert.Equal(t, "Seals", records[0].Payload["TITLE"])
	assert.True(t, records[0].CreatedAt.Equal(at))

	exported := exporter.all()[0]
	assert.Equal(t, events.ContractCreated, exported.EventType())
	assert.Equal(t, records[0].Id.String(), exported.Payload()["audit_id"])
}

func TestAuditEventIsRetriedAfterStoreFailure(t *testing.T) {
	store := &auditStore{failures: 1}
	svc, exporter := newAuditHarness(t, store)

	require.NoError(t, svc.PublishAudit(context.Background(), flow.AuditEvent{
		Type:       flow.EventChecklistCreated,
		ContractID: "123456",
		OccurredAt: time.Now(),
	}))

	require.Eventually(t, func() bool { return len(store.all()) == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return len(exporter.all()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, events.ChecklistCreated, exporter.all()[0].EventType())
}
