package entity

import (
	"time"

	"github.com/google/uuid"
)

type Contract struct {
	Id             uuid.UUID
	AwardNumber    string
	AccountNumber  string
	CustomerNumber string
	CustomerName   string
	ContractName   string
	Title          string
	Description    string
	Comments       string
	IsPricelist    bool
	Status         string
	CreatedBy      string
	CreatedAt      time.Time
}

type ContractChecklist struct {
	Id                  uuid.UUID
	AwardNumber         string
	DateOfSignature     time.Time
	EffectiveDate       time.Time
	ExpirationDate      time.Time
	FlowDownDate        time.Time
	PriceExpirationDate time.Time
	Extra               map[string]string
	CreatedBy           string
	CreatedAt           time.Time
}

type AuditLog struct {
	Id        uuid.UUID
	Action    string
	EntityId  string
	SessionId string
	UserId    string
	Payload   map[string]interface{}
	CreatedAt time.Time
}
