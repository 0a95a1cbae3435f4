package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AuditLog struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Action    string         `gorm:"type:varchar(50);not null;index"`
	EntityId  string         `gorm:"type:varchar(50);index"`
	SessionId string         `gorm:"type:varchar(100)"`
	UserId    string         `gorm:"type:varchar(100);index"`
	Payload   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"default:now();not null;index"`
}

func (AuditLog) TableName() string {
	return "cct_audit_logs"
}
