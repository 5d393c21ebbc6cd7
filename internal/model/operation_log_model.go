package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// OperationLog is the audit record of one message sent to a host editor.
type OperationLog struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId string         `gorm:"type:varchar(64);not null;index"`
	Kind      string         `gorm:"type:varchar(50);not null;index"`
	Payload   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"default:now();not null;index"`
}

func (OperationLog) TableName() string {
	return "operation_log"
}
