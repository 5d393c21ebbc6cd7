package model

import (
	"time"

	"github.com/google/uuid"
)

type QueryHistory struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EntryId    string    `gorm:"type:varchar(64);not null;index"`
	SessionId  string    `gorm:"type:varchar(64);not null;index"`
	Text       string    `gorm:"type:text;not null"`
	RecordedAt time.Time `gorm:"not null"`
	CreatedAt  time.Time `gorm:"default:now();not null;index"`
}

func (QueryHistory) TableName() string {
	return "query_history"
}
