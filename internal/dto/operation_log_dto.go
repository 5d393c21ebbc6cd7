package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ListOperationLogsRequest struct {
	Kind     string `query:"kind"`
	Page     int    `query:"page" validate:"min=1"`
	PageSize int    `query:"page_size" validate:"min=1,max=200"`
}

type OperationLogResponse struct {
	Id        uuid.UUID       `json:"id"`
	SessionId string          `json:"session_id"`
	Kind      string          `json:"kind"`
	Action    json.RawMessage `json:"action"`
	CreatedAt time.Time       `json:"created_at"`
}

type OperationLogPageResponse struct {
	Items    []OperationLogResponse `json:"items"`
	Total    int64                  `json:"total"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
}
