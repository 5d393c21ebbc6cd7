package mapper

import (
	"encoding/json"

	"uml-nli-be/internal/dto"
	"uml-nli-be/internal/model"

	"gorm.io/datatypes"
)

// ActionToLog builds the audit row for an action delivered to a session.
func ActionToLog(sessionID, kind string, action json.RawMessage) *model.OperationLog {
	return &model.OperationLog{
		SessionId: sessionID,
		Kind:      kind,
		Payload:   datatypes.JSON(action),
	}
}

func LogToResponse(row *model.OperationLog) dto.OperationLogResponse {
	return dto.OperationLogResponse{
		Id:        row.Id,
		SessionId: row.SessionId,
		Kind:      row.Kind,
		Action:    json.RawMessage(row.Payload),
		CreatedAt: row.CreatedAt,
	}
}
