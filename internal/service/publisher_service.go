package service

import (
	"context"

	"uml-nli-be/pkg/operation"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

const (
	metadataSessionID = "session_id"
	metadataKind      = "kind"
)

// IPublisherService is the dispatcher's emitter. Messages go onto the internal
// bus already encoded for the host.
type IPublisherService interface {
	operation.Emitter
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

func (ps *publisherService) Emit(ctx context.Context, sessionID string, msg operation.Message) error {
	payload, err := operation.Encode(sessionID, msg)
	if err != nil {
		return err
	}

	m := message.NewMessage(watermill.NewUUID(), payload)
	m.Metadata.Set(metadataSessionID, sessionID)
	m.Metadata.Set(metadataKind, msg.Kind())
	m.SetContext(ctx)

	return ps.publisher.Publish(ps.topicName, m)
}
