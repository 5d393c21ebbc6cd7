package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"uml-nli-be/internal/mapper"
	"uml-nli-be/internal/pkg/logger"
	"uml-nli-be/internal/repository/contract"
	"uml-nli-be/internal/websocket"
	"uml-nli-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

// OperationDelivery pushes an encoded action message to a session's editor.
type OperationDelivery interface {
	Send(ctx context.Context, sessionID string, data []byte) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the operations topic: it delivers every message to
// the editor, announces it on NATS and writes the audit row. The last two are
// optional.
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	delivery   OperationDelivery
	events     EventPublisher
	opLog      contract.OperationLogRepository
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	delivery OperationDelivery,
	events EventPublisher,
	opLog contract.OperationLogRepository,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		delivery:   delivery,
		events:     events,
		opLog:      opLog,
		logger:     log,
	}
}

// Consume subscribes and processes messages until ctx is done.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	// Delivery is best effort: the post-cycle refresh resynchronises the
	// editor, so nothing is retried.
	defer msg.Ack()

	sessionID := msg.Metadata.Get(metadataSessionID)
	kind := msg.Metadata.Get(metadataKind)
	details := map[string]interface{}{"session_id": sessionID, "kind": kind}

	if err := cs.delivery.Send(ctx, sessionID, msg.Payload); err != nil {
		if errors.Is(err, websocket.ErrNotConnected) {
			cs.logger.Warn("Consumer", "No editor connected, message dropped", details)
		} else {
			cs.logger.Error("Consumer", "Failed to deliver message: "+err.Error(), details)
		}
	}

	if cs.events == nil && cs.opLog == nil {
		return
	}

	var envelope struct {
		Action json.RawMessage `json:"action"`
	}
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		cs.logger.Error("Consumer", "Failed to decode envelope: "+err.Error(), details)
		return
	}

	if cs.events != nil {
		var action map[string]interface{}
		_ = json.Unmarshal(envelope.Action, &action)
		if err := cs.events.Publish(ctx, events.NewOperationEmitted(sessionID, kind, action, time.Now())); err != nil {
			cs.logger.Warn("Consumer", "Failed to publish event: "+err.Error(), details)
		}
	}

	if cs.opLog != nil {
		if err := cs.opLog.Create(ctx, mapper.ActionToLog(sessionID, kind, envelope.Action)); err != nil {
			cs.logger.Warn("Consumer", "Failed to write operation log: "+err.Error(), details)
		}
	}
}
