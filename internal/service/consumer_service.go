package service

import (
	"context"
	"encoding/json"

	"product-notes-be/internal/dto"
	"product-notes-be/internal/pkg/logger"
	"product-notes-be/internal/pkg/metrics"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const metafieldSyncModule = "METAFIELD_SYNC"

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	metafields MetafieldWriter
	logger     logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	metafields MetafieldWriter,
	sysLogger logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:     pubSub,
		topicName:  topicName,
		metafields: metafields,
		logger:     sysLogger,
	}
}

// Consume subscribes to the sync topic and processes messages in the
// background until ctx is cancelled.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
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

// processMessage always acks. There is no retry queue for failed metafield
// writes; a failure is logged and the message dropped.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var payload dto.PublishMetafieldSyncMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error(metafieldSyncModule, "Failed to unmarshal sync message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}

	if err := cs.metafields.SetProductNoteMetafield(ctx, payload.Shop, payload.ProductId, payload.Note); err != nil {
		metrics.RecordMetafieldSync(false)
		cs.logger.Warn(metafieldSyncModule, "Metafield write failed", map[string]interface{}{
			"shop":       payload.Shop,
			"product_id": payload.ProductId,
			"error":      err.Error(),
		})
		return
	}

	metrics.RecordMetafieldSync(true)
	cs.logger.Info(metafieldSyncModule, "Metafield written", map[string]interface{}{
		"shop":       payload.Shop,
		"product_id": payload.ProductId,
	})
}
