package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"product-notes-be/internal/dto"
	"product-notes-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumer_WritesQueuedMetafields(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { pubSub.Close() })

	metafields := &fakeMetafields{failing: map[string]bool{"p-bad": true}}
	consumer := NewConsumerService(pubSub, "METAFIELD_SYNC", metafields, logger.NewNopLogger())
	publisher := NewPublisherService("METAFIELD_SYNC", pubSub)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, consumer.Consume(ctx))

	for _, productId := range []string{"p-bad", "p1"} {
		payload, err := json.Marshal(dto.PublishMetafieldSyncMessage{Shop: testShop, ProductId: productId, Note: "Fragile"})
		require.NoError(t, err)
		require.NoError(t, publisher.Publish(context.Background(), payload))
	}
	// Malformed messages are acked and dropped.
	require.NoError(t, publisher.Publish(context.Background(), []byte("not json")))

	assert.Eventually(t, func() bool {
		return len(metafields.Calls()) == 2
	}, time.Second, 10*time.Millisecond)

	assert.ElementsMatch(t, []metafieldCall{
		{testShop, "p-bad", "Fragile"},
		{testShop, "p1", "Fragile"},
	}, metafields.Calls())
}
