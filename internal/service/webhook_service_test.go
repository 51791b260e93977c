package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"product-notes-be/internal/dto"
	"product-notes-be/internal/pkg/apperror"
	"product-notes-be/internal/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNormalizeTopic(t *testing.T) {
	assert.Equal(t, "PRODUCTS_CREATE", NormalizeTopic("products/create"))
	assert.Equal(t, "COLLECTIONS_CREATE", NormalizeTopic(" collections/create "))
	assert.Equal(t, "PRODUCTS_UPDATE", NormalizeTopic("PRODUCTS_UPDATE"))
	assert.Equal(t, "", NormalizeTopic(""))
}

func TestIngest_KnownTopics(t *testing.T) {
	tests := []struct {
		topic   string
		message string
	}{
		{"products/create", "Product created"},
		{"products/update", "Product updated"},
		{"products/delete", "Product deleted"},
		{"collections/create", "Collection created"},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			core, logs := observer.New(zapcore.InfoLevel)
			payloadCore, payloads := observer.New(zapcore.InfoLevel)
			svc := NewWebhookService(logger.NewWithCore(core), logger.NewWithCore(payloadCore))

			handled, err := svc.Ingest(context.Background(), &dto.WebhookEvent{
				Topic:   tt.topic,
				Shop:    testShop,
				Payload: json.RawMessage(`{"id":632910392,"admin_graphql_api_id":"gid://shopify/Product/632910392","title":"IPod Nano"}`),
			})

			require.NoError(t, err)
			assert.True(t, handled)

			entries := logs.FilterMessage(tt.message).All()
			require.Len(t, entries, 1)
			assert.Equal(t, 1, payloads.Len())
		})
	}
}

func TestIngest_UnhandledTopicSucceeds(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	svc := NewWebhookService(logger.NewWithCore(core), nil)

	handled, err := svc.Ingest(context.Background(), &dto.WebhookEvent{
		Topic:   "orders/create",
		Shop:    testShop,
		Payload: json.RawMessage(`{}`),
	})

	require.NoError(t, err)
	assert.False(t, handled)
	assert.Equal(t, 1, logs.FilterMessage("Unhandled webhook topic").Len())
}

func TestIngest_Faults(t *testing.T) {
	tests := []struct {
		name string
		evt  dto.WebhookEvent
	}{
		{"missing topic", dto.WebhookEvent{Shop: testShop, Payload: json.RawMessage(`{}`)}},
		{"missing shop", dto.WebhookEvent{Topic: "products/create", Payload: json.RawMessage(`{}`)}},
		{"malformed payload", dto.WebhookEvent{Topic: "products/create", Shop: testShop, Payload: json.RawMessage(`{"id":`)}},
		{"empty payload", dto.WebhookEvent{Topic: "products/create", Shop: testShop}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewWebhookService(logger.NewNopLogger(), nil)
			_, err := svc.Ingest(context.Background(), &tt.evt)
			assert.ErrorIs(t, err, apperror.ErrIngestionFault)
		})
	}
}

func TestSummarize(t *testing.T) {
	out := summarize(json.RawMessage(`{"id":1,"title":"Frontpage"}`))
	assert.Equal(t, "1", out["resource_id"])
	assert.Equal(t, "Frontpage", out["title"])

	assert.Empty(t, summarize(json.RawMessage(`[1,2]`)))
}

// webhookMetric returns the webhooks_received_total value for each topic label.
func webhookMetric(t *testing.T) map[string]float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	series := make(map[string]float64)
	for _, mf := range families {
		if mf.GetName() != "webhooks_received_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "topic" {
					series[l.GetValue()] = m.GetCounter().GetValue()
				}
			}
		}
	}
	return series
}

func TestIngest_UnknownTopicsShareOneMetricLabel(t *testing.T) {
	svc := NewWebhookService(logger.NewNopLogger(), nil)
	before := webhookMetric(t)[UnhandledTopicLabel]

	for i := 0; i < 50; i++ {
		handled, err := svc.Ingest(context.Background(), &dto.WebhookEvent{
			Topic:   fmt.Sprintf("junk/%d", i),
			Shop:    "demo.myshopify.com",
			Payload: json.RawMessage(`{}`),
		})
		require.NoError(t, err)
		assert.False(t, handled)
	}

	series := webhookMetric(t)
	assert.Equal(t, before+50, series[UnhandledTopicLabel])
	for label := range series {
		assert.False(t, strings.HasPrefix(label, "JUNK_"), "unexpected label %q", label)
	}
}

func TestIngest_KnownTopicKeepsItsLabel(t *testing.T) {
	svc := NewWebhookService(logger.NewNopLogger(), nil)
	before := webhookMetric(t)[TopicProductsUpdate]

	_, err := svc.Ingest(context.Background(), &dto.WebhookEvent{
		Topic:   "products/update",
		Shop:    "demo.myshopify.com",
		Payload: json.RawMessage(`{"id":1}`),
	})

	require.NoError(t, err)
	assert.Equal(t, before+1, webhookMetric(t)[TopicProductsUpdate])
}
