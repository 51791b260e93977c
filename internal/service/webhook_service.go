package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"product-notes-be/internal/dto"
	"product-notes-be/internal/pkg/apperror"
	"product-notes-be/internal/pkg/logger"
	"product-notes-be/internal/pkg/metrics"
)

const (
	webhookModule = "WEBHOOK"

	TopicProductsCreate    = "PRODUCTS_CREATE"
	TopicProductsUpdate    = "PRODUCTS_UPDATE"
	TopicProductsDelete    = "PRODUCTS_DELETE"
	TopicCollectionsCreate = "COLLECTIONS_CREATE"

	// UnhandledTopicLabel is the metric label shared by every topic without a handler.
	UnhandledTopicLabel = "UNHANDLED"
)

var webhookMessages = map[string]string{
	TopicProductsCreate:    "Product created",
	TopicProductsUpdate:    "Product updated",
	TopicProductsDelete:    "Product deleted",
	TopicCollectionsCreate: "Collection created",
}

type IWebhookService interface {
	// Ingest logs one delivery. It reports whether the topic has a
	// dedicated handler; unhandled topics are still a successful delivery.
	Ingest(ctx context.Context, evt *dto.WebhookEvent) (bool, error)
}

type webhookService struct {
	logger        logger.ILogger
	payloadLogger logger.ILogger
}

// NewWebhookService logs summaries to sysLogger and full payloads to
// payloadLogger, which is normally an isolated file logger.
func NewWebhookService(sysLogger logger.ILogger, payloadLogger logger.ILogger) IWebhookService {
	if payloadLogger == nil {
		payloadLogger = sysLogger
	}
	return &webhookService{
		logger:        sysLogger,
		payloadLogger: payloadLogger,
	}
}

// NormalizeTopic turns a header topic such as "products/create" into
// "PRODUCTS_CREATE".
func NormalizeTopic(topic string) string {
	topic = strings.TrimSpace(topic)
	topic = strings.ReplaceAll(topic, "/", "_")
	return strings.ToUpper(topic)
}

func (s *webhookService) Ingest(ctx context.Context, evt *dto.WebhookEvent) (bool, error) {
	topic := NormalizeTopic(evt.Topic)
	shop := strings.TrimSpace(evt.Shop)

	if topic == "" || shop == "" {
		s.logger.Error(webhookModule, "Webhook handling failed", map[string]interface{}{
			"topic": evt.Topic,
			"shop":  evt.Shop,
			"error": "missing topic or shop",
		})
		return false, fmt.Errorf("%w: missing topic or shop", apperror.ErrIngestionFault)
	}
	if !json.Valid(evt.Payload) {
		s.logger.Error(webhookModule, "Webhook handling failed", map[string]interface{}{
			"topic": topic,
			"shop":  shop,
			"error": "payload is not valid JSON",
		})
		return false, fmt.Errorf("%w: payload is not valid JSON", apperror.ErrIngestionFault)
	}

	message, handled := webhookMessages[topic]
	if !handled {
		// The topic header is caller controlled; keep the label set bounded.
		metrics.RecordWebhook(UnhandledTopicLabel)
		s.logger.Info(webhookModule, "Unhandled webhook topic", map[string]interface{}{
			"topic": topic,
			"shop":  shop,
		})
		return false, nil
	}

	metrics.RecordWebhook(topic)

	details := map[string]interface{}{
		"topic": topic,
		"shop":  shop,
	}
	for k, v := range summarize(evt.Payload) {
		details[k] = v
	}
	s.logger.Info(webhookModule, message, details)
	s.payloadLogger.Info(webhookModule, message+" payload", map[string]interface{}{
		"topic":   topic,
		"shop":    shop,
		"payload": evt.Payload,
	})
	return true, nil
}

// summarize picks the identifying fields out of a product or collection
// payload for the main log line.
func summarize(payload json.RawMessage) map[string]interface{} {
	var head struct {
		Id      json.Number `json:"id"`
		AdminId string      `json:"admin_graphql_api_id"`
		Title   string      `json:"title"`
	}
	out := map[string]interface{}{}
	if err := json.Unmarshal(payload, &head); err != nil {
		return out
	}
	if head.AdminId != "" {
		out["resource_id"] = head.AdminId
	} else if head.Id != "" {
		out["resource_id"] = head.Id.String()
	}
	if head.Title != "" {
		out["title"] = head.Title
	}
	return out
}
