package dto

import "encoding/json"

// WebhookEvent is an authenticated catalog-change delivery.
type WebhookEvent struct {
	Topic   string
	Shop    string
	Payload json.RawMessage
}
