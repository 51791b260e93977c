package handler

import (
	"context"
	"fmt"

	"product-notes-be/internal/pkg/logger"
	"product-notes-be/pkg/events"
)

const noteAuditModule = "NOTE_AUDIT"

// NoteEventHandler writes note lifecycle events from the bus into the audit log.
type NoteEventHandler struct {
	logger logger.ILogger
}

func NewNoteEventHandler(auditLogger logger.ILogger) *NoteEventHandler {
	return &NoteEventHandler{logger: auditLogger}
}

func (h *NoteEventHandler) Handle(ctx context.Context, event events.Event) error {
	payload := event.Payload()
	shop, _ := payload["shop"].(string)
	if shop == "" {
		return fmt.Errorf("note event %s without shop", event.EventType())
	}

	switch event.EventType() {
	case events.NoteCreated, events.NoteUpdated, events.NoteDeleted:
	default:
		h.logger.Debug(noteAuditModule, "Ignoring event", map[string]interface{}{
			"event": event.EventType(),
		})
		return nil
	}

	h.logger.Info(noteAuditModule, event.EventType(), map[string]interface{}{
		"shop":        shop,
		"note_id":     payload["note_id"],
		"product_id":  payload["product_id"],
		"occurred_at": event.Timestamp(),
	})
	return nil
}
