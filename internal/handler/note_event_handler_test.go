package handler

import (
	"context"
	"testing"

	"product-notes-be/internal/pkg/logger"
	"product-notes-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNoteEventHandler(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := NewNoteEventHandler(logger.NewWithCore(core))

	err := h.Handle(context.Background(), events.NewNoteEvent(events.NoteCreated, "demo.myshopify.com", "n1", "gid://shopify/Product/1"))
	require.NoError(t, err)

	entries := logs.FilterMessage(events.NoteCreated).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "NOTE_AUDIT", entries[0].ContextMap()["module"])
}

func TestNoteEventHandler_RejectsEventWithoutShop(t *testing.T) {
	h := NewNoteEventHandler(logger.NewNopLogger())

	err := h.Handle(context.Background(), events.BaseEvent{Type: events.NoteDeleted, Data: map[string]interface{}{}})

	assert.Error(t, err)
}

func TestNoteEventHandler_IgnoresForeignEvents(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := NewNoteEventHandler(logger.NewWithCore(core))

	err := h.Handle(context.Background(), events.BaseEvent{Type: "USER_LOGIN", Data: map[string]interface{}{"shop": "x"}})

	require.NoError(t, err)
	assert.Zero(t, logs.Len())
}
