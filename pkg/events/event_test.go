package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewNoteEvent(t *testing.T) {
	evt := NewNoteEvent(NoteDeleted, "demo.myshopify.com", "abc", "gid://shopify/Product/1")

	assert.Equal(t, "NOTE_DELETED", evt.EventType())
	assert.Equal(t, "demo.myshopify.com", evt.Payload()["shop"])
	assert.Equal(t, "abc", evt.Payload()["note_id"])
	assert.Equal(t, "gid://shopify/Product/1", evt.Payload()["product_id"])
	assert.NotContains(t, evt.Payload(), "note")
	assert.False(t, evt.Timestamp().IsZero())
}
