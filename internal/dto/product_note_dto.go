package dto

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionAdd    = "add"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionSync   = "sync"
)

// NoteActionRequest is the single discriminated body accepted by POST /api/notes.
type NoteActionRequest struct {
	ActionType string   `json:"actionType"`
	NoteId     string   `json:"noteId,omitempty"`
	Products   []string `json:"products,omitempty"`
	Note       string   `json:"note,omitempty"`
}

type AddNotesRequest struct {
	Products []string `json:"products" validate:"required,min=1,dive,notblank"`
	Note     string   `json:"note" validate:"notblank"`
}

type UpdateNoteRequest struct {
	Id   uuid.UUID `json:"noteId" validate:"required"`
	Note string    `json:"note" validate:"notblank"`
}

type DeleteNoteRequest struct {
	Id uuid.UUID `json:"noteId" validate:"required"`
}

type SyncNotesRequest struct {
	Products []string `json:"products" validate:"required,min=1,dive,notblank"`
	Note     string   `json:"note" validate:"notblank"`
}

type ActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
}

type ProductNoteResponse struct {
	Id        uuid.UUID `json:"id"`
	Shop      string    `json:"shop"`
	ProductId string    `json:"productId"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"createdAt"`
	Title     string    `json:"title"`
	Image     string    `json:"image"`
	AdminUrl  string    `json:"adminUrl,omitempty"`
}

// SyncResult summarizes a best-effort metafield sync batch.
type SyncResult struct {
	Total  int
	Synced int
}

// PublishMetafieldSyncMessage is queued for the metafield sync consumer.
type PublishMetafieldSyncMessage struct {
	Shop      string `json:"shop"`
	ProductId string `json:"product_id"`
	Note      string `json:"note"`
}
