package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// EntryCreatedEvent is emitted when a new entry lands in the ledger.
type EntryCreatedEvent struct {
	EntryID   string    `json:"entry_id"`
	OwnerID   string    `json:"owner_id"`
	TeamID    string    `json:"team_id,omitempty"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// EntryCreatedV1 is the typed event definition for entry creation.
// Subject: events.ledger.v1.entry-created
var EntryCreatedV1 = helper.EventDefinition[EntryCreatedEvent](
	"ledger", "EntryCreated", "v1",
)

// EntryUpdatedEvent is emitted on every successful entry mutation. Status
// transitions are facts of their own: OldStatus and NewStatus record the
// transition for the audit trail even when other fields changed too.
type EntryUpdatedEvent struct {
	EntryID   string    `json:"entry_id"`
	OwnerID   string    `json:"owner_id"`
	TeamID    string    `json:"team_id,omitempty"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntryUpdatedV1 is the typed event definition for entry updates.
// Subject: events.ledger.v1.entry-updated
var EntryUpdatedV1 = helper.EventDefinition[EntryUpdatedEvent](
	"ledger", "EntryUpdated", "v1",
)
