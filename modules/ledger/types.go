package ledger

import (
	"time"

	"github.com/example/worklog-dashboard/domain/entry"
	"github.com/example/worklog-dashboard/domain/identity"
)

// CreateEntryRequest is the request for creating an entry.
type CreateEntryRequest struct {
	Caller      identity.Claims `json:"caller"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Status      string          `json:"status,omitempty"`
}

// UpdateEntryRequest is the request for patching an entry. Nil fields are
// left untouched.
type UpdateEntryRequest struct {
	Caller      identity.Claims `json:"caller"`
	EntryID     string          `json:"entry_id"`
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	Status      *string         `json:"status,omitempty"`
}

// GetEntryRequest is the request for fetching a single entry.
type GetEntryRequest struct {
	Caller  identity.Claims `json:"caller"`
	EntryID string          `json:"entry_id"`
}

// ListEntriesRequest is the request for listing entries.
type ListEntriesRequest struct {
	Caller  identity.Claims `json:"caller"`
	OwnerID string          `json:"owner_id,omitempty"`
	Status  string          `json:"status,omitempty"`
	From    *time.Time      `json:"from,omitempty"`
	To      *time.Time      `json:"to,omitempty"`
	Cursor  string          `json:"cursor,omitempty"`
	Limit   int             `json:"limit,omitempty"`
}

// ListEntriesResponse is one page of entries plus the continuation cursor.
type ListEntriesResponse struct {
	Entries    []EntryResponse `json:"entries"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// EntriesInWindowRequest is the internal read used by the dashboard module.
type EntriesInWindowRequest struct {
	Scope identity.Scope `json:"scope"`
	From  time.Time      `json:"from"`
	To    time.Time      `json:"to"`
}

// EntriesInWindowResponse carries the consistent snapshot for aggregation.
type EntriesInWindowResponse struct {
	Entries []EntryResponse `json:"entries"`
}

// WindowStampRequest is the internal read of a scope window's write stamp.
type WindowStampRequest struct {
	Scope identity.Scope `json:"scope"`
	From  time.Time      `json:"from"`
	To    time.Time      `json:"to"`
}

// WindowStampResponse carries the write stamp: entry count and the sum of
// entry versions in the window. The pair changes on every committed write.
type WindowStampResponse struct {
	Count      int64 `json:"count"`
	VersionSum int64 `json:"version_sum"`
}

// EntryResponse represents an entry in responses.
type EntryResponse struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	TeamID      string    `json:"team_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     int64     `json:"version"`
}

// toEntryResponse converts a TaskEntry entity to an EntryResponse.
func toEntryResponse(e *entry.TaskEntry) EntryResponse {
	return EntryResponse{
		ID:          e.ID,
		OwnerID:     e.OwnerID,
		TeamID:      e.TeamID,
		Title:       e.Title,
		Description: e.Description,
		Status:      string(e.Status),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
		Version:     e.Version,
	}
}

// toEntry converts an EntryResponse back into the domain entity. Used on
// the consuming side of the entries-in-window service.
func (r EntryResponse) toEntry() entry.TaskEntry {
	return entry.TaskEntry{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		TeamID:      r.TeamID,
		Title:       r.Title,
		Description: r.Description,
		Status:      entry.Status(r.Status),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Version:     r.Version,
	}
}
