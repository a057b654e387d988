package api

import (
	"time"

	"github.com/example/worklog-dashboard/modules/dashboard"
)

// CreateEntryRequest is the HTTP body for creating an entry.
type CreateEntryRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status,omitempty"`
}

// UpdateEntryRequest is the HTTP body for patching an entry. Absent fields
// are left untouched.
type UpdateEntryRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// EntryResponse represents an entry in HTTP responses.
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

// ListEntriesResponse is one page of entries plus the continuation cursor.
type ListEntriesResponse struct {
	Entries    []EntryResponse `json:"entries"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// DashboardResponse is the charted summary shape.
type DashboardResponse struct {
	Scope       string                    `json:"scope"`
	ScopeID     string                    `json:"scope_id,omitempty"`
	Granularity string                    `json:"granularity"`
	From        time.Time                 `json:"from"`
	To          time.Time                 `json:"to"`
	Buckets     []dashboard.BucketSummary `json:"buckets"`
	Total       int                       `json:"total"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
