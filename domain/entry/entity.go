package entry

import (
	"time"
)

// Status represents the state of a task entry.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	// StatusArchived retires an entry without removing it from the ledger.
	// Archived entries keep contributing to historical aggregation.
	StatusArchived Status = "archived"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDone, StatusArchived:
		return true
	}
	return false
}

// Statuses lists all known status values in presentation order.
func Statuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusDone, StatusArchived}
}

// TaskEntry is a single logged unit of work, owned by one user.
//
// ID, OwnerID, TeamID and CreatedAt are immutable once assigned. Version is
// the compare-and-set token: every successful update increments it, and a
// writer holding a stale version loses the race.
type TaskEntry struct {
	ID          string    `gorm:"primaryKey;type:text" json:"id"`
	OwnerID     string    `gorm:"index:idx_entries_owner_created,priority:1;not null;type:text" json:"owner_id"`
	TeamID      string    `gorm:"index;type:text" json:"team_id,omitempty"`
	Title       string    `gorm:"not null;type:text" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Status      Status    `gorm:"not null;type:text" json:"status"`
	CreatedAt   time.Time `gorm:"index;index:idx_entries_owner_created,priority:2" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     int64     `gorm:"not null" json:"version"`
}

// TableName returns the table name for the TaskEntry entity.
func (TaskEntry) TableName() string {
	return "task_entries"
}
