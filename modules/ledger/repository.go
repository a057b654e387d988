package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/worklog-dashboard/domain/entry"
	"github.com/example/worklog-dashboard/domain/identity"
	"gorm.io/gorm"
)

// Repository handles task entry persistence using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new entry repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates or updates the task_entries schema.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&entry.TaskEntry{})
}

// Create inserts a new entry. The caller has already assigned ID,
// timestamps and version.
func (r *Repository) Create(ctx context.Context, e *entry.TaskEntry) error {
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return storeErr("create entry", err)
	}
	return nil
}

// FindByID retrieves an entry by its ID.
func (r *Repository) FindByID(ctx context.Context, id string) (*entry.TaskEntry, error) {
	var e entry.TaskEntry
	if err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", entry.ErrNotFound, id)
		}
		return nil, storeErr("find entry", err)
	}
	return &e, nil
}

// UpdateCAS writes the mutable fields of e if and only if the stored row
// still carries expectedVersion. Exactly one of two racing writers succeeds;
// the loser gets entry.ErrConflict. A vanished row yields entry.ErrNotFound.
func (r *Repository) UpdateCAS(ctx context.Context, e *entry.TaskEntry, expectedVersion int64) error {
	res := r.db.WithContext(ctx).Model(&entry.TaskEntry{}).
		Where("id = ? AND version = ?", e.ID, expectedVersion).
		Updates(map[string]any{
			"title":       e.Title,
			"description": e.Description,
			"status":      e.Status,
			"updated_at":  e.UpdatedAt,
			"version":     expectedVersion + 1,
		})
	if res.Error != nil {
		return storeErr("update entry", res.Error)
	}
	if res.RowsAffected == 0 {
		// Distinguish a lost race from a missing row.
		var count int64
		if err := r.db.WithContext(ctx).Model(&entry.TaskEntry{}).
			Where("id = ?", e.ID).Count(&count).Error; err != nil {
			return storeErr("update entry", err)
		}
		if count == 0 {
			return fmt.Errorf("%w: %s", entry.ErrNotFound, e.ID)
		}
		return fmt.Errorf("%w: entry %s changed since it was read", entry.ErrConflict, e.ID)
	}
	e.Version = expectedVersion + 1
	return nil
}

// Filter narrows a List query. Zero values leave a dimension unbounded.
// The time window is half-open: [From, To).
type Filter struct {
	OwnerID string
	Status  entry.Status
	From    time.Time
	To      time.Time
	Cursor  *Cursor
	Limit   int
}

// List returns entries matching the filter, ordered by created_at
// descending with id descending as the stable tie-break.
func (r *Repository) List(ctx context.Context, f Filter) ([]entry.TaskEntry, error) {
	q := r.db.WithContext(ctx).Model(&entry.TaskEntry{})
	if f.OwnerID != "" {
		q = q.Where("owner_id = ?", f.OwnerID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if !f.From.IsZero() {
		q = q.Where("created_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("created_at < ?", f.To)
	}
	if f.Cursor != nil {
		q = q.Where("created_at < ? OR (created_at = ? AND id < ?)",
			f.Cursor.CreatedAt, f.Cursor.CreatedAt, f.Cursor.ID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var entries []entry.TaskEntry
	if err := q.Order("created_at DESC, id DESC").Find(&entries).Error; err != nil {
		return nil, storeErr("list entries", err)
	}
	return entries, nil
}

// InWindow returns all entries in the scope whose created_at falls in
// [from, to). A single query keeps the result a consistent snapshot: an
// entry appears with all its fields as of one point in time, or not at all.
func (r *Repository) InWindow(ctx context.Context, scope identity.Scope, from, to time.Time) ([]entry.TaskEntry, error) {
	q, err := r.windowQuery(ctx, scope, from, to)
	if err != nil {
		return nil, err
	}

	var entries []entry.TaskEntry
	if err := q.Order("created_at ASC, id ASC").Find(&entries).Error; err != nil {
		return nil, storeErr("window query", err)
	}
	return entries, nil
}

// WindowStamp returns the entry count and version sum for a scope's window.
// Every create adds to the count and every committed update increments one
// version, so the pair strictly changes on each write. Readers fold it into
// derived-data keys to observe their own writes immediately.
func (r *Repository) WindowStamp(ctx context.Context, scope identity.Scope, from, to time.Time) (count, versionSum int64, err error) {
	q, err := r.windowQuery(ctx, scope, from, to)
	if err != nil {
		return 0, 0, err
	}

	var stamp struct {
		Count      int64
		VersionSum int64
	}
	if err := q.Select("COUNT(*) AS count, COALESCE(SUM(version), 0) AS version_sum").
		Scan(&stamp).Error; err != nil {
		return 0, 0, storeErr("window stamp", err)
	}
	return stamp.Count, stamp.VersionSum, nil
}

// windowQuery narrows task_entries to a scope and a half-open [from, to)
// creation window.
func (r *Repository) windowQuery(ctx context.Context, scope identity.Scope, from, to time.Time) (*gorm.DB, error) {
	q := r.db.WithContext(ctx).Model(&entry.TaskEntry{}).
		Where("created_at >= ? AND created_at < ?", from, to)
	switch scope.Kind {
	case identity.ScopeUser:
		q = q.Where("owner_id = ?", scope.ID)
	case identity.ScopeTeam:
		q = q.Where("team_id = ?", scope.ID)
	case identity.ScopeGlobal:
		// no narrowing
	default:
		return nil, fmt.Errorf("%w: unknown scope kind %q", entry.ErrValidation, scope.Kind)
	}
	return q, nil
}

// storeErr wraps a driver-level failure as a retryable store error.
func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", entry.ErrStoreUnavailable, op, err)
}
