package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/worklog-dashboard/domain/entry"
	"github.com/example/worklog-dashboard/domain/identity"
	"github.com/example/worklog-dashboard/modules/auth"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Patch describes a partial update. Nil fields are untouched.
type Patch struct {
	Title       *string
	Description *string
	Status      *entry.Status
}

// Service implements the work-entry ledger: durable creation and mutation of
// task entries with ownership enforcement and stable listing.
type Service struct {
	repo *Repository
	now  func() time.Time
}

// NewService creates a new ledger service.
func NewService(repo *Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// Create validates and stores a new entry owned by the caller. Every call
// creates exactly one entry; there is no implicit dedup.
func (s *Service) Create(ctx context.Context, caller identity.Claims, title, description string, status entry.Status) (*entry.TaskEntry, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title is required", entry.ErrValidation)
	}
	if status == "" {
		status = entry.StatusPending
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", entry.ErrValidation, status)
	}

	now := s.now().UTC()
	e := &entry.TaskEntry{
		ID:          uuid.New().String(),
		OwnerID:     caller.UserID,
		TeamID:      caller.TeamID,
		Title:       title,
		Description: description,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Get returns a single entry if the caller's scope covers it.
func (s *Service) Get(ctx context.Context, caller identity.Claims, id string) (*entry.TaskEntry, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.AuthorizeRead(caller, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Update applies a patch to an entry owned by the caller. The write is a
// compare-and-set against the version the entry had when it was read here:
// of two racing updates exactly one commits, the other gets ErrConflict.
// The old status is returned alongside so callers can record the transition.
func (s *Service) Update(ctx context.Context, caller identity.Claims, id string, patch Patch) (*entry.TaskEntry, entry.Status, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if err := auth.AuthorizeMutation(caller, e.OwnerID); err != nil {
		return nil, "", err
	}

	oldStatus := e.Status
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return nil, "", fmt.Errorf("%w: title cannot be empty", entry.ErrValidation)
		}
		e.Title = *patch.Title
	}
	if patch.Description != nil {
		e.Description = *patch.Description
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, "", fmt.Errorf("%w: unknown status %q", entry.ErrValidation, *patch.Status)
		}
		// Transitions are unrestricted; each one is a new fact, audited
		// through the update event.
		e.Status = *patch.Status
	}

	// UpdatedAt never moves backwards, even under clock skew.
	now := s.now().UTC()
	if !now.After(e.UpdatedAt) {
		now = e.UpdatedAt.Add(time.Nanosecond)
	}
	e.UpdatedAt = now

	if err := s.repo.UpdateCAS(ctx, e, e.Version); err != nil {
		return nil, "", err
	}
	return e, oldStatus, nil
}

// ListRequest narrows and pages a listing query.
type ListRequest struct {
	OwnerID string
	Status  entry.Status
	From    time.Time
	To      time.Time
	Cursor  string
	Limit   int
}

// List returns one page of entries the caller may see, newest first, plus
// the cursor for the next page ("" when exhausted). Listing entries of other
// owners, or the whole ledger, requires an admin claim.
func (s *Service) List(ctx context.Context, caller identity.Claims, req ListRequest) ([]entry.TaskEntry, string, error) {
	if req.OwnerID != caller.UserID && caller.Role != identity.RoleAdmin {
		scope := identity.GlobalScope()
		if req.OwnerID != "" {
			scope = identity.UserScope(req.OwnerID)
		}
		if err := auth.AuthorizeScope(caller, scope); err != nil {
			return nil, "", err
		}
	}
	if req.Status != "" && !req.Status.Valid() {
		return nil, "", fmt.Errorf("%w: unknown status %q", entry.ErrValidation, req.Status)
	}
	if !req.From.IsZero() && !req.To.IsZero() && req.To.Before(req.From) {
		return nil, "", fmt.Errorf("%w: time range is inverted", entry.ErrValidation)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	f := Filter{
		OwnerID: req.OwnerID,
		Status:  req.Status,
		From:    req.From,
		To:      req.To,
		// Fetch one extra row to learn whether another page exists.
		Limit: limit + 1,
	}
	if req.Cursor != "" {
		c, err := DecodeCursor(req.Cursor)
		if err != nil {
			return nil, "", err
		}
		f.Cursor = &c
	}

	entries, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, "", err
	}

	next := ""
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		next = Cursor{CreatedAt: last.CreatedAt, ID: last.ID}.Encode()
	}
	return entries, next, nil
}

// InWindow returns a consistent snapshot of the scope's entries created in
// [from, to). Scope authorization is the caller's responsibility; the
// dashboard gates before it queries.
func (s *Service) InWindow(ctx context.Context, scope identity.Scope, from, to time.Time) ([]entry.TaskEntry, error) {
	return s.repo.InWindow(ctx, scope, from, to)
}

// WindowStamp returns the write stamp for the scope's window. Like
// InWindow, the caller is expected to have authorized the scope already.
func (s *Service) WindowStamp(ctx context.Context, scope identity.Scope, from, to time.Time) (count, versionSum int64, err error) {
	return s.repo.WindowStamp(ctx, scope, from, to)
}
