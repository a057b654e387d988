package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/worklog-dashboard/domain/entry"
	"github.com/example/worklog-dashboard/domain/identity"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// LedgerPort defines the interface for ledger operations.
// The api module drives the full contract; the dashboard module only needs
// EntriesInWindow.
type LedgerPort interface {
	CreateEntry(ctx context.Context, req CreateEntryRequest) (EntryResponse, error)
	UpdateEntry(ctx context.Context, req UpdateEntryRequest) (EntryResponse, error)
	GetEntry(ctx context.Context, req GetEntryRequest) (EntryResponse, error)
	ListEntries(ctx context.Context, req ListEntriesRequest) (ListEntriesResponse, error)
	EntriesInWindow(ctx context.Context, scope identity.Scope, from, to time.Time) ([]entry.TaskEntry, error)
	WindowStamp(ctx context.Context, scope identity.Scope, from, to time.Time) (count, versionSum int64, err error)
}

// LedgerAdapter implements LedgerPort using the service container.
type LedgerAdapter struct {
	container mono.ServiceContainer
}

// NewLedgerAdapter creates a new LedgerAdapter.
func NewLedgerAdapter(container mono.ServiceContainer) *LedgerAdapter {
	return &LedgerAdapter{container: container}
}

// CreateEntry submits a new entry to the ledger.
func (a *LedgerAdapter) CreateEntry(ctx context.Context, req CreateEntryRequest) (EntryResponse, error) {
	var resp EntryResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "create-entry",
		json.Marshal, json.Unmarshal,
		&req, &resp,
	); err != nil {
		return EntryResponse{}, fmt.Errorf("create-entry request failed: %w", err)
	}
	return resp, nil
}

// UpdateEntry patches an existing entry.
func (a *LedgerAdapter) UpdateEntry(ctx context.Context, req UpdateEntryRequest) (EntryResponse, error) {
	var resp EntryResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "update-entry",
		json.Marshal, json.Unmarshal,
		&req, &resp,
	); err != nil {
		return EntryResponse{}, fmt.Errorf("update-entry request failed: %w", err)
	}
	return resp, nil
}

// GetEntry fetches a single entry.
func (a *LedgerAdapter) GetEntry(ctx context.Context, req GetEntryRequest) (EntryResponse, error) {
	var resp EntryResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "get-entry",
		json.Marshal, json.Unmarshal,
		&req, &resp,
	); err != nil {
		return EntryResponse{}, fmt.Errorf("get-entry request failed: %w", err)
	}
	return resp, nil
}

// ListEntries fetches one page of entries.
func (a *LedgerAdapter) ListEntries(ctx context.Context, req ListEntriesRequest) (ListEntriesResponse, error) {
	var resp ListEntriesResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "list-entries",
		json.Marshal, json.Unmarshal,
		&req, &resp,
	); err != nil {
		return ListEntriesResponse{}, fmt.Errorf("list-entries request failed: %w", err)
	}
	return resp, nil
}

// EntriesInWindow fetches the consistent snapshot used for aggregation.
func (a *LedgerAdapter) EntriesInWindow(ctx context.Context, scope identity.Scope, from, to time.Time) ([]entry.TaskEntry, error) {
	req := EntriesInWindowRequest{Scope: scope, From: from, To: to}
	var resp EntriesInWindowResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "entries-in-window",
		json.Marshal, json.Unmarshal,
		&req, &resp,
	); err != nil {
		return nil, fmt.Errorf("entries-in-window request failed: %w", err)
	}

	entries := make([]entry.TaskEntry, 0, len(resp.Entries))
	for _, er := range resp.Entries {
		entries = append(entries, er.toEntry())
	}
	return entries, nil
}

// WindowStamp fetches the write stamp for a scope's window.
func (a *LedgerAdapter) WindowStamp(ctx context.Context, scope identity.Scope, from, to time.Time) (int64, int64, error) {
	req := WindowStampRequest{Scope: scope, From: from, To: to}
	var resp WindowStampResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "window-stamp",
		json.Marshal, json.Unmarshal,
		&req, &resp,
	); err != nil {
		return 0, 0, fmt.Errorf("window-stamp request failed: %w", err)
	}
	return resp.Count, resp.VersionSum, nil
}
