package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/example/worklog-dashboard/domain/entry"
	"github.com/example/worklog-dashboard/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// LedgerModule provides the durable work-entry ledger via GORM + SQLite.
type LedgerModule struct {
	db       *gorm.DB
	repo     *Repository
	service  *Service
	eventBus mono.EventBus
	dbPath   string
}

// Compile-time interface checks.
var _ mono.Module = (*LedgerModule)(nil)
var _ mono.ServiceProviderModule = (*LedgerModule)(nil)
var _ mono.HealthCheckableModule = (*LedgerModule)(nil)
var _ mono.EventEmitterModule = (*LedgerModule)(nil)

// NewModule creates a new LedgerModule.
func NewModule() *LedgerModule {
	dbPath := os.Getenv("LEDGER_DB_PATH")
	if dbPath == "" {
		dbPath = "worklog.db"
	}
	return &LedgerModule{dbPath: dbPath}
}

// Name returns the module name.
func (m *LedgerModule) Name() string {
	return "ledger"
}

// SetEventBus receives the event bus from the framework.
func (m *LedgerModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module publishes.
func (m *LedgerModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.EntryCreatedV1.ToBase(),
		events.EntryUpdatedV1.ToBase(),
	}
}

// Start opens the database, runs migrations and wires the service.
func (m *LedgerModule) Start(_ context.Context) error {
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "true" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	m.repo = NewRepository(db)
	if err := m.repo.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	m.service = NewService(m.repo)

	log.Printf("[ledger] Module started (database: %s)", m.dbPath)
	return nil
}

// Stop gracefully closes the database connection.
func (m *LedgerModule) Stop(_ context.Context) error {
	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	log.Println("[ledger] Module stopped")
	return nil
}

// Health performs a health check on the ledger module.
func (m *LedgerModule) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get sql.DB: %v", err),
		}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": "sqlite",
			"path":   m.dbPath,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *LedgerModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "create-entry", json.Unmarshal, json.Marshal, m.handleCreate,
	); err != nil {
		return fmt.Errorf("failed to register create-entry service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-entry", json.Unmarshal, json.Marshal, m.handleUpdate,
	); err != nil {
		return fmt.Errorf("failed to register update-entry service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-entry", json.Unmarshal, json.Marshal, m.handleGet,
	); err != nil {
		return fmt.Errorf("failed to register get-entry service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-entries", json.Unmarshal, json.Marshal, m.handleList,
	); err != nil {
		return fmt.Errorf("failed to register list-entries service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "entries-in-window", json.Unmarshal, json.Marshal, m.handleInWindow,
	); err != nil {
		return fmt.Errorf("failed to register entries-in-window service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "window-stamp", json.Unmarshal, json.Marshal, m.handleWindowStamp,
	); err != nil {
		return fmt.Errorf("failed to register window-stamp service: %w", err)
	}

	log.Printf("[ledger] Registered services: create-entry, update-entry, get-entry, list-entries, entries-in-window, window-stamp")
	return nil
}

// handleCreate handles the create-entry service request.
func (m *LedgerModule) handleCreate(ctx context.Context, req CreateEntryRequest, _ *mono.Msg) (EntryResponse, error) {
	e, err := m.service.Create(ctx, req.Caller, req.Title, req.Description, entry.Status(req.Status))
	if err != nil {
		return EntryResponse{}, err
	}

	if m.eventBus != nil {
		event := events.EntryCreatedEvent{
			EntryID:   e.ID,
			OwnerID:   e.OwnerID,
			TeamID:    e.TeamID,
			Title:     e.Title,
			Status:    string(e.Status),
			CreatedAt: e.CreatedAt,
		}
		if err := events.EntryCreatedV1.Publish(m.eventBus, event, nil); err != nil {
			// Event publishing is best-effort; the write has committed.
			log.Printf("[ledger] Warning: failed to publish EntryCreated for %s: %v", e.ID, err)
		}
	}

	return toEntryResponse(e), nil
}

// handleUpdate handles the update-entry service request.
func (m *LedgerModule) handleUpdate(ctx context.Context, req UpdateEntryRequest, _ *mono.Msg) (EntryResponse, error) {
	patch := Patch{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Status != nil {
		st := entry.Status(*req.Status)
		patch.Status = &st
	}

	e, oldStatus, err := m.service.Update(ctx, req.Caller, req.EntryID, patch)
	if err != nil {
		return EntryResponse{}, err
	}

	if m.eventBus != nil {
		event := events.EntryUpdatedEvent{
			EntryID:   e.ID,
			OwnerID:   e.OwnerID,
			TeamID:    e.TeamID,
			OldStatus: string(oldStatus),
			NewStatus: string(e.Status),
			Version:   e.Version,
			UpdatedAt: e.UpdatedAt,
		}
		if err := events.EntryUpdatedV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[ledger] Warning: failed to publish EntryUpdated for %s: %v", e.ID, err)
		}
	}

	return toEntryResponse(e), nil
}

// handleGet handles the get-entry service request.
func (m *LedgerModule) handleGet(ctx context.Context, req GetEntryRequest, _ *mono.Msg) (EntryResponse, error) {
	e, err := m.service.Get(ctx, req.Caller, req.EntryID)
	if err != nil {
		return EntryResponse{}, err
	}
	return toEntryResponse(e), nil
}

// handleList handles the list-entries service request.
func (m *LedgerModule) handleList(ctx context.Context, req ListEntriesRequest, _ *mono.Msg) (ListEntriesResponse, error) {
	listReq := ListRequest{
		OwnerID: req.OwnerID,
		Status:  entry.Status(req.Status),
		Cursor:  req.Cursor,
		Limit:   req.Limit,
	}
	if req.From != nil {
		listReq.From = req.From.UTC()
	}
	if req.To != nil {
		listReq.To = req.To.UTC()
	}

	entries, next, err := m.service.List(ctx, req.Caller, listReq)
	if err != nil {
		return ListEntriesResponse{}, err
	}

	resp := ListEntriesResponse{
		Entries:    make([]EntryResponse, 0, len(entries)),
		NextCursor: next,
	}
	for i := range entries {
		resp.Entries = append(resp.Entries, toEntryResponse(&entries[i]))
	}
	return resp, nil
}

// handleWindowStamp handles the window-stamp service request.
func (m *LedgerModule) handleWindowStamp(ctx context.Context, req WindowStampRequest, _ *mono.Msg) (WindowStampResponse, error) {
	count, versionSum, err := m.service.WindowStamp(ctx, req.Scope, req.From, req.To)
	if err != nil {
		return WindowStampResponse{}, err
	}
	return WindowStampResponse{Count: count, VersionSum: versionSum}, nil
}

// handleInWindow handles the entries-in-window service request.
func (m *LedgerModule) handleInWindow(ctx context.Context, req EntriesInWindowRequest, _ *mono.Msg) (EntriesInWindowResponse, error) {
	entries, err := m.service.InWindow(ctx, req.Scope, req.From, req.To)
	if err != nil {
		return EntriesInWindowResponse{}, err
	}

	resp := EntriesInWindowResponse{
		Entries: make([]EntryResponse, 0, len(entries)),
	}
	for i := range entries {
		resp.Entries = append(resp.Entries, toEntryResponse(&entries[i]))
	}
	return resp, nil
}
