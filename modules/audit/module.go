// Package audit keeps an append-only trail of ledger activity. Status
// changes are facts, not edits: every transition is recorded here as it is
// observed on the event bus, independent of the entry's current state.
package audit

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/example/worklog-dashboard/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// maxTrail bounds the in-memory trail; older records are dropped first.
const maxTrail = 1000

// Record is one observed ledger fact.
type Record struct {
	EntryID    string    `json:"entry_id"`
	OwnerID    string    `json:"owner_id"`
	Action     string    `json:"action"` // created, updated, status_changed
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status,omitempty"`
	Version    int64     `json:"version,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
}

// AuditModule consumes ledger events and records them.
type AuditModule struct {
	trail []Record
	mu    sync.RWMutex
}

// Compile-time interface checks.
var _ mono.Module = (*AuditModule)(nil)
var _ mono.EventConsumerModule = (*AuditModule)(nil)

// NewModule creates a new AuditModule.
func NewModule() *AuditModule {
	return &AuditModule{
		trail: make([]Record, 0),
	}
}

// Name returns the module name.
func (m *AuditModule) Name() string {
	return "audit"
}

// Start starts the module.
func (m *AuditModule) Start(_ context.Context) error {
	log.Println("[audit] Module started")
	return nil
}

// Stop stops the module.
func (m *AuditModule) Stop(_ context.Context) error {
	log.Println("[audit] Module stopped")
	return nil
}

// RegisterEventConsumers subscribes to the ledger's events.
func (m *AuditModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.EntryCreatedV1, m.handleEntryCreated, m); err != nil {
		return fmt.Errorf("failed to register EntryCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.EntryUpdatedV1, m.handleEntryUpdated, m); err != nil {
		return fmt.Errorf("failed to register EntryUpdated consumer: %w", err)
	}

	log.Printf("[audit] Registered event consumers: EntryCreated, EntryUpdated")
	return nil
}

// handleEntryCreated records an entry creation.
func (m *AuditModule) handleEntryCreated(_ context.Context, event events.EntryCreatedEvent, _ *mono.Msg) error {
	log.Printf("[audit] Entry created: %s by %s (%s)", event.EntryID, event.OwnerID, event.Status)
	m.append(Record{
		EntryID:    event.EntryID,
		OwnerID:    event.OwnerID,
		Action:     "created",
		ToStatus:   event.Status,
		Version:    1,
		ObservedAt: time.Now().UTC(),
	})
	return nil
}

// handleEntryUpdated records an update, flagging status transitions.
func (m *AuditModule) handleEntryUpdated(_ context.Context, event events.EntryUpdatedEvent, _ *mono.Msg) error {
	action := "updated"
	if event.OldStatus != event.NewStatus {
		action = "status_changed"
		log.Printf("[audit] Entry %s status: %s -> %s (v%d)", event.EntryID, event.OldStatus, event.NewStatus, event.Version)
	}
	m.append(Record{
		EntryID:    event.EntryID,
		OwnerID:    event.OwnerID,
		Action:     action,
		FromStatus: event.OldStatus,
		ToStatus:   event.NewStatus,
		Version:    event.Version,
		ObservedAt: time.Now().UTC(),
	})
	return nil
}

// append adds a record, trimming the oldest once the trail is full.
func (m *AuditModule) append(r Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trail = append(m.trail, r)
	if len(m.trail) > maxTrail {
		m.trail = m.trail[len(m.trail)-maxTrail:]
	}
}

// Trail returns a copy of the recorded facts, oldest first.
func (m *AuditModule) Trail() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, len(m.trail))
	copy(out, m.trail)
	return out
}
