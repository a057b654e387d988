package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/worklog-dashboard/events"
	"github.com/example/worklog-dashboard/modules/cache"
	"github.com/example/worklog-dashboard/modules/ledger"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// DashboardModule derives summary views from the ledger. It never mutates
// entries; its only writes are to the optional summary cache, which it
// invalidates by consuming ledger events.
type DashboardModule struct {
	service     *Service
	ledgerPort  ledger.LedgerPort
	cache       Cache
	cacheModule *cache.CacheModule
}

// Compile-time interface checks.
var _ mono.Module = (*DashboardModule)(nil)
var _ mono.ServiceProviderModule = (*DashboardModule)(nil)
var _ mono.DependentModule = (*DashboardModule)(nil)
var _ mono.EventConsumerModule = (*DashboardModule)(nil)
var _ mono.HealthCheckableModule = (*DashboardModule)(nil)

// NewModule creates a new DashboardModule.
func NewModule() *DashboardModule {
	return &DashboardModule{}
}

// Name returns the module name.
func (m *DashboardModule) Name() string {
	return "dashboard"
}

// Dependencies returns the list of module dependencies.
func (m *DashboardModule) Dependencies() []string {
	return []string{"ledger"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *DashboardModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "ledger" {
		m.ledgerPort = ledger.NewLedgerAdapter(container)
	}
}

// SetCache wires a summary cache directly. Without one every query
// recomputes from the ledger.
func (m *DashboardModule) SetCache(c Cache) {
	m.cache = c
}

// UseCacheFrom defers cache wiring to the cache module, whose Redis
// connection only exists once it has started. The cache module must be
// registered before this one so it starts first.
func (m *DashboardModule) UseCacheFrom(cm *cache.CacheModule) {
	m.cacheModule = cm
}

// Start wires the dashboard service.
func (m *DashboardModule) Start(_ context.Context) error {
	if m.ledgerPort == nil {
		return fmt.Errorf("ledger dependency not set")
	}
	if m.cache == nil && m.cacheModule != nil {
		if sc := m.cacheModule.GetCache(); sc != nil {
			m.cache = sc
		}
	}
	m.service = NewService(m.ledgerPort, m.cache)

	if m.cache == nil {
		log.Println("[dashboard] Module started (uncached)")
	} else {
		log.Println("[dashboard] Module started (summary cache enabled)")
	}
	return nil
}

// Stop shuts down the module.
func (m *DashboardModule) Stop(_ context.Context) error {
	log.Println("[dashboard] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *DashboardModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.service != nil,
		Message: "operational",
		Details: map[string]any{
			"cached": m.cache != nil,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *DashboardModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "query", json.Unmarshal, json.Marshal, m.handleQuery,
	); err != nil {
		return fmt.Errorf("failed to register query service: %w", err)
	}

	log.Printf("[dashboard] Registered services: query")
	return nil
}

// RegisterEventConsumers subscribes to ledger events for cache invalidation.
func (m *DashboardModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.EntryCreatedV1, m.handleEntryCreated, m); err != nil {
		return fmt.Errorf("failed to register EntryCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.EntryUpdatedV1, m.handleEntryUpdated, m); err != nil {
		return fmt.Errorf("failed to register EntryUpdated consumer: %w", err)
	}

	log.Printf("[dashboard] Registered event consumers: EntryCreated, EntryUpdated")
	return nil
}

// handleQuery handles the dashboard query service request.
func (m *DashboardModule) handleQuery(ctx context.Context, req DashboardQueryRequest, _ *mono.Msg) (QueryResponse, error) {
	return m.service.Query(ctx, req.Caller, req.Query)
}

// handleEntryCreated invalidates summaries touched by a new entry.
func (m *DashboardModule) handleEntryCreated(ctx context.Context, event events.EntryCreatedEvent, _ *mono.Msg) error {
	m.service.Invalidate(ctx, event.OwnerID, event.TeamID)
	return nil
}

// handleEntryUpdated invalidates summaries touched by an updated entry.
func (m *DashboardModule) handleEntryUpdated(ctx context.Context, event events.EntryUpdatedEvent, _ *mono.Msg) error {
	m.service.Invalidate(ctx, event.OwnerID, event.TeamID)
	return nil
}
