package dashboard

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/worklog-dashboard/domain/identity"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// DashboardPort defines the interface for dashboard queries.
type DashboardPort interface {
	Query(ctx context.Context, caller identity.Claims, query QueryRequest) (QueryResponse, error)
}

// DashboardAdapter implements DashboardPort using the service container.
type DashboardAdapter struct {
	container mono.ServiceContainer
}

// NewDashboardAdapter creates a new DashboardAdapter.
func NewDashboardAdapter(container mono.ServiceContainer) *DashboardAdapter {
	return &DashboardAdapter{container: container}
}

// Query requests a bucketed summary.
func (a *DashboardAdapter) Query(ctx context.Context, caller identity.Claims, query QueryRequest) (QueryResponse, error) {
	req := DashboardQueryRequest{Caller: caller, Query: query}
	var resp QueryResponse

	if err := helper.CallRequestReplyService(
		ctx, a.container, "query",
		json.Marshal, json.Unmarshal,
		&req, &resp,
	); err != nil {
		return QueryResponse{}, fmt.Errorf("dashboard query request failed: %w", err)
	}
	return resp, nil
}
