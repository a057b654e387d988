package api

import (
	"fmt"
	"time"

	"github.com/example/worklog-dashboard/domain/entry"
	"github.com/example/worklog-dashboard/domain/identity"
	"github.com/example/worklog-dashboard/modules/dashboard"
	"github.com/example/worklog-dashboard/modules/ledger"
	"github.com/gofiber/fiber/v2"
)

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	ledgerPort    ledger.LedgerPort
	dashboardPort dashboard.DashboardPort
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(ledgerPort ledger.LedgerPort, dashboardPort dashboard.DashboardPort) *Handlers {
	return &Handlers{
		ledgerPort:    ledgerPort,
		dashboardPort: dashboardPort,
	}
}

// caller extracts the authenticated claims placed by AuthMiddleware.
func caller(c *fiber.Ctx) (identity.Claims, bool) {
	claims, ok := c.Locals(CallerContextKey).(*identity.Claims)
	if !ok || claims == nil {
		return identity.Claims{}, false
	}
	return *claims, true
}

// CreateEntry handles POST /api/v1/entries.
func (h *Handlers) CreateEntry(c *fiber.Ctx) error {
	claims, ok := caller(c)
	if !ok {
		return unauthenticated(c)
	}

	var req CreateEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
	}

	resp, err := h.ledgerPort.CreateEntry(c.UserContext(), ledger.CreateEntryRequest{
		Caller:      claims,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		return mapDomainError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toEntryResponse(resp))
}

// UpdateEntry handles PATCH /api/v1/entries/:id.
func (h *Handlers) UpdateEntry(c *fiber.Ctx) error {
	claims, ok := caller(c)
	if !ok {
		return unauthenticated(c)
	}

	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: "Entry id is required",
		})
	}

	var req UpdateEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
	}

	resp, err := h.ledgerPort.UpdateEntry(c.UserContext(), ledger.UpdateEntryRequest{
		Caller:      claims,
		EntryID:     id,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		return mapDomainError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(toEntryResponse(resp))
}

// GetEntry handles GET /api/v1/entries/:id.
func (h *Handlers) GetEntry(c *fiber.Ctx) error {
	claims, ok := caller(c)
	if !ok {
		return unauthenticated(c)
	}

	resp, err := h.ledgerPort.GetEntry(c.UserContext(), ledger.GetEntryRequest{
		Caller:  claims,
		EntryID: c.Params("id"),
	})
	if err != nil {
		return mapDomainError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(toEntryResponse(resp))
}

// ListEntries handles GET /api/v1/entries.
func (h *Handlers) ListEntries(c *fiber.Ctx) error {
	claims, ok := caller(c)
	if !ok {
		return unauthenticated(c)
	}

	// owner_id defaults to the caller; "*" asks for every owner, which the
	// ledger only grants to admins.
	ownerID := c.Query("owner_id", claims.UserID)
	if ownerID == "*" {
		ownerID = ""
	}

	req := ledger.ListEntriesRequest{
		Caller:  claims,
		OwnerID: ownerID,
		Status:  c.Query("status"),
		Cursor:  c.Query("cursor"),
		Limit:   c.QueryInt("limit"),
	}
	if v := c.Query("from"); v != "" {
		t, err := parseTime(v)
		if err != nil {
			return mapDomainError(c, err)
		}
		req.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := parseTime(v)
		if err != nil {
			return mapDomainError(c, err)
		}
		req.To = &t
	}

	resp, err := h.ledgerPort.ListEntries(c.UserContext(), req)
	if err != nil {
		return mapDomainError(c, err)
	}

	out := ListEntriesResponse{
		Entries:    make([]EntryResponse, 0, len(resp.Entries)),
		NextCursor: resp.NextCursor,
	}
	for _, e := range resp.Entries {
		out.Entries = append(out.Entries, toEntryResponse(e))
	}
	return c.Status(fiber.StatusOK).JSON(out)
}

// Dashboard handles GET /api/v1/dashboard.
func (h *Handlers) Dashboard(c *fiber.Ctx) error {
	claims, ok := caller(c)
	if !ok {
		return unauthenticated(c)
	}

	from, err := parseTime(c.Query("from"))
	if err != nil {
		return mapDomainError(c, err)
	}
	to, err := parseTime(c.Query("to"))
	if err != nil {
		return mapDomainError(c, err)
	}

	query := dashboard.QueryRequest{
		Scope:       c.Query("scope"),
		ScopeID:     c.Query("scope_id"),
		Granularity: c.Query("granularity", string(dashboard.GranularityDay)),
		From:        from,
		To:          to,
	}

	resp, err := h.dashboardPort.Query(c.UserContext(), claims, query)
	if err != nil {
		return mapDomainError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(DashboardResponse{
		Scope:       string(resp.Scope.Kind),
		ScopeID:     resp.Scope.ID,
		Granularity: resp.Granularity,
		From:        resp.From,
		To:          resp.To,
		Buckets:     resp.Buckets,
		Total:       resp.Total,
	})
}

// parseTime accepts RFC3339 timestamps or bare dates.
func parseTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, fmt.Errorf("%w: missing timestamp", entry.ErrValidation)
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: invalid timestamp %q, want RFC3339 or YYYY-MM-DD", entry.ErrValidation, v)
}

func unauthenticated(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
		Error:   "unauthorized",
		Message: "Caller not authenticated",
	})
}

// toEntryResponse converts the ledger wire shape into the HTTP shape.
func toEntryResponse(e ledger.EntryResponse) EntryResponse {
	return EntryResponse{
		ID:          e.ID,
		OwnerID:     e.OwnerID,
		TeamID:      e.TeamID,
		Title:       e.Title,
		Description: e.Description,
		Status:      e.Status,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
		Version:     e.Version,
	}
}
