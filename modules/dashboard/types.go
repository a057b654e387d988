package dashboard

import (
	"time"

	"github.com/example/worklog-dashboard/domain/identity"
)

// DashboardQueryRequest is the request for a bucketed summary, carried over
// the service container.
type DashboardQueryRequest struct {
	Caller identity.Claims `json:"caller"`
	Query  QueryRequest    `json:"query"`
}

// QueryRequest selects the scope, granularity and time range to summarize.
type QueryRequest struct {
	Scope       string    `json:"scope,omitempty"` // user (default), team, global
	ScopeID     string    `json:"scope_id,omitempty"`
	Granularity string    `json:"granularity"`
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
}

// QueryResponse is the zero-filled, chronologically ascending sequence of
// bucket summaries the presentation layer charts from. From/To echo the
// widened bucket-aligned window actually summarized.
type QueryResponse struct {
	Scope       identity.Scope  `json:"scope"`
	Granularity string          `json:"granularity"`
	From        time.Time       `json:"from"`
	To          time.Time       `json:"to"`
	Buckets     []BucketSummary `json:"buckets"`
	Total       int             `json:"total"`
}
