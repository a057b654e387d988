package dashboard

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/example/worklog-dashboard/domain/entry"
	"github.com/example/worklog-dashboard/domain/identity"
	"github.com/example/worklog-dashboard/modules/auth"
	"golang.org/x/sync/singleflight"
)

// EntrySource is the slice of the ledger the aggregator reads from. The
// write stamp is a cheap change marker over the same window: it moves on
// every committed create and update.
type EntrySource interface {
	EntriesInWindow(ctx context.Context, scope identity.Scope, from, to time.Time) ([]entry.TaskEntry, error)
	WindowStamp(ctx context.Context, scope identity.Scope, from, to time.Time) (count, versionSum int64, err error)
}

// Cache is the subset of the summary cache the service needs. A nil Cache
// disables caching; queries then always hit the ledger.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	DeletePattern(ctx context.Context, pattern string) error
}

// Service orchestrates dashboard queries: it authorizes the requested
// scope, resolves the bucket granularity, pulls a consistent snapshot from
// the ledger and hands it to the aggregator.
type Service struct {
	source  EntrySource
	cache   Cache
	sfGroup singleflight.Group // collapses concurrent misses for the same key
}

// NewService creates a new dashboard service. cache may be nil.
func NewService(source EntrySource, cache Cache) *Service {
	return &Service{
		source: source,
		cache:  cache,
	}
}

// Query computes the bucketed summary for a scope and range.
func (s *Service) Query(ctx context.Context, caller identity.Claims, req QueryRequest) (QueryResponse, error) {
	g, err := ParseGranularity(req.Granularity)
	if err != nil {
		return QueryResponse{}, err
	}
	if req.From.IsZero() || req.To.IsZero() {
		return QueryResponse{}, fmt.Errorf("%w: from and to are required", entry.ErrValidation)
	}
	from := req.From.UTC()
	to := req.To.UTC()
	if to.Before(from) {
		return QueryResponse{}, fmt.Errorf("%w: end of range precedes its start", entry.ErrValidation)
	}

	scope, err := resolveScope(caller, req)
	if err != nil {
		return QueryResponse{}, err
	}
	if err := auth.AuthorizeScope(caller, scope); err != nil {
		return QueryResponse{}, err
	}

	// Widen the window to full bucket boundaries so range=[D,D] covers all
	// of day D. The store queries are half-open, the bucket walk inclusive.
	windowFrom := BucketStart(from, g)
	windowTo := NextBucket(BucketStart(to, g), g)

	// The cache key carries the window's write stamp, so a caller who just
	// committed a write can never be served the pre-write summary: the
	// stamp has moved and the stale key simply misses. Event-driven
	// invalidation then prunes the dead keys; TTL covers the rest.
	var key string
	if s.cache != nil {
		count, versionSum, err := s.source.WindowStamp(ctx, scope, windowFrom, windowTo)
		if err != nil {
			return QueryResponse{}, err
		}
		key = cacheKey(scope, g, from, to, count, versionSum)

		var cached QueryResponse
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			// Degrade to the ledger on cache trouble; never fail a read
			// because the optimization is sick.
			log.Printf("[dashboard] Cache error for %s: %v", key, err)
		}
		if found {
			return cached, nil
		}
	} else {
		key = cacheKey(scope, g, from, to, 0, 0)
	}

	val, err, _ := s.sfGroup.Do(key, func() (any, error) {
		return s.compute(ctx, scope, g, windowFrom, windowTo, from, to)
	})
	if err != nil {
		return QueryResponse{}, err
	}
	resp := val.(QueryResponse)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, resp); err != nil {
			log.Printf("[dashboard] Warning: failed to cache %s: %v", key, err)
		}
	}
	return resp, nil
}

// compute derives the summary straight from the ledger.
func (s *Service) compute(ctx context.Context, scope identity.Scope, g Granularity, windowFrom, windowTo, from, to time.Time) (QueryResponse, error) {
	entries, err := s.source.EntriesInWindow(ctx, scope, windowFrom, windowTo)
	if err != nil {
		return QueryResponse{}, err
	}

	buckets, err := Summarize(entries, g, from, to)
	if err != nil {
		return QueryResponse{}, err
	}

	total := 0
	for i := range buckets {
		total += buckets[i].Total
	}

	return QueryResponse{
		Scope:       scope,
		Granularity: string(g),
		From:        windowFrom,
		To:          windowTo,
		Buckets:     buckets,
		Total:       total,
	}, nil
}

// Invalidate drops every cached summary a write for (ownerID, teamID) could
// have changed: the owner's user scope, the team scope and the global scope.
func (s *Service) Invalidate(ctx context.Context, ownerID, teamID string) {
	if s.cache == nil {
		return
	}
	patterns := []string{
		scopePattern(identity.UserScope(ownerID)),
		scopePattern(identity.GlobalScope()),
	}
	if teamID != "" {
		patterns = append(patterns, scopePattern(identity.TeamScope(teamID)))
	}
	for _, p := range patterns {
		if err := s.cache.DeletePattern(ctx, p); err != nil {
			log.Printf("[dashboard] Warning: cache invalidation failed for %s: %v", p, err)
		}
	}
}

// resolveScope turns the request's scope fields into a Scope, defaulting to
// the caller's own user scope.
func resolveScope(caller identity.Claims, req QueryRequest) (identity.Scope, error) {
	switch identity.ScopeKind(req.Scope) {
	case identity.ScopeUser, "":
		id := req.ScopeID
		if id == "" {
			id = caller.UserID
		}
		return identity.UserScope(id), nil
	case identity.ScopeTeam:
		id := req.ScopeID
		if id == "" {
			id = caller.TeamID
		}
		if id == "" {
			return identity.Scope{}, fmt.Errorf("%w: team scope requires a team id", entry.ErrValidation)
		}
		return identity.TeamScope(id), nil
	case identity.ScopeGlobal:
		return identity.GlobalScope(), nil
	default:
		return identity.Scope{}, fmt.Errorf("%w: unknown scope %q", entry.ErrValidation, req.Scope)
	}
}

// cacheKey identifies a summary by scope, granularity, range and the
// window's write stamp.
func cacheKey(scope identity.Scope, g Granularity, from, to time.Time, count, versionSum int64) string {
	return fmt.Sprintf("%s:%s:%s:%d:%d:%d:%d",
		scope.Kind, scope.ID, g, from.Unix(), to.Unix(), count, versionSum)
}

// scopePattern matches every cached summary for a scope.
func scopePattern(scope identity.Scope) string {
	return fmt.Sprintf("%s:%s:*", scope.Kind, scope.ID)
}
