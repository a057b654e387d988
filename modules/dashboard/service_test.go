package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/worklog-dashboard/domain/entry"
	"github.com/example/worklog-dashboard/domain/identity"
)

type stubSource struct {
	entries []entry.TaskEntry
	err     error
	calls   int
	scope   identity.Scope
	from    time.Time
	to      time.Time
}

func (s *stubSource) EntriesInWindow(_ context.Context, scope identity.Scope, from, to time.Time) ([]entry.TaskEntry, error) {
	s.calls++
	s.scope, s.from, s.to = scope, from, to
	return s.entries, s.err
}

// WindowStamp derives the stamp from the stub's entries, the same way the
// ledger derives it from the store: count plus version sum.
func (s *stubSource) WindowStamp(_ context.Context, _ identity.Scope, _, _ time.Time) (int64, int64, error) {
	if s.err != nil {
		return 0, 0, s.err
	}
	var versionSum int64
	for i := range s.entries {
		versionSum += s.entries[i].Version
	}
	return int64(len(s.entries)), versionSum, nil
}

type stubCache struct {
	stored  map[string]QueryResponse
	getErr  error
	deleted []string
	sets    int
}

func newStubCache() *stubCache {
	return &stubCache{stored: make(map[string]QueryResponse)}
}

func (c *stubCache) Get(_ context.Context, key string, dest any) (bool, error) {
	if c.getErr != nil {
		return false, c.getErr
	}
	resp, ok := c.stored[key]
	if !ok {
		return false, nil
	}
	*dest.(*QueryResponse) = resp
	return true, nil
}

func (c *stubCache) Set(_ context.Context, key string, value any) error {
	c.sets++
	c.stored[key] = value.(QueryResponse)
	return nil
}

func (c *stubCache) DeletePattern(_ context.Context, pattern string) error {
	c.deleted = append(c.deleted, pattern)
	return nil
}

var (
	member = identity.Claims{UserID: "user-1", TeamID: "team-1", Role: identity.RoleMember}
	admin  = identity.Claims{UserID: "root-1", Role: identity.RoleAdmin}
)

func dayRequest(day time.Time) QueryRequest {
	return QueryRequest{Granularity: "day", From: day, To: day}
}

func TestService_Query_Validation(t *testing.T) {
	svc := NewService(&stubSource{}, nil)
	ctx := context.Background()
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	t.Run("unknown granularity", func(t *testing.T) {
		req := dayRequest(day)
		req.Granularity = "hour"
		_, err := svc.Query(ctx, member, req)
		if !errors.Is(err, entry.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("missing range", func(t *testing.T) {
		_, err := svc.Query(ctx, member, QueryRequest{Granularity: "day"})
		if !errors.Is(err, entry.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("inverted range", func(t *testing.T) {
		req := QueryRequest{Granularity: "day", From: day, To: day.AddDate(0, 0, -1)}
		_, err := svc.Query(ctx, member, req)
		if !errors.Is(err, entry.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("unknown scope", func(t *testing.T) {
		req := dayRequest(day)
		req.Scope = "galaxy"
		_, err := svc.Query(ctx, member, req)
		if !errors.Is(err, entry.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})
}

func TestService_Query_ScopeAuthorization(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	t.Run("defaults to own user scope", func(t *testing.T) {
		src := &stubSource{}
		svc := NewService(src, nil)

		resp, err := svc.Query(ctx, member, dayRequest(day))
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		if src.scope != identity.UserScope(member.UserID) {
			t.Errorf("expected own user scope, got %+v", src.scope)
		}
		if resp.Scope != identity.UserScope(member.UserID) {
			t.Errorf("expected response scope to match, got %+v", resp.Scope)
		}
	})

	t.Run("member denied another user's scope", func(t *testing.T) {
		svc := NewService(&stubSource{}, nil)
		req := dayRequest(day)
		req.Scope = "user"
		req.ScopeID = "user-2"
		_, err := svc.Query(ctx, member, req)
		if !errors.Is(err, entry.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("member denied team scope", func(t *testing.T) {
		svc := NewService(&stubSource{}, nil)
		req := dayRequest(day)
		req.Scope = "team"
		_, err := svc.Query(ctx, member, req)
		if !errors.Is(err, entry.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("manager reads own team", func(t *testing.T) {
		src := &stubSource{}
		svc := NewService(src, nil)
		manager := identity.Claims{UserID: "mgr-1", TeamID: "team-1", Role: identity.RoleManager}
		req := dayRequest(day)
		req.Scope = "team"
		if _, err := svc.Query(ctx, manager, req); err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		if src.scope != identity.TeamScope("team-1") {
			t.Errorf("expected team-1 scope, got %+v", src.scope)
		}
	})

	t.Run("global scope requires admin", func(t *testing.T) {
		src := &stubSource{}
		svc := NewService(src, nil)
		req := dayRequest(day)
		req.Scope = "global"

		if _, err := svc.Query(ctx, member, req); !errors.Is(err, entry.ErrForbidden) {
			t.Errorf("expected ErrForbidden for member, got %v", err)
		}
		if _, err := svc.Query(ctx, admin, req); err != nil {
			t.Errorf("Query() error for admin = %v", err)
		}
	})
}

func TestService_Query_Computation(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	src := &stubSource{entries: []entry.TaskEntry{
		entryAt(day.Add(9*time.Hour), entry.StatusPending),
		entryAt(day.Add(12*time.Hour), entry.StatusDone),
		entryAt(day.Add(15*time.Hour), entry.StatusDone),
	}}
	svc := NewService(src, nil)

	resp, err := svc.Query(ctx, member, dayRequest(day))
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	// The store window covers the full last bucket.
	if !src.from.Equal(day) || !src.to.Equal(day.AddDate(0, 0, 1)) {
		t.Errorf("expected window [%v, %v), got [%v, %v)", day, day.AddDate(0, 0, 1), src.from, src.to)
	}
	if len(resp.Buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(resp.Buckets))
	}
	if resp.Buckets[0].Counts["done"] != 2 || resp.Buckets[0].Counts["pending"] != 1 {
		t.Errorf("unexpected counts: %v", resp.Buckets[0].Counts)
	}
	if resp.Total != 3 {
		t.Errorf("expected total 3, got %d", resp.Total)
	}
}

func TestService_Query_SourceError(t *testing.T) {
	src := &stubSource{err: errors.New("store unavailable: window query")}
	svc := NewService(src, nil)
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	_, err := svc.Query(context.Background(), member, dayRequest(day))
	if err == nil {
		t.Fatal("expected error from source, got nil")
	}
}

func TestService_Query_Caching(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	t.Run("miss computes then hit skips the source", func(t *testing.T) {
		src := &stubSource{}
		c := newStubCache()
		svc := NewService(src, c)

		if _, err := svc.Query(ctx, member, dayRequest(day)); err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		if src.calls != 1 || c.sets != 1 {
			t.Fatalf("expected 1 source call and 1 cache set, got %d/%d", src.calls, c.sets)
		}

		if _, err := svc.Query(ctx, member, dayRequest(day)); err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		if src.calls != 1 {
			t.Errorf("expected cache hit to skip the source, got %d calls", src.calls)
		}
	})

	t.Run("a write is never masked by a stale summary", func(t *testing.T) {
		src := &stubSource{}
		c := newStubCache()
		svc := NewService(src, c)

		before, err := svc.Query(ctx, member, dayRequest(day))
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		if before.Total != 0 {
			t.Fatalf("expected empty summary, got total %d", before.Total)
		}

		// A new entry lands without any invalidation reaching the cache,
		// as when the invalidation event is lost or still in flight.
		src.entries = append(src.entries, entryAt(day.Add(9*time.Hour), entry.StatusDone))

		after, err := svc.Query(ctx, member, dayRequest(day))
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		if after.Total != 1 {
			t.Errorf("expected the write to be visible, got total %d", after.Total)
		}
		if src.calls != 2 {
			t.Errorf("expected a recompute after the write, got %d source calls", src.calls)
		}
	})

	t.Run("cache failure degrades to the source", func(t *testing.T) {
		src := &stubSource{}
		c := newStubCache()
		c.getErr = errors.New("connection refused")
		svc := NewService(src, c)

		if _, err := svc.Query(ctx, member, dayRequest(day)); err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		if src.calls != 1 {
			t.Errorf("expected the source to serve the query, got %d calls", src.calls)
		}
	})

	t.Run("denied queries never touch the cache", func(t *testing.T) {
		c := newStubCache()
		svc := NewService(&stubSource{}, c)
		req := dayRequest(day)
		req.Scope = "global"

		if _, err := svc.Query(ctx, member, req); !errors.Is(err, entry.ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
		if c.sets != 0 {
			t.Errorf("expected no cache writes after denial, got %d", c.sets)
		}
	})
}

func TestService_Invalidate(t *testing.T) {
	c := newStubCache()
	svc := NewService(&stubSource{}, c)

	svc.Invalidate(context.Background(), "user-1", "team-1")

	want := []string{"user:user-1:*", "global::*", "team:team-1:*"}
	if len(c.deleted) != len(want) {
		t.Fatalf("expected %d patterns, got %d: %v", len(want), len(c.deleted), c.deleted)
	}
	for i, p := range want {
		if c.deleted[i] != p {
			t.Errorf("pattern %d: expected %q, got %q", i, p, c.deleted[i])
		}
	}
}

func TestService_Invalidate_NoCache(t *testing.T) {
	svc := NewService(&stubSource{}, nil)
	// Must not panic without a cache.
	svc.Invalidate(context.Background(), "user-1", "")
}
