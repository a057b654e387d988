package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/worklog-dashboard/domain/entry"
	"github.com/example/worklog-dashboard/domain/identity"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&entry.TaskEntry{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func testEntry(owner string, createdAt time.Time) *entry.TaskEntry {
	return &entry.TaskEntry{
		ID:        uuid.New().String(),
		OwnerID:   owner,
		TeamID:    "team-1",
		Title:     "Test entry",
		Status:    entry.StatusPending,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
		Version:   1,
	}
}

func TestRepository_CreateAndFind(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	e := testEntry("user-1", time.Now().UTC())
	e.Description = "wrote the ingest worker"

	if err := repo.Create(ctx, e); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	found, err := repo.FindByID(ctx, e.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if found.Title != e.Title {
		t.Errorf("expected title %q, got %q", e.Title, found.Title)
	}
	if found.Version != 1 {
		t.Errorf("expected version 1, got %d", found.Version)
	}
}

func TestRepository_FindByID_NotFound(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	_, err := repo.FindByID(context.Background(), "no-such-id")
	if !errors.Is(err, entry.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRepository_UpdateCAS(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	e := testEntry("user-1", time.Now().UTC())
	if err := repo.Create(ctx, e); err != nil {
		t.Fatalf("failed to create test entry: %v", err)
	}

	t.Run("matching version commits", func(t *testing.T) {
		e.Status = entry.StatusDone
		e.UpdatedAt = e.UpdatedAt.Add(time.Second)

		if err := repo.UpdateCAS(ctx, e, 1); err != nil {
			t.Fatalf("UpdateCAS() error = %v", err)
		}
		if e.Version != 2 {
			t.Errorf("expected version bumped to 2, got %d", e.Version)
		}

		found, err := repo.FindByID(ctx, e.ID)
		if err != nil {
			t.Fatalf("FindByID() error = %v", err)
		}
		if found.Status != entry.StatusDone {
			t.Errorf("expected status done, got %q", found.Status)
		}
		if found.Version != 2 {
			t.Errorf("expected stored version 2, got %d", found.Version)
		}
	})

	t.Run("stale version loses", func(t *testing.T) {
		stale := *e
		stale.Status = entry.StatusArchived

		err := repo.UpdateCAS(ctx, &stale, 1)
		if !errors.Is(err, entry.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}

		// The winning write is untouched.
		found, err := repo.FindByID(ctx, e.ID)
		if err != nil {
			t.Fatalf("FindByID() error = %v", err)
		}
		if found.Status != entry.StatusDone {
			t.Errorf("expected status done after lost race, got %q", found.Status)
		}
	})

	t.Run("missing row is not found", func(t *testing.T) {
		ghost := testEntry("user-1", time.Now().UTC())
		err := repo.UpdateCAS(ctx, ghost, 1)
		if !errors.Is(err, entry.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestRepository_List_Paging(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var all []*entry.TaskEntry
	for i := 0; i < 5; i++ {
		e := testEntry("user-1", base.Add(time.Duration(i)*time.Hour))
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("failed to create test entry: %v", err)
		}
		all = append(all, e)
	}

	// First page: newest two.
	page, err := repo.List(ctx, Filter{OwnerID: "user-1", Limit: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(page))
	}
	if page[0].ID != all[4].ID || page[1].ID != all[3].ID {
		t.Errorf("expected newest-first ordering, got %s, %s", page[0].ID, page[1].ID)
	}

	// An insert newer than the cursor must not shift the next page.
	newest := testEntry("user-1", base.Add(10*time.Hour))
	if err := repo.Create(ctx, newest); err != nil {
		t.Fatalf("failed to create test entry: %v", err)
	}

	cursor := Cursor{CreatedAt: page[1].CreatedAt, ID: page[1].ID}
	page2, err := repo.List(ctx, Filter{OwnerID: "user-1", Cursor: &cursor, Limit: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(page2) != 2 {
		t.Fatalf("expected 2 entries on second page, got %d", len(page2))
	}
	if page2[0].ID != all[2].ID || page2[1].ID != all[1].ID {
		t.Errorf("cursor page shifted after concurrent insert: got %s, %s", page2[0].ID, page2[1].ID)
	}
}

func TestRepository_List_TieBreakOnID(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	// Three entries sharing one created_at: ordering must fall back to id
	// descending, and a cursor on the shared timestamp must not drop or
	// repeat rows.
	stamp := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"entry-a", "entry-b", "entry-c"} {
		e := testEntry("user-1", stamp)
		e.ID = id
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("failed to create test entry: %v", err)
		}
	}

	page, err := repo.List(ctx, Filter{OwnerID: "user-1", Limit: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(page))
	}
	if page[0].ID != "entry-c" || page[1].ID != "entry-b" {
		t.Errorf("expected id-descending order, got %s, %s", page[0].ID, page[1].ID)
	}

	// Round-trip the cursor through its encoded form, as the service does.
	token := Cursor{CreatedAt: page[1].CreatedAt, ID: page[1].ID}.Encode()
	cursor, err := DecodeCursor(token)
	if err != nil {
		t.Fatalf("DecodeCursor() error = %v", err)
	}

	page2, err := repo.List(ctx, Filter{OwnerID: "user-1", Cursor: &cursor, Limit: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(page2) != 1 || page2[0].ID != "entry-a" {
		t.Errorf("expected exactly entry-a beyond the cursor, got %d entries", len(page2))
	}
}

func TestRepository_List_Filters(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	done := testEntry("user-1", base)
	done.Status = entry.StatusDone
	pending := testEntry("user-1", base.Add(time.Hour))
	other := testEntry("user-2", base.Add(2*time.Hour))
	for _, e := range []*entry.TaskEntry{done, pending, other} {
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("failed to create test entry: %v", err)
		}
	}

	t.Run("by owner", func(t *testing.T) {
		got, err := repo.List(ctx, Filter{OwnerID: "user-2"})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) != 1 || got[0].ID != other.ID {
			t.Errorf("expected only user-2's entry, got %d entries", len(got))
		}
	})

	t.Run("by status", func(t *testing.T) {
		got, err := repo.List(ctx, Filter{OwnerID: "user-1", Status: entry.StatusDone})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) != 1 || got[0].ID != done.ID {
			t.Errorf("expected only the done entry, got %d entries", len(got))
		}
	})

	t.Run("half-open window", func(t *testing.T) {
		got, err := repo.List(ctx, Filter{From: base, To: base.Add(time.Hour)})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		// pending sits exactly on To and must be excluded.
		if len(got) != 1 || got[0].ID != done.ID {
			t.Errorf("expected window [from, to) to hold 1 entry, got %d", len(got))
		}
	})
}

func TestRepository_InWindow(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mine := testEntry("user-1", base)
	teammate := testEntry("user-2", base.Add(time.Hour))
	outsider := testEntry("user-3", base.Add(time.Hour))
	outsider.TeamID = "team-2"
	for _, e := range []*entry.TaskEntry{mine, teammate, outsider} {
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("failed to create test entry: %v", err)
		}
	}

	from, to := base, base.Add(24*time.Hour)

	t.Run("user scope", func(t *testing.T) {
		got, err := repo.InWindow(ctx, identity.UserScope("user-1"), from, to)
		if err != nil {
			t.Fatalf("InWindow() error = %v", err)
		}
		if len(got) != 1 || got[0].ID != mine.ID {
			t.Errorf("expected 1 entry for user scope, got %d", len(got))
		}
	})

	t.Run("team scope", func(t *testing.T) {
		got, err := repo.InWindow(ctx, identity.TeamScope("team-1"), from, to)
		if err != nil {
			t.Fatalf("InWindow() error = %v", err)
		}
		if len(got) != 2 {
			t.Errorf("expected 2 entries for team scope, got %d", len(got))
		}
	})

	t.Run("global scope", func(t *testing.T) {
		got, err := repo.InWindow(ctx, identity.GlobalScope(), from, to)
		if err != nil {
			t.Fatalf("InWindow() error = %v", err)
		}
		if len(got) != 3 {
			t.Errorf("expected 3 entries for global scope, got %d", len(got))
		}
	})

	t.Run("unknown scope kind", func(t *testing.T) {
		_, err := repo.InWindow(ctx, identity.Scope{Kind: "galaxy"}, from, to)
		if !errors.Is(err, entry.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})
}

func TestRepository_WindowStamp(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	from, to := base, base.Add(24*time.Hour)
	scope := identity.UserScope("user-1")

	count, versionSum, err := repo.WindowStamp(ctx, scope, from, to)
	if err != nil {
		t.Fatalf("WindowStamp() error = %v", err)
	}
	if count != 0 || versionSum != 0 {
		t.Fatalf("expected zero stamp for empty window, got (%d, %d)", count, versionSum)
	}

	e := testEntry("user-1", base.Add(time.Hour))
	if err := repo.Create(ctx, e); err != nil {
		t.Fatalf("failed to create test entry: %v", err)
	}

	count, versionSum, err = repo.WindowStamp(ctx, scope, from, to)
	if err != nil {
		t.Fatalf("WindowStamp() error = %v", err)
	}
	if count != 1 || versionSum != 1 {
		t.Errorf("expected stamp (1, 1) after create, got (%d, %d)", count, versionSum)
	}

	// A CAS update bumps one version, so the sum moves even though the
	// count does not.
	e.Title = "Updated"
	if err := repo.UpdateCAS(ctx, e, e.Version); err != nil {
		t.Fatalf("UpdateCAS() error = %v", err)
	}

	count, versionSum, err = repo.WindowStamp(ctx, scope, from, to)
	if err != nil {
		t.Fatalf("WindowStamp() error = %v", err)
	}
	if count != 1 || versionSum != 2 {
		t.Errorf("expected stamp (1, 2) after update, got (%d, %d)", count, versionSum)
	}
}
