package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// Tests require Redis running on localhost:6379 and skip otherwise.
const testRedisAddr = "localhost:6379"

// setupTestCache creates a cache instance for testing.
// Returns the cache and a cleanup function.
func setupTestCache(t *testing.T, prefix string) (*SummaryCache, func()) {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: testRedisAddr,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}

	cleanupKeys(ctx, client, prefix+"*")

	cache := New(client, prefix, 5*time.Minute)

	cleanup := func() {
		cleanupKeys(ctx, client, prefix+"*")
		client.Close()
	}

	return cache, cleanup
}

// cleanupKeys removes all keys matching the pattern.
func cleanupKeys(ctx context.Context, client *redis.Client, pattern string) {
	var cursor uint64
	for {
		keys, nextCursor, err := client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return
		}
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		cursor = nextCursor
		if cursor == 0 {
			return
		}
	}
}

type testSummary struct {
	Scope string `json:"scope"`
	Total int    `json:"total"`
}

func TestSummaryCache_SetAndGet(t *testing.T) {
	cache, cleanup := setupTestCache(t, "test-sc:")
	defer cleanup()
	ctx := context.Background()

	stored := testSummary{Scope: "user:user-1", Total: 7}
	if err := cache.Set(ctx, "user:user-1:day:0:86400", stored); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got testSummary
	found, err := cache.Get(ctx, "user:user-1:day:0:86400", &got)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatal("expected a cache hit")
	}
	if got != stored {
		t.Errorf("got %+v, want %+v", got, stored)
	}
}

func TestSummaryCache_Miss(t *testing.T) {
	cache, cleanup := setupTestCache(t, "test-miss:")
	defer cleanup()

	var got testSummary
	found, err := cache.Get(context.Background(), "nothing-here", &got)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("expected a miss for an absent key")
	}
}

func TestSummaryCache_DeletePattern(t *testing.T) {
	cache, cleanup := setupTestCache(t, "test-del:")
	defer cleanup()
	ctx := context.Background()

	keys := []string{
		"user:user-1:day:0:86400",
		"user:user-1:week:0:604800",
		"team:team-1:day:0:86400",
	}
	for _, k := range keys {
		if err := cache.Set(ctx, k, testSummary{Total: 1}); err != nil {
			t.Fatalf("Set(%q) error = %v", k, err)
		}
	}

	if err := cache.DeletePattern(ctx, "user:user-1:*"); err != nil {
		t.Fatalf("DeletePattern() error = %v", err)
	}

	var got testSummary
	for _, k := range keys[:2] {
		if found, _ := cache.Get(ctx, k, &got); found {
			t.Errorf("expected %q to be invalidated", k)
		}
	}
	if found, err := cache.Get(ctx, keys[2], &got); err != nil || !found {
		t.Errorf("expected %q to survive, found=%v err=%v", keys[2], found, err)
	}
}

func TestSummaryCache_Stats(t *testing.T) {
	cache, cleanup := setupTestCache(t, "test-stats:")
	defer cleanup()
	ctx := context.Background()

	if err := cache.Set(ctx, "k1", testSummary{Total: 1}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got testSummary
	cache.Get(ctx, "k1", &got)      // hit
	cache.Get(ctx, "absent", &got)  // miss

	stats := cache.GetStats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Sets != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.HitRate != 50 {
		t.Errorf("expected hit rate 50, got %v", stats.HitRate)
	}
}
