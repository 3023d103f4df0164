package auth

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryStore_RevokeAndIsRevoked(t *testing.T) {
	store := NewMemoryRevocationStore()
	defer store.Close()
	ctx := context.Background()

	if err := store.Revoke(ctx, "token-abc-123", "L100001", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	revoked, err := store.IsRevoked(ctx, "token-abc-123")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if !revoked {
		t.Error("expected token to be revoked")
	}
}

func TestMemoryStore_UnknownJTI(t *testing.T) {
	store := NewMemoryRevocationStore()
	defer store.Close()

	revoked, err := store.IsRevoked(context.Background(), "unknown-jti")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if revoked {
		t.Error("expected unknown JTI to not be revoked")
	}
}

func TestMemoryStore_ExpiredEntryNoLongerRevoked(t *testing.T) {
	store := NewMemoryRevocationStore()
	defer store.Close()
	ctx := context.Background()

	store.Revoke(ctx, "stale-jti", "L100001", time.Now().Add(-time.Minute))

	revoked, err := store.IsRevoked(ctx, "stale-jti")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if revoked {
		t.Error("expected expired entry to report as not revoked")
	}
}

func TestMemoryStore_Entries(t *testing.T) {
	store := NewMemoryRevocationStore()
	defer store.Close()
	ctx := context.Background()

	store.Revoke(ctx, "jti-1", "L100001", time.Now().Add(time.Hour))
	store.Revoke(ctx, "jti-2", "L100002", time.Now().Add(time.Hour))

	entries, err := store.Entries(ctx)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if store.Count() != 2 {
		t.Errorf("expected count 2, got %d", store.Count())
	}
}

func TestMemoryStore_Cleanup(t *testing.T) {
	store := NewMemoryRevocationStore()
	defer store.Close()
	ctx := context.Background()

	store.Revoke(ctx, "fresh", "L100001", time.Now().Add(time.Hour))
	store.Revoke(ctx, "stale", "L100001", time.Now().Add(-time.Minute))

	store.cleanup()

	if store.Count() != 1 {
		t.Errorf("expected 1 entry after cleanup, got %d", store.Count())
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryRevocationStore()
	defer store.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			store.Revoke(ctx, string(rune('a'+n)), "L100001", time.Now().Add(time.Hour))
		}(i)
		go func(n int) {
			defer wg.Done()
			store.IsRevoked(ctx, string(rune('a'+n)))
		}(i)
	}
	wg.Wait()

	if store.Count() != 10 {
		t.Errorf("expected 10 entries, got %d", store.Count())
	}
}

func TestMemoryStore_CloseIsIdempotent(t *testing.T) {
	store := NewMemoryRevocationStore()
	store.Close()
	store.Close()
}
