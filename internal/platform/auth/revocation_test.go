package auth

import (
	"context"
	"testing"
	"time"
)

func TestMemoryRevocationStore_RevokeAndCheck(t *testing.T) {
	store := NewMemoryRevocationStore(0)
	defer store.Close()
	ctx := context.Background()

	if revoked, _ := store.IsRevoked(ctx, "jti-1"); revoked {
		t.Fatal("expected jti-1 not revoked")
	}
	if err := store.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Revoke() error: %v", err)
	}
	if revoked, _ := store.IsRevoked(ctx, "jti-1"); !revoked {
		t.Error("expected jti-1 revoked")
	}
	if revoked, _ := store.IsRevoked(ctx, "jti-2"); revoked {
		t.Error("expected jti-2 not revoked")
	}
	if err := store.Revoke(ctx, "", time.Now()); err == nil {
		t.Error("expected error for empty jti")
	}
}

func TestMemoryRevocationStore_Cleanup(t *testing.T) {
	store := NewMemoryRevocationStore(0)
	defer store.Close()
	ctx := context.Background()
	now := time.Now()

	_ = store.Revoke(ctx, "expired", now.Add(-time.Minute))
	_ = store.Revoke(ctx, "live", now.Add(time.Hour))

	store.cleanup()

	if store.Count() != 1 {
		t.Fatalf("expected 1 entry after cleanup, got %d", store.Count())
	}
	if revoked, _ := store.IsRevoked(ctx, "live"); !revoked {
		t.Error("expected live entry to survive cleanup")
	}
}

func TestMemoryRevocationStore_CloseTwice(t *testing.T) {
	store := NewMemoryRevocationStore(time.Hour)
	store.Close()
	store.Close()
}

func TestRevocationTTL(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	if got := revocationTTL(now, now.Add(90*time.Minute)); got != 90*time.Minute {
		t.Errorf("expected 90m, got %s", got)
	}
	if got := revocationTTL(now, now.Add(-time.Minute)); got != time.Second {
		t.Errorf("expected 1s floor, got %s", got)
	}
}

func TestRedisRevocationStore_KeyPrefix(t *testing.T) {
	s := NewRedisRevocationStore(nil, "")
	if s.key("abc") != "hms:revoked:abc" {
		t.Errorf("unexpected key %q", s.key("abc"))
	}
}
