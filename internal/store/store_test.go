package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/brandkit/brandkit/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedOwnerAndBrand(t *testing.T, s *Store) (*model.Owner, *model.Brand) {
	t.Helper()
	ctx := context.Background()

	owner := &model.Owner{Email: "owner@example.com", PasswordHash: "$2a$10$hash", IsActive: true}
	if err := s.CreateOwner(ctx, owner); err != nil {
		t.Fatalf("CreateOwner: %v", err)
	}

	brand := &model.Brand{
		OwnerID:       owner.ID,
		Name:          "Acme",
		Pitch:         "boxes arrive late",
		Concept:       "instant delivery",
		DesirableCues: "bold, fast, friendly",
	}
	if err := s.CreateBrand(ctx, brand); err != nil {
		t.Fatalf("CreateBrand: %v", err)
	}
	return owner, brand
}

func seedKey(t *testing.T, s *Store, ownerID, brandID, hash string) *model.APIKey {
	t.Helper()
	key := &model.APIKey{
		ID:          "key-" + hash[:8],
		OwnerID:     ownerID,
		BrandID:     brandID,
		Name:        "test key",
		KeyHash:     hash,
		KeyPrefix:   "bk_brand_" + brandID[:4] + "...",
		Permissions: model.Permissions{Read: true, Validate: true},
	}
	if err := s.CreateAPIKey(context.Background(), key); err != nil {
		t.Fatalf("CreateAPIKey: %v", err)
	}
	return key
}

func TestAPIKeyLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner, brand := seedOwnerAndBrand(t, s)

	key := seedKey(t, s, owner.ID, brand.ID, "aaaaaaaa-hash-1")

	got, err := s.GetAPIKeyByHash(ctx, key.KeyHash)
	if err != nil {
		t.Fatalf("GetAPIKeyByHash: %v", err)
	}
	if got.ID != key.ID {
		t.Errorf("ID = %q, want %q", got.ID, key.ID)
	}
	if !got.Permissions.Read || !got.Permissions.Validate {
		t.Errorf("permissions lost in round trip: %+v", got.Permissions)
	}
	if got.Permissions.Generate || got.Permissions.Modify {
		t.Errorf("unexpected permissions granted: %+v", got.Permissions)
	}

	if _, err := s.GetAPIKeyByHash(ctx, "no-such-hash"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListAPIKeysOrderAndRevokedFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner, brand := seedOwnerAndBrand(t, s)

	k1 := seedKey(t, s, owner.ID, brand.ID, "bbbbbbbb-hash-1")
	time.Sleep(5 * time.Millisecond) // distinct created_at
	k2 := seedKey(t, s, owner.ID, brand.ID, "cccccccc-hash-2")

	keys, err := s.ListAPIKeys(ctx, owner.ID, brand.ID, false)
	if err != nil {
		t.Fatalf("ListAPIKeys: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("got %d keys, want 2", len(keys))
	}
	if keys[0].ID != k2.ID {
		t.Errorf("newest key should come first, got %q", keys[0].ID)
	}

	if err := s.RevokeAPIKey(ctx, owner.ID, brand.ID, k1.ID); err != nil {
		t.Fatalf("RevokeAPIKey: %v", err)
	}

	keys, err = s.ListAPIKeys(ctx, owner.ID, brand.ID, false)
	if err != nil {
		t.Fatalf("ListAPIKeys: %v", err)
	}
	if len(keys) != 1 || keys[0].ID != k2.ID {
		t.Errorf("revoked key should be excluded, got %d keys", len(keys))
	}

	keys, err = s.ListAPIKeys(ctx, owner.ID, brand.ID, true)
	if err != nil {
		t.Fatalf("ListAPIKeys includeRevoked: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("includeRevoked should return 2 keys, got %d", len(keys))
	}
}

func TestRevokeAPIKeyIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner, brand := seedOwnerAndBrand(t, s)
	key := seedKey(t, s, owner.ID, brand.ID, "dddddddd-hash-1")

	if err := s.RevokeAPIKey(ctx, owner.ID, brand.ID, key.ID); err != nil {
		t.Fatalf("first revoke: %v", err)
	}

	got, err := s.GetAPIKey(ctx, owner.ID, brand.ID, key.ID)
	if err != nil {
		t.Fatalf("GetAPIKey: %v", err)
	}
	if got.RevokedAt == nil {
		t.Fatal("revoked_at not set")
	}
	firstRevokedAt := *got.RevokedAt

	// Second revoke is a no-op success and must not move revoked_at.
	time.Sleep(5 * time.Millisecond)
	if err := s.RevokeAPIKey(ctx, owner.ID, brand.ID, key.ID); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
	got, err = s.GetAPIKey(ctx, owner.ID, brand.ID, key.ID)
	if err != nil {
		t.Fatalf("GetAPIKey: %v", err)
	}
	if !got.RevokedAt.Equal(firstRevokedAt) {
		t.Errorf("revoked_at changed on repeat revoke: %v vs %v", got.RevokedAt, firstRevokedAt)
	}

	if err := s.RevokeAPIKey(ctx, owner.ID, brand.ID, "no-such-key"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for unknown key, got %v", err)
	}
}

func TestRecordKeyUsageConcurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner, brand := seedOwnerAndBrand(t, s)
	key := seedKey(t, s, owner.ID, brand.ID, "eeeeeeee-hash-1")

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.RecordKeyUsage(ctx, key.ID); err != nil {
				t.Errorf("RecordKeyUsage: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := s.GetAPIKey(ctx, owner.ID, brand.ID, key.ID)
	if err != nil {
		t.Fatalf("GetAPIKey: %v", err)
	}
	// The increment is a single atomic UPDATE; both calls must land.
	if got.UsageCount != 2 {
		t.Errorf("usage_count = %d, want exactly 2", got.UsageCount)
	}
	if got.LastUsedAt == nil {
		t.Error("last_used_at not set")
	}
}

func TestSettings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetSetting(ctx, "instance_id"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := s.SetSetting(ctx, "instance_id", "abc"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := s.SetSetting(ctx, "instance_id", "def"); err != nil {
		t.Fatalf("SetSetting upsert: %v", err)
	}

	val, err := s.GetSetting(ctx, "instance_id")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if val != "def" {
		t.Errorf("value = %q, want %q", val, "def")
	}
}
