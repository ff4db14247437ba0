package store

import (
	"context"
	"fmt"
	"time"

	"github.com/brandkit/brandkit/internal/model"
)

// apiKeyRow is a flat struct that maps 1:1 to the api_keys table columns.
// model.APIKey nests the Permissions struct, so scanning goes through this.
type apiKeyRow struct {
	ID           string     `db:"id"`
	OwnerID      string     `db:"owner_id"`
	BrandID      string     `db:"brand_id"`
	Name         string     `db:"name"`
	KeyHash      string     `db:"key_hash"`
	KeyPrefix    string     `db:"key_prefix"`
	PermRead     bool       `db:"perm_read"`
	PermValidate bool       `db:"perm_validate"`
	PermGenerate bool       `db:"perm_generate"`
	PermModify   bool       `db:"perm_modify"`
	UsageCount   int64      `db:"usage_count"`
	ExpiresAt    *time.Time `db:"expires_at"`
	LastUsedAt   *time.Time `db:"last_used_at"`
	RevokedAt    *time.Time `db:"revoked_at"`
	CreatedAt    time.Time  `db:"created_at"`
}

func apiKeyRowFromModel(k *model.APIKey) apiKeyRow {
	return apiKeyRow{
		ID:           k.ID,
		OwnerID:      k.OwnerID,
		BrandID:      k.BrandID,
		Name:         k.Name,
		KeyHash:      k.KeyHash,
		KeyPrefix:    k.KeyPrefix,
		PermRead:     k.Permissions.Read,
		PermValidate: k.Permissions.Validate,
		PermGenerate: k.Permissions.Generate,
		PermModify:   k.Permissions.Modify,
		UsageCount:   k.UsageCount,
		ExpiresAt:    k.ExpiresAt,
		LastUsedAt:   k.LastUsedAt,
		RevokedAt:    k.RevokedAt,
		CreatedAt:    k.CreatedAt,
	}
}

func (r apiKeyRow) toModel() model.APIKey {
	return model.APIKey{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		BrandID:   r.BrandID,
		Name:      r.Name,
		KeyHash:   r.KeyHash,
		KeyPrefix: r.KeyPrefix,
		Permissions: model.Permissions{
			Read:     r.PermRead,
			Validate: r.PermValidate,
			Generate: r.PermGenerate,
			Modify:   r.PermModify,
		},
		UsageCount: r.UsageCount,
		ExpiresAt:  r.ExpiresAt,
		LastUsedAt: r.LastUsedAt,
		RevokedAt:  r.RevokedAt,
		CreatedAt:  r.CreatedAt,
	}
}

// CreateAPIKey inserts a new API key record. The key_hash and key_prefix
// must already be set; the CreatedAt field is populated on insert.
func (s *Store) CreateAPIKey(ctx context.Context, key *model.APIKey) error {
	key.CreatedAt = time.Now().UTC()

	const q = `INSERT INTO api_keys
		(id, owner_id, brand_id, name, key_hash, key_prefix,
		 perm_read, perm_validate, perm_generate, perm_modify,
		 usage_count, expires_at, created_at)
		VALUES
		(:id, :owner_id, :brand_id, :name, :key_hash, :key_prefix,
		 :perm_read, :perm_validate, :perm_generate, :perm_modify,
		 :usage_count, :expires_at, :created_at)`

	if _, err := s.db.NamedExecContext(ctx, q, apiKeyRowFromModel(key)); err != nil {
		return fmt.Errorf("insert api key: %w", err)
	}
	return nil
}

// GetAPIKeyByHash looks up an API key by its SHA-256 hash. Used only by the
// authenticator; callers must still check revocation and expiry.
func (s *Store) GetAPIKeyByHash(ctx context.Context, hash string) (*model.APIKey, error) {
	var row apiKeyRow
	if err := s.db.GetContext(ctx, &row, "SELECT * FROM api_keys WHERE key_hash = ?", hash); err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get api key by hash: %w", err)
	}
	key := row.toModel()
	return &key, nil
}

// GetAPIKey returns an API key by ID scoped to an owner and brand.
func (s *Store) GetAPIKey(ctx context.Context, ownerID, brandID, keyID string) (*model.APIKey, error) {
	var row apiKeyRow
	err := s.db.GetContext(ctx, &row,
		"SELECT * FROM api_keys WHERE id = ? AND owner_id = ? AND brand_id = ?",
		keyID, ownerID, brandID)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get api key: %w", err)
	}
	key := row.toModel()
	return &key, nil
}

// ListAPIKeys returns an owner's keys for a brand, newest first. Revoked
// keys are excluded unless includeRevoked is set.
func (s *Store) ListAPIKeys(ctx context.Context, ownerID, brandID string, includeRevoked bool) ([]model.APIKey, error) {
	q := "SELECT * FROM api_keys WHERE owner_id = ? AND brand_id = ?"
	if !includeRevoked {
		q += " AND revoked_at IS NULL"
	}
	q += " ORDER BY created_at DESC"

	var rows []apiKeyRow
	if err := s.db.SelectContext(ctx, &rows, q, ownerID, brandID); err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}

	keys := make([]model.APIKey, len(rows))
	for i, r := range rows {
		keys[i] = r.toModel()
	}
	return keys, nil
}

// RevokeAPIKey sets revoked_at on a key. Idempotent: revoking an already
// revoked key is a no-op success; revoked_at keeps its original value.
// Returns ErrNotFound only if no such key exists for the owner and brand.
func (s *Store) RevokeAPIKey(ctx context.Context, ownerID, brandID, keyID string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE api_keys SET revoked_at = ? WHERE id = ? AND owner_id = ? AND brand_id = ? AND revoked_at IS NULL",
		time.Now().UTC(), keyID, ownerID, brandID)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke api key rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	// Nothing updated: either already revoked (fine) or missing.
	if _, err := s.GetAPIKey(ctx, ownerID, brandID, keyID); err != nil {
		return err
	}
	return nil
}

// DeleteAPIKey hard-deletes a key record. Destructive; revocation is the
// normal path while audit history matters.
func (s *Store) DeleteAPIKey(ctx context.Context, ownerID, brandID, keyID string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM api_keys WHERE id = ? AND owner_id = ? AND brand_id = ?",
		keyID, ownerID, brandID)
	if err != nil {
		return fmt.Errorf("delete api key: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete api key rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordKeyUsage increments the usage counter and stamps last_used_at in a
// single atomic UPDATE, so concurrent calls never lose an increment.
func (s *Store) RecordKeyUsage(ctx context.Context, keyID string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE api_keys SET usage_count = usage_count + 1, last_used_at = ? WHERE id = ?",
		time.Now().UTC(), keyID)
	if err != nil {
		return fmt.Errorf("record key usage: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("record key usage rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountAPIKeys returns the total number of keys, for telemetry.
func (s *Store) CountAPIKeys(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM api_keys"); err != nil {
		return 0, fmt.Errorf("count api keys: %w", err)
	}
	return count, nil
}
