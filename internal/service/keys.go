package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/brandkit/brandkit/internal/keycodec"
	"github.com/brandkit/brandkit/internal/model"
	"github.com/brandkit/brandkit/internal/store"
)

// CreatedKey pairs a stored key record with its plaintext. The plaintext
// exists only in this value; it is shown once and cannot be recovered.
type CreatedKey struct {
	Key       model.APIKey `json:"key"`
	Plaintext string       `json:"api_key"`
}

// KeyService manages the lifecycle of brand-scoped API keys.
type KeyService struct {
	store  *store.Store
	logger *slog.Logger
}

func NewKeyService(st *store.Store, logger *slog.Logger) *KeyService {
	return &KeyService{store: st, logger: logger}
}

// CreateKeyParams are the inputs for minting a new key. ExpiresInDays of
// zero means the key never expires.
type CreateKeyParams struct {
	OwnerID       string
	BrandID       string
	Name          string
	Tier          model.PermissionTier
	ExpiresInDays int
}

// Create mints a brand-scoped key. The brand must exist and belong to the
// owner; the tier must be one of the fixed bundles.
func (s *KeyService) Create(ctx context.Context, p CreateKeyParams) (*CreatedKey, error) {
	if p.Name == "" {
		return nil, model.ValidationError("key name is required")
	}
	perms, ok := model.TierPermissions(p.Tier)
	if !ok {
		return nil, model.ValidationError("unknown permission tier %q, valid tiers: %v", p.Tier, model.Tiers())
	}
	if p.ExpiresInDays < 0 {
		return nil, model.ValidationError("expires_in_days must not be negative")
	}

	brand, err := s.store.GetBrand(ctx, p.BrandID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, model.ErrBrandNotFound
		}
		return nil, model.ErrUpstreamUnavailable
	}
	if brand.OwnerID != p.OwnerID {
		return nil, model.ErrBrandNotFound
	}

	plaintext, err := keycodec.Generate(p.BrandID)
	if err != nil {
		s.logger.Error("key generation failed", "error", err)
		return nil, model.ErrInternal
	}

	key := model.APIKey{
		ID:          uuid.New().String(),
		OwnerID:     p.OwnerID,
		BrandID:     p.BrandID,
		Name:        p.Name,
		KeyHash:     keycodec.Hash(plaintext),
		KeyPrefix:   keycodec.DisplayPrefix(plaintext),
		Permissions: perms,
	}
	if p.ExpiresInDays > 0 {
		expires := time.Now().UTC().AddDate(0, 0, p.ExpiresInDays)
		key.ExpiresAt = &expires
	}

	if err := s.store.CreateAPIKey(ctx, &key); err != nil {
		s.logger.Error("key insert failed", "error", err)
		return nil, model.ErrUpstreamUnavailable
	}

	s.logger.Info("api key created",
		"key_id", key.ID, "brand_id", key.BrandID, "tier", p.Tier)
	return &CreatedKey{Key: key, Plaintext: plaintext}, nil
}

// List returns an owner's keys for a brand, newest first.
func (s *KeyService) List(ctx context.Context, ownerID, brandID string, includeRevoked bool) ([]model.APIKey, error) {
	keys, err := s.store.ListAPIKeys(ctx, ownerID, brandID, includeRevoked)
	if err != nil {
		return nil, model.ErrUpstreamUnavailable
	}
	return keys, nil
}

// Revoke permanently disables a key. Revoking an already revoked key
// succeeds without changing its revocation time.
func (s *KeyService) Revoke(ctx context.Context, ownerID, brandID, keyID string) error {
	if err := s.store.RevokeAPIKey(ctx, ownerID, brandID, keyID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.ErrCredentialNotFound.WithMessage("no such key")
		}
		return model.ErrUpstreamUnavailable
	}
	s.logger.Info("api key revoked", "key_id", keyID, "brand_id", brandID)
	return nil
}
