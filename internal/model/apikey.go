package model

import "time"

// APIKey represents a brand-scoped API key used to authenticate MCP tool
// calls. The raw key is never stored; only a SHA-256 hash and a short prefix
// for identification are persisted.
type APIKey struct {
	ID          string      `json:"id" db:"id"`
	OwnerID     string      `json:"owner_id" db:"owner_id"`
	BrandID     string      `json:"brand_id" db:"brand_id"`
	Name        string      `json:"name" db:"name"`
	KeyHash     string      `json:"-" db:"key_hash"`            // SHA-256 hash, never expose
	KeyPrefix   string      `json:"key_prefix" db:"key_prefix"` // Truncated display form
	Permissions Permissions `json:"permissions"`
	UsageCount  int64       `json:"usage_count" db:"usage_count"`
	ExpiresAt   *time.Time  `json:"expires_at,omitempty" db:"expires_at"`
	LastUsedAt  *time.Time  `json:"last_used_at,omitempty" db:"last_used_at"`
	RevokedAt   *time.Time  `json:"revoked_at,omitempty" db:"revoked_at"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

// Revoked reports whether the key has been revoked. Revocation is permanent;
// revoked_at is never cleared once set.
func (k *APIKey) Revoked() bool {
	return k.RevokedAt != nil
}

// Expired reports whether the key is expired as of now. Keys without an
// expiry never expire. Expiry is inclusive: a key is expired at exactly its
// expires_at instant.
func (k *APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && !now.Before(*k.ExpiresAt)
}

// Permissions is the capability set granted to an API key.
type Permissions struct {
	Read     bool `json:"read" db:"perm_read"`
	Validate bool `json:"validate" db:"perm_validate"`
	Generate bool `json:"generate" db:"perm_generate"`
	Modify   bool `json:"modify" db:"perm_modify"`
}

// PermissionTier is a named capability bundle assigned at key creation.
type PermissionTier string

const (
	TierOwner     PermissionTier = "owner"
	TierTeam      PermissionTier = "team"
	TierDeveloper PermissionTier = "developer"
)

// tierPermissions is the static tier-to-capability table. It is fixed at
// compile time and not configurable at runtime.
var tierPermissions = map[PermissionTier]Permissions{
	TierOwner:     {Read: true, Validate: true, Generate: true, Modify: true},
	TierTeam:      {Read: true, Validate: true},
	TierDeveloper: {Read: true, Generate: true},
}

// TierPermissions returns the capability bundle for a permission tier.
// The second return value is false for unknown tiers.
func TierPermissions(tier PermissionTier) (Permissions, bool) {
	p, ok := tierPermissions[tier]
	return p, ok
}

// Tiers returns the valid permission tier names for error messages and docs.
func Tiers() []PermissionTier {
	return []PermissionTier{TierOwner, TierTeam, TierDeveloper}
}
