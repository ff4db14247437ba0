// Package service holds the domain logic between the store and the
// transport layers: credential authentication, API key management, and
// voice validation.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/brandkit/brandkit/internal/keycodec"
	"github.com/brandkit/brandkit/internal/model"
	"github.com/brandkit/brandkit/internal/store"
)

// Identity is the authenticated principal attached to a request after
// credential validation. Permissions is nil for legacy session identities,
// which carry full access.
type Identity struct {
	OwnerID     string
	BrandID     string // empty for session identities
	KeyID       string // empty for session identities
	Permissions *model.Permissions
}

// Can reports whether the identity is allowed the named capability.
// Session identities (nil Permissions) can do everything.
func (id *Identity) Can(perm string) bool {
	if id.Permissions == nil {
		return true
	}
	switch perm {
	case "read":
		return id.Permissions.Read
	case "validate":
		return id.Permissions.Validate
	case "generate":
		return id.Permissions.Generate
	case "modify":
		return id.Permissions.Modify
	}
	return false
}

// usageRecordTimeout bounds the background usage write so a slow store
// cannot pile up goroutines.
const usageRecordTimeout = 3 * time.Second

// Authenticator validates bearer credentials. Brand-scoped keys are checked
// against the store; any other token is attempted as a legacy session JWT.
type Authenticator struct {
	store     *store.Store
	jwtSecret []byte
	logger    *slog.Logger
	now       func() time.Time
}

func NewAuthenticator(st *store.Store, jwtSecret string, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		store:     st,
		jwtSecret: []byte(jwtSecret),
		logger:    logger,
		now:       time.Now,
	}
}

// Authenticate validates a bearer string and returns the identity it grants.
// Every failure maps to a credential taxonomy error; a token that looks like
// a brand-scoped key but is malformed is rejected outright and never retried
// as a session token.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*Identity, error) {
	cred := keycodec.Parse(token)

	switch cred.Kind {
	case keycodec.KindEmpty:
		return nil, model.ErrCredentialMissing
	case keycodec.KindMalformed:
		return nil, model.ErrCredentialMalformed
	case keycodec.KindBrandKey:
		return a.authenticateKey(ctx, cred)
	default:
		return a.authenticateSession(cred.Token)
	}
}

func (a *Authenticator) authenticateKey(ctx context.Context, cred keycodec.Credential) (*Identity, error) {
	key, err := a.store.GetAPIKeyByHash(ctx, keycodec.Hash(cred.Token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, model.ErrCredentialNotFound
		}
		a.logger.Error("key lookup failed", "error", err)
		return nil, model.ErrUpstreamUnavailable
	}

	// Revocation wins over expiry when both apply.
	if key.Revoked() {
		return nil, model.ErrCredentialRevoked
	}
	if key.Expired(a.now()) {
		return nil, model.ErrCredentialExpired
	}

	// Usage accounting is best effort and never blocks the request. The
	// goroutine gets its own context so cancellation of the request does
	// not drop the write.
	go a.recordUsage(key.ID)

	perms := key.Permissions
	return &Identity{
		OwnerID:     key.OwnerID,
		BrandID:     key.BrandID,
		KeyID:       key.ID,
		Permissions: &perms,
	}, nil
}

func (a *Authenticator) recordUsage(keyID string) {
	ctx, cancel := context.WithTimeout(context.Background(), usageRecordTimeout)
	defer cancel()
	if err := a.store.RecordKeyUsage(ctx, keyID); err != nil {
		a.logger.Warn("usage record failed", "key_id", keyID, "error", err)
	}
}

func (a *Authenticator) authenticateSession(token string) (*Identity, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.jwtSecret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, model.ErrCredentialExpired
		}
		return nil, model.ErrCredentialNotFound
	}
	if !parsed.Valid {
		return nil, model.ErrCredentialNotFound
	}

	return &Identity{OwnerID: claims.OwnerID}, nil
}

// IssueSessionToken creates a signed session JWT for an owner. Sessions grant
// full access across the owner's brands; brand-scoped keys are the narrow
// path intended for tooling.
func (a *Authenticator) IssueSessionToken(ownerID string, ttl time.Duration) (string, error) {
	now := a.now()
	claims := sessionClaims{
		OwnerID: ownerID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "brandkit",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

type sessionClaims struct {
	OwnerID string `json:"owner_id"`
	jwt.RegisteredClaims
}
