package model

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTierPermissions(t *testing.T) {
	tests := []struct {
		tier PermissionTier
		want Permissions
	}{
		{TierOwner, Permissions{Read: true, Validate: true, Generate: true, Modify: true}},
		{TierTeam, Permissions{Read: true, Validate: true}},
		{TierDeveloper, Permissions{Read: true, Generate: true}},
	}

	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			got, ok := TierPermissions(tt.tier)
			if !ok {
				t.Fatalf("TierPermissions(%q) not found", tt.tier)
			}
			if got != tt.want {
				t.Errorf("TierPermissions(%q) = %+v, want %+v", tt.tier, got, tt.want)
			}
		})
	}

	if _, ok := TierPermissions("root"); ok {
		t.Error("unknown tier must not resolve")
	}
}

func TestAPIErrorIsMatchesByCode(t *testing.T) {
	detailed := ErrBrandNotFound.WithMessage("brand %q not found", "acme")
	if !errors.Is(detailed, ErrBrandNotFound) {
		t.Error("WithMessage clone must still match its sentinel")
	}
	if errors.Is(detailed, ErrCredentialExpired) {
		t.Error("different codes must not match")
	}

	// Sentinels stay clean after WithDetails.
	withDetails := ErrInsufficientPermissions.WithDetails(map[string]any{"required_permission": "modify"})
	if ErrInsufficientPermissions.Details != nil {
		t.Error("WithDetails mutated the sentinel")
	}
	if withDetails.Details["required_permission"] != "modify" {
		t.Error("details not carried on clone")
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		err  *APIError
		want int
	}{
		{ErrCredentialMissing, 401},
		{ErrCredentialMalformed, 401},
		{ErrCredentialNotFound, 401},
		{ErrCredentialRevoked, 401},
		{ErrCredentialExpired, 401},
		{ErrInsufficientPermissions, 403},
		{ValidationError("bad input"), 400},
		{ErrBrandNotSpecified, 400},
		{ErrBrandNotFound, 404},
		{RateLimited(30), 429},
		{ErrUpstreamUnavailable, 503},
		{ErrInternal, 500},
	}

	for _, tt := range tests {
		if got := tt.err.HTTPStatus(); got != tt.want {
			t.Errorf("%s: HTTPStatus() = %d, want %d", tt.err.Code, got, tt.want)
		}
	}
}

func TestErrorResponseEnvelope(t *testing.T) {
	resp := NewErrorResponse(RateLimited(30))
	if resp.Error.Code != CodeUpstreamRateLimited {
		t.Errorf("code = %q", resp.Error.Code)
	}
	if !resp.Error.Retryable || resp.Error.RetryAfter != 30 {
		t.Errorf("retry metadata = %+v", resp.Error)
	}
	if !strings.HasSuffix(resp.Error.DocsURL, "#upstream_rate_limited") {
		t.Errorf("docs_url = %q, want code anchor", resp.Error.DocsURL)
	}
}

func TestPagination(t *testing.T) {
	tests := []struct {
		limit, offset int
		total         int64
		hasMore       bool
	}{
		{10, 0, 25, true},
		{10, 10, 25, true},
		{10, 20, 25, false},
		{50, 0, 0, false},
		{10, 0, 10, false},
	}

	for _, tt := range tests {
		p := NewPagination(tt.limit, tt.offset, tt.total)
		if p.HasMore != tt.hasMore {
			t.Errorf("NewPagination(%d, %d, %d).HasMore = %v, want %v",
				tt.limit, tt.offset, tt.total, p.HasMore, tt.hasMore)
		}
	}
}

func TestKeyExpiryInclusive(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	key := APIKey{ExpiresAt: &at}

	if key.Expired(at.Add(-time.Second)) {
		t.Error("key must be valid before the expiry instant")
	}
	if !key.Expired(at) {
		t.Error("key must be expired at exactly the expiry instant")
	}
	if !key.Expired(at.Add(time.Second)) {
		t.Error("key must be expired after the expiry instant")
	}

	forever := APIKey{}
	if forever.Expired(at.AddDate(100, 0, 0)) {
		t.Error("key without expiry must never expire")
	}
}

func TestRevokedPermanent(t *testing.T) {
	now := time.Now()
	key := APIKey{RevokedAt: &now}
	if !key.Revoked() {
		t.Error("key with revoked_at must read as revoked")
	}
	if (&APIKey{}).Revoked() {
		t.Error("fresh key must not read as revoked")
	}
}
