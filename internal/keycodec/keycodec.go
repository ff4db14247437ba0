// Package keycodec generates, hashes, and parses brand-scoped API keys.
//
// A brand-scoped key has the fixed format
//
//	bk_brand_<brandID>_<32 hex chars>
//
// where the trailing secret is 16 bytes from the process CSPRNG. Any bearer
// string without the bk_brand_ prefix is treated as a legacy session token;
// a string that carries the prefix but does not parse is malformed and is
// rejected outright rather than falling through to the legacy path.
package keycodec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Prefix marks a bearer string as a brand-scoped key.
const Prefix = "bk_brand_"

// secretHexLen is the length of the hex-encoded random secret (16 bytes).
const secretHexLen = 32

// displayPrefixLen is how much of a key is safe to show in listings.
const displayPrefixLen = 20

// Generate produces a new brand-scoped key for the given brand. Each call
// draws fresh randomness; the plaintext is returned exactly once and must
// never be persisted.
func Generate(brandID string) (string, error) {
	if brandID == "" {
		return "", fmt.Errorf("generate key: empty brand id")
	}
	if strings.Contains(brandID, "_") {
		return "", fmt.Errorf("generate key: brand id %q contains underscore", brandID)
	}
	secret := make([]byte, secretHexLen/2)
	if _, err := rand.Read(secret); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return Prefix + brandID + "_" + hex.EncodeToString(secret), nil
}

// Hash returns the hex-encoded SHA-256 digest of a raw key. The digest is
// what gets stored and looked up; it is never shown to users.
func Hash(rawKey string) string {
	h := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(h[:])
}

// ExtractBrandID parses the brand identifier out of a brand-scoped key.
// Returns ok=false for anything that does not match the fixed format;
// it never panics.
func ExtractBrandID(rawKey string) (string, bool) {
	if !strings.HasPrefix(rawKey, Prefix) {
		return "", false
	}
	rest := rawKey[len(Prefix):]
	i := strings.LastIndexByte(rest, '_')
	if i <= 0 {
		return "", false
	}
	brandID, secret := rest[:i], rest[i+1:]
	if !isHex(secret) || len(secret) != secretHexLen {
		return "", false
	}
	if strings.Contains(brandID, "_") {
		return "", false
	}
	return brandID, true
}

// DisplayPrefix returns a truncated, human-safe form of a key for listings.
// It exposes at most the scheme, brand id fragment, and a few secret chars;
// never enough to reconstruct the key.
func DisplayPrefix(rawKey string) string {
	if len(rawKey) <= displayPrefixLen {
		return rawKey
	}
	return rawKey[:displayPrefixLen] + "..."
}

// Kind tags a parsed credential.
type Kind int

const (
	// KindEmpty is a missing or blank bearer string.
	KindEmpty Kind = iota
	// KindBrandKey is a well-formed brand-scoped key.
	KindBrandKey
	// KindMalformed carries the bk_brand_ prefix but does not parse.
	KindMalformed
	// KindLegacy is any other bearer string, attempted as a session token.
	KindLegacy
)

// Credential is the tagged result of parsing a bearer string. All format
// decisions happen here, once; callers dispatch on Kind instead of
// re-deriving format checks.
type Credential struct {
	Kind    Kind
	BrandID string // set only for KindBrandKey
	Token   string // the raw bearer string
}

// Parse classifies a bearer string. It is the single source of truth for
// the brand-key-vs-legacy-token distinction.
func Parse(token string) Credential {
	token = strings.TrimSpace(token)
	if token == "" {
		return Credential{Kind: KindEmpty}
	}
	if strings.HasPrefix(token, Prefix) {
		brandID, ok := ExtractBrandID(token)
		if !ok {
			return Credential{Kind: KindMalformed, Token: token}
		}
		return Credential{Kind: KindBrandKey, BrandID: brandID, Token: token}
	}
	return Credential{Kind: KindLegacy, Token: token}
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return len(s) > 0
}
