package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/brandkit/brandkit/internal/cache"
	"github.com/brandkit/brandkit/internal/model"
	"github.com/brandkit/brandkit/internal/server/middleware"
	"github.com/brandkit/brandkit/internal/service"
	"github.com/brandkit/brandkit/internal/store"
)

// sessionTTL is the lifetime of an owner session token.
const sessionTTL = 24 * time.Hour

// SystemHandler manages owner sessions, API keys, and operational endpoints.
type SystemHandler struct {
	store  *store.Store
	auth   *service.Authenticator
	keys   *service.KeyService
	cache  *cache.Cache
	logger *slog.Logger
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(st *store.Store, auth *service.Authenticator, keys *service.KeyService, ch *cache.Cache, logger *slog.Logger) *SystemHandler {
	return &SystemHandler{
		store:  st,
		auth:   auth,
		keys:   keys,
		cache:  ch,
		logger: logger,
	}
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"session_token"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"`
	OwnerID   string `json:"owner_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
}

// Login authenticates an owner and returns a session token.
// POST /api/v1/session
func (h *SystemHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, model.ValidationError("invalid request body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, model.ValidationError("email and password are required"))
		return
	}

	owner, err := h.store.GetOwnerByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, model.ErrCredentialNotFound)
			return
		}
		h.logger.Error("owner lookup failed", "error", err)
		writeError(w, model.ErrUpstreamUnavailable)
		return
	}
	if !owner.IsActive {
		writeError(w, model.ErrCredentialRevoked.WithMessage("account is disabled"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(owner.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, model.ErrCredentialNotFound)
		return
	}

	token, err := h.auth.IssueSessionToken(owner.ID, sessionTTL)
	if err != nil {
		h.logger.Error("token issue failed", "error", err)
		writeError(w, model.ErrInternal)
		return
	}

	_ = h.store.UpdateOwnerLastLogin(r.Context(), owner.ID)

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		TokenType: "bearer",
		ExpiresIn: int(sessionTTL.Seconds()),
		OwnerID:   owner.ID,
		Email:     owner.Email,
		Name:      owner.Name,
	})
}

// Logout invalidates the current session. Session tokens are stateless, so
// this is a no-op server-side; clients discard their token.
// DELETE /api/v1/session
func (h *SystemHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "session invalidated",
	})
}

// ---------------------------------------------------------------------------
// API key management
// ---------------------------------------------------------------------------

type createKeyRequest struct {
	Name          string `json:"name"`
	Tier          string `json:"tier"`
	ExpiresInDays int    `json:"expires_in_days"`
}

// CreateAPIKey mints a brand-scoped key. The response carries the plaintext
// exactly once; listings only ever show the display prefix.
// POST /api/v1/brands/{brandID}/keys
func (h *SystemHandler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	var req createKeyRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, model.ValidationError("invalid request body"))
		return
	}

	created, err := h.keys.Create(r.Context(), service.CreateKeyParams{
		OwnerID:       identity.OwnerID,
		BrandID:       chi.URLParam(r, "brandID"),
		Name:          req.Name,
		Tier:          model.PermissionTier(req.Tier),
		ExpiresInDays: req.ExpiresInDays,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListAPIKeys returns a brand's keys, newest first. Revoked keys are
// excluded unless ?include_revoked=true.
// GET /api/v1/brands/{brandID}/keys
func (h *SystemHandler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	keys, err := h.keys.List(r.Context(), identity.OwnerID, chi.URLParam(r, "brandID"),
		queryBool(r, "include_revoked"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"keys":  keys,
		"count": len(keys),
	})
}

// RevokeAPIKey permanently disables a key. Idempotent.
// DELETE /api/v1/brands/{brandID}/keys/{keyID}
func (h *SystemHandler) RevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	err := h.keys.Revoke(r.Context(), identity.OwnerID,
		chi.URLParam(r, "brandID"), chi.URLParam(r, "keyID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// ---------------------------------------------------------------------------
// Operational
// ---------------------------------------------------------------------------

// ClearCache drops every cached MCP payload, forcing fresh assembly on the
// next tool call. Used after bulk data imports.
// POST /api/v1/cache/clear
func (h *SystemHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.ClearAll(); err != nil {
		h.logger.Error("cache clear failed", "error", err)
		writeError(w, model.ErrInternal)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
