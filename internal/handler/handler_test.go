package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/brandkit/brandkit/internal/cache"
	"github.com/brandkit/brandkit/internal/model"
	"github.com/brandkit/brandkit/internal/server/middleware"
	"github.com/brandkit/brandkit/internal/service"
	"github.com/brandkit/brandkit/internal/store"
)

const (
	testJWTSecret = "test-secret-for-handler-tests"
	testPassword  = "supersecretpassword"
)

// testEnv holds shared state for handler integration tests.
type testEnv struct {
	store  *store.Store
	auth   *service.Authenticator
	keys   *service.KeyService
	router chi.Router

	owner *model.Owner
	token string
}

// newTestEnv creates a fresh environment with an in-memory store, a seeded
// owner with a live session token, and the real middleware chain mounted.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.New("") // in-memory SQLite
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ch, err := cache.New(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}

	auth := service.NewAuthenticator(st, testJWTSecret, logger)
	keys := service.NewKeyService(st, logger)
	sysHandler := NewSystemHandler(st, auth, keys, ch, logger)
	brandHandler := NewBrandHandler(st, ch, logger)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/session", sysHandler.Login)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(auth))
			r.Delete("/session", sysHandler.Logout)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireSession())
				r.Get("/brands", brandHandler.List)
				r.Post("/brands", brandHandler.Create)
				r.Get("/brands/{brandID}", brandHandler.Get)
				r.Put("/brands/{brandID}", brandHandler.Update)
				r.Get("/brands/{brandID}/context", brandHandler.Context)
				r.Post("/brands/{brandID}/logos", brandHandler.AddLogo)
				r.Post("/brands/{brandID}/taglines", brandHandler.AddTagline)
				r.Post("/brands/{brandID}/palettes", brandHandler.AddPalette)
				r.Get("/brands/{brandID}/keys", sysHandler.ListAPIKeys)
				r.Post("/brands/{brandID}/keys", sysHandler.CreateAPIKey)
				r.Delete("/brands/{brandID}/keys/{keyID}", sysHandler.RevokeAPIKey)
				r.Post("/cache/clear", sysHandler.ClearCache)
			})
		})
	})

	env := &testEnv{store: st, auth: auth, keys: keys, router: r}
	env.owner = env.seedOwner(t, "owner@example.com", true)
	env.token, err = auth.IssueSessionToken(env.owner.ID, time.Hour)
	if err != nil {
		t.Fatalf("IssueSessionToken: %v", err)
	}
	return env
}

// seedOwner creates an owner account with the test password.
func (e *testEnv) seedOwner(t *testing.T, email string, active bool) *model.Owner {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	owner := &model.Owner{
		Email:        email,
		PasswordHash: string(hash),
		Name:         "Test Owner",
		IsActive:     active,
	}
	if err := e.store.CreateOwner(context.Background(), owner); err != nil {
		t.Fatalf("seedOwner: %v", err)
	}
	return owner
}

// seedBrand creates a brand for the given owner.
func (e *testEnv) seedBrand(t *testing.T, ownerID, name string) *model.Brand {
	t.Helper()
	brand := &model.Brand{
		OwnerID:         ownerID,
		Name:            name,
		Pitch:           "Coffee for night owls",
		DesirableCues:   "bold,friendly",
		UndesirableCues: "corporate",
	}
	if err := e.store.CreateBrand(context.Background(), brand); err != nil {
		t.Fatalf("seedBrand: %v", err)
	}
	return brand
}

// do executes a request as the seeded owner's session.
func (e *testEnv) do(t *testing.T, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	return e.doWithToken(t, method, path, body, e.token)
}

// doAnon executes a request with no credential.
func (e *testEnv) doAnon(t *testing.T, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	return e.doWithToken(t, method, path, body, "")
}

func (e *testEnv) doWithToken(t *testing.T, method, path string, body io.Reader, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func toJSON(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		t.Fatalf("toJSON: %v", err)
	}
	return buf
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Errorf("status = %d, want %d; body = %s", rr.Code, want, rr.Body.String())
	}
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decodeJSON: %v; body = %s", err, rr.Body.String())
	}
}

// assertErrorCode checks the error envelope carries the expected code and a
// docs link.
func assertErrorCode(t *testing.T, rr *httptest.ResponseRecorder, want model.ErrorCode) {
	t.Helper()
	var resp model.ErrorResponse
	decodeJSON(t, rr, &resp)
	if resp.Error.Code != want {
		t.Errorf("error code = %q, want %q", resp.Error.Code, want)
	}
	if resp.Error.DocsURL == "" {
		t.Error("expected docs_url in error envelope")
	}
}
