package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/brandkit/brandkit/internal/cache"
	"github.com/brandkit/brandkit/internal/model"
	"github.com/brandkit/brandkit/internal/service"
	"github.com/brandkit/brandkit/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	store   *store.Store
	keys    *service.KeyService
	auth    *service.Authenticator
	server  *MCPServer
	ownerID string
	brandID string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.New("")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ch, err := cache.New(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}

	ctx := context.Background()
	owner := model.Owner{ID: uuid.New().String(), Email: uuid.New().String() + "@example.com", Name: "Owner", IsActive: true}
	if err := st.CreateOwner(ctx, &owner); err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	brand := model.Brand{
		ID:              uuid.New().String(),
		OwnerID:         owner.ID,
		Name:            "Acme",
		Pitch:           "Tool sprawl hurts small teams",
		Concept:         "One workspace",
		DesirableCues:   "bold,friendly",
		UndesirableCues: "corporate",
		FontPrimary:     "Inter",
	}
	if err := st.CreateBrand(ctx, &brand); err != nil {
		t.Fatalf("seed brand: %v", err)
	}

	auth := service.NewAuthenticator(st, "test-secret", testLogger())
	srv := NewMCPServer(st, auth, ch, testLogger(), "", "")
	return &testEnv{
		store:   st,
		keys:    service.NewKeyService(st, testLogger()),
		auth:    auth,
		server:  srv,
		ownerID: owner.ID,
		brandID: brand.ID,
	}
}

func (e *testEnv) identity() *service.Identity {
	perms := model.Permissions{Read: true, Validate: true, Generate: true, Modify: true}
	return &service.Identity{OwnerID: e.ownerID, BrandID: e.brandID, Permissions: &perms}
}

func authedCtx(id *service.Identity) context.Context {
	return context.WithValue(context.Background(), identityKey, id)
}

func toolRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

// resultText returns the text payload of a successful tool result.
func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res.IsError {
		t.Fatalf("unexpected tool error: %+v", res.Content)
	}
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := mcp.AsTextContent(res.Content[0])
	if !ok {
		t.Fatalf("unexpected content type %T", res.Content[0])
	}
	return text.Text
}

// errorCode extracts the taxonomy code from an error envelope result.
func errorCode(t *testing.T, res *mcp.CallToolResult) model.ErrorCode {
	t.Helper()
	if !res.IsError {
		t.Fatalf("expected tool error, got success: %+v", res.Content)
	}
	text, ok := mcp.AsTextContent(res.Content[0])
	if !ok {
		t.Fatalf("unexpected content type %T", res.Content[0])
	}
	var envelope struct {
		Error model.APIError `json:"error"`
	}
	if err := json.Unmarshal([]byte(text.Text), &envelope); err != nil {
		t.Fatalf("error payload is not the standard envelope: %v\n%s", err, text.Text)
	}
	return envelope.Error.Code
}

func TestGetBrandContextAssemblesSections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.store.AddLogo(ctx, &model.Logo{BrandID: env.brandID, URL: "https://cdn.example/a.svg", Format: "svg"}); err != nil {
		t.Fatalf("seed logo: %v", err)
	}
	if err := env.store.AddTagline(ctx, &model.Tagline{BrandID: env.brandID, Text: "Work, together", IsPrimary: true}); err != nil {
		t.Fatalf("seed tagline: %v", err)
	}
	if err := env.store.AddColorization(ctx, &model.Colorization{BrandID: env.brandID, Palette: []string{"#112233"}}); err != nil {
		t.Fatalf("seed palette: %v", err)
	}

	res, err := env.server.handleGetBrandContext(authedCtx(env.identity()),
		toolRequest("get_brand_context", nil))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	var out struct {
		Brand struct {
			ID string `json:"id"`
		} `json:"brand"`
		Identity *json.RawMessage `json:"identity"`
		Voice    *json.RawMessage `json:"voice"`
		Visual   *json.RawMessage `json:"visual"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Brand.ID != env.brandID {
		t.Errorf("brand id = %q", out.Brand.ID)
	}
	if out.Identity == nil || out.Voice == nil || out.Visual == nil {
		t.Errorf("missing sections in %+v", out)
	}
}

func TestGetBrandContextSectionFilterAndValidation(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.server.handleGetBrandContext(authedCtx(env.identity()),
		toolRequest("get_brand_context", map[string]any{"sections": []any{"voice"}}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := out["identity"]; ok {
		t.Error("identity present despite voice-only filter")
	}
	if _, ok := out["voice"]; !ok {
		t.Error("voice section missing")
	}

	res, err = env.server.handleGetBrandContext(authedCtx(env.identity()),
		toolRequest("get_brand_context", map[string]any{"sections": []any{"branding"}}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if code := errorCode(t, res); code != model.CodeValidationFailed {
		t.Errorf("code = %s, want validation_failed", code)
	}
}

func TestBrandResolutionOrder(t *testing.T) {
	env := newTestEnv(t)

	// Session identity, no brand argument, no default: brand_not_specified.
	perms := (*model.Permissions)(nil)
	session := &service.Identity{OwnerID: env.ownerID, Permissions: perms}
	res, err := env.server.handleGetBrandContext(authedCtx(session),
		toolRequest("get_brand_context", nil))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if code := errorCode(t, res); code != model.CodeBrandNotSpecified {
		t.Errorf("code = %s, want brand_not_specified", code)
	}

	// Explicit argument wins for session identities.
	res, err = env.server.handleGetBrandContext(authedCtx(session),
		toolRequest("get_brand_context", map[string]any{"brand_id": env.brandID}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	resultText(t, res)

	// A key scoped to one brand cannot address another.
	res, err = env.server.handleGetBrandContext(authedCtx(env.identity()),
		toolRequest("get_brand_context", map[string]any{"brand_id": uuid.New().String()}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if code := errorCode(t, res); code != model.CodeBrandNotFound {
		t.Errorf("code = %s, want brand_not_found", code)
	}

	// A session asking for a brand it does not own learns nothing.
	stranger := &service.Identity{OwnerID: uuid.New().String()}
	res, err = env.server.handleGetBrandContext(authedCtx(stranger),
		toolRequest("get_brand_context", map[string]any{"brand_id": env.brandID}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if code := errorCode(t, res); code != model.CodeBrandNotFound {
		t.Errorf("code = %s, want brand_not_found", code)
	}
}

func TestValidateBrandVoiceInputBounds(t *testing.T) {
	env := newTestEnv(t)
	id := env.identity()

	long := make([]byte, maxVoiceTextLen+1)
	for i := range long {
		long[i] = 'a'
	}

	cases := []struct {
		name string
		args map[string]any
	}{
		{"missing text", nil},
		{"empty text", map[string]any{"text": ""}},
		{"oversized text", map[string]any{"text": string(long)}},
		{"strictness too high", map[string]any{"text": "hi", "strictness": 1.5}},
		{"strictness negative", map[string]any{"text": "hi", "strictness": -0.1}},
	}
	for _, tc := range cases {
		res, err := env.server.handleValidateBrandVoice(authedCtx(id),
			toolRequest("validate_brand_voice", tc.args))
		if err != nil {
			t.Fatalf("%s: handler: %v", tc.name, err)
		}
		if code := errorCode(t, res); code != model.CodeValidationFailed {
			t.Errorf("%s: code = %s, want validation_failed", tc.name, code)
		}
	}
}

func TestValidateBrandVoiceReport(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.server.handleValidateBrandVoice(authedCtx(env.identity()),
		toolRequest("validate_brand_voice", map[string]any{
			"text": "A bold, friendly note without corporate fluff... wait, corporate.",
		}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	var out struct {
		BrandID string              `json:"brand_id"`
		Report  service.VoiceReport `json:"report"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.BrandID != env.brandID {
		t.Errorf("brand id = %q", out.BrandID)
	}
	if len(out.Report.Violations) == 0 {
		t.Error("expected a violation for the avoided term")
	}
	if out.Report.Strictness != 0.7 {
		t.Errorf("default strictness = %v, want 0.7", out.Report.Strictness)
	}
}

func TestValidateBrandVoiceLengthCountsRunes(t *testing.T) {
	env := newTestEnv(t)
	id := env.identity()

	// 4000 two-byte runes: over the limit in bytes, well under it in
	// characters.
	text := strings.Repeat("é", 4000)
	res, err := env.server.handleValidateBrandVoice(authedCtx(id),
		toolRequest("validate_brand_voice", map[string]any{"text": text}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	resultText(t, res)

	res, err = env.server.handleValidateBrandVoice(authedCtx(id),
		toolRequest("validate_brand_voice", map[string]any{"text": strings.Repeat("é", maxVoiceTextLen+1)}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if code := errorCode(t, res); code != model.CodeValidationFailed {
		t.Errorf("code = %s, want validation_failed", code)
	}
}

func TestValidateBrandVoiceEchoesContext(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.server.handleValidateBrandVoice(authedCtx(env.identity()),
		toolRequest("validate_brand_voice", map[string]any{
			"text":    "A bold and friendly note.",
			"context": "homepage hero",
		}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	var out struct {
		Report service.VoiceReport `json:"report"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Report.Context != "homepage hero" {
		t.Errorf("report context = %q, want %q", out.Report.Context, "homepage hero")
	}
}

func TestGetBrandAssetsRequiresTypes(t *testing.T) {
	env := newTestEnv(t)
	id := env.identity()

	for _, args := range []map[string]any{
		nil,
		{"asset_types": []any{}},
		{"asset_types": []any{"mockups3d"}},
	} {
		res, err := env.server.handleGetBrandAssets(authedCtx(id),
			toolRequest("get_brand_assets", args))
		if err != nil {
			t.Fatalf("handler: %v", err)
		}
		if code := errorCode(t, res); code != model.CodeValidationFailed {
			t.Errorf("args %v: code = %s, want validation_failed", args, code)
		}
	}

	res, err := env.server.handleGetBrandAssets(authedCtx(id),
		toolRequest("get_brand_assets", map[string]any{"asset_types": []any{"fonts", "colors"}}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := out["fonts"]; !ok {
		t.Error("fonts missing from asset response")
	}
	if _, ok := out["colors"]; !ok {
		t.Error("colors missing from asset response")
	}
	if _, ok := out["logo"]; ok {
		t.Error("logo present despite not being requested")
	}
}

func TestGetBrandAssetsLogoAndMockups(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.identity()

	if err := env.store.AddLogo(ctx, &model.Logo{BrandID: env.brandID, URL: "https://cdn.example/a.svg", Format: "svg"}); err != nil {
		t.Fatalf("seed logo: %v", err)
	}
	if err := env.store.AddLogo(ctx, &model.Logo{BrandID: env.brandID, URL: "https://cdn.example/a.png", Format: "png"}); err != nil {
		t.Fatalf("seed logo: %v", err)
	}

	res, err := env.server.handleGetBrandAssets(authedCtx(id),
		toolRequest("get_brand_assets", map[string]any{"asset_types": []any{"logo", "mockups"}}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	var out struct {
		Logo    []json.RawMessage `json:"logo"`
		Mockups []json.RawMessage `json:"mockups"`
		Colors  *json.RawMessage  `json:"colors"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out.Logo) != 2 {
		t.Errorf("logo variants = %d, want 2", len(out.Logo))
	}
	if out.Mockups == nil || len(out.Mockups) != 0 {
		t.Errorf("mockups = %v, want present and empty", out.Mockups)
	}
	if out.Colors != nil {
		t.Error("colors present despite not being requested")
	}
}

func TestGetBrandAssetsFormatFilter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.identity()

	if err := env.store.AddLogo(ctx, &model.Logo{BrandID: env.brandID, URL: "https://cdn.example/a.svg", Format: "svg"}); err != nil {
		t.Fatalf("seed logo: %v", err)
	}
	if err := env.store.AddLogo(ctx, &model.Logo{BrandID: env.brandID, URL: "https://cdn.example/a.png", Format: "png"}); err != nil {
		t.Fatalf("seed logo: %v", err)
	}

	res, err := env.server.handleGetBrandAssets(authedCtx(id),
		toolRequest("get_brand_assets", map[string]any{
			"asset_types": []any{"logo"},
			"format":      "SVG",
		}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	var out struct {
		Logo []struct {
			URL    string `json:"url"`
			Format string `json:"format"`
		} `json:"logo"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out.Logo) != 1 || out.Logo[0].Format != "svg" {
		t.Errorf("filtered logos = %+v, want the single svg variant", out.Logo)
	}
}

func TestListBrandsDefaultsAndValidation(t *testing.T) {
	env := newTestEnv(t)
	id := env.identity()

	res, err := env.server.handleListBrands(authedCtx(id), toolRequest("list_brands", nil))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	var out struct {
		Brands     []json.RawMessage `json:"brands"`
		Pagination model.Pagination  `json:"pagination"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Pagination.Limit != defaultListLimit || out.Pagination.Offset != 0 {
		t.Errorf("default pagination = %+v", out.Pagination)
	}
	if len(out.Brands) != 1 || out.Pagination.Total != 1 || out.Pagination.HasMore {
		t.Errorf("listing = %d brands, pagination %+v", len(out.Brands), out.Pagination)
	}

	bad := []map[string]any{
		{"limit": 0},
		{"limit": 101},
		{"offset": -1},
		{"sort_by": "color"},
	}
	for _, args := range bad {
		res, err := env.server.handleListBrands(authedCtx(id), toolRequest("list_brands", args))
		if err != nil {
			t.Fatalf("handler: %v", err)
		}
		if code := errorCode(t, res); code != model.CodeValidationFailed {
			t.Errorf("args %v: code = %s, want validation_failed", args, code)
		}
	}
}

func TestAuthMiddlewareShortCircuits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	invoked := false
	spy := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		invoked = true
		if _, ok := identityFrom(ctx); !ok {
			t.Error("identity missing from handler context")
		}
		return mcp.NewToolResultText("ok"), nil
	}
	wrapped := env.server.authMiddleware(spy)

	// No credential anywhere: the handler never runs.
	res, err := wrapped(ctx, toolRequest("get_brand_context", nil))
	if err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if code := errorCode(t, res); code != model.CodeCredentialMissing {
		t.Errorf("code = %s, want credential_missing", code)
	}
	if invoked {
		t.Fatal("handler ran despite missing credential")
	}

	// A malformed brand-scoped token is rejected, not tried as a session.
	badCtx := context.WithValue(ctx, tokenKey, "bk_brand_acme_nothex")
	res, err = wrapped(badCtx, toolRequest("get_brand_context", nil))
	if err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if code := errorCode(t, res); code != model.CodeCredentialMalformed {
		t.Errorf("code = %s, want credential_malformed", code)
	}
	if invoked {
		t.Fatal("handler ran despite malformed credential")
	}

	// A real key reaches the handler with its identity attached.
	created, err := env.keys.Create(ctx, service.CreateKeyParams{
		OwnerID: env.ownerID, BrandID: env.brandID, Name: "mcp", Tier: model.TierTeam,
	})
	if err != nil {
		t.Fatalf("create key: %v", err)
	}
	goodCtx := context.WithValue(ctx, tokenKey, created.Plaintext)
	res, err = wrapped(goodCtx, toolRequest("get_brand_context", nil))
	if err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %+v", res.Content)
	}
	if !invoked {
		t.Fatal("handler did not run for a valid credential")
	}
}

func TestAuthMiddlewarePermissionGate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Developer tier has read+generate but not validate.
	created, err := env.keys.Create(ctx, service.CreateKeyParams{
		OwnerID: env.ownerID, BrandID: env.brandID, Name: "dev", Tier: model.TierDeveloper,
	})
	if err != nil {
		t.Fatalf("create key: %v", err)
	}

	invoked := false
	spy := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		invoked = true
		return mcp.NewToolResultText("ok"), nil
	}
	wrapped := env.server.authMiddleware(spy)
	keyCtx := context.WithValue(ctx, tokenKey, created.Plaintext)

	res, err := wrapped(keyCtx, toolRequest("validate_brand_voice", map[string]any{"text": "hi"}))
	if err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if code := errorCode(t, res); code != model.CodeInsufficientPermissions {
		t.Errorf("code = %s, want insufficient_permissions", code)
	}
	if invoked {
		t.Fatal("handler ran despite missing permission")
	}

	// The same key can still use read-gated tools.
	res, err = wrapped(keyCtx, toolRequest("list_brands", nil))
	if err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %+v", res.Content)
	}
}

func TestGetBrandContextServedFromCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.identity()

	first, err := env.server.handleGetBrandContext(authedCtx(id), toolRequest("get_brand_context", nil))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	firstText := resultText(t, first)

	// A later data change is not visible until the cache entry expires.
	if err := env.store.AddTagline(ctx, &model.Tagline{BrandID: env.brandID, Text: "Fresh", IsPrimary: true}); err != nil {
		t.Fatalf("seed tagline: %v", err)
	}
	second, err := env.server.handleGetBrandContext(authedCtx(id), toolRequest("get_brand_context", nil))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if resultText(t, second) != firstText {
		t.Error("expected cached payload on second call")
	}
}

func TestGetBrandContextCacheIgnoresSectionOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.identity()

	first, err := env.server.handleGetBrandContext(authedCtx(id),
		toolRequest("get_brand_context", map[string]any{"sections": []any{"voice", "visual"}}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	firstText := resultText(t, first)

	// If the reordered request missed the cache it would see this change.
	if err := env.store.AddTagline(ctx, &model.Tagline{BrandID: env.brandID, Text: "Fresh", IsPrimary: true}); err != nil {
		t.Fatalf("seed tagline: %v", err)
	}

	second, err := env.server.handleGetBrandContext(authedCtx(id),
		toolRequest("get_brand_context", map[string]any{"sections": []any{"visual", "voice"}}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if resultText(t, second) != firstText {
		t.Error("reordered section list missed the cache")
	}
}

func TestGetBrandAssetsCacheIgnoresTypeOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.identity()

	first, err := env.server.handleGetBrandAssets(authedCtx(id),
		toolRequest("get_brand_assets", map[string]any{"asset_types": []any{"logo", "colors"}}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	firstText := resultText(t, first)

	if err := env.store.AddLogo(ctx, &model.Logo{BrandID: env.brandID, URL: "https://cdn.example/late.svg", Format: "svg"}); err != nil {
		t.Fatalf("seed logo: %v", err)
	}

	second, err := env.server.handleGetBrandAssets(authedCtx(id),
		toolRequest("get_brand_assets", map[string]any{"asset_types": []any{"colors", "logo"}}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if resultText(t, second) != firstText {
		t.Error("reordered asset types missed the cache")
	}
}
