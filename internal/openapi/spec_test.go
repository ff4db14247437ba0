package openapi

import "testing"

func TestGenerate_DocumentHeader(t *testing.T) {
	doc := Generate("http://localhost:8080")

	if doc.OpenAPI != "3.1.0" {
		t.Errorf("OpenAPI version = %q, want %q", doc.OpenAPI, "3.1.0")
	}
	if doc.Info == nil {
		t.Fatal("Info is nil")
	}
	if doc.Info.Title != "BrandKit Management API" {
		t.Errorf("Info.Title = %q", doc.Info.Title)
	}
	if len(doc.Servers) != 1 || doc.Servers[0].URL != "http://localhost:8080" {
		t.Error("Servers not set correctly")
	}
}

func TestGenerate_SecuritySchemes(t *testing.T) {
	doc := Generate("http://localhost:8080")

	if doc.Components == nil {
		t.Fatal("Components is nil")
	}

	session, ok := doc.Components.SecuritySchemes["sessionToken"]
	if !ok {
		t.Fatal("sessionToken security scheme not found")
	}
	if session.Value.Type != "http" {
		t.Errorf("sessionToken.Type = %q, want %q", session.Value.Type, "http")
	}
	if session.Value.Scheme != "bearer" {
		t.Errorf("sessionToken.Scheme = %q, want %q", session.Value.Scheme, "bearer")
	}
	if session.Value.BearerFormat != "JWT" {
		t.Errorf("sessionToken.BearerFormat = %q, want %q", session.Value.BearerFormat, "JWT")
	}

	apiKey, ok := doc.Components.SecuritySchemes["apiKey"]
	if !ok {
		t.Fatal("apiKey security scheme not found")
	}
	if apiKey.Value.Type != "apiKey" {
		t.Errorf("apiKey.Type = %q, want %q", apiKey.Value.Type, "apiKey")
	}
	if apiKey.Value.In != "header" {
		t.Errorf("apiKey.In = %q, want %q", apiKey.Value.In, "header")
	}
	if apiKey.Value.Name != "X-API-Key" {
		t.Errorf("apiKey.Name = %q, want %q", apiKey.Value.Name, "X-API-Key")
	}
}

func TestGenerate_ManagementPaths(t *testing.T) {
	doc := Generate("http://localhost:8080")

	session := doc.Paths.Find("/api/v1/session")
	if session == nil {
		t.Fatal("session path not found")
	}
	if session.Post == nil {
		t.Error("POST missing for session")
	}
	if session.Post != nil && session.Post.Security != nil {
		t.Error("login must not require credentials")
	}
	if session.Delete == nil {
		t.Error("DELETE missing for session")
	} else if session.Delete.Security == nil {
		t.Error("logout should require a session")
	}

	brands := doc.Paths.Find("/api/v1/brands")
	if brands == nil {
		t.Fatal("brands path not found")
	}
	if brands.Get == nil || brands.Post == nil {
		t.Error("brands collection should have GET and POST")
	}

	brand := doc.Paths.Find("/api/v1/brands/{brandID}")
	if brand == nil {
		t.Fatal("brand item path not found")
	}
	if brand.Get == nil || brand.Put == nil {
		t.Error("brand item should have GET and PUT")
	}

	for _, p := range []string{
		"/api/v1/brands/{brandID}/context",
		"/api/v1/brands/{brandID}/logos",
		"/api/v1/brands/{brandID}/taglines",
		"/api/v1/brands/{brandID}/palettes",
		"/api/v1/brands/{brandID}/keys",
		"/api/v1/brands/{brandID}/keys/{keyID}",
		"/api/v1/cache/clear",
		"/healthz",
		"/readyz",
	} {
		if doc.Paths.Find(p) == nil {
			t.Errorf("path %q not found", p)
		}
	}
}

func TestGenerate_ManagementOperationsRequireSession(t *testing.T) {
	doc := Generate("http://localhost:8080")

	ops := map[string]*struct{ secured bool }{}
	for _, path := range []string{
		"/api/v1/brands",
		"/api/v1/brands/{brandID}",
		"/api/v1/brands/{brandID}/keys",
		"/api/v1/cache/clear",
	} {
		item := doc.Paths.Find(path)
		if item == nil {
			t.Fatalf("path %q not found", path)
		}
		for method, op := range item.Operations() {
			ops[method+" "+path] = &struct{ secured bool }{op.Security != nil}
		}
	}

	for name, op := range ops {
		if !op.secured {
			t.Errorf("%s should declare sessionToken security", name)
		}
	}
}

func TestGenerate_CreatedKeySchema(t *testing.T) {
	doc := Generate("http://localhost:8080")

	created, ok := doc.Components.Schemas["CreatedKey"]
	if !ok {
		t.Fatal("CreatedKey schema not found")
	}
	if _, ok := created.Value.Properties["api_key"]; !ok {
		t.Error("CreatedKey should expose the one-time api_key field")
	}
	keyRef, ok := created.Value.Properties["key"]
	if !ok {
		t.Fatal("CreatedKey should reference the APIKey record")
	}
	if keyRef.Ref != "#/components/schemas/APIKey" {
		t.Errorf("key ref = %q", keyRef.Ref)
	}

	apiKey, ok := doc.Components.Schemas["APIKey"]
	if !ok {
		t.Fatal("APIKey schema not found")
	}
	if _, ok := apiKey.Value.Properties["display_prefix"]; !ok {
		t.Error("APIKey should carry display_prefix")
	}
	if _, ok := apiKey.Value.Properties["key_hash"]; ok {
		t.Error("APIKey must never expose key_hash")
	}
}

func TestGenerate_ErrorResponseSchema(t *testing.T) {
	doc := Generate("http://localhost:8080")

	errSchema, ok := doc.Components.Schemas["ErrorResponse"]
	if !ok {
		t.Fatal("ErrorResponse schema not found")
	}
	errorProp, ok := errSchema.Value.Properties["error"]
	if !ok {
		t.Fatal("error property not found in ErrorResponse")
	}
	for _, field := range []string{"code", "message", "retryable", "docs_url"} {
		if _, ok := errorProp.Value.Properties[field]; !ok {
			t.Errorf("%q property not found in error object", field)
		}
	}
}

func TestGenerate_ListQueryParameters(t *testing.T) {
	doc := Generate("http://localhost:8080")

	brands := doc.Paths.Find("/api/v1/brands")
	if brands == nil || brands.Get == nil {
		t.Fatal("GET /api/v1/brands not found")
	}

	names := map[string]bool{}
	for _, p := range brands.Get.Parameters {
		names[p.Value.Name] = true
	}
	for _, want := range []string{"limit", "offset", "search", "sort_by", "has_logo"} {
		if !names[want] {
			t.Errorf("query parameter %q missing on brand listing", want)
		}
	}
}
