// Package openapi builds the OpenAPI 3.1 document for the brandkit
// management API.
package openapi

import (
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/brandkit/brandkit/internal/model"
)

// Generate constructs the OpenAPI document for the management API. The
// document is assembled in memory on each call; the server caches the
// serialized form.
func Generate(serverURL string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "BrandKit Management API",
			Description: "Brand-scoped API key management and brand asset administration.",
			Version:     "0.1.0",
		},
		Servers: openapi3.Servers{
			&openapi3.Server{URL: serverURL},
		},
	}

	doc.Components = componentsSection()
	doc.Paths = pathsSection()
	return doc
}

func componentsSection() *openapi3.Components {
	components := openapi3.NewComponents()

	components.SecuritySchemes = openapi3.SecuritySchemes{
		"sessionToken": &openapi3.SecuritySchemeRef{
			Value: &openapi3.SecurityScheme{
				Type:         "http",
				Scheme:       "bearer",
				BearerFormat: "JWT",
				Description:  "Owner session token from POST /api/v1/session",
			},
		},
		"apiKey": &openapi3.SecuritySchemeRef{
			Value: &openapi3.SecurityScheme{
				Type:        "apiKey",
				In:          "header",
				Name:        "X-API-Key",
				Description: "Brand-scoped API key (bk_brand_ prefix)",
			},
		},
	}

	components.Schemas = openapi3.Schemas{
		"Brand":         schemaRefFor(brandSchema()),
		"APIKey":        schemaRefFor(apiKeySchema()),
		"CreatedKey":    schemaRefFor(createdKeySchema()),
		"ErrorResponse": schemaRefFor(errorResponseSchema()),
	}
	return &components
}

func schemaRefFor(s *openapi3.Schema) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: s}
}

func brandSchema() *openapi3.Schema {
	return objectSchema(map[string]*openapi3.Schema{
		"id":               stringSchema("Brand identifier"),
		"owner_id":         stringSchema("Owning account"),
		"name":             stringSchema("Brand name"),
		"pitch":            stringSchema("One-line pitch"),
		"concept":          stringSchema("Underlying concept or problem statement"),
		"desirable_cues":   stringSchema("Comma-separated voice cues to prefer"),
		"undesirable_cues": stringSchema("Comma-separated voice cues to avoid"),
		"font_primary":     stringSchema("Primary typeface"),
		"font_secondary":   stringSchema("Secondary typeface"),
		"created_at":       dateTimeSchema(),
		"updated_at":       dateTimeSchema(),
	})
}

func apiKeySchema() *openapi3.Schema {
	return objectSchema(map[string]*openapi3.Schema{
		"id":             stringSchema("Key identifier"),
		"owner_id":       stringSchema("Owning account"),
		"brand_id":       stringSchema("Brand the key is scoped to"),
		"name":           stringSchema("Human-readable label"),
		"display_prefix": stringSchema("Truncated key for display; never the full key"),
		"tier":           stringSchema("Permission tier: owner, team, or developer"),
		"usage_count":    intSchema("Number of authenticated calls"),
		"created_at":     dateTimeSchema(),
	})
}

func createdKeySchema() *openapi3.Schema {
	s := objectSchema(map[string]*openapi3.Schema{
		"api_key": stringSchema("Full plaintext key. Shown exactly once."),
	})
	s.Properties["key"] = openapi3.NewSchemaRef("#/components/schemas/APIKey", nil)
	return s
}

func errorResponseSchema() *openapi3.Schema {
	body := objectSchema(map[string]*openapi3.Schema{
		"code":      stringSchema(fmt.Sprintf("Stable error code, e.g. %s", model.CodeBrandNotFound)),
		"message":   stringSchema("Human-readable description"),
		"retryable": boolSchema("Whether retrying may succeed"),
		"docs_url":  stringSchema("Documentation link for this code"),
	})
	s := objectSchema(nil)
	s.Properties = openapi3.Schemas{"error": schemaRefFor(body)}
	return s
}

func objectSchema(props map[string]*openapi3.Schema) *openapi3.Schema {
	s := &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: openapi3.Schemas{},
	}
	for name, p := range props {
		s.Properties[name] = schemaRefFor(p)
	}
	return s
}

func stringSchema(desc string) *openapi3.Schema {
	s := openapi3.NewStringSchema()
	s.Description = desc
	return s
}

func intSchema(desc string) *openapi3.Schema {
	s := openapi3.NewIntegerSchema()
	s.Description = desc
	return s
}

func boolSchema(desc string) *openapi3.Schema {
	s := openapi3.NewBoolSchema()
	s.Description = desc
	return s
}

func dateTimeSchema() *openapi3.Schema {
	return openapi3.NewDateTimeSchema()
}

func pathsSection() *openapi3.Paths {
	paths := openapi3.NewPaths()

	paths.Set("/api/v1/session", &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: "login",
			Summary:     "Authenticate an owner and obtain a session token",
			Tags:        []string{"session"},
			Responses:   jsonResponses("Session token", nil),
		},
		Delete: &openapi3.Operation{
			OperationID: "logout",
			Summary:     "Invalidate the current session",
			Tags:        []string{"session"},
			Security:    sessionSecurity(),
			Responses:   jsonResponses("Session invalidated", nil),
		},
	})

	paths.Set("/api/v1/brands", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "listBrands",
			Summary:     "List the owner's brands",
			Tags:        []string{"brands"},
			Security:    sessionSecurity(),
			Parameters:  listQueryParameters(),
			Responses:   jsonResponses("Paginated brand listing", nil),
		},
		Post: &openapi3.Operation{
			OperationID: "createBrand",
			Summary:     "Register a new brand",
			Tags:        []string{"brands"},
			Security:    sessionSecurity(),
			Responses:   jsonResponses("Created brand", schemaRef("Brand")),
		},
	})

	paths.Set("/api/v1/brands/{brandID}", &openapi3.PathItem{
		Parameters: pathParameters("brandID"),
		Get: &openapi3.Operation{
			OperationID: "getBrand",
			Summary:     "Fetch a single brand",
			Tags:        []string{"brands"},
			Security:    sessionSecurity(),
			Responses:   jsonResponses("Brand record", schemaRef("Brand")),
		},
		Put: &openapi3.Operation{
			OperationID: "updateBrand",
			Summary:     "Replace a brand's editable fields",
			Tags:        []string{"brands"},
			Security:    sessionSecurity(),
			Responses:   jsonResponses("Updated brand", schemaRef("Brand")),
		},
	})

	paths.Set("/api/v1/brands/{brandID}/context", &openapi3.PathItem{
		Parameters: pathParameters("brandID"),
		Get: &openapi3.Operation{
			OperationID: "getBrandContext",
			Summary:     "Assemble the full brand context document",
			Tags:        []string{"brands"},
			Security:    sessionSecurity(),
			Responses:   jsonResponses("Brand context document", nil),
		},
	})

	for _, asset := range []struct {
		segment, opID, summary string
	}{
		{"logos", "addLogo", "Attach a logo asset"},
		{"taglines", "addTagline", "Record a tagline"},
		{"palettes", "addPalette", "Record a color palette"},
	} {
		paths.Set("/api/v1/brands/{brandID}/"+asset.segment, &openapi3.PathItem{
			Parameters: pathParameters("brandID"),
			Post: &openapi3.Operation{
				OperationID: asset.opID,
				Summary:     asset.summary,
				Tags:        []string{"assets"},
				Security:    sessionSecurity(),
				Responses:   jsonResponses("Created asset", nil),
			},
		})
	}

	paths.Set("/api/v1/brands/{brandID}/keys", &openapi3.PathItem{
		Parameters: pathParameters("brandID"),
		Get: &openapi3.Operation{
			OperationID: "listAPIKeys",
			Summary:     "List a brand's API keys",
			Tags:        []string{"keys"},
			Security:    sessionSecurity(),
			Parameters: openapi3.Parameters{
				&openapi3.ParameterRef{
					Value: openapi3.NewQueryParameter("include_revoked").
						WithDescription("Include revoked keys in the listing").
						WithSchema(openapi3.NewBoolSchema()),
				},
			},
			Responses: jsonResponses("Key listing, display prefixes only", nil),
		},
		Post: &openapi3.Operation{
			OperationID: "createAPIKey",
			Summary:     "Mint a brand-scoped API key",
			Tags:        []string{"keys"},
			Security:    sessionSecurity(),
			Responses:   jsonResponses("Created key with one-time plaintext", schemaRef("CreatedKey")),
		},
	})

	paths.Set("/api/v1/brands/{brandID}/keys/{keyID}", &openapi3.PathItem{
		Parameters: pathParameters("brandID", "keyID"),
		Delete: &openapi3.Operation{
			OperationID: "revokeAPIKey",
			Summary:     "Revoke an API key",
			Tags:        []string{"keys"},
			Security:    sessionSecurity(),
			Responses:   jsonResponses("Key revoked", nil),
		},
	})

	paths.Set("/api/v1/cache/clear", &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: "clearCache",
			Summary:     "Drop all cached MCP payloads",
			Tags:        []string{"system"},
			Security:    sessionSecurity(),
			Responses:   jsonResponses("Cache cleared", nil),
		},
	})

	paths.Set("/healthz", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "healthz",
			Summary:     "Liveness probe",
			Tags:        []string{"system"},
			Responses:   jsonResponses("Service alive", nil),
		},
	})
	paths.Set("/readyz", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "readyz",
			Summary:     "Readiness probe; verifies the data store",
			Tags:        []string{"system"},
			Responses:   jsonResponses("Service ready", nil),
		},
	})

	return paths
}

func sessionSecurity() *openapi3.SecurityRequirements {
	return &openapi3.SecurityRequirements{
		{"sessionToken": {}},
	}
}

func schemaRef(name string) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/"+name, nil)
}

// jsonResponses builds a success response plus the standard error response.
func jsonResponses(desc string, ref *openapi3.SchemaRef) *openapi3.Responses {
	responses := openapi3.NewResponses()

	ok := &openapi3.Response{Description: &desc}
	if ref != nil {
		ok.Content = openapi3.NewContentWithJSONSchemaRef(ref)
	}
	responses.Set("200", &openapi3.ResponseRef{Value: ok})

	errDesc := "Error envelope with a stable code and docs link"
	responses.Set("default", &openapi3.ResponseRef{Value: &openapi3.Response{
		Description: &errDesc,
		Content:     openapi3.NewContentWithJSONSchemaRef(schemaRef("ErrorResponse")),
	}})
	return responses
}

func pathParameters(names ...string) openapi3.Parameters {
	params := make(openapi3.Parameters, 0, len(names))
	for _, name := range names {
		params = append(params, &openapi3.ParameterRef{
			Value: openapi3.NewPathParameter(name).
				WithSchema(openapi3.NewStringSchema()),
		})
	}
	return params
}

func listQueryParameters() openapi3.Parameters {
	return openapi3.Parameters{
		&openapi3.ParameterRef{
			Value: openapi3.NewQueryParameter("limit").
				WithDescription("Page size, 1-100").
				WithSchema(openapi3.NewIntegerSchema()),
		},
		&openapi3.ParameterRef{
			Value: openapi3.NewQueryParameter("offset").
				WithDescription("Rows to skip").
				WithSchema(openapi3.NewIntegerSchema()),
		},
		&openapi3.ParameterRef{
			Value: openapi3.NewQueryParameter("search").
				WithDescription("Substring match on brand name").
				WithSchema(openapi3.NewStringSchema()),
		},
		&openapi3.ParameterRef{
			Value: openapi3.NewQueryParameter("sort_by").
				WithDescription("Sort order: name, created, or updated").
				WithSchema(openapi3.NewStringSchema()),
		},
		&openapi3.ParameterRef{
			Value: openapi3.NewQueryParameter("has_logo").
				WithDescription("Filter brands with or without a logo").
				WithSchema(openapi3.NewBoolSchema()),
		},
	}
}
