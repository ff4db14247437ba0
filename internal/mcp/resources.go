package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/brandkit/brandkit/internal/brandctx"
	"github.com/brandkit/brandkit/internal/model"
	"github.com/brandkit/brandkit/internal/store"
)

// registerResources adds MCP resource definitions to the server. Resources
// provide read-only data that LLM clients can load into their context.
func (s *MCPServer) registerResources(srv *server.MCPServer) {

	srv.AddResource(
		mcp.NewResource(
			"brandkit://brands",
			"Brand Directory",
			mcp.WithResourceDescription(
				"Brands visible to this credential, with their id, name, "+
					"and pitch.",
			),
			mcp.WithMIMEType("application/json"),
		),
		s.handleBrandsResource,
	)

	srv.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"brandkit://context/{brand_id}",
			"Brand Context",
			mcp.WithTemplateDescription(
				"Full assembled context for a brand: identity, voice, and "+
					"visual sections.",
			),
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handleContextResource,
	)
}

// handleBrandsResource returns a JSON directory of the brands the credential
// can see: a key's single scoped brand, or all brands the session owner has.
func (s *MCPServer) handleBrandsResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	identity, err := s.resourceIdentity(ctx)
	if err != nil {
		return nil, err
	}

	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	var brands []model.Brand
	if identity.BrandID != "" {
		brand, err := s.store.GetBrand(storeCtx, identity.BrandID)
		if err != nil {
			return nil, fmt.Errorf("failed to load brand: %w", err)
		}
		brands = []model.Brand{*brand}
	} else {
		brands, err = s.store.ListBrands(storeCtx, store.ListBrandsOptions{
			OwnerID: identity.OwnerID,
			SortBy:  store.SortByName,
			Limit:   maxListLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list brands: %w", err)
		}
	}

	type brandInfo struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Pitch string `json:"pitch,omitempty"`
	}
	items := make([]brandInfo, len(brands))
	for i, b := range brands {
		items[i] = brandInfo{ID: b.ID, Name: b.Name, Pitch: b.Pitch}
	}

	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal brands: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "brandkit://brands",
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}

// handleContextResource returns the full assembled context for one brand.
func (s *MCPServer) handleContextResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	identity, err := s.resourceIdentity(ctx)
	if err != nil {
		return nil, err
	}

	uri := request.Params.URI
	brandID := strings.TrimPrefix(uri, "brandkit://context/")
	if brandID == "" || brandID == uri {
		return nil, fmt.Errorf("invalid context URI %q: expected brandkit://context/{brand_id}", uri)
	}

	// Same scoping rules as tool calls: a key is pinned to its brand, a
	// session may only read brands it owns.
	brand, err := s.resolveBrand(ctx, identity, brandID)
	if err != nil {
		return nil, err
	}
	logos, taglines, palette, err := s.loadBrandMaterial(ctx, brand.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load brand material: %w", err)
	}

	assembled := brandctx.Assemble(*brand, logos, taglines, palette, nil, true)
	b, err := json.MarshalIndent(assembled, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal context: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}
