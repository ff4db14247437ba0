package mcp

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/brandkit/brandkit/internal/brandctx"
	"github.com/brandkit/brandkit/internal/cache"
	"github.com/brandkit/brandkit/internal/model"
	"github.com/brandkit/brandkit/internal/service"
	"github.com/brandkit/brandkit/internal/store"
)

// storeTimeout bounds each store round trip so a wedged database surfaces
// as a retryable upstream error instead of a hung tool call.
const storeTimeout = 5 * time.Second

// contextCacheTTL is how long assembled brand context and asset payloads
// stay cached. Brand data changes rarely relative to how often agents read it.
const contextCacheTTL = 5 * time.Minute

// logoLimit caps logo fetches for context assembly.
const logoLimit = 5

// Voice validation input bounds.
const maxVoiceTextLen = 5000

// Listing bounds for list_brands.
const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// assetTypes accepted by get_brand_assets. mockups is part of the contract
// even though no mockup store exists yet; it resolves to an empty list.
var validAssetTypes = map[string]bool{
	"logo":    true,
	"colors":  true,
	"fonts":   true,
	"mockups": true,
}

// registerTools registers the brandkit MCP tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {

	srv.AddTool(
		mcp.NewTool("get_brand_context",
			mcp.WithDescription(
				"Get a brand's full context for content generation: identity "+
					"(challenge, solution, key attributes), voice (tone, preferred and "+
					"avoided vocabulary, example taglines), and visual assets (logos, "+
					"color palette, typography). Use this before writing anything on "+
					"the brand's behalf.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("brand_id",
				mcp.Description("Brand to load. Omit to use the brand scoped to your API key."),
			),
			mcp.WithArray("sections",
				mcp.Description("Sections to include: identity, voice, visual, positioning. Omit for all."),
				mcp.WithStringItems(),
			),
			mcp.WithBoolean("include_assets",
				mcp.Description("Include logo asset URLs in the visual section (default true)."),
			),
		),
		s.handleGetBrandContext,
	)

	srv.AddTool(
		mcp.NewTool("validate_brand_voice",
			mcp.WithDescription(
				"Check a piece of text against a brand's voice profile. Returns a "+
					"score in [0,1], whether the text aligns at the given strictness, "+
					"and concrete violations and suggestions. Deterministic rule-based "+
					"analysis: avoided-term hits lower the score, preferred-vocabulary "+
					"coverage raises it.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("text",
				mcp.Required(),
				mcp.Description("Text to validate (max 5000 characters)."),
			),
			mcp.WithString("brand_id",
				mcp.Description("Brand whose voice to check against. Omit to use the key's brand."),
			),
			mcp.WithString("context",
				mcp.Description("Where the text will appear (e.g. 'homepage hero', 'support email'); echoed in the report."),
			),
			mcp.WithNumber("strictness",
				mcp.Description("Alignment threshold in [0,1]; higher is stricter (default 0.7)."),
			),
		),
		s.handleValidateBrandVoice,
	)

	srv.AddTool(
		mcp.NewTool("get_brand_assets",
			mcp.WithDescription(
				"Fetch specific asset classes for a brand: logo (URLs with format "+
					"and role), colors (hex palette with usage labels), fonts (primary "+
					"and secondary typefaces), mockups (product mockup renders). "+
					"Lighter than get_brand_context when you only need assets.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithArray("asset_types",
				mcp.Required(),
				mcp.Description("Asset classes to fetch: logo, colors, fonts, mockups. Must not be empty."),
				mcp.WithStringItems(),
			),
			mcp.WithString("brand_id",
				mcp.Description("Brand to fetch assets for. Omit to use the key's brand."),
			),
			mcp.WithString("format",
				mcp.Description("File-format filter for logo assets (e.g. svg, png). Ignored for other asset classes."),
			),
		),
		s.handleGetBrandAssets,
	)

	srv.AddTool(
		mcp.NewTool("list_brands",
			mcp.WithDescription(
				"List the brands available to this credential, with pagination. "+
					"Returns each brand's id, name, and pitch; load details with "+
					"get_brand_context.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithNumber("limit",
				mcp.Description("Page size, 1 to 100 (default 50)."),
			),
			mcp.WithNumber("offset",
				mcp.Description("Records to skip for pagination (default 0)."),
			),
			mcp.WithString("sort_by",
				mcp.Description("Sort order: name, created, or updated (default updated)."),
			),
			mcp.WithString("search",
				mcp.Description("Substring filter on brand name."),
			),
			mcp.WithBoolean("has_logo",
				mcp.Description("Only brands with (true) or without (false) at least one logo."),
			),
		),
		s.handleListBrands,
	)
}

// =========================================================================
// Tool handlers
// =========================================================================

// resolveBrand loads the brand a tool call targets. Resolution order:
// explicit brand_id argument, then the key's brand scope, then the
// configured default. Session identities may address any brand they own;
// key identities are pinned to their scope.
func (s *MCPServer) resolveBrand(ctx context.Context, identity *service.Identity, brandArg string) (*model.Brand, error) {
	if identity.BrandID != "" && brandArg != "" && brandArg != identity.BrandID {
		// A scoped key asking for another brand learns nothing about it.
		return nil, model.ErrBrandNotFound
	}

	brandID := brandArg
	if brandID == "" {
		brandID = identity.BrandID
	}
	if brandID == "" {
		brandID = s.defaultBrandID
	}
	if brandID == "" {
		return nil, model.ErrBrandNotSpecified
	}

	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	brand, err := s.store.GetBrand(storeCtx, brandID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, model.ErrBrandNotFound
		}
		s.logger.Error("brand lookup failed", "brand_id", brandID, "error", err)
		return nil, model.ErrUpstreamUnavailable
	}
	if identity.BrandID == "" && brand.OwnerID != identity.OwnerID {
		return nil, model.ErrBrandNotFound
	}
	return brand, nil
}

// loadBrandMaterial fetches the stored records context assembly needs.
func (s *MCPServer) loadBrandMaterial(ctx context.Context, brandID string) ([]model.Logo, []model.Tagline, []string, error) {
	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	logos, err := s.store.ListLogos(storeCtx, brandID, logoLimit)
	if err != nil {
		return nil, nil, nil, err
	}
	taglines, err := s.store.ListTaglines(storeCtx, brandID)
	if err != nil {
		return nil, nil, nil, err
	}
	palette, err := s.store.LatestPalette(storeCtx, brandID)
	if err != nil {
		return nil, nil, nil, err
	}
	return logos, taglines, palette, nil
}

func (s *MCPServer) handleGetBrandContext(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	identity, ok := identityFrom(ctx)
	if !ok {
		return apiErrorResult(model.ErrCredentialMissing)
	}

	sections := optionalStringSlice(request, "sections")
	for _, sec := range sections {
		if !isValidSection(sec) {
			return validationError("unknown section %q, valid sections: %v", sec, brandctx.Sections())
		}
	}
	includeAssets := optionalBool(request, "include_assets", true)

	brand, err := s.resolveBrand(ctx, identity, optionalString(request, "brand_id"))
	if err != nil {
		return apiErrorResult(err)
	}

	// Equal requests must share a cache entry regardless of argument order;
	// section selection is a set, so sorting does not change the result.
	sort.Strings(sections)
	key := cache.Fingerprint("get_brand_context", map[string]any{
		"brand_id":       brand.ID,
		"sections":       sections,
		"include_assets": includeAssets,
	})
	result, err := cache.WithCache(s.cache, key, contextCacheTTL, func() (brandctx.BrandContext, error) {
		logos, taglines, palette, err := s.loadBrandMaterial(ctx, brand.ID)
		if err != nil {
			return brandctx.BrandContext{}, err
		}
		return brandctx.Assemble(*brand, logos, taglines, palette, sections, includeAssets), nil
	})
	if err != nil {
		s.logger.Error("context assembly failed", "brand_id", brand.ID, "error", err)
		return apiErrorResult(model.ErrUpstreamUnavailable)
	}

	return successJSON(result)
}

func (s *MCPServer) handleValidateBrandVoice(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	identity, ok := identityFrom(ctx)
	if !ok {
		return apiErrorResult(model.ErrCredentialMissing)
	}

	text, err := request.RequireString("text")
	if err != nil || text == "" {
		return validationError("the 'text' parameter is required and must not be empty")
	}
	if n := utf8.RuneCountInString(text); n > maxVoiceTextLen {
		return validationError("text is %d characters, max is %d", n, maxVoiceTextLen)
	}
	strictness := optionalFloat(request, "strictness", 0.7)
	if strictness < 0 || strictness > 1 {
		return validationError("strictness must be between 0 and 1, got %v", strictness)
	}
	textContext := optionalString(request, "context")

	brand, rerr := s.resolveBrand(ctx, identity, optionalString(request, "brand_id"))
	if rerr != nil {
		return apiErrorResult(rerr)
	}

	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	taglines, terr := s.store.ListTaglines(storeCtx, brand.ID)
	cancel()
	if terr != nil {
		s.logger.Error("tagline load failed", "brand_id", brand.ID, "error", terr)
		return apiErrorResult(model.ErrUpstreamUnavailable)
	}

	voice := brandctx.VoiceProfile(*brand, taglines)
	report := service.ValidateVoice(text, textContext, voice, strictness)

	return successJSON(map[string]any{
		"brand_id": brand.ID,
		"report":   report,
	})
}

func (s *MCPServer) handleGetBrandAssets(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	identity, ok := identityFrom(ctx)
	if !ok {
		return apiErrorResult(model.ErrCredentialMissing)
	}

	assetTypes := optionalStringSlice(request, "asset_types")
	if len(assetTypes) == 0 {
		return validationError("the 'asset_types' parameter is required and must not be empty; valid types: logo, colors, fonts, mockups")
	}
	for _, at := range assetTypes {
		if !validAssetTypes[at] {
			return validationError("unknown asset type %q, valid types: logo, colors, fonts, mockups", at)
		}
	}
	format := optionalString(request, "format")

	brand, err := s.resolveBrand(ctx, identity, optionalString(request, "brand_id"))
	if err != nil {
		return apiErrorResult(err)
	}

	// Equal requests must share a cache entry regardless of argument order.
	sort.Strings(assetTypes)
	key := cache.Fingerprint("get_brand_assets", map[string]any{
		"brand_id":    brand.ID,
		"asset_types": assetTypes,
		"format":      format,
	})
	result, err := cache.WithCache(s.cache, key, contextCacheTTL, func() (map[string]any, error) {
		logos, _, palette, err := s.loadBrandMaterial(ctx, brand.ID)
		if err != nil {
			return nil, err
		}
		visual := brandctx.Assemble(*brand, logos, nil, palette,
			[]string{brandctx.SectionVisual}, true).Visual

		assets := map[string]any{"brand_id": brand.ID}
		for _, at := range assetTypes {
			switch at {
			case "logo":
				assets["logo"] = filterLogos(visual.Logos, format)
			case "colors":
				assets["colors"] = visual.Palette
			case "fonts":
				assets["fonts"] = visual.Typography
			case "mockups":
				// No mockup store yet; the class is still addressable.
				assets["mockups"] = []string{}
			}
		}
		return assets, nil
	})
	if err != nil {
		s.logger.Error("asset load failed", "brand_id", brand.ID, "error", err)
		return apiErrorResult(model.ErrUpstreamUnavailable)
	}

	return successJSON(result)
}

func (s *MCPServer) handleListBrands(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	identity, ok := identityFrom(ctx)
	if !ok {
		return apiErrorResult(model.ErrCredentialMissing)
	}

	// Out-of-range inputs are rejected, not clamped: a silently shrunk page
	// misleads the calling agent about what it saw.
	limit := optionalInt(request, "limit", defaultListLimit)
	if limit < 1 || limit > maxListLimit {
		return validationError("limit must be between 1 and %d, got %d", maxListLimit, limit)
	}
	offset := optionalInt(request, "offset", 0)
	if offset < 0 {
		return validationError("offset must not be negative, got %d", offset)
	}
	sortBy := store.BrandSort(optionalString(request, "sort_by"))
	if sortBy == "" {
		sortBy = store.SortByUpdated
	}
	switch sortBy {
	case store.SortByName, store.SortByCreated, store.SortByUpdated:
	default:
		return validationError("unknown sort_by %q, valid values: name, created, updated", sortBy)
	}

	opts := store.ListBrandsOptions{
		OwnerID: identity.OwnerID,
		Search:  optionalString(request, "search"),
		SortBy:  sortBy,
		Limit:   limit,
		Offset:  offset,
	}
	if hasArg(request, "has_logo") {
		hasLogo := optionalBool(request, "has_logo", false)
		opts.HasLogo = &hasLogo
	}

	storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	brands, err := s.store.ListBrands(storeCtx, opts)
	if err != nil {
		s.logger.Error("brand listing failed", "error", err)
		return apiErrorResult(model.ErrUpstreamUnavailable)
	}
	total, err := s.store.CountBrands(storeCtx, opts)
	if err != nil {
		s.logger.Error("brand count failed", "error", err)
		return apiErrorResult(model.ErrUpstreamUnavailable)
	}

	type brandSummary struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Pitch     string    `json:"pitch,omitempty"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}
	items := make([]brandSummary, len(brands))
	for i, b := range brands {
		items[i] = brandSummary{
			ID: b.ID, Name: b.Name, Pitch: b.Pitch,
			CreatedAt: b.CreatedAt, UpdatedAt: b.UpdatedAt,
		}
	}

	return successJSON(map[string]any{
		"brands":     items,
		"pagination": model.NewPagination(limit, offset, total),
	})
}

// filterLogos keeps the logo variants matching the requested file format.
// An empty format keeps everything.
func filterLogos(logos []brandctx.LogoVariant, format string) []brandctx.LogoVariant {
	if format == "" {
		return logos
	}
	kept := make([]brandctx.LogoVariant, 0, len(logos))
	for _, l := range logos {
		if strings.EqualFold(l.Format, format) {
			kept = append(kept, l)
		}
	}
	return kept
}

func isValidSection(name string) bool {
	for _, s := range brandctx.Sections() {
		if s == name {
			return true
		}
	}
	return false
}
