package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/brandkit/brandkit/internal/brandctx"
	"github.com/brandkit/brandkit/internal/cache"
	"github.com/brandkit/brandkit/internal/model"
	"github.com/brandkit/brandkit/internal/server/middleware"
	"github.com/brandkit/brandkit/internal/store"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
	logoLimit       = 5
)

// BrandHandler serves brand CRUD and asset management endpoints.
type BrandHandler struct {
	store  *store.Store
	cache  *cache.Cache
	logger *slog.Logger
}

// NewBrandHandler creates a new BrandHandler.
func NewBrandHandler(st *store.Store, ch *cache.Cache, logger *slog.Logger) *BrandHandler {
	return &BrandHandler{store: st, cache: ch, logger: logger}
}

// ownedBrand loads a brand and checks it belongs to the authenticated owner.
// An unowned brand reads as not found.
func (h *BrandHandler) ownedBrand(r *http.Request) (*model.Brand, error) {
	identity := middleware.GetIdentity(r.Context())
	brand, err := h.store.GetBrand(r.Context(), chi.URLParam(r, "brandID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, model.ErrBrandNotFound
		}
		h.logger.Error("brand lookup failed", "error", err)
		return nil, model.ErrUpstreamUnavailable
	}
	if brand.OwnerID != identity.OwnerID {
		return nil, model.ErrBrandNotFound
	}
	return brand, nil
}

type brandRequest struct {
	Name            string `json:"name"`
	Pitch           string `json:"pitch"`
	Concept         string `json:"concept"`
	DesirableCues   string `json:"desirable_cues"`
	UndesirableCues string `json:"undesirable_cues"`
	FontPrimary     string `json:"font_primary"`
	FontSecondary   string `json:"font_secondary"`
}

// Create registers a new brand for the authenticated owner.
// POST /api/v1/brands
func (h *BrandHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	var req brandRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, model.ValidationError("invalid request body"))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, model.ValidationError("brand name is required"))
		return
	}

	brand := &model.Brand{
		OwnerID:         identity.OwnerID,
		Name:            strings.TrimSpace(req.Name),
		Pitch:           req.Pitch,
		Concept:         req.Concept,
		DesirableCues:   req.DesirableCues,
		UndesirableCues: req.UndesirableCues,
		FontPrimary:     req.FontPrimary,
		FontSecondary:   req.FontSecondary,
	}
	if err := h.store.CreateBrand(r.Context(), brand); err != nil {
		h.logger.Error("brand create failed", "error", err)
		writeError(w, model.ErrUpstreamUnavailable)
		return
	}
	writeJSON(w, http.StatusCreated, brand)
}

// Get returns a single brand.
// GET /api/v1/brands/{brandID}
func (h *BrandHandler) Get(w http.ResponseWriter, r *http.Request) {
	brand, err := h.ownedBrand(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, brand)
}

// Update replaces a brand's editable fields. Empty fields in the request
// clear the stored value.
// PUT /api/v1/brands/{brandID}
func (h *BrandHandler) Update(w http.ResponseWriter, r *http.Request) {
	brand, err := h.ownedBrand(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req brandRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, model.ValidationError("invalid request body"))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, model.ValidationError("brand name is required"))
		return
	}

	brand.Name = strings.TrimSpace(req.Name)
	brand.Pitch = req.Pitch
	brand.Concept = req.Concept
	brand.DesirableCues = req.DesirableCues
	brand.UndesirableCues = req.UndesirableCues
	brand.FontPrimary = req.FontPrimary
	brand.FontSecondary = req.FontSecondary

	if err := h.store.UpdateBrand(r.Context(), brand); err != nil {
		h.logger.Error("brand update failed", "error", err)
		writeError(w, model.ErrUpstreamUnavailable)
		return
	}
	h.invalidate(brand.ID)
	writeJSON(w, http.StatusOK, brand)
}

// List returns the owner's brands with filtering and pagination.
// GET /api/v1/brands
func (h *BrandHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	limit := queryInt(r, "limit", defaultPageSize)
	if limit < 1 || limit > maxPageSize {
		writeError(w, model.ValidationError("limit must be between 1 and %d", maxPageSize))
		return
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		writeError(w, model.ValidationError("offset must not be negative"))
		return
	}

	sortBy := store.BrandSort(queryString(r, "sort_by"))
	switch sortBy {
	case "", store.SortByName, store.SortByCreated, store.SortByUpdated:
	default:
		writeError(w, model.ValidationError("unknown sort_by %q", sortBy))
		return
	}

	opts := store.ListBrandsOptions{
		OwnerID: identity.OwnerID,
		Search:  queryString(r, "search"),
		HasLogo: queryBoolPtr(r, "has_logo"),
		SortBy:  sortBy,
		Limit:   limit,
		Offset:  offset,
	}

	brands, err := h.store.ListBrands(r.Context(), opts)
	if err != nil {
		h.logger.Error("brand list failed", "error", err)
		writeError(w, model.ErrUpstreamUnavailable)
		return
	}
	total, err := h.store.CountBrands(r.Context(), opts)
	if err != nil {
		h.logger.Error("brand count failed", "error", err)
		writeError(w, model.ErrUpstreamUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"brands":     brands,
		"pagination": model.NewPagination(limit, offset, total),
	})
}

// Context assembles the full brand context document, same shape the MCP
// get_brand_context tool returns.
// GET /api/v1/brands/{brandID}/context
func (h *BrandHandler) Context(w http.ResponseWriter, r *http.Request) {
	brand, err := h.ownedBrand(r)
	if err != nil {
		writeError(w, err)
		return
	}

	logos, err := h.store.ListLogos(r.Context(), brand.ID, logoLimit)
	if err != nil {
		h.logger.Error("logo list failed", "error", err)
		writeError(w, model.ErrUpstreamUnavailable)
		return
	}
	taglines, err := h.store.ListTaglines(r.Context(), brand.ID)
	if err != nil {
		h.logger.Error("tagline list failed", "error", err)
		writeError(w, model.ErrUpstreamUnavailable)
		return
	}
	palette, err := h.store.LatestPalette(r.Context(), brand.ID)
	if err != nil {
		h.logger.Error("palette load failed", "error", err)
		writeError(w, model.ErrUpstreamUnavailable)
		return
	}

	doc := brandctx.Assemble(*brand, logos, taglines, palette, brandctx.Sections(), true)
	writeJSON(w, http.StatusOK, doc)
}

// ---------------------------------------------------------------------------
// Assets
// ---------------------------------------------------------------------------

type addLogoRequest struct {
	URL    string `json:"url"`
	Format string `json:"format"`
}

// AddLogo attaches a logo asset to a brand.
// POST /api/v1/brands/{brandID}/logos
func (h *BrandHandler) AddLogo(w http.ResponseWriter, r *http.Request) {
	brand, err := h.ownedBrand(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req addLogoRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, model.ValidationError("invalid request body"))
		return
	}
	if req.URL == "" {
		writeError(w, model.ValidationError("logo url is required"))
		return
	}

	logo := &model.Logo{BrandID: brand.ID, URL: req.URL, Format: req.Format}
	if err := h.store.AddLogo(r.Context(), logo); err != nil {
		h.logger.Error("logo add failed", "error", err)
		writeError(w, model.ErrUpstreamUnavailable)
		return
	}
	h.invalidate(brand.ID)
	writeJSON(w, http.StatusCreated, logo)
}

type addTaglineRequest struct {
	Text      string `json:"text"`
	IsPrimary bool   `json:"is_primary"`
	IsLiked   bool   `json:"is_liked"`
}

// AddTagline records a tagline for a brand.
// POST /api/v1/brands/{brandID}/taglines
func (h *BrandHandler) AddTagline(w http.ResponseWriter, r *http.Request) {
	brand, err := h.ownedBrand(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req addTaglineRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, model.ValidationError("invalid request body"))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, model.ValidationError("tagline text is required"))
		return
	}

	tagline := &model.Tagline{
		BrandID:   brand.ID,
		Text:      strings.TrimSpace(req.Text),
		IsPrimary: req.IsPrimary,
		IsLiked:   req.IsLiked,
	}
	if err := h.store.AddTagline(r.Context(), tagline); err != nil {
		h.logger.Error("tagline add failed", "error", err)
		writeError(w, model.ErrUpstreamUnavailable)
		return
	}
	h.invalidate(brand.ID)
	writeJSON(w, http.StatusCreated, tagline)
}

type addPaletteRequest struct {
	Palette []string `json:"palette"`
}

// AddPalette records a new color palette. The latest palette becomes the
// brand's current one.
// POST /api/v1/brands/{brandID}/palettes
func (h *BrandHandler) AddPalette(w http.ResponseWriter, r *http.Request) {
	brand, err := h.ownedBrand(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req addPaletteRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, model.ValidationError("invalid request body"))
		return
	}
	if len(req.Palette) == 0 {
		writeError(w, model.ValidationError("palette must contain at least one color"))
		return
	}
	for _, c := range req.Palette {
		if !strings.HasPrefix(c, "#") {
			writeError(w, model.ValidationError("palette colors must be hex strings, got %q", c))
			return
		}
	}

	color := &model.Colorization{BrandID: brand.ID, Palette: req.Palette}
	if err := h.store.AddColorization(r.Context(), color); err != nil {
		h.logger.Error("palette add failed", "error", err)
		writeError(w, model.ErrUpstreamUnavailable)
		return
	}
	h.invalidate(brand.ID)
	writeJSON(w, http.StatusCreated, color)
}

// invalidate drops cached MCP payloads for a brand after a write. Cache
// keys are fingerprints, so per-brand eviction is not possible; the TTL is
// short enough that a full clear is acceptable.
func (h *BrandHandler) invalidate(brandID string) {
	if err := h.cache.ClearAll(); err != nil {
		h.logger.Warn("cache invalidation failed", "brand_id", brandID, "error", err)
	}
}
