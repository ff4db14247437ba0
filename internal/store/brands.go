package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/brandkit/brandkit/internal/model"
)

// BrandSort names a sort order for ListBrands.
type BrandSort string

const (
	SortByName    BrandSort = "name"
	SortByCreated BrandSort = "created"
	SortByUpdated BrandSort = "updated"
)

// ListBrandsOptions filters and pages a brand listing.
type ListBrandsOptions struct {
	OwnerID string
	Search  string // substring match on name
	HasLogo *bool  // filter brands with (or without) at least one logo
	SortBy  BrandSort
	Limit   int
	Offset  int
}

// CreateBrand inserts a new brand. ID is assigned if empty; CreatedAt and
// UpdatedAt are populated on insert.
func (s *Store) CreateBrand(ctx context.Context, b *model.Brand) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	const q = `INSERT INTO brands
		(id, owner_id, name, pitch, concept, desirable_cues, undesirable_cues,
		 font_primary, font_secondary, created_at, updated_at)
		VALUES
		(:id, :owner_id, :name, :pitch, :concept, :desirable_cues, :undesirable_cues,
		 :font_primary, :font_secondary, :created_at, :updated_at)`

	if _, err := s.db.NamedExecContext(ctx, q, b); err != nil {
		return fmt.Errorf("insert brand: %w", err)
	}
	return nil
}

// GetBrand returns a brand by ID.
func (s *Store) GetBrand(ctx context.Context, id string) (*model.Brand, error) {
	var b model.Brand
	if err := s.db.GetContext(ctx, &b, "SELECT * FROM brands WHERE id = ?", id); err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get brand: %w", err)
	}
	return &b, nil
}

// UpdateBrand updates a brand's identity fields. UpdatedAt is refreshed.
func (s *Store) UpdateBrand(ctx context.Context, b *model.Brand) error {
	b.UpdatedAt = time.Now().UTC()

	const q = `UPDATE brands SET
		name = :name, pitch = :pitch, concept = :concept,
		desirable_cues = :desirable_cues, undesirable_cues = :undesirable_cues,
		font_primary = :font_primary, font_secondary = :font_secondary,
		updated_at = :updated_at
		WHERE id = :id`

	result, err := s.db.NamedExecContext(ctx, q, b)
	if err != nil {
		return fmt.Errorf("update brand: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update brand rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (o ListBrandsOptions) whereClause() (string, []any) {
	where := " WHERE 1=1"
	var args []any
	if o.OwnerID != "" {
		where += " AND owner_id = ?"
		args = append(args, o.OwnerID)
	}
	if o.Search != "" {
		where += " AND name LIKE ?"
		args = append(args, "%"+o.Search+"%")
	}
	if o.HasLogo != nil {
		if *o.HasLogo {
			where += " AND EXISTS (SELECT 1 FROM logos WHERE logos.brand_id = brands.id)"
		} else {
			where += " AND NOT EXISTS (SELECT 1 FROM logos WHERE logos.brand_id = brands.id)"
		}
	}
	return where, args
}

// ListBrands returns a page of brands matching the options.
func (s *Store) ListBrands(ctx context.Context, opts ListBrandsOptions) ([]model.Brand, error) {
	where, args := opts.whereClause()

	order := " ORDER BY updated_at DESC"
	switch opts.SortBy {
	case SortByName:
		order = " ORDER BY name COLLATE NOCASE ASC"
	case SortByCreated:
		order = " ORDER BY created_at DESC"
	case SortByUpdated, "":
		// default
	}

	q := "SELECT * FROM brands" + where + order + " LIMIT ? OFFSET ?"
	args = append(args, opts.Limit, opts.Offset)

	var brands []model.Brand
	if err := s.db.SelectContext(ctx, &brands, q, args...); err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	return brands, nil
}

// CountBrands returns the total number of brands matching the options,
// ignoring Limit/Offset. Used for pagination metadata.
func (s *Store) CountBrands(ctx context.Context, opts ListBrandsOptions) (int64, error) {
	where, args := opts.whereClause()

	var count int64
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM brands"+where, args...); err != nil {
		return 0, fmt.Errorf("count brands: %w", err)
	}
	return count, nil
}

// ---------------------------------------------------------------------------
// Logos
// ---------------------------------------------------------------------------

// AddLogo records a logo asset for a brand.
func (s *Store) AddLogo(ctx context.Context, logo *model.Logo) error {
	if logo.ID == "" {
		logo.ID = uuid.New().String()
	}
	logo.CreatedAt = time.Now().UTC()

	const q = `INSERT INTO logos (id, brand_id, url, format, created_at)
		VALUES (:id, :brand_id, :url, :format, :created_at)`

	if _, err := s.db.NamedExecContext(ctx, q, logo); err != nil {
		return fmt.Errorf("insert logo: %w", err)
	}
	return nil
}

// ListLogos returns a brand's logos newest first, capped at limit.
func (s *Store) ListLogos(ctx context.Context, brandID string, limit int) ([]model.Logo, error) {
	var logos []model.Logo
	err := s.db.SelectContext(ctx, &logos,
		"SELECT * FROM logos WHERE brand_id = ? ORDER BY created_at DESC, id DESC LIMIT ?",
		brandID, limit)
	if err != nil {
		return nil, fmt.Errorf("list logos: %w", err)
	}
	return logos, nil
}

// ---------------------------------------------------------------------------
// Taglines
// ---------------------------------------------------------------------------

// AddTagline records a tagline for a brand.
func (s *Store) AddTagline(ctx context.Context, t *model.Tagline) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	t.CreatedAt = time.Now().UTC()

	const q = `INSERT INTO taglines (id, brand_id, text, is_primary, is_liked, created_at)
		VALUES (:id, :brand_id, :text, :is_primary, :is_liked, :created_at)`

	if _, err := s.db.NamedExecContext(ctx, q, t); err != nil {
		return fmt.Errorf("insert tagline: %w", err)
	}
	return nil
}

// ListTaglines returns all taglines for a brand, primary first, then newest.
func (s *Store) ListTaglines(ctx context.Context, brandID string) ([]model.Tagline, error) {
	var taglines []model.Tagline
	err := s.db.SelectContext(ctx, &taglines,
		"SELECT * FROM taglines WHERE brand_id = ? ORDER BY is_primary DESC, created_at DESC",
		brandID)
	if err != nil {
		return nil, fmt.Errorf("list taglines: %w", err)
	}
	return taglines, nil
}

// ---------------------------------------------------------------------------
// Colorizations
// ---------------------------------------------------------------------------

type colorizationRow struct {
	ID          string    `db:"id"`
	BrandID     string    `db:"brand_id"`
	PaletteJSON string    `db:"palette_json"`
	CreatedAt   time.Time `db:"created_at"`
}

// AddColorization records a palette for a brand.
func (s *Store) AddColorization(ctx context.Context, c *model.Colorization) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now().UTC()

	paletteJSON, err := json.Marshal(c.Palette)
	if err != nil {
		return fmt.Errorf("marshal palette: %w", err)
	}

	row := colorizationRow{
		ID:          c.ID,
		BrandID:     c.BrandID,
		PaletteJSON: string(paletteJSON),
		CreatedAt:   c.CreatedAt,
	}

	const q = `INSERT INTO colorizations (id, brand_id, palette_json, created_at)
		VALUES (:id, :brand_id, :palette_json, :created_at)`

	if _, err := s.db.NamedExecContext(ctx, q, row); err != nil {
		return fmt.Errorf("insert colorization: %w", err)
	}
	return nil
}

// LatestPalette returns the hex entries of the brand's most recent
// colorization. A brand with no colorizations yields a nil slice, not an
// error; the assembler supplies the default swatch.
func (s *Store) LatestPalette(ctx context.Context, brandID string) ([]string, error) {
	var row colorizationRow
	err := s.db.GetContext(ctx, &row,
		"SELECT * FROM colorizations WHERE brand_id = ? ORDER BY created_at DESC, id DESC LIMIT 1",
		brandID)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest palette: %w", err)
	}

	var palette []string
	if err := json.Unmarshal([]byte(row.PaletteJSON), &palette); err != nil {
		return nil, fmt.Errorf("unmarshal palette: %w", err)
	}
	return palette, nil
}

// CountBrandsAll returns the total brand count, for telemetry.
func (s *Store) CountBrandsAll(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM brands"); err != nil {
		return 0, fmt.Errorf("count brands: %w", err)
	}
	return count, nil
}
