package model

import "time"

// Brand is a stored brand identity record. The cue fields hold
// comma-separated lists as entered during onboarding; they are parsed into
// structured form by the brandctx assembler at read time.
type Brand struct {
	ID              string    `json:"id" db:"id"`
	OwnerID         string    `json:"owner_id" db:"owner_id"`
	Name            string    `json:"name" db:"name"`
	Pitch           string    `json:"pitch" db:"pitch"`
	Concept         string    `json:"concept" db:"concept"`
	DesirableCues   string    `json:"desirable_cues" db:"desirable_cues"`
	UndesirableCues string    `json:"undesirable_cues" db:"undesirable_cues"`
	FontPrimary     string    `json:"font_primary" db:"font_primary"`
	FontSecondary   string    `json:"font_secondary" db:"font_secondary"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Logo is a generated or uploaded logo asset belonging to a brand.
type Logo struct {
	ID        string    `json:"id" db:"id"`
	BrandID   string    `json:"brand_id" db:"brand_id"`
	URL       string    `json:"url" db:"url"`
	Format    string    `json:"format" db:"format"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Tagline is a candidate tagline for a brand. At most one tagline per brand
// is primary; liked taglines feed the voice examples.
type Tagline struct {
	ID        string    `json:"id" db:"id"`
	BrandID   string    `json:"brand_id" db:"brand_id"`
	Text      string    `json:"text" db:"text"`
	IsPrimary bool      `json:"is_primary" db:"is_primary"`
	IsLiked   bool      `json:"is_liked" db:"is_liked"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Colorization is a stored color palette for a brand. Palette is an ordered
// list of hex strings; the most recent colorization is the brand's current
// palette.
type Colorization struct {
	ID        string    `json:"id" db:"id"`
	BrandID   string    `json:"brand_id" db:"brand_id"`
	Palette   []string  `json:"palette"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
