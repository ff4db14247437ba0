// Package brandctx assembles the structured brand-context payload served to
// AI assistants. Assembly is a pure function over stored records; every
// field has a defined fallback so missing inputs never panic.
package brandctx

import (
	"fmt"
	"strings"

	"github.com/brandkit/brandkit/internal/model"
)

// Section names accepted by the sections filter.
const (
	SectionIdentity    = "identity"
	SectionVoice       = "voice"
	SectionVisual      = "visual"
	SectionPositioning = "positioning"
)

// Sections returns the valid section names, for schema docs and validation.
func Sections() []string {
	return []string{SectionIdentity, SectionVoice, SectionVisual, SectionPositioning}
}

// maxLogoVariants caps how many logo variants the visual section carries.
const maxLogoVariants = 5

// BrandContext is the assembled payload. Sections not requested are nil and
// omitted from the serialized form.
type BrandContext struct {
	Brand    Summary          `json:"brand"`
	Identity *IdentitySection `json:"identity,omitempty"`
	Voice    *VoiceSection    `json:"voice,omitempty"`
	Visual   *VisualSection   `json:"visual,omitempty"`
}

// Summary is the minimal brand header present on every context payload.
type Summary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IdentitySection covers identity and positioning: the problem the brand
// answers, its solution, and its key attributes.
type IdentitySection struct {
	Challenge     string   `json:"challenge"`
	Solution      string   `json:"solution"`
	KeyAttributes []string `json:"key_attributes"`
}

// VoiceSection describes how the brand speaks.
type VoiceSection struct {
	Tone     []string `json:"tone"`
	Prefer   []string `json:"prefer"`
	Avoid    []string `json:"avoid"`
	Examples []string `json:"examples"`
}

// LogoVariant is one logo asset with its role tag.
type LogoVariant struct {
	URL    string `json:"url"`
	Format string `json:"format,omitempty"`
	Type   string `json:"type"` // "primary" for the newest, "variation" otherwise
}

// Swatch is one palette color with its positional usage label.
type Swatch struct {
	Hex   string `json:"hex"`
	Label string `json:"label"`
}

// Typography carries the brand's font choices.
type Typography struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

// VisualSection composes logo variants, the color palette, and typography.
type VisualSection struct {
	Logos      []LogoVariant `json:"logos"`
	Palette    []Swatch      `json:"palette"`
	Typography Typography    `json:"typography"`
}

// swatchLabels name palette entries by position; entries past the list get
// a numbered accent label.
var swatchLabels = []string{"primary", "secondary", "accent", "background", "text"}

// Assemble builds a BrandContext from stored records.
//
// sections filters which sections are computed: nil or empty means all.
// Requesting either "identity" or "positioning" yields the identity section.
// Unrequested sections are skipped entirely, not computed and discarded.
// includeAssets controls whether logo variants are attached to the visual
// section; the palette and typography are always included with it.
func Assemble(brand model.Brand, logos []model.Logo, taglines []model.Tagline, palette []string, sections []string, includeAssets bool) BrandContext {
	out := BrandContext{
		Brand: Summary{ID: brand.ID, Name: brand.Name},
	}

	if wantSection(sections, SectionIdentity) || wantSection(sections, SectionPositioning) {
		out.Identity = assembleIdentity(brand)
	}
	if wantSection(sections, SectionVoice) {
		out.Voice = assembleVoice(brand, taglines)
	}
	if wantSection(sections, SectionVisual) {
		out.Visual = assembleVisual(brand, logos, palette, includeAssets)
	}
	return out
}

// VoiceProfile extracts just the voice section, used by the voice validator.
func VoiceProfile(brand model.Brand, taglines []model.Tagline) VoiceSection {
	return *assembleVoice(brand, taglines)
}

func wantSection(sections []string, name string) bool {
	if len(sections) == 0 {
		return true
	}
	for _, s := range sections {
		if s == name {
			return true
		}
	}
	return false
}

func assembleIdentity(brand model.Brand) *IdentitySection {
	solution := brand.Concept
	if solution == "" {
		solution = brand.Name
	}
	return &IdentitySection{
		Challenge:     brand.Pitch,
		Solution:      solution,
		KeyAttributes: SplitCues(brand.DesirableCues),
	}
}

func assembleVoice(brand model.Brand, taglines []model.Tagline) *VoiceSection {
	prefer := SplitCues(brand.DesirableCues)
	voice := &VoiceSection{
		Tone:     prefer,
		Prefer:   prefer,
		Avoid:    SplitCues(brand.UndesirableCues),
		Examples: []string{},
	}

	primary := primaryTagline(taglines)
	if primary != "" {
		voice.Examples = append(voice.Examples, primary)
		secondary := likedTagline(taglines, primary)
		if secondary == "" {
			secondary = primary
		}
		voice.Examples = append(voice.Examples, secondary)
	}
	return voice
}

func assembleVisual(brand model.Brand, logos []model.Logo, palette []string, includeAssets bool) *VisualSection {
	visual := &VisualSection{
		Logos:   []LogoVariant{},
		Palette: []Swatch{},
		Typography: Typography{
			Primary:   brand.FontPrimary,
			Secondary: brand.FontSecondary,
		},
	}

	if includeAssets {
		// Logos arrive most-recent-first from the store; the newest is
		// the brand's primary mark, the rest are variations.
		count := len(logos)
		if count > maxLogoVariants {
			count = maxLogoVariants
		}
		for i := 0; i < count; i++ {
			kind := "variation"
			if i == 0 {
				kind = "primary"
			}
			visual.Logos = append(visual.Logos, LogoVariant{
				URL:    logos[i].URL,
				Format: logos[i].Format,
				Type:   kind,
			})
		}
	}

	if len(palette) == 0 {
		visual.Palette = []Swatch{{Hex: "#000000", Label: swatchLabels[0]}}
	} else {
		for i, hex := range palette {
			visual.Palette = append(visual.Palette, Swatch{Hex: hex, Label: swatchLabel(i)})
		}
	}
	return visual
}

func swatchLabel(i int) string {
	if i < len(swatchLabels) {
		return swatchLabels[i]
	}
	return fmt.Sprintf("accent-%d", i-len(swatchLabels)+2)
}

// SplitCues parses a comma-separated cues field into trimmed entries,
// dropping empties. A blank field yields an empty, non-nil slice.
func SplitCues(cues string) []string {
	out := []string{}
	for _, part := range strings.Split(cues, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func primaryTagline(taglines []model.Tagline) string {
	for _, t := range taglines {
		if t.IsPrimary {
			return t.Text
		}
	}
	if len(taglines) > 0 {
		return taglines[0].Text
	}
	return ""
}

func likedTagline(taglines []model.Tagline, exclude string) string {
	for _, t := range taglines {
		if t.IsLiked && t.Text != exclude {
			return t.Text
		}
	}
	return ""
}
