package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brandkit/brandkit/internal/config"
	"github.com/brandkit/brandkit/internal/model"
	"github.com/brandkit/brandkit/internal/store"
)

func newBrandCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "brand",
		Short: "Manage brands",
		Long:  "Add, list, and bulk-import the brands served over MCP.",
	}

	cmd.AddCommand(newBrandAddCmd())
	cmd.AddCommand(newBrandListCmd())
	cmd.AddCommand(newBrandImportCmd())

	return cmd
}

// ---------- brand add ----------

func newBrandAddCmd() *cobra.Command {
	var (
		owner  string
		name   string
		pitch  string
		prefer string
		avoid  string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a single brand",
		Example: `  brandkit brand add --owner <owner-id> --name "Night Owl Coffee" \
    --pitch "Coffee for night owls" --prefer "bold,friendly" --avoid "corporate"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrandAdd(owner, name, pitch, prefer, avoid)
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Owner account ID (required)")
	cmd.Flags().StringVar(&name, "name", "", "Brand name (required)")
	cmd.Flags().StringVar(&pitch, "pitch", "", "One-line pitch")
	cmd.Flags().StringVar(&prefer, "prefer", "", "Comma-separated voice cues to prefer")
	cmd.Flags().StringVar(&avoid, "avoid", "", "Comma-separated voice cues to avoid")
	cmd.MarkFlagRequired("owner")
	cmd.MarkFlagRequired("name")

	return cmd
}

func runBrandAdd(owner, name, pitch, prefer, avoid string) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()

	if _, err := st.GetOwner(ctx, owner); err != nil {
		return fmt.Errorf("owner %q not found", owner)
	}

	brand := &model.Brand{
		OwnerID:         owner,
		Name:            name,
		Pitch:           pitch,
		DesirableCues:   prefer,
		UndesirableCues: avoid,
	}
	if err := st.CreateBrand(ctx, brand); err != nil {
		return fmt.Errorf("create brand: %w", err)
	}

	fmt.Printf("Created brand %q\n", name)
	fmt.Printf("  ID: %s\n", brand.ID)
	return nil
}

// ---------- brand list ----------

func newBrandListCmd() *cobra.Command {
	var (
		owner      string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List brands",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrandList(owner, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Filter by owner account ID")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runBrandList(owner string, jsonOutput bool) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	brands, err := st.ListBrands(context.Background(), store.ListBrandsOptions{
		OwnerID: owner,
		SortBy:  store.SortByName,
		Limit:   1000,
	})
	if err != nil {
		return fmt.Errorf("list brands: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(brands)
	}

	if len(brands) == 0 {
		fmt.Println("No brands. Use 'brandkit brand add' or 'brandkit brand import' to create some.")
		return nil
	}

	fmt.Printf("%-38s %-28s %s\n", "ID", "NAME", "PITCH")
	fmt.Printf("%-38s %-28s %s\n", "--", "----", "-----")
	for _, b := range brands {
		fmt.Printf("%-38s %-28s %s\n", b.ID, b.Name, b.Pitch)
	}

	return nil
}

// ---------- brand import ----------

func newBrandImportCmd() *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "import <seed-file.yaml>",
		Short: "Bulk-import brands from a YAML seed file",
		Long: `Import brands with their logos, taglines, and palettes from a YAML seed
file. All brands in the file are assigned to the given owner.`,
		Example: `  brandkit brand import --owner <owner-id> seeds/brands.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrandImport(owner, args[0])
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Owner account ID (required)")
	cmd.MarkFlagRequired("owner")

	return cmd
}

func runBrandImport(owner, path string) error {
	seed, err := config.LoadSeedFile(path)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()

	if _, err := st.GetOwner(ctx, owner); err != nil {
		return fmt.Errorf("owner %q not found", owner)
	}

	for _, b := range seed.Brands {
		brand := &model.Brand{
			OwnerID:         owner,
			Name:            b.Name,
			Pitch:           b.Pitch,
			Concept:         b.Concept,
			DesirableCues:   b.DesirableCues,
			UndesirableCues: b.UndesirableCues,
			FontPrimary:     b.FontPrimary,
			FontSecondary:   b.FontSecondary,
		}
		if err := st.CreateBrand(ctx, brand); err != nil {
			return fmt.Errorf("create brand %q: %w", b.Name, err)
		}

		for _, l := range b.Logos {
			logo := &model.Logo{BrandID: brand.ID, URL: l.URL, Format: l.Format}
			if err := st.AddLogo(ctx, logo); err != nil {
				return fmt.Errorf("brand %q: add logo: %w", b.Name, err)
			}
		}
		for _, t := range b.Taglines {
			tagline := &model.Tagline{
				BrandID:   brand.ID,
				Text:      t.Text,
				IsPrimary: t.Primary,
				IsLiked:   t.Liked,
			}
			if err := st.AddTagline(ctx, tagline); err != nil {
				return fmt.Errorf("brand %q: add tagline: %w", b.Name, err)
			}
		}
		if len(b.Palette) > 0 {
			color := &model.Colorization{BrandID: brand.ID, Palette: b.Palette}
			if err := st.AddColorization(ctx, color); err != nil {
				return fmt.Errorf("brand %q: add palette: %w", b.Name, err)
			}
		}

		fmt.Printf("Imported %q (%s)\n", b.Name, brand.ID)
	}

	fmt.Printf("Imported %d brands from %s\n", len(seed.Brands), path)
	return nil
}
