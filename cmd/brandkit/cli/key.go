package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brandkit/brandkit/internal/model"
	"github.com/brandkit/brandkit/internal/service"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "key",
		Aliases: []string{"apikey"},
		Short:   "Manage brand-scoped API keys",
		Long:    "Create, list, and revoke brand-scoped API keys used by MCP clients.",
	}

	cmd.AddCommand(newKeyCreateCmd())
	cmd.AddCommand(newKeyListCmd())
	cmd.AddCommand(newKeyRevokeCmd())

	return cmd
}

// ---------- key create ----------

func newKeyCreateCmd() *cobra.Command {
	var (
		brandID string
		tier    string
		name    string
		expires int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new brand-scoped API key",
		Long:  "Generate a new API key bound to a brand and permission tier. The raw key is shown once and cannot be retrieved again.",
		Example: `  brandkit key create --brand <brand-id> --tier team --name "CI pipeline"
  brandkit key create --brand <brand-id> --tier owner --expires-in-days 90`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyCreate(brandID, tier, name, expires)
		},
	}

	cmd.Flags().StringVar(&brandID, "brand", "", "Brand to scope the key to (required)")
	cmd.Flags().StringVar(&tier, "tier", "team", "Permission tier: owner, team, or developer")
	cmd.Flags().StringVar(&name, "name", "", "Human-readable label for the key (required)")
	cmd.Flags().IntVar(&expires, "expires-in-days", 0, "Days until expiry (0 = never)")
	cmd.MarkFlagRequired("brand")
	cmd.MarkFlagRequired("name")

	return cmd
}

func runKeyCreate(brandID, tier, name string, expires int) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()

	brand, err := st.GetBrand(ctx, brandID)
	if err != nil {
		return fmt.Errorf("brand %q not found", brandID)
	}

	keys := service.NewKeyService(st, quietLogger())
	created, err := keys.Create(ctx, service.CreateKeyParams{
		OwnerID:       brand.OwnerID,
		BrandID:       brand.ID,
		Name:          name,
		Tier:          model.PermissionTier(tier),
		ExpiresInDays: expires,
	})
	if err != nil {
		return fmt.Errorf("create api key: %w", err)
	}

	fmt.Println("API Key created:")
	fmt.Println()
	fmt.Printf("  Key:   %s\n", created.Plaintext)
	fmt.Printf("  Brand: %s\n", brand.Name)
	fmt.Printf("  Tier:  %s\n", tier)
	if created.Key.ExpiresAt != nil {
		fmt.Printf("  Expires: %s\n", created.Key.ExpiresAt.Format("2006-01-02"))
	}
	fmt.Println()
	fmt.Println("  Save this key now - it cannot be retrieved again.")
	return nil
}

// ---------- key list ----------

func newKeyListCmd() *cobra.Command {
	var (
		brandID        string
		includeRevoked bool
		jsonOutput     bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List a brand's API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyList(brandID, includeRevoked, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&brandID, "brand", "", "Brand to list keys for (required)")
	cmd.Flags().BoolVar(&includeRevoked, "include-revoked", false, "Include revoked keys")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.MarkFlagRequired("brand")

	return cmd
}

func runKeyList(brandID string, includeRevoked, jsonOutput bool) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()

	brand, err := st.GetBrand(ctx, brandID)
	if err != nil {
		return fmt.Errorf("brand %q not found", brandID)
	}

	keys, err := st.ListAPIKeys(ctx, brand.OwnerID, brand.ID, includeRevoked)
	if err != nil {
		return fmt.Errorf("list api keys: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(keys)
	}

	if len(keys) == 0 {
		fmt.Println("No API keys for this brand. Use 'brandkit key create' to create one.")
		return nil
	}

	fmt.Printf("%-24s %-24s %-12s %-8s %-10s\n", "PREFIX", "NAME", "USES", "REVOKED", "EXPIRES")
	fmt.Printf("%-24s %-24s %-12s %-8s %-10s\n", "------", "----", "----", "-------", "-------")
	for _, k := range keys {
		revoked := "no"
		if k.Revoked() {
			revoked = "yes"
		}
		expires := "never"
		if k.ExpiresAt != nil {
			expires = k.ExpiresAt.Format("2006-01-02")
		}
		fmt.Printf("%-24s %-24s %-12d %-8s %-10s\n", k.KeyPrefix, k.Name, k.UsageCount, revoked, expires)
	}

	return nil
}

// ---------- key revoke ----------

func newKeyRevokeCmd() *cobra.Command {
	var brandID string

	cmd := &cobra.Command{
		Use:   "revoke <key-id>",
		Short: "Revoke an API key",
		Long:  "Permanently disable an API key. Revocation takes effect on the next authentication attempt.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyRevoke(brandID, args[0])
		},
	}

	cmd.Flags().StringVar(&brandID, "brand", "", "Brand the key belongs to (required)")
	cmd.MarkFlagRequired("brand")

	return cmd
}

func runKeyRevoke(brandID, keyID string) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()

	brand, err := st.GetBrand(ctx, brandID)
	if err != nil {
		return fmt.Errorf("brand %q not found", brandID)
	}

	keys := service.NewKeyService(st, quietLogger())
	if err := keys.Revoke(ctx, brand.OwnerID, brand.ID, keyID); err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}

	fmt.Printf("Revoked API key %s\n", keyID)
	return nil
}
