package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/brandkit/brandkit/internal/model"
)

func newOwnerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "owner",
		Short: "Manage owner accounts",
		Long:  "Create and list owner accounts that administer brands through the management API.",
	}

	cmd.AddCommand(newOwnerCreateCmd())
	cmd.AddCommand(newOwnerListCmd())

	return cmd
}

// ---------- owner create ----------

func newOwnerCreateCmd() *cobra.Command {
	var (
		email    string
		password string
		name     string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new owner account",
		Example: `  brandkit owner create --email owner@example.com --name "Ada"
  brandkit owner create --email owner@example.com --password secret`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOwnerCreate(email, password, name)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Owner email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Owner password (prompted if omitted)")
	cmd.Flags().StringVar(&name, "name", "", "Owner display name")
	cmd.MarkFlagRequired("email")

	return cmd
}

func runOwnerCreate(email, password, name string) error {
	if !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email address: %q", email)
	}

	if password == "" {
		fmt.Print("Password: ")
		pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Println()
		password = string(pwBytes)

		fmt.Print("Confirm password: ")
		confirmBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		fmt.Println()

		if password != string(confirmBytes) {
			return fmt.Errorf("passwords do not match")
		}
	}

	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	owner := &model.Owner{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		IsActive:     true,
	}
	if err := st.CreateOwner(context.Background(), owner); err != nil {
		return fmt.Errorf("create owner: %w", err)
	}

	fmt.Printf("Created owner %q\n", email)
	fmt.Printf("  ID: %s\n", owner.ID)
	return nil
}

// ---------- owner list ----------

func newOwnerListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List owner accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOwnerList(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runOwnerList(jsonOutput bool) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	owners, err := st.ListOwners(context.Background())
	if err != nil {
		return fmt.Errorf("list owners: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(owners)
	}

	if len(owners) == 0 {
		fmt.Println("No owner accounts. Use 'brandkit owner create' to create one.")
		return nil
	}

	fmt.Printf("%-38s %-28s %-20s %-8s\n", "ID", "EMAIL", "NAME", "ACTIVE")
	fmt.Printf("%-38s %-28s %-20s %-8s\n", "--", "-----", "----", "------")
	for _, o := range owners {
		active := "yes"
		if !o.IsActive {
			active = "no"
		}
		fmt.Printf("%-38s %-28s %-20s %-8s\n", o.ID, o.Email, o.Name, active)
	}

	return nil
}
