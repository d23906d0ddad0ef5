package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

var (
	categoryName        string
	categoryDescription string
)

var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Manage categories and user access",
	Long: `Categories group documents within a tenant. A user only sees search
results from categories they have been granted.`,
}

var categoryAddCmd = &cobra.Command{
	Use:   "add [tenant] [category-id]",
	Short: "Create or rename a category",
	Args:  cobra.ExactArgs(2),
	RunE:  runCategoryAdd,
}

var categoryListCmd = &cobra.Command{
	Use:   "list [tenant]",
	Short: "List a tenant's categories",
	Args:  cobra.ExactArgs(1),
	RunE:  runCategoryList,
}

var categoryGrantCmd = &cobra.Command{
	Use:   "grant [tenant] [user] [category-id...]",
	Short: "Give a user access to categories",
	Args:  cobra.MinimumNArgs(3),
	RunE:  runCategoryGrant,
}

var categoryRevokeCmd = &cobra.Command{
	Use:   "revoke [tenant] [user] [category-id...]",
	Short: "Remove a user's access to categories",
	Args:  cobra.MinimumNArgs(3),
	RunE:  runCategoryRevoke,
}

var categoryAccessCmd = &cobra.Command{
	Use:   "access [tenant] [user]",
	Short: "Show the categories a user can read",
	Args:  cobra.ExactArgs(2),
	RunE:  runCategoryAccess,
}

func init() {
	categoryAddCmd.Flags().StringVar(&categoryName, "name", "", "display name")
	categoryAddCmd.Flags().StringVar(&categoryDescription, "description", "", "description")

	categoryCmd.AddCommand(categoryAddCmd)
	categoryCmd.AddCommand(categoryListCmd)
	categoryCmd.AddCommand(categoryGrantCmd)
	categoryCmd.AddCommand(categoryRevokeCmd)
	categoryCmd.AddCommand(categoryAccessCmd)
	rootCmd.AddCommand(categoryCmd)
}

func runCategoryAdd(cmd *cobra.Command, args []string) error {
	if categoryService == nil {
		return errNotConfigured("category")
	}

	c := &domain.Category{
		ID:          args[1],
		TenantID:    args[0],
		Name:        categoryName,
		Description: categoryDescription,
		CreatedAt:   time.Now().UTC(),
	}
	if err := categoryService.Add(cmd.Context(), c); err != nil {
		return fmt.Errorf("failed to add category: %w", err)
	}
	cmd.Printf("Category %s saved.\n", c.ID)
	return nil
}

func runCategoryList(cmd *cobra.Command, args []string) error {
	if categoryService == nil {
		return errNotConfigured("category")
	}

	categories, err := categoryService.List(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}
	if len(categories) == 0 {
		cmd.Println("No categories.")
		return nil
	}
	for _, c := range categories {
		name := c.Name
		if name == "" {
			name = c.ID
		}
		cmd.Printf("  %-20s %s\n", c.ID, name)
	}
	return nil
}

func runCategoryGrant(cmd *cobra.Command, args []string) error {
	if categoryService == nil {
		return errNotConfigured("category")
	}

	if err := categoryService.Grant(cmd.Context(), args[0], args[1], args[2:]...); err != nil {
		return fmt.Errorf("failed to grant access: %w", err)
	}
	cmd.Printf("Granted %s access to %s.\n", args[1], strings.Join(args[2:], ", "))
	return nil
}

func runCategoryRevoke(cmd *cobra.Command, args []string) error {
	if categoryService == nil {
		return errNotConfigured("category")
	}

	if err := categoryService.Revoke(cmd.Context(), args[0], args[1], args[2:]...); err != nil {
		return fmt.Errorf("failed to revoke access: %w", err)
	}
	cmd.Printf("Revoked %s access to %s.\n", args[1], strings.Join(args[2:], ", "))
	return nil
}

func runCategoryAccess(cmd *cobra.Command, args []string) error {
	if categoryService == nil {
		return errNotConfigured("category")
	}

	allowed, err := categoryService.AllowedCategories(cmd.Context(), args[0], args[1])
	if err != nil {
		return fmt.Errorf("failed to load access: %w", err)
	}
	if len(allowed) == 0 {
		cmd.Printf("%s has no category access.\n", args[1])
		return nil
	}
	cmd.Printf("%s can read: %s\n", args[1], strings.Join(allowed, ", "))
	return nil
}
