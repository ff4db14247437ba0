package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the MCP payload cache",
	}

	cmd.AddCommand(newCacheClearCmd())

	return cmd
}

func newCacheClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop all cached MCP payloads",
		Long:  "Remove every cached brand context payload so the next tool call assembles fresh data. Useful after bulk imports.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheClear()
		},
	}

	return cmd
}

func runCacheClear() error {
	ch, err := openCache(quietLogger())
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}

	if err := ch.ClearAll(); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}

	fmt.Println("Cache cleared.")
	return nil
}
