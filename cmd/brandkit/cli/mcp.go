package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	bmcp "github.com/brandkit/brandkit/internal/mcp"
	"github.com/brandkit/brandkit/internal/service"
)

func newMCPCmd() *cobra.Command {
	var (
		transport    string
		port         int
		defaultBrand string
		apiKey       string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP tool server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server exposing brand context tools
for AI agents. Supports stdio (default) and HTTP transports.

In stdio mode the server speaks JSON-RPC over stdin/stdout, suitable for
direct integration with Claude Desktop or other MCP clients; the API key is
taken from --api-key or BRANDKIT_MCP_API_KEY since there are no per-request
headers.

In HTTP mode each request authenticates with its own Authorization header.`,
		Example: `  brandkit mcp --api-key bk_brand_...        # stdio mode
  brandkit mcp --transport http --port 8081  # HTTP mode`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(transport, port, defaultBrand, apiKey)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport mode: stdio or http")
	cmd.Flags().IntVar(&port, "port", 8081, "HTTP port (only used with --transport http)")
	cmd.Flags().StringVar(&defaultBrand, "default-brand", "", "Brand ID to use when a tool call names none")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Credential for stdio mode")

	viper.BindPFlag("mcp.default_brand_id", cmd.Flags().Lookup("default-brand"))
	viper.BindPFlag("mcp.static_api_key", cmd.Flags().Lookup("api-key"))

	return cmd
}

func runMCP(transport string, port int, defaultBrand, apiKey string) error {
	logger := newLogger(false)

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer st.Close()

	ch, err := openCache(logger)
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}

	auth := service.NewAuthenticator(st, jwtSecret(), logger)

	if defaultBrand == "" {
		defaultBrand = viper.GetString("mcp.default_brand_id")
	}
	if apiKey == "" {
		apiKey = viper.GetString("mcp.static_api_key")
	}

	srv := bmcp.NewMCPServer(st, auth, ch, logger, defaultBrand, apiKey)

	switch transport {
	case "stdio":
		return srv.ServeStdio()
	case "http":
		addr := fmt.Sprintf(":%d", port)
		logger.Info("starting MCP HTTP server", "addr", addr)
		return srv.ServeHTTP(addr)
	default:
		return fmt.Errorf("unsupported transport %q; use 'stdio' or 'http'", transport)
	}
}
