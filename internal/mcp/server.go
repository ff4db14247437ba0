// Package mcp exposes brand identity data as Model Context Protocol tools.
// Every tool call is authenticated with a brand-scoped API key (or a legacy
// session token) before dispatch; tool schemas double as the validation
// source for inputs.
package mcp

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/brandkit/brandkit/internal/cache"
	"github.com/brandkit/brandkit/internal/service"
	"github.com/brandkit/brandkit/internal/store"
)

// MCPServer wraps the mcp-go server with brandkit tool and resource
// registrations. It serves brand context, voice validation, and asset
// lookups to AI agents over stdio or streamable HTTP.
type MCPServer struct {
	store          *store.Store
	auth           *service.Authenticator
	cache          *cache.Cache
	logger         *slog.Logger
	defaultBrandID string
	staticToken    string
	server         *server.MCPServer
}

// NewMCPServer creates an MCPServer pre-loaded with the brandkit tools and
// resources. defaultBrandID may be empty; it is the fallback brand for
// credentials that do not carry a brand scope. staticToken is the bearer
// credential used in stdio mode, where there is no transport header.
func NewMCPServer(st *store.Store, auth *service.Authenticator, ch *cache.Cache, logger *slog.Logger, defaultBrandID, staticToken string) *MCPServer {
	s := &MCPServer{
		store:          st,
		auth:           auth,
		cache:          ch,
		logger:         logger,
		defaultBrandID: defaultBrandID,
		staticToken:    staticToken,
	}

	mcpServer := server.NewMCPServer(
		"BrandKit",
		"0.1.0",
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(true),
		server.WithToolHandlerMiddleware(s.authMiddleware),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go MCPServer instance. Useful for
// advanced configuration or testing.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio starts the MCP server in stdio mode. This is the primary
// integration path for MCP clients that launch the server as a subprocess;
// the static token configured at startup authenticates every call.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode")
	return server.ServeStdio(s.server)
}

// ServeHTTP starts the MCP server in Streamable HTTP mode, listening on the
// given address (e.g. ":3001"). The Authorization header of each request is
// carried into the tool context and checked per call.
func (s *MCPServer) ServeHTTP(addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.server,
		server.WithHTTPContextFunc(bearerFromRequest),
	)
	s.logger.Info("MCP HTTP server starting", "addr", addr)
	return httpServer.Start(addr)
}

type ctxKey int

const (
	tokenKey ctxKey = iota
	identityKey
)

// bearerFromRequest copies the Authorization bearer token from an incoming
// HTTP request into the tool-call context.
func bearerFromRequest(ctx context.Context, r *http.Request) context.Context {
	header := r.Header.Get("Authorization")
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey, token)
}

// identityFrom returns the authenticated identity placed in the context by
// the auth middleware.
func identityFrom(ctx context.Context) (*service.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*service.Identity)
	return id, ok
}

// toolPermissions maps each tool to the capability its key must grant.
// Tools not listed require no capability beyond a valid credential.
var toolPermissions = map[string]string{
	"get_brand_context":    "read",
	"get_brand_assets":     "read",
	"list_brands":          "read",
	"validate_brand_voice": "validate",
}

// authMiddleware authenticates every tool call before dispatch. The bearer
// credential comes from the transport context in HTTP mode or the static
// token in stdio mode; failures short-circuit with an error envelope and the
// tool handler never runs.
func (s *MCPServer) authMiddleware(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		token, _ := ctx.Value(tokenKey).(string)
		if token == "" {
			token = s.staticToken
		}

		identity, err := s.auth.Authenticate(ctx, token)
		if err != nil {
			return apiErrorResult(err)
		}

		name := request.Params.Name
		if perm, ok := toolPermissions[name]; ok && !identity.Can(perm) {
			return apiErrorResult(insufficientPermissions(perm))
		}

		s.logger.Debug("mcp tool call", "tool", name, "brand_id", identity.BrandID)
		return next(context.WithValue(ctx, identityKey, identity), request)
	}
}

// resourceIdentity authenticates a resource read. The mcp-go tool middleware
// does not cover resources/read, so resource handlers resolve the credential
// themselves, from the same transport context the tool path uses. Resources
// only ever return brand data, so the read capability is required.
func (s *MCPServer) resourceIdentity(ctx context.Context) (*service.Identity, error) {
	token, _ := ctx.Value(tokenKey).(string)
	if token == "" {
		token = s.staticToken
	}

	identity, err := s.auth.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if !identity.Can("read") {
		return nil, insufficientPermissions("read")
	}
	return identity, nil
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(true),
	}
}

func boolPtr(b bool) *bool {
	return &b
}
