package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/brandkit/brandkit/internal/model"
)

// --------------------------------------------------------------------------
// Parameter extraction helpers
// --------------------------------------------------------------------------

// optionalString extracts an optional string argument from the tool request.
func optionalString(request mcp.CallToolRequest, key string) string {
	return request.GetString(key, "")
}

// optionalStringSlice extracts an optional string slice argument.
func optionalStringSlice(request mcp.CallToolRequest, key string) []string {
	return request.GetStringSlice(key, nil)
}

// optionalInt extracts an optional integer argument.
func optionalInt(request mcp.CallToolRequest, key string, defaultVal int) int {
	return request.GetInt(key, defaultVal)
}

// optionalFloat extracts an optional number argument.
func optionalFloat(request mcp.CallToolRequest, key string, defaultVal float64) float64 {
	return request.GetFloat(key, defaultVal)
}

// optionalBool extracts an optional boolean argument.
func optionalBool(request mcp.CallToolRequest, key string, defaultVal bool) bool {
	return request.GetBool(key, defaultVal)
}

// hasArg reports whether the argument was supplied at all, so explicit
// out-of-range values can be rejected instead of silently defaulted.
func hasArg(request mcp.CallToolRequest, key string) bool {
	args := request.GetArguments()
	if args == nil {
		return false
	}
	_, ok := args[key]
	return ok
}

// --------------------------------------------------------------------------
// Response builders
// --------------------------------------------------------------------------

// successJSON marshals data to JSON and returns it as a tool result.
func successJSON(data any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// apiErrorResult wraps a taxonomy error in the standard error envelope and
// returns it as a tool-level error. Errors returned this way are visible to
// the LLM so it can self-correct; they do NOT terminate the MCP session.
func apiErrorResult(err error) (*mcp.CallToolResult, error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		apiErr = model.ErrInternal
	}

	envelope := map[string]any{"error": apiErr}
	b, merr := json.Marshal(envelope)
	if merr != nil {
		return nil, fmt.Errorf("failed to marshal error envelope: %w", merr)
	}
	return mcp.NewToolResultError(string(b)), nil
}

// validationError builds a validation_failed envelope for a bad input.
func validationError(format string, args ...any) (*mcp.CallToolResult, error) {
	return apiErrorResult(model.ValidationError(format, args...))
}

func insufficientPermissions(perm string) *model.APIError {
	return model.ErrInsufficientPermissions.WithDetails(map[string]any{
		"required_permission": perm,
	})
}
