package model

import "fmt"

// ErrorCode is a machine-readable error identifier from the fixed taxonomy.
// Every error returned on the wire carries one of these codes.
type ErrorCode string

const (
	CodeCredentialMissing       ErrorCode = "credential_missing"
	CodeCredentialMalformed     ErrorCode = "credential_malformed"
	CodeCredentialNotFound      ErrorCode = "credential_not_found"
	CodeCredentialRevoked       ErrorCode = "credential_revoked"
	CodeCredentialExpired       ErrorCode = "credential_expired"
	CodeInsufficientPermissions ErrorCode = "insufficient_permissions"
	CodeValidationFailed        ErrorCode = "validation_failed"
	CodeBrandNotSpecified       ErrorCode = "brand_not_specified"
	CodeBrandNotFound           ErrorCode = "brand_not_found"
	CodeUpstreamUnavailable     ErrorCode = "upstream_unavailable"
	CodeUpstreamRateLimited     ErrorCode = "upstream_rate_limited"
	CodeInternalError           ErrorCode = "internal_error"
)

// APIError is a structured error carrying a taxonomy code. It is safe to
// serialize to clients: no stack traces or internal error strings.
type APIError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable,omitempty"`
	RetryAfter int            `json:"retry_after_seconds,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithDetails returns a copy of the error carrying extra detail fields.
// The receiver is not mutated, so the package-level sentinels stay clean.
func (e *APIError) WithDetails(details map[string]any) *APIError {
	clone := *e
	clone.Details = details
	return &clone
}

// WithMessage returns a copy of the error with a more specific message.
func (e *APIError) WithMessage(format string, args ...any) *APIError {
	clone := *e
	clone.Message = fmt.Sprintf(format, args...)
	return &clone
}

// Authentication failure sentinels. The Authenticator returns these directly;
// callers compare with errors.Is (APIError values compare by pointer, so the
// With* helpers produce errors that still match via Is).
var (
	ErrCredentialMissing   = &APIError{Code: CodeCredentialMissing, Message: "missing credential"}
	ErrCredentialMalformed = &APIError{Code: CodeCredentialMalformed, Message: "malformed key"}
	ErrCredentialNotFound  = &APIError{Code: CodeCredentialNotFound, Message: "invalid key"}
	ErrCredentialRevoked   = &APIError{Code: CodeCredentialRevoked, Message: "key has been revoked"}
	ErrCredentialExpired   = &APIError{Code: CodeCredentialExpired, Message: "key has expired"}

	ErrInsufficientPermissions = &APIError{Code: CodeInsufficientPermissions, Message: "key does not grant this operation"}
	ErrBrandNotSpecified       = &APIError{Code: CodeBrandNotSpecified, Message: "no brand specified and no default configured"}
	ErrBrandNotFound           = &APIError{Code: CodeBrandNotFound, Message: "brand not found"}
	ErrUpstreamUnavailable     = &APIError{Code: CodeUpstreamUnavailable, Message: "upstream data store unavailable", Retryable: true}
	ErrInternal                = &APIError{Code: CodeInternalError, Message: "internal error"}
)

// Is makes clones produced by WithDetails/WithMessage match their sentinel
// under errors.Is by comparing taxonomy codes.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Code == e.Code
}

// ValidationError builds a validation_failed error for a bad input field.
func ValidationError(format string, args ...any) *APIError {
	return &APIError{Code: CodeValidationFailed, Message: fmt.Sprintf(format, args...)}
}

// RateLimited builds a retryable upstream_rate_limited error with an
// optional retry-after hint in seconds.
func RateLimited(retryAfterSeconds int) *APIError {
	return &APIError{
		Code:       CodeUpstreamRateLimited,
		Message:    "upstream rate limited",
		Retryable:  true,
		RetryAfter: retryAfterSeconds,
	}
}

// HTTPStatus maps the taxonomy code to the management API status line.
func (e *APIError) HTTPStatus() int {
	switch e.Code {
	case CodeCredentialMissing, CodeCredentialMalformed, CodeCredentialNotFound,
		CodeCredentialRevoked, CodeCredentialExpired:
		return 401
	case CodeInsufficientPermissions:
		return 403
	case CodeValidationFailed, CodeBrandNotSpecified:
		return 400
	case CodeBrandNotFound:
		return 404
	case CodeUpstreamRateLimited:
		return 429
	case CodeUpstreamUnavailable:
		return 503
	default:
		return 500
	}
}

// errorDocsBase is the operator documentation root; each taxonomy code maps
// to a stable anchor under it.
const errorDocsBase = "https://docs.brandkit.dev/errors"

// DocURL returns the documentation URL for an error code. The management API
// appends this to error responses for operator-facing tooling.
func DocURL(code ErrorCode) string {
	return errorDocsBase + "#" + string(code)
}
