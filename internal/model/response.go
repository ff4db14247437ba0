package model

// Pagination describes the window of a paginated list response. HasMore is
// true when total records exceed limit+offset.
type Pagination struct {
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"has_more"`
}

// NewPagination computes pagination metadata for a list window.
func NewPagination(limit, offset int, total int64) Pagination {
	return Pagination{
		Limit:   limit,
		Offset:  offset,
		Total:   total,
		HasMore: total > int64(limit+offset),
	}
}

// ErrorResponse is the standard envelope for management API error responses.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody is the serialized form of an APIError plus the documentation
// URL keyed by its code.
type ErrorBody struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable,omitempty"`
	RetryAfter int            `json:"retry_after_seconds,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	DocsURL    string         `json:"docs_url"`
}

// NewErrorResponse builds the management API envelope for an APIError.
func NewErrorResponse(e *APIError) ErrorResponse {
	return ErrorResponse{Error: ErrorBody{
		Code:       e.Code,
		Message:    e.Message,
		Retryable:  e.Retryable,
		RetryAfter: e.RetryAfter,
		Details:    e.Details,
		DocsURL:    DocURL(e.Code),
	}}
}
