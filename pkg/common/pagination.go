package common

import (
	"net/http"
	"strconv"
)

// PageParams holds limit/offset paging
type PageParams struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// PaginationInfo contains pagination details
type PaginationInfo struct {
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	Total   int64 `json:"total"`
	HasNext bool  `json:"has_next"`
}

// ExtractPageParams reads limit and offset from the query string. Missing,
// malformed or non-positive limits fall back to defaultLimit; limits above
// maxLimit are clamped.
func ExtractPageParams(r *http.Request, defaultLimit, maxLimit int) PageParams {
	params := PageParams{
		Limit:  ParseLimit(r.URL.Query().Get("limit"), defaultLimit),
		Offset: 0,
	}

	if maxLimit > 0 && params.Limit > maxLimit {
		params.Limit = maxLimit
	}

	if offset := r.URL.Query().Get("offset"); offset != "" {
		if o, err := strconv.Atoi(offset); err == nil && o > 0 {
			params.Offset = o
		}
	}

	return params
}

// ParseLimit parses a positive integer, returning fallback otherwise
func ParseLimit(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// BuildPaginationInfo builds pagination metadata
func BuildPaginationInfo(params PageParams, total int64) *PaginationInfo {
	return &PaginationInfo{
		Limit:   params.Limit,
		Offset:  params.Offset,
		Total:   total,
		HasNext: int64(params.Offset+params.Limit) < total,
	}
}
