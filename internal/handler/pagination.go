package handler

import (
	"net/http"
	"strconv"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// pageParams reads limit/skip query parameters. Out-of-range or
// unparsable values fall back to the defaults rather than erroring.
func pageParams(r *http.Request) (limit, skip int) {
	limit = defaultPageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = min(n, maxPageLimit)
		}
	}
	if raw := r.URL.Query().Get("skip"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			skip = n
		}
	}
	return limit, skip
}

type listEnvelope struct {
	Items any `json:"items"`
	Total int `json:"total"`
	Limit int `json:"limit"`
	Skip  int `json:"skip"`
}
