package falcon

import (
	"fmt"
	"strings"
)

// APIError is a single entry from the vendor's "errors" array.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e APIError) String() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// QueryError means the vendor rejected an id query. Fatal for the run.
type QueryError struct {
	Op         string
	StatusCode int
	Errors     []APIError
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("falcon query %s failed: status %d: %s", e.Op, e.StatusCode, joinErrors(e.Errors))
}

// ResolveError means a bulk entity fetch failed. Fatal for the run.
type ResolveError struct {
	Op         string
	StatusCode int
	Errors     []APIError
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("falcon resolve %s failed: status %d: %s", e.Op, e.StatusCode, joinErrors(e.Errors))
}

func joinErrors(errs []APIError) string {
	if len(errs) == 0 {
		return "no error detail"
	}
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, "; ")
}
