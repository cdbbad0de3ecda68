package metrics

import (
	"context"
	"errors"
	"io/fs"
	"strings"
)

// categorizeError maps an error to a low-cardinality label value.
func categorizeError(err error) string {
	if err == nil {
		return "none"
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, fs.ErrNotExist):
		return "not_found"
	case errors.Is(err, fs.ErrPermission):
		return "permission"
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "csv"), strings.Contains(errStr, "parse"), strings.Contains(errStr, "column"):
		return "parse_error"
	case strings.Contains(errStr, "not found"), strings.Contains(errStr, "no such file"):
		return "not_found"
	case strings.Contains(errStr, "database"), strings.Contains(errStr, "sql"):
		return "database_error"
	case strings.Contains(errStr, "file"):
		return "file_error"
	default:
		return "unknown"
	}
}
