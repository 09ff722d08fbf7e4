package handlers

import (
	"errors"
	"strconv"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

var errInvalidPagination = errors.New("page and limit must be positive integers")

// parsePaginationParams reads 1-based page/limit query values. Absent values
// fall back to the defaults; the limit is capped to keep responses bounded.
func parsePaginationParams(pageStr, limitStr string) (page, limit int64, err error) {
	page = 1
	limit = defaultPageLimit

	if pageStr != "" {
		p, err := strconv.ParseInt(pageStr, 10, 64)
		if err != nil || p < 1 {
			return 0, 0, errInvalidPagination
		}
		page = p
	}

	if limitStr != "" {
		l, err := strconv.ParseInt(limitStr, 10, 64)
		if err != nil || l < 1 {
			return 0, 0, errInvalidPagination
		}
		if l > maxPageLimit {
			l = maxPageLimit
		}
		limit = l
	}

	return page, limit, nil
}
