package service

import (
	"errors"

	"portfolio_api/internal/common"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

func isNotFound(err error) bool {
	return errors.Is(err, common.ErrNotFound)
}

// pageBounds clamps 1-based page and limit query values and returns the
// matching row offset.
func pageBounds(page, limit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit, (page - 1) * limit
}
