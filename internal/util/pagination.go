package util

import (
	"errors"
	"strconv"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

var ErrBadPage = errors.New("page must be >= 1 and count must be between 1 and 100")

// Calculate clamps page and size and returns the row offset and limit.
func Calculate(page, size int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	offset = (page - 1) * size
	return offset, size
}

// ParsePage reads page and count query values strictly: empty means default, anything
// non-numeric or out of range is ErrBadPage.
func ParsePage(pageRaw, countRaw string) (page, count int, err error) {
	page, count = 1, DefaultPageSize
	if pageRaw != "" {
		page, err = strconv.Atoi(pageRaw)
		if err != nil || page < 1 {
			return 0, 0, ErrBadPage
		}
	}
	if countRaw != "" {
		count, err = strconv.Atoi(countRaw)
		if err != nil || count < 1 || count > MaxPageSize {
			return 0, 0, ErrBadPage
		}
	}
	return page, count, nil
}
