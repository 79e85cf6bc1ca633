package util

import "strconv"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Calculate turns a 1-based page and a size into an offset and a bounded limit.
func Calculate(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return (page - 1) * size, size
}

// ParsePage is Calculate over raw query parameters; garbage falls back to defaults.
func ParsePage(pageRaw, sizeRaw string) (from, limit int) {
	page, _ := strconv.Atoi(pageRaw)
	size, _ := strconv.Atoi(sizeRaw)
	return Calculate(page, size)
}

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// Meta is the pagination block returned next to list data.
func Meta(page, limit, offset int, total int64) map[string]any {
	if page < 1 {
		page = 1
	}
	return map[string]any{
		"page":        page,
		"size":        limit,
		"total":       total,
		"total_pages": (total + int64(limit) - 1) / int64(limit),
		"has_prev":    page > 1,
		"has_next":    int64(offset+limit) < total,
	}
}
