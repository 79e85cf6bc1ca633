package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		page, size int
		from, lim  int
	}{
		{"first page", 1, 10, 0, 10},
		{"third page", 3, 10, 20, 10},
		{"zero page", 0, 5, 0, 5},
		{"zero size", 2, 0, DefaultPageSize, DefaultPageSize},
		{"too large", 1, 1000, 0, DefaultPageSize},
	}
	for _, tt := range tests {
		from, lim := Calculate(tt.page, tt.size)
		assert.Equal(t, tt.from, from, tt.name)
		assert.Equal(t, tt.lim, lim, tt.name)
	}
}

func TestParsePage(t *testing.T) {
	t.Parallel()

	from, lim := ParsePage("2", "15")
	assert.Equal(t, 15, from)
	assert.Equal(t, 15, lim)

	from, lim = ParsePage("x", "")
	assert.Equal(t, 0, from)
	assert.Equal(t, DefaultPageSize, lim)
}

func TestMeta(t *testing.T) {
	t.Parallel()

	m := Meta(2, 10, 10, 25)
	assert.Equal(t, int64(3), m["total_pages"])
	assert.Equal(t, true, m["has_prev"])
	assert.Equal(t, true, m["has_next"])

	m = Meta(3, 10, 20, 25)
	assert.Equal(t, false, m["has_next"])
	assert.Equal(t, 7, ParseIntDefault("7", 1))
	assert.Equal(t, 1, ParseIntDefault("x", 1))
}
