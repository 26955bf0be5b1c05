package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		page, size  int
		offset, lim int
	}{
		{page: 1, size: 10, offset: 0, lim: 10},
		{page: 2, size: 10, offset: 10, lim: 10},
		{page: 0, size: 5, offset: 0, lim: 5},
		{page: 3, size: 0, offset: 20, lim: DefaultPageSize},
		{page: 1, size: 101, offset: 0, lim: DefaultPageSize},
	}
	for _, tt := range tests {
		off, lim := Calculate(tt.page, tt.size)
		assert.Equal(t, tt.offset, off)
		assert.Equal(t, tt.lim, lim)
	}
}

func TestParsePage(t *testing.T) {
	t.Parallel()

	page, count, err := ParsePage("", "")
	require.NoError(t, err)
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultPageSize, count)

	page, count, err = ParsePage("3", "100")
	require.NoError(t, err)
	assert.Equal(t, 3, page)
	assert.Equal(t, 100, count)

	for _, in := range [][2]string{{"0", ""}, {"x", ""}, {"", "0"}, {"", "101"}, {"", "ten"}} {
		_, _, err := ParsePage(in[0], in[1])
		assert.ErrorIs(t, err, ErrBadPage, in)
	}
}
