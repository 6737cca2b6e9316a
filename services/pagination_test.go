package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginationNormalizeClampsValues(t *testing.T) {
	cases := []struct {
		name       string
		in         Pagination
		wantLimit  int
		wantOffset int
	}{
		{"defaults", Pagination{}, 20, 0},
		{"zero limit", Pagination{Limit: 0, Offset: 5}, 20, 5},
		{"over max", Pagination{Limit: 500}, 100, 0},
		{"negative", Pagination{Limit: -1, Offset: -10}, 20, 0},
		{"in range", Pagination{Limit: 50, Offset: 100}, 50, 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.in.Normalize()
			assert.Equal(t, tc.wantLimit, got.Limit)
			assert.Equal(t, tc.wantOffset, got.Offset)
		})
	}
}
