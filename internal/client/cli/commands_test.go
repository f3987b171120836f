package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReductionLabel(t *testing.T) {
	tests := []struct {
		original, optimized int
		want                string
	}{
		{1000, 250, "75% smaller"},
		{1000, 1000, "no change"},
		{1000, 1500, "50% larger"},
		{33805, 417508, "1135% larger"},
		{0, 10, "no change"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, reductionLabel(tc.original, tc.optimized), "%d -> %d", tc.original, tc.optimized)
	}
}
