package otp

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeGenerator_FixedWidthWithinRange(t *testing.T) {
	g := NewGenerator()
	for i := 0; i < 2000; i++ {
		code := g.Generate()
		require.Len(t, code, 4)
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 1000)
		assert.LessOrEqual(t, n, 9999)
	}
}

func TestRangeGenerator_SingleValueRange(t *testing.T) {
	g := RangeGenerator{Min: 4821, Max: 4821}
	assert.Equal(t, "4821", g.Generate())
}
