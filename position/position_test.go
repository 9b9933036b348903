package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/ammbt/univ3"
)

func TestNewRange(t *testing.T) {
	r, err := NewRange(1800, 2200, 1000)
	require.NoError(t, err)
	assert.Equal(t, 2000.0, r.Center())
	assert.InDelta(t, 0.2, r.Width(), 1e-12)

	_, err = NewRange(2200, 1800, 1000)
	assert.ErrorIs(t, err, ErrRange)
	_, err = NewRange(0, 2200, 1000)
	assert.ErrorIs(t, err, ErrRange)
	_, err = NewRange(1800, 1800, 1000)
	assert.ErrorIs(t, err, ErrRange)
	_, err = NewRange(1800, 2200, -1)
	assert.ErrorIs(t, err, ErrRange)
}

func TestRangeContains(t *testing.T) {
	r := Range{Lower: 1800, Upper: 2200, Liquidity: 1}
	assert.True(t, r.Contains(1800))
	assert.True(t, r.Contains(2000))
	assert.True(t, r.Contains(2200))
	assert.False(t, r.Contains(1799.99))
	assert.False(t, r.Contains(2200.01))
}

func TestEmptyPosition(t *testing.T) {
	var p Position
	assert.True(t, p.Empty())
	assert.False(t, p.Contains(2000))
	assert.Zero(t, p.Center())

	v, err := p.ValueAt(2000)
	require.NoError(t, err)
	assert.Zero(t, v)

	p.Ranges = []Range{{Lower: 1800, Upper: 2200, Liquidity: 0}}
	assert.True(t, p.Empty())
}

func TestPositionValueSumsRanges(t *testing.T) {
	p := Position{Ranges: []Range{
		{Lower: 1800, Upper: 2000, Liquidity: 500},
		{Lower: 2000, Upper: 2200, Liquidity: 700},
	}}

	v, err := p.ValueAt(1950)
	require.NoError(t, err)

	v1, err := univ3.ValueAtPrice(1950, 1800, 2000, 500)
	require.NoError(t, err)
	v2, err := univ3.ValueAtPrice(1950, 2000, 2200, 700)
	require.NoError(t, err)
	assert.Equal(t, v1+v2, v)
}

func TestPositionBounds(t *testing.T) {
	p := Position{Ranges: []Range{
		{Lower: 1900, Upper: 2000, Liquidity: 1},
		{Lower: 1800, Upper: 2200, Liquidity: 0}, // no liquidity, ignored
		{Lower: 2000, Upper: 2100, Liquidity: 1},
	}}
	lower, upper, ok := p.Bounds()
	require.True(t, ok)
	assert.Equal(t, 1900.0, lower)
	assert.Equal(t, 2100.0, upper)
	assert.Equal(t, 2000.0, p.Center())
	assert.True(t, p.Contains(2050))
	assert.False(t, p.Contains(2150))
}

func TestPositionValuationError(t *testing.T) {
	p := Position{Ranges: []Range{{Lower: 1800, Upper: 2200, Liquidity: 1}}}
	_, err := p.ValueAt(-5)
	assert.ErrorIs(t, err, univ3.ErrValuation)
}
