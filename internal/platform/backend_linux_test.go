//go:build linux

package platform

import (
	"math"
	"testing"

	"github.com/1broseidon/xwin/internal/dpi"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalHintsFlags(t *testing.T) {
	hints := SizeHints{
		MinSize:   &dpi.PhysicalSize{Width: 200, Height: 100},
		ResizeInc: &dpi.PhysicalSize{Width: 8, Height: 16},
	}

	nh := normalHintsFromSizeHints(hints)
	assert.Equal(t, uint(icccm.SizeHintPMinSize|icccm.SizeHintPResizeInc), nh.Flags)
	assert.Equal(t, uint(200), nh.MinWidth)
	assert.Equal(t, uint(16), nh.HeightInc)

	back := sizeHintsFromNormalHints(nh)
	require.NotNil(t, back.MinSize)
	require.NotNil(t, back.ResizeInc)
	assert.Nil(t, back.MaxSize)
	assert.Nil(t, back.BaseSize)
	assert.Nil(t, back.Position)
	assert.Equal(t, *hints.MinSize, *back.MinSize)
}

func TestNormalHintsUserSpecifiedCountsAsSet(t *testing.T) {
	nh := &icccm.NormalHints{Flags: icccm.SizeHintUSPosition | icccm.SizeHintUSSize, X: -10, Y: 20, Width: 640, Height: 480}
	h := sizeHintsFromNormalHints(nh)
	require.NotNil(t, h.Position)
	require.NotNil(t, h.Size)
	assert.Equal(t, dpi.PhysicalPosition{X: -10, Y: 20}, *h.Position)
}

func TestHintDimensionsClamp(t *testing.T) {
	assert.Equal(t, uint(math.MaxInt32), hintDim(math.MaxUint32))
	assert.Equal(t, int16(math.MaxInt16), clampInt16(100000))
	assert.Equal(t, int16(math.MinInt16), clampInt16(-100000))
	assert.Equal(t, uint16(math.MaxUint16), clampUint16(70000))
}
