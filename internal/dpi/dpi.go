// Package dpi provides logical and physical geometry types and the
// conversions between them.
package dpi

import "math"

// BaseDPI is the pixel density that maps to a scale factor of 1.0.
const BaseDPI = 96.0

// ValidScaleFactor reports whether f can be used as a scale factor.
func ValidScaleFactor(f float64) bool {
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}

// ScaleFromDPI converts a dots-per-inch value into a scale factor.
func ScaleFromDPI(dpi float64) float64 {
	return dpi / BaseDPI
}

// PhysicalSize is a size in device pixels.
type PhysicalSize struct {
	Width  uint32
	Height uint32
}

// LogicalSize is a size in scale-independent units.
type LogicalSize struct {
	Width  float64
	Height float64
}

// Size is either a PhysicalSize or a LogicalSize.
type Size interface {
	ToPhysical(scale float64) PhysicalSize
	ToLogical(scale float64) LogicalSize
}

// ToPhysical returns s unchanged.
func (s PhysicalSize) ToPhysical(float64) PhysicalSize { return s }

// ToLogical divides s by scale.
func (s PhysicalSize) ToLogical(scale float64) LogicalSize {
	return LogicalSize{Width: float64(s.Width) / scale, Height: float64(s.Height) / scale}
}

// Scale multiplies both dimensions by ratio and rounds to the nearest pixel.
func (s PhysicalSize) Scale(ratio float64) PhysicalSize {
	return PhysicalSize{Width: roundU32(float64(s.Width) * ratio), Height: roundU32(float64(s.Height) * ratio)}
}

// ToPhysical multiplies s by scale and rounds to the nearest pixel.
func (s LogicalSize) ToPhysical(scale float64) PhysicalSize {
	return PhysicalSize{Width: roundU32(s.Width * scale), Height: roundU32(s.Height * scale)}
}

// ToLogical returns s unchanged.
func (s LogicalSize) ToLogical(float64) LogicalSize { return s }

// PhysicalPosition is a position in device pixels.
type PhysicalPosition struct {
	X int32
	Y int32
}

// LogicalPosition is a position in scale-independent units.
type LogicalPosition struct {
	X float64
	Y float64
}

// Position is either a PhysicalPosition or a LogicalPosition.
type Position interface {
	ToPhysical(scale float64) PhysicalPosition
	ToLogical(scale float64) LogicalPosition
}

func (p PhysicalPosition) ToPhysical(float64) PhysicalPosition { return p }

func (p PhysicalPosition) ToLogical(scale float64) LogicalPosition {
	return LogicalPosition{X: float64(p.X) / scale, Y: float64(p.Y) / scale}
}

func (p LogicalPosition) ToPhysical(scale float64) PhysicalPosition {
	return PhysicalPosition{X: int32(math.Round(p.X * scale)), Y: int32(math.Round(p.Y * scale))}
}

func (p LogicalPosition) ToLogical(float64) LogicalPosition { return p }

// ClampSize bounds size by the optional min and max constraints, each
// converted to physical pixels at scale. A zero max dimension is unbounded.
func ClampSize(size PhysicalSize, min, max Size, scale float64) PhysicalSize {
	if min != nil {
		m := min.ToPhysical(scale)
		size.Width = maxU32(size.Width, m.Width)
		size.Height = maxU32(size.Height, m.Height)
	}
	if max != nil {
		m := max.ToPhysical(scale)
		if m.Width > 0 {
			size.Width = minU32(size.Width, m.Width)
		}
		if m.Height > 0 {
			size.Height = minU32(size.Height, m.Height)
		}
	}
	return size
}

func roundU32(v float64) uint32 {
	if v <= 0 {
		return 0
	}
	if v >= math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(math.Round(v))
}

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

func minU32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
