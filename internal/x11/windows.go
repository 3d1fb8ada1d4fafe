package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// WindowEventMask is the event interest of every window this package
// creates. Focus and crossing events stand in for XInput2 focus tracking.
const WindowEventMask = xproto.EventMaskExposure |
	xproto.EventMaskStructureNotify |
	xproto.EventMaskVisibilityChange |
	xproto.EventMaskKeyPress |
	xproto.EventMaskKeyRelease |
	xproto.EventMaskKeymapState |
	xproto.EventMaskButtonPress |
	xproto.EventMaskButtonRelease |
	xproto.EventMaskPointerMotion |
	xproto.EventMaskEnterWindow |
	xproto.EventMaskLeaveWindow |
	xproto.EventMaskFocusChange |
	xproto.EventMaskPropertyChange

// CreateParams are the creation-time attributes of a window.
type CreateParams struct {
	Parent           xproto.Window
	X, Y             int16
	Width, Height    uint16
	InputOnly        bool
	Visual           xproto.Visualid // 0 copies the parent's visual
	Depth            byte
	OverrideRedirect bool
}

// CreateWindow allocates and creates a window. When an explicit visual is
// given a matching colormap is created for it.
func (c *Connection) CreateWindow(p CreateParams) (xproto.Window, Cookie) {
	wid, err := xproto.NewWindowId(c.Conn())
	if err != nil {
		return 0, errCookie(fmt.Errorf("failed to allocate window id: %w", err))
	}

	class := uint16(xproto.WindowClassInputOutput)
	if p.InputOnly {
		class = xproto.WindowClassInputOnly
	}

	var pending cookies
	var mask uint32
	var values []uint32
	depth := byte(xproto.WindowClassCopyFromParent)
	visual := xproto.Visualid(xproto.WindowClassCopyFromParent)

	if p.Visual != 0 && !p.InputOnly {
		cmap, err := xproto.NewColormapId(c.Conn())
		if err != nil {
			return 0, errCookie(fmt.Errorf("failed to allocate colormap id: %w", err))
		}
		pending = append(pending, newCookie(xproto.CreateColormapChecked(c.Conn(),
			xproto.ColormapAllocNone, cmap, p.Parent, p.Visual)))
		depth = p.Depth
		visual = p.Visual
		mask |= xproto.CwBorderPixel
		values = append(values, 0)
		if p.OverrideRedirect {
			mask |= xproto.CwOverrideRedirect
			values = append(values, 1)
		}
		mask |= xproto.CwEventMask | xproto.CwColormap
		values = append(values, WindowEventMask, uint32(cmap))
	} else {
		if p.OverrideRedirect {
			mask |= xproto.CwOverrideRedirect
			values = append(values, 1)
		}
		mask |= xproto.CwEventMask
		values = append(values, WindowEventMask)
	}

	pending = append(pending, newCookie(xproto.CreateWindowChecked(c.Conn(), depth, wid, p.Parent,
		p.X, p.Y, p.Width, p.Height, 0, class, visual, mask, values)))
	return wid, newCookie(pending)
}

// DestroyWindow destroys win on the server.
func (c *Connection) DestroyWindow(win xproto.Window) Cookie {
	return newCookie(xproto.DestroyWindowChecked(c.Conn(), win))
}

// MapRaise maps win and raises it to the top of the stack.
func (c *Connection) MapRaise(win xproto.Window) Cookie {
	return newCookie(cookies{
		newCookie(xproto.MapWindowChecked(c.Conn(), win)),
		newCookie(xproto.ConfigureWindowChecked(c.Conn(), win,
			xproto.ConfigWindowStackMode, []uint32{xproto.StackModeAbove})),
	})
}

// Unmap unmaps win.
func (c *Connection) Unmap(win xproto.Window) Cookie {
	return newCookie(xproto.UnmapWindowChecked(c.Conn(), win))
}

// Geometry is a partial ConfigureWindow request; nil fields are unchanged.
type Geometry struct {
	X, Y          *int32
	Width, Height *uint32
}

// Configure moves and/or resizes win.
func (c *Connection) Configure(win xproto.Window, g Geometry) Cookie {
	var mask uint16
	var values []uint32
	if g.X != nil {
		mask |= xproto.ConfigWindowX
		values = append(values, uint32(*g.X))
	}
	if g.Y != nil {
		mask |= xproto.ConfigWindowY
		values = append(values, uint32(*g.Y))
	}
	if g.Width != nil {
		mask |= xproto.ConfigWindowWidth
		values = append(values, *g.Width)
	}
	if g.Height != nil {
		mask |= xproto.ConfigWindowHeight
		values = append(values, *g.Height)
	}
	if mask == 0 {
		return Cookie{}
	}
	return newCookie(xproto.ConfigureWindowChecked(c.Conn(), win, mask, values))
}

// SetInputFocus gives win the keyboard focus.
func (c *Connection) SetInputFocus(win xproto.Window) Cookie {
	return newCookie(xproto.SetInputFocusChecked(c.Conn(), xproto.InputFocusParent, win, xproto.TimeCurrentTime))
}

// InnerPosition returns the client area origin of win in root coordinates.
func (c *Connection) InnerPosition(win xproto.Window) (int, int, error) {
	translate, err := xproto.TranslateCoordinates(c.Conn(), win, c.Root, 0, 0).Reply()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to translate coordinates: %w", err)
	}
	return int(translate.DstX), int(translate.DstY), nil
}

// InnerSize returns the client area size of win.
func (c *Connection) InnerSize(win xproto.Window) (uint32, uint32, error) {
	geom, err := xproto.GetGeometry(c.Conn(), xproto.Drawable(win)).Reply()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get geometry: %w", err)
	}
	return uint32(geom.Width), uint32(geom.Height), nil
}

// FrameSource records how frame extents were obtained.
type FrameSource int

const (
	FrameSupported FrameSource = iota
	FrameUnsupportedNested
	FrameUnsupportedBordered
)

// FrameExtents are the decoration sizes around a client area.
type FrameExtents struct {
	Left, Right, Top, Bottom uint32
	Source                   FrameSource
}

// GetFrameExtents returns the window decoration sizes. When the window manager
// does not publish _NET_FRAME_EXTENTS they are derived from the reparenting
// frame window, or from the border width for non-reparenting managers.
func (c *Connection) GetFrameExtents(win xproto.Window) (FrameExtents, error) {
	if c.supportsHint("_NET_FRAME_EXTENTS") {
		if extents, err := ewmh.FrameExtentsGet(c.XUtil, win); err == nil {
			return FrameExtents{
				Left:   uint32(extents.Left),
				Right:  uint32(extents.Right),
				Top:    uint32(extents.Top),
				Bottom: uint32(extents.Bottom),
				Source: FrameSupported,
			}, nil
		}
	}

	geom, err := xproto.GetGeometry(c.Conn(), xproto.Drawable(win)).Reply()
	if err != nil {
		return FrameExtents{}, fmt.Errorf("failed to get geometry: %w", err)
	}

	outer, err := c.topLevelAncestor(win)
	if err != nil {
		return FrameExtents{}, err
	}
	if outer == win {
		b := uint32(geom.BorderWidth)
		return FrameExtents{Left: b, Right: b, Top: b, Bottom: b, Source: FrameUnsupportedBordered}, nil
	}

	outerGeom, err := xproto.GetGeometry(c.Conn(), xproto.Drawable(outer)).Reply()
	if err != nil {
		return FrameExtents{}, fmt.Errorf("failed to get frame geometry: %w", err)
	}
	offset, err := xproto.TranslateCoordinates(c.Conn(), win, outer, 0, 0).Reply()
	if err != nil {
		return FrameExtents{}, fmt.Errorf("failed to translate coordinates: %w", err)
	}

	diffX := saturatingSub(uint32(outerGeom.Width), uint32(geom.Width))
	diffY := saturatingSub(uint32(outerGeom.Height), uint32(geom.Height))
	left := uint32(max(int(offset.DstX), 0))
	top := uint32(max(int(offset.DstY), 0))
	return FrameExtents{
		Left:   left,
		Right:  saturatingSub(diffX, left),
		Top:    top,
		Bottom: saturatingSub(diffY, top),
		Source: FrameUnsupportedNested,
	}, nil
}

// topLevelAncestor walks up the tree from win to the child of the root.
func (c *Connection) topLevelAncestor(win xproto.Window) (xproto.Window, error) {
	current := win
	for {
		tree, err := xproto.QueryTree(c.Conn(), current).Reply()
		if err != nil {
			return 0, fmt.Errorf("failed to query tree: %w", err)
		}
		if tree.Parent == tree.Root || tree.Parent == 0 {
			return current, nil
		}
		current = tree.Parent
	}
}

func (c *Connection) supportsHint(name string) bool {
	supported, err := ewmh.SupportedGet(c.XUtil)
	if err != nil {
		return false
	}
	for _, s := range supported {
		if s == name {
			return true
		}
	}
	return false
}

// FindVisual looks up a visual on the default screen and returns its depth.
func (c *Connection) FindVisual(id xproto.Visualid) (byte, bool) {
	for _, d := range c.Screen().AllowedDepths {
		for _, v := range d.Visuals {
			if v.VisualId == id {
				return d.Depth, true
			}
		}
	}
	return 0, false
}

// TransparentVisual finds a 32-bit TrueColor visual with an alpha channel.
func (c *Connection) TransparentVisual() (xproto.Visualid, bool) {
	for _, d := range c.Screen().AllowedDepths {
		if d.Depth != 32 {
			continue
		}
		for _, v := range d.Visuals {
			if v.Class == xproto.VisualClassTrueColor {
				return v.VisualId, true
			}
		}
	}
	return 0, false
}

func saturatingSub(a, b uint32) uint32 {
	if b > a {
		return 0
	}
	return a - b
}
