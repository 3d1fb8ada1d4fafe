package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/shape"
	"github.com/BurntSushi/xgb/xfixes"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xcursor"
)

// cursorGlyphs maps CSS-style cursor names onto the core cursor font.
var cursorGlyphs = map[string]uint16{
	"default":     xcursor.LeftPtr,
	"pointer":     xcursor.Hand2,
	"text":        xcursor.XTerm,
	"crosshair":   xcursor.Crosshair,
	"move":        xcursor.Fleur,
	"wait":        xcursor.Watch,
	"help":        xcursor.QuestionArrow,
	"ew-resize":   xcursor.SBHDoubleArrow,
	"ns-resize":   xcursor.SBVDoubleArrow,
	"nw-resize":   xcursor.TopLeftCorner,
	"ne-resize":   xcursor.TopRightCorner,
	"sw-resize":   xcursor.BottomLeftCorner,
	"se-resize":   xcursor.BottomRightCorner,
	"not-allowed": xcursor.Pirate,
}

// CursorGlyph resolves a cursor name, falling back to the default arrow.
func CursorGlyph(name string) uint16 {
	if glyph, ok := cursorGlyphs[name]; ok {
		return glyph
	}
	return xcursor.LeftPtr
}

// SetCursor shows the named cursor glyph over win. Cursors are created once
// per connection and reused.
func (c *Connection) SetCursor(win xproto.Window, glyph uint16) Cookie {
	c.cursorMu.Lock()
	cursor, ok := c.cursors[glyph]
	if !ok {
		var err error
		cursor, err = xcursor.CreateCursor(c.XUtil, glyph)
		if err != nil {
			c.cursorMu.Unlock()
			return errCookie(fmt.Errorf("failed to create cursor %d: %w", glyph, err))
		}
		c.cursors[glyph] = cursor
	}
	c.cursorMu.Unlock()
	return c.changeCursor(win, cursor)
}

// HideCursor shows a fully transparent cursor over win.
func (c *Connection) HideCursor(win xproto.Window) Cookie {
	c.cursorMu.Lock()
	if c.invisible == 0 {
		cursor, err := c.createInvisibleCursor()
		if err != nil {
			c.cursorMu.Unlock()
			return errCookie(err)
		}
		c.invisible = cursor
	}
	cursor := c.invisible
	c.cursorMu.Unlock()
	return c.changeCursor(win, cursor)
}

func (c *Connection) changeCursor(win xproto.Window, cursor xproto.Cursor) Cookie {
	return newCookie(xproto.ChangeWindowAttributesChecked(c.Conn(), win,
		xproto.CwCursor, []uint32{uint32(cursor)}))
}

// createInvisibleCursor builds a cursor from a cleared 1x1 bitmap.
func (c *Connection) createInvisibleCursor() (xproto.Cursor, error) {
	pixmap, err := xproto.NewPixmapId(c.Conn())
	if err != nil {
		return 0, fmt.Errorf("failed to allocate pixmap id: %w", err)
	}
	gc, err := xproto.NewGcontextId(c.Conn())
	if err != nil {
		return 0, fmt.Errorf("failed to allocate gc id: %w", err)
	}
	cursor, err := xproto.NewCursorId(c.Conn())
	if err != nil {
		return 0, fmt.Errorf("failed to allocate cursor id: %w", err)
	}

	if err := xproto.CreatePixmapChecked(c.Conn(), 1, pixmap, xproto.Drawable(c.Root), 1, 1).Check(); err != nil {
		return 0, fmt.Errorf("failed to create pixmap: %w", err)
	}
	defer xproto.FreePixmap(c.Conn(), pixmap)

	if err := xproto.CreateGCChecked(c.Conn(), gc, xproto.Drawable(pixmap),
		xproto.GcForeground, []uint32{0}).Check(); err != nil {
		return 0, fmt.Errorf("failed to create gc: %w", err)
	}
	xproto.PolyFillRectangle(c.Conn(), xproto.Drawable(pixmap), gc,
		[]xproto.Rectangle{{X: 0, Y: 0, Width: 1, Height: 1}})
	xproto.FreeGC(c.Conn(), gc)

	if err := xproto.CreateCursorChecked(c.Conn(), cursor, pixmap, pixmap,
		0, 0, 0, 0, 0, 0, 0, 0).Check(); err != nil {
		return 0, fmt.Errorf("failed to create cursor: %w", err)
	}
	return cursor, nil
}

// SetInputRegion restricts the area of win that accepts pointer input. A nil
// rectangle makes the window transparent to input.
func (c *Connection) SetInputRegion(win xproto.Window, rect *xproto.Rectangle) Cookie {
	if !c.hasXFixes {
		return Cookie{}
	}
	region, err := xfixes.NewRegionId(c.Conn())
	if err != nil {
		return errCookie(fmt.Errorf("failed to allocate region id: %w", err))
	}
	var rects []xproto.Rectangle
	if rect != nil {
		rects = append(rects, *rect)
	}
	pending := cookies{
		newCookie(xfixes.CreateRegionChecked(c.Conn(), region, rects)),
		newCookie(xfixes.SetWindowShapeRegionChecked(c.Conn(), win, shape.SkInput, 0, 0, region)),
	}
	xfixes.DestroyRegion(c.Conn(), region)
	return newCookie(pending)
}

// GrabPointer confines the pointer to win and returns the grab status.
func (c *Connection) GrabPointer(win xproto.Window) (byte, error) {
	const mask = xproto.EventMaskButtonPress | xproto.EventMaskButtonRelease |
		xproto.EventMaskEnterWindow | xproto.EventMaskLeaveWindow |
		xproto.EventMaskPointerMotion | xproto.EventMaskButtonMotion
	reply, err := xproto.GrabPointer(c.Conn(), true, win, mask,
		xproto.GrabModeAsync, xproto.GrabModeAsync, win, xproto.CursorNone,
		xproto.TimeCurrentTime).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to grab pointer: %w", err)
	}
	return reply.Status, nil
}

// UngrabPointer releases any active pointer grab held by this client.
func (c *Connection) UngrabPointer() Cookie {
	return newCookie(xproto.UngrabPointerChecked(c.Conn(), xproto.TimeCurrentTime))
}

// WarpPointer moves the pointer to (x, y) relative to win.
func (c *Connection) WarpPointer(win xproto.Window, x, y int16) Cookie {
	return newCookie(xproto.WarpPointerChecked(c.Conn(), xproto.WindowNone, win, 0, 0, 0, 0, x, y))
}
