//go:build linux

package platform

import (
	"fmt"
	"math"
	"sort"

	"github.com/1broseidon/xwin/internal/dpi"
	"github.com/1broseidon/xwin/internal/x11"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
)

// LinuxBackend wraps an existing X11 connection behind the platform Backend interface.
type LinuxBackend struct {
	conn *x11.Connection
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn}
}

// NewLinuxBackendFromDisplay creates a new Linux backend by opening a fresh X11 connection.
func NewLinuxBackendFromDisplay(display string) (*LinuxBackend, error) {
	conn, err := x11.NewConnection(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &LinuxBackend{conn: conn}, nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// Connection returns the underlying X11 connection for the event loop.
func (b *LinuxBackend) Connection() *x11.Connection {
	return b.conn
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (b *LinuxBackend) RootWindow() WindowID {
	return WindowID(b.conn.Root)
}

func (b *LinuxBackend) Screen() int {
	return b.conn.Conn().DefaultScreen
}

func (b *LinuxBackend) Sync() error {
	return b.conn.Sync()
}

func (b *LinuxBackend) WMName() string {
	return b.conn.WMName()
}

func (b *LinuxBackend) Atom(name string) (uint32, error) {
	atom, err := b.conn.Atom(name)
	return uint32(atom), err
}

// Monitors returns all active outputs ordered by CRTC.
func (b *LinuxBackend) Monitors() ([]Monitor, error) {
	monitors, err := b.conn.GetMonitors()
	if err != nil {
		return nil, err
	}

	out := make([]Monitor, 0, len(monitors))
	for _, m := range monitors {
		out = append(out, monitorFromX11(m))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})

	return out, nil
}

// PrimaryMonitor returns the primary output.
func (b *LinuxBackend) PrimaryMonitor() (Monitor, error) {
	m, err := b.conn.GetPrimaryMonitor()
	if err != nil {
		return Monitor{}, err
	}
	return monitorFromX11(*m), nil
}

func (b *LinuxBackend) PointerPosition() (dpi.PhysicalPosition, error) {
	x, y, err := b.conn.PointerPosition()
	if err != nil {
		return dpi.PhysicalPosition{}, err
	}
	return dpi.PhysicalPosition{X: int32(x), Y: int32(y)}, nil
}

func (b *LinuxBackend) CrtcMode(crtc uint32) (uint32, error) {
	mode, err := b.conn.CrtcMode(randr.Crtc(crtc))
	return uint32(mode), err
}

func (b *LinuxBackend) SetCrtcMode(crtc, mode uint32) error {
	return b.conn.SetCrtcMode(randr.Crtc(crtc), randr.Mode(mode))
}

func (b *LinuxBackend) FindVisual(id uint32) (Visual, bool) {
	depth, ok := b.conn.FindVisual(xproto.Visualid(id))
	if !ok {
		return Visual{}, false
	}
	return Visual{ID: id, Depth: depth}, true
}

func (b *LinuxBackend) TransparentVisual() (Visual, bool) {
	id, ok := b.conn.TransparentVisual()
	if !ok {
		return Visual{}, false
	}
	return Visual{ID: uint32(id), Depth: 32}, true
}

func (b *LinuxBackend) CreateWindow(req CreateWindowRequest) (WindowID, Cookie) {
	params := x11.CreateParams{
		Parent:           xproto.Window(req.Parent),
		X:                clampInt16(req.Position.X),
		Y:                clampInt16(req.Position.Y),
		Width:            clampUint16(req.Size.Width),
		Height:           clampUint16(req.Size.Height),
		InputOnly:        req.Class == InputOnly,
		OverrideRedirect: req.OverrideRedirect,
	}
	if params.Parent == 0 {
		params.Parent = b.conn.Root
	}
	if req.Visual != nil {
		params.Visual = xproto.Visualid(req.Visual.ID)
		params.Depth = req.Visual.Depth
	}
	win, cookie := b.conn.CreateWindow(params)
	return WindowID(win), cookie
}

func (b *LinuxBackend) DestroyWindow(win WindowID) Cookie {
	return b.conn.DestroyWindow(xproto.Window(win))
}

func (b *LinuxBackend) MapRaise(win WindowID) Cookie {
	return b.conn.MapRaise(xproto.Window(win))
}

func (b *LinuxBackend) Unmap(win WindowID) Cookie {
	return b.conn.Unmap(xproto.Window(win))
}

func (b *LinuxBackend) Configure(win WindowID, cfg Configure) Cookie {
	return b.conn.Configure(xproto.Window(win), x11.Geometry{
		X:      cfg.X,
		Y:      cfg.Y,
		Width:  cfg.Width,
		Height: cfg.Height,
	})
}

func (b *LinuxBackend) SetInputFocus(win WindowID) Cookie {
	return b.conn.SetInputFocus(xproto.Window(win))
}

func (b *LinuxBackend) InnerPosition(win WindowID) (dpi.PhysicalPosition, error) {
	x, y, err := b.conn.InnerPosition(xproto.Window(win))
	if err != nil {
		return dpi.PhysicalPosition{}, err
	}
	return dpi.PhysicalPosition{X: int32(x), Y: int32(y)}, nil
}

func (b *LinuxBackend) InnerSize(win WindowID) (dpi.PhysicalSize, error) {
	w, h, err := b.conn.InnerSize(xproto.Window(win))
	if err != nil {
		return dpi.PhysicalSize{}, err
	}
	return dpi.PhysicalSize{Width: w, Height: h}, nil
}

func (b *LinuxBackend) FrameInfo(win WindowID) (FrameInfo, error) {
	fe, err := b.conn.GetFrameExtents(xproto.Window(win))
	if err != nil {
		return FrameInfo{}, err
	}
	source := FrameSupported
	switch fe.Source {
	case x11.FrameUnsupportedNested:
		source = FrameUnsupportedNested
	case x11.FrameUnsupportedBordered:
		source = FrameUnsupportedBordered
	}
	return FrameInfo{
		Extents: FrameExtents{Left: fe.Left, Right: fe.Right, Top: fe.Top, Bottom: fe.Bottom},
		Source:  source,
	}, nil
}

func (b *LinuxBackend) IsIconic(win WindowID) (bool, error) {
	return b.conn.IsIconic(xproto.Window(win))
}

func (b *LinuxBackend) ChangeString(win WindowID, prop string, utf8 bool, value string) Cookie {
	typ := "STRING"
	if utf8 {
		typ = "UTF8_STRING"
	}
	return b.conn.ChangeString(xproto.Window(win), prop, typ, value)
}

func (b *LinuxBackend) ChangeProperty32(win WindowID, prop, typ string, values ...uint32) Cookie {
	return b.conn.ChangeProperty32(xproto.Window(win), prop, typ, values...)
}

func (b *LinuxBackend) ChangeAtoms(win WindowID, prop string, atoms ...string) Cookie {
	return b.conn.ChangeAtoms(xproto.Window(win), prop, atoms...)
}

func (b *LinuxBackend) DeleteProperty(win WindowID, prop string) Cookie {
	return b.conn.DeleteProperty(xproto.Window(win), prop)
}

func (b *LinuxBackend) Atoms(win WindowID, prop string) ([]string, error) {
	return b.conn.GetAtoms(xproto.Window(win), prop)
}

func (b *LinuxBackend) StringProperty(win WindowID, prop string) (string, error) {
	return b.conn.GetString(xproto.Window(win), prop)
}

func (b *LinuxBackend) SendClientMessage(win WindowID, msgType string, data [5]uint32) Cookie {
	return b.conn.SendClientMessage(xproto.Window(win), msgType, data)
}

func (b *LinuxBackend) SetNormalHints(win WindowID, hints SizeHints) Cookie {
	return b.conn.SetNormalHints(xproto.Window(win), normalHintsFromSizeHints(hints))
}

func (b *LinuxBackend) NormalHints(win WindowID) (SizeHints, error) {
	nh, err := b.conn.NormalHints(xproto.Window(win))
	if err != nil {
		return SizeHints{}, err
	}
	return sizeHintsFromNormalHints(nh), nil
}

func (b *LinuxBackend) SetDecorations(win WindowID, decorated bool) Cookie {
	return b.conn.SetDecorations(xproto.Window(win), decorated)
}

func (b *LinuxBackend) SetMaximizable(win WindowID, maximizable bool) Cookie {
	return b.conn.SetMaximizable(xproto.Window(win), maximizable)
}

func (b *LinuxBackend) SetUrgency(win WindowID, urgent bool) Cookie {
	return b.conn.SetUrgency(xproto.Window(win), urgent)
}

func (b *LinuxBackend) SetClass(win WindowID, instance, class string) Cookie {
	return b.conn.SetClass(xproto.Window(win), icccm.WmClass{Instance: instance, Class: class})
}

func (b *LinuxBackend) SetIcon(win WindowID, icon *Icon) Cookie {
	if icon == nil {
		return b.conn.DeleteProperty(xproto.Window(win), "_NET_WM_ICON")
	}
	data := make([]uint, len(icon.Pixels))
	for i, px := range icon.Pixels {
		data[i] = uint(px)
	}
	return b.conn.SetIcons(xproto.Window(win), []ewmh.WmIcon{{
		Width:  uint(icon.Width),
		Height: uint(icon.Height),
		Data:   data,
	}})
}

func (b *LinuxBackend) CreateSyncCounter() (uint32, error) {
	return b.conn.CreateSyncCounter()
}

func (b *LinuxBackend) DestroySyncCounter(id uint32) Cookie {
	return b.conn.DestroySyncCounter(id)
}

func (b *LinuxBackend) RequestActivationToken(title string) (string, error) {
	return b.conn.RequestActivationToken(title)
}

func (b *LinuxBackend) RemoveActivationToken(win WindowID, token string) Cookie {
	return b.conn.RemoveActivationToken(xproto.Window(win), token)
}

func (b *LinuxBackend) SetCursor(win WindowID, icon CursorIcon) Cookie {
	return b.conn.SetCursor(xproto.Window(win), x11.CursorGlyph(string(icon)))
}

func (b *LinuxBackend) HideCursor(win WindowID) Cookie {
	return b.conn.HideCursor(xproto.Window(win))
}

func (b *LinuxBackend) GrabPointer(win WindowID) (GrabStatus, error) {
	status, err := b.conn.GrabPointer(xproto.Window(win))
	if err != nil {
		return GrabSuccess, err
	}
	switch status {
	case xproto.GrabStatusSuccess:
		return GrabSuccess, nil
	case xproto.GrabStatusAlreadyGrabbed:
		return GrabAlreadyGrabbed, nil
	case xproto.GrabStatusInvalidTime:
		return GrabInvalidTime, nil
	case xproto.GrabStatusNotViewable:
		return GrabNotViewable, nil
	case xproto.GrabStatusFrozen:
		return GrabFrozen, nil
	default:
		return GrabSuccess, fmt.Errorf("unknown grab status %d", status)
	}
}

func (b *LinuxBackend) UngrabPointer() Cookie {
	return b.conn.UngrabPointer()
}

func (b *LinuxBackend) WarpPointer(win WindowID, pos dpi.PhysicalPosition) Cookie {
	return b.conn.WarpPointer(xproto.Window(win), clampInt16(pos.X), clampInt16(pos.Y))
}

func (b *LinuxBackend) SetInputRegion(win WindowID, rect *Rect) Cookie {
	if rect == nil {
		return b.conn.SetInputRegion(xproto.Window(win), nil)
	}
	return b.conn.SetInputRegion(xproto.Window(win), &xproto.Rectangle{
		X:      clampInt16(int32(rect.X)),
		Y:      clampInt16(int32(rect.Y)),
		Width:  clampUint16(uint32(rect.Width)),
		Height: clampUint16(uint32(rect.Height)),
	})
}

func monitorFromX11(m x11.Monitor) Monitor {
	mon := Monitor{
		ID:                    uint32(m.Crtc),
		Name:                  m.Name,
		Position:              dpi.PhysicalPosition{X: int32(m.X), Y: int32(m.Y)},
		Size:                  dpi.PhysicalSize{Width: uint32(m.Width), Height: uint32(m.Height)},
		ScaleFactor:           m.ScaleFactor,
		RefreshRateMillihertz: m.RefreshRate,
		Primary:               m.Primary,
	}
	for _, vm := range m.Modes {
		mon.Modes = append(mon.Modes, VideoMode{
			ID:                    uint32(vm.ID),
			Size:                  dpi.PhysicalSize{Width: uint32(vm.Width), Height: uint32(vm.Height)},
			BitDepth:              uint16(vm.Depth),
			RefreshRateMillihertz: vm.RefreshRate,
		})
	}
	return mon
}

func normalHintsFromSizeHints(h SizeHints) *icccm.NormalHints {
	nh := &icccm.NormalHints{WinGravity: xproto.GravityNorthWest}
	if h.Position != nil {
		nh.Flags |= icccm.SizeHintPPosition
		nh.X, nh.Y = int(h.Position.X), int(h.Position.Y)
	}
	if h.Size != nil {
		nh.Flags |= icccm.SizeHintPSize
		nh.Width, nh.Height = hintDim(h.Size.Width), hintDim(h.Size.Height)
	}
	if h.MinSize != nil {
		nh.Flags |= icccm.SizeHintPMinSize
		nh.MinWidth, nh.MinHeight = hintDim(h.MinSize.Width), hintDim(h.MinSize.Height)
	}
	if h.MaxSize != nil {
		nh.Flags |= icccm.SizeHintPMaxSize
		nh.MaxWidth, nh.MaxHeight = hintDim(h.MaxSize.Width), hintDim(h.MaxSize.Height)
	}
	if h.ResizeInc != nil {
		nh.Flags |= icccm.SizeHintPResizeInc
		nh.WidthInc, nh.HeightInc = hintDim(h.ResizeInc.Width), hintDim(h.ResizeInc.Height)
	}
	if h.BaseSize != nil {
		nh.Flags |= icccm.SizeHintPBaseSize
		nh.BaseWidth, nh.BaseHeight = hintDim(h.BaseSize.Width), hintDim(h.BaseSize.Height)
	}
	return nh
}

func sizeHintsFromNormalHints(nh *icccm.NormalHints) SizeHints {
	var h SizeHints
	size := func(width, height uint) *dpi.PhysicalSize {
		return &dpi.PhysicalSize{Width: uint32(width), Height: uint32(height)}
	}
	if nh.Flags&(icccm.SizeHintPPosition|icccm.SizeHintUSPosition) != 0 {
		h.Position = &dpi.PhysicalPosition{X: int32(nh.X), Y: int32(nh.Y)}
	}
	if nh.Flags&(icccm.SizeHintPSize|icccm.SizeHintUSSize) != 0 {
		h.Size = size(nh.Width, nh.Height)
	}
	if nh.Flags&icccm.SizeHintPMinSize != 0 {
		h.MinSize = size(nh.MinWidth, nh.MinHeight)
	}
	if nh.Flags&icccm.SizeHintPMaxSize != 0 {
		h.MaxSize = size(nh.MaxWidth, nh.MaxHeight)
	}
	if nh.Flags&icccm.SizeHintPResizeInc != 0 {
		h.ResizeInc = size(nh.WidthInc, nh.HeightInc)
	}
	if nh.Flags&icccm.SizeHintPBaseSize != 0 {
		h.BaseSize = size(nh.BaseWidth, nh.BaseHeight)
	}
	return h
}

// hintDim clamps a dimension into the signed range WM_SIZE_HINTS carries.
func hintDim(v uint32) uint {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return uint(v)
}

func clampInt16(v int32) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

func clampUint16(v uint32) uint16 {
	if v > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(v)
}
