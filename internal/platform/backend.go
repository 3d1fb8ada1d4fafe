package platform

import "github.com/1broseidon/xwin/internal/dpi"

// Cookie is the deferred acknowledgment of a protocol request. Callers that
// need a guarantee call Check, which waits for the server; everyone else
// calls Ignore to make the fire-and-forget choice explicit.
type Cookie interface {
	Check() error
	Ignore()
}

// Backend abstracts the display-server operations the window engine issues.
type Backend interface {
	RootWindow() WindowID
	Screen() int
	// Sync performs one blocking round trip.
	Sync() error
	// WMName identifies the running window manager; empty when unknown.
	WMName() string
	Atom(name string) (uint32, error)

	Monitors() ([]Monitor, error)
	PrimaryMonitor() (Monitor, error)
	PointerPosition() (dpi.PhysicalPosition, error)
	CrtcMode(crtc uint32) (uint32, error)
	SetCrtcMode(crtc, mode uint32) error

	FindVisual(id uint32) (Visual, bool)
	TransparentVisual() (Visual, bool)

	CreateWindow(req CreateWindowRequest) (WindowID, Cookie)
	DestroyWindow(win WindowID) Cookie
	MapRaise(win WindowID) Cookie
	Unmap(win WindowID) Cookie
	Configure(win WindowID, cfg Configure) Cookie
	SetInputFocus(win WindowID) Cookie
	InnerPosition(win WindowID) (dpi.PhysicalPosition, error)
	InnerSize(win WindowID) (dpi.PhysicalSize, error)
	FrameInfo(win WindowID) (FrameInfo, error)
	IsIconic(win WindowID) (bool, error)

	ChangeString(win WindowID, prop string, utf8 bool, value string) Cookie
	ChangeProperty32(win WindowID, prop, typ string, values ...uint32) Cookie
	ChangeAtoms(win WindowID, prop string, atoms ...string) Cookie
	DeleteProperty(win WindowID, prop string) Cookie
	Atoms(win WindowID, prop string) ([]string, error)
	StringProperty(win WindowID, prop string) (string, error)
	// SendClientMessage sends an EWMH request about win to the root window.
	SendClientMessage(win WindowID, msgType string, data [5]uint32) Cookie

	SetNormalHints(win WindowID, hints SizeHints) Cookie
	NormalHints(win WindowID) (SizeHints, error)
	SetDecorations(win WindowID, decorated bool) Cookie
	SetMaximizable(win WindowID, maximizable bool) Cookie
	SetUrgency(win WindowID, urgent bool) Cookie
	SetClass(win WindowID, instance, class string) Cookie
	SetIcon(win WindowID, icon *Icon) Cookie

	CreateSyncCounter() (uint32, error)
	DestroySyncCounter(id uint32) Cookie
	RequestActivationToken(title string) (string, error)
	RemoveActivationToken(win WindowID, token string) Cookie

	SetCursor(win WindowID, icon CursorIcon) Cookie
	HideCursor(win WindowID) Cookie
	GrabPointer(win WindowID) (GrabStatus, error)
	UngrabPointer() Cookie
	WarpPointer(win WindowID, pos dpi.PhysicalPosition) Cookie
	// SetInputRegion limits pointer input to rect; nil accepts no input.
	SetInputRegion(win WindowID, rect *Rect) Cookie
}
