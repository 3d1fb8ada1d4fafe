package x11

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/shape"
	"github.com/BurntSushi/xgb/xfixes"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xprop"
)

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window

	hasRandR  bool
	hasXFixes bool

	cursorMu  sync.Mutex
	cursors   map[uint16]xproto.Cursor
	invisible xproto.Cursor

	wmOnce sync.Once
	wmName string

	syncOnce  sync.Once
	syncMajor byte
	syncErr   error
}

// NewConnection connects to display (or $DISPLAY when empty) and initializes
// the extensions the window engine relies on. RandR and XFixes are optional:
// without them monitors collapse to the root screen and hit-testing is a no-op.
func NewConnection(display string) (*Connection, error) {
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11 display %q: %w", display, err)
	}

	c := &Connection{
		XUtil:   xu,
		Root:    xu.RootWin(),
		cursors: make(map[uint16]xproto.Cursor),
	}

	if err := randr.Init(xu.Conn()); err == nil {
		c.hasRandR = true
	}
	if err := xfixes.Init(xu.Conn()); err == nil {
		// Region requests need at least XFixes 2.0 to be negotiated first.
		if _, err := xfixes.QueryVersion(xu.Conn(), 5, 0).Reply(); err == nil {
			c.hasXFixes = shape.Init(xu.Conn()) == nil
		}
	}

	return c, nil
}

// Conn returns the raw protocol connection.
func (c *Connection) Conn() *xgb.Conn {
	return c.XUtil.Conn()
}

// HasRandR reports whether the RandR extension is available.
func (c *Connection) HasRandR() bool {
	return c.hasRandR
}

// Screen returns the default screen.
func (c *Connection) Screen() *xproto.ScreenInfo {
	return c.XUtil.Screen()
}

// Atom interns name, consulting the connection's atom cache first.
func (c *Connection) Atom(name string) (xproto.Atom, error) {
	atom, err := xprop.Atm(c.XUtil, name)
	if err != nil {
		return 0, fmt.Errorf("failed to intern %s: %w", name, err)
	}
	return atom, nil
}

// AtomName resolves an atom back to its name.
func (c *Connection) AtomName(atom xproto.Atom) (string, error) {
	return xprop.AtomName(c.XUtil, atom)
}

// Sync performs a blocking round trip, surfacing a dead connection as an error.
func (c *Connection) Sync() error {
	if _, err := xproto.GetInputFocus(c.Conn()).Reply(); err != nil {
		return fmt.Errorf("round trip failed: %w", err)
	}
	return nil
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}

type checker interface {
	Check() error
}

// Cookie is the deferred acknowledgment of a request. Check blocks until the
// server has processed the request; Ignore discards the acknowledgment.
type Cookie struct {
	req checker
	err error
}

func newCookie(req checker) Cookie {
	return Cookie{req: req}
}

func errCookie(err error) Cookie {
	return Cookie{err: err}
}

// Check waits for the request to be processed and returns its error, if any.
func (c Cookie) Check() error {
	if c.err != nil {
		return c.err
	}
	if c.req == nil {
		return nil
	}
	return c.req.Check()
}

// Ignore drops the acknowledgment. Errors for the request are discarded.
func (c Cookie) Ignore() {}

// cookies bundles several requests into one acknowledgment.
type cookies []Cookie

func (cs cookies) Check() error {
	for _, ck := range cs {
		if err := ck.Check(); err != nil {
			return err
		}
	}
	return nil
}
