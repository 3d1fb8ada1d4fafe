package x11

import (
	"fmt"

	"github.com/BurntSushi/xgbutil/ewmh"
)

// DesktopInfo describes the window manager's virtual desktops.
type DesktopInfo struct {
	Current int
	Count   int
	Names   []string
}

// Desktops reads _NET_CURRENT_DESKTOP, _NET_NUMBER_OF_DESKTOPS and
// _NET_DESKTOP_NAMES. Names may be shorter than Count.
func (c *Connection) Desktops() (DesktopInfo, error) {
	current, err := ewmh.CurrentDesktopGet(c.XUtil)
	if err != nil {
		return DesktopInfo{}, fmt.Errorf("failed to get current desktop: %w", err)
	}
	count, err := ewmh.NumberOfDesktopsGet(c.XUtil)
	if err != nil {
		return DesktopInfo{}, fmt.Errorf("failed to get desktop count: %w", err)
	}
	// Not every window manager names its desktops.
	names, _ := ewmh.DesktopNamesGet(c.XUtil)
	return DesktopInfo{Current: int(current), Count: int(count), Names: names}, nil
}

// Name returns the name of desktop i, or its 1-based number when unnamed.
func (d DesktopInfo) Name(i int) string {
	if i >= 0 && i < len(d.Names) && d.Names[i] != "" {
		return d.Names[i]
	}
	return fmt.Sprint(i + 1)
}
