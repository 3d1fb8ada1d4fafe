package x11

import (
	"github.com/BurntSushi/xgbutil/ewmh"
)

// WMName returns the running window manager's name as published through
// _NET_SUPPORTING_WM_CHECK. The lookup happens once per connection; an empty
// string means no EWMH-compliant manager answered.
func (c *Connection) WMName() string {
	c.wmOnce.Do(func() {
		if name, err := ewmh.GetEwmhWM(c.XUtil); err == nil {
			c.wmName = name
		}
	})
	return c.wmName
}
