//go:build linux

package eventloop

import (
	"github.com/1broseidon/xwin/internal/platform"
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// Display adapts a LinuxBackend to Conn.
type Display struct {
	*platform.LinuxBackend
}

var _ Conn = Display{}

// NewDisplay wraps b and subscribes to RandR notifications when the server
// offers them.
func NewDisplay(b *platform.LinuxBackend) (Display, error) {
	d := Display{LinuxBackend: b}
	if b.Connection().HasRandR() {
		if err := b.Connection().SelectMonitorEvents(); err != nil {
			return Display{}, err
		}
	}
	return d, nil
}

func (d Display) WaitForEvent() (xgb.Event, xgb.Error) {
	return d.Connection().Conn().WaitForEvent()
}

func (d Display) AtomName(atom xproto.Atom) (string, error) {
	return d.Connection().AtomName(atom)
}

func (d Display) ReplyPing(ev xproto.ClientMessageEvent) error {
	return d.Connection().ReplyPing(ev).Check()
}
