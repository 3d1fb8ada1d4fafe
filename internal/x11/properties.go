package x11

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xprop"
)

// ChangeProperty replaces prop on win with data encoded in format (8, 16 or
// 32 bits per element).
func (c *Connection) ChangeProperty(win xproto.Window, prop, typ string, format byte, data []byte) Cookie {
	propAtom, err := c.Atom(prop)
	if err != nil {
		return errCookie(err)
	}
	typAtom, err := c.Atom(typ)
	if err != nil {
		return errCookie(err)
	}
	n := uint32(len(data)) / uint32(format/8)
	return newCookie(xproto.ChangePropertyChecked(c.Conn(), xproto.PropModeReplace,
		win, propAtom, typAtom, format, n, data))
}

// ChangeProperty32 replaces prop on win with a list of 32-bit values.
func (c *Connection) ChangeProperty32(win xproto.Window, prop, typ string, values ...uint32) Cookie {
	return c.ChangeProperty(win, prop, typ, 32, encode32(values))
}

// ChangeAtoms replaces prop on win with an ATOM list.
func (c *Connection) ChangeAtoms(win xproto.Window, prop string, names ...string) Cookie {
	values := make([]uint32, 0, len(names))
	for _, name := range names {
		atom, err := c.Atom(name)
		if err != nil {
			return errCookie(err)
		}
		values = append(values, uint32(atom))
	}
	return c.ChangeProperty32(win, prop, "ATOM", values...)
}

// ChangeString replaces prop on win with an 8-bit string of type typ.
func (c *Connection) ChangeString(win xproto.Window, prop, typ, value string) Cookie {
	return c.ChangeProperty(win, prop, typ, 8, []byte(value))
}

// DeleteProperty removes prop from win.
func (c *Connection) DeleteProperty(win xproto.Window, prop string) Cookie {
	atom, err := c.Atom(prop)
	if err != nil {
		return errCookie(err)
	}
	return newCookie(xproto.DeletePropertyChecked(c.Conn(), win, atom))
}

// GetProperty fetches prop from win.
func (c *Connection) GetProperty(win xproto.Window, prop string) (*xproto.GetPropertyReply, error) {
	return xprop.GetProperty(c.XUtil, win, prop)
}

// GetAtoms fetches an ATOM list property and resolves the atom names.
func (c *Connection) GetAtoms(win xproto.Window, prop string) ([]string, error) {
	reply, err := c.GetProperty(win, prop)
	return xprop.PropValAtoms(c.XUtil, reply, err)
}

// GetString fetches a STRING or UTF8_STRING property.
func (c *Connection) GetString(win xproto.Window, prop string) (string, error) {
	reply, err := c.GetProperty(win, prop)
	return xprop.PropValStr(reply, err)
}

// SendClientMessage sends a 32-bit client message about win to the root
// window, the shape used by every EWMH request.
func (c *Connection) SendClientMessage(win xproto.Window, msgType string, data [5]uint32) Cookie {
	return c.SendClientMessageTo(c.Root, win, msgType,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify, data)
}

// SendClientMessageTo sends a 32-bit client message about win to target.
func (c *Connection) SendClientMessageTo(target, win xproto.Window, msgType string, mask uint32, data [5]uint32) Cookie {
	atom, err := c.Atom(msgType)
	if err != nil {
		return errCookie(err)
	}
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   atom,
		Data:   xproto.ClientMessageDataUnionData32New(data[:]),
	}
	return newCookie(xproto.SendEventChecked(c.Conn(), false, target, mask, string(ev.Bytes())))
}

// ReplyPing returns a _NET_WM_PING client message to the root window, which
// is how a client proves to the window manager that it is still responsive.
func (c *Connection) ReplyPing(ev xproto.ClientMessageEvent) Cookie {
	ev.Window = c.Root
	return newCookie(xproto.SendEventChecked(c.Conn(), false, c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify, string(ev.Bytes())))
}

// SendStringMessage broadcasts msg to the root window as a sequence of 8-bit
// client messages: the first of type beginType, the rest of type moreType.
// msg is terminated with a NUL as startup-notification requires.
func (c *Connection) SendStringMessage(win xproto.Window, beginType, moreType, msg string) Cookie {
	begin, err := c.Atom(beginType)
	if err != nil {
		return errCookie(err)
	}
	more, err := c.Atom(moreType)
	if err != nil {
		return errCookie(err)
	}

	payload := append([]byte(msg), 0)
	var sent cookies
	for i := 0; i < len(payload); i += 20 {
		chunk := make([]byte, 20)
		copy(chunk, payload[i:])

		typ := more
		if i == 0 {
			typ = begin
		}
		ev := xproto.ClientMessageEvent{
			Format: 8,
			Window: win,
			Type:   typ,
			Data:   xproto.ClientMessageDataUnionData8New(chunk),
		}
		sent = append(sent, newCookie(xproto.SendEventChecked(c.Conn(), false, c.Root,
			xproto.EventMaskPropertyChange, string(ev.Bytes()))))
	}
	return newCookie(sent)
}

func encode32(values []uint32) []byte {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		xgb.Put32(buf[4*i:], v)
	}
	return buf
}
