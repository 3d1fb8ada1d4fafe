package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/motif"
)

// The xgbutil setters wait on every write; these encoders produce the same
// wire layout but hand back a Cookie so callers choose whether to wait.

// SetNormalHints writes WM_NORMAL_HINTS.
func (c *Connection) SetNormalHints(win xproto.Window, nh *icccm.NormalHints) Cookie {
	gravity := nh.WinGravity
	if gravity == 0 {
		gravity = xproto.GravityNorthWest
	}
	return c.ChangeProperty32(win, "WM_NORMAL_HINTS", "WM_SIZE_HINTS",
		uint32(nh.Flags),
		uint32(int32(nh.X)), uint32(int32(nh.Y)),
		uint32(nh.Width), uint32(nh.Height),
		uint32(nh.MinWidth), uint32(nh.MinHeight),
		uint32(nh.MaxWidth), uint32(nh.MaxHeight),
		uint32(nh.WidthInc), uint32(nh.HeightInc),
		uint32(nh.MinAspectNum), uint32(nh.MinAspectDen),
		uint32(nh.MaxAspectNum), uint32(nh.MaxAspectDen),
		uint32(nh.BaseWidth), uint32(nh.BaseHeight),
		uint32(gravity),
	)
}

// NormalHints reads WM_NORMAL_HINTS, returning empty hints when unset.
func (c *Connection) NormalHints(win xproto.Window) (*icccm.NormalHints, error) {
	nh, err := icccm.WmNormalHintsGet(c.XUtil, win)
	if err != nil {
		reply, perr := c.GetProperty(win, "WM_NORMAL_HINTS")
		if perr == nil && reply != nil && reply.ValueLen == 0 {
			return &icccm.NormalHints{}, nil
		}
		return nil, err
	}
	return nh, nil
}

// SetMotifHints writes _MOTIF_WM_HINTS.
func (c *Connection) SetMotifHints(win xproto.Window, mh *motif.Hints) Cookie {
	return c.ChangeProperty32(win, "_MOTIF_WM_HINTS", "_MOTIF_WM_HINTS",
		uint32(mh.Flags), uint32(mh.Function), uint32(mh.Decoration),
		uint32(mh.Input), uint32(mh.Status))
}

// MotifHints reads _MOTIF_WM_HINTS. An unset or malformed property yields
// empty hints.
func (c *Connection) MotifHints(win xproto.Window) *motif.Hints {
	mh, err := motif.WmHintsGet(c.XUtil, win)
	if err != nil {
		return &motif.Hints{}
	}
	return mh
}

// SetDecorations turns all decorations on or off, keeping the other Motif
// fields.
func (c *Connection) SetDecorations(win xproto.Window, decorated bool) Cookie {
	mh := c.MotifHints(win)
	MotifDecorate(mh, decorated)
	return c.SetMotifHints(win, mh)
}

// SetMaximizable adds or removes the maximize function.
func (c *Connection) SetMaximizable(win xproto.Window, maximizable bool) Cookie {
	mh := c.MotifHints(win)
	if maximizable {
		motifAddFunction(mh, motif.FunctionMaximize)
	} else {
		motifRemoveFunction(mh, motif.FunctionMaximize)
	}
	return c.SetMotifHints(win, mh)
}

// MotifDecorate sets the decoration field of mh.
func MotifDecorate(mh *motif.Hints, decorated bool) {
	mh.Flags |= motif.HintDecorations
	mh.Decoration = motif.DecorationNone
	if decorated {
		mh.Decoration = motif.DecorationAll
	}
}

// With FunctionAll set, the listed functions are the ones taken away.
func motifAddFunction(mh *motif.Hints, fn uint) {
	if mh.Flags&motif.HintFunctions == 0 {
		return
	}
	if mh.Function&motif.FunctionAll != 0 {
		mh.Function &^= fn
	} else {
		mh.Function |= fn
	}
}

func motifRemoveFunction(mh *motif.Hints, fn uint) {
	if mh.Flags&motif.HintFunctions == 0 {
		mh.Flags |= motif.HintFunctions
		mh.Function = motif.FunctionAll
	}
	if mh.Function&motif.FunctionAll != 0 {
		mh.Function |= fn
	} else {
		mh.Function &^= fn
	}
}

// SetWMHints writes WM_HINTS.
func (c *Connection) SetWMHints(win xproto.Window, h *icccm.Hints) Cookie {
	return c.ChangeProperty32(win, "WM_HINTS", "WM_HINTS",
		uint32(h.Flags), uint32(h.Input), uint32(h.InitialState),
		uint32(h.IconPixmap), uint32(h.IconWindow),
		uint32(int32(h.IconX)), uint32(int32(h.IconY)),
		uint32(h.IconMask), uint32(h.WindowGroup))
}

// SetUrgency toggles the urgency flag in WM_HINTS, preserving other fields.
func (c *Connection) SetUrgency(win xproto.Window, urgent bool) Cookie {
	h, err := icccm.WmHintsGet(c.XUtil, win)
	if err != nil {
		h = &icccm.Hints{}
	}
	if urgent {
		h.Flags |= icccm.HintUrgency
	} else {
		h.Flags &^= icccm.HintUrgency
	}
	return c.SetWMHints(win, h)
}

// SetClass writes WM_CLASS.
func (c *Connection) SetClass(win xproto.Window, class icccm.WmClass) Cookie {
	value := class.Instance + "\x00" + class.Class + "\x00"
	return c.ChangeString(win, "WM_CLASS", "STRING", value)
}

// SetIcons writes _NET_WM_ICON from one or more icons.
func (c *Connection) SetIcons(win xproto.Window, icons []ewmh.WmIcon) Cookie {
	var values []uint32
	for _, icon := range icons {
		values = append(values, uint32(icon.Width), uint32(icon.Height))
		for _, px := range icon.Data {
			values = append(values, uint32(px))
		}
	}
	return c.ChangeProperty32(win, "_NET_WM_ICON", "CARDINAL", values...)
}

// IsIconic reports whether the window manager has iconified win.
func (c *Connection) IsIconic(win xproto.Window) (bool, error) {
	state, err := icccm.WmStateGet(c.XUtil, win)
	if err != nil {
		return false, err
	}
	return state.State == icccm.StateIconic, nil
}

// WMState returns the _NET_WM_STATE atoms set on win.
func (c *Connection) WMState(win xproto.Window) ([]string, error) {
	return ewmh.WmStateGet(c.XUtil, win)
}
