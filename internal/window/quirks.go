package window

import "strings"

// Quirks are window-manager specific deviations that the engine works around.
type Quirks uint8

const (
	// QuirkNoResizeLock: pinning min=max hides later WM_NORMAL_HINTS changes
	// from the window manager, so resizing is never disabled.
	QuirkNoResizeLock Quirks = 1 << iota
	// QuirkClientAreaPositioning: the window manager positions the client
	// area instead of the frame, so requested positions are offset by the
	// frame extents.
	QuirkClientAreaPositioning
)

var wmQuirks = []struct {
	name   string
	quirks Quirks
}{
	{"Xfwm4", QuirkNoResizeLock},
	{"Enlightenment", QuirkClientAreaPositioning},
	{"FVWM", QuirkClientAreaPositioning},
}

// QuirksFor resolves the quirk set of the named window manager.
func QuirksFor(wmName string) Quirks {
	var q Quirks
	for _, entry := range wmQuirks {
		if strings.EqualFold(entry.name, wmName) {
			q |= entry.quirks
		}
	}
	return q
}

// Has reports whether every flag in f is set.
func (q Quirks) Has(f Quirks) bool {
	return q&f == f
}
