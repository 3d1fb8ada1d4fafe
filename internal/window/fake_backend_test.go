package window

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/1broseidon/xwin/internal/dpi"
	"github.com/1broseidon/xwin/internal/platform"
)

type fakeCookie struct {
	err error
}

func (c fakeCookie) Check() error { return c.err }
func (c fakeCookie) Ignore()      {}

type crtcChange struct {
	crtc, mode uint32
}

type clientMessage struct {
	msgType string
	data    [5]uint32
}

// fakeBackend records every request the engine issues.
type fakeBackend struct {
	mu sync.Mutex

	calls []string

	monitors   []platform.Monitor
	pointer    dpi.PhysicalPosition
	monitorErr error

	visuals     map[uint32]platform.Visual
	transparent *platform.Visual

	createErr  error
	syncErr    error
	counterErr error
	crtcErr    error

	nextID      platform.WindowID
	size        dpi.PhysicalSize
	position    dpi.PhysicalPosition
	frame       platform.FrameInfo
	hints       platform.SizeHints
	hintWrites  []platform.SizeHints
	configures  []platform.Configure
	messages    []clientMessage
	crtcModes   map[uint32]uint32
	crtcChanges []crtcChange
	sizeQueries int
	strings     map[string]string
	atomLists   map[string][]string
	atoms       map[string]uint32
	grabStatus  platform.GrabStatus
	regions     []*platform.Rect
	cursors     []platform.CursorIcon
	iconic      bool
	wmName      string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		monitors: []platform.Monitor{{
			ID:          63,
			Name:        "DP-1",
			Size:        dpi.PhysicalSize{Width: 1920, Height: 1080},
			ScaleFactor: 1,
			Modes: []platform.VideoMode{
				{ID: 0x46, Size: dpi.PhysicalSize{Width: 1920, Height: 1080}, RefreshRateMillihertz: 60000},
				{ID: 0x47, Size: dpi.PhysicalSize{Width: 1280, Height: 720}, RefreshRateMillihertz: 60000},
			},
		}},
		visuals:   map[uint32]platform.Visual{},
		nextID:    0x2a00001,
		crtcModes: map[uint32]uint32{63: 0x46},
		strings:   map[string]string{},
		atomLists: map[string][]string{},
		atoms:     map[string]uint32{},
	}
}

func (f *fakeBackend) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

// count returns how many recorded calls start with prefix.
func (f *fakeBackend) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// index returns the position of the first call starting with prefix, or -1.
func (f *fakeBackend) index(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			return i
		}
	}
	return -1
}

// lastIndex returns the position of the last call starting with prefix, or -1.
func (f *fakeBackend) lastIndex(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if strings.HasPrefix(f.calls[i], prefix) {
			return i
		}
	}
	return -1
}

// stateMessages returns the _NET_WM_STATE requests mentioning atom.
func (f *fakeBackend) stateMessages(action platform.StateAction, atom string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.atoms[atom]
	if !ok {
		return 0
	}
	n := 0
	for _, m := range f.messages {
		if m.msgType == "_NET_WM_STATE" && m.data[0] == uint32(action) && (m.data[1] == id || m.data[2] == id) {
			n++
		}
	}
	return n
}

func (f *fakeBackend) resizes() []dpi.PhysicalSize {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []dpi.PhysicalSize
	for _, c := range f.configures {
		if c.Width != nil && c.Height != nil {
			out = append(out, dpi.PhysicalSize{Width: *c.Width, Height: *c.Height})
		}
	}
	return out
}

func (f *fakeBackend) RootWindow() platform.WindowID { return 0x1e3 }
func (f *fakeBackend) Screen() int                   { return 0 }

func (f *fakeBackend) Sync() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Sync")
	return f.syncErr
}

func (f *fakeBackend) WMName() string { return f.wmName }

func (f *fakeBackend) Atom(name string) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.atoms[name]; ok {
		return id, nil
	}
	id := uint32(300 + len(f.atoms))
	f.atoms[name] = id
	return id, nil
}

func (f *fakeBackend) Monitors() ([]platform.Monitor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.monitors, f.monitorErr
}

func (f *fakeBackend) PrimaryMonitor() (platform.Monitor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.monitors) == 0 {
		return platform.Monitor{}, errors.New("no monitors")
	}
	return f.monitors[0], nil
}

func (f *fakeBackend) PointerPosition() (dpi.PhysicalPosition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pointer, nil
}

func (f *fakeBackend) CrtcMode(crtc uint32) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CrtcMode %d", crtc)
	if f.crtcErr != nil {
		return 0, f.crtcErr
	}
	return f.crtcModes[crtc], nil
}

func (f *fakeBackend) SetCrtcMode(crtc, mode uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetCrtcMode %d %d", crtc, mode)
	f.crtcModes[crtc] = mode
	f.crtcChanges = append(f.crtcChanges, crtcChange{crtc: crtc, mode: mode})
	return nil
}

func (f *fakeBackend) FindVisual(id uint32) (platform.Visual, bool) {
	v, ok := f.visuals[id]
	return v, ok
}

func (f *fakeBackend) TransparentVisual() (platform.Visual, bool) {
	if f.transparent == nil {
		return platform.Visual{}, false
	}
	return *f.transparent, true
}

func (f *fakeBackend) CreateWindow(req platform.CreateWindowRequest) (platform.WindowID, platform.Cookie) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateWindow")
	f.size = req.Size
	f.position = req.Position
	return f.nextID, fakeCookie{f.createErr}
}

func (f *fakeBackend) DestroyWindow(platform.WindowID) platform.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DestroyWindow")
	return fakeCookie{}
}

func (f *fakeBackend) MapRaise(platform.WindowID) platform.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("MapRaise")
	return fakeCookie{}
}

func (f *fakeBackend) Unmap(platform.WindowID) platform.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Unmap")
	return fakeCookie{}
}

func (f *fakeBackend) Configure(_ platform.WindowID, cfg platform.Configure) platform.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Configure")
	f.configures = append(f.configures, cfg)
	if cfg.Width != nil && cfg.Height != nil {
		f.size = dpi.PhysicalSize{Width: *cfg.Width, Height: *cfg.Height}
	}
	if cfg.X != nil && cfg.Y != nil {
		f.position = dpi.PhysicalPosition{X: *cfg.X, Y: *cfg.Y}
	}
	return fakeCookie{}
}

func (f *fakeBackend) SetInputFocus(platform.WindowID) platform.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetInputFocus")
	return fakeCookie{}
}

func (f *fakeBackend) InnerPosition(platform.WindowID) (dpi.PhysicalPosition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.position, nil
}

func (f *fakeBackend) InnerSize(platform.WindowID) (dpi.PhysicalSize, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sizeQueries++
	return f.size, nil
}

func (f *fakeBackend) FrameInfo(platform.WindowID) (platform.FrameInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("FrameInfo")
	return f.frame, nil
}

func (f *fakeBackend) IsIconic(platform.WindowID) (bool, error) {
	return f.iconic, nil
}

func (f *fakeBackend) ChangeString(_ platform.WindowID, prop string, _ bool, value string) platform.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ChangeString %s", prop)
	f.strings[prop] = value
	return fakeCookie{}
}

func (f *fakeBackend) ChangeProperty32(_ platform.WindowID, prop, _ string, values ...uint32) platform.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ChangeProperty32 %s %v", prop, values)
	return fakeCookie{}
}

func (f *fakeBackend) ChangeAtoms(_ platform.WindowID, prop string, atoms ...string) platform.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ChangeAtoms %s", prop)
	f.atomLists[prop] = atoms
	return fakeCookie{}
}

func (f *fakeBackend) DeleteProperty(_ platform.WindowID, prop string) platform.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteProperty %s", prop)
	return fakeCookie{}
}

func (f *fakeBackend) Atoms(_ platform.WindowID, prop string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.atomLists[prop], nil
}

func (f *fakeBackend) StringProperty(_ platform.WindowID, prop string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.strings[prop], nil
}

func (f *fakeBackend) SendClientMessage(_ platform.WindowID, msgType string, data [5]uint32) platform.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SendClientMessage %s", msgType)
	f.messages = append(f.messages, clientMessage{msgType: msgType, data: data})
	return fakeCookie{}
}

func (f *fakeBackend) SetNormalHints(_ platform.WindowID, hints platform.SizeHints) platform.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetNormalHints")
	f.hints = hints
	f.hintWrites = append(f.hintWrites, hints)
	return fakeCookie{}
}

func (f *fakeBackend) NormalHints(platform.WindowID) (platform.SizeHints, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hints, nil
}

func (f *fakeBackend) SetDecorations(_ platform.WindowID, decorated bool) platform.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetDecorations %t", decorated)
	return fakeCookie{}
}

func (f *fakeBackend) SetMaximizable(_ platform.WindowID, maximizable bool) platform.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetMaximizable %t", maximizable)
	return fakeCookie{}
}

func (f *fakeBackend) SetUrgency(_ platform.WindowID, urgent bool) platform.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetUrgency %t", urgent)
	return fakeCookie{}
}

func (f *fakeBackend) SetClass(_ platform.WindowID, instance, class string) platform.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetClass %s %s", instance, class)
	return fakeCookie{}
}

func (f *fakeBackend) SetIcon(platform.WindowID, *platform.Icon) platform.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetIcon")
	return fakeCookie{}
}

func (f *fakeBackend) CreateSyncCounter() (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counterErr != nil {
		return 0, f.counterErr
	}
	return 0x2a00002, nil
}

func (f *fakeBackend) DestroySyncCounter(uint32) platform.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DestroySyncCounter")
	return fakeCookie{}
}

func (f *fakeBackend) RequestActivationToken(title string) (string, error) {
	return "xwin42_TIME0", nil
}

func (f *fakeBackend) RemoveActivationToken(_ platform.WindowID, token string) platform.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("RemoveActivationToken %s", token)
	return fakeCookie{}
}

func (f *fakeBackend) SetCursor(_ platform.WindowID, icon platform.CursorIcon) platform.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetCursor %s", icon)
	f.cursors = append(f.cursors, icon)
	return fakeCookie{}
}

func (f *fakeBackend) HideCursor(platform.WindowID) platform.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("HideCursor")
	return fakeCookie{}
}

func (f *fakeBackend) GrabPointer(platform.WindowID) (platform.GrabStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GrabPointer")
	return f.grabStatus, nil
}

func (f *fakeBackend) UngrabPointer() platform.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UngrabPointer")
	return fakeCookie{}
}

func (f *fakeBackend) WarpPointer(_ platform.WindowID, pos dpi.PhysicalPosition) platform.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("WarpPointer %d %d", pos.X, pos.Y)
	return fakeCookie{}
}

func (f *fakeBackend) SetInputRegion(_ platform.WindowID, rect *platform.Rect) platform.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetInputRegion")
	f.regions = append(f.regions, rect)
	return fakeCookie{}
}
