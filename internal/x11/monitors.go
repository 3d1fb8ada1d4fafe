package x11

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
)

// ScaleFactorEnv overrides the per-monitor scale factor. It accepts a
// positive number, or "randr" to force the physical-size calculation.
const ScaleFactorEnv = "XWIN_X11_SCALE_FACTOR"

// ErrNoRandR is returned when the server lacks the RandR extension.
var ErrNoRandR = errors.New("randr extension not available")

// Monitor represents a physical display
type Monitor struct {
	Crtc        randr.Crtc
	Output      randr.Output
	Name        string
	X           int
	Y           int
	Width       int
	Height      int
	WidthMM     uint32
	HeightMM    uint32
	ScaleFactor float64
	RefreshRate uint32 // millihertz
	Mode        randr.Mode
	Primary     bool
	Modes       []VideoMode
}

// VideoMode is one RandR mode an output supports.
type VideoMode struct {
	ID          randr.Mode
	Width       uint16
	Height      uint16
	RefreshRate uint32 // millihertz
	Depth       uint8
}

// GetMonitors retrieves all active monitors using XRandR
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if !c.hasRandR {
		policy, err := c.scalePolicy()
		if err != nil {
			return nil, err
		}
		return []Monitor{rootScreenMonitor(c.Screen(), policy)}, nil
	}

	resources, err := randr.GetScreenResourcesCurrent(c.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	modes := make(map[randr.Mode]randr.ModeInfo, len(resources.Modes))
	for _, m := range resources.Modes {
		modes[randr.Mode(m.Id)] = m
	}

	var primary randr.Output
	if reply, err := randr.GetOutputPrimary(c.Conn(), c.Root).Reply(); err == nil {
		primary = reply.Output
	}

	policy, err := c.scalePolicy()
	if err != nil {
		return nil, err
	}

	depth := c.Screen().RootDepth
	var monitors []Monitor

	// Query each CRTC for active monitors
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		mon := Monitor{
			Crtc:   crtc,
			Output: crtcInfo.Outputs[0],
			Name:   fmt.Sprintf("Monitor%d", i),
			X:      int(crtcInfo.X),
			Y:      int(crtcInfo.Y),
			Width:  int(crtcInfo.Width),
			Height: int(crtcInfo.Height),
			Mode:   crtcInfo.Mode,
		}
		if current, ok := modes[crtcInfo.Mode]; ok {
			mon.RefreshRate = refreshRateMillihertz(current)
		}

		outputInfo, err := randr.GetOutputInfo(c.Conn(), mon.Output, resources.ConfigTimestamp).Reply()
		if err == nil {
			mon.Name = string(outputInfo.Name)
			mon.WidthMM = outputInfo.MmWidth
			mon.HeightMM = outputInfo.MmHeight
			for _, id := range outputInfo.Modes {
				info, ok := modes[id]
				if !ok {
					continue
				}
				mon.Modes = append(mon.Modes, VideoMode{
					ID:          id,
					Width:       info.Width,
					Height:      info.Height,
					RefreshRate: refreshRateMillihertz(info),
					Depth:       depth,
				})
			}
		}

		for _, out := range crtcInfo.Outputs {
			if primary != 0 && out == primary {
				mon.Primary = true
			}
		}
		mon.ScaleFactor = policy.scaleFor(mon)

		monitors = append(monitors, mon)
	}

	return monitors, nil
}

// RootScreenName names the single monitor reported without RandR.
const RootScreenName = "screen"

// rootScreenMonitor describes the whole root screen as one monitor. It has
// no CRTC and no video modes.
func rootScreenMonitor(screen *xproto.ScreenInfo, policy scalePolicy) Monitor {
	mon := Monitor{
		Name:     RootScreenName,
		Width:    int(screen.WidthInPixels),
		Height:   int(screen.HeightInPixels),
		WidthMM:  uint32(screen.WidthInMillimeters),
		HeightMM: uint32(screen.HeightInMillimeters),
		Primary:  true,
	}
	mon.ScaleFactor = policy.scaleFor(mon)
	return mon
}

// GetPrimaryMonitor returns the primary output, or the first one when the
// server has no primary set.
func (c *Connection) GetPrimaryMonitor() (*Monitor, error) {
	monitors, err := c.GetMonitors()
	if err != nil {
		return nil, err
	}
	if len(monitors) == 0 {
		return nil, fmt.Errorf("no monitors found")
	}
	for i := range monitors {
		if monitors[i].Primary {
			return &monitors[i], nil
		}
	}
	return &monitors[0], nil
}

// PointerPosition returns the pointer location in root coordinates.
func (c *Connection) PointerPosition() (int, int, error) {
	pointer, err := xproto.QueryPointer(c.Conn(), c.Root).Reply()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query pointer: %w", err)
	}
	return int(pointer.RootX), int(pointer.RootY), nil
}

// CrtcMode returns the mode currently driving crtc.
func (c *Connection) CrtcMode(crtc randr.Crtc) (randr.Mode, error) {
	if !c.hasRandR {
		return 0, ErrNoRandR
	}
	info, err := randr.GetCrtcInfo(c.Conn(), crtc, xproto.TimeCurrentTime).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to get crtc info: %w", err)
	}
	return info.Mode, nil
}

// SetCrtcMode switches crtc to mode, keeping its position, rotation and
// outputs. Neighbouring CRTCs are not moved to account for a size change.
func (c *Connection) SetCrtcMode(crtc randr.Crtc, mode randr.Mode) error {
	if !c.hasRandR {
		return ErrNoRandR
	}
	info, err := randr.GetCrtcInfo(c.Conn(), crtc, xproto.TimeCurrentTime).Reply()
	if err != nil {
		return fmt.Errorf("failed to get crtc info: %w", err)
	}
	reply, err := randr.SetCrtcConfig(c.Conn(), crtc, info.Timestamp, xproto.TimeCurrentTime,
		info.X, info.Y, mode, info.Rotation, info.Outputs).Reply()
	if err != nil {
		return fmt.Errorf("failed to set crtc config: %w", err)
	}
	if reply.Status != randr.SetConfigSuccess {
		return fmt.Errorf("failed to set crtc config: status %d", reply.Status)
	}
	return nil
}

// SelectMonitorEvents asks for RandR notifications on the root window.
func (c *Connection) SelectMonitorEvents() error {
	if !c.hasRandR {
		return ErrNoRandR
	}
	return randr.SelectInputChecked(c.Conn(), c.Root,
		randr.NotifyMaskScreenChange|randr.NotifyMaskCrtcChange|randr.NotifyMaskOutputChange).Check()
}

func refreshRateMillihertz(mode randr.ModeInfo) uint32 {
	vtotal := float64(mode.Vtotal)
	if mode.ModeFlags&randr.ModeFlagDoubleScan != 0 {
		vtotal *= 2
	}
	if mode.ModeFlags&randr.ModeFlagInterlace != 0 {
		vtotal /= 2
	}
	if mode.Htotal == 0 || vtotal == 0 {
		return 0
	}
	return uint32(math.Round(float64(mode.DotClock) * 1000 / (float64(mode.Htotal) * vtotal)))
}

type scaleMode int

const (
	scaleFromRandR scaleMode = iota
	scaleFixed
)

type scalePolicy struct {
	mode  scaleMode
	fixed float64
}

func (p scalePolicy) scaleFor(m Monitor) float64 {
	if p.mode == scaleFixed {
		return p.fixed
	}
	return ScaleFromPhysicalSize(uint32(m.Width), uint32(m.Height), m.WidthMM, m.HeightMM)
}

// scalePolicy decides how monitor scale factors are computed: the env
// override wins, then Xft.dpi from the resource database, then RandR sizes.
func (c *Connection) scalePolicy() (scalePolicy, error) {
	if value, ok := os.LookupEnv(ScaleFactorEnv); ok {
		return parseScaleOverride(value)
	}
	reply, err := c.GetProperty(c.Root, "RESOURCE_MANAGER")
	if err == nil && reply != nil {
		if dpi, ok := ParseXftDPI(string(reply.Value)); ok {
			return scalePolicy{mode: scaleFixed, fixed: dpi / 96}, nil
		}
	}
	return scalePolicy{mode: scaleFromRandR}, nil
}

func parseScaleOverride(value string) (scalePolicy, error) {
	if strings.EqualFold(strings.TrimSpace(value), "randr") {
		return scalePolicy{mode: scaleFromRandR}, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return scalePolicy{}, fmt.Errorf("%s must be a positive number or \"randr\", got %q", ScaleFactorEnv, value)
	}
	return scalePolicy{mode: scaleFixed, fixed: f}, nil
}

// ParseXftDPI extracts Xft.dpi from a RESOURCE_MANAGER string.
func ParseXftDPI(db string) (float64, bool) {
	for _, line := range strings.Split(db, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok || strings.TrimSpace(key) != "Xft.dpi" {
			continue
		}
		dpi, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || dpi <= 0 {
			return 0, false
		}
		return dpi, true
	}
	return 0, false
}

// ScaleFromPhysicalSize estimates a scale factor from pixel and millimeter
// dimensions, quantized to twelfths and never below 1.
func ScaleFromPhysicalSize(widthPx, heightPx, widthMM, heightMM uint32) float64 {
	if widthMM == 0 || heightMM == 0 {
		return 1
	}
	ppmm := math.Sqrt((float64(widthPx) * float64(heightPx)) / (float64(widthMM) * float64(heightMM)))
	factor := math.Max(math.Round(ppmm*(12*25.4/96))/12, 1)
	if factor > 20 {
		return 1
	}
	return factor
}
