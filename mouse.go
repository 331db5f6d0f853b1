package headlessterm

import "fmt"

// MouseButton identifies which button a mouse report describes.
type MouseButton int

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonMiddle
	MouseButtonRight
	MouseButtonNone
	MouseButtonWheelUp
	MouseButtonWheelDown
)

// MouseEventType distinguishes press, release, and motion reports.
type MouseEventType int

const (
	MouseEventPress MouseEventType = iota
	MouseEventRelease
	MouseEventMotion
)

// MouseModifiers is a bitmask of held modifier keys at the time of a
// mouse event, as carried in the button byte of every mouse protocol.
type MouseModifiers int

const (
	MouseModShift MouseModifiers = 1 << iota
	MouseModMeta
	MouseModControl
)

// MouseEvent describes a single mouse action a host wants reported to the
// client, in 0-based row/col coordinates.
type MouseEvent struct {
	Button MouseButton
	Type   MouseEventType
	Row    int
	Col    int
	Mods   MouseModifiers
}

// mouseButtonCode returns the base Cb button code (xterm convention):
// 0-2 for left/middle/right, 3 for release, 64/65 for the wheel.
func mouseButtonCode(ev MouseEvent) int {
	switch ev.Button {
	case MouseButtonWheelUp:
		return 64
	case MouseButtonWheelDown:
		return 65
	}
	if ev.Type == MouseEventRelease {
		return 3
	}
	switch ev.Button {
	case MouseButtonLeft:
		return 0
	case MouseButtonMiddle:
		return 1
	case MouseButtonRight:
		return 2
	default:
		return 3 // MouseButtonNone during motion reports as a release-shaped code
	}
}

func mouseModifierBits(mods MouseModifiers) int {
	var b int
	if mods&MouseModShift != 0 {
		b |= 4
	}
	if mods&MouseModMeta != 0 {
		b |= 8
	}
	if mods&MouseModControl != 0 {
		b |= 16
	}
	return b
}

// EncodeMouseEvent renders ev as an escape sequence using whichever mouse
// protocol is currently negotiated (SGR, urxvt, UTF-8, or legacy X10/VT200
// byte encoding), honoring which class of events is currently being
// tracked. The second return value is false when no tracking mode admits
// this event, in which case the string is empty.
func (t *Terminal) EncodeMouseEvent(ev MouseEvent) (string, bool) {
	t.mu.RLock()
	modes := t.modes
	t.mu.RUnlock()

	if !mouseEventTracked(modes, ev) {
		return "", false
	}

	cb := mouseButtonCode(ev) | mouseModifierBits(ev.Mods)
	if ev.Type == MouseEventMotion {
		cb |= 32
	}

	switch {
	case modes&ModeSGRMouse != 0:
		final := byte('M')
		if ev.Type == MouseEventRelease {
			// SGR reports the released button itself, not the legacy code 3.
			final = 'm'
			press := ev
			press.Type = MouseEventPress
			cb = mouseButtonCode(press) | mouseModifierBits(ev.Mods)
		}
		return fmt.Sprintf("\x1b[<%d;%d;%d%c", cb, ev.Col+1, ev.Row+1, final), true
	case modes&ModeURXVTMouse != 0:
		return fmt.Sprintf("\x1b[%d;%d;%dM", cb+32, ev.Col+1, ev.Row+1), true
	case modes&ModeUTF8Mouse != 0:
		return fmt.Sprintf("\x1b[M%c%c%c", rune(cb+32), rune(ev.Col+1+32), rune(ev.Row+1+32)), true
	default:
		return legacyMouseReport(cb, ev.Col, ev.Row), true
	}
}

// legacyMouseReport builds the original X10/VT200 report: CSI M Cb Cx Cy,
// each coordinate a single byte clamped to the 223-cell range the 7-bit
// encoding can carry.
func legacyMouseReport(cb, col, row int) string {
	clamp := func(n int) byte {
		if n > 222 {
			n = 222
		}
		if n < 0 {
			n = 0
		}
		return byte(32 + n + 1)
	}
	return string([]byte{0x1b, '[', 'M', byte(32 + cb), clamp(col), clamp(row)})
}

// mouseEventTracked reports whether the currently set mouse modes admit ev:
// click-only tracking reports presses/releases, cell-motion tracking adds
// motion while a button is held, and all-motion tracking reports every
// movement regardless of button state.
func mouseEventTracked(modes TerminalMode, ev MouseEvent) bool {
	switch ev.Type {
	case MouseEventPress, MouseEventRelease:
		return modes&(ModeReportMouseClicks|ModeReportCellMouseMotion|ModeReportAllMouseMotion) != 0
	case MouseEventMotion:
		if modes&ModeReportAllMouseMotion != 0 {
			return true
		}
		if modes&ModeReportCellMouseMotion != 0 {
			return ev.Button != MouseButtonNone
		}
		return false
	}
	return false
}
