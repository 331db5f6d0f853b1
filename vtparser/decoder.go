package vtparser

import "unicode/utf8"

const maxParams = 32

// Decoder drives the VT500 transition table over an incoming byte
// stream and dispatches decoded actions to a [Handler]. A Decoder is not
// safe for concurrent use; callers that feed it from multiple goroutines
// must serialize calls to Write themselves (see the package-level
// Terminal's own locking for one way to do this).
type Decoder struct {
	handler Handler
	state   state

	collect []byte
	params  [][]uint16
	paramOpen bool

	oscBuf   []byte
	oscInOSC bool

	dcsActive  bool
	dcsFinal   byte
	dcsCollect []byte
	dcsParams  [][]uint16
	dcsBuf     []byte

	sosKind byte
	sosBuf  []byte

	// awaitingST and awaitingSTFrom track a pending string terminator
	// (ESC \) seen while capturing an OSC, DCS passthrough, or SOS/PM/APC
	// string, since the "anywhere" ESC transition would otherwise discard
	// which string was in progress.
	awaitingST     bool
	awaitingSTFrom state

	// utf8Pending holds bytes of a partial UTF-8 sequence split across
	// Write calls.
	utf8Pending []byte
}

// NewDecoder creates a Decoder that dispatches to handler.
func NewDecoder(handler Handler) *Decoder {
	return &Decoder{handler: handler, state: stateGround}
}

// Write feeds raw bytes into the parser. It always consumes the entire
// slice and never returns an error; malformed sequences are absorbed by
// the state machine. Implements io.Writer.
func (d *Decoder) Write(data []byte) (int, error) {
	i := 0
	n := len(data)
	for i < n {
		b := data[i]

		if b == 0x1b && !d.awaitingST && isStringCaptureState(d.state) {
			d.awaitingSTFrom = d.state
			d.awaitingST = true
			d.state = stateEscape
			i++
			continue
		}
		if d.awaitingST {
			d.awaitingST = false
			if b == '\\' {
				d.terminateString(d.awaitingSTFrom)
				d.state = stateGround
				i++
				continue
			}
			// Not a valid ST: abandon the pending string and reprocess b
			// from Ground, per spec §7's tolerance for malformed input.
			d.state = stateGround
		}

		t := transitionTable[d.state][b]

		if d.state == stateGround && t.action == actionPrint {
			start := i
			for i < n {
				bb := data[i]
				tt := transitionTable[stateGround][bb]
				if tt.action != actionPrint {
					break
				}
				i++
			}
			d.print(data[start:i])
			continue
		}

		if d.state == stateCsiParam && t.action == actionParam && b >= '0' && b <= '9' {
			d.paramDigit(b)
			i++
			continue
		}

		d.perform(t.action, b)
		d.state = t.next
		i++
	}
	return n, nil
}

// WriteString is a convenience wrapper around Write.
func (d *Decoder) WriteString(s string) (int, error) {
	return d.Write([]byte(s))
}

func (d *Decoder) perform(a action, b byte) {
	switch a {
	case actionIgnore:
		// no-op
	case actionError:
		// malformed input; never propagated (spec §7)
	case actionExecute:
		d.execute(b)
	case actionPrint:
		d.print([]byte{b})
	case actionClear:
		d.clear()
	case actionCollect:
		if d.state == stateDcsEntry || d.state == stateDcsParam || d.state == stateDcsIntermediate {
			d.dcsCollect = append(d.dcsCollect, b)
		} else {
			d.collect = append(d.collect, b)
		}
	case actionParam:
		d.paramByte(b)
	case actionOscStart:
		d.oscBuf = d.oscBuf[:0]
		d.oscInOSC = true
	case actionOscPut:
		d.oscBuf = append(d.oscBuf, b)
	case actionOscEnd:
		d.dispatchOSC()
		d.oscInOSC = false
	case actionCsiDispatch:
		d.dispatchCSI(b)
	case actionEscDispatch:
		d.dispatchEsc(b)
	case actionDcsHook:
		d.hookDCS(b)
	case actionDcsPut:
		d.dcsBuf = append(d.dcsBuf, b)
	case actionDcsUnhook:
		d.unhookDCS()
	case actionSosStart:
		d.sosKind = b
		d.sosBuf = d.sosBuf[:0]
	case actionSosPut:
		d.sosBuf = append(d.sosBuf, b)
	case actionSosEnd:
		d.dispatchSosPmApc()
	}
}

// isStringCaptureState reports whether s accumulates a string body that
// can be terminated by ST (ESC \): OSC, DCS passthrough, and SOS/PM/APC.
func isStringCaptureState(s state) bool {
	return s == stateOscString || s == stateDcsPassthrough || s == stateSosPmApcString
}

// terminateString dispatches the string that was being captured in from
// when an ST (ESC \) was seen.
func (d *Decoder) terminateString(from state) {
	switch from {
	case stateOscString:
		d.dispatchOSC()
		d.oscInOSC = false
	case stateDcsPassthrough:
		d.unhookDCS()
	case stateSosPmApcString:
		d.dispatchSosPmApc()
	}
}

// dispatchSosPmApc delivers a captured SOS/PM/APC string body to the
// Handler method matching its introducer, then resets the buffer.
func (d *Decoder) dispatchSosPmApc() {
	switch d.sosKind {
	case 0x58, 0x98:
		d.handler.StartOfStringReceived(append([]byte(nil), d.sosBuf...))
	case 0x5e, 0x9e:
		d.handler.PrivacyMessageReceived(append([]byte(nil), d.sosBuf...))
	case 0x5f, 0x9f:
		d.handler.ApplicationCommandReceived(append([]byte(nil), d.sosBuf...))
	}
	d.sosBuf = d.sosBuf[:0]
}

// clear resets the per-sequence accumulators when entering Escape/CsiEntry/
// DcsEntry from an "anywhere" transition (ESC, DCS introducer).
func (d *Decoder) clear() {
	// If a DCS sequence was in progress, unhook it before starting a new one.
	if d.dcsActive {
		d.unhookDCS()
	}
	d.collect = d.collect[:0]
	d.params = d.params[:0]
	d.paramOpen = false
	d.dcsCollect = d.dcsCollect[:0]
	d.dcsParams = d.dcsParams[:0]
}

func (d *Decoder) paramByte(b byte) {
	if b == ';' {
		d.params = append(d.params, nil)
		d.paramOpen = false
		return
	}
	if b == ':' {
		if len(d.params) == 0 {
			d.params = append(d.params, nil)
		}
		d.params[len(d.params)-1] = append(d.params[len(d.params)-1], 0)
		d.paramOpen = true
		return
	}
	if len(d.params) == 0 {
		d.params = append(d.params, []uint16{0})
		d.paramOpen = true
	}
	if !d.paramOpen {
		d.params = append(d.params, []uint16{0})
		d.paramOpen = true
	}
	last := len(d.params) - 1
	sub := len(d.params[last]) - 1
	if sub < 0 {
		d.params[last] = append(d.params[last], 0)
		sub = 0
	}
	v := uint16(d.params[last][sub])
	v = v*10 + uint16(b-'0')
	if v > 9999 {
		v = 9999
	}
	d.params[last][sub] = v
}

// paramDigit is the CSI-param fast path: update the last field in place
// without re-entering the general dispatch switch.
func (d *Decoder) paramDigit(b byte) {
	d.paramByte(b)
}

// intParams flattens the outer (semicolon-separated) parameter list to a
// single int per field, taking the first subparameter when present and
// treating a missing field as 0.
func (d *Decoder) intParams() []int {
	out := make([]int, len(d.params))
	for i, p := range d.params {
		if len(p) == 0 {
			out[i] = 0
			continue
		}
		out[i] = int(p[0])
	}
	return out
}

func intParamOr(params []int, i, def int) int {
	if i < len(params) {
		if params[i] == 0 && def != 0 {
			return def
		}
		return params[i]
	}
	return def
}

func (d *Decoder) hasMarker(b byte) bool {
	for _, c := range d.collect {
		if c == b {
			return true
		}
	}
	return false
}

func (d *Decoder) finalIntermediate() byte {
	for _, c := range d.collect {
		if c >= 0x20 && c <= 0x2f {
			return c
		}
	}
	return 0
}

// print decodes a run of Ground-state bytes as UTF-8 text, handling
// sequences split across Write calls and invalid bytes per spec §4.2/§7.
func (d *Decoder) print(b []byte) {
	buf := b
	if len(d.utf8Pending) > 0 {
		buf = append(append([]byte{}, d.utf8Pending...), b...)
		d.utf8Pending = d.utf8Pending[:0]
	}

	for len(buf) > 0 {
		r, size := utf8.DecodeRune(buf)
		if r == utf8.RuneError && size <= 1 {
			if size == 0 {
				return
			}
			// Could be a genuine decode error, or a valid sequence whose
			// continuation bytes haven't arrived yet in this Write call.
			if !utf8.FullRune(buf) && len(buf) < utf8.UTFMax {
				d.utf8Pending = append(d.utf8Pending[:0], buf...)
				return
			}
			d.handler.Input(utf8.RuneError)
			buf = buf[1:]
			continue
		}
		d.handler.Input(r)
		buf = buf[size:]
	}
}

func (d *Decoder) execute(b byte) {
	switch b {
	case 0x07:
		d.handler.Bell()
	case 0x08:
		d.handler.Backspace()
	case 0x09:
		d.handler.Tab(1)
	case 0x0a, 0x0b, 0x0c:
		d.handler.LineFeed()
	case 0x0d:
		d.handler.CarriageReturn()
	case 0x0e:
		d.handler.SetActiveCharset(1)
	case 0x0f:
		d.handler.SetActiveCharset(0)
	case 0x18, 0x1a:
		// cancel: state already reset to Ground by the table
	case 0x84: // IND
		d.handler.LineFeed()
	case 0x85: // NEL
		d.handler.LineFeed()
		d.handler.CarriageReturn()
	case 0x88: // HTS
		d.handler.HorizontalTabSet()
	case 0x8d: // RI
		d.handler.ReverseIndex()
	}
}
