package vtparser

// dispatchCSI handles a completed CSI sequence: zero or more private
// markers / intermediates in d.collect, zero or more parameters in
// d.params, and the final byte.
func (d *Decoder) dispatchCSI(final byte) {
	params := d.intParams()
	marker := d.csiMarker()

	switch marker {
	case '?':
		d.dispatchDecPrivate(final, params)
		return
	case '>':
		d.dispatchGreaterThan(final, params)
		return
	case '<':
		d.dispatchLessThan(final, params)
		return
	case '=':
		if final == 'c' {
			d.handler.IdentifyTerminal('=')
		}
		return
	case '!':
		if final == 'p' {
			d.handler.ResetState() // DECSTR soft reset
		}
		return
	}

	switch final {
	case 'A':
		d.handler.MoveUp(intParamOr(params, 0, 1))
	case 'B':
		d.handler.MoveDown(intParamOr(params, 0, 1))
	case 'C':
		d.handler.MoveForward(intParamOr(params, 0, 1))
	case 'D':
		d.handler.MoveBackward(intParamOr(params, 0, 1))
	case 'E':
		d.handler.MoveDownCr(intParamOr(params, 0, 1))
	case 'F':
		d.handler.MoveUpCr(intParamOr(params, 0, 1))
	case 'G', '`':
		d.handler.GotoCol(intParamOr(params, 0, 1) - 1)
	case 'd':
		d.handler.GotoLine(intParamOr(params, 0, 1) - 1)
	case 'H', 'f':
		row := intParamOr(params, 0, 1) - 1
		col := intParamOr(params, 1, 1) - 1
		d.handler.Goto(row, col)
	case 'I':
		d.handler.MoveForwardTabs(intParamOr(params, 0, 1))
	case 'Z':
		d.handler.MoveBackwardTabs(intParamOr(params, 0, 1))
	case 'J':
		d.handler.ClearScreen(ClearMode(intParamOr(params, 0, 0)))
	case 'K':
		d.handler.ClearLine(LineClearMode(intParamOr(params, 0, 0)))
	case 'L':
		d.handler.InsertBlankLines(intParamOr(params, 0, 1))
	case 'M':
		d.handler.DeleteLines(intParamOr(params, 0, 1))
	case 'P':
		d.handler.DeleteChars(intParamOr(params, 0, 1))
	case '@':
		d.handler.InsertBlank(intParamOr(params, 0, 1))
	case 'X':
		d.handler.EraseChars(intParamOr(params, 0, 1))
	case 'S':
		d.handler.ScrollUp(intParamOr(params, 0, 1))
	case 'T':
		d.handler.ScrollDown(intParamOr(params, 0, 1))
	case 'g':
		d.handler.ClearTabs(TabulationClearMode(intParamOr(params, 0, 0)))
	case 'c':
		d.handler.IdentifyTerminal(0)
	case 'n':
		d.handler.DeviceStatus(intParamOr(params, 0, 0))
	case 'm':
		d.dispatchSGR(params)
	case 'r':
		if len(params) >= 2 {
			d.handler.SetScrollingRegion(params[0], params[1])
		} else {
			d.handler.SetScrollingRegion(0, 0)
		}
	case 's':
		// Ambiguous with SCOSC (plain "CSI s" saves the cursor); xterm
		// resolves it by whether any parameters were given, since a real
		// DECSLRM always carries at least the left column.
		if len(params) > 0 {
			d.handler.SetMargins(intParamOr(params, 0, 1), intParamOr(params, 1, 0))
		} else {
			d.handler.SaveCursorPosition()
		}
	case 'u':
		d.handler.RestoreCursorPosition()
	case 'h':
		for _, p := range params {
			if m, ok := ansiModeFor(p); ok {
				d.handler.SetMode(m)
			}
		}
	case 'l':
		for _, p := range params {
			if m, ok := ansiModeFor(p); ok {
				d.handler.UnsetMode(m)
			}
		}
	case 't':
		d.dispatchWindowOp(params)
	case 'q':
		if d.finalIntermediate() == ' ' {
			d.handler.SetCursorStyle(CursorStyle(intParamOr(params, 0, 1)))
		}
	}
}

// csiMarker returns the DEC private/extension marker byte (one of
// '?','>','<','=','!') collected for this sequence, or 0 if none.
func (d *Decoder) csiMarker() byte {
	for _, c := range d.collect {
		switch c {
		case '?', '>', '<', '=', '!':
			return c
		}
	}
	return 0
}

// ansiModeFor maps an ANSI (non-DEC-private) SM/RM mode number to a
// TerminalMode. Only IRM (4) and LNM (20) are commonly implemented.
func ansiModeFor(n int) (TerminalMode, bool) {
	switch n {
	case 4:
		return TerminalModeInsert, true
	case 20:
		return TerminalModeLineFeedNewLine, true
	}
	return 0, false
}

func (d *Decoder) dispatchDecPrivate(final byte, params []int) {
	switch final {
	case 'h':
		for _, p := range params {
			d.setDecMode(p, true)
		}
	case 'l':
		for _, p := range params {
			d.setDecMode(p, false)
		}
	case 'c':
		d.handler.IdentifyTerminal('?')
	case 'n':
		d.handler.DeviceStatus(intParamOr(params, 0, 0))
	}
}

func (d *Decoder) setDecMode(p int, set bool) {
	var m TerminalMode
	switch p {
	case 1:
		m = TerminalModeCursorKeys
	case 3:
		m = TerminalModeColumnMode
	case 5:
		m = TerminalModeReverseVideo
	case 6:
		m = TerminalModeOrigin
	case 7:
		m = TerminalModeLineWrap
	case 9:
		m = TerminalModeReportMouseClicks
	case 12:
		m = TerminalModeBlinkingCursor
	case 25:
		m = TerminalModeShowCursor
	case 45:
		m = TerminalModeReverseWraparound
	case 47, 1047:
		m = TerminalModeSwapScreenAndSetRestoreCursor
	case 66:
		if set {
			d.handler.SetKeypadApplicationMode()
		} else {
			d.handler.UnsetKeypadApplicationMode()
		}
		return
	case 69:
		m = TerminalModeLeftRightMargin
	case 1000:
		m = TerminalModeReportMouseClicks
	case 1002:
		m = TerminalModeReportCellMouseMotion
	case 1003:
		m = TerminalModeReportAllMouseMotion
	case 1004:
		m = TerminalModeReportFocusInOut
	case 1005:
		m = TerminalModeUTF8Mouse
	case 1006:
		m = TerminalModeSGRMouse
	case 1015:
		m = TerminalModeURXVTMouse
	case 1048:
		if set {
			d.handler.SaveCursorPosition()
		} else {
			d.handler.RestoreCursorPosition()
		}
		return
	case 1049:
		m = TerminalModeSwapScreenAndSetRestoreCursor
	case 2004:
		m = TerminalModeBracketedPaste
	default:
		return
	}
	if set {
		d.handler.SetMode(m)
	} else {
		d.handler.UnsetMode(m)
	}
}

func (d *Decoder) dispatchGreaterThan(final byte, params []int) {
	switch final {
	case 'c':
		d.handler.IdentifyTerminal('>')
	case 'm':
		d.handler.SetModifyOtherKeys(ModifyOtherKeys(intParamOr(params, len(params)-1, 0)))
	case 'u':
		d.handler.PushKeyboardMode(KeyboardMode(intParamOr(params, 0, 0)))
	}
}

func (d *Decoder) dispatchLessThan(final byte, params []int) {
	switch final {
	case 'u':
		d.handler.PopKeyboardMode(intParamOr(params, 0, 1))
	}
}

func (d *Decoder) dispatchWindowOp(params []int) {
	if len(params) == 0 {
		return
	}
	op := params[0]
	args := params[1:]
	switch op {
	case 1:
		d.handler.WindowCommand(WindowCommandDeiconify, args)
	case 2:
		d.handler.WindowCommand(WindowCommandIconify, args)
	case 3:
		d.handler.WindowCommand(WindowCommandMove, args)
	case 4:
		d.handler.WindowCommand(WindowCommandResizePixels, args)
	case 5:
		d.handler.WindowCommand(WindowCommandRaise, args)
	case 6:
		d.handler.WindowCommand(WindowCommandLower, args)
	case 7:
		d.handler.WindowCommand(WindowCommandRefresh, args)
	case 8:
		d.handler.WindowCommand(WindowCommandResizeChars, args)
	case 9:
		d.handler.WindowCommand(WindowCommandMaximize, args)
	case 10:
		d.handler.WindowCommand(WindowCommandFullscreen, args)
	case 11:
		d.handler.WindowCommand(WindowCommandReportPosition, args)
	case 13:
		d.handler.WindowCommand(WindowCommandReportPosition, args)
	case 14:
		d.handler.TextAreaSizePixels()
	case 18:
		d.handler.TextAreaSizeChars()
	case 19:
		d.handler.WindowCommand(WindowCommandReportScreenSizeChars, args)
	case 20:
		d.handler.WindowCommand(WindowCommandReportIconLabel, args)
	case 21:
		d.handler.WindowCommand(WindowCommandReportTitle, args)
	case 22:
		d.handler.PushTitle()
	case 23:
		d.handler.PopTitle()
	}
}

// dispatchSGR converts a parsed SGR parameter list into zero or more
// TerminalCharAttribute calls, per spec §4.3's code table, including the
// 38/48/58 extended-color forms written with ';' separators. A ':'-separated
// form arrives here as its first sub-parameter only, so its color is not
// applied.
func (d *Decoder) dispatchSGR(params []int) {
	if len(params) == 0 {
		d.handler.SetTerminalCharAttribute(TerminalCharAttribute{Attr: CharAttributeReset})
		return
	}

	for i := 0; i < len(params); i++ {
		p := params[i]
		switch p {
		case 0:
			d.handler.SetTerminalCharAttribute(TerminalCharAttribute{Attr: CharAttributeReset})
		case 1:
			d.emit(CharAttributeBold)
		case 2:
			d.emit(CharAttributeDim)
		case 3:
			d.emit(CharAttributeItalic)
		case 4:
			d.emit(CharAttributeUnderline)
		case 5:
			d.emit(CharAttributeBlinkSlow)
		case 6:
			d.emit(CharAttributeBlinkFast)
		case 7:
			d.emit(CharAttributeReverse)
		case 8:
			d.emit(CharAttributeHidden)
		case 9:
			d.emit(CharAttributeStrike)
		case 21:
			d.emit(CharAttributeDoubleUnderline)
		case 22:
			d.emit(CharAttributeCancelBoldDim)
		case 23:
			d.emit(CharAttributeCancelItalic)
		case 24:
			d.emit(CharAttributeCancelUnderline)
		case 25:
			d.emit(CharAttributeCancelBlink)
		case 27:
			d.emit(CharAttributeCancelReverse)
		case 28:
			d.emit(CharAttributeCancelHidden)
		case 29:
			d.emit(CharAttributeCancelStrike)
		case 30, 31, 32, 33, 34, 35, 36, 37:
			d.emitNamed(CharAttributeForeground, p-30)
		case 38:
			i += d.emitExtendedColor(CharAttributeForeground, params, i)
		case 39:
			d.handler.SetTerminalCharAttribute(TerminalCharAttribute{Attr: CharAttributeForeground})
		case 40, 41, 42, 43, 44, 45, 46, 47:
			d.emitNamed(CharAttributeBackground, p-40)
		case 48:
			i += d.emitExtendedColor(CharAttributeBackground, params, i)
		case 49:
			d.handler.SetTerminalCharAttribute(TerminalCharAttribute{Attr: CharAttributeBackground})
		case 58:
			i += d.emitExtendedColor(CharAttributeUnderlineColor, params, i)
		case 59:
			d.handler.SetTerminalCharAttribute(TerminalCharAttribute{Attr: CharAttributeUnderlineColor})
		case 90, 91, 92, 93, 94, 95, 96, 97:
			d.emitNamed(CharAttributeForeground, p-90+8)
		case 100, 101, 102, 103, 104, 105, 106, 107:
			d.emitNamed(CharAttributeBackground, p-100+8)
		}
	}
}

func (d *Decoder) emit(a CharAttribute) {
	d.handler.SetTerminalCharAttribute(TerminalCharAttribute{Attr: a})
}

func (d *Decoder) emitNamed(a CharAttribute, name int) {
	n := NamedColor(name)
	d.handler.SetTerminalCharAttribute(TerminalCharAttribute{Attr: a, NamedColor: &n})
}

// emitExtendedColor parses the 5;n (256-color) or 2;r;g;b (truecolor) form
// that follows a 38/48/58 code, starting at params[i+1], and returns how
// many extra top-level fields it consumed (0 if malformed).
func (d *Decoder) emitExtendedColor(a CharAttribute, params []int, i int) int {
	if i+1 >= len(params) {
		return 0
	}
	switch params[i+1] {
	case 5:
		if i+2 >= len(params) {
			return 1
		}
		idx := IndexedColor{Index: uint8(params[i+2])}
		d.handler.SetTerminalCharAttribute(TerminalCharAttribute{Attr: a, IndexedColor: &idx})
		return 2
	case 2:
		if i+4 >= len(params) {
			return 1
		}
		rgb := RGBColor{R: uint8(params[i+2]), G: uint8(params[i+3]), B: uint8(params[i+4])}
		d.handler.SetTerminalCharAttribute(TerminalCharAttribute{Attr: a, RGBColor: &rgb})
		return 4
	}
	return 0
}
