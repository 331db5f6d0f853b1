package vtparser

// dispatchEsc handles a completed ESC sequence: an optional run of
// intermediate bytes (0x20-0x2f) in d.collect, followed by the final byte.
func (d *Decoder) dispatchEsc(final byte) {
	if len(d.collect) == 0 {
		switch final {
		case 'c':
			d.handler.ResetState()
		case 'D':
			d.handler.LineFeed()
		case 'E':
			d.handler.LineFeed()
			d.handler.CarriageReturn()
		case 'H':
			d.handler.HorizontalTabSet()
		case 'M':
			d.handler.ReverseIndex()
		case '7':
			d.handler.SaveCursorPosition()
		case '8':
			d.handler.RestoreCursorPosition()
		case '=':
			d.handler.SetKeypadApplicationMode()
		case '>':
			d.handler.UnsetKeypadApplicationMode()
		}
		return
	}

	marker := d.collect[0]
	switch marker {
	case '#':
		if final == '8' {
			d.handler.Decaln()
		}
	case '(':
		d.handler.ConfigureCharset(CharsetIndexG0, charsetFor(final))
	case ')':
		d.handler.ConfigureCharset(CharsetIndexG1, charsetFor(final))
	case '*':
		d.handler.ConfigureCharset(CharsetIndexG2, charsetFor(final))
	case '+':
		d.handler.ConfigureCharset(CharsetIndexG3, charsetFor(final))
	}
}

// charsetFor maps a charset designation final byte to a Charset value.
// Unrecognized codes fall back to ASCII, matching real terminals'
// tolerance for charsets they don't implement.
func charsetFor(final byte) Charset {
	switch final {
	case '0':
		return CharsetLineDrawing
	case 'A':
		return CharsetUK
	case 'B':
		return CharsetASCII
	default:
		return CharsetASCII
	}
}
