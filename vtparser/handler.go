package vtparser

import "image/color"

// Handler receives semantic actions dispatched by the Decoder's state
// machine. Every method is called synchronously from within Write, in
// the order the triggering bytes were consumed. Implementations must not
// block or recurse back into the Decoder.
//
// The method set mirrors the VT220/xterm operation catalog: each
// recognized CSI/OSC/DCS/ESC final byte (or C0/C1 control code) is
// dispatched as Handler calls with already-decoded typed parameters, so
// the Handler never has to re-parse parameter lists. Most map to one call;
// NEL and ESC E produce LineFeed followed by CarriageReturn.
type Handler interface {
	// Text
	Input(r rune)
	LineFeed()
	CarriageReturn()
	Backspace()
	Tab(n int)
	Bell()
	Substitute()

	// Cursor motion
	Goto(row, col int)
	GotoCol(col int)
	GotoLine(row int)
	MoveUp(n int)
	MoveDown(n int)
	MoveForward(n int)
	MoveBackward(n int)
	MoveUpCr(n int)
	MoveDownCr(n int)
	MoveForwardTabs(n int)
	MoveBackwardTabs(n int)
	HorizontalTabSet()
	SaveCursorPosition()
	RestoreCursorPosition()
	SetCursorStyle(style CursorStyle)

	// Erasure and editing
	ClearLine(mode LineClearMode)
	ClearScreen(mode ClearMode)
	ClearTabs(mode TabulationClearMode)
	EraseChars(n int)
	DeleteChars(n int)
	InsertBlank(n int)
	DeleteLines(n int)
	InsertBlankLines(n int)
	Decaln()

	// Scrolling
	ScrollUp(n int)
	ScrollDown(n int)
	ReverseIndex()
	SetScrollingRegion(top, bottom int)
	SetMargins(left, right int) // DECSLRM (CSI Pl ; Pr s), only while DECLRMM is enabled

	// Attributes and color
	SetTerminalCharAttribute(attr TerminalCharAttribute)
	SetColor(index int, c color.Color)
	ResetColor(i int)
	SetDynamicColor(prefix string, index int, terminator string)
	SetHyperlink(hyperlink *Hyperlink)

	// Modes
	SetMode(mode TerminalMode)
	UnsetMode(mode TerminalMode)
	SetKeypadApplicationMode()
	UnsetKeypadApplicationMode()
	SetKeyboardMode(mode KeyboardMode, behavior KeyboardModeBehavior)
	PushKeyboardMode(mode KeyboardMode)
	PopKeyboardMode(n int)
	ReportKeyboardMode()
	SetModifyOtherKeys(modify ModifyOtherKeys)
	ReportModifyOtherKeys()

	// Charsets
	ConfigureCharset(index CharsetIndex, charset Charset)
	SetActiveCharset(n int)

	// Reports
	DeviceStatus(n int)
	IdentifyTerminal(b byte)
	TextAreaSizeChars()
	TextAreaSizePixels()
	CellSizePixels()
	ReportSettings(payload string) // DECRQSS (DCS $ q Pt ST)
	ReportChecksum(id int, top, left, bottom, right int) // DECRQCRA (DCS Pid ! ~ rect ST)
	WindowCommand(cmd WindowCommand, args []int)

	// Title and working directory
	SetTitle(title string)
	PushTitle()
	PopTitle()
	SetWorkingDirectory(uri string)

	// Clipboard
	ClipboardLoad(clipboard byte, terminator string)
	ClipboardStore(clipboard byte, data []byte)

	// String types
	ApplicationCommandReceived(data []byte)
	PrivacyMessageReceived(data []byte)
	StartOfStringReceived(data []byte)
	SixelReceived(params [][]uint16, data []byte)
	ShellIntegrationMark(mark ShellIntegrationMark, exitCode int)

	// Shell integration and desktop extensions
	SetUserVar(name, value string)          // OSC 1337 SetUserVar
	NotificationReceived(n NotificationPayload) // OSC 99

	// Lifecycle
	ResetState()
}

// NotificationPayload carries one assembled OSC 99 desktop notification
// request, reassembled from its ':'-separated metadata field and payload.
type NotificationPayload struct {
	ID          string
	Done        bool
	PayloadType string
	Encoding    string
	Actions     []string
	TrackClose  bool
	Timeout     int
	AppName     string
	Type        string
	IconName    string
	IconCacheID string
	Sound       string
	Urgency     int
	Occasion    string
	Data        []byte
}
