// Package vtparser implements a table-driven state machine for the
// DEC VT500 series control sequence grammar (the parser described by
// Paul Williams' "DEC ANSI parser" state diagram, as used by xterm,
// alacritty, and most VT100-descendant terminal emulators).
//
// A [Decoder] consumes raw bytes via [Decoder.Write] and dispatches
// semantic actions to a caller-supplied [Handler]. The Decoder never
// returns an error: malformed or unsupported sequences are absorbed by
// the state machine and leave no observable trace beyond a skipped
// dispatch.
package vtparser

// LineClearMode selects the range cleared by Handler.ClearLine (CSI K).
type LineClearMode int

const (
	LineClearModeRight LineClearMode = iota
	LineClearModeLeft
	LineClearModeAll
)

// ClearMode selects the range cleared by Handler.ClearScreen (CSI J).
type ClearMode int

const (
	ClearModeBelow ClearMode = iota
	ClearModeAbove
	ClearModeAll
	ClearModeSaved
)

// TabulationClearMode selects which tab stops Handler.ClearTabs removes (CSI g).
type TabulationClearMode int

const (
	TabulationClearModeCurrent TabulationClearMode = iota
	TabulationClearModeAll
)

// CharsetIndex selects one of the four G0-G3 character set slots.
type CharsetIndex int

const (
	CharsetIndexG0 CharsetIndex = iota
	CharsetIndexG1
	CharsetIndexG2
	CharsetIndexG3
)

// Charset identifies a character set designation (ESC ( / ) / * / +).
type Charset int

const (
	CharsetASCII Charset = iota
	CharsetLineDrawing
	CharsetUK
)

// CursorStyle selects the cursor rendering shape set by DECSCUSR (CSI SP q).
type CursorStyle int

const (
	CursorStyleBlinkingBlock CursorStyle = iota
	CursorStyleSteadyBlock
	CursorStyleBlinkingUnderline
	CursorStyleSteadyUnderline
	CursorStyleBlinkingBar
	CursorStyleSteadyBar
)

// TerminalMode is a single DEC private or ANSI mode identifier, as carried
// in DECSET/DECRST (CSI ? Pm h/l) and SM/RM (CSI Pm h/l) sequences.
type TerminalMode int

const (
	TerminalModeCursorKeys TerminalMode = iota
	TerminalModeColumnMode
	TerminalModeInsert
	TerminalModeOrigin
	TerminalModeLineWrap
	TerminalModeBlinkingCursor
	TerminalModeLineFeedNewLine
	TerminalModeShowCursor
	TerminalModeReportMouseClicks
	TerminalModeReportCellMouseMotion
	TerminalModeReportAllMouseMotion
	TerminalModeReportFocusInOut
	TerminalModeUTF8Mouse
	TerminalModeSGRMouse
	TerminalModeURXVTMouse
	TerminalModeAlternateScroll
	TerminalModeUrgencyHints
	TerminalModeSwapScreenAndSetRestoreCursor
	TerminalModeBracketedPaste
	TerminalModeSaveCursor
	TerminalModeLeftRightMargin
	TerminalModeReverseWraparound
	TerminalModeKeypadApplication
	TerminalModeReverseVideo
)

// CharAttribute identifies one SGR (CSI m) parameter's semantic effect.
type CharAttribute int

const (
	CharAttributeReset CharAttribute = iota
	CharAttributeBold
	CharAttributeDim
	CharAttributeItalic
	CharAttributeUnderline
	CharAttributeDoubleUnderline
	CharAttributeCurlyUnderline
	CharAttributeDottedUnderline
	CharAttributeDashedUnderline
	CharAttributeBlinkSlow
	CharAttributeBlinkFast
	CharAttributeReverse
	CharAttributeHidden
	CharAttributeStrike
	CharAttributeCancelBold
	CharAttributeCancelBoldDim
	CharAttributeCancelItalic
	CharAttributeCancelUnderline
	CharAttributeCancelBlink
	CharAttributeCancelReverse
	CharAttributeCancelHidden
	CharAttributeCancelStrike
	CharAttributeForeground
	CharAttributeBackground
	CharAttributeUnderlineColor
)

// RGBColor is a resolved 24-bit truecolor SGR color (38/48;2;r;g;b).
type RGBColor struct {
	R, G, B uint8
}

// IndexedColor is a resolved 256-color-palette SGR color (38/48;5;n).
type IndexedColor struct {
	Index uint8
}

// NamedColor is one of the sixteen standard SGR colors (30-37/40-47,
// 90-97/100-107). SGR 39 and 49 are dispatched without a color.
type NamedColor int

// TerminalCharAttribute carries one parsed SGR effect plus its resolved
// color payload, when Attr is CharAttributeForeground/Background/UnderlineColor.
type TerminalCharAttribute struct {
	Attr         CharAttribute
	RGBColor     *RGBColor
	IndexedColor *IndexedColor
	NamedColor   *NamedColor
}

// KeyboardMode is a bitmask of the xterm "modifyOtherKeys"-era keyboard
// protocol enhancement flags (CSI > Pm u / CSI < Pm u family).
type KeyboardMode uint8

const (
	KeyboardModeNoMode KeyboardMode = 0
	KeyboardModeDisambiguateEscCodes KeyboardMode = 1 << (iota - 1)
	KeyboardModeReportEventTypes
	KeyboardModeReportAlternateKeys
	KeyboardModeReportAllKeysAsEscapeCodes
	KeyboardModeReportAssociatedText
)

// KeyboardModeBehavior selects how SetKeyboardMode combines a new mode
// with the currently active one.
type KeyboardModeBehavior int

const (
	KeyboardModeBehaviorReplace KeyboardModeBehavior = iota
	KeyboardModeBehaviorUnion
	KeyboardModeBehaviorDifference
)

// ModifyOtherKeys selects the xterm modifyOtherKeys reporting level (CSI > 4 ; Pm m).
type ModifyOtherKeys int

const (
	ModifyOtherKeysReset ModifyOtherKeys = iota
	ModifyOtherKeysNumeric
	ModifyOtherKeysAll
)

// Hyperlink associates subsequently printed cells with a clickable URI (OSC 8).
type Hyperlink struct {
	ID  string
	URI string
}

// ShellIntegrationMark identifies a semantic prompt mark (OSC 133).
type ShellIntegrationMark int

const (
	PromptStart ShellIntegrationMark = iota
	CommandStart
	CommandExecuted
	CommandFinished
)

// WindowCommand identifies a CSI t window-manipulation sub-action.
type WindowCommand int

const (
	WindowCommandDeiconify WindowCommand = iota
	WindowCommandIconify
	WindowCommandMove
	WindowCommandResizePixels
	WindowCommandRaise
	WindowCommandLower
	WindowCommandRefresh
	WindowCommandResizeChars
	WindowCommandMaximize
	WindowCommandFullscreen
	WindowCommandReportPosition
	WindowCommandReportSizePixels
	WindowCommandReportSizeChars
	WindowCommandReportScreenSizeChars
	WindowCommandReportIconLabel
	WindowCommandReportTitle
	WindowCommandPushTitle
	WindowCommandPopTitle
)
