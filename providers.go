package headlessterm

import (
	"io"
	"sync"
)

// ResponseProvider writes terminal responses (e.g., cursor position reports) back to the PTY.
// Typically an io.Writer connected to the PTY input.
type ResponseProvider = io.Writer

// NoopResponse discards all response data (useful when responses are not needed).
type NoopResponse struct{}

func (NoopResponse) Write(p []byte) (n int, err error) {
	return len(p), nil
}

// --- Bell Provider ---

// BellProvider handles bell/beep events triggered by BEL (0x07) characters.
type BellProvider interface {
	// Ring is called when a bell character is received.
	Ring()
}

// NoopBell ignores all bell events.
type NoopBell struct{}

func (NoopBell) Ring() {}

// --- Title Provider ---

// TitleProvider handles window title changes (OSC 0, 1, 2).
type TitleProvider interface {
	// SetTitle is called when the title changes.
	SetTitle(title string)
	// PushTitle saves the current title to the stack.
	PushTitle()
	// PopTitle restores the title from the stack.
	PopTitle()
}

// NoopTitle ignores all title operations.
type NoopTitle struct{}

func (NoopTitle) SetTitle(title string) {}
func (NoopTitle) PushTitle()            {}
func (NoopTitle) PopTitle()             {}

// --- APC Provider ---

// APCProvider handles Application Program Command sequences (ESC _).
type APCProvider interface {
	// Receive is called with the payload of an APC sequence.
	Receive(data []byte)
}

// NoopAPC ignores all APC sequences.
type NoopAPC struct{}

func (NoopAPC) Receive(data []byte) {}

// --- PM Provider ---

// PMProvider handles Privacy Message sequences (ESC ^).
type PMProvider interface {
	// Receive is called with the payload of a PM sequence.
	Receive(data []byte)
}

// NoopPM ignores all PM sequences.
type NoopPM struct{}

func (NoopPM) Receive(data []byte) {}

// --- SOS Provider ---

// SOSProvider handles Start of String sequences (ESC X).
type SOSProvider interface {
	// Receive is called with the payload of a SOS sequence.
	Receive(data []byte)
}

// NoopSOS ignores all SOS sequences.
type NoopSOS struct{}

func (NoopSOS) Receive(data []byte) {}

// --- Size Provider ---

// SizeProvider supplies the pixel size of one character cell. Terminal
// uses it to size Sixel image placements and to answer CellSizePixels;
// without one, a 10x20 pixel cell is assumed.
type SizeProvider interface {
	// CellSizePixels returns the width and height of one cell in pixels.
	CellSizePixels() (width, height int)
}

// Ensure implementations satisfy their interfaces
var _ ResponseProvider = NoopResponse{}

// ClipboardProvider handles clipboard read/write operations (OSC 52).
type ClipboardProvider interface {
	// Read returns content from the specified clipboard ('c' for clipboard, 'p' for primary selection).
	Read(clipboard byte) string
	// Write stores content to the specified clipboard.
	Write(clipboard byte, data []byte)
}

// ScrollbackProvider stores lines scrolled off the top of the primary buffer.
// Implementations can use in-memory storage, disk, database, etc.
type ScrollbackProvider interface {
	// Push appends a line to scrollback. Oldest lines should be removed if MaxLines is exceeded.
	Push(line []Cell)
	// Len returns the current number of stored lines.
	Len() int
	// Line returns the line at index, where 0 is the oldest line. Returns nil if out of range.
	Line(index int) []Cell
	// Clear removes all stored lines.
	Clear()
	// SetMaxLines sets the maximum capacity. Implementations should trim oldest lines if needed.
	SetMaxLines(max int)
	// MaxLines returns the current maximum capacity.
	MaxLines() int
}

// WrappedScrollbackProvider is an optional extension of ScrollbackProvider
// for storage that preserves whether a scrolled-off line was an
// auto-wrapped continuation rather than an explicit newline. Buffer probes
// for this interface before pushing or reading a line and falls back to
// the plain Push/Line methods (assuming wrapped=false) when a caller's
// ScrollbackProvider doesn't implement it.
type WrappedScrollbackProvider interface {
	ScrollbackProvider
	// PushWrapped is Push plus the line's wrapped flag.
	PushWrapped(line []Cell, wrapped bool)
	// LineWrapped is Line plus the line's wrapped flag.
	LineWrapped(index int) (line []Cell, wrapped bool)
}

// --- Clipboard Implementations ---

// NoopClipboard ignores all clipboard operations.
type NoopClipboard struct{}

func (NoopClipboard) Read(clipboard byte) string  { return "" }
func (NoopClipboard) Write(clipboard byte, data []byte) {}

// --- Scrollback Implementations ---

// NoopScrollback discards all scrollback lines (useful for alternate buffer which has no scrollback).
type NoopScrollback struct{}

func (NoopScrollback) Push(line []Cell)      {}
func (NoopScrollback) Len() int              { return 0 }
func (NoopScrollback) Line(index int) []Cell { return nil }
func (NoopScrollback) Clear()                {}
func (NoopScrollback) SetMaxLines(max int)   {}
func (NoopScrollback) MaxLines() int         { return 0 }

// MemoryScrollback is an in-memory ScrollbackProvider backed by a
// RingBuffer[GridLine]: pushing past capacity discards the oldest line in
// O(1) rather than reallocating or shifting a slice.
type MemoryScrollback struct {
	mu  sync.Mutex
	buf *RingBuffer[GridLine]
}

// NewMemoryScrollback returns a MemoryScrollback retaining up to maxLines
// lines.
func NewMemoryScrollback(maxLines int) *MemoryScrollback {
	return &MemoryScrollback{buf: NewRingBuffer[GridLine](maxLines)}
}

func (s *MemoryScrollback) Push(line []Cell) {
	s.PushWrapped(line, false)
}

func (s *MemoryScrollback) PushWrapped(line []Cell, wrapped bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cells := make([]Cell, len(line))
	copy(cells, line)
	s.buf.Push(GridLine{Cells: cells, Wrapped: wrapped})
}

func (s *MemoryScrollback) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Len()
}

func (s *MemoryScrollback) Line(index int) []Cell {
	line, _ := s.LineWrapped(index)
	return line
}

func (s *MemoryScrollback) LineWrapped(index int) ([]Cell, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line, ok := s.buf.Get(index)
	if !ok {
		return nil, false
	}
	return line.Cells, line.Wrapped
}

func (s *MemoryScrollback) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.Clear()
}

func (s *MemoryScrollback) SetMaxLines(max int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.SetCap(max)
}

func (s *MemoryScrollback) MaxLines() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Cap()
}

// --- Recording Provider ---

// RecordingProvider captures raw input bytes before ANSI parsing for replay or debugging.
type RecordingProvider interface {
	// Record appends raw bytes to the recording.
	Record(data []byte)
	// Data returns all captured bytes since the last Clear call.
	Data() []byte
	// Clear discards all recorded data.
	Clear()
}

// NoopRecording discards all input recordings.
type NoopRecording struct{}

func (NoopRecording) Record([]byte) {}
func (NoopRecording) Data() []byte  { return nil }
func (NoopRecording) Clear()        {}

// MemoryRecording buffers recorded input in memory, for callers that want
// Config's declarative recording=true without supplying their own sink.
type MemoryRecording struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryRecording returns a ready-to-use in-memory RecordingProvider.
func NewMemoryRecording() *MemoryRecording {
	return &MemoryRecording{}
}

func (r *MemoryRecording) Record(data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = append(r.data, data...)
}

func (r *MemoryRecording) Data() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]byte, len(r.data))
	copy(out, r.data)
	return out
}

func (r *MemoryRecording) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = nil
}

// --- Window Provider ---

// WindowProvider handles CSI t window-manipulation requests: move, resize,
// raise/lower, iconify, and the position/size report queries.
type WindowProvider interface {
	// Perform executes a window command with its remaining numeric
	// arguments. cmd identifies the sub-action (see vtparser.WindowCommand).
	Perform(cmd int, args []int)
	// Position returns the window's screen position in pixels, for the
	// report-position query (CSI 13 t).
	Position() (x, y int)
	// SizePixels returns the window's outer size in pixels, reported for
	// vtparser.WindowCommandReportSizePixels. CSI 14 t is answered by
	// TextAreaSizePixels from the grid size and does not call this method.
	SizePixels() (width, height int)
}

// NoopWindow ignores all window manipulation requests and reports zeroes.
type NoopWindow struct{}

func (NoopWindow) Perform(cmd int, args []int)    {}
func (NoopWindow) Position() (x, y int)           { return 0, 0 }
func (NoopWindow) SizePixels() (width, height int) { return 0, 0 }

// --- Trust Provider ---

// TrustProvider is an application-supplied policy for requests that read
// screen contents back to the application. Terminal consults it with the
// operation "checksum" before answering a DECRQCRA checksum query and
// reports a checksum of 0000 when it is denied. No other sequence is
// gated by it.
type TrustProvider interface {
	// Allow reports whether the named operation (currently only
	// "checksum") is permitted right now.
	Allow(operation string) bool
}

// NoopTrust permits every operation unconditionally.
type NoopTrust struct{}

func (NoopTrust) Allow(operation string) bool { return true }

// Ensure implementations satisfy their interfaces
var _ BellProvider = (*NoopBell)(nil)
var _ TitleProvider = (*NoopTitle)(nil)
var _ APCProvider = (*NoopAPC)(nil)
var _ PMProvider = (*NoopPM)(nil)
var _ SOSProvider = (*NoopSOS)(nil)
var _ ClipboardProvider = (*NoopClipboard)(nil)
var _ ScrollbackProvider = (*NoopScrollback)(nil)
var _ ScrollbackProvider = (*MemoryScrollback)(nil)
var _ WrappedScrollbackProvider = (*MemoryScrollback)(nil)
var _ RecordingProvider = (*NoopRecording)(nil)
var _ RecordingProvider = (*MemoryRecording)(nil)
var _ WindowProvider = (*NoopWindow)(nil)
var _ TrustProvider = (*NoopTrust)(nil)
