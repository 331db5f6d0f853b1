package headlessterm

import "testing"

func TestMemoryScrollbackPushAndLine(t *testing.T) {
	s := NewMemoryScrollback(10)
	line := []Cell{{Char: 'h'}, {Char: 'i'}}
	s.Push(line)

	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
	got := s.Line(0)
	if len(got) != 2 || got[0].Char != 'h' || got[1].Char != 'i' {
		t.Errorf("Line(0) = %v, want %v", got, line)
	}
}

func TestMemoryScrollbackEvictsOldest(t *testing.T) {
	s := NewMemoryScrollback(2)
	s.Push([]Cell{{Char: '1'}})
	s.Push([]Cell{{Char: '2'}})
	s.Push([]Cell{{Char: '3'}})

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if s.Line(0)[0].Char != '2' {
		t.Errorf("Line(0) = %q, want '2'", s.Line(0)[0].Char)
	}
	if s.Line(1)[0].Char != '3' {
		t.Errorf("Line(1) = %q, want '3'", s.Line(1)[0].Char)
	}
}

func TestMemoryScrollbackClear(t *testing.T) {
	s := NewMemoryScrollback(10)
	s.Push([]Cell{{Char: 'x'}})
	s.Clear()

	if s.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", s.Len())
	}
}

func TestMemoryScrollbackSetMaxLines(t *testing.T) {
	s := NewMemoryScrollback(10)
	s.Push([]Cell{{Char: 'a'}})
	s.Push([]Cell{{Char: 'b'}})
	s.SetMaxLines(1)

	if s.MaxLines() != 1 {
		t.Errorf("MaxLines() = %d, want 1", s.MaxLines())
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
	if s.Line(0)[0].Char != 'b' {
		t.Errorf("Line(0) = %q, want 'b'", s.Line(0)[0].Char)
	}
}

func TestMemoryScrollbackWithBuffer(t *testing.T) {
	storage := NewMemoryScrollback(100)
	b := NewBufferWithStorage(5, 10, storage)

	b.Cell(0, 0).Char = 'Z'
	b.ScrollUp(0, 5, 1)

	if b.ScrollbackLen() != 1 {
		t.Fatalf("ScrollbackLen() = %d, want 1", b.ScrollbackLen())
	}
	line := b.ScrollbackLine(0)
	if line[0].Char != 'Z' {
		t.Errorf("scrollback line[0].Char = %q, want 'Z'", line[0].Char)
	}
}
