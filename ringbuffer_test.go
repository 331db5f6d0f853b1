package headlessterm

import "testing"

func TestRingBufferPushAndGet(t *testing.T) {
	r := NewRingBuffer[int](3)
	r.Push(1)
	r.Push(2)
	r.Push(3)

	if r.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", r.Len())
	}
	for i, want := range []int{1, 2, 3} {
		got, ok := r.Get(i)
		if !ok || got != want {
			t.Errorf("Get(%d) = %d, %v, want %d, true", i, got, ok, want)
		}
	}
}

func TestRingBufferOverwritesOldest(t *testing.T) {
	r := NewRingBuffer[int](3)
	r.Push(1)
	r.Push(2)
	r.Push(3)
	r.Push(4)

	if r.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", r.Len())
	}
	for i, want := range []int{2, 3, 4} {
		got, ok := r.Get(i)
		if !ok || got != want {
			t.Errorf("Get(%d) = %d, %v, want %d, true", i, got, ok, want)
		}
	}
}

func TestRingBufferZeroCapacity(t *testing.T) {
	r := NewRingBuffer[int](0)
	r.Push(1)
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}

func TestRingBufferGetOutOfRange(t *testing.T) {
	r := NewRingBuffer[int](2)
	r.Push(1)
	if _, ok := r.Get(-1); ok {
		t.Error("Get(-1) should not be ok")
	}
	if _, ok := r.Get(5); ok {
		t.Error("Get(5) should not be ok")
	}
}

func TestRingBufferClear(t *testing.T) {
	r := NewRingBuffer[int](3)
	r.Push(1)
	r.Push(2)
	r.Clear()

	if r.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", r.Len())
	}
	if r.Cap() != 3 {
		t.Errorf("Cap() after Clear = %d, want 3", r.Cap())
	}
}

func TestRingBufferSetCapShrinkKeepsNewest(t *testing.T) {
	r := NewRingBuffer[int](5)
	for i := 1; i <= 5; i++ {
		r.Push(i)
	}
	r.SetCap(2)

	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}
	for i, want := range []int{4, 5} {
		got, ok := r.Get(i)
		if !ok || got != want {
			t.Errorf("Get(%d) = %d, %v, want %d, true", i, got, ok, want)
		}
	}
}

func TestRingBufferSetCapGrow(t *testing.T) {
	r := NewRingBuffer[int](2)
	r.Push(1)
	r.Push(2)
	r.SetCap(5)

	if r.Cap() != 5 {
		t.Errorf("Cap() = %d, want 5", r.Cap())
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
	r.Push(3)
	r.Push(4)
	r.Push(5)
	if r.Len() != 5 {
		t.Errorf("Len() = %d, want 5", r.Len())
	}
}
