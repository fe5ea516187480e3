package clock

import "testing"

func TestMockAdvance(t *testing.T) {
	m := NewMock(1000)
	if m.Now() != 1000 {
		t.Fatalf("Now() = %d, want 1000", m.Now())
	}
	m.Advance(500)
	if m.Now() != 1500 {
		t.Fatalf("Now() after Advance(500) = %d, want 1500", m.Now())
	}
}

func TestMockSet(t *testing.T) {
	m := NewMock(0)
	m.Set(42)
	if m.Now() != 42 {
		t.Fatalf("Now() after Set(42) = %d, want 42", m.Now())
	}
}

func TestSystemReturnsPositiveTime(t *testing.T) {
	s := System{}
	if s.Now() == 0 {
		t.Fatal("System clock should not report unix epoch zero")
	}
}
