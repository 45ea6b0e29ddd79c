package core

import "testing"

func TestSimTimerDisabledCounts(t *testing.T) {
	tm := NewSimTimer()
	tm.Init()

	raised := 0
	tm.SetHandler(func() { raised++ })
	tm.SetCompare(10)
	tm.Advance(100)

	if raised != 0 || tm.Interrupts() != 0 {
		t.Errorf("Masked timer raised %d interrupts", raised)
	}
	if tm.Value() != 100 || tm.Now() != 100 {
		t.Errorf("Expected counter 100, got %d (now %d)", tm.Value(), tm.Now())
	}
}

func TestSimTimerCompareFiresOneTickLate(t *testing.T) {
	tm := NewSimTimer()
	tm.Init()

	var at []uint32
	tm.SetHandler(func() { at = append(at, tm.Value()) })
	tm.SetCompare(9)
	tm.EnableInterrupt()

	tm.Advance(9)
	if len(at) != 0 {
		t.Fatal("Interrupt raised before the counter passed the compare value")
	}
	tm.Advance(1)
	if len(at) != 1 || at[0] != 10 {
		t.Fatalf("Expected one interrupt at counter 10, got %v", at)
	}
}

func TestSimTimerWraps(t *testing.T) {
	tm := NewSimTimer()
	tm.Init()

	raised := 0
	tm.SetHandler(func() { raised++ })
	tm.SetCompare(5)
	tm.EnableInterrupt()

	tm.Advance(6)
	if raised != 1 {
		t.Fatalf("Expected 1 interrupt, got %d", raised)
	}

	// a full counter period passes the compare value exactly once more
	tm.Advance(CounterMax + 1)
	if raised != 2 {
		t.Errorf("Expected 2 interrupts after a full period, got %d", raised)
	}
	if tm.Value() != 6 {
		t.Errorf("Expected counter back at 6, got %d", tm.Value())
	}
}

func TestSimTimerHandlerReprograms(t *testing.T) {
	tm := NewSimTimer()
	tm.Init()

	var at []uint64
	tm.SetHandler(func() {
		at = append(at, tm.Now())
		tm.ResetCounter()
		if len(at) == 3 {
			tm.DisableInterrupt()
		}
	})
	tm.SetCompare(4)
	tm.EnableInterrupt()
	tm.Advance(100)

	want := []uint64{5, 10, 15}
	if len(at) != len(want) {
		t.Fatalf("Expected %v, got %v", want, at)
	}
	for i := range want {
		if at[i] != want[i] {
			t.Errorf("Interrupt %d at %d, expected %d", i, at[i], want[i])
		}
	}
	if tm.Resets() != 3 {
		t.Errorf("Expected 3 resets, got %d", tm.Resets())
	}
}
