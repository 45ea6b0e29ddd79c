package sensor

import (
	"errors"
	"testing"

	"tinygo.org/x/drivers/shtc3"
)

// fakeBus answers SHTC3 measurement commands
type fakeBus struct {
	data [6]byte
	err  error
	cmds []string
}

func (b *fakeBus) Tx(addr uint16, w, r []byte) error {
	if addr != shtc3.SHTC3_ADDRESS {
		return errors.New("wrong address")
	}
	b.cmds = append(b.cmds, string(w))
	if b.err != nil {
		return b.err
	}
	if string(w) == shtc3.SHTC3_CMD_MEASURE_HP {
		copy(r, b.data[:])
	}
	return nil
}

func TestSHTC3Read(t *testing.T) {
	// raw temperature 0x6666, raw humidity 0x8000
	bus := &fakeBus{data: [6]byte{0x66, 0x66, 0x00, 0x80, 0x00, 0x00}}
	s := NewSHTC3(bus)

	r, err := s.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if r.TempMilliC != 24998 {
		t.Errorf("Expected 24998 m°C, got %d", r.TempMilliC)
	}
	if r.RHx100 != 5000 {
		t.Errorf("Expected 50.00 %%, got %d", r.RHx100)
	}

	want := []string{shtc3.SHTC3_CMD_WAKEUP, shtc3.SHTC3_CMD_MEASURE_HP, shtc3.SHTC3_CMD_SLEEP}
	if len(bus.cmds) != len(want) {
		t.Fatalf("Expected %d commands, got %d", len(want), len(bus.cmds))
	}
	for i := range want {
		if bus.cmds[i] != want[i] {
			t.Errorf("Command %d: expected % X, got % X", i, want[i], bus.cmds[i])
		}
	}
}

func TestSHTC3BusError(t *testing.T) {
	bus := &fakeBus{err: errors.New("nack")}
	s := NewSHTC3(bus)

	if _, err := s.Read(); err == nil || err.Error() != "nack" {
		t.Errorf("Expected bus error, got %v", err)
	}

	// error state does not stick
	bus.err = nil
	if _, err := s.Read(); err != nil {
		t.Errorf("Unexpected error after recovery: %v", err)
	}
}
