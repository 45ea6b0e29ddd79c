package sensor

import (
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/shtc3"
)

// Reading is one temperature and humidity sample
type Reading struct {
	TempMilliC int32 // Temperature in m°C
	RHx100     int16 // Relative humidity in 0.01 %
}

// Sensor takes a measurement
type Sensor interface {
	Read() (Reading, error)
}

// txRecorder keeps the first bus error of a transaction sequence.
// The shtc3 driver discards Tx errors.
type txRecorder struct {
	bus drivers.I2C
	err error
}

func (r *txRecorder) Tx(addr uint16, w, rd []byte) error {
	err := r.bus.Tx(addr, w, rd)
	if err != nil && r.err == nil {
		r.err = err
	}
	return err
}

// SHTC3 reads a Sensirion SHTC3 over I2C
type SHTC3 struct {
	bus *txRecorder
	dev shtc3.Device
}

// NewSHTC3 binds the sensor to a configured bus
func NewSHTC3(bus drivers.I2C) *SHTC3 {
	rec := &txRecorder{bus: bus}
	return &SHTC3{
		bus: rec,
		dev: shtc3.New(rec),
	}
}

// Read wakes the sensor, measures and puts it back to sleep
func (s *SHTC3) Read() (Reading, error) {
	s.bus.err = nil

	_ = s.dev.WakeUp()
	temp, rh, _ := s.dev.ReadTemperatureHumidity()
	_ = s.dev.Sleep()

	if s.bus.err != nil {
		return Reading{}, s.bus.err
	}
	return Reading{TempMilliC: temp, RHx100: rh}, nil
}
