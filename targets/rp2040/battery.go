//go:build rp2040

package main

import "machine"

// On the Pico, VSYS is divided by three onto GPIO29 (ADC3)
const (
	vsysDivider   = 3
	arefMilliVolt = 3300
)

// battery samples the supply voltage
type battery struct {
	adc machine.ADC
}

func newBattery() *battery {
	machine.InitADC()
	b := &battery{adc: machine.ADC{Pin: machine.ADC3}}
	b.adc.Configure(machine.ADCConfig{})
	return b
}

// MilliVolts returns VSYS in mV
func (b *battery) MilliVolts() uint32 {
	// Get scales the 12-bit conversion to 16 bits
	raw := uint32(b.adc.Get())
	return raw * arefMilliVolt * vsysDivider / 65536
}
