//go:build rp2040

package main

import (
	"machine"

	"d7go/apps/sensor"
	"d7go/core"
	"d7go/d7ap"
)

func main() {
	// Log frames go out on the default UART
	uart := machine.DefaultUART
	uart.Configure(machine.UARTConfig{BaudRate: 115200})
	core.SetLogWriter(core.FrameLogWriter(uart))
	core.SetDataWriter(core.FrameDataWriter(uart))

	sched := core.TimerInit(timer)

	i2c := machine.I2C0
	if err := i2c.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		// Default pins: SDA=GP4, SCL=GP5
	}); err != nil {
		core.LogStack(core.LogApp, "I2C init failed: "+err.Error())
	}

	vsys := newBattery()
	app := sensor.New(sched, sensor.Config{
		Sensor:  sensor.NewSHTC3(i2c),
		Battery: vsys.MilliVolts,
		Notify:  broadcast,
	})
	if err := app.Start(); err != nil {
		core.LogStack(core.LogApp, "Sensor app not started: "+err.Error())
	}

	// The timer interrupt only requests measurements; bus transfers and
	// the sensor's wake-up delay run here
	for stamp := range app.Due() {
		app.Measure(stamp)
	}
}

// broadcast hands the sensor file to the radio stack. Until a stack is
// attached, the file is logged as a data frame.
func broadcast(fileID uint8, data []byte, session d7ap.MasterSessionConfig) {
	frame := make([]byte, 0, 2+len(data)+12)
	frame = append(frame, fileID, uint8(len(data)))
	frame = append(frame, data...)
	frame = session.Append(frame)
	core.LogStack(core.LogApp, "D7AActP file 0x"+hex2(fileID)+" ready")
	core.LogData(core.LogApp, frame)
}

func hex2(b uint8) string {
	const digits = "0123456789ABCDEF"
	return string([]byte{digits[b>>4], digits[b&0x0F]})
}
