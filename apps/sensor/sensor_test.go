package sensor

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"d7go/core"
	"d7go/d7ap"
)

type fakeSensor struct {
	reading Reading
	err     error
	reads   int

	sched     *core.Scheduler
	fromTimer int // reads issued from inside a timer callback
}

func (f *fakeSensor) Read() (Reading, error) {
	f.reads++
	if f.sched != nil && f.sched.Running() {
		f.fromTimer++
	}
	return f.reading, f.err
}

type notification struct {
	fileID  uint8
	data    []byte
	session d7ap.MasterSessionConfig
}

func newTestApp(s Sensor) (*App, *core.SimTimer, *core.Scheduler, *[]notification) {
	timer := core.NewSimTimer()
	sched := core.NewScheduler(timer)
	sched.Init()

	var sent []notification
	app := New(sched, Config{
		Sensor:  s,
		Battery: func() uint32 { return 3010 },
		Notify: func(fileID uint8, data []byte, session d7ap.MasterSessionConfig) {
			sent = append(sent, notification{fileID, data, session})
		},
	})
	return app, timer, sched, &sent
}

func TestMeasurementCycle(t *testing.T) {
	s := &fakeSensor{reading: Reading{TempMilliC: 21540, RHx100: 4567}}
	app, timer, sched, sent := newTestApp(s)

	if err := app.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := app.Start(); err != ErrRunning {
		t.Errorf("Expected ErrRunning on second Start, got %v", err)
	}

	timer.Advance(StartTicks - 1)
	if s.reads != 0 {
		t.Fatal("Measured before the start delay elapsed")
	}
	timer.Advance(1)
	if s.reads != 0 {
		t.Fatal("Sensor read from the timer callback")
	}
	if !app.Poll() {
		t.Fatal("Expected a measurement request after the start delay")
	}
	if app.Poll() {
		t.Error("Expected a single request per period")
	}
	if s.reads != 1 || len(*sent) != 1 {
		t.Fatalf("Expected 1 measurement, got %d reads, %d notifications", s.reads, len(*sent))
	}

	n := (*sent)[0]
	if n.fileID != FileID {
		t.Errorf("Expected file 0x%02X, got 0x%02X", FileID, n.fileID)
	}
	// 21.5 C, 45.6 %, 301, stamp 1024
	want := []byte{0xD7, 0x00, 0xC8, 0x01, 0x2D, 0x01, 0x00, 0x04}
	if !bytes.Equal(n.data, want) {
		t.Errorf("Sensor file % X, want % X", n.data, want)
	}
	if n.session != d7ap.BroadcastConfig(0x01) {
		t.Errorf("Unexpected session config %+v", n.session)
	}
	if sched.Pending() != 1 {
		t.Errorf("Expected the task rescheduled, got %d pending", sched.Pending())
	}

	timer.Advance(UpdateTicks)
	app.Poll()
	if app.Measurements() != 2 {
		t.Fatalf("Expected 2 measurements, got %d", app.Measurements())
	}
	if stamp := app.File()[6:]; !bytes.Equal(stamp, []byte{0x00, 0x28}) {
		t.Errorf("Expected tick stamp 10240, got % X", stamp)
	}
}

func TestReadErrorStillReschedules(t *testing.T) {
	var logs []string
	core.SetLogWriter(func(layer core.Layer, msg string) {
		logs = append(logs, "["+layer.String()+"] "+msg)
	})
	defer core.SetLogWriter(nil)

	s := &fakeSensor{err: errors.New("i2c nack")}
	app, timer, sched, sent := newTestApp(s)
	app.Start()

	timer.Advance(StartTicks)
	app.Poll()
	if app.Errors() != 1 || app.Measurements() != 0 {
		t.Errorf("Expected 1 error and no measurement, got %d/%d", app.Errors(), app.Measurements())
	}
	if len(*sent) != 0 {
		t.Error("Expected no notification after a failed read")
	}
	if sched.Pending() != 1 || !app.Running() {
		t.Error("Expected the task rescheduled after a failed read")
	}

	found := false
	for _, l := range logs {
		if l == "[APP] Sensor read failed: i2c nack" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected error log on the App layer, got %v", logs)
	}

	s.err = nil
	timer.Advance(UpdateTicks)
	app.Poll()
	if app.Measurements() != 1 {
		t.Errorf("Expected recovery, got %d measurements", app.Measurements())
	}
}

func TestNegativeTemperature(t *testing.T) {
	s := &fakeSensor{reading: Reading{TempMilliC: -5570, RHx100: 10500}}
	app, timer, _, _ := newTestApp(s)

	var logs []string
	core.SetLogWriter(func(_ core.Layer, msg string) { logs = append(logs, msg) })
	defer core.SetLogWriter(nil)

	app.Start()
	timer.Advance(StartTicks)
	app.Poll()

	file := app.File()
	if file[0] != 0xC9 || file[1] != 0xFF {
		t.Errorf("Expected -55 (C9 FF), got % X", file[:2])
	}
	// humidity clamped to 100.0 %
	if file[2] != 0xE8 || file[3] != 0x03 {
		t.Errorf("Expected 1000 (E8 03), got % X", file[2:4])
	}
	if !strings.Contains(strings.Join(logs, "\n"), "Ext T: -5.5 C") {
		t.Errorf("Expected formatted temperature in %v", logs)
	}
}

func TestStop(t *testing.T) {
	app, timer, sched, _ := newTestApp(&fakeSensor{})
	app.Start()
	app.Stop()

	if sched.Pending() != 0 || app.Running() {
		t.Error("Expected nothing scheduled after Stop")
	}
	timer.Advance(StartTicks * 2)
	if app.Poll() || app.Measurements() != 0 {
		t.Error("Measured after Stop")
	}

	if err := app.Start(); err != nil {
		t.Errorf("Restart failed: %v", err)
	}
}

func TestMeasurementOutsideTimerCallback(t *testing.T) {
	s := &fakeSensor{reading: Reading{TempMilliC: 20000, RHx100: 5000}}
	app, timer, sched, _ := newTestApp(s)
	s.sched = sched

	app.Start()
	for i := 0; i < 3; i++ {
		timer.Advance(StartTicks + UpdateTicks*uint32(i))
		app.Poll()
	}

	if s.reads == 0 {
		t.Fatal("Expected measurements")
	}
	if s.fromTimer != 0 {
		t.Errorf("%d sensor reads ran inside a timer callback", s.fromTimer)
	}
}

func TestRequestWhileOnePending(t *testing.T) {
	s := &fakeSensor{reading: Reading{TempMilliC: 20000, RHx100: 5000}}
	app, timer, sched, _ := newTestApp(s)

	app.Start()
	timer.Advance(StartTicks + UpdateTicks)

	if app.Missed() != 1 {
		t.Errorf("Expected 1 dropped request, got %d", app.Missed())
	}
	if sched.Pending() != 1 {
		t.Errorf("Expected the task still rescheduled, got %d pending", sched.Pending())
	}

	select {
	case stamp := <-app.Due():
		if stamp != StartTicks {
			t.Errorf("Expected the first request kept (stamp %d), got %d", StartTicks, stamp)
		}
	default:
		t.Fatal("Expected a pending request")
	}
	if app.Poll() {
		t.Error("Expected no second request")
	}
}

func TestStopDropsPendingRequest(t *testing.T) {
	s := &fakeSensor{}
	app, timer, _, _ := newTestApp(s)

	app.Start()
	timer.Advance(StartTicks)
	app.Stop()

	if app.Poll() || s.reads != 0 {
		t.Error("Request survived Stop")
	}
}

func TestConfigDefaults(t *testing.T) {
	sched := core.NewScheduler(core.NewSimTimer())
	app := New(sched, Config{Sensor: &fakeSensor{}, AccessClass: 0x21})

	if app.period != UpdateTicks {
		t.Errorf("Expected default period %d, got %d", UpdateTicks, app.period)
	}
	if app.Session().Addressee.AccessClass != 0x21 {
		t.Errorf("Expected access class 0x21, got 0x%02X", app.Session().Addressee.AccessClass)
	}
}
