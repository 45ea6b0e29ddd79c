package sim

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"d7go/core"
)

var ErrExpectMismatch = errors.New("firing order mismatch")

// Firing records a callback execution
type Firing struct {
	Name string
	Tick uint64
}

// Rejected records an admission the scheduler refused
type Rejected struct {
	Name string
	Tick uint64
	Err  error
}

// Result is the outcome of a scenario run
type Result struct {
	Firings  []Firing
	Rejected []Rejected
	Cancels  int

	Interrupts  uint32 // Compare interrupts raised
	CompareSets uint32 // Compare register writes
	End         uint64 // Tick the run stopped at
}

// Names returns the fired event names in order
func (r *Result) Names() []string {
	names := make([]string, len(r.Firings))
	for i, f := range r.Firings {
		names[i] = f.Name
	}
	return names
}

type actionKind uint8

const (
	actionAdmit actionKind = iota
	actionCancel
)

type action struct {
	tick  uint64
	kind  actionKind
	event int
}

// Runner executes a scenario on a fresh scheduler and simulated timer
type Runner struct {
	sc    *Scenario
	timer *core.SimTimer
	sched *core.Scheduler

	handles map[string]core.Handle
	result  Result
}

// NewRunner prepares a run of sc
func NewRunner(sc *Scenario) *Runner {
	timer := core.NewSimTimer()
	return &Runner{
		sc:      sc,
		timer:   timer,
		sched:   core.NewScheduler(timer),
		handles: make(map[string]core.Handle),
	}
}

// Scheduler exposes the scheduler under test
func (r *Runner) Scheduler() *core.Scheduler {
	return r.sched
}

// Run plays the scenario to RunUntil. The result is returned even when the
// firing order does not match the expectation.
func (r *Runner) Run() (res *Result, err error) {
	r.sched.Init()
	r.handles = make(map[string]core.Handle)
	r.result = Result{}

	defer func() {
		if p := recover(); p != nil {
			ie, ok := p.(core.InvariantError)
			if !ok {
				panic(p)
			}
			res, err = &r.result, fmt.Errorf("scenario %q: %w", r.sc.Name, ie)
		}
	}()

	for _, a := range r.timeline() {
		r.advanceTo(a.tick)
		ev := &r.sc.Events[a.event]
		switch a.kind {
		case actionAdmit:
			r.admit(ev, ev.Ticks, ev.Repeat)
		case actionCancel:
			if h, ok := r.handles[ev.Name]; ok && r.sched.Cancel(h) {
				r.result.Cancels++
			}
		}
	}
	r.advanceTo(r.sc.RunUntil)

	r.result.Interrupts = r.timer.Interrupts()
	r.result.CompareSets = r.timer.CompareSets()
	r.result.End = r.timer.Now()

	if err := r.check(); err != nil {
		return &r.result, err
	}
	return &r.result, nil
}

// timeline orders host actions by tick, file order breaking ties
func (r *Runner) timeline() []action {
	var actions []action
	for i, ev := range r.sc.Events {
		actions = append(actions, action{tick: ev.At, kind: actionAdmit, event: i})
		if ev.CancelAt != nil {
			actions = append(actions, action{tick: *ev.CancelAt, kind: actionCancel, event: i})
		}
	}
	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].tick < actions[j].tick
	})
	return actions
}

func (r *Runner) advanceTo(tick uint64) {
	for now := r.timer.Now(); now < tick; now = r.timer.Now() {
		step := tick - now
		if step > core.CounterMax {
			step = core.CounterMax
		}
		r.timer.Advance(uint32(step))
	}
}

// admit posts ev; the callback re-admits it while repeats remain
func (r *Runner) admit(ev *EventSpec, ticks int32, remaining int) {
	h, err := r.sched.Post(func() {
		r.result.Firings = append(r.result.Firings, Firing{Name: ev.Name, Tick: r.timer.Now()})
		delete(r.handles, ev.Name)
		if remaining > 0 {
			r.admit(ev, ev.Every, remaining-1)
		}
	}, ticks)
	if err != nil {
		r.result.Rejected = append(r.result.Rejected, Rejected{Name: ev.Name, Tick: r.timer.Now(), Err: err})
		return
	}
	r.handles[ev.Name] = h
}

func (r *Runner) check() error {
	if r.sc.Expect == nil {
		return nil
	}
	got := r.result.Names()
	if len(got) == len(r.sc.Expect) {
		same := true
		for i := range got {
			if got[i] != r.sc.Expect[i] {
				same = false
				break
			}
		}
		if same {
			return nil
		}
	}
	return fmt.Errorf("scenario %q: %w: got [%s], want [%s]", r.sc.Name, ErrExpectMismatch,
		strings.Join(got, " "), strings.Join(r.sc.Expect, " "))
}
