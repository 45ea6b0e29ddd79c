// Package sim drives the event scheduler on a simulated timer, either from
// a YAML scenario file or from an interactive shell.
package sim

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"d7go/core"
)

var ErrInvalidScenario = errors.New("invalid scenario")

// Scenario describes a timeline of admissions and the expected firing order
type Scenario struct {
	Name     string      `yaml:"name"`
	RunUntil uint64      `yaml:"run_until,omitempty"` // Tick at which the run stops
	Debug    bool        `yaml:"debug,omitempty"`     // Enable scheduler debug logging
	Events   []EventSpec `yaml:"events"`
	Expect   []string    `yaml:"expect,omitempty"` // Event names in firing order
}

// EventSpec is one scheduled callback of a scenario
type EventSpec struct {
	Name  string `yaml:"name"`
	At    uint64 `yaml:"at"`    // Tick at which the event is admitted
	Ticks int32  `yaml:"ticks"` // Delay after admission

	// Repeat re-admits the event from inside its own callback, Every ticks
	// later, this many times
	Repeat int   `yaml:"repeat,omitempty"`
	Every  int32 `yaml:"every,omitempty"`

	// CancelAt withdraws the pending instance at this tick
	CancelAt *uint64 `yaml:"cancel_at,omitempty"`
}

// LoadScenario parses a YAML scenario and applies defaults
func LoadScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}

	applyDefaults(&sc)

	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// LoadScenarioFile reads and parses a scenario file
func LoadScenarioFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	sc, err := LoadScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// applyDefaults fills in missing scenario values
func applyDefaults(sc *Scenario) {
	if sc.Name == "" {
		sc.Name = "unnamed"
	}

	for i := range sc.Events {
		ev := &sc.Events[i]
		if ev.Every == 0 {
			ev.Every = ev.Ticks
		}
	}

	// Default run length: one tick past the latest possible deadline
	if sc.RunUntil == 0 {
		sc.RunUntil = sc.horizon() + 1
	}
}

func (sc *Scenario) horizon() uint64 {
	var last uint64
	for _, ev := range sc.Events {
		end := ev.At
		if ev.Ticks > 0 {
			end += uint64(ev.Ticks)
		}
		if ev.Every > 0 {
			end += uint64(ev.Repeat) * uint64(ev.Every)
		}
		if end > last {
			last = end
		}
	}
	return last
}

// Validate checks a scenario after defaults were applied
func (sc *Scenario) Validate() error {
	names := make(map[string]bool, len(sc.Events))
	for i, ev := range sc.Events {
		if ev.Name == "" {
			return fmt.Errorf("%w: event %d has no name", ErrInvalidScenario, i)
		}
		if names[ev.Name] {
			return fmt.Errorf("%w: duplicate event name %q", ErrInvalidScenario, ev.Name)
		}
		names[ev.Name] = true

		if ev.Ticks > core.CounterMax || ev.Every > core.CounterMax {
			return fmt.Errorf("%w: event %q: %v", ErrInvalidScenario, ev.Name, core.ErrDeadlineRange)
		}
		if ev.Repeat < 0 {
			return fmt.Errorf("%w: event %q: negative repeat", ErrInvalidScenario, ev.Name)
		}
		if ev.At > sc.RunUntil {
			return fmt.Errorf("%w: event %q admitted after run_until", ErrInvalidScenario, ev.Name)
		}
		if ev.CancelAt != nil && *ev.CancelAt < ev.At {
			return fmt.Errorf("%w: event %q cancelled before admission", ErrInvalidScenario, ev.Name)
		}
	}

	for _, name := range sc.Expect {
		if !names[name] {
			return fmt.Errorf("%w: expected event %q is not defined", ErrInvalidScenario, name)
		}
	}
	return nil
}
