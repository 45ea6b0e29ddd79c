package sim

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/google/shlex"

	"d7go/core"
)

var errQuit = errors.New("quit")

// Shell is an interactive front end to a scheduler on a simulated timer
type Shell struct {
	out   io.Writer
	timer *core.SimTimer
	sched *core.Scheduler

	handles map[string]core.Handle
	fired   []Firing
}

// NewShell creates a shell with an initialized scheduler writing to out
func NewShell(out io.Writer) *Shell {
	timer := core.NewSimTimer()
	s := &Shell{
		out:     out,
		timer:   timer,
		sched:   core.NewScheduler(timer),
		handles: make(map[string]core.Handle),
	}
	s.sched.Init()
	return s
}

// Fired returns every callback executed so far
func (s *Shell) Fired() []Firing {
	return s.fired
}

// Run reads commands from in until quit or end of input
func (s *Shell) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			break
		}

		quit, err := s.Exec(scanner.Text())
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
	return scanner.Err()
}

// Exec runs one command line and reports whether the shell should exit
func (s *Shell) Exec(line string) (bool, error) {
	parts, err := shlex.Split(line)
	if err != nil {
		return false, fmt.Errorf("parse: %w", err)
	}
	if len(parts) == 0 {
		return false, nil
	}

	err = s.dispatch(parts[0], parts[1:])
	if err == errQuit {
		return true, nil
	}
	return false, err
}

func (s *Shell) dispatch(cmd string, args []string) error {
	switch cmd {
	case "quit", "exit", "q":
		fmt.Fprintln(s.out, "Goodbye!")
		return errQuit

	case "help", "?":
		s.printHelp()

	case "admit":
		if len(args) != 2 {
			return fmt.Errorf("usage: admit NAME TICKS")
		}
		ticks, err := strconv.ParseInt(args[1], 0, 32)
		if err != nil {
			return fmt.Errorf("invalid ticks %q: %w", args[1], err)
		}
		return s.admit(args[0], int32(ticks))

	case "advance":
		if len(args) != 1 {
			return fmt.Errorf("usage: advance N")
		}
		n, err := strconv.ParseUint(args[0], 0, 32)
		if err != nil {
			return fmt.Errorf("invalid tick count %q: %w", args[0], err)
		}
		s.timer.Advance(uint32(n))

	case "cancel":
		if len(args) != 1 {
			return fmt.Errorf("usage: cancel NAME")
		}
		h, ok := s.handles[args[0]]
		if !ok || !s.sched.Cancel(h) {
			return fmt.Errorf("no pending event %q", args[0])
		}
		delete(s.handles, args[0])
		fmt.Fprintf(s.out, "cancelled %s\n", args[0])

	case "time":
		fmt.Fprintf(s.out, "now=%d counter=%d\n", s.timer.Now(), s.sched.CurrentTime())

	case "pending":
		s.printPending()

	case "trace":
		for _, evt := range s.sched.Trace() {
			if evt.Slot == core.TraceNoSlot {
				fmt.Fprintf(s.out, "%-11s        t=%d v=%d\n", evt.Kind, evt.Ticks, evt.Value)
				continue
			}
			fmt.Fprintf(s.out, "%-11s pos=%-2d t=%d v=%d\n", evt.Kind, evt.Slot, evt.Ticks, evt.Value)
		}

	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmd)
	}
	return nil
}

func (s *Shell) admit(name string, ticks int32) error {
	if _, ok := s.handles[name]; ok {
		return fmt.Errorf("event %q already pending", name)
	}

	h, err := s.sched.Post(func() {
		delete(s.handles, name)
		s.fired = append(s.fired, Firing{Name: name, Tick: s.timer.Now()})
		fmt.Fprintf(s.out, "fired %s at %d\n", name, s.timer.Now())
	}, ticks)
	if err != nil {
		return fmt.Errorf("admit %s: %w", name, err)
	}

	// an already elapsed deadline fires during Post
	if _, pending := s.sched.Remaining(h); pending {
		s.handles[name] = h
	}
	return nil
}

func (s *Shell) printPending() {
	type entry struct {
		name      string
		remaining int32
	}
	var list []entry
	for name, h := range s.handles {
		if rem, ok := s.sched.Remaining(h); ok {
			list = append(list, entry{name, rem})
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].remaining != list[j].remaining {
			return list[i].remaining < list[j].remaining
		}
		return list[i].name < list[j].name
	})

	fmt.Fprintf(s.out, "%d/%d slots used\n", s.sched.Pending(), core.EventStackSize)
	for _, e := range list {
		fmt.Fprintf(s.out, "  %-12s in %d ticks\n", e.name, e.remaining)
	}
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, "\nAvailable commands:")
	fmt.Fprintln(s.out, "  admit NAME TICKS  - Schedule NAME to fire after TICKS")
	fmt.Fprintln(s.out, "  advance N         - Let N timer ticks elapse")
	fmt.Fprintln(s.out, "  cancel NAME       - Withdraw a pending event")
	fmt.Fprintln(s.out, "  time              - Show simulated time and counter value")
	fmt.Fprintln(s.out, "  pending           - List pending events")
	fmt.Fprintln(s.out, "  trace             - Show the scheduler trace ring")
	fmt.Fprintln(s.out, "  quit/exit/q       - Exit the shell")
	fmt.Fprintln(s.out)
}
