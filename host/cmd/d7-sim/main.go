package main

import (
	"flag"
	"fmt"
	"os"

	"d7go/core"
	"d7go/sim"
)

var (
	interactive = flag.Bool("i", false, "Start the interactive shell")
	verbose     = flag.Bool("verbose", false, "Print scheduler debug messages")
	dumpTrace   = flag.Bool("trace", false, "Dump the scheduler trace after the run")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [scenario.yaml ...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	core.SetLogWriter(func(layer core.Layer, msg string) {
		fmt.Printf("[%s] %s\n", layer, msg)
	})
	core.SetDebugEnabled(*verbose)

	if *interactive {
		fmt.Println("d7-sim - event scheduler on a simulated 1024 Hz timer")
		fmt.Println("Type 'help' for available commands, 'quit' to exit.")
		if err := sim.NewShell(os.Stdout).Run(os.Stdin); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	failed := 0
	for _, path := range flag.Args() {
		if err := runScenario(path); err != nil {
			fmt.Fprintf(os.Stderr, "FAIL %v\n", err)
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func runScenario(path string) error {
	sc, err := sim.LoadScenarioFile(path)
	if err != nil {
		return err
	}
	if sc.Debug {
		core.SetDebugEnabled(true)
		defer core.SetDebugEnabled(*verbose)
	}

	runner := sim.NewRunner(sc)
	res, err := runner.Run()
	if res != nil {
		fmt.Printf("=== %s ===\n", sc.Name)
		for _, f := range res.Firings {
			fmt.Printf("  %8d  %-16s (%d ms)\n", f.Tick, f.Name, core.TicksToMS(uint32(f.Tick)))
		}
		for _, r := range res.Rejected {
			fmt.Printf("  %8d  %-16s rejected: %v\n", r.Tick, r.Name, r.Err)
		}
		fmt.Printf("  %d fired, %d rejected, %d cancelled, %d interrupts, %d compare writes, end %d\n",
			len(res.Firings), len(res.Rejected), res.Cancels, res.Interrupts, res.CompareSets, res.End)
	}
	if *dumpTrace {
		runner.Scheduler().DumpTrace()
	}
	if err != nil {
		return err
	}

	fmt.Printf("PASS %s\n", sc.Name)
	return nil
}
