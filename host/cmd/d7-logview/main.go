package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"

	"d7go/host/logview"
	"d7go/host/serial"
	"d7go/protocol"
)

var (
	device  = flag.String("device", "/dev/ttyUSB0", "Serial device path")
	baud    = flag.Int("baud", serial.DefaultBaud, "Baud rate of the node log UART")
	timeout = flag.Int("timeout", 100, "Read timeout in milliseconds (0 = blocking)")
	verbose = flag.Bool("verbose", false, "Print frame statistics on exit")
)

func main() {
	flag.Parse()

	fmt.Printf("d7-logview %s - DASH7 node log monitor\n", protocol.Version)
	fmt.Printf("Opening %s at %d baud...\n", *device, *baud)

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud
	cfg.ReadTimeout = *timeout

	port, err := serial.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := port.Flush(); err != nil && *verbose {
		fmt.Fprintf(os.Stderr, "Warning: flush failed: %v\n", err)
	}

	monitor := logview.NewMonitor(port, func(msg logview.Message) {
		fmt.Println(msg.String())
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		monitor.Stop()
	}()

	err = monitor.Run()
	if err != nil && err != logview.ErrStopped {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	if *verbose {
		stats := monitor.Stats()
		fmt.Printf("\n%d bytes, %d frames, %d corrupt, %d skipped, %d dropped\n",
			stats.Bytes, stats.Frames, stats.Errors, stats.Skipped, stats.Dropped)
	}
}
