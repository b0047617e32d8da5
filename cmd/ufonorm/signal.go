package main

import (
	"os"
	"os/signal"
	"syscall"
)

// waitForInterrupt blocks until the process receives SIGINT or SIGTERM.
func waitForInterrupt() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	<-ch
	signal.Stop(ch)
}
