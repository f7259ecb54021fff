// ./main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/uitest-io/uitest/cmd"
)

// main is the entry point for the uitest CLI application.
func main() {
	// Cancel the run context on SIGINT/SIGTERM so sessions shut down cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Execute(ctx)
}
