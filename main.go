package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/awnumar/memguard"

	"github.com/schmich/tome/cmd"
)

func main() {
	// Interrupts cancel the context; a pending prompt returns and restores
	// the terminal before we exit
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cmd.Execute(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", cmd.ErrorMessage(err))
		memguard.SafeExit(1)
	}
	memguard.SafeExit(0)
}
