package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := newRootCommand().Execute(); err != nil {
		// An interrupted pipeline already printed its own status line.
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "mediatoc:", err)
		}
		return 1
	}
	return 0
}
