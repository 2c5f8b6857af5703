package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/victoralfred/goshell/cmd/goshell/commands"
)

func main() {
	err := commands.Root().Execute()
	if err == nil {
		return
	}

	// A non-zero child exit travels in the exit code alone; the child's
	// own stderr already tells the story.
	var exitErr *commands.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "goshell:", err)
	}

	os.Exit(commands.ExitCode(err))
}
