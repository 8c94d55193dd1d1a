// Package main implements ceph-sentinel, a watchdog that samples Ceph client
// IO, restarts a stalled OSD and notifies operators.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/concave-dev/ceph-sentinel/cmd/ceph-sentinel/commands"
	"github.com/concave-dev/ceph-sentinel/internal/sentinel"
)

func main() {
	commands.SetupCommands()

	err := commands.RootCmd.Execute()
	commands.CleanupLogFile()
	if err == nil {
		return
	}

	// Outcome exit codes carry no message; everything else is printed
	var exitErr *sentinel.ExitError
	if !errors.As(err, &exitErr) || exitErr.Err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(sentinel.ExitCodeFor(err))
}
