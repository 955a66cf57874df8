// Package main is the entry point for the iotlab-launch wrapper.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/tamahiro5/iotlab-edge/cmd/iotlab-launch/cmd"
	"github.com/tamahiro5/iotlab-edge/internal/launcher"
)

func main() {
	if err := cmd.Execute(); err != nil {
		// A failed child has already written its own diagnostics; every
		// other error gets one line from the wrapper.
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "iotlab-launch:", err)
		}
		os.Exit(launcher.ExitCode(err))
	}
}
