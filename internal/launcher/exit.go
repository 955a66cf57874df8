package launcher

import (
	"context"
	"errors"
	"os/exec"
	"syscall"
)

// Exit codes produced by the launcher itself. Anything else comes from the
// child and is passed through unchanged.
const (
	// ExitConfigError is returned when required configuration is missing
	// or unusable before the client is ever started.
	ExitConfigError = 255

	// ExitLaunchError is returned when the client could not be started at
	// all, for example when the binary is not on PATH.
	ExitLaunchError = 127

	// exitInternalError covers launcher failures with no more specific
	// classification.
	exitInternalError = 1

	// signalExitBase offsets signal numbers into the conventional shell
	// exit-code range for signal-terminated children.
	signalExitBase = 128
)

// ExitCode translates an error from Resolve or Run into the launcher's
// process exit code. A nil error is success. Configuration errors map to
// ExitConfigError, a missing client binary to ExitLaunchError, and a child
// that exited on its own propagates its status unchanged, including the
// 128+signal convention for signal-terminated children.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var missingEnv *MissingEnvError
	if errors.As(err, &missingEnv) {
		return ExitConfigError
	}
	var hostname *HostnameError
	if errors.As(err, &hostname) {
		return ExitConfigError
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return signalExitBase + int(ws.Signal())
		}
		return exitErr.ExitCode()
	}

	if errors.Is(err, exec.ErrNotFound) {
		return ExitLaunchError
	}
	if errors.Is(err, context.Canceled) {
		return exitInternalError
	}

	return exitInternalError
}
