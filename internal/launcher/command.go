package launcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// DefaultClientPath is the sample client binary invoked when no override is
// given on the command line.
const DefaultClientPath = "iotlab-device"

// terminateDelay bounds how long a canceled child may linger between the
// SIGTERM sent by Cancel and the SIGKILL forced by WaitDelay.
const terminateDelay = 10 * time.Second

// BuildArgs renders the resolved parameters as the sample client's argument
// vector. The flag order is fixed and every value is passed in --flag=value
// form, so the result is directly comparable in tests and in dry-run output.
func BuildArgs(p *Params) []string {
	return []string{
		"--project_id=" + p.ProjectID,
		"--cloud_region=" + p.Region,
		"--registry_id=" + p.Registry,
		"--device_id=" + p.DeviceID,
		"--key_file=" + p.KeyFile,
		"--message_type=" + string(p.MessageType),
		"--algorithm=" + string(p.Algorithm),
	}
}

// CommandLine renders the full invocation as a single display string.
func CommandLine(clientPath string, p *Params) string {
	return strings.Join(append([]string{clientPath}, BuildArgs(p)...), " ")
}

// Launcher runs the sample client as a child process with inherited standard
// streams and environment.
type Launcher struct {
	clientPath string
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
	env        []string
	log        *slog.Logger
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithStdin overrides the child's standard input.
func WithStdin(r io.Reader) Option {
	return func(l *Launcher) {
		l.stdin = r
	}
}

// WithStdout overrides the child's standard output.
func WithStdout(w io.Writer) Option {
	return func(l *Launcher) {
		l.stdout = w
	}
}

// WithStderr overrides the child's standard error.
func WithStderr(w io.Writer) Option {
	return func(l *Launcher) {
		l.stderr = w
	}
}

// WithEnv replaces the environment passed to the child. The default inherits
// the launcher's own environment.
func WithEnv(env []string) Option {
	return func(l *Launcher) {
		l.env = env
	}
}

// WithLogger sets the logger for launch diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(l *Launcher) {
		l.log = log
	}
}

// New creates a Launcher for the given client binary. The path is resolved
// through PATH lookup at run time, exactly as a shell invocation would be.
func New(clientPath string, opts ...Option) *Launcher {
	l := &Launcher{
		clientPath: clientPath,
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run executes the client with the arguments built from p and waits for it
// to exit. Context cancellation sends SIGTERM to the child and escalates to
// SIGKILL after terminateDelay. The child's own exit status travels back as
// an *exec.ExitError for ExitCode to translate.
func (l *Launcher) Run(ctx context.Context, p *Params) error {
	args := BuildArgs(p)

	cmd := exec.CommandContext(ctx, l.clientPath, args...)
	cmd.Stdin = l.stdin
	cmd.Stdout = l.stdout
	cmd.Stderr = l.stderr
	cmd.Env = l.env
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = terminateDelay

	l.log.Debug("launching sample client",
		"client", l.clientPath,
		"device_id", p.DeviceID,
		"registry_id", p.Registry,
	)

	return cmd.Run()
}
