package remote

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"al.essio.dev/pkg/shellescape"
)

// Command is a program invocation on a remote node.
type Command struct {
	// Args is the program and its arguments. Args[0] is the program.
	Args []string
	// Env is set for the program only.
	Env map[string]string
	// Stdin is streamed to the program when non-nil.
	Stdin []byte
	// Sudo runs the program as root via non-interactive sudo.
	Sudo bool
}

// Cmd builds an unprivileged command.
func Cmd(args ...string) Command {
	return Command{Args: args}
}

// Sudo builds a command run as root.
func Sudo(args ...string) Command {
	return Command{Args: args, Sudo: true}
}

// WithEnv returns a copy of c with key=value added to its environment.
func (c Command) WithEnv(key, value string) Command {
	env := make(map[string]string, len(c.Env)+1)
	for k, v := range c.Env {
		env[k] = v
	}
	env[key] = value
	c.Env = env
	return c
}

// WithStdin returns a copy of c that streams data to the program.
func (c Command) WithStdin(data []byte) Command {
	c.Stdin = data
	return c
}

// String renders the command for logs and error messages.
func (c Command) String() string {
	return Render(c)
}

// Result is the captured outcome of a command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Executor runs commands on a single node.
//
// Run returns a nil error only when the command exited with status 0. A
// non-zero exit is reported as *ExitError alongside the populated Result;
// any other error means the command could not be run at all.
type Executor interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// Target identifies a node for a Connector.
type Target struct {
	Name    string
	Address string
}

// Connector opens an Executor for a node. Stages are parameterized by the
// target identity instead of switching an ambient "current host".
type Connector interface {
	Connect(ctx context.Context, target Target) (Executor, error)
}

// ExitError reports a command that ran and exited with a non-zero status.
type ExitError struct {
	Command string
	Code    int
	Stderr  string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("command %q exited with status %d", e.Command, e.Code)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + lastLines(stderr, 5)
	}
	return msg
}

// IsExitError reports whether err is a non-zero command exit.
func IsExitError(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr)
}

// Render returns c as a single shell-safe command line.
func Render(c Command) string {
	argv := make([]string, 0, len(c.Args)+len(c.Env)+3)
	if c.Sudo {
		argv = append(argv, "sudo", "-n")
	}
	if len(c.Env) > 0 {
		keys := make([]string, 0, len(c.Env))
		for k := range c.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		argv = append(argv, "env")
		for _, k := range keys {
			argv = append(argv, k+"="+c.Env[k])
		}
	}
	argv = append(argv, c.Args...)
	return shellescape.QuoteCommand(argv)
}

// Output runs cmd and returns its trimmed stdout.
func Output(ctx context.Context, ex Executor, cmd Command) (string, error) {
	res, err := ex.Run(ctx, cmd)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

// ReadFile copies a remote file's content to the caller.
func ReadFile(ctx context.Context, ex Executor, path string, sudo bool) ([]byte, error) {
	res, err := ex.Run(ctx, Command{Args: []string{"cat", path}, Sudo: sudo})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return []byte(res.Stdout), nil
}

// WriteFile writes data to a remote path as root with the given mode,
// creating parent directories. Rewriting identical content is harmless.
func WriteFile(ctx context.Context, ex Executor, path string, data []byte, mode os.FileMode) error {
	dir := path[:max(strings.LastIndex(path, "/"), 0)]
	if dir != "" {
		if _, err := ex.Run(ctx, Sudo("mkdir", "-p", dir)); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if _, err := ex.Run(ctx, Sudo("tee", path).WithStdin(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if _, err := ex.Run(ctx, Sudo("chmod", strconv.FormatUint(uint64(mode.Perm()), 8), path)); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	return nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
