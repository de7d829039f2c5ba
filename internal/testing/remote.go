package testing

import (
	"context"
	"strings"
	"sync"

	"github.com/imamik/hkube/internal/remote"
)

// Response scripts the outcome of a fake command.
type Response struct {
	Stdout string
	Stderr string
	// Code is the exit status; non-zero yields *remote.ExitError.
	Code int
	// Err fails the command without running it, like a dropped connection.
	Err error
}

type rule struct {
	prefix string
	resp   Response
	once   bool
	used   bool
}

// FakeExecutor is a scriptable remote.Executor. Commands are matched against
// their rendered form by prefix; the most recently registered matching rule
// wins. Unmatched commands succeed with empty output. Files written through
// remote.WriteFile are captured.
type FakeExecutor struct {
	Name string

	mu       sync.Mutex
	rules    []*rule
	commands []string
	files    map[string][]byte
}

var _ remote.Executor = (*FakeExecutor)(nil)

// NewFakeExecutor creates an executor for node name.
func NewFakeExecutor(name string) *FakeExecutor {
	return &FakeExecutor{Name: name, files: make(map[string][]byte)}
}

// On scripts every command whose rendered form starts with prefix.
func (f *FakeExecutor) On(prefix string, resp Response) *FakeExecutor {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, &rule{prefix: prefix, resp: resp})
	return f
}

// Once scripts only the next command starting with prefix.
func (f *FakeExecutor) Once(prefix string, resp Response) *FakeExecutor {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, &rule{prefix: prefix, resp: resp, once: true})
	return f
}

// SetFile seeds the content cat returns for path.
func (f *FakeExecutor) SetFile(path string, data []byte) *FakeExecutor {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = data
	return f
}

// Run implements remote.Executor.
func (f *FakeExecutor) Run(ctx context.Context, cmd remote.Command) (remote.Result, error) {
	if err := ctx.Err(); err != nil {
		return remote.Result{}, err
	}

	line := remote.Render(cmd)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, line)

	resp, matched := f.match(line)
	if !matched {
		resp = f.builtin(cmd)
	}

	if resp.Err != nil {
		return remote.Result{}, resp.Err
	}
	if resp.Code == 0 && len(cmd.Args) == 2 && cmd.Args[0] == "tee" {
		f.files[cmd.Args[1]] = append([]byte(nil), cmd.Stdin...)
	}

	res := remote.Result{Stdout: resp.Stdout, Stderr: resp.Stderr, ExitCode: resp.Code}
	if resp.Code != 0 {
		return res, &remote.ExitError{Command: line, Code: resp.Code, Stderr: resp.Stderr}
	}
	return res, nil
}

func (f *FakeExecutor) match(line string) (Response, bool) {
	for i := len(f.rules) - 1; i >= 0; i-- {
		r := f.rules[i]
		if r.used || !strings.HasPrefix(line, r.prefix) {
			continue
		}
		if r.once {
			r.used = true
		}
		return r.resp, true
	}
	return Response{}, false
}

// builtin emulates cat on captured files; everything else succeeds silently.
func (f *FakeExecutor) builtin(cmd remote.Command) Response {
	if len(cmd.Args) == 2 && cmd.Args[0] == "cat" {
		data, ok := f.files[cmd.Args[1]]
		if !ok {
			return Response{Code: 1, Stderr: "cat: " + cmd.Args[1] + ": No such file or directory"}
		}
		return Response{Stdout: string(data)}
	}
	return Response{}
}

// Commands returns the rendered commands run so far, in order.
func (f *FakeExecutor) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

// Ran reports whether any command starting with prefix was run.
func (f *FakeExecutor) Ran(prefix string) bool {
	return f.Count(prefix) > 0
}

// Count returns how many commands starting with prefix were run.
func (f *FakeExecutor) Count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.commands {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// File returns the content written to path.
func (f *FakeExecutor) File(path string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[path]
	return data, ok
}

// FakeConnector hands out one FakeExecutor per node name.
type FakeConnector struct {
	mu         sync.Mutex
	executors  map[string]*FakeExecutor
	connectErr map[string]error
	targets    []remote.Target
}

var _ remote.Connector = (*FakeConnector)(nil)

// NewFakeConnector creates an empty connector.
func NewFakeConnector() *FakeConnector {
	return &FakeConnector{
		executors:  make(map[string]*FakeExecutor),
		connectErr: make(map[string]error),
	}
}

// Executor returns the executor for node, creating it on first use.
func (c *FakeConnector) Executor(node string) *FakeExecutor {
	c.mu.Lock()
	defer c.mu.Unlock()
	ex, ok := c.executors[node]
	if !ok {
		ex = NewFakeExecutor(node)
		c.executors[node] = ex
	}
	return ex
}

// FailConnect makes Connect fail for node.
func (c *FakeConnector) FailConnect(node string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connectErr[node] = err
}

// Connect implements remote.Connector.
func (c *FakeConnector) Connect(_ context.Context, target remote.Target) (remote.Executor, error) {
	c.mu.Lock()
	c.targets = append(c.targets, target)
	err := c.connectErr[target.Name]
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return c.Executor(target.Name), nil
}

// Targets returns every target Connect was called with.
func (c *FakeConnector) Targets() []remote.Target {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]remote.Target(nil), c.targets...)
}
