// Package containertest provides an in-memory container.Container for
// engine and recipe tests.
package containertest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"lxcforge/internal/container"
)

// Command records one attached command.
type Command struct {
	Args  []string
	Stdin string
}

// Fake implements container.Container in memory and records every call.
type Fake struct {
	mu sync.Mutex

	ContainerName string
	Address       string

	defined bool
	running bool

	Commands    []Command
	ConfigItems []string // "set key=value", "clear key", "save"
	Destroyed   bool
	Stopped     bool

	// FailOn makes Run fail for any command whose joined args contain the
	// given substring.
	FailOn string
	// CreateErr, StartErr and WaitErr force lifecycle failures.
	CreateErr error
	StartErr  error
	WaitErr   error
}

// New returns a Fake that will report the given address once started.
func New(name, address string) *Fake {
	return &Fake{ContainerName: name, Address: address}
}

func (f *Fake) Name() string { return f.ContainerName }

func (f *Fake) Defined() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.defined
}

func (f *Fake) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *Fake) Create(spec container.ImageSpec) error {
	if f.CreateErr != nil {
		return f.CreateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.defined {
		return container.ErrAlreadyExists
	}
	f.defined = true
	return nil
}

func (f *Fake) Start() error {
	if f.StartErr != nil {
		return f.StartErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = true
	return nil
}

func (f *Fake) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
	f.Stopped = true
	return nil
}

func (f *Fake) Destroy() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		return fmt.Errorf("cannot destroy running container %s", f.ContainerName)
	}
	f.defined = false
	f.Destroyed = true
	return nil
}

func (f *Fake) WaitIP(timeout time.Duration) (string, error) {
	if f.WaitErr != nil {
		return "", f.WaitErr
	}
	if f.Address == "" {
		return "", container.ErrNoAddress
	}
	return f.Address, nil
}

func (f *Fake) Run(ctx context.Context, opts container.RunOptions, args ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cmd := Command{Args: args}
	if opts.Stdin != nil {
		data, err := io.ReadAll(opts.Stdin)
		if err != nil {
			return err
		}
		cmd.Stdin = string(data)
	}

	f.mu.Lock()
	f.Commands = append(f.Commands, cmd)
	f.mu.Unlock()

	if f.FailOn != "" && strings.Contains(strings.Join(args, " "), f.FailOn) {
		return fmt.Errorf("forced failure on %q", f.FailOn)
	}
	return nil
}

func (f *Fake) SetConfigItem(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ConfigItems = append(f.ConfigItems, fmt.Sprintf("set %s=%s", key, value))
	return nil
}

func (f *Fake) ClearConfigItem(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ConfigItems = append(f.ConfigItems, "clear "+key)
	return nil
}

func (f *Fake) SaveConfig() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ConfigItems = append(f.ConfigItems, "save")
	return nil
}

// CommandLines returns each recorded command joined with spaces, for
// substring assertions.
func (f *Fake) CommandLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]string, len(f.Commands))
	for i, c := range f.Commands {
		lines[i] = strings.Join(c.Args, " ")
	}
	return lines
}
