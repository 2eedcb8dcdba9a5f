package container

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	lxc "gopkg.in/lxc/go-lxc.v2"
)

// attachEnv is the environment given to every attached command. liblxc
// clears the rest; some package maintainer scripts misbehave without TERM.
var attachEnv = []string{"TERM=xterm"}

type lxcContainer struct {
	c *lxc.Container
}

// New opens a handle for the named container under lxcpath. An empty
// lxcpath selects the liblxc default. The container need not be defined.
func New(name, lxcpath string) (Container, error) {
	var (
		c   *lxc.Container
		err error
	)
	if lxcpath == "" {
		c, err = lxc.NewContainer(name)
	} else {
		c, err = lxc.NewContainer(name, lxcpath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open container %s: %w", name, err)
	}
	return &lxcContainer{c: c}, nil
}

func (l *lxcContainer) Name() string  { return l.c.Name() }
func (l *lxcContainer) Defined() bool { return l.c.Defined() }
func (l *lxcContainer) Running() bool { return l.c.Running() }

func (l *lxcContainer) Create(spec ImageSpec) error {
	opts := lxc.TemplateOptions{
		Template: "download",
		Distro:   spec.Distro,
		Release:  spec.Release,
		Arch:     spec.Arch,
	}
	if err := l.c.Create(opts); err != nil {
		return fmt.Errorf("failed to create container filesystem: %w", err)
	}
	return nil
}

func (l *lxcContainer) Start() error {
	if err := l.c.Start(); err != nil {
		return fmt.Errorf("failed to start container: %w", err)
	}
	return nil
}

func (l *lxcContainer) Stop() error {
	if err := l.c.Stop(); err != nil {
		return fmt.Errorf("failed to stop container: %w", err)
	}
	return nil
}

func (l *lxcContainer) Destroy() error {
	if err := l.c.Destroy(); err != nil {
		return fmt.Errorf("failed to destroy container: %w", err)
	}
	return nil
}

func (l *lxcContainer) WaitIP(timeout time.Duration) (string, error) {
	ips, err := l.c.WaitIPAddresses(timeout)
	if err != nil {
		return "", fmt.Errorf("failed waiting for container address: %w", err)
	}
	if len(ips) == 0 || ips[0] == "" {
		return "", ErrNoAddress
	}
	return ips[0], nil
}

func (l *lxcContainer) Run(ctx context.Context, opts RunOptions, args ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !l.c.Defined() || !l.c.Running() {
		return fmt.Errorf("container %s is not running", l.c.Name())
	}

	attach := lxc.DefaultAttachOptions
	attach.ClearEnv = true
	attach.Env = attachEnv

	if !opts.Stream {
		null, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", os.DevNull, err)
		}
		defer null.Close()
		attach.StdoutFd = null.Fd()
		attach.StderrFd = null.Fd()
	}

	if opts.Stdin != nil {
		pr, pw, err := os.Pipe()
		if err != nil {
			return fmt.Errorf("failed to create stdin pipe: %w", err)
		}
		defer pr.Close()
		go func() {
			_, _ = io.Copy(pw, opts.Stdin)
			pw.Close()
		}()
		attach.StdinFd = pr.Fd()
	}

	status, err := l.c.RunCommandStatus(args, attach)
	if err != nil {
		return fmt.Errorf("attach failed: %w", err)
	}
	if status != 0 {
		return fmt.Errorf("command %q exited with status %d", strings.Join(args, " "), status)
	}
	return nil
}

func (l *lxcContainer) SetConfigItem(key, value string) error {
	if err := l.c.SetConfigItem(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (l *lxcContainer) ClearConfigItem(key string) error {
	if err := l.c.ClearConfigItem(key); err != nil {
		return fmt.Errorf("failed to clear %s: %w", key, err)
	}
	return nil
}

func (l *lxcContainer) SaveConfig() error {
	if err := l.c.SaveConfigFile(l.c.ConfigFileName()); err != nil {
		return fmt.Errorf("failed to save container config: %w", err)
	}
	return nil
}
