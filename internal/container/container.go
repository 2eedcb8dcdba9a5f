// Package container wraps liblxc behind a narrow interface so recipes and
// the provisioning engine can be exercised without a container runtime.
package container

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNoAddress is returned when a started container never reports an IP
// address within the wait window.
var ErrNoAddress = errors.New("container reported no IP address")

// ErrAlreadyExists is returned when a container with the requested name is
// already defined.
var ErrAlreadyExists = errors.New("container already exists")

// ImageSpec selects the rootfs built by the download template.
type ImageSpec struct {
	Distro  string
	Release string
	Arch    string
}

// RunOptions controls a single attached command.
type RunOptions struct {
	// Stdin, when set, is streamed to the command inside the container.
	Stdin io.Reader
	// Stream passes the command's output through instead of discarding it.
	Stream bool
}

// Container is the lifecycle surface the provisioning engine needs.
type Container interface {
	Name() string
	Defined() bool
	Running() bool

	Create(spec ImageSpec) error
	Start() error
	Stop() error
	Destroy() error

	// WaitIP blocks until the container reports an IPv4 address or the
	// timeout elapses.
	WaitIP(timeout time.Duration) (string, error)

	// Run executes a command inside the container with a cleared
	// environment and returns an error for any non-zero exit.
	Run(ctx context.Context, opts RunOptions, args ...string) error

	SetConfigItem(key, value string) error
	ClearConfigItem(key string) error
	SaveConfig() error
}

// Info describes a defined container for listings.
type Info struct {
	Name    string `json:"name"`
	State   string `json:"state"`
	Address string `json:"address,omitempty"`
}
