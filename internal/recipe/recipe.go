// Package recipe defines the provisioners lxcforge ships: postgresql,
// django and pydev. A recipe turns its parameters into the ordered steps
// the provisioning engine executes and into the report printed on success.
package recipe

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"lxcforge/internal/config"
	"lxcforge/internal/container"
	"lxcforge/internal/provision"
	"lxcforge/internal/report"
)

// Recipe kinds. The kind is embedded in the container name.
const (
	KindPostgres = "postgresql"
	KindDjango   = "django"
	KindPyDev    = "pydev"
)

// Kinds lists every known recipe in provisioning order.
var Kinds = []string{KindPostgres, KindDjango, KindPyDev}

// Provisioner is one configured recipe bound to a container.
type Provisioner interface {
	Kind() string
	Steps() []provision.Step
	Report() report.Fields
}

// Params carries the inputs shared by all recipes.
type Params struct {
	Prefix   string
	Codename string
	Arch     string
	Hostname string
	RunID    string
	// Stream passes container command output through instead of
	// discarding it.
	Stream bool
	Cfg    *config.Config
}

// New builds the provisioner for kind.
func New(kind string, c container.Container, p Params) (Provisioner, error) {
	switch kind {
	case KindPostgres:
		return NewPostgres(c, p)
	case KindDjango:
		return NewDjango(c, p)
	case KindPyDev:
		return NewPyDev(c, p)
	default:
		return nil, fmt.Errorf("unknown recipe %q", kind)
	}
}

// ContainerName builds the canonical container name for a recipe run.
func ContainerName(prefix, kind, codename string) string {
	return fmt.Sprintf("%s_%s_%s", prefix, kind, codename)
}

// ValidatePrefix rejects prefixes that would produce hostile container
// names or shell fragments.
func ValidatePrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("prefix must not be empty")
	}
	for _, r := range prefix {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			// ok
		default:
			return fmt.Errorf("prefix %q contains %q; only letters, digits and '-' are allowed", prefix, r)
		}
	}
	return nil
}

// UserName returns the service user created inside django and pydev
// containers.
func UserName(prefix string) string {
	return prefix + "_user"
}

// gecosName builds the GECOS full name for the service user, e.g.
// "Test User" for prefix "test".
func gecosName(prefix string) string {
	return strings.ToUpper(prefix[:1]) + strings.ToLower(prefix[1:]) + " User"
}

// Subnet derives the /24 of a container address by stripping the final
// octet, e.g. "10.0.3.65" -> "10.0.3.0/24".
func Subnet(address string) string {
	return strings.TrimRight(address, "0123456789") + "0/24"
}

// base holds the state shared by every recipe: the container handle, the
// run parameters and the values discovered while provisioning.
type base struct {
	kind     string
	c        container.Container
	p        Params
	address  string
	password string
}

func (b *base) Kind() string { return b.kind }

func (b *base) imageSpec() container.ImageSpec {
	return container.ImageSpec{
		Distro:  "debian",
		Release: b.p.Codename,
		Arch:    b.p.Arch,
	}
}

func (b *base) runOptions() container.RunOptions {
	return container.RunOptions{Stream: b.p.Stream}
}

// run builds a step that executes one command inside the container.
func (b *base) run(desc string, args ...string) provision.Step {
	return provision.Step{Desc: desc, Run: func(ctx context.Context) error {
		return b.c.Run(ctx, b.runOptions(), args...)
	}}
}

// runStdin builds a step whose command reads the content produced by
// input. The producer runs at step time so it can use values discovered by
// earlier steps (such as the container address).
func (b *base) runStdin(desc string, input func() string, args ...string) provision.Step {
	return provision.Step{Desc: desc, Run: func(ctx context.Context) error {
		opts := b.runOptions()
		opts.Stdin = strings.NewReader(input())
		return b.c.Run(ctx, opts, args...)
	}}
}

// runStdinE is runStdin for producers that can fail, such as template
// renders that depend on runtime values.
func (b *base) runStdinE(desc string, input func() (string, error), args ...string) provision.Step {
	return provision.Step{Desc: desc, Run: func(ctx context.Context) error {
		content, err := input()
		if err != nil {
			return err
		}
		opts := b.runOptions()
		opts.Stdin = strings.NewReader(content)
		return b.c.Run(ctx, opts, args...)
	}}
}

func (b *base) createStep() provision.Step {
	return provision.Step{Desc: "Creating filesystem", Run: func(ctx context.Context) error {
		return b.c.Create(b.imageSpec())
	}}
}

func (b *base) startStep() provision.Step {
	return provision.Step{Desc: "Starting container", Run: func(ctx context.Context) error {
		return b.c.Start()
	}}
}

func (b *base) stopStep() provision.Step {
	return provision.Step{Desc: "Stopping container", Run: func(ctx context.Context) error {
		return b.c.Stop()
	}}
}

func (b *base) waitIPStep() provision.Step {
	return provision.Step{Desc: "Getting IP address", Run: func(ctx context.Context) error {
		addr, err := b.c.WaitIP(b.p.Cfg.IPWaitTimeout())
		if err != nil {
			return err
		}
		b.address = addr
		return nil
	}}
}

func (b *base) aptUpdateStep() provision.Step {
	return b.run("Updating apt", "apt-get", "update")
}

func (b *base) aptInstallStep(desc string, packages []string, extraArgs ...string) provision.Step {
	args := append([]string{"apt-get", "install"}, extraArgs...)
	args = append(args, "-y")
	args = append(args, packages...)
	return b.run(desc, args...)
}

func (b *base) pipInstallStep(packages []string) provision.Step {
	args := append([]string{"pip3", "install"}, packages...)
	return b.run("Installing python packages", args...)
}

// addUserSteps creates the service user with a disabled login password and
// then sets the generated one through chpasswd on stdin, so the secret
// never appears in an argument list.
func (b *base) addUserSteps() []provision.Step {
	user := UserName(b.p.Prefix)
	return []provision.Step{
		b.run("Adding user",
			"adduser", "--disabled-password", "--gecos", gecosName(b.p.Prefix), user),
		b.runStdin("Setting user password",
			func() string { return fmt.Sprintf("%s:%s\n", user, b.password) },
			"chpasswd"),
	}
}

// idMapLines is the unprivileged id mapping applied to django and pydev
// containers: the host uid/gid 1000 is mapped straight through so X11 and
// shared files keep their ownership.
var idMapLines = []string{
	"u 0 100000 1000",
	"g 0 100000 1000",
	"u 1000 1000 1",
	"g 1000 1000 1",
	"u 1001 101001 64535",
	"g 1001 101001 64535",
}

func (b *base) idMapSteps() []provision.Step {
	clear := provision.Step{Desc: "Clearing UID and GID mappings", Run: func(ctx context.Context) error {
		return b.c.ClearConfigItem("lxc.id_map")
	}}
	appendMaps := provision.Step{Desc: "Appending new UID and GID mappings", Run: func(ctx context.Context) error {
		for _, line := range idMapLines {
			if err := b.c.SetConfigItem("lxc.id_map", line); err != nil {
				return err
			}
		}
		return nil
	}}
	save := provision.Step{Desc: "Saving configuration", Run: func(ctx context.Context) error {
		return b.c.SaveConfig()
	}}
	return []provision.Step{clear, appendMaps, save}
}

// downloadPipeStep streams url into a command running inside the
// container, the moral equivalent of `curl url | lxc-attach -- cmd`.
func (b *base) downloadPipeStep(desc, url string, header http.Header, args ...string) provision.Step {
	return provision.Step{Desc: desc, Run: func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("failed to build request for %s: %w", url, err)
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		client := &http.Client{Timeout: 30 * time.Minute}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("download of %s failed: %w", url, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("download of %s returned %s", url, resp.Status)
		}

		opts := b.runOptions()
		opts.Stdin = resp.Body
		return b.c.Run(ctx, opts, args...)
	}}
}
