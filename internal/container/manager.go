package container

import (
	"fmt"

	lxc "gopkg.in/lxc/go-lxc.v2"
)

// Manager enumerates and removes defined containers.
type Manager struct {
	lxcpath string
}

// NewManager returns a Manager over lxcpath; empty selects the liblxc
// default.
func NewManager(lxcpath string) *Manager {
	return &Manager{lxcpath: lxcpath}
}

func (m *Manager) paths() []string {
	if m.lxcpath == "" {
		return nil
	}
	return []string{m.lxcpath}
}

// List returns every defined container with its state and, when running,
// its first address.
func (m *Manager) List() []Info {
	containers := lxc.DefinedContainers(m.paths()...)
	infos := make([]Info, 0, len(containers))
	for i := range containers {
		c := &containers[i]
		info := Info{
			Name:  c.Name(),
			State: c.State().String(),
		}
		if c.Running() {
			if ips, err := c.IPAddresses(); err == nil && len(ips) > 0 {
				info.Address = ips[0]
			}
		}
		infos = append(infos, info)
		lxc.Release(c)
	}
	return infos
}

// Destroy stops (if needed) and removes the named container.
func (m *Manager) Destroy(name string) error {
	c, err := New(name, m.lxcpath)
	if err != nil {
		return err
	}
	if !c.Defined() {
		return fmt.Errorf("container %s is not defined", name)
	}
	if c.Running() {
		if err := c.Stop(); err != nil {
			return err
		}
	}
	return c.Destroy()
}
