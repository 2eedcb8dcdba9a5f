package recipe

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"lxcforge/internal/container"
	"lxcforge/internal/provision"
	"lxcforge/internal/report"
	"lxcforge/internal/secret"
)

// x11MountEntry bind-mounts the host X11 socket directory so the IDE can
// open windows on the host display.
const x11MountEntry = "/tmp/.X11-unix tmp/.X11-unix none bind,optional,create=dir"

// PyDev provisions a container carrying the Eclipse/PyDev IDE wired for
// X11 forwarding, plus a host-side launcher script.
type PyDev struct {
	base
	userName   string
	userHome   string
	scriptPath string
}

// NewPyDev builds the pydev recipe, generates the user password and
// resolves the host-side script location.
func NewPyDev(c container.Container, p Params) (*PyDev, error) {
	password, err := secret.Password(secret.PasswordLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate user password: %w", err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}
	user := UserName(p.Prefix)

	r := &PyDev{
		base:       base{kind: KindPyDev, c: c, p: p},
		userName:   user,
		userHome:   "/home/" + user,
		scriptPath: filepath.Join(home, ".local", "share", "lxc", c.Name(), "start-pydev"),
	}
	r.password = password
	return r, nil
}

func (r *PyDev) asUser(command string) []string {
	return []string{"su", "-", r.userName, "-c", command}
}

func (r *PyDev) startScript() (string, error) {
	return renderTemplate("start-pydev", startScriptTemplate, startScriptParams{
		Container: r.c.Name(),
		User:      r.userName,
	})
}

// eclipseConfigScript inserts the workspace path and the bundled JDK into
// eclipse.ini ahead of the -vmargs block. The newlines are escaped so sed
// interprets them, not the shell.
func (r *PyDev) eclipseConfigScript() string {
	return fmt.Sprintf(
		`sed -i "/-vmargs/i-data\n%[1]s/workspace\n-vm\n%[1]s/jdk/bin/java" eclipse/eclipse.ini`,
		r.userHome)
}

func (r *PyDev) writeStartScriptStep() provision.Step {
	return provision.Step{Desc: "Writing startup script", Run: func(ctx context.Context) error {
		content, err := r.startScript()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(r.scriptPath), 0o755); err != nil {
			return fmt.Errorf("failed to create script directory: %w", err)
		}
		if err := os.WriteFile(r.scriptPath, []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write startup script: %w", err)
		}
		return nil
	}}
}

func (r *PyDev) chmodStartScriptStep() provision.Step {
	return provision.Step{Desc: "Making script executable", Run: func(ctx context.Context) error {
		if err := os.Chmod(r.scriptPath, 0o744); err != nil {
			return fmt.Errorf("failed to chmod startup script: %w", err)
		}
		return nil
	}}
}

func (r *PyDev) Steps() []provision.Step {
	cfg := r.p.Cfg

	// The Oracle JDK download requires the license-acceptance cookie.
	javaHeader := http.Header{"Cookie": []string{"oraclelicense=accept-securebackup-cookie"}}

	steps := []provision.Step{
		r.createStep(),
		{Desc: "Appending mount entry to config", Run: func(ctx context.Context) error {
			return r.c.SetConfigItem("lxc.mount.entry", x11MountEntry)
		}},
	}
	steps = append(steps, r.idMapSteps()...)
	steps = append(steps,
		r.startStep(),
		r.waitIPStep(),
		// The bind target carries a stale socket directory from before the
		// mapping took effect.
		r.run("Unmounting X11 directory", "umount", "/tmp/.X11-unix"),
		r.aptUpdateStep(),
		r.aptInstallStep("Installing debian packages", cfg.PyDev.DebianPackages),
		r.aptInstallStep("Installing GUI packages", cfg.PyDev.GUIPackages, "--no-install-recommends"),
		r.pipInstallStep(cfg.PyDev.PythonPackages),
	)
	steps = append(steps, r.addUserSteps()...)
	steps = append(steps,
		// Squashes the sudo hostname warning when the launcher attaches.
		r.runStdin("Appending container name to /etc/hosts",
			func() string { return fmt.Sprintf("127.0.1.1       %s\n", r.c.Name()) },
			"sh", "-c", "cat >> /etc/hosts"),
		r.downloadPipeStep("Downloading and extracting Java JDK",
			cfg.PyDev.JavaURL, javaHeader,
			r.asUser("mkdir jdk && tar xz -C jdk --strip-components 1")...),
		r.downloadPipeStep("Downloading and extracting Eclipse IDE",
			cfg.PyDev.EclipseURL, nil,
			r.asUser("tar xz")...),
		r.run("Updating Eclipse configuration", r.asUser(r.eclipseConfigScript())...),
		r.run("Installing PyDev",
			r.asUser(fmt.Sprintf(
				"eclipse/eclipse -application org.eclipse.equinox.p2.director -noSplash -repository %s -installIU %s",
				strings.Join(cfg.PyDev.UpdateSites, ","),
				strings.Join(cfg.PyDev.Features, ",")))...),
		r.writeStartScriptStep(),
		r.chmodStartScriptStep(),
		r.stopStep(),
	)
	return steps
}

func (r *PyDev) Report() report.Fields {
	return report.Fields{
		"container_name":    r.c.Name(),
		"container_address": r.address,
		"user_name":         r.userName,
		"user_password":     r.password,
		"startup_script":    r.scriptPath,
		"run_id":            r.p.RunID,
	}
}
