package recipe

import (
	"fmt"
	"path"

	"lxcforge/internal/container"
	"lxcforge/internal/provision"
	"lxcforge/internal/report"
	"lxcforge/internal/secret"
)

// staticRootLine is appended to the generated project's settings.py so
// collectstatic has somewhere to put things.
const staticRootLine = "STATIC_ROOT = os.path.join(BASE_DIR, 'static') + os.sep\n"

// Django provisions a container running a skeleton Django project behind
// nginx and the uWSGI emperor, owned by a dedicated user.
type Django struct {
	base
	userName    string
	userHome    string
	projectName string
	projectPath string
}

// NewDjango builds the django recipe and generates the user password.
func NewDjango(c container.Container, p Params) (*Django, error) {
	password, err := secret.Password(secret.PasswordLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate user password: %w", err)
	}
	user := UserName(p.Prefix)
	home := "/home/" + user
	project := p.Prefix + "_project"

	r := &Django{
		base:        base{kind: KindDjango, c: c, p: p},
		userName:    user,
		userHome:    home,
		projectName: project,
		projectPath: path.Join(home, project),
	}
	r.password = password
	return r, nil
}

// projectDir is the project path with a trailing slash, as embedded in the
// rendered nginx and uWSGI configs.
func (r *Django) projectDir() string {
	return r.projectPath + "/"
}

func (r *Django) nginxSite() (string, error) {
	return renderTemplate("nginx-site", nginxSiteTemplate, nginxSiteParams{
		SocketBase: path.Join(r.projectPath, r.projectName),
		ServerName: r.address,
		ProjectDir: r.projectDir(),
	})
}

func (r *Django) uwsgiINI() (string, error) {
	return renderTemplate("uwsgi-ini", uwsgiINITemplate, uwsgiINIParams{
		Project: r.projectName,
		Base:    r.userHome,
	})
}

// asUser builds a login-shell invocation for the service user.
func (r *Django) asUser(command string) []string {
	return []string{"su", "-", r.userName, "-c", command}
}

func (r *Django) Steps() []provision.Step {
	cfg := r.p.Cfg

	nginxConfPath := path.Join(r.projectPath, r.projectName+"_nginx.conf")
	uwsgiINIPath := path.Join(r.projectPath, r.projectName+"_uwsgi.ini")

	steps := []provision.Step{
		r.createStep(),
	}
	steps = append(steps, r.idMapSteps()...)
	steps = append(steps,
		r.startStep(),
		r.waitIPStep(),
		r.aptUpdateStep(),
		r.aptInstallStep("Installing debian packages", cfg.Django.DebianPackages),
		r.pipInstallStep(cfg.Django.PythonPackages),
	)
	steps = append(steps, r.addUserSteps()...)
	steps = append(steps,
		r.run("Creating Django project",
			r.asUser(fmt.Sprintf("django-admin.py startproject %s", r.projectName))...),
		r.runStdin("Appending configuration to settings.py",
			func() string { return staticRootLine },
			r.asUser(fmt.Sprintf("cat >> %s", path.Join(r.projectPath, r.projectName, "settings.py")))...),
		r.run("Updating static files configuration",
			r.asUser(fmt.Sprintf("cd %s && python3 manage.py collectstatic --noinput", r.projectName))...),
		r.run("Creating media directory",
			r.asUser(fmt.Sprintf("mkdir %s", path.Join(r.projectPath, "media")))...),
		r.runStdinE("Creating nginx configuration file",
			r.nginxSite,
			r.asUser(fmt.Sprintf("cat > %s", nginxConfPath))...),
		r.run("Copying nginx uwsgi parameter file",
			r.asUser(fmt.Sprintf("cp /etc/nginx/uwsgi_params %s", r.projectDir()))...),
		r.run("Removing default site", "rm", "-f", "/etc/nginx/sites-enabled/default"),
		r.run("Setting site status to active",
			"ln", "-s", nginxConfPath, "/etc/nginx/sites-enabled/"),
		r.run("Restarting nginx", "systemctl", "restart", "nginx"),
		r.runStdinE("Creating uwsgi configuration file",
			r.uwsgiINI,
			r.asUser(fmt.Sprintf("cat > %s", uwsgiINIPath))...),
		r.run("Creating uwsgi configuration directory", "mkdir", "-p", "/etc/uwsgi/vassals"),
		r.run("Linking uwsgi configuration", "ln", "-s", uwsgiINIPath, "/etc/uwsgi/vassals/"),
		r.runStdin("Creating uwsgi service",
			func() string { return uwsgiUnit },
			"sh", "-c", "cat > /lib/systemd/system/uwsgi.service"),
		r.run("Activating uwsgi service", "systemctl", "enable", "uwsgi"),
		r.run("Starting uwsgi service", "systemctl", "start", "uwsgi"),
	)
	return steps
}

func (r *Django) Report() report.Fields {
	return report.Fields{
		"container_name":    r.c.Name(),
		"container_address": r.address,
		"user_name":         r.userName,
		"user_password":     r.password,
		"project_path":      r.projectPath,
		"run_id":            r.p.RunID,
	}
}
