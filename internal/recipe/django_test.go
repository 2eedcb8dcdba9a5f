package recipe

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lxcforge/internal/container/containertest"
)

func TestDjangoSteps(t *testing.T) {
	fake := containertest.New("test_django_jessie", "10.0.3.66")
	r, err := NewDjango(fake, testParams())
	require.NoError(t, err)

	steps := r.Steps()
	names := descs(steps)

	// The id map is rewritten before the container starts.
	assert.Equal(t, "Creating filesystem", names[0])
	assert.Equal(t, "Clearing UID and GID mappings", names[1])
	assert.Equal(t, "Saving configuration", names[3])
	assert.Equal(t, "Starting container", names[4])
	assert.Equal(t, "Starting uwsgi service", names[len(names)-1])

	runSteps(t, steps)

	lines := fake.CommandLines()
	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, "apt-get install -y python3 python3-pip python3-psycopg2 nginx adduser openssh-server")
	assert.Contains(t, joined, "pip3 install uWSGI==2.0.13.1 Django==1.10 openpyxl==2.4.1")
	assert.Contains(t, joined, "django-admin.py startproject test_project")
	assert.Contains(t, joined, "cd test_project && python3 manage.py collectstatic --noinput")
	assert.Contains(t, joined, "rm -f /etc/nginx/sites-enabled/default")
	assert.Contains(t, joined, "ln -s /home/test_user/test_project/test_project_nginx.conf /etc/nginx/sites-enabled/")
	assert.Contains(t, joined, "systemctl enable uwsgi")
}

func TestDjangoRenderedConfigs(t *testing.T) {
	fake := containertest.New("test_django_jessie", "10.0.3.66")
	r, err := NewDjango(fake, testParams())
	require.NoError(t, err)

	runSteps(t, r.Steps())

	var nginxConf, uwsgiConf, unit, settings string
	for _, c := range fake.Commands {
		line := strings.Join(c.Args, " ")
		switch {
		case strings.Contains(line, "test_project_nginx.conf") && strings.Contains(line, "cat >"):
			nginxConf = c.Stdin
		case strings.Contains(line, "test_project_uwsgi.ini") && strings.Contains(line, "cat >"):
			uwsgiConf = c.Stdin
		case strings.Contains(line, "uwsgi.service"):
			unit = c.Stdin
		case strings.Contains(line, "settings.py"):
			settings = c.Stdin
		}
	}

	require.NotEmpty(t, nginxConf)
	assert.Contains(t, nginxConf, "server unix:///home/test_user/test_project/test_project.sock;")
	assert.Contains(t, nginxConf, "server_name 10.0.3.66;")
	assert.Contains(t, nginxConf, "alias /home/test_user/test_project/media;")
	assert.Contains(t, nginxConf, "include     /home/test_user/test_project/uwsgi_params;")

	require.NotEmpty(t, uwsgiConf)
	assert.Contains(t, uwsgiConf, "project         = test_project")
	assert.Contains(t, uwsgiConf, "base            = /home/test_user")
	assert.Contains(t, uwsgiConf, "processes       = 5")
	assert.Contains(t, uwsgiConf, "chmod-socket    = 666")
	// uWSGI's own interpolation must survive template rendering.
	assert.Contains(t, uwsgiConf, "socket          = %(base)/%(project)/%(project).sock")

	require.NotEmpty(t, unit)
	assert.Contains(t, unit, "ExecStart=/usr/local/bin/uwsgi --emperor /etc/uwsgi/vassals")
	assert.Contains(t, unit, "WantedBy=multi-user.target")

	assert.Equal(t, "STATIC_ROOT = os.path.join(BASE_DIR, 'static') + os.sep\n", settings)
}

func TestDjangoReport(t *testing.T) {
	fake := containertest.New("test_django_jessie", "10.0.3.66")
	r, err := NewDjango(fake, testParams())
	require.NoError(t, err)

	runSteps(t, r.Steps())

	fields := r.Report()
	assert.Equal(t, "test_django_jessie", fields["container_name"])
	assert.Equal(t, "10.0.3.66", fields["container_address"])
	assert.Equal(t, "test_user", fields["user_name"])
	assert.Equal(t, "/home/test_user/test_project", fields["project_path"])
	assert.Len(t, fields["user_password"], 8)
}
