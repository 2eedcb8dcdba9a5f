package recipe

import (
	"fmt"
	"strings"
	"text/template"
)

// nginxSiteTemplate is the server block wiring nginx to the uWSGI socket
// of the generated Django project.
const nginxSiteTemplate = `# the upstream component nginx needs to connect to
upstream django {
    server unix://{{.SocketBase}}.sock; # for a file socket
}

# configuration of the server
server {
    # the port your site will be served on
    listen      80;
    # the domain name it will serve for
    server_name {{.ServerName}};
    charset     utf-8;

    # max upload size
    client_max_body_size 75M;

    location = /favicon.ico { access_log off; log_not_found off; }

    # Django media
    location /media  {
        alias {{.ProjectDir}}media;
    }

    location /static {
        alias {{.ProjectDir}}static;
    }

    # Finally, send all non-media requests to the Django server.
    location / {
        uwsgi_pass  django;
        include     {{.ProjectDir}}uwsgi_params;
    }
}
`

// uwsgiINITemplate runs the project under the uWSGI emperor. The %()
// placeholders are uWSGI's own interpolation and survive rendering.
const uwsgiINITemplate = `[uwsgi]
project         = {{.Project}}
base            = {{.Base}}

# the base directory (full path)
chdir           = %(base)/%(project)
# Django's wsgi file
module          = %(project).wsgi

# master
master          = true
# maximum number of worker processes
processes       = 5
# the socket (use the full path to be safe)
socket          = %(base)/%(project)/%(project).sock
# ... with appropriate permissions - may be needed
chmod-socket    = 666
# clear environment on exit
vacuum          = true
daemonize       = /var/log/uwsgi-emperor.log
`

// uwsgiUnit is the systemd unit for the uWSGI emperor. It is static, no
// rendering needed.
const uwsgiUnit = `[Unit]
Description=uWSGI Emperor
After=syslog.target

[Service]
ExecStart=/usr/local/bin/uwsgi --emperor /etc/uwsgi/vassals
Restart=always
KillSignal=SIGQUIT
Type=notify
StandardError=syslog
NotifyAccess=all

[Install]
WantedBy=multi-user.target
`

// startScriptTemplate is the host-side launcher for the pydev container:
// start it if needed, attach eclipse with the host display, and stop it
// again if this invocation started it.
const startScriptTemplate = `#!/bin/sh
CONTAINER={{.Container}}
CMD_LINE="eclipse/eclipse $*"

STARTED=false

if ! lxc-wait -n $CONTAINER -s RUNNING -t 0; then
    lxc-start -n $CONTAINER -d
    lxc-wait -n $CONTAINER -s RUNNING
    STARTED=true
fi

lxc-attach --clear-env -n $CONTAINER -- sudo -u {{.User}} -i env DISPLAY=$DISPLAY $CMD_LINE

if [ "$STARTED" = "true" ]; then
    lxc-stop -n $CONTAINER -t 10
fi
`

type nginxSiteParams struct {
	// SocketBase is the project path without the .sock suffix.
	SocketBase string
	ServerName string
	// ProjectDir is the project directory with a trailing slash.
	ProjectDir string
}

type uwsgiINIParams struct {
	Project string
	// Base is the home directory containing the project.
	Base string
}

type startScriptParams struct {
	Container string
	User      string
}

func renderTemplate(name, text string, data any) (string, error) {
	t, err := template.New(name).Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s template: %w", name, err)
	}
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render %s template: %w", name, err)
	}
	return sb.String(), nil
}
