package recipe

import (
	"fmt"
	"path"

	"lxcforge/internal/container"
	"lxcforge/internal/provision"
	"lxcforge/internal/report"
	"lxcforge/internal/secret"
)

// Postgres provisions a container running a PostgreSQL server with a
// fresh database and owner role reachable from the host's subnet.
type Postgres struct {
	base
	dbName string
	dbUser string
}

// NewPostgres builds the postgresql recipe and generates the database
// password.
func NewPostgres(c container.Container, p Params) (*Postgres, error) {
	password, err := secret.Password(secret.PasswordLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate database password: %w", err)
	}
	r := &Postgres{
		base:   base{kind: KindPostgres, c: c, p: p},
		dbName: p.Prefix + "_db",
		dbUser: p.Prefix + "_user",
	}
	r.password = password
	return r, nil
}

// hbaLine is the pg_hba.conf entry granting md5 access to the database
// from the container's /24.
func hbaLine(dbName, dbUser, address string) string {
	return fmt.Sprintf("host\t\t%s\t\t%s\t\t%s\t\tmd5\n", dbName, dbUser, Subnet(address))
}

// listenScript rewrites the commented-out listen_addresses line to accept
// connections addressed to the container and the host. It fails when the
// line is absent, which catches layout changes in the packaged config.
func listenScript(confPath, containerName, hostName string) string {
	return fmt.Sprintf(
		"grep -q '^#listen_addresses' %[1]s && sed -i \"s/^#listen_addresses.*/listen_addresses = '%[2]s,%[3]s'/\" %[1]s",
		confPath, containerName, hostName)
}

func (r *Postgres) Steps() []provision.Step {
	cfg := r.p.Cfg
	hbaPath := path.Join(cfg.PostgreSQL.ConfDir, "pg_hba.conf")
	confPath := path.Join(cfg.PostgreSQL.ConfDir, "postgresql.conf")

	return []provision.Step{
		r.createStep(),
		r.startStep(),
		r.waitIPStep(),
		r.aptUpdateStep(),
		r.aptInstallStep("Installing packages", cfg.PostgreSQL.Packages),
		r.runStdin("Configuring pg_hba.conf",
			func() string { return hbaLine(r.dbName, r.dbUser, r.address) },
			"sh", "-c", fmt.Sprintf("test -f %[1]s && cat >> %[1]s", hbaPath)),
		r.run("Configuring postgresql.conf",
			"sh", "-c", listenScript(confPath, r.c.Name(), r.p.Hostname)),
		r.run("Restarting PostgreSQL daemon", "systemctl", "restart", "postgresql"),
		r.run("Creating database user",
			"su", "-", "postgres", "-c",
			fmt.Sprintf(`psql -c "CREATE USER %s WITH PASSWORD '%s';"`, r.dbUser, r.password)),
		r.run("Creating database",
			"su", "-", "postgres", "-c",
			fmt.Sprintf(`psql -c "CREATE DATABASE %s OWNER %s;"`, r.dbName, r.dbUser)),
	}
}

func (r *Postgres) Report() report.Fields {
	return report.Fields{
		"container_name":    r.c.Name(),
		"container_address": r.address,
		"database_name":     r.dbName,
		"database_user":     r.dbUser,
		"database_password": r.password,
		"run_id":            r.p.RunID,
	}
}
