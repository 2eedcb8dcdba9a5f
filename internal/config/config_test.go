package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "jessie", cfg.Debian.FallbackRelease)
	assert.Equal(t, "amd64", cfg.Debian.Arch)
	assert.Equal(t, "/etc/postgresql/9.4/main", cfg.PostgreSQL.ConfDir)
	assert.Contains(t, cfg.PostgreSQL.Packages, "postgresql-client")
	assert.Contains(t, cfg.Django.PythonPackages, "Django==1.10")
	assert.Len(t, cfg.PyDev.UpdateSites, 3)
	assert.Equal(t, 120*time.Second, cfg.IPWaitTimeout())
	assert.Equal(t, 15*time.Second, cfg.ReleaseLookupTimeout())
}

func TestLoad(t *testing.T) {
	t.Run("missing file keeps defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "jessie", cfg.Debian.FallbackRelease)
	})

	t.Run("file overlays defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		body := `
debian:
  fallback_release: bookworm
timeouts:
  ip_wait: 30s
postgresql:
  conf_dir: /etc/postgresql/15/main
`
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "bookworm", cfg.Debian.FallbackRelease)
		assert.Equal(t, 30*time.Second, cfg.IPWaitTimeout())
		assert.Equal(t, "/etc/postgresql/15/main", cfg.PostgreSQL.ConfDir)
		// Untouched sections keep defaults.
		assert.Equal(t, "amd64", cfg.Debian.Arch)
	})

	t.Run("malformed file errors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("debian: ["), 0o644))

		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestEnvOverrides(t *testing.T) {
	t.Run("LXCFORGE_FALLBACK_RELEASE wins over file", func(t *testing.T) {
		t.Setenv("LXCFORGE_FALLBACK_RELEASE", "sid")

		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("debian:\n  fallback_release: bookworm\n"), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "sid", cfg.Debian.FallbackRelease)
	})

	t.Run("LXCFORGE_LXC_PATH sets container path", func(t *testing.T) {
		t.Setenv("LXCFORGE_LXC_PATH", "/srv/lxc")

		cfg := Default()
		cfg.applyEnvOverrides()
		assert.Equal(t, "/srv/lxc", cfg.LXCPath)
	})

	t.Run("empty env vars are ignored", func(t *testing.T) {
		t.Setenv("LXCFORGE_ARCH", "")

		cfg := Default()
		cfg.applyEnvOverrides()
		assert.Equal(t, "amd64", cfg.Debian.Arch)
	})
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("1m", time.Second))
	assert.Equal(t, time.Second, parseDuration("", time.Second))
	assert.Equal(t, time.Second, parseDuration("garbage", time.Second))
	assert.Equal(t, time.Second, parseDuration("-3s", time.Second))
}
