// Package config holds all lxcforge configuration.
//
// Defaults live in code; a YAML file overlays them and a handful of
// environment variables override the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all lxcforge settings.
type Config struct {
	// LXCPath is the liblxc container path. Empty selects the liblxc
	// default for the current user.
	LXCPath string `yaml:"lxc_path"`

	Debian     DebianConfig   `yaml:"debian"`
	Timeouts   TimeoutConfig  `yaml:"timeouts"`
	PostgreSQL PostgresConfig `yaml:"postgresql"`
	Django     DjangoConfig   `yaml:"django"`
	PyDev      PyDevConfig    `yaml:"pydev"`
}

// DebianConfig configures the base image.
type DebianConfig struct {
	// FallbackRelease is used when the stable codename lookup fails.
	FallbackRelease string `yaml:"fallback_release"`
	Arch            string `yaml:"arch"`
	// ReleaseURL points at the Release file consulted for the stable
	// codename. Empty selects the debian.org archive.
	ReleaseURL string `yaml:"release_url"`
}

// TimeoutConfig holds operation timeouts as duration strings.
type TimeoutConfig struct {
	IPWait        string `yaml:"ip_wait"`
	ReleaseLookup string `yaml:"release_lookup"`
}

// PostgresConfig configures the postgresql recipe.
type PostgresConfig struct {
	// ConfDir is the server configuration directory inside the container.
	ConfDir  string   `yaml:"conf_dir"`
	Packages []string `yaml:"packages"`
}

// DjangoConfig configures the django recipe.
type DjangoConfig struct {
	DebianPackages []string `yaml:"debian_packages"`
	PythonPackages []string `yaml:"python_packages"`
}

// PyDevConfig configures the pydev recipe.
type PyDevConfig struct {
	DebianPackages []string `yaml:"debian_packages"`
	GUIPackages    []string `yaml:"gui_packages"`
	PythonPackages []string `yaml:"python_packages"`
	JavaURL        string   `yaml:"java_url"`
	EclipseURL     string   `yaml:"eclipse_url"`
	UpdateSites    []string `yaml:"update_sites"`
	Features       []string `yaml:"features"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Debian: DebianConfig{
			FallbackRelease: "jessie",
			Arch:            "amd64",
		},
		Timeouts: TimeoutConfig{
			IPWait:        "120s",
			ReleaseLookup: "15s",
		},
		PostgreSQL: PostgresConfig{
			ConfDir:  "/etc/postgresql/9.4/main",
			Packages: []string{"postgresql", "postgresql-client"},
		},
		Django: DjangoConfig{
			DebianPackages: []string{
				"python3", "python3-pip", "python3-psycopg2",
				"nginx", "adduser", "openssh-server",
			},
			PythonPackages: []string{
				"uWSGI==2.0.13.1", "Django==1.10", "openpyxl==2.4.1",
			},
		},
		PyDev: PyDevConfig{
			DebianPackages: []string{
				"python3", "python3-pip", "python3-psycopg2",
				"adduser", "sudo", "curl", "git",
			},
			GUIPackages:    []string{"libgtk2.0-0", "libxtst6"},
			PythonPackages: []string{"Django==1.10"},
			JavaURL:        "https://edelivery.oracle.com/otn-pub/java/jdk/8u102-b14/jdk-8u102-linux-x64.tar.gz",
			EclipseURL:     "http://download.eclipse.org/eclipse/downloads/drops4/R-4.6-201606061100/eclipse-platform-4.6-linux-gtk-x86_64.tar.gz",
			UpdateSites: []string{
				"http://pydev.org/updates",
				"http://download.eclipse.org/releases/neon",
				"http://eclipse.kacprzak.org/updates",
			},
			Features: []string{
				"org.python.pydev.feature.feature.group",
				"org.eclipse.egit.feature.group",
				"org.eclipse.tm.terminal.feature.feature.group",
				"org.kacprzak.eclipse.django.feature.feature.group",
			},
		},
	}
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "lxcforge", "config.yaml")
}

// Load builds the effective configuration: defaults, then the YAML file at
// path if it exists, then environment overrides. A missing file is not an
// error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// No file, defaults apply.
		case err != nil:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides applies LXCFORGE_* environment variables on top of the
// loaded configuration.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("LXCFORGE_LXC_PATH"); v != "" {
		c.LXCPath = v
	}
	if v := os.Getenv("LXCFORGE_FALLBACK_RELEASE"); v != "" {
		c.Debian.FallbackRelease = v
	}
	if v := os.Getenv("LXCFORGE_RELEASE_URL"); v != "" {
		c.Debian.ReleaseURL = v
	}
	if v := os.Getenv("LXCFORGE_ARCH"); v != "" {
		c.Debian.Arch = v
	}
}

// IPWaitTimeout returns the parsed IP wait timeout.
func (c *Config) IPWaitTimeout() time.Duration {
	return parseDuration(c.Timeouts.IPWait, 120*time.Second)
}

// ReleaseLookupTimeout returns the parsed release lookup timeout.
func (c *Config) ReleaseLookupTimeout() time.Duration {
	return parseDuration(c.Timeouts.ReleaseLookup, 15*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
