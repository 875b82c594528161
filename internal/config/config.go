// Package config resolves webtopd settings from defaults, an optional
// config file, WEBTOP_* environment variables and command-line flags.
package config

import (
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const EnvPrefix = "WEBTOP"

// Config holds every setting of the daemon and the terminal client
type Config struct {
	Host string
	Port int
	User string
	Pass string

	Script         string
	Workdir        string
	Registry       string
	BackupDir      string
	Prefix         string
	CommandTimeout time.Duration

	PollInterval time.Duration
	CPUSample    time.Duration
	StatsWorkers int

	DockerHost    string
	DockerCertDir string

	HistoryEnabled   bool
	HistoryPath      string
	HistoryRetention time.Duration

	CloudBucket string
	CloudRegion string
	CloudPrefix string

	URL string
}

// Addr is the listen address of the web server
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Resolve makes p relative to Workdir unless it is absolute
func (c Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Workdir, p)
}

var defaults = map[string]interface{}{
	"web.host":          "0.0.0.0",
	"web.port":          8090,
	"web.user":          "admin",
	"web.pass":          "webtop123",
	"script":            "./webtop.sh",
	"workdir":           ".",
	"registry":          ".container-registry.json",
	"backup_dir":        "backups",
	"prefix":            "webtop-",
	"command_timeout":   30 * time.Second,
	"poll_interval":     5 * time.Second,
	"cpu_sample":        time.Second,
	"stats_workers":     4,
	"docker.host":       "unix:///var/run/docker.sock",
	"docker.cert_dir":   "",
	"history.enabled":   true,
	"history.path":      ".webtopd/stats.db",
	"history.retention": 168 * time.Hour,
	"cloud.bucket":      "",
	"cloud.region":      "",
	"cloud.prefix":      "webtop-backups",
	"url":               "http://localhost:8090",
}

// New returns a viper instance carrying the defaults and the environment
// binding. WEBTOP_WEB_PORT maps to web.port.
func New() *viper.Viper {
	v := viper.New()

	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads file (when set) into v and decodes the result
func Load(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "read config %s", file)
		}
	}

	c := Config{
		Host: v.GetString("web.host"),
		Port: v.GetInt("web.port"),
		User: v.GetString("web.user"),
		Pass: v.GetString("web.pass"),

		Script:         v.GetString("script"),
		Workdir:        v.GetString("workdir"),
		Registry:       v.GetString("registry"),
		BackupDir:      v.GetString("backup_dir"),
		Prefix:         v.GetString("prefix"),
		CommandTimeout: v.GetDuration("command_timeout"),

		PollInterval: v.GetDuration("poll_interval"),
		CPUSample:    v.GetDuration("cpu_sample"),
		StatsWorkers: v.GetInt("stats_workers"),

		DockerHost:    v.GetString("docker.host"),
		DockerCertDir: v.GetString("docker.cert_dir"),

		HistoryEnabled:   v.GetBool("history.enabled"),
		HistoryPath:      v.GetString("history.path"),
		HistoryRetention: v.GetDuration("history.retention"),

		CloudBucket: v.GetString("cloud.bucket"),
		CloudRegion: v.GetString("cloud.region"),
		CloudPrefix: v.GetString("cloud.prefix"),

		URL: v.GetString("url"),
	}

	return c, c.validate()
}

func (c Config) validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return errors.Errorf("web.port out of range: %d", c.Port)
	case c.User == "" || c.Pass == "":
		return errors.New("web.user and web.pass must be set")
	case c.Script == "":
		return errors.New("script must be set")
	case c.PollInterval <= 0:
		return errors.Errorf("poll_interval must be positive: %s", c.PollInterval)
	case c.CommandTimeout <= 0:
		return errors.Errorf("command_timeout must be positive: %s", c.CommandTimeout)
	}
	return nil
}
