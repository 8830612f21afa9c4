package config

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// SysConfig system settings
type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Debug    bool   `yaml:"debug"`
}

// WebConfig web server settings. An empty JwtSecret disables the bearer guard.
type WebConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	JwtSecret string `yaml:"jwt_secret"`
}

// DBConfig database settings. Type is postgres, sqlite or memory.
type DBConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Passwd   string `yaml:"passwd"`
	MaxConn  int    `yaml:"max_conn"`
	IdleConn int    `yaml:"idle_conn"`
	Debug    bool   `yaml:"debug"`
}

type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

// SequenceConfig selects the counter store: database, bolt or memory.
type SequenceConfig struct {
	Backend string `yaml:"backend"`
}

type CacheConfig struct {
	TTLSeconds int `yaml:"ttl_seconds"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ReferenceConfig points at the YAML seed file for manufacturers, countries and states.
type ReferenceConfig struct {
	SeedFile string `yaml:"seed_file"`
}

type AppConfig struct {
	System    SysConfig       `yaml:"system"`
	Web       WebConfig       `yaml:"web"`
	Database  DBConfig        `yaml:"database"`
	Logger    LogConfig       `yaml:"logger"`
	Sequence  SequenceConfig  `yaml:"sequence"`
	Cache     CacheConfig     `yaml:"cache"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Reference ReferenceConfig `yaml:"reference"`
}

func (c *AppConfig) GetDataDir() string {
	return path.Join(c.System.Workdir, "data")
}

func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

// initDirs creates the working directories
func (c *AppConfig) initDirs() error {
	for _, dir := range []string{c.GetDataDir(), c.GetLogDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}
	return nil
}

// SequenceBackend resolves the effective counter store. With sqlite the
// database backend would contend for the single writer lock held by the
// registration transaction, so bolt is used instead.
func (c *AppConfig) SequenceBackend() string {
	backend := strings.ToLower(c.Sequence.Backend)
	switch c.Database.Type {
	case "memory":
		if backend == "" || backend == "database" {
			return "memory"
		}
	case "sqlite":
		if backend == "" || backend == "database" {
			return "bolt"
		}
	}
	if backend == "" {
		return "database"
	}
	return backend
}

// Validate checks enumerated settings.
func (c *AppConfig) Validate() error {
	switch c.Database.Type {
	case "postgres", "sqlite", "memory":
	default:
		return errors.Errorf("unsupported database.type %q", c.Database.Type)
	}
	switch c.SequenceBackend() {
	case "database", "bolt", "memory":
	default:
		return errors.Errorf("unsupported sequence.backend %q", c.Sequence.Backend)
	}
	if c.Database.Type == "memory" && c.SequenceBackend() == "database" {
		return errors.New("sequence.backend database requires a sql database")
	}
	if c.Web.Port <= 0 || c.Web.Port > 65535 {
		return errors.Errorf("invalid web.port %d", c.Web.Port)
	}
	return nil
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "GPRegistration",
		Location: "Asia/Kolkata",
		Workdir:  "/var/gpreg",
		Debug:    true,
	},
	Web: WebConfig{
		Host: "0.0.0.0",
		Port: 3000,
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "gp_backend",
		User:     "postgres",
		Passwd:   "postgres",
		MaxConn:  100,
		IdleConn: 10,
		Debug:    false,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/gpreg/logs/gpreg.log",
	},
	Sequence: SequenceConfig{
		Backend: "database",
	},
	Cache: CacheConfig{
		TTLSeconds: 300,
	},
	Metrics: MetricsConfig{
		Enabled: true,
	},
}

func defaults() *AppConfig {
	cfg := *DefaultAppConfig
	return &cfg
}

// LoadConfig reads cfile (or ./gpreg.yml, /etc/gpreg.yml when cfile is empty)
// over the defaults, then applies GPREG_* environment overrides.
func LoadConfig(cfile string) (*AppConfig, error) {
	if cfile == "" {
		cfile = "gpreg.yml"
	}
	if !fileExists(cfile) {
		cfile = "/etc/gpreg.yml"
	}

	cfg := defaults()
	if fileExists(cfile) {
		data, err := os.ReadFile(filepath.Clean(cfile))
		if err != nil {
			return nil, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", cfile)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.initDirs(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *AppConfig) {
	setEnvValue("GPREG_SYSTEM_WORKER_DIR", &cfg.System.Workdir)
	setEnvValue("GPREG_SYSTEM_LOCATION", &cfg.System.Location)
	setEnvBoolValue("GPREG_SYSTEM_DEBUG", &cfg.System.Debug)

	setEnvValue("GPREG_WEB_HOST", &cfg.Web.Host)
	setEnvIntValue("GPREG_WEB_PORT", &cfg.Web.Port)
	setEnvValue("GPREG_WEB_JWT_SECRET", &cfg.Web.JwtSecret)

	setEnvValue("GPREG_DB_TYPE", &cfg.Database.Type)
	setEnvValue("GPREG_DB_HOST", &cfg.Database.Host)
	setEnvIntValue("GPREG_DB_PORT", &cfg.Database.Port)
	setEnvValue("GPREG_DB_NAME", &cfg.Database.Name)
	setEnvValue("GPREG_DB_USER", &cfg.Database.User)
	setEnvValue("GPREG_DB_PASSWD", &cfg.Database.Passwd)
	setEnvIntValue("GPREG_DB_MAX_CONN", &cfg.Database.MaxConn)
	setEnvIntValue("GPREG_DB_IDLE_CONN", &cfg.Database.IdleConn)
	setEnvBoolValue("GPREG_DB_DEBUG", &cfg.Database.Debug)

	setEnvValue("GPREG_LOGGER_MODE", &cfg.Logger.Mode)
	setEnvBoolValue("GPREG_LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)
	setEnvValue("GPREG_LOGGER_FILENAME", &cfg.Logger.Filename)

	setEnvValue("GPREG_SEQUENCE_BACKEND", &cfg.Sequence.Backend)
	setEnvIntValue("GPREG_CACHE_TTL_SECONDS", &cfg.Cache.TTLSeconds)
	setEnvBoolValue("GPREG_METRICS_ENABLED", &cfg.Metrics.Enabled)
	setEnvValue("GPREG_REFERENCE_SEED_FILE", &cfg.Reference.SeedFile)
}

func setEnvValue(name string, val *string) {
	if v := os.Getenv(name); v != "" {
		*val = v
	}
}

func setEnvBoolValue(name string, val *bool) {
	if v := os.Getenv(name); v != "" {
		*val = cast.ToBool(v)
	}
}

func setEnvIntValue(name string, val *int) {
	if v := os.Getenv(name); v != "" {
		*val = cast.ToInt(v)
	}
}

func fileExists(file string) bool {
	info, err := os.Stat(file)
	return err == nil && !info.IsDir()
}
