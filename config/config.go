package config

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIBase         = "http://localhost:8000/api"
	DefaultListenAddr      = ":8080"
	DefaultRefreshInterval = 5 * time.Second
	DefaultNotificationTTL = 3 * time.Second
	DefaultExportDir       = "."
	DefaultPreferencesDir  = "./wal/preferences"
	DefaultCommand         = "serve"

	EnvAPIBase    = "PAYDASH_API_BASE"
	EnvListenAddr = "PAYDASH_ADDR"
)

type Config struct {
	APIBase         string
	ListenAddr      string
	RefreshInterval time.Duration
	NotificationTTL time.Duration
	// HTTPTimeout of zero means backend calls never time out.
	HTTPTimeout    time.Duration
	ExportDir      string
	PreferencesDir string
	Debug          bool

	// Command is the first positional argument, Args the rest.
	Command string
	Args    []string
}

type ConfigTmp struct {
	APIBase         string        `yaml:"api_base,omitempty"`
	ListenAddr      string        `yaml:"listen_addr,omitempty"`
	RefreshInterval time.Duration `yaml:"refresh_interval,omitempty"`
	NotificationTTL time.Duration `yaml:"notification_ttl,omitempty"`
	HTTPTimeout     time.Duration `yaml:"http_timeout,omitempty"`
	ExportDir       string        `yaml:"export_dir,omitempty"`
	PreferencesDir  string        `yaml:"preferences_dir,omitempty"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		APIBase:         DefaultAPIBase,
		ListenAddr:      DefaultListenAddr,
		RefreshInterval: DefaultRefreshInterval,
		NotificationTTL: DefaultNotificationTTL,
		ExportDir:       DefaultExportDir,
		PreferencesDir:  DefaultPreferencesDir,
		Command:         DefaultCommand,
	}
}

// Get reads the configuration from the process arguments.
func Get() (Config, error) {
	return Parse(os.Args[1:])
}

// Parse builds the configuration. Later sources win: defaults, the yaml file given
// with --config, the .env file and environment, then explicitly set flags.
func Parse(args []string) (Config, error) {
	fs := flag.NewFlagSet("paydash", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to yaml config")
	envPath := fs.String("env", ".env", "path to .env file with overrides")
	apiBase := fs.String("api", DefaultAPIBase, "payments backend base url")
	addr := fs.String("addr", DefaultListenAddr, "web dashboard listen address")
	refresh := fs.Duration("refresh", DefaultRefreshInterval, "auto-refresh interval")
	ttl := fs.Duration("notification-ttl", DefaultNotificationTTL, "how long notifications stay visible")
	timeout := fs.Duration("http-timeout", 0, "backend request timeout, 0 disables it")
	exportDir := fs.String("export-dir", DefaultExportDir, "directory for csv exports")
	prefsDir := fs.String("prefs-dir", DefaultPreferencesDir, "directory of the preferences wal")
	debug := fs.Bool("debug", false, "enable development logging")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Default()

	if *configPath != "" {
		fromFile, err := getYaml(*configPath)
		if err != nil {
			return Config{}, err
		}
		cfg = merge(cfg, fromFile)
	}

	// a missing .env file is not an error
	_ = godotenv.Load(*envPath)
	if v := os.Getenv(EnvAPIBase); v != "" {
		cfg.APIBase = v
	}
	if v := os.Getenv(EnvListenAddr); v != "" {
		cfg.ListenAddr = v
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "api":
			cfg.APIBase = *apiBase
		case "addr":
			cfg.ListenAddr = *addr
		case "refresh":
			cfg.RefreshInterval = *refresh
		case "notification-ttl":
			cfg.NotificationTTL = *ttl
		case "http-timeout":
			cfg.HTTPTimeout = *timeout
		case "export-dir":
			cfg.ExportDir = *exportDir
		case "prefs-dir":
			cfg.PreferencesDir = *prefsDir
		}
	})
	cfg.Debug = *debug

	if rest := fs.Args(); len(rest) > 0 {
		cfg.Command = rest[0]
		cfg.Args = rest[1:]
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	u, err := url.Parse(c.APIBase)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api base url %q", c.APIBase)
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %s", c.RefreshInterval)
	}
	if c.NotificationTTL <= 0 {
		return fmt.Errorf("notification ttl must be positive, got %s", c.NotificationTTL)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("http timeout cannot be negative, got %s", c.HTTPTimeout)
	}
	return nil
}

// Tmp returns the yaml form of the configuration.
func (c Config) Tmp() ConfigTmp {
	return ConfigTmp{
		APIBase:         c.APIBase,
		ListenAddr:      c.ListenAddr,
		RefreshInterval: c.RefreshInterval,
		NotificationTTL: c.NotificationTTL,
		HTTPTimeout:     c.HTTPTimeout,
		ExportDir:       c.ExportDir,
		PreferencesDir:  c.PreferencesDir,
	}
}

func getYaml(path string) (ConfigTmp, error) {
	var tmp ConfigTmp

	f, err := os.ReadFile(path)
	if err != nil {
		return ConfigTmp{}, err
	}
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return ConfigTmp{}, fmt.Errorf("incorrect yaml config %s, error: %w", path, err)
	}

	return tmp, nil
}

// merge overlays the non-empty fields of tmp on cfg.
func merge(cfg Config, tmp ConfigTmp) Config {
	if tmp.APIBase != "" {
		cfg.APIBase = tmp.APIBase
	}
	if tmp.ListenAddr != "" {
		cfg.ListenAddr = tmp.ListenAddr
	}
	if tmp.RefreshInterval != 0 {
		cfg.RefreshInterval = tmp.RefreshInterval
	}
	if tmp.NotificationTTL != 0 {
		cfg.NotificationTTL = tmp.NotificationTTL
	}
	if tmp.HTTPTimeout != 0 {
		cfg.HTTPTimeout = tmp.HTTPTimeout
	}
	if tmp.ExportDir != "" {
		cfg.ExportDir = tmp.ExportDir
	}
	if tmp.PreferencesDir != "" {
		cfg.PreferencesDir = tmp.PreferencesDir
	}
	return cfg
}
